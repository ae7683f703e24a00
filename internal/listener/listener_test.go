package listener

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-idle/internal/clock"
	"github.com/pixil98/go-idle/internal/console"
	"github.com/pixil98/go-idle/internal/game"
	"github.com/pixil98/go-idle/internal/storage"
	"github.com/pixil98/go-testutil"
	"golang.org/x/crypto/ssh"
)

type bufferRW struct {
	io.Reader
	out bytes.Buffer
}

func (b *bufferRW) Write(p []byte) (int, error) { return b.out.Write(p) }

func newTestManager(t *testing.T) (*ConnectionManager, *game.Engine) {
	t.Helper()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := game.NewEngine(game.DefaultCatalog(), storage.NewMemoryStore[*game.SaveRecord](),
		game.WithClock(clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))),
		game.WithLogger(quiet),
	)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	return NewConnectionManager(e, console.WithLogger(quiet)), e
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConnectionManager_Serve(t *testing.T) {
	tests := map[string]struct {
		in       string
		opts     []console.SessionOpt
		expClick int64
		expOut   string
	}{
		"plain": {
			in:       "click 3\nquit\n",
			expClick: 3,
			expOut:   "Goodbye!\n",
		},
		"crlf terminal": {
			in:       "click 2\r\nquit\r\n",
			opts:     []console.SessionOpt{console.WithCRLF()},
			expClick: 2,
			expOut:   "Goodbye!\r\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cm, e := newTestManager(t)
			conn := &bufferRW{Reader: strings.NewReader(tt.in)}

			if err := cm.Serve("test", "local", conn, tt.opts...); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			testutil.AssertEqual(t, "clicks", e.Snapshot().ClickCount, tt.expClick)
			testutil.AssertEqual(t, "active", cm.Active(), int64(0))
			if !strings.HasSuffix(conn.out.String(), tt.expOut) {
				t.Errorf("expected output ending in %q, got %q", tt.expOut, conn.out.String())
			}
		})
	}
}

func TestConnectionManager_Close(t *testing.T) {
	cm, _ := newTestManager(t)
	pr, pw := io.Pipe()
	defer pw.Close()

	done := make(chan error, 1)
	go func() {
		done <- cm.Serve("test", "local", &bufferRW{Reader: pr})
	}()
	waitFor(t, "session start", func() bool { return cm.Active() == 1 })

	cm.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end on close")
	}
	testutil.AssertEqual(t, "active", cm.Active(), int64(0))

	err := cm.Serve("test", "late", &bufferRW{Reader: strings.NewReader("click\n")})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestTelnetListener(t *testing.T) {
	cm, e := newTestManager(t)
	l := NewTelnetListener(0, cm)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("click 2\r\nquit\r\n")); err != nil {
		t.Fatalf("writing: %v", err)
	}
	out, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}

	testutil.AssertEqual(t, "clicks", e.Snapshot().ClickCount, int64(2))
	if !strings.Contains(string(out), "Goodbye!\r\n") {
		t.Errorf("expected CRLF goodbye, got %q", out)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("telnet listener did not stop")
	}
}

func TestSshListener(t *testing.T) {
	cm, e := newTestManager(t)

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		t.Fatalf("creating signer: %v", err)
	}
	l := NewSshListener(0, cm, signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.serve(ctx, ln) }()

	client, err := ssh.Dial("tcp", ln.Addr().String(), &ssh.ClientConfig{
		User:            "player",
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	})
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	defer client.Close()

	sess, err := client.NewSession()
	if err != nil {
		t.Fatalf("opening session: %v", err)
	}
	stdin, err := sess.StdinPipe()
	if err != nil {
		t.Fatalf("stdin: %v", err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		t.Fatalf("stdout: %v", err)
	}
	if err := sess.Shell(); err != nil {
		t.Fatalf("starting shell: %v", err)
	}

	if _, err := stdin.Write([]byte("click\nquit\n")); err != nil {
		t.Fatalf("writing: %v", err)
	}
	out, err := io.ReadAll(stdout)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}

	testutil.AssertEqual(t, "clicks", e.Snapshot().ClickCount, int64(1))
	if !strings.Contains(string(out), "Goodbye!\r\n") {
		t.Errorf("expected CRLF goodbye, got %q", out)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ssh listener did not stop")
	}
}
