package console

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pixil98/go-idle/internal/clock"
	"github.com/pixil98/go-idle/internal/game"
	"github.com/pixil98/go-idle/internal/storage"
	"github.com/pixil98/go-testutil"
)

type testConn struct {
	io.Reader
	bytes.Buffer
}

func (c *testConn) Write(p []byte) (int, error) {
	return c.Buffer.Write(p)
}

func (c *testConn) Read(p []byte) (int, error) {
	return c.Reader.Read(p)
}

func newTestEngine(t *testing.T) (*game.Engine, *storage.MemoryStore[*game.SaveRecord]) {
	t.Helper()

	store := storage.NewMemoryStore[*game.SaveRecord]()
	e, err := game.NewEngine(game.DefaultCatalog(), store,
		game.WithClock(clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))),
		game.WithRandom(game.RandomFunc(func() float64 { return 0.99 })),
		game.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	return e, store
}

func newTestSession(t *testing.T, input string) (*Session, *game.Engine, *testConn) {
	t.Helper()

	e, _ := newTestEngine(t)
	conn := &testConn{Reader: strings.NewReader(input)}
	s := NewSession(e, conn, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return s, e, conn
}

func TestSession_Exec(t *testing.T) {
	tests := map[string]struct {
		line   string
		expOut []string
	}{
		"click":             {line: "click", expOut: []string{"+1.0 poop! You have 1."}},
		"click many":        {line: "c 5", expOut: []string{"+5.0 poop! You have 5."}},
		"click zero":        {line: "click 0", expOut: []string{"Give a positive number."}},
		"click too many":    {line: "click 1000", expOut: []string{"at most 100 times"}},
		"buy broke":         {line: "buy toilet", expOut: []string{"A Toilet costs 10 poop; you have 0."}},
		"buy unknown":       {line: "buy dragon", expOut: []string{`no producer called "dragon"`}},
		"buy nothing":       {line: "buy", expOut: []string{"Buy what?"}},
		"store":             {line: "store", expOut: []string{"STORE", "Toilet", "Cosmic Poop Temple", "1,000,000"}},
		"status":            {line: "STATUS", expOut: []string{"Poop:", "Gold Essence:   0", "locked (0%)"}},
		"achievements":      {line: "achievements", expOut: []string{"ACHIEVEMENTS (0/4)", "[ ] First Click!"}},
		"bonus":             {line: "bonus", expOut: []string{"No golden poop right now."}},
		"collect nothing":   {line: "collect", expOut: []string{"There is no golden poop to collect."}},
		"prestige locked":   {line: "prestige", expOut: []string{"Prestige unlocks at 1,000,000 total poop. You are 0% of the way there."}},
		"save":              {line: "save", expOut: []string{"Game saved."}},
		"help":              {line: "help", expOut: []string{"Available commands:", "click [n]", "quit"}},
		"help command":      {line: "help buy", expOut: []string{"Usage: buy <producer>", "Aliases: b"}},
		"help unknown":      {line: "help dance", expOut: []string{`Command "dance" is unknown.`}},
		"unknown command":   {line: "dance", expOut: []string{`Unknown command "dance".`}},
		"blank line":        {line: "   ", expOut: []string{""}},
		"multi-word buy":    {line: "buy space station", expOut: []string{"A Space Station costs 1,000 poop"}},
		"buy out of range":  {line: "buy 7", expOut: []string{`no producer called "7"`}},
		"click not numeric": {line: "click lots", expOut: []string{"Give a positive number."}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, _, conn := newTestSession(t, "")

			if err := s.Exec(context.Background(), tt.line); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			out := conn.String()
			for _, exp := range tt.expOut {
				if !strings.Contains(out, exp) {
					t.Errorf("output %q does not contain %q", out, exp)
				}
			}
		})
	}
}

type brokenConn struct {
	io.Reader
	err error
}

func (c *brokenConn) Write([]byte) (int, error) {
	return 0, c.err
}

func TestSession_Exec_WriteFailure(t *testing.T) {
	e, _ := newTestEngine(t)
	errHangup := errors.New("connection reset")
	s := NewSession(e, &brokenConn{Reader: strings.NewReader(""), err: errHangup},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	err := s.Exec(context.Background(), "status")
	testutil.AssertErrorContains(t, err, "running status", "connection reset")
	if !errors.Is(err, errHangup) {
		t.Fatalf("expected wrapped write error, got %v", err)
	}
}

func TestSession_Achievement_Detail(t *testing.T) {
	tests := map[string]struct {
		line     string
		unlocked []string
		expOut   string
	}{
		"locked":   {line: "achievements ach02", expOut: "Toilet Master (ACH02, locked): "},
		"unlocked": {line: "ach ACH01", unlocked: []string{"ACH01"}, expOut: "First Click! (ACH01, unlocked): "},
		"unknown":  {line: "achievements ACH99", expOut: `There is no achievement "ACH99".`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			e, store := newTestEngine(t)
			if err := store.Save(ctx, game.DefaultSaveKey, &game.SaveRecord{UnlockedAchievementIds: tt.unlocked}); err != nil {
				t.Fatalf("seeding save: %v", err)
			}
			if err := e.Load(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			conn := &testConn{Reader: strings.NewReader("")}
			s := NewSession(e, conn, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

			if err := s.Exec(ctx, tt.line); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(conn.String(), tt.expOut) {
				t.Errorf("output %q does not contain %q", conn.String(), tt.expOut)
			}
		})
	}
}

func TestScanTerminalLines(t *testing.T) {
	tests := map[string]struct {
		in     string
		expOut []string
	}{
		"newline":           {in: "click\nstore\n", expOut: []string{"click", "store"}},
		"telnet crlf":       {in: "click\r\nstore\r\n", expOut: []string{"click", "store"}},
		"raw carriage":      {in: "click\rstore\r", expOut: []string{"click", "store"}},
		"blank lines":       {in: "a\r\n\r\nb", expOut: []string{"a", "", "b"}},
		"no final newline":  {in: "help", expOut: []string{"help"}},
		"crlf then newline": {in: "a\r\n\nb\n", expOut: []string{"a", "", "b"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			scanner := bufio.NewScanner(strings.NewReader(tt.in))
			scanner.Split(scanTerminalLines())

			var got []string
			for scanner.Scan() {
				got = append(got, scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expOut, got); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// splitReader hands out one chunk per Read so line endings can straddle reads.
type splitReader struct {
	chunks []string
}

func (r *splitReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func TestScanTerminalLines_SplitAcrossReads(t *testing.T) {
	scanner := bufio.NewScanner(&splitReader{chunks: []string{"click\r", "\nstore\r", "\n"}})
	scanner.Split(scanTerminalLines())

	var got []string
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	if diff := cmp.Diff([]string{"click", "store"}, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_Run_CRLF(t *testing.T) {
	e, _ := newTestEngine(t)
	conn := &testConn{Reader: strings.NewReader("click\r\nclick 2\rquit\r\n")}
	s := NewSession(e, conn,
		WithCRLF(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "clicks", e.Snapshot().ClickCount, int64(3))
	out := conn.String()
	if !strings.Contains(out, "Goodbye!\r\n") {
		t.Errorf("expected CRLF goodbye, got %q", out)
	}
	if strings.Count(out, "\n") != strings.Count(out, "\r\n") {
		t.Errorf("found a bare newline in %q", out)
	}
}

func TestSession_Buy(t *testing.T) {
	s, e, conn := newTestSession(t, "")
	if err := e.AddResource(10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Exec(context.Background(), "buy 1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "output", conn.String(), "Bought a Toilet for 10. You own 1; the next costs 11.\n")
	testutil.AssertEqual(t, "owned", e.Snapshot().Owned(game.ProducerToilet), int64(1))
}

func TestSession_Bonus(t *testing.T) {
	s, e, conn := newTestSession(t, "")
	ctx := context.Background()

	ev := e.SpawnBonus()

	if err := s.Exec(ctx, "bonus"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(conn.String(), "Golden poop "+ev.ID[:8]+" vanishes in 10s") {
		t.Errorf("unexpected bonus output %q", conn.String())
	}
	conn.Reset()

	if err := s.Exec(ctx, "collect "+ev.ID[:4]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "collect", conn.String(), "Golden poop collected! Production x2 for 1m0s.\n")
	testutil.AssertEqual(t, "multiplier", e.Snapshot().GlobalMultiplier, 2.0)
	conn.Reset()

	if err := s.Exec(ctx, "bonus"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "active", conn.String(), "Bonus x2 active for 1m0s.\n")
}

func TestSession_Collect_NoMatch(t *testing.T) {
	s, e, conn := newTestSession(t, "")
	e.SpawnBonus()

	if err := s.Exec(context.Background(), "collect zzzz"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "output", conn.String(), "No golden poop matches \"zzzz\".\n")
	testutil.AssertEqual(t, "multiplier", e.Snapshot().GlobalMultiplier, 1.0)
}

func TestSession_Prestige(t *testing.T) {
	tests := map[string]struct {
		answers    []string
		expOut     []string
		expEssence int64
	}{
		"accepted": {
			answers:    []string{"yes"},
			expOut:     []string{"Are you sure you want to PRESTIGE?", "(y/n)"},
			expEssence: 1,
		},
		"declined": {
			answers: []string{"n"},
			expOut:  []string{"Prestige cancelled."},
		},
		"retry then accept": {
			answers:    []string{"maybe", "Y"},
			expOut:     []string{"Enter 'yes' or 'no'."},
			expEssence: 1,
		},
		"too many tries": {
			answers: []string{"a", "b", "c"},
			expOut:  []string{"Too many tries."},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, e, conn := newTestSession(t, "")
			if err := e.AddResource(1_000_000); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			go func() {
				for _, a := range tt.answers {
					s.lines <- a
				}
			}()

			if err := s.Exec(context.Background(), "prestige"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			out := conn.String()
			for _, exp := range tt.expOut {
				if !strings.Contains(out, exp) {
					t.Errorf("output %q does not contain %q", out, exp)
				}
			}
			testutil.AssertEqual(t, "essence", e.Snapshot().PrestigeCurrency, tt.expEssence)
		})
	}
}

func TestSession_Run(t *testing.T) {
	e, store := newTestEngine(t)
	conn := &testConn{Reader: strings.NewReader("click\nclick 2\nquit\nclick\n")}
	s := NewSession(e, conn, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := conn.String()
	for _, exp := range []string{"Welcome to Gravity Poop!", "[0 poop | 0.0/s] > ", "+2.0 poop! You have 3.", "Goodbye!"} {
		if !strings.Contains(out, exp) {
			t.Errorf("output %q does not contain %q", out, exp)
		}
	}
	testutil.AssertEqual(t, "clicks after quit ignored", e.Snapshot().ClickCount, int64(3))

	rec, err := store.Load(context.Background(), game.DefaultSaveKey)
	if err != nil {
		t.Fatalf("expected quit to save: %v", err)
	}
	testutil.AssertEqual(t, "saved clicks", rec.ClickCount, int64(3))
}

func TestSession_Run_ConnectionClosed(t *testing.T) {
	s, e, _ := newTestSession(t, "click\n")

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "clicks", e.Snapshot().ClickCount, int64(1))
}

func TestSession_Run_Cancelled(t *testing.T) {
	e, _ := newTestEngine(t)
	pr, pw := io.Pipe()
	defer pw.Close()
	conn := &testConn{Reader: pr}
	s := NewSession(e, conn, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSession_RenderNotification(t *testing.T) {
	s, _, _ := newTestSession(t, "")

	testutil.AssertEqual(t, "with message",
		s.renderNotification(game.Notification{Title: "Achievement Unlocked!", Message: "First Click!"}),
		"*** Achievement Unlocked! *** First Click!")
	testutil.AssertEqual(t, "title only",
		s.renderNotification(game.Notification{Title: "Golden poop bonus ended."}),
		"*** Golden poop bonus ended. ***")
}
