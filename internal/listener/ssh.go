package listener

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/pixil98/go-idle/internal/console"
	"golang.org/x/crypto/ssh"
)

const sshBanner = "Gravity Poop idle server. Any username works; your session is shared.\n"

// SshListener accepts players over ssh. Authentication is not required since
// every player drives the same game.
type SshListener struct {
	addr     string
	sessions *ConnectionManager
	config   *ssh.ServerConfig
}

func NewSshListener(port uint16, sessions *ConnectionManager, hostKey ssh.Signer) *SshListener {
	config := &ssh.ServerConfig{
		NoClientAuth: true,
		BannerCallback: func(ssh.ConnMetadata) string {
			return sshBanner
		},
	}
	config.AddHostKey(hostKey)

	return &SshListener{
		addr:     fmt.Sprintf(":%d", port),
		sessions: sessions,
		config:   config,
	}
}

// Start serves ssh until ctx is cancelled, then ends every session.
func (l *SshListener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("listening for ssh on %s: %w", l.addr, err)
	}
	return l.serve(ctx, ln)
}

func (l *SshListener) serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	slog.InfoContext(ctx, "accepting ssh players", "addr", ln.Addr().String())

	var handshakes sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				l.sessions.Close()
				handshakes.Wait()
				return nil
			}
			slog.ErrorContext(ctx, "accepting ssh connection", "error", err)
			continue
		}

		handshakes.Add(1)
		go func() {
			defer handshakes.Done()
			l.handleConnection(ctx, conn)
		}()
	}
}

func (l *SshListener) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, l.config)
	if err != nil {
		slog.WarnContext(ctx, "ssh handshake", "remote", remote, "error", err)
		return
	}
	defer sshConn.Close()

	// Closing the connection on cancel unblocks the channel loop below.
	stop := context.AfterFunc(ctx, func() { sshConn.Close() })
	defer stop()

	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}

		ch, requests, err := newChan.Accept()
		if err != nil {
			slog.WarnContext(ctx, "accepting ssh channel", "remote", remote, "error", err)
			continue
		}

		if !awaitShell(ctx, requests) {
			ch.Close()
			continue
		}

		origin := "ssh:" + sshConn.User()
		if err := l.sessions.Serve(origin, remote, ch, console.WithCRLF()); err != nil {
			slog.WarnContext(ctx, "refusing ssh player", "remote", remote, "error", err)
		}
		ch.Close()
	}
}

// awaitShell answers channel requests until the client asks for a shell.
// SSH clients won't forward input until they receive the shell reply. PTYs
// are refused so the client keeps local echo and line buffering.
func awaitShell(ctx context.Context, in <-chan *ssh.Request) bool {
	shellReady := make(chan struct{})
	go func() {
		started := false
		for req := range in {
			switch {
			case req.Type == "shell" && !started:
				started = true
				req.Reply(true, nil)
				close(shellReady)
			default:
				req.Reply(false, nil)
			}
		}
	}()

	select {
	case <-shellReady:
		return true
	case <-ctx.Done():
		return false
	}
}
