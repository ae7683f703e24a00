package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"syscall"

	"github.com/iammegalith/telnet"
	"github.com/pixil98/go-idle/internal/console"
)

// TelnetListener accepts players over telnet.
type TelnetListener struct {
	addr     string
	sessions *ConnectionManager
}

func NewTelnetListener(port uint16, sessions *ConnectionManager) *TelnetListener {
	return &TelnetListener{
		addr:     fmt.Sprintf(":%d", port),
		sessions: sessions,
	}
}

// Start serves telnet until ctx is cancelled, then ends every session.
func (l *TelnetListener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("telnet address %s is already in use (another server running?)", l.addr)
		}
		return fmt.Errorf("listening for telnet on %s: %w", l.addr, err)
	}
	return l.serve(ctx, ln)
}

func (l *TelnetListener) serve(ctx context.Context, ln net.Listener) error {
	svr := telnet.NewServer(l.addr, telnet.HandleFunc(l.play))
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	slog.InfoContext(ctx, "accepting telnet players", "addr", ln.Addr().String())

	err := svr.Serve(ln)
	if ctx.Err() != nil {
		l.sessions.Close()
		return nil
	}
	if err != nil {
		return fmt.Errorf("serving telnet on %s: %w", l.addr, err)
	}
	return nil
}

// play runs for each connection; the telnet server closes conn afterwards.
func (l *TelnetListener) play(conn *telnet.Connection) {
	err := l.sessions.Serve("telnet", conn.RemoteAddr().String(), conn, console.WithCRLF())
	if err != nil {
		slog.Warn("refusing telnet player", "remote", conn.RemoteAddr().String(), "error", err)
	}
}
