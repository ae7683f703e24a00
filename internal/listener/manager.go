package listener

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pixil98/go-idle/internal/console"
)

var ErrClosed = errors.New("connection manager closed")

// ConnectionManager runs a console session for every accepted connection
// and owns their lifetime. Sessions outlive the listener that accepted them
// until Close is called.
type ConnectionManager struct {
	engine console.Engine
	opts   []console.SessionOpt
	active atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewConnectionManager(engine console.Engine, opts ...console.SessionOpt) *ConnectionManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &ConnectionManager{
		engine: engine,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Serve plays a console session on conn and blocks until it ends. origin
// names the listener and remote the peer, both for logging.
func (m *ConnectionManager) Serve(origin, remote string, conn io.ReadWriter, opts ...console.SessionOpt) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.wg.Add(1)
	m.mu.Unlock()
	defer m.wg.Done()

	logger := slog.With("origin", origin, "remote", remote)
	n := m.active.Add(1)
	defer m.active.Add(-1)
	logger.InfoContext(m.ctx, "player connected", "active", n)

	sessionOpts := append([]console.SessionOpt{console.WithLogger(logger)}, m.opts...)
	s := console.NewSession(m.engine, conn, append(sessionOpts, opts...)...)
	if err := s.Run(m.ctx); err != nil && m.ctx.Err() == nil {
		logger.WarnContext(m.ctx, "console session", "error", err)
	}

	logger.InfoContext(m.ctx, "player disconnected")
	return nil
}

// Close ends every running session and waits for them to return. Later
// calls to Serve fail with ErrClosed.
func (m *ConnectionManager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// Active returns the number of connected players.
func (m *ConnectionManager) Active() int64 {
	return m.active.Load()
}
