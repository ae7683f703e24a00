package console

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pixil98/go-idle/internal/display"
	"github.com/pixil98/go-idle/internal/game"
)

// Engine is the part of game.Engine a console session drives.
type Engine interface {
	Click() (float64, error)
	Purchase(ctx context.Context, id game.ProducerID) (game.PurchaseResult, error)
	RequestPrestige(ctx context.Context, c game.Confirmer) (bool, error)
	CollectBonus(id string) (game.BonusActivation, error)
	Snapshot() game.Snapshot
	Catalog() game.Catalog
	Achievements() []game.AchievementStatus
	Save(ctx context.Context) error
	Subscribe(fn func(game.Notification)) func()
}

const notificationBuffer = 32

// Session is one interactive console attached to a connection.
type Session struct {
	engine    Engine
	conn      io.ReadWriter
	logger    *slog.Logger
	width     int
	maxClicks int
	crlf      bool

	lines   chan string
	readErr chan error
	msgs    chan game.Notification
	done    chan struct{}
	quit    bool
}

func NewSession(engine Engine, conn io.ReadWriter, opts ...SessionOpt) *Session {
	s := &Session{
		engine:    engine,
		conn:      conn,
		logger:    slog.Default(),
		width:     display.DefaultWidth,
		maxClicks: DefaultMaxClicks,
		lines:     make(chan string),
		readErr:   make(chan error, 1),
		msgs:      make(chan game.Notification, notificationBuffer),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run serves the session until the player quits, the connection drops or
// ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	go s.readLines()

	unsubscribe := s.engine.Subscribe(func(n game.Notification) {
		select {
		case s.msgs <- n:
		default:
			s.logger.Warn("dropping notification for slow session", "kind", n.Kind)
		}
	})
	defer unsubscribe()

	if err := s.writeLine(welcomeText); err != nil {
		return err
	}
	if err := s.Exec(ctx, "status"); err != nil {
		return err
	}
	if err := s.prompt(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case n := <-s.msgs:
			if err := s.writeLine("\n" + s.renderNotification(n)); err != nil {
				return err
			}
			if err := s.prompt(); err != nil {
				return err
			}

		case line, ok := <-s.lines:
			if !ok {
				err := s.inputErr()
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}

			if err := s.Exec(ctx, line); err != nil {
				return err
			}
			if s.quit {
				return nil
			}
			if err := s.prompt(); err != nil {
				return err
			}
		}
	}
}

// Exec runs one command line. User errors are written to the player and
// swallowed; anything else is returned and ends the session.
func (s *Session) Exec(ctx context.Context, line string) error {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return nil
	}

	name := strings.ToLower(parts[0])
	cmd, ok := lookupCommand(name)
	if !ok {
		return s.writeLine(fmt.Sprintf("Unknown command %q. Type 'help' for a list.", parts[0]))
	}

	err := cmd.run(ctx, s, parts[1:])
	if err != nil {
		var userErr *UserError
		if errors.As(err, &userErr) {
			return s.writeLine(userErr.Message)
		}
		return fmt.Errorf("running %s: %w", cmd.Name, err)
	}
	return nil
}

func (s *Session) readLines() {
	scanner := bufio.NewScanner(s.conn)
	scanner.Split(scanTerminalLines())
	for scanner.Scan() {
		select {
		case s.lines <- scanner.Text():
		case <-s.done:
			return
		}
	}
	s.readErr <- scanner.Err()
	close(s.lines)
}

// scanTerminalLines splits input on \n, \r\n or a lone \r. Telnet clients
// send \r\n and a terminal in raw mode sends just \r. A \n arriving right
// after a \r belongs to the same line ending even across reads.
func scanTerminalLines() bufio.SplitFunc {
	afterCR := false
	return func(data []byte, atEOF bool) (int, []byte, error) {
		start := 0
		if afterCR && len(data) > 0 {
			afterCR = false
			if data[0] == '\n' {
				start = 1
			}
		}

		if i := bytes.IndexAny(data[start:], "\r\n"); i >= 0 {
			end := start + i
			afterCR = data[end] == '\r'
			return end + 1, data[start:end], nil
		}
		if atEOF && len(data) > start {
			return len(data), data[start:], nil
		}
		return start, nil, nil
	}
}

func (s *Session) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			return "", s.inputErr()
		}
		return strings.TrimSpace(line), nil
	}
}

// inputErr reports why the input stream ended. A clean close is io.EOF.
func (s *Session) inputErr() error {
	select {
	case err := <-s.readErr:
		if err != nil {
			return err
		}
	default:
	}
	return io.EOF
}

func (s *Session) prompt() error {
	snap := s.engine.Snapshot()
	return s.write(fmt.Sprintf("[%s poop | %s/s] > ", display.Count(snap.ResourceCount), display.Rate(snap.EffectiveProductionRate)))
}

func (s *Session) write(msg string) error {
	if s.crlf {
		msg = strings.ReplaceAll(msg, "\n", "\r\n")
	}
	_, err := s.conn.Write([]byte(msg))
	return err
}

func (s *Session) writeLine(msg string) error {
	return s.write(msg + "\n")
}

func (s *Session) wrap(text string) string {
	return display.WrapWidth(text, s.width)
}
