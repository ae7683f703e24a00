package console

import "log/slog"

// DefaultMaxClicks caps how many clicks a single "click n" may register.
const DefaultMaxClicks = 100

type SessionOpt func(*Session)

func WithLogger(l *slog.Logger) SessionOpt {
	return func(s *Session) {
		s.logger = l
	}
}

// WithWidth sets the column width long text is wrapped to.
func WithWidth(w int) SessionOpt {
	return func(s *Session) {
		s.width = w
	}
}

func WithMaxClicks(n int) SessionOpt {
	return func(s *Session) {
		s.maxClicks = n
	}
}

// WithCRLF ends every written line with \r\n, as telnet and ssh terminals
// expect.
func WithCRLF() SessionOpt {
	return func(s *Session) {
		s.crlf = true
	}
}
