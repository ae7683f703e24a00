package command

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-idle/internal/console"
	"github.com/pixil98/go-idle/internal/listener"
	"github.com/pixil98/go-service"
	"golang.org/x/crypto/ssh"
)

type ListenerType int

const (
	ListenerTypeTelnet ListenerType = iota
	ListenerTypeSSH
)

func (lt *ListenerType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "telnet":
		*lt = ListenerTypeTelnet
	case "ssh":
		*lt = ListenerTypeSSH
	default:
		return fmt.Errorf("unknown listener type: %s", text)
	}
	return nil
}

func (lt ListenerType) String() string {
	switch lt {
	case ListenerTypeTelnet:
		return "telnet"
	case ListenerTypeSSH:
		return "ssh"
	default:
		return "unknown"
	}
}

// ListenerConfig describes one front door players reach the console
// through, and how the console behaves for them.
type ListenerConfig struct {
	Protocol    ListenerType `json:"protocol"`
	Port        uint16       `json:"port"`
	HostKeyPath string       `json:"host_key_path,omitempty"`

	// Width is the column players' text is wrapped to; zero keeps the default.
	Width int `json:"width,omitempty"`
	// MaxClicks caps one "click n" command; zero keeps the default.
	MaxClicks int `json:"max_clicks,omitempty"`
}

func (cl *ListenerConfig) Validate() error {
	el := errors.NewErrorList()

	if cl.Port == 0 {
		el.Add(fmt.Errorf("port must be set to a positive integer"))
	}
	if cl.Protocol != ListenerTypeSSH && cl.HostKeyPath != "" {
		el.Add(fmt.Errorf("host_key_path only applies to ssh listeners"))
	}
	if cl.Width < 0 {
		el.Add(fmt.Errorf("width must not be negative"))
	}
	if cl.MaxClicks < 0 {
		el.Add(fmt.Errorf("max_clicks must not be negative"))
	}

	return el.Err()
}

func (cl *ListenerConfig) sessionOpts() []console.SessionOpt {
	var opts []console.SessionOpt
	if cl.Width > 0 {
		opts = append(opts, console.WithWidth(cl.Width))
	}
	if cl.MaxClicks > 0 {
		opts = append(opts, console.WithMaxClicks(cl.MaxClicks))
	}
	return opts
}

// BuildListener returns a worker that serves console sessions on engine.
// Each listener owns its sessions and ends them when it stops.
func (cl *ListenerConfig) BuildListener(engine console.Engine) (service.Worker, error) {
	sessions := listener.NewConnectionManager(engine, cl.sessionOpts()...)

	switch cl.Protocol {
	case ListenerTypeTelnet:
		return listener.NewTelnetListener(cl.Port, sessions), nil
	case ListenerTypeSSH:
		hostKey, err := cl.loadOrGenerateHostKey()
		if err != nil {
			return nil, fmt.Errorf("setting up ssh host key: %w", err)
		}
		return listener.NewSshListener(cl.Port, sessions, hostKey), nil
	default:
		return nil, fmt.Errorf("unknown listener type: %v", cl.Protocol)
	}
}

func (cl *ListenerConfig) loadOrGenerateHostKey() (ssh.Signer, error) {
	if cl.HostKeyPath == "" {
		slog.Warn("no host_key_path configured for ssh listener, players will see a new host key each restart", "port", cl.Port)
		_, key, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generating ephemeral key: %w", err)
		}
		return ssh.NewSignerFromKey(key)
	}

	pem, err := os.ReadFile(cl.HostKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading host key %q: %w", cl.HostKeyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		return nil, fmt.Errorf("parsing host key %q: %w", cl.HostKeyPath, err)
	}
	return signer, nil
}
