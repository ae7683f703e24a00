package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-idle/internal/messaging"
	"github.com/pixil98/go-service"
)

// NatsConfig controls the embedded bus external renderers use to follow
// notifications, read the state and send intents.
type NatsConfig struct {
	Disabled     bool   `json:"disabled"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	StartTimeout string `json:"start_timeout"`
}

func (c *NatsConfig) Validate() error {
	if c.Disabled {
		return nil
	}

	el := errors.NewErrorList()

	if _, err := c.startTimeout(); err != nil {
		el.Add(err)
	}
	if c.Port < -1 || c.Port > 65535 {
		el.Add(fmt.Errorf("port %d is out of range", c.Port))
	}

	return el.Err()
}

func (c *NatsConfig) startTimeout() (time.Duration, error) {
	if c.StartTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.StartTimeout)
	if err != nil {
		return 0, fmt.Errorf("parsing start_timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("start_timeout must be positive")
	}
	return d, nil
}

// buildBus returns the bus server and the bridge that ties engine to it,
// keyed by worker name. Nothing is returned when the bus is disabled.
func (c *NatsConfig) buildBus(engine messaging.Engine) (map[string]service.Worker, error) {
	if c.Disabled {
		return nil, nil
	}

	opts := []messaging.NatsServerOpt{messaging.WithAddress(c.Host, c.Port)}
	timeout, err := c.startTimeout()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		opts = append(opts, messaging.WithStartTimeout(timeout))
	}

	srv, err := messaging.NewNatsServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	return map[string]service.Worker{
		"nats":   srv,
		"bridge": messaging.NewIntentBridge(engine, srv),
	}, nil
}
