package driver

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultTickLength = 50 * time.Millisecond
)

// Ticker is advanced once per driver tick.
type Ticker interface {
	Tick(context.Context) error
}

// Driver runs the game loop: it ticks every Ticker on a fixed cadence until
// the context is cancelled, then runs the shutdown hooks in order.
type Driver struct {
	tickLength time.Duration
	tickers    []Ticker
	onStop     []func(context.Context) error
}

func NewDriver(tickers []Ticker, opts ...DriverOpt) *Driver {
	d := &Driver{
		tickLength: DefaultTickLength,
		tickers:    tickers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Driver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.stop()
			return nil
		case <-ticker.C:
			err := d.Tick(ctx)
			if err != nil {
				d.stop()
				return err
			}
		}
	}
}

func (d *Driver) Tick(ctx context.Context) error {
	for _, t := range d.tickers {
		if err := t.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}

// stop runs shutdown hooks with a fresh context since the loop context is
// already done by the time they run.
func (d *Driver) stop() {
	ctx := context.Background()
	for _, fn := range d.onStop {
		if err := fn(ctx); err != nil {
			slog.ErrorContext(ctx, "driver shutdown hook", "error", err)
		}
	}
}
