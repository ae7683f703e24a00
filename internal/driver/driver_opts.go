package driver

import (
	"context"
	"time"
)

type DriverOpt func(*Driver)

// WithTickLength sets how often the driver ticks.
func WithTickLength(tickLength time.Duration) DriverOpt {
	return func(d *Driver) {
		d.tickLength = tickLength
	}
}

// WithShutdownHook registers fn to run once after the loop exits.
func WithShutdownHook(fn func(context.Context) error) DriverOpt {
	return func(d *Driver) {
		d.onStop = append(d.onStop, fn)
	}
}
