package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-idle/internal/driver"
	"github.com/pixil98/go-idle/internal/game"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Environment overrides land after the file config was validated.
	if err := cfg.Game.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Game.Validate(); err != nil {
		return nil, fmt.Errorf("validating game config: %w", err)
	}

	engine, closeStore, err := buildEngine(cfg)
	if err != nil {
		return nil, err
	}

	// Setup the driver; the final save runs once the tick loop stops
	drv := driver.NewDriver([]driver.Ticker{engine},
		driver.WithTickLength(cfg.tickInterval()),
		driver.WithShutdownHook(func(ctx context.Context) error {
			if err := engine.Save(ctx); err != nil {
				return err
			}
			return closeStore()
		}),
	)

	// Create Listeners
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		w, err := l.BuildListener(engine)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("%s-%d", l.Protocol, l.Port)] = w
	}

	workers := service.WorkerList{
		"driver":    drv,
		"listeners": &listeners,
	}

	bus, err := cfg.Nats.buildBus(engine)
	if err != nil {
		return nil, err
	}
	for name, w := range bus {
		workers[name] = w
	}

	return workers, nil
}

// buildEngine opens the store and restores the saved game. A missing or
// unreadable save is not fatal; the engine starts fresh.
func buildEngine(cfg *Config) (*game.Engine, func() error, error) {
	store, closeStore, err := cfg.Storage.BuildStore()
	if err != nil {
		return nil, nil, err
	}

	opts, err := cfg.Game.engineOpts()
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	engine, err := game.NewEngine(game.DefaultCatalog(), store, opts...)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("creating engine: %w", err)
	}

	if err := engine.Load(context.Background()); err != nil {
		slog.Warn("starting from a fresh game", "error", err)
	}

	return engine, closeStore, nil
}
