package game

import (
	"log/slog"
	"time"

	"github.com/pixil98/go-idle/internal/clock"
	"github.com/pixil98/go-idle/internal/storage"
)

// Random supplies uniform values in [0, 1) for bonus spawning.
type Random interface {
	Float64() float64
}

// RandomFunc adapts a function to Random.
type RandomFunc func() float64

func (f RandomFunc) Float64() float64 {
	return f()
}

type EngineOpt func(*Engine)

func WithClock(clk clock.Clock) EngineOpt {
	return func(e *Engine) {
		e.clk = clk
	}
}

func WithRandom(r Random) EngineOpt {
	return func(e *Engine) {
		e.rng = r
	}
}

func WithLogger(l *slog.Logger) EngineOpt {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithSaveKey sets the identifier the save record is stored under.
func WithSaveKey(key storage.Identifier) EngineOpt {
	return func(e *Engine) {
		e.saveKey = key
	}
}

func WithAutosaveInterval(d time.Duration) EngineOpt {
	return func(e *Engine) {
		e.autosaveInterval = d
	}
}

// WithBonusSpawnChance sets the per-check probability of spawning a bonus.
func WithBonusSpawnChance(p float64) EngineOpt {
	return func(e *Engine) {
		e.spawnChance = p
	}
}
