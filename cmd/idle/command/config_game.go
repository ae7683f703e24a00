package command

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-idle/internal/game"
	"github.com/pixil98/go-idle/internal/storage"
)

// GameConfig tunes the engine. Every field may be overridden from the
// environment.
type GameConfig struct {
	AutosaveInterval string  `json:"autosave_interval" env:"IDLE_AUTOSAVE_INTERVAL"`
	BonusSpawnChance float64 `json:"bonus_spawn_chance" env:"IDLE_BONUS_SPAWN_CHANCE"`
	SaveKey          string  `json:"save_key" env:"IDLE_SAVE_KEY"`
}

// applyEnv overlays any IDLE_* environment variables onto c.
func (c *GameConfig) applyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

func (c *GameConfig) Validate() error {
	el := errors.NewErrorList()

	if c.AutosaveInterval != "" {
		d, err := time.ParseDuration(c.AutosaveInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing autosave_interval: %w", err))
		} else if d <= 0 {
			el.Add(fmt.Errorf("autosave_interval must be positive"))
		}
	}

	if c.BonusSpawnChance < 0 || c.BonusSpawnChance > 1 {
		el.Add(fmt.Errorf("bonus_spawn_chance must be between 0 and 1"))
	}

	if c.SaveKey != "" {
		if err := storage.Identifier(c.SaveKey).Validate(); err != nil {
			el.Add(fmt.Errorf("save_key: %w", err))
		}
	}

	return el.Err()
}

// engineOpts converts c to engine options. Unset fields keep the engine
// defaults; a zero spawn chance means the default 1/300.
func (c *GameConfig) engineOpts() ([]game.EngineOpt, error) {
	var opts []game.EngineOpt

	if c.AutosaveInterval != "" {
		d, err := time.ParseDuration(c.AutosaveInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing autosave_interval: %w", err)
		}
		opts = append(opts, game.WithAutosaveInterval(d))
	}
	if c.BonusSpawnChance > 0 {
		opts = append(opts, game.WithBonusSpawnChance(c.BonusSpawnChance))
	}
	if c.SaveKey != "" {
		opts = append(opts, game.WithSaveKey(storage.Identifier(c.SaveKey)))
	}

	return opts, nil
}
