package game

import (
	"context"
	"errors"
	"fmt"
	"math"

	goerrors "github.com/pixil98/go-errors"
	"github.com/pixil98/go-idle/internal/storage"
)

// DefaultSaveKey is the fixed identifier the save record is stored under.
const DefaultSaveKey storage.Identifier = "gravityPoopSave"

// SaveRecord is the durable subset of PlayerState. Bonus multipliers and
// pending timers are deliberately absent.
type SaveRecord struct {
	ResourceCount          float64          `json:"resourceCount"`
	TotalResourceProduced  float64          `json:"totalResourceProduced"`
	ClickCount             int64            `json:"clickCount"`
	PrestigeCurrency       int64            `json:"prestigeCurrency"`
	UnlockedAchievementIds []string         `json:"unlockedAchievementIds"`
	ProducerCounts         map[string]int64 `json:"producerCounts"`
}

func (r *SaveRecord) Validate() error {
	el := goerrors.NewErrorList()

	el.Add(validateQuantity("resourceCount", r.ResourceCount))
	el.Add(validateQuantity("totalResourceProduced", r.TotalResourceProduced))
	if r.ClickCount < 0 {
		el.Add(fmt.Errorf("clickCount must not be negative"))
	}
	if r.PrestigeCurrency < 0 {
		el.Add(fmt.Errorf("prestigeCurrency must not be negative"))
	}
	for id, n := range r.ProducerCounts {
		if n < 0 {
			el.Add(fmt.Errorf("producerCounts[%s] must not be negative", id))
		}
	}
	for i, id := range r.UnlockedAchievementIds {
		if id == "" {
			el.Add(fmt.Errorf("unlockedAchievementIds[%d] is empty", i))
		}
	}

	return el.Err()
}

func validateQuantity(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be finite", name)
	}
	if v < 0 {
		return fmt.Errorf("%s must not be negative", name)
	}
	return nil
}

// Record captures the durable subset of the state.
func (s *PlayerState) Record() *SaveRecord {
	r := &SaveRecord{
		ResourceCount:          s.ResourceCount,
		TotalResourceProduced:  s.TotalResourceProduced,
		ClickCount:             s.ClickCount,
		PrestigeCurrency:       s.PrestigeCurrency,
		UnlockedAchievementIds: make([]string, 0, len(s.UnlockedAchievements)),
		ProducerCounts:         make(map[string]int64, len(s.Producers)),
	}
	for _, id := range s.UnlockedAchievements {
		r.UnlockedAchievementIds = append(r.UnlockedAchievementIds, string(id))
	}
	for _, p := range s.Producers {
		r.ProducerCounts[string(p.ID)] = p.OwnedCount
	}
	return r
}

// ApplyRecord overwrites the durable fields from r. Unknown producers are
// ignored, missing ones stay at zero, and the lifetime total is repaired to
// be at least the balance.
func (s *PlayerState) ApplyRecord(r *SaveRecord) {
	s.ResourceCount = r.ResourceCount
	s.TotalResourceProduced = max(r.TotalResourceProduced, r.ResourceCount)
	s.ClickCount = r.ClickCount
	s.PrestigeCurrency = r.PrestigeCurrency

	for _, p := range s.Producers {
		p.OwnedCount = r.ProducerCounts[string(p.ID)]
	}

	s.UnlockedAchievements = nil
	s.unlocked = map[AchievementID]struct{}{}
	for _, id := range r.UnlockedAchievementIds {
		s.unlock(AchievementID(id))
	}

	s.RecomputeProductionRate()
}

// Save writes the durable state to the store.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.save(ctx)
}

func (e *Engine) save(ctx context.Context) error {
	err := e.store.Save(ctx, e.saveKey, e.state.Record())
	if err != nil {
		lerr := &SaveLoadError{Op: "write", Err: err}
		e.logger.ErrorContext(ctx, "saving game", "key", e.saveKey, "error", lerr)
		return lerr
	}
	return nil
}

// Load replaces the state with the persisted save. A missing save yields a
// fresh state. An unreadable or corrupt save also yields a fresh state; the
// returned SaveLoadError is informational and the engine remains usable.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.flush()
	defer e.mu.Unlock()

	e.clearActivations()
	fresh := NewPlayerState(e.catalog.Producers)

	rec, err := e.store.Load(ctx, e.saveKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		e.logger.InfoContext(ctx, "no save found, starting fresh", "key", e.saveKey)
	case err != nil:
		lerr := &SaveLoadError{Op: "read", Err: err}
		e.logger.ErrorContext(ctx, "loading game, starting fresh", "key", e.saveKey, "error", lerr)
		e.setState(fresh)
		return lerr
	default:
		fresh.ApplyRecord(rec)
		e.logger.InfoContext(ctx, "loaded save",
			"key", e.saveKey,
			"resources", fresh.ResourceCount,
			"essence", fresh.PrestigeCurrency,
		)
	}

	e.setState(fresh)
	return nil
}

func (e *Engine) setState(s *PlayerState) {
	e.state = s
	e.prestigeAvailable = s.PrestigeStatus() == PrestigeAvailable
}
