package game

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/go-idle/internal/driver"
)

// BonusEvent is a spawned, not yet collected bonus.
type BonusEvent struct {
	ID        string    `json:"id"`
	SpawnedAt time.Time `json:"spawnedAt"`
	ExpiresAt time.Time `json:"expiresAt"`

	expiry driver.TaskID
}

// BonusActivation is a collected bonus whose multiplier is in effect.
type BonusActivation struct {
	ID          string    `json:"id"`
	Factor      float64   `json:"factor"`
	CollectedAt time.Time `json:"collectedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`

	reversal driver.TaskID
}

// SpawnBonus spawns a bonus event immediately, bypassing the random check.
func (e *Engine) SpawnBonus() BonusEvent {
	e.mu.Lock()
	defer e.flush()
	defer e.mu.Unlock()

	return *e.spawnBonus(e.clk.Now())
}

// CollectBonus activates a visible bonus event. The multiplier applies at
// once and is reverted by its own timer after BonusActiveDuration.
func (e *Engine) CollectBonus(id string) (BonusActivation, error) {
	e.mu.Lock()
	defer e.flush()
	defer e.mu.Unlock()

	ev, ok := e.bonusEvents[id]
	if !ok {
		return BonusActivation{}, fmt.Errorf("%q: %w", id, ErrBonusNotFound)
	}

	now := e.clk.Now()
	e.sched.Cancel(ev.expiry)
	delete(e.bonusEvents, id)

	if !now.Before(ev.ExpiresAt) {
		e.emitBonusExpired(ev, now)
		return BonusActivation{}, fmt.Errorf("%q expired: %w", id, ErrBonusNotFound)
	}

	act := &BonusActivation{
		ID:          ev.ID,
		Factor:      BonusMultiplier,
		CollectedAt: now,
		ExpiresAt:   now.Add(BonusActiveDuration),
	}
	e.state.GlobalMultiplier *= act.Factor
	act.reversal = e.sched.At("bonus-reversal", act.ExpiresAt, func(ctx context.Context, now time.Time) {
		e.revertBonus(act, now)
	})
	e.activations[act.ID] = act

	e.emit(Notification{
		Kind:    NotifyBonusActivated,
		At:      now,
		Title:   "Golden Poop!",
		Message: fmt.Sprintf("Production x%g for %s!", act.Factor, BonusActiveDuration),
		Ref:     act.ID,
	})

	return *act, nil
}

func (e *Engine) trySpawnBonus(_ context.Context, now time.Time) {
	if e.rng.Float64() < e.spawnChance {
		e.spawnBonus(now)
	}
}

func (e *Engine) spawnBonus(now time.Time) *BonusEvent {
	ev := &BonusEvent{
		ID:        uuid.NewString(),
		SpawnedAt: now,
		ExpiresAt: now.Add(BonusVisibleDuration),
	}
	ev.expiry = e.sched.At("bonus-expiry", ev.ExpiresAt, func(_ context.Context, now time.Time) {
		if _, ok := e.bonusEvents[ev.ID]; !ok {
			return
		}
		delete(e.bonusEvents, ev.ID)
		e.emitBonusExpired(ev, now)
	})
	e.bonusEvents[ev.ID] = ev

	e.emit(Notification{
		Kind:    NotifyBonusSpawned,
		At:      now,
		Title:   "A golden poop appeared!",
		Message: fmt.Sprintf("Collect it within %s.", BonusVisibleDuration),
		Ref:     ev.ID,
	})

	return ev
}

func (e *Engine) emitBonusExpired(ev *BonusEvent, now time.Time) {
	e.emit(Notification{
		Kind:  NotifyBonusExpired,
		At:    now,
		Title: "The golden poop vanished.",
		Ref:   ev.ID,
	})
}

func (e *Engine) revertBonus(act *BonusActivation, now time.Time) {
	if _, ok := e.activations[act.ID]; !ok {
		return
	}
	delete(e.activations, act.ID)
	e.state.GlobalMultiplier /= act.Factor

	e.emit(Notification{
		Kind:  NotifyBonusEnded,
		At:    now,
		Title: "Golden poop bonus ended.",
		Ref:   act.ID,
	})
}

// clearActivations cancels every pending reversal. Used when the global
// multiplier is reset out from under them.
func (e *Engine) clearActivations() {
	for id, act := range e.activations {
		e.sched.Cancel(act.reversal)
		delete(e.activations, id)
	}
}

func (e *Engine) bonusSnapshot() ([]BonusEvent, []BonusActivation) {
	events := make([]BonusEvent, 0, len(e.bonusEvents))
	for _, ev := range e.bonusEvents {
		events = append(events, *ev)
	}
	slices.SortFunc(events, func(a, b BonusEvent) int {
		return a.SpawnedAt.Compare(b.SpawnedAt)
	})

	acts := make([]BonusActivation, 0, len(e.activations))
	for _, act := range e.activations {
		acts = append(acts, *act)
	}
	slices.SortFunc(acts, func(a, b BonusActivation) int {
		return a.CollectedAt.Compare(b.CollectedAt)
	})

	return events, acts
}
