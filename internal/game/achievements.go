package game

import (
	"context"
	"time"
)

// checkAchievements evaluates every locked achievement against one snapshot
// and saves if anything unlocked.
func (e *Engine) checkAchievements(ctx context.Context, now time.Time) {
	snap := e.snapshot(now)

	unlocked := 0
	for _, a := range e.catalog.Achievements {
		if e.state.IsUnlocked(a.ID) || !a.Predicate(snap) {
			continue
		}
		if !e.state.unlock(a.ID) {
			continue
		}
		unlocked++
		e.emit(Notification{
			Kind:    NotifyAchievement,
			At:      now,
			Title:   "Achievement Unlocked!",
			Message: a.Title,
			Ref:     string(a.ID),
		})
	}

	if unlocked > 0 {
		_ = e.save(ctx)
	}
}

// AchievementStatus pairs a catalog achievement with its unlock state.
type AchievementStatus struct {
	Achievement
	Unlocked bool
}

// Achievements lists the catalog in display order with unlock state.
func (e *Engine) Achievements() []AchievementStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]AchievementStatus, 0, len(e.catalog.Achievements))
	for _, a := range e.catalog.Achievements {
		out = append(out, AchievementStatus{Achievement: a, Unlocked: e.state.IsUnlocked(a.ID)})
	}
	return out
}
