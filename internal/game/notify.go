package game

import (
	"context"
	"time"
)

type NotificationKind string

const (
	NotifyAchievement       NotificationKind = "achievement"
	NotifyPrestigeAvailable NotificationKind = "prestige_available"
	NotifyPrestige          NotificationKind = "prestige"
	NotifyBonusSpawned      NotificationKind = "bonus_spawned"
	NotifyBonusExpired      NotificationKind = "bonus_expired"
	NotifyBonusActivated    NotificationKind = "bonus_activated"
	NotifyBonusEnded        NotificationKind = "bonus_ended"
)

// Notification is a one-off event for observers (achievement popups,
// bonus announcements, prestige results).
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	At      time.Time        `json:"at"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
	Ref     string           `json:"ref,omitempty"`
}

// Confirmer gates user-confirmed actions such as prestige.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Confirmed is a Confirmer for requests that were confirmed before reaching
// the engine.
var Confirmed Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

// Subscribe registers fn for every notification. fn is called without the
// engine lock held, so it may read engine state. The returned func removes
// the subscription.
func (e *Engine) Subscribe(fn func(Notification)) func() {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	e.nextSub++
	id := e.nextSub
	e.subs[id] = fn

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.subs, id)
	}
}

// emit queues n; it is delivered by flush once the engine lock is released.
func (e *Engine) emit(n Notification) {
	e.outbox = append(e.outbox, n)
}

func (e *Engine) flush() {
	e.mu.Lock()
	pending := e.outbox
	e.outbox = nil
	e.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	e.subMu.Lock()
	subs := make([]func(Notification), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.subMu.Unlock()

	for _, n := range pending {
		e.logger.Info("notification", "kind", n.Kind, "title", n.Title, "ref", n.Ref)
		for _, fn := range subs {
			fn(n)
		}
	}
}
