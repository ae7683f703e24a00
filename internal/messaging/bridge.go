package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pixil98/go-idle/internal/game"
)

// Engine is the part of game.Engine the bridge drives.
type Engine interface {
	Click() (float64, error)
	Purchase(ctx context.Context, id game.ProducerID) (game.PurchaseResult, error)
	RequestPrestige(ctx context.Context, c game.Confirmer) (bool, error)
	CollectBonus(id string) (game.BonusActivation, error)
	Snapshot() game.Snapshot
	Subscribe(fn func(game.Notification)) func()
}

// Bus is the transport the bridge serves on. NatsServer implements it.
type Bus interface {
	Publisher
	Ready() <-chan struct{}
	Handle(subject string, handler Handler) (func(), error)
}

// Reply is the JSON envelope every intent is answered with.
type Reply struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

// IntentBridge lets external renderers drive the engine over the bus and
// observe its notifications.
type IntentBridge struct {
	engine Engine
	bus    Bus
	pub    *NotificationPublisher
}

func NewIntentBridge(engine Engine, bus Bus) *IntentBridge {
	return &IntentBridge{
		engine: engine,
		bus:    bus,
		pub:    NewNotificationPublisher(bus),
	}
}

// Start waits for the bus, serves intents until ctx is cancelled, then
// removes its subscriptions.
func (b *IntentBridge) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-b.bus.Ready():
	}

	unsubs, err := b.register(ctx)
	defer func() {
		for _, u := range unsubs {
			u()
		}
	}()
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "intent bridge ready")
	<-ctx.Done()
	return nil
}

func (b *IntentBridge) register(ctx context.Context) ([]func(), error) {
	handlers := map[string]func(context.Context, string) (any, error){
		SubjectIntentClick:    b.click,
		SubjectIntentBuy:      b.buy,
		SubjectIntentCollect:  b.collect,
		SubjectIntentPrestige: b.prestige,
		SubjectState:          b.state,
	}

	unsubs := []func(){b.engine.Subscribe(b.pub.Notify)}
	for subject, h := range handlers {
		unsub, err := b.bus.Handle(subject, b.handler(ctx, subject, h))
		if err != nil {
			return unsubs, fmt.Errorf("subscribing %s: %w", subject, err)
		}
		unsubs = append(unsubs, unsub)
	}
	return unsubs, nil
}

func (b *IntentBridge) handler(ctx context.Context, subject string, fn func(context.Context, string) (any, error)) Handler {
	return func(data []byte) []byte {
		result, err := fn(ctx, strings.TrimSpace(string(data)))

		r := Reply{OK: err == nil}
		if err != nil {
			r.Error = err.Error()
			slog.DebugContext(ctx, "intent rejected", "subject", subject, "error", err)
		} else {
			r.Result = result
		}

		out, merr := json.Marshal(r)
		if merr != nil {
			slog.ErrorContext(ctx, "marshalling reply", "subject", subject, "error", merr)
			return []byte(`{"ok":false,"error":"internal error"}`)
		}
		return out
	}
}

func (b *IntentBridge) click(context.Context, string) (any, error) {
	amount, err := b.engine.Click()
	if err != nil {
		return nil, err
	}
	return map[string]float64{"amount": amount}, nil
}

func (b *IntentBridge) buy(ctx context.Context, payload string) (any, error) {
	if payload == "" {
		return nil, fmt.Errorf("producer id is required")
	}
	return b.engine.Purchase(ctx, game.ProducerID(payload))
}

func (b *IntentBridge) collect(_ context.Context, payload string) (any, error) {
	if payload == "" {
		return nil, fmt.Errorf("bonus event id is required")
	}
	return b.engine.CollectBonus(payload)
}

// prestige only accepts a payload of "confirm"; the renderer is expected to
// have asked the player already.
func (b *IntentBridge) prestige(ctx context.Context, payload string) (any, error) {
	if payload != prestigeConfirmPayload {
		return nil, fmt.Errorf("prestige requires payload %q", prestigeConfirmPayload)
	}
	ok, err := b.engine.RequestPrestige(ctx, game.Confirmed)
	if err != nil {
		return nil, err
	}
	return map[string]bool{"prestiged": ok}, nil
}

func (b *IntentBridge) state(context.Context, string) (any, error) {
	return b.engine.Snapshot(), nil
}
