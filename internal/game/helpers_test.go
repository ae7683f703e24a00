package game

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-idle/internal/clock"
	"github.com/pixil98/go-idle/internal/storage"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type testEngine struct {
	*Engine
	clk   *clock.FakeClock
	store *storage.MemoryStore[*SaveRecord]

	mu    sync.Mutex
	notes []Notification
}

// newTestEngine builds an engine on a fake clock whose random source never
// spawns bonus events unless overridden.
func newTestEngine(t *testing.T, opts ...EngineOpt) *testEngine {
	t.Helper()

	te := &testEngine{
		clk:   clock.NewFakeClock(epoch),
		store: storage.NewMemoryStore[*SaveRecord](),
	}

	base := []EngineOpt{
		WithClock(te.clk),
		WithRandom(RandomFunc(func() float64 { return 0.5 })),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	e, err := NewEngine(DefaultCatalog(), te.store, append(base, opts...)...)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	te.Engine = e

	e.Subscribe(func(n Notification) {
		te.mu.Lock()
		defer te.mu.Unlock()
		te.notes = append(te.notes, n)
	})

	return te
}

// advance moves the clock forward in step increments, ticking after each.
func (te *testEngine) advance(t *testing.T, d, step time.Duration) {
	t.Helper()
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		te.clk.Advance(step)
		if err := te.Tick(context.Background()); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
}

func (te *testEngine) notifications(kind NotificationKind) []Notification {
	te.mu.Lock()
	defer te.mu.Unlock()

	var out []Notification
	for _, n := range te.notes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", name, got, want)
	}
}
