package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pixil98/go-idle/internal/clock"
	"github.com/pixil98/go-idle/internal/driver"
	"github.com/pixil98/go-idle/internal/storage"
)

// Engine owns one game session. Every mutation, whether a user intent or a
// scheduled task, runs under a single lock so they never overlap.
type Engine struct {
	mu      sync.Mutex
	catalog Catalog
	state   *PlayerState
	sched   *driver.Scheduler

	clk     clock.Clock
	rng     Random
	logger  *slog.Logger
	store   storage.Storer[*SaveRecord]
	saveKey storage.Identifier

	autosaveInterval time.Duration
	spawnChance      float64

	bonusEvents       map[string]*BonusEvent
	activations       map[string]*BonusActivation
	prestigeAvailable bool
	outbox            []Notification

	subMu   sync.Mutex
	subs    map[int]func(Notification)
	nextSub int
}

// NewEngine creates an engine with a fresh state and its periodic tasks
// registered. Call Load to restore a saved game.
func NewEngine(catalog Catalog, store storage.Storer[*SaveRecord], opts ...EngineOpt) (*Engine, error) {
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	e := &Engine{
		catalog:          catalog,
		sched:            driver.NewScheduler(),
		clk:              clock.RealClock{},
		rng:              RandomFunc(rand.Float64),
		logger:           slog.Default(),
		store:            store,
		saveKey:          DefaultSaveKey,
		autosaveInterval: AutosaveInterval,
		spawnChance:      BonusSpawnChance,
		bonusEvents:      map[string]*BonusEvent{},
		activations:      map[string]*BonusActivation{},
		subs:             map[int]func(Notification){},
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.saveKey.Validate(); err != nil {
		return nil, fmt.Errorf("save key: %w", err)
	}
	if e.autosaveInterval <= 0 {
		return nil, fmt.Errorf("autosave interval must be positive")
	}

	e.setState(NewPlayerState(catalog.Producers))

	start := e.clk.Now()
	e.sched.Every("passive-income", start, PassiveIncomeInterval, e.passiveIncome)
	e.sched.Every("autosave", start, e.autosaveInterval, e.autosave)
	e.sched.Every("bonus-spawn", start, BonusCheckInterval, e.trySpawnBonus)
	e.sched.Every("achievements", start, AchievementCheckInterval, e.checkAchievements)

	return e, nil
}

// Tick runs every scheduled task that is due. It is driven by driver.Driver.
func (e *Engine) Tick(ctx context.Context) error {
	e.mu.Lock()
	e.sched.RunDue(ctx, e.clk.Now())
	e.mu.Unlock()

	e.flush()
	return nil
}

// Catalog returns the static game content.
func (e *Engine) Catalog() Catalog {
	return e.catalog
}

// Snapshot returns an immutable copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(e.clk.Now())
}

func (e *Engine) snapshot(now time.Time) Snapshot {
	snap := e.state.Snapshot(now)
	snap.BonusEvents, snap.ActiveBonuses = e.bonusSnapshot()
	return snap
}

// AddResource credits amount directly. Negative or non-finite amounts are
// rejected with ErrInvalidAmount.
func (e *Engine) AddResource(amount float64) error {
	e.mu.Lock()
	defer e.flush()
	defer e.mu.Unlock()
	return e.addResource(amount, e.clk.Now())
}

func (e *Engine) addResource(amount float64, now time.Time) error {
	err := e.state.AddResource(amount)
	if err != nil {
		e.logger.Warn("rejected resource delta", "amount", amount, "error", err)
		return err
	}
	e.checkPrestige(now)
	return nil
}

// Click registers one manual click and returns the amount produced.
func (e *Engine) Click() (float64, error) {
	e.mu.Lock()
	defer e.flush()
	defer e.mu.Unlock()

	now := e.clk.Now()
	amount, err := e.state.Click()
	if err != nil {
		e.logger.Warn("rejected click", "error", err)
		return 0, err
	}
	e.checkPrestige(now)
	return amount, nil
}

// PurchaseResult describes a completed purchase.
type PurchaseResult struct {
	Producer   ProducerID `json:"producer"`
	Cost       float64    `json:"cost"`
	OwnedCount int64      `json:"ownedCount"`
	NextCost   float64    `json:"nextCost"`
}

// Purchase buys one unit of a producer and saves immediately.
func (e *Engine) Purchase(ctx context.Context, id ProducerID) (PurchaseResult, error) {
	e.mu.Lock()
	defer e.flush()
	defer e.mu.Unlock()

	cost, err := e.state.Purchase(id)
	if err != nil {
		return PurchaseResult{}, err
	}

	p := e.state.Producer(id)
	_ = e.save(ctx)

	return PurchaseResult{
		Producer:   id,
		Cost:       cost,
		OwnedCount: p.OwnedCount,
		NextCost:   p.Cost(),
	}, nil
}

// RequestPrestige asks c to confirm and, if confirmed, performs the prestige
// reset. The confirmer runs without the engine lock so scheduled work keeps
// running while the player decides. Declining returns false with no error.
func (e *Engine) RequestPrestige(ctx context.Context, c Confirmer) (bool, error) {
	e.mu.Lock()
	status := e.state.PrestigeStatus()
	next := e.state.PrestigeCurrency + 1
	e.mu.Unlock()

	if status != PrestigeAvailable {
		return false, ErrPrestigeLocked
	}

	prompt := fmt.Sprintf(
		"Are you sure you want to PRESTIGE? You will lose all progress but gain 1 Gold Essence (+%d%% permanent bonus, %d total).",
		int(EssenceBonusRate*100), next,
	)
	ok, err := c.Confirm(ctx, prompt)
	if err != nil {
		return false, fmt.Errorf("confirming prestige: %w", err)
	}
	if !ok {
		return false, nil
	}

	e.mu.Lock()
	defer e.flush()
	defer e.mu.Unlock()

	// State may have changed while waiting on the confirmer.
	if e.state.PrestigeStatus() != PrestigeAvailable {
		return false, ErrPrestigeLocked
	}

	now := e.clk.Now()
	e.clearActivations()
	e.state.Prestige()
	e.prestigeAvailable = false
	_ = e.save(ctx)

	e.emit(Notification{
		Kind:    NotifyPrestige,
		At:      now,
		Title:   "PRESTIGE SUCCESSFUL!",
		Message: fmt.Sprintf("You now have %d Gold Essence.", e.state.PrestigeCurrency),
	})
	e.logger.InfoContext(ctx, "prestige", "essence", e.state.PrestigeCurrency)

	return true, nil
}

func (e *Engine) checkPrestige(now time.Time) {
	available := e.state.PrestigeStatus() == PrestigeAvailable
	if available && !e.prestigeAvailable {
		e.emit(Notification{
			Kind:    NotifyPrestigeAvailable,
			At:      now,
			Title:   "Prestige Available!",
			Message: "Reset for Gold Essence.",
		})
	}
	e.prestigeAvailable = available
}

func (e *Engine) passiveIncome(_ context.Context, now time.Time) {
	if e.state.ProductionRate() <= 0 {
		return
	}
	amount := e.state.EffectiveProductionRate() * PassiveIncomeInterval.Seconds()
	_ = e.addResource(amount, now)
}

// autosave failures are already logged by save and retried next interval.
func (e *Engine) autosave(ctx context.Context, _ time.Time) {
	_ = e.save(ctx)
}
