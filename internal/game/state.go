package game

import "fmt"

// ProducerState is a catalog producer plus how many the player owns.
type ProducerState struct {
	ProducerType
	OwnedCount int64
}

// PlayerState is the mutable progression model. It is not safe for
// concurrent use; the Engine serialises access to it.
type PlayerState struct {
	ResourceCount         float64
	TotalResourceProduced float64
	ClickCount            int64
	PrestigeCurrency      int64
	GlobalMultiplier      float64
	Producers             []*ProducerState
	UnlockedAchievements  []AchievementID

	pps       float64
	resetting bool
	index     map[ProducerID]*ProducerState
	unlocked  map[AchievementID]struct{}
}

// NewPlayerState builds a fresh state with one zero-count entry per producer.
func NewPlayerState(producers []ProducerType) *PlayerState {
	s := &PlayerState{
		GlobalMultiplier: 1,
		Producers:        make([]*ProducerState, 0, len(producers)),
		index:            make(map[ProducerID]*ProducerState, len(producers)),
		unlocked:         map[AchievementID]struct{}{},
	}
	for _, p := range producers {
		ps := &ProducerState{ProducerType: p}
		s.Producers = append(s.Producers, ps)
		s.index[p.ID] = ps
	}
	return s
}

// AddResource credits amount to both the balance and the lifetime total.
func (s *PlayerState) AddResource(amount float64) error {
	if !validAmount(amount) {
		return fmt.Errorf("adding %v: %w", amount, ErrInvalidAmount)
	}
	s.ResourceCount += amount
	s.TotalResourceProduced += amount
	return nil
}

// Click registers a manual click and returns the amount it produced.
func (s *PlayerState) Click() (float64, error) {
	amount := ClickValue * s.EffectiveMultiplier()
	if err := s.AddResource(amount); err != nil {
		return 0, err
	}
	s.ClickCount++
	return amount, nil
}

func (s *PlayerState) EffectiveMultiplier() float64 {
	return EffectiveMultiplier(s.GlobalMultiplier, s.PrestigeCurrency)
}

// RecomputeProductionRate derives pps from the owned counts.
func (s *PlayerState) RecomputeProductionRate() {
	pps := 0.0
	for _, p := range s.Producers {
		pps += float64(p.OwnedCount) * p.BaseProductionRate
	}
	s.pps = pps
}

// ProductionRate is the unmultiplied passive rate per second.
func (s *PlayerState) ProductionRate() float64 {
	return s.pps
}

func (s *PlayerState) EffectiveProductionRate() float64 {
	return s.pps * s.EffectiveMultiplier()
}

// Producer returns the state for id, or nil if the catalog has no such producer.
func (s *PlayerState) Producer(id ProducerID) *ProducerState {
	return s.index[id]
}

func (s *PlayerState) IsUnlocked(id AchievementID) bool {
	_, ok := s.unlocked[id]
	return ok
}

// unlock records id and reports whether it was newly unlocked.
func (s *PlayerState) unlock(id AchievementID) bool {
	if s.IsUnlocked(id) {
		return false
	}
	s.unlocked[id] = struct{}{}
	s.UnlockedAchievements = append(s.UnlockedAchievements, id)
	return true
}
