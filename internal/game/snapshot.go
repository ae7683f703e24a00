package game

import (
	"slices"
	"time"
)

// ProducerSnapshot is the read-only view of one producer.
type ProducerSnapshot struct {
	ProducerType
	OwnedCount int64   `json:"ownedCount"`
	NextCost   float64 `json:"nextCost"`
	Affordable bool    `json:"affordable"`
}

// Snapshot is an immutable copy of the engine state plus derived values.
// Renderers and achievement predicates only ever see snapshots.
type Snapshot struct {
	At                      time.Time          `json:"at"`
	ResourceCount           float64            `json:"resourceCount"`
	TotalResourceProduced   float64            `json:"totalResourceProduced"`
	ClickCount              int64              `json:"clickCount"`
	PrestigeCurrency        int64              `json:"prestigeCurrency"`
	GlobalMultiplier        float64            `json:"globalMultiplier"`
	EffectiveMultiplier     float64            `json:"effectiveMultiplier"`
	ProductionRate          float64            `json:"productionRate"`
	EffectiveProductionRate float64            `json:"effectiveProductionRate"`
	Producers               []ProducerSnapshot `json:"producers"`
	UnlockedAchievements    []AchievementID    `json:"unlockedAchievementIds"`
	Prestige                PrestigeStatus     `json:"prestige"`
	PrestigeProgress        int                `json:"prestigeProgress"`
	BonusEvents             []BonusEvent       `json:"bonusEvents"`
	ActiveBonuses           []BonusActivation  `json:"activeBonuses"`
}

// Owned returns how many of a producer the player owns; zero if unknown.
func (s Snapshot) Owned(id ProducerID) int64 {
	for _, p := range s.Producers {
		if p.ID == id {
			return p.OwnedCount
		}
	}
	return 0
}

func (s Snapshot) Unlocked(id AchievementID) bool {
	return slices.Contains(s.UnlockedAchievements, id)
}

// Snapshot copies the state. Bonus information is filled in by the engine.
func (s *PlayerState) Snapshot(at time.Time) Snapshot {
	snap := Snapshot{
		At:                      at,
		ResourceCount:           s.ResourceCount,
		TotalResourceProduced:   s.TotalResourceProduced,
		ClickCount:              s.ClickCount,
		PrestigeCurrency:        s.PrestigeCurrency,
		GlobalMultiplier:        s.GlobalMultiplier,
		EffectiveMultiplier:     s.EffectiveMultiplier(),
		ProductionRate:          s.pps,
		EffectiveProductionRate: s.EffectiveProductionRate(),
		Producers:               make([]ProducerSnapshot, 0, len(s.Producers)),
		UnlockedAchievements:    slices.Clone(s.UnlockedAchievements),
		Prestige:                s.PrestigeStatus(),
		PrestigeProgress:        PrestigeProgress(s.TotalResourceProduced),
	}
	for _, p := range s.Producers {
		snap.Producers = append(snap.Producers, ProducerSnapshot{
			ProducerType: p.ProducerType,
			OwnedCount:   p.OwnedCount,
			NextCost:     p.Cost(),
			Affordable:   s.CanAfford(p),
		})
	}
	return snap
}
