package game

import (
	"math"
	"time"
)

// Balance constants.
const (
	CostGrowthRate    = 1.15
	EssenceBonusRate  = 0.1
	PrestigeThreshold = 1_000_000
	ClickValue        = 1.0

	BonusSpawnChance     = 1.0 / 300
	BonusMultiplier      = 2.0
	BonusVisibleDuration = 10 * time.Second
	BonusActiveDuration  = 60 * time.Second
)

// Scheduler cadences.
const (
	PassiveIncomeInterval    = 100 * time.Millisecond
	AutosaveInterval         = 10 * time.Second
	BonusCheckInterval       = time.Second
	AchievementCheckInterval = time.Second
)

// Cost returns the price of the next unit of a producer: floor(base * 1.15^owned).
func Cost(baseCost float64, owned int64) float64 {
	return math.Floor(baseCost * math.Pow(CostGrowthRate, float64(owned)))
}

// EffectiveMultiplier composes the transient global multiplier with the
// permanent prestige bonus.
func EffectiveMultiplier(global float64, prestigeCurrency int64) float64 {
	return global * (1 + float64(prestigeCurrency)*EssenceBonusRate)
}

// PrestigeProgress returns the percentage of the prestige threshold reached,
// floored and capped at 100.
func PrestigeProgress(total float64) int {
	if total >= PrestigeThreshold {
		return 100
	}
	if total <= 0 {
		return 0
	}
	return int(math.Floor(total / PrestigeThreshold * 100))
}

func validAmount(amount float64) bool {
	return amount >= 0 && !math.IsNaN(amount) && !math.IsInf(amount, 0)
}
