package game

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

type ProducerID string

type AchievementID string

// ProducerType is the static definition of a purchasable producer.
type ProducerType struct {
	ID                 ProducerID `json:"id"`
	DisplayName        string     `json:"displayName"`
	BaseCost           float64    `json:"baseCost"`
	BaseProductionRate float64    `json:"baseProductionRate"`
}

// Achievement unlocks the first time Predicate holds for a snapshot.
type Achievement struct {
	ID          AchievementID
	Title       string
	Description string
	Predicate   func(Snapshot) bool
}

// Catalog is the immutable game content. Slice order is display order.
type Catalog struct {
	Producers    []ProducerType
	Achievements []Achievement
}

func (c Catalog) Validate() error {
	el := errors.NewErrorList()

	if len(c.Producers) == 0 {
		el.Add(fmt.Errorf("at least one producer is required"))
	}

	seenProducers := map[ProducerID]bool{}
	for i, p := range c.Producers {
		if p.ID == "" {
			el.Add(fmt.Errorf("producer %d: id is required", i))
		} else if seenProducers[p.ID] {
			el.Add(fmt.Errorf("producer %q: duplicate id", p.ID))
		}
		seenProducers[p.ID] = true

		if p.BaseCost <= 0 {
			el.Add(fmt.Errorf("producer %q: base cost must be positive", p.ID))
		}
		if p.BaseProductionRate < 0 {
			el.Add(fmt.Errorf("producer %q: production rate must not be negative", p.ID))
		}
	}

	seenAchievements := map[AchievementID]bool{}
	for i, a := range c.Achievements {
		if a.ID == "" {
			el.Add(fmt.Errorf("achievement %d: id is required", i))
		} else if seenAchievements[a.ID] {
			el.Add(fmt.Errorf("achievement %q: duplicate id", a.ID))
		}
		seenAchievements[a.ID] = true

		if a.Predicate == nil {
			el.Add(fmt.Errorf("achievement %q: predicate is required", a.ID))
		}
	}

	return el.Err()
}

// Producer looks up a producer definition by id.
func (c Catalog) Producer(id ProducerID) (ProducerType, bool) {
	for _, p := range c.Producers {
		if p.ID == id {
			return p, true
		}
	}
	return ProducerType{}, false
}

// Achievement looks up an achievement definition by id.
func (c Catalog) Achievement(id AchievementID) (Achievement, bool) {
	for _, a := range c.Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

const (
	ProducerToilet         ProducerID = "toilet"
	ProducerCow            ProducerID = "cow"
	ProducerSpaceStation   ProducerID = "space_station"
	ProducerPortal         ProducerID = "portal"
	ProducerSolarGenerator ProducerID = "solar_generator"
	ProducerCosmicTemple   ProducerID = "cosmic_temple"
)

const (
	AchievementFirstClick   AchievementID = "ACH01"
	AchievementToiletMaster AchievementID = "ACH02"
	AchievementTycoon       AchievementID = "ACH03"
	AchievementTimeTraveler AchievementID = "ACH04"
)

// DefaultCatalog returns the stock producers and achievements.
func DefaultCatalog() Catalog {
	return Catalog{
		Producers: []ProducerType{
			{ID: ProducerToilet, DisplayName: "Toilet", BaseCost: 10, BaseProductionRate: 0.1},
			{ID: ProducerCow, DisplayName: "Cow", BaseCost: 100, BaseProductionRate: 1},
			{ID: ProducerSpaceStation, DisplayName: "Space Station", BaseCost: 1000, BaseProductionRate: 10},
			{ID: ProducerPortal, DisplayName: "Dimensional Portal", BaseCost: 10000, BaseProductionRate: 100},
			{ID: ProducerSolarGenerator, DisplayName: "Solar Poop Generator", BaseCost: 100000, BaseProductionRate: 1000},
			{ID: ProducerCosmicTemple, DisplayName: "Cosmic Poop Temple", BaseCost: 1000000, BaseProductionRate: 10000},
		},
		Achievements: []Achievement{
			{
				ID:          AchievementFirstClick,
				Title:       "First Click!",
				Description: "Click the poop for the first time.",
				Predicate:   func(s Snapshot) bool { return s.ClickCount >= 1 },
			},
			{
				ID:          AchievementToiletMaster,
				Title:       "Toilet Master",
				Description: "Own 50 Toilets.",
				Predicate:   func(s Snapshot) bool { return s.Owned(ProducerToilet) >= 50 },
			},
			{
				ID:          AchievementTycoon,
				Title:       "Tycoon",
				Description: "Generate 1,000,000 total poop.",
				Predicate:   func(s Snapshot) bool { return s.TotalResourceProduced >= PrestigeThreshold },
			},
			{
				ID:          AchievementTimeTraveler,
				Title:       "Time Traveler",
				Description: "Perform a Prestige reset.",
				Predicate:   func(s Snapshot) bool { return s.PrestigeCurrency >= 1 },
			},
		},
	}
}
