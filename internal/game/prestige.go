package game

type PrestigeStatus int

const (
	PrestigeLocked PrestigeStatus = iota
	PrestigeAvailable
	PrestigeResetting
)

func (p PrestigeStatus) String() string {
	switch p {
	case PrestigeLocked:
		return "locked"
	case PrestigeAvailable:
		return "available"
	case PrestigeResetting:
		return "resetting"
	default:
		return "unknown"
	}
}

func (p PrestigeStatus) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (s *PlayerState) PrestigeStatus() PrestigeStatus {
	if s.resetting {
		return PrestigeResetting
	}
	if s.TotalResourceProduced >= PrestigeThreshold {
		return PrestigeAvailable
	}
	return PrestigeLocked
}

// Prestige performs the reset. The caller must have checked availability.
// Essence and unlocked achievements survive the reset.
func (s *PlayerState) Prestige() {
	s.resetting = true
	defer func() { s.resetting = false }()

	s.PrestigeCurrency++

	s.ResourceCount = 0
	s.TotalResourceProduced = 0
	s.ClickCount = 0
	s.GlobalMultiplier = 1
	for _, p := range s.Producers {
		p.OwnedCount = 0
	}
	s.RecomputeProductionRate()
}
