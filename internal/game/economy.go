package game

import "fmt"

// Cost returns the price of the next unit of p at its current owned count.
func (p *ProducerState) Cost() float64 {
	return Cost(p.BaseCost, p.OwnedCount)
}

// Purchase buys one unit of the producer, returning the price paid. The
// state is left untouched on error.
func (s *PlayerState) Purchase(id ProducerID) (float64, error) {
	p := s.Producer(id)
	if p == nil {
		return 0, fmt.Errorf("%q: %w", id, ErrUnknownProducer)
	}

	cost := p.Cost()
	if s.ResourceCount < cost {
		return 0, fmt.Errorf("%s costs %v, have %v: %w", p.DisplayName, cost, s.ResourceCount, ErrInsufficientFunds)
	}

	s.ResourceCount -= cost
	p.OwnedCount++
	s.RecomputeProductionRate()
	return cost, nil
}

// CanAfford reports whether the next unit of p is affordable.
func (s *PlayerState) CanAfford(p *ProducerState) bool {
	return s.ResourceCount >= p.Cost()
}
