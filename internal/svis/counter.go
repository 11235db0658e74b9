package svis

import "log"

// CounterNormalizer converts the 8-bit wrap-around strobe count into a
// monotone 32-bit count_total, per spec.md §4.3.
type CounterNormalizer struct {
	countTotal uint32
	lastCount  uint8
	started    bool
}

// Normalize updates s.CountTotal in place and advances the normalizer's
// internal state. It must be called on strobes in arrival order.
func (n *CounterNormalizer) Normalize(s *StrobeEvent) {
	if !n.started {
		n.countTotal = 1
		n.lastCount = s.Count
		s.CountTotal = n.countTotal
		n.started = true
		return
	}

	var diff uint8
	switch {
	case s.Count > n.lastCount:
		diff = s.Count - n.lastCount
	case s.Count < n.lastCount:
		diff = n.lastCount + s.Count
		if diff == 255 {
			diff = 1
		}
	default:
		log.Printf("(svis) no change in strobe count")
	}

	if diff > 1 {
		log.Printf("(svis) detected jump in strobe count (diff=%d)", diff)
	}

	n.countTotal += uint32(diff)
	s.CountTotal = n.countTotal
	n.lastCount = s.Count
}
