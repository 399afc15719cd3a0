// Package utilization models resource demand over simulated time.
package utilization

import (
	"math/rand"
)

// Model returns the normalized demand, in [0,1], at a point in simulated time.
type Model interface {
	Utilization(time float64) float64
}

// Full always demands the whole resource.
type Full struct{}

func (Full) Utilization(float64) float64 { return 1 }

// Null never demands anything.
type Null struct{}

func (Null) Utilization(float64) float64 { return 0 }

// Constant demands a fixed fraction, clamped to [0,1].
type Constant struct {
	Value float64
}

func (c Constant) Utilization(float64) float64 { return clamp(c.Value) }

// Stochastic draws a uniform sample per distinct time and remembers it, so
// repeated queries at the same time agree. Determinism follows from the rng seed.
type Stochastic struct {
	rng     *rand.Rand
	history map[float64]float64
}

// NewStochastic creates a Stochastic model drawing from rng.
func NewStochastic(rng *rand.Rand) *Stochastic {
	return &Stochastic{rng: rng, history: make(map[float64]float64)}
}

func (s *Stochastic) Utilization(time float64) float64 {
	if u, ok := s.history[time]; ok {
		return u
	}
	u := s.rng.Float64()
	s.history[time] = u
	return u
}

func clamp(v float64) float64 {
	return min(max(v, 0), 1)
}
