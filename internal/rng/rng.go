// Package rng provides a small deterministic random stream for simulation
// components. Each agent and the news process owns an independent Stream so
// a run is reproducible from its seeds alone.
package rng

import "math"

// DefaultSeed replaces a zero seed. A zeroed xorshift state only ever
// produces zero, so seed 0 is remapped instead of rejected.
const DefaultSeed uint64 = 88172645463325252

// Stream is a seedable xorshift64 generator producing uniform and normal
// draws. The zero value is not usable; construct with NewStream.
type Stream struct {
	state uint64
}

// NewStream returns a Stream seeded with the given value.
// A seed of 0 is remapped to DefaultSeed.
func NewStream(seed uint64) *Stream {
	if seed == 0 {
		seed = DefaultSeed
	}
	return &Stream{state: seed}
}

// Uint64 advances the stream and returns the next raw state.
func (s *Stream) Uint64() uint64 {
	x := s.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	s.state = x
	return x
}

// Float64 returns a uniform draw in (0,1) built from the top 53 bits.
func (s *Stream) Float64() float64 {
	return float64(s.Uint64()>>11) * (1.0 / 9007199254740992.0)
}

// Norm returns a standard normal draw (mean 0, std 1) via Box-Muller.
// Consumes two uniform draws.
func (s *Stream) Norm() float64 {
	u1 := s.Float64()
	if u1 < 1e-12 {
		u1 = 1e-12
	}
	u2 := s.Float64()
	return math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
}
