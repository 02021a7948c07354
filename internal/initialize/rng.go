// Package initialize implements the parameter initializer registry
// (Xavier, He) and the seeded PRNG stream both initialization and
// training-loop shuffling draw from.
package initialize

import (
	"math"
	"math/rand/v2"
)

// Stream is the single seeded source of randomness a training run draws
// from, in a fixed order so runs with the same seed reproduce bit-for-bit:
// weights before biases per layer, layers in order, and two uniforms per
// Gaussian sample. Wrapping rand.Rand in a named type keeps the draw order
// centralized instead of scattered across initializers and the training
// loop's Fisher-Yates shuffle.
type Stream struct {
	rng *rand.Rand
}

// NewStream seeds a deterministic stream from a single uint64 seed, using
// math/rand/v2's PCG generator.
func NewStream(seed uint64) *Stream {
	return &Stream{rng: rand.New(rand.NewPCG(seed, 0))}
}

// Uniform draws one sample from Uniform(0,1).
func (s *Stream) Uniform() float64 {
	return s.rng.Float64()
}

// UniformRange draws one sample from Uniform(a,b).
func (s *Stream) UniformRange(a, b float64) float64 {
	return a + (b-a)*s.Uniform()
}

// Gaussian draws one sample from Normal(mu, sigma^2) via Box-Muller,
// rejecting a zero first uniform (log(0) is undefined). Consumes exactly
// two uniforms per call.
func (s *Stream) Gaussian(mu, sigma float64) float64 {
	var u1 float64
	for u1 == 0 {
		u1 = s.Uniform()
	}
	u2 := s.Uniform()
	return mu + sigma*math.Sqrt(-2*math.Log(u1))*math.Cos(2*math.Pi*u2)
}

// Shuffle permutes [0,n) in place by whole-index Fisher-Yates swaps; swap
// is called with the two indices to exchange and performs the caller's own
// exchange (the training loop swaps entries of its row-index table; the
// dataset rows themselves are never moved).
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		swap(i, j)
	}
}
