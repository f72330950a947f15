// Package mockrand provides the seeded random source behind simulated market
// movement and mock pest selection.
package mockrand

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source is a goroutine-safe random source. A fixed seed makes the sequence
// reproducible; tests rely on that.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Source seeded with seed. A zero seed picks one from the clock.
func New(seed uint64) *Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Source{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// IntN returns a value in [0, n). It panics if n <= 0.
func (s *Source) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Offset returns an integer in [-spread, spread).
func (s *Source) Offset(spread int) int {
	return s.IntN(2*spread) - spread
}

// Between returns an integer in [lo, hi).
func (s *Source) Between(lo, hi int) int {
	return lo + s.IntN(hi-lo)
}
