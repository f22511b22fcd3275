package domain

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source is the randomness used by card generation, draws and room codes.
type Source interface {
	// IntN returns a uniform value in [0, n). n must be > 0.
	IntN(n int) int
}

// lockedSource makes a *rand.Rand safe for concurrent use.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSource returns a goroutine-safe Source seeded with seed.
func NewSource(seed uint64) Source {
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomSource returns a goroutine-safe Source seeded from the clock and the runtime generator.
func NewRandomSource() Source {
	return &lockedSource{r: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))}
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}
