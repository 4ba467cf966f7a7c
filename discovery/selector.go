package discovery

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Selector picks one instance from a non-empty candidate list.
type Selector interface {
	Select(instances []Instance) Instance
}

// RandomSelector picks uniformly at random. It keeps no per-instance state,
// so there is no stickiness and no weighting.
type RandomSelector struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomSelector creates a RandomSelector seeded from the clock.
func NewRandomSelector() *RandomSelector {
	now := uint64(time.Now().UnixNano())
	return NewSeededSelector(now, now>>1)
}

// NewSeededSelector creates a RandomSelector with a fixed seed.
func NewSeededSelector(seed1, seed2 uint64) *RandomSelector {
	return &RandomSelector{r: rand.New(rand.NewPCG(seed1, seed2))}
}

// Select returns one element of instances. It panics on an empty slice;
// callers check for that first.
func (s *RandomSelector) Select(instances []Instance) Instance {
	s.mu.Lock()
	idx := s.r.IntN(len(instances))
	s.mu.Unlock()
	return instances[idx]
}
