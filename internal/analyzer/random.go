package analyzer

import (
	"math/rand/v2"
	"sync"
)

// RandomSource supplies uniform values in [0,1) for confidence jitter and
// the fallback coin flip. *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

type globalRandom struct{}

func (globalRandom) Float64() float64 {
	return rand.Float64()
}

// DefaultRandom returns the process-wide, goroutine-safe source.
func DefaultRandom() RandomSource {
	return globalRandom{}
}

// lockedRandom serialises a seeded generator so it can be shared.
type lockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRandom returns a reproducible source safe for concurrent use.
func NewSeededRandom(seed uint64) RandomSource {
	return &lockedRandom{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRandom) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

// FixedRandom always returns the same value.
type FixedRandom float64

func (f FixedRandom) Float64() float64 {
	return float64(f)
}
