package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source is the randomness used by pairing shuffles, knockout draws, standings lots and shootouts.
// Int64 seeds per-tournament sources.
type Source interface {
	IntN(n int) int
	Int64() int64
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// Locked is a seeded Source safe for concurrent use.
type Locked struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func New(seed int64) *Locked {
	return &Locked{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

// NewFromConfig seeds from the clock when seed is zero.
func NewFromConfig(seed int64) *Locked {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return New(seed)
}

func (s *Locked) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func (s *Locked) Int64() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Int64()
}

func (s *Locked) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Locked) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}

// ShuffleStrings returns a shuffled copy of items.
func ShuffleStrings(src Source, items []string) []string {
	out := append([]string(nil), items...)
	src.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Coin returns true with probability 1/2.
func Coin(src Source) bool {
	return src.IntN(2) == 0
}
