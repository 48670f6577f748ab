package game

import (
	mathrand "math/rand"
	"sync"
	"time"
)

// RandSource yields uniform floats in [0, 1). Tests substitute a scripted
// source to pin the volatility draw and rival multipliers.
type RandSource interface {
	Float64() float64
}

// LockedRand is a seeded math/rand source safe for concurrent use.
type LockedRand struct {
	mu   sync.Mutex
	rand *mathrand.Rand
}

func NewRand(seed int64) *LockedRand {
	return &LockedRand{rand: mathrand.New(mathrand.NewSource(seed))}
}

func NewTimeSeededRand() *LockedRand {
	return NewRand(time.Now().UnixNano())
}

func (r *LockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// uniform maps a [0,1) draw onto [lo, hi).
func uniform(src RandSource, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// DrawVolatility returns the week's shared market shock in [-0.05, 0.05).
func DrawVolatility(src RandSource) float64 {
	return src.Float64()*0.10 - 0.05
}
