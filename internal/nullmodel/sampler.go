// Package nullmodel draws the randomized positive-spot sets that form
// the expected distributions of every analysis. One sampler draw stands
// in for one plate under the null hypothesis of uniform settlement.
package nullmodel

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"gosetl/domain/core"
	"gosetl/domain/plate"
)

// Uniform samples spot sets uniformly without replacement. It owns a
// private generator guarded by a mutex, so a single sampler can serve
// concurrent engines without cross-plate correlation through shared
// package-global state.
type Uniform struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniform creates a sampler seeded for reproducible runs.
func NewUniform(seed int64) *Uniform {
	return &Uniform{rng: rand.New(rand.NewSource(seed))}
}

// New creates a time-seeded sampler for production use.
func New() *Uniform {
	return NewUniform(time.Now().UnixNano())
}

// RandomPositiveSpots returns n distinct spot numbers in 1..25 via a
// partial Fisher-Yates shuffle.
func (u *Uniform) RandomPositiveSpots(n int) ([]int, error) {
	if n < 0 || n > plate.GridSpots {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidSpotCount, n)
	}
	if n == 0 {
		return []int{}, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	pool := make([]int, plate.GridSpots)
	for i := range pool {
		pool[i] = i + 1
	}
	for i := 0; i < n; i++ {
		j := i + u.rng.Intn(plate.GridSpots-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n], nil
}

// Fixed deterministically returns the first n spots of a fixed
// permutation on every call. It exists for tests that need bit-identical
// expected values across runs.
type Fixed struct {
	Order []int
}

// NewFixed creates a fixed sampler over the identity order 1..25.
func NewFixed() *Fixed {
	order := make([]int, plate.GridSpots)
	for i := range order {
		order[i] = i + 1
	}
	return &Fixed{Order: order}
}

// RandomPositiveSpots returns the first n spots of the fixed order.
func (f *Fixed) RandomPositiveSpots(n int) ([]int, error) {
	if n < 0 || n > len(f.Order) {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidSpotCount, n)
	}
	out := make([]int, n)
	copy(out, f.Order[:n])
	return out, nil
}
