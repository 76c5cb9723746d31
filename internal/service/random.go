package service

import (
	"math/rand"
	"sync"
	"time"
)

// Random is the single source of randomness for style choice, complexity,
// prompt rotation and image shuffling. Safe for concurrent use.
type Random struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{r: rand.New(rand.NewSource(seed))}
}

func NewTimeSeededRandom() *Random {
	return NewRandom(time.Now().UnixNano())
}

func (r *Random) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Intn(n)
}

func (r *Random) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Float64()
}

// IntRange returns a value in [lo, hi].
func (r *Random) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

// Shuffle is a Fisher–Yates shuffle.
func (r *Random) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := n - 1; i > 0; i-- {
		j := r.r.Intn(i + 1)
		swap(i, j)
	}
}
