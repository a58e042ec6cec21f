package app

import (
	"math/rand"
	"sync"
	"time"
)

// Random is the source used for shuffles and option sampling.
// *rand.Rand satisfies it.
type Random interface {
	Intn(n int) int
}

// lockedRandom lets one rand.Rand serve concurrent requests.
type lockedRandom struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandom returns a goroutine-safe Random. A zero seed uses the clock.
func NewRandom(seed int64) Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRandom{rnd: rand.New(rand.NewSource(seed))}
}

func (r *lockedRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

// shuffle is an in-place Fisher-Yates permutation.
func shuffle[T any](rnd Random, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
