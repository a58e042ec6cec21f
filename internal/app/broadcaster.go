package app

import (
	"sync"

	"mathtoys-quiz/internal/domain"
)

// Broadcaster fans progress snapshots out to subscribers of a session key.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.Progress]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[chan domain.Progress]struct{})}
}

// Subscribe registers a channel that first receives initial and then every
// published snapshot for key. The caller must invoke cancel to avoid leaks.
func (b *Broadcaster) Subscribe(key string, initial domain.Progress) (<-chan domain.Progress, func()) {
	ch := make(chan domain.Progress, 8)

	b.mu.Lock()
	set, ok := b.subs[key]
	if !ok {
		set = make(map[chan domain.Progress]struct{})
		b.subs[key] = set
	}
	set[ch] = struct{}{}
	ch <- initial
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		set, ok := b.subs[key]
		if !ok {
			return
		}
		if _, ok := set[ch]; ok {
			delete(set, ch)
			close(ch)
		}
		if len(set) == 0 {
			delete(b.subs, key)
		}
	}
	return ch, cancel
}

// Publish delivers p to every subscriber of key. A subscriber that is behind
// loses its oldest pending snapshot rather than blocking the publisher.
func (b *Broadcaster) Publish(key string, p domain.Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[key] {
		select {
		case ch <- p:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- p
		}
	}
}

// Subscribers reports how many channels listen on key.
func (b *Broadcaster) Subscribers(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[key])
}
