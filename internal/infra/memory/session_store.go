package memory

import (
	"context"
	"sync"
	"time"

	"mathtoys-quiz/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// With a TTL, entries idle for longer than the TTL are treated as missing and
// evicted; every write refreshes the deadline, like the Redis store's EXPIRE.
type SessionStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	clock    func() time.Time
	sessions map[string]storedSession
}

type storedSession struct {
	state     domain.SessionState
	expiresAt time.Time
}

// SessionStoreOption customizes a SessionStore.
type SessionStoreOption func(*SessionStore)

// WithSessionTTL expires sessions that have not been written for ttl.
// Zero keeps sessions forever.
func WithSessionTTL(ttl time.Duration) SessionStoreOption {
	return func(s *SessionStore) { s.ttl = ttl }
}

func NewSessionStore(opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{
		clock:    time.Now,
		sessions: make(map[string]storedSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionStore) Get(_ context.Context, key string) (domain.SessionState, error) {
	s.mu.RLock()
	entry, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	if s.expired(entry) {
		s.mu.Lock()
		if current, ok := s.sessions[key]; ok && s.expired(current) {
			delete(s.sessions, key)
		}
		s.mu.Unlock()
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	return entry.state.Clone(), nil
}

func (s *SessionStore) Save(_ context.Context, key string, state domain.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.sessions[key] = s.entry(state)
	return nil
}

// Update runs fn on a copy under the store lock and keeps the copy only if fn succeeds.
func (s *SessionStore) Update(_ context.Context, key string, fn func(*domain.SessionState) error) (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[key]
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	if s.expired(entry) {
		delete(s.sessions, key)
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	working := entry.state.Clone()
	if err := fn(&working); err != nil {
		return domain.SessionState{}, err
	}
	s.sessions[key] = s.entry(working)
	return working, nil
}

func (s *SessionStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// Len reports how many sessions are held, expired ones included until evicted.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) entry(state domain.SessionState) storedSession {
	entry := storedSession{state: state.Clone()}
	if s.ttl > 0 {
		entry.expiresAt = s.clock().Add(s.ttl)
	}
	return entry
}

func (s *SessionStore) expired(entry storedSession) bool {
	return !entry.expiresAt.IsZero() && !s.clock().Before(entry.expiresAt)
}

// sweepLocked drops expired entries so abandoned sessions do not accumulate.
func (s *SessionStore) sweepLocked() {
	if s.ttl <= 0 {
		return
	}
	for key, entry := range s.sessions {
		if s.expired(entry) {
			delete(s.sessions, key)
		}
	}
}
