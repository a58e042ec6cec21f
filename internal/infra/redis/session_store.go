package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mathtoys-quiz/internal/domain"
	"mathtoys-quiz/internal/logger"
)

const defaultUpdateRetries = 5

// ErrUpdateConflict is returned when a session kept changing underneath an
// Update for every retry.
var ErrUpdateConflict = errors.New("session update conflict")

// SessionStore keeps session state as JSON documents in Redis, so any
// instance behind a load balancer can serve the next request of a session.
// Every write refreshes the TTL.
type SessionStore struct {
	client  *redis.Client
	ttl     time.Duration
	retries int
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl, retries: defaultUpdateRetries}
}

func (s *SessionStore) Get(ctx context.Context, id string) (domain.SessionState, error) {
	data, err := s.client.Get(ctx, key("session", id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionState{}, err
	}
	return decodeState(data)
}

func (s *SessionStore) Save(ctx context.Context, id string, state domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, key("session", id), data, s.ttl).Err()
}

// Update applies fn inside a WATCH/MULTI transaction. A concurrent write to
// the same session aborts the transaction and fn runs again on fresh state.
func (s *SessionStore) Update(ctx context.Context, id string, fn func(*domain.SessionState) error) (domain.SessionState, error) {
	k := key("session", id)
	var out domain.SessionState

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		working, err := decodeState(data)
		if err != nil {
			return err
		}
		if err := fn(&working); err != nil {
			return err
		}
		payload, err := json.Marshal(working)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, payload, s.ttl)
			return nil
		})
		if err == nil {
			out = working
		}
		return err
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		err := s.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			logger.Get().Debug("session update raced, retrying",
				zap.String("session", id),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		if err != nil {
			return domain.SessionState{}, err
		}
		return out, nil
	}
	return domain.SessionState{}, fmt.Errorf("%w: %s", ErrUpdateConflict, id)
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, key("session", id)).Err()
}

func decodeState(data []byte) (domain.SessionState, error) {
	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.SessionState{}, fmt.Errorf("decode session: %w", err)
	}
	return state, nil
}
