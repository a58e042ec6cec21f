package memory

import (
	"context"
	"sync"

	"mathtoys-quiz/internal/domain"
)

// ResultStore keeps finished-session results in process memory.
type ResultStore struct {
	mu      sync.Mutex
	results []domain.Result
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) Record(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

// Results returns a copy of everything recorded so far.
func (s *ResultStore) Results() []domain.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Result(nil), s.results...)
}

// Recent returns up to limit results for quizID, newest first.
func (s *ResultStore) Recent(_ context.Context, quizID string, limit int) ([]domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Result
	for i := len(s.results) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.results[i].QuizID == quizID {
			out = append(out, s.results[i])
		}
	}
	return out, nil
}
