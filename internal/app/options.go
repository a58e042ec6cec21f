package app

import (
	"fmt"

	"mathtoys-quiz/internal/domain"
)

// GenerateOptions returns n distinct values containing correct exactly once.
// The other n-1 values are drawn without replacement from pool (duplicates
// and the correct value itself are ignored), and the result order is random.
func GenerateOptions(rnd Random, pool []string, correct string, n int) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: option count %d", domain.ErrInsufficientOptions, n)
	}

	seen := map[string]struct{}{correct: {}}
	distractors := make([]string, 0, len(pool))
	for _, v := range pool {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		distractors = append(distractors, v)
	}
	if len(distractors) < n-1 {
		return nil, fmt.Errorf("%w: %q needs %d distractors, pool has %d",
			domain.ErrInsufficientOptions, correct, n-1, len(distractors))
	}

	shuffle(rnd, distractors)
	out := make([]string, 0, n)
	out = append(out, distractors[:n-1]...)
	out = append(out, correct)
	shuffle(rnd, out)
	return out, nil
}
