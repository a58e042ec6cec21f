package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathtoys-quiz/internal/app"
	"mathtoys-quiz/internal/domain"
)

func TestGenerateOptionsContract(t *testing.T) {
	pool := []string{"A", "B", "C", "D", "E"}
	rnd := newRand()

	const trials = 4000
	distractorHits := map[string]int{}
	positions := make([]int, 3)
	for i := 0; i < trials; i++ {
		got, err := app.GenerateOptions(rnd, pool, "C", 3)
		require.NoError(t, err)
		require.Len(t, got, 3)

		seen := map[string]bool{}
		for pos, v := range got {
			require.False(t, seen[v], "duplicate %q in %v", v, got)
			seen[v] = true
			require.Contains(t, pool, v)
			if v == "C" {
				positions[pos]++
			} else {
				distractorHits[v]++
			}
		}
		require.True(t, seen["C"], "correct answer missing from %v", got)
	}

	// Each of the 4 distractors is picked in half of the trials.
	require.Len(t, distractorHits, 4)
	for v, hits := range distractorHits {
		assert.InDelta(t, trials/2, hits, trials*0.05, "distractor %q", v)
	}
	// The correct answer lands in every slot about a third of the time.
	for pos, hits := range positions {
		assert.InDelta(t, trials/3, hits, trials*0.05, "position %d", pos)
	}
}

func TestGenerateOptionsIgnoresDuplicatesInPool(t *testing.T) {
	got, err := app.GenerateOptions(newRand(), []string{"A", "A", "B", "C", "C"}, "A", 3)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, got)
}

func TestGenerateOptionsInsufficientPool(t *testing.T) {
	_, err := app.GenerateOptions(newRand(), []string{"A", "B", "B"}, "A", 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientOptions)

	_, err = app.GenerateOptions(newRand(), []string{"A", "B"}, "A", 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientOptions)
}

func TestGenerateOptionsSingleOption(t *testing.T) {
	got, err := app.GenerateOptions(newRand(), nil, "A", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got)
}
