package app

import (
	"math"

	"mathtoys-quiz/internal/domain"
)

// Score tiers shown on the summary screen.
const (
	TierExcellent = "excellent"
	TierGood      = "good"
	TierNeedsWork = "needs_work"
)

// ProgressFraction is answered/total, and 0 for an empty quiz.
func ProgressFraction(answered, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(answered) / float64(total)
}

// ScorePercent rounds 100*correct/answered. With nothing answered it is 0.
func ScorePercent(correct, answered int) int {
	if answered <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(answered)))
}

// ScoreTier buckets a percentage: >= 70 excellent, >= 50 good.
func ScoreTier(percent int) string {
	switch {
	case percent >= 70:
		return TierExcellent
	case percent >= 50:
		return TierGood
	default:
		return TierNeedsWork
	}
}

// ProgressOf derives the read-side view of a session.
func ProgressOf(state domain.SessionState) domain.Progress {
	phase := state.Phase
	if phase == "" {
		phase = domain.PhaseNotStarted
	}
	percent := ScorePercent(state.CorrectCount, state.AnsweredCount)
	return domain.Progress{
		QuizID:           state.QuizID,
		Phase:            phase,
		Number:           state.Served,
		Total:            state.TotalQuestions,
		Answered:         state.AnsweredCount,
		Correct:          state.CorrectCount,
		ProgressFraction: ProgressFraction(state.AnsweredCount, state.TotalQuestions),
		ScorePercent:     percent,
		Tier:             ScoreTier(percent),
	}
}
