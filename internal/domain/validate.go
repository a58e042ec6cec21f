package domain

import (
	"errors"
	"fmt"
)

// Validate checks that the quiz can be served. fallbackOptionCount applies to
// random-option quizzes that do not set option_count. The returned error
// matches ErrConfiguration, and also ErrInsufficientOptions when a distractor
// pool is too small.
func (q Quiz) Validate(fallbackOptionCount int) error {
	var issues []error
	cfg := q.Config

	if cfg.ID == "" {
		issues = append(issues, errors.New("quiz id is empty"))
	}
	if len(q.Questions) == 0 {
		issues = append(issues, errors.New("question bank is empty"))
	}

	seen := make(map[QuestionID]struct{}, len(q.Questions))
	for i, question := range q.Questions {
		if question.ID == "" {
			issues = append(issues, fmt.Errorf("question #%d has no id", i))
			continue
		}
		if _, dup := seen[question.ID]; dup {
			issues = append(issues, fmt.Errorf("duplicate question id %q", question.ID))
		}
		seen[question.ID] = struct{}{}
		if question.Correct == "" {
			issues = append(issues, fmt.Errorf("question %q has no correct answer", question.ID))
		}
	}

	switch {
	case cfg.AnswerType.IsFixed():
		want := cfg.AnswerType.FixedOptionCount()
		if len(cfg.Options) != want {
			issues = append(issues, fmt.Errorf("%s needs %d options, got %d", cfg.AnswerType, want, len(cfg.Options)))
		}
		values := make(map[string]struct{}, len(cfg.Options))
		for _, opt := range cfg.Options {
			values[opt.Value] = struct{}{}
		}
		for _, question := range q.Questions {
			if _, ok := values[question.Correct]; !ok && question.Correct != "" {
				issues = append(issues, fmt.Errorf("question %q: correct answer %q is not one of the options", question.ID, question.Correct))
			}
		}
	case cfg.AnswerType == AnswerRandom:
		n := cfg.OptionCountOr(fallbackOptionCount)
		if n < 2 {
			issues = append(issues, fmt.Errorf("option count must be at least 2, got %d", n))
			break
		}
		for _, question := range q.Questions {
			pool := cfg.AllOptions
			if len(question.Options) > 0 {
				pool = question.Options
			}
			if got := countDistractors(pool, question.Correct); got < n-1 {
				issues = append(issues, fmt.Errorf("%w: question %q has %d distractors, needs %d", ErrInsufficientOptions, question.ID, got, n-1))
			}
		}
	default:
		issues = append(issues, fmt.Errorf("answer type is not set"))
	}

	if len(issues) == 0 {
		return nil
	}
	return fmt.Errorf("%w: quiz %q: %w", ErrConfiguration, cfg.ID, errors.Join(issues...))
}

func countDistractors(pool []string, correct string) int {
	distinct := make(map[string]struct{}, len(pool))
	for _, v := range pool {
		if v != correct {
			distinct[v] = struct{}{}
		}
	}
	return len(distinct)
}
