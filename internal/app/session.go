package app

import (
	"fmt"
	"time"

	"mathtoys-quiz/internal/domain"
)

// DefaultOptionCount is the number of options shown for random-option quizzes.
const DefaultOptionCount = 3

// Session drives one run through a question bank:
// NotStarted -> InProgress(unanswered) <-> InProgress(answered) -> Finished.
// A Session is not safe for concurrent use; the service serializes access
// through its SessionRepository.
type Session struct {
	quiz        domain.Quiz
	rnd         Random
	now         func() time.Time
	optionCount int
	state       domain.SessionState
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithOptionCount sets the fallback option count for random-option quizzes.
func WithOptionCount(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.optionCount = n
		}
	}
}

// NewSession returns a session in the NotStarted phase.
func NewSession(quiz domain.Quiz, rnd Random, opts ...SessionOption) *Session {
	s := &Session{
		quiz:        quiz,
		rnd:         rnd,
		now:         time.Now,
		optionCount: DefaultOptionCount,
		state: domain.SessionState{
			QuizID:  quiz.Config.ID,
			Phase:   domain.PhaseNotStarted,
			Current: domain.NoQuestion,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RestoreSession resumes a session from persisted state.
func RestoreSession(quiz domain.Quiz, state domain.SessionState, rnd Random, opts ...SessionOption) *Session {
	s := NewSession(quiz, rnd, opts...)
	s.state = state.Clone()
	return s
}

// State returns a copy of the current state.
func (s *Session) State() domain.SessionState {
	return s.state.Clone()
}

// Start shuffles the whole bank into a fresh order and zeroes the score.
// Any previous progress is discarded. An empty bank leaves the state untouched.
func (s *Session) Start() error {
	n := len(s.quiz.Questions)
	if n == 0 {
		return fmt.Errorf("%w: quiz %q has no questions", domain.ErrConfiguration, s.quiz.Config.ID)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	shuffle(s.rnd, order)

	now := s.now()
	s.state = domain.SessionState{
		QuizID:         s.quiz.Config.ID,
		Phase:          domain.PhaseInProgress,
		TotalQuestions: n,
		Remaining:      order,
		Current:        domain.NoQuestion,
		StartedAt:      now,
		UpdatedAt:      now,
	}
	return nil
}

// Reset is Start under another name: a restart mid-session.
func (s *Session) Reset() error {
	return s.Start()
}

// Advance serves the next question in the order fixed at Start. When the
// order is exhausted the session moves to Finished and finished is true.
// Advancing a finished session keeps reporting finished.
func (s *Session) Advance() (view domain.QuestionView, finished bool, err error) {
	switch s.state.Phase {
	case domain.PhaseFinished:
		return domain.QuestionView{}, true, nil
	case domain.PhaseInProgress:
	default:
		return domain.QuestionView{}, false, domain.ErrNotStarted
	}

	if len(s.state.Remaining) == 0 {
		s.state.Phase = domain.PhaseFinished
		s.state.Current = domain.NoQuestion
		s.state.CurrentOptions = nil
		s.state.Answered = false
		s.state.LastResult = nil
		s.state.UpdatedAt = s.now()
		return domain.QuestionView{}, true, nil
	}

	idx := s.state.Remaining[0]
	if idx < 0 || idx >= len(s.quiz.Questions) {
		return domain.QuestionView{}, false, fmt.Errorf("%w: question index %d outside bank of %d",
			domain.ErrConfiguration, idx, len(s.quiz.Questions))
	}
	options, err := s.optionsFor(s.quiz.Questions[idx])
	if err != nil {
		return domain.QuestionView{}, false, err
	}

	s.state.Remaining = append([]int(nil), s.state.Remaining[1:]...)
	s.state.Current = idx
	s.state.CurrentOptions = options
	s.state.Answered = false
	s.state.LastResult = nil
	s.state.Served++
	s.state.UpdatedAt = s.now()

	view, _ = s.Current()
	return view, false, nil
}

// Current returns the question on display, if any.
func (s *Session) Current() (domain.QuestionView, bool) {
	q, err := s.currentRecord()
	if err != nil {
		return domain.QuestionView{}, false
	}
	return domain.QuestionView{
		ID:        q.ID,
		Question:  q.Question,
		Options:   append([]domain.Option(nil), s.state.CurrentOptions...),
		Number:    s.state.Served,
		Total:     s.state.TotalQuestions,
		Remaining: len(s.state.Remaining),
	}, true
}

// Submit checks candidate against the current question. Only the first
// submission per question changes the score; later ones replay the first
// verdict. With no question on display it returns ErrNoActiveQuestion.
func (s *Session) Submit(candidate string) (domain.CheckResult, error) {
	q, err := s.currentRecord()
	if err != nil {
		return domain.CheckResult{}, err
	}
	if s.state.Answered && s.state.LastResult != nil {
		replay := *s.state.LastResult
		replay.Replayed = true
		return replay, nil
	}

	result := domain.CheckResult{
		QuestionID:    q.ID,
		Answer:        candidate,
		Correct:       candidate == q.Correct,
		CorrectAnswer: q.Correct,
		Explanation:   q.Explanation,
	}

	s.state.Answered = true
	s.state.AnsweredCount++
	if result.Correct {
		s.state.CorrectCount++
	}
	s.state.LastResult = &result
	s.state.UpdatedAt = s.now()
	return result, nil
}

// SubmitFor is Submit guarded by the id of the question the client saw.
func (s *Session) SubmitFor(questionID domain.QuestionID, candidate string) (domain.CheckResult, error) {
	q, err := s.currentRecord()
	if err != nil {
		return domain.CheckResult{}, err
	}
	if q.ID != questionID {
		return domain.CheckResult{}, fmt.Errorf("%w: got %q, showing %q", domain.ErrQuestionMismatch, questionID, q.ID)
	}
	return s.Submit(candidate)
}

func (s *Session) currentRecord() (domain.QuestionRecord, error) {
	if !s.state.HasCurrent() {
		return domain.QuestionRecord{}, domain.ErrNoActiveQuestion
	}
	if s.state.Current < 0 || s.state.Current >= len(s.quiz.Questions) {
		return domain.QuestionRecord{}, fmt.Errorf("%w: question index %d outside bank of %d",
			domain.ErrConfiguration, s.state.Current, len(s.quiz.Questions))
	}
	return s.quiz.Questions[s.state.Current], nil
}

func (s *Session) optionsFor(q domain.QuestionRecord) ([]domain.Option, error) {
	cfg := s.quiz.Config
	if cfg.AnswerType.IsFixed() {
		return append([]domain.Option(nil), cfg.Options...), nil
	}
	pool := cfg.AllOptions
	if len(q.Options) > 0 {
		pool = q.Options
	}
	values, err := GenerateOptions(s.rnd, pool, q.Correct, cfg.OptionCountOr(s.optionCount))
	if err != nil {
		return nil, fmt.Errorf("question %q: %w", q.ID, err)
	}
	return domain.OptionsFromValues(values), nil
}
