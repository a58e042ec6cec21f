package app

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"mathtoys-quiz/internal/domain"
	"mathtoys-quiz/internal/logger"
)

// SessionRepository abstracts where session state lives (in-memory, Redis, etc).
// Update must apply fn atomically: if fn returns an error nothing is stored.
type SessionRepository interface {
	Get(ctx context.Context, key string) (domain.SessionState, error)
	Save(ctx context.Context, key string, state domain.SessionState) error
	Update(ctx context.Context, key string, fn func(*domain.SessionState) error) (domain.SessionState, error)
	Delete(ctx context.Context, key string) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.QuizConfig, error)
}

// ResultRecorder stores the outcome of finished sessions.
type ResultRecorder interface {
	Record(ctx context.Context, result domain.Result) error
}

// ResultReader is implemented by recorders that can list past results.
type ResultReader interface {
	Recent(ctx context.Context, quizID string, limit int) ([]domain.Result, error)
}

// QuizService contains the server-backed quiz use cases. Each caller session
// owns one SessionState per quiz.
type QuizService struct {
	sessions    SessionRepository
	quizzes     QuizRepository
	results     ResultRecorder
	hub         *Broadcaster
	rnd         Random
	now         func() time.Time
	optionCount int
}

// ServiceOption customizes a QuizService.
type ServiceOption func(*QuizService)

func WithResultRecorder(r ResultRecorder) ServiceOption {
	return func(s *QuizService) { s.results = r }
}

func WithRandom(rnd Random) ServiceOption {
	return func(s *QuizService) { s.rnd = rnd }
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *QuizService) { s.now = now }
}

// WithDefaultOptionCount sets the option count for random quizzes without their own.
func WithDefaultOptionCount(n int) ServiceOption {
	return func(s *QuizService) {
		if n > 0 {
			s.optionCount = n
		}
	}
}

func NewQuizService(store SessionRepository, quizzes QuizRepository, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		sessions:    store,
		quizzes:     quizzes,
		hub:         NewBroadcaster(),
		rnd:         NewRandom(0),
		now:         time.Now,
		optionCount: DefaultOptionCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionKey scopes a quiz run to the caller's session.
func SessionKey(sessionID, quizID string) string {
	return sessionID + ":" + quizID
}

// Catalog lists the available quizzes.
func (s *QuizService) Catalog(ctx context.Context) ([]domain.QuizConfig, error) {
	return s.quizzes.ListQuizzes(ctx)
}

// Start shuffles a fresh order for the caller and discards any earlier run.
func (s *QuizService) Start(ctx context.Context, sessionID, quizID string) (int, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return 0, err
	}

	session := s.newSession(quiz, domain.SessionState{})
	if err := session.Start(); err != nil {
		return 0, err
	}
	state := session.State()

	key := SessionKey(sessionID, quizID)
	if err := s.sessions.Save(ctx, key, state); err != nil {
		return 0, err
	}
	logger.Get().Debug("quiz session started",
		zap.String("quiz_id", quizID),
		zap.Int("total_questions", state.TotalQuestions),
	)
	s.hub.Publish(key, ProgressOf(state))
	return state.TotalQuestions, nil
}

// Next advances the caller's session. On the transition to Finished the
// result is recorded once.
func (s *QuizService) Next(ctx context.Context, sessionID, quizID string) (domain.NextResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.NextResult{}, err
	}

	var (
		view         domain.QuestionView
		finished     bool
		justFinished bool
	)
	key := SessionKey(sessionID, quizID)
	state, err := s.sessions.Update(ctx, key, func(st *domain.SessionState) error {
		session := s.newSession(quiz, *st)
		wasFinished := st.Phase == domain.PhaseFinished
		v, done, err := session.Advance()
		if err != nil {
			return err
		}
		*st = session.State()
		view, finished = v, done
		justFinished = done && !wasFinished
		return nil
	})
	if err != nil {
		return domain.NextResult{}, err
	}

	progress := ProgressOf(state)
	if justFinished {
		s.record(ctx, sessionID, state)
	}
	s.hub.Publish(key, progress)

	result := domain.NextResult{Finished: finished, Progress: progress}
	if !finished {
		result.Question = &view
	}
	return result, nil
}

// Current returns the question on display without advancing.
func (s *QuizService) Current(ctx context.Context, sessionID, quizID string) (domain.QuestionView, bool, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuestionView{}, false, err
	}
	state, err := s.sessions.Get(ctx, SessionKey(sessionID, quizID))
	if err != nil {
		return domain.QuestionView{}, false, err
	}
	view, ok := s.newSession(quiz, state).Current()
	return view, ok, nil
}

// Check submits an answer for the question on display. Resubmissions replay
// the first verdict without touching the score.
func (s *QuizService) Check(ctx context.Context, sessionID, quizID string, questionID domain.QuestionID, answer string) (domain.CheckResult, domain.Progress, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.CheckResult{}, domain.Progress{}, err
	}

	var result domain.CheckResult
	key := SessionKey(sessionID, quizID)
	state, err := s.sessions.Update(ctx, key, func(st *domain.SessionState) error {
		session := s.newSession(quiz, *st)
		r, err := session.SubmitFor(questionID, answer)
		if err != nil {
			return err
		}
		*st = session.State()
		result = r
		return nil
	})
	if err != nil {
		return domain.CheckResult{}, domain.Progress{}, err
	}

	progress := ProgressOf(state)
	if !result.Replayed {
		s.hub.Publish(key, progress)
	}
	return result, progress, nil
}

// Progress returns the derived score and progress for the caller's session.
func (s *QuizService) Progress(ctx context.Context, sessionID, quizID string) (domain.Progress, error) {
	state, err := s.sessions.Get(ctx, SessionKey(sessionID, quizID))
	if err != nil {
		return domain.Progress{}, err
	}
	return ProgressOf(state), nil
}

// Subscribe returns a channel that receives progress updates for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context, sessionID, quizID string) (<-chan domain.Progress, func(), error) {
	progress, err := s.Progress(ctx, sessionID, quizID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.Subscribe(SessionKey(sessionID, quizID), progress)
	return ch, cancel, nil
}

// Results lists recent finished runs of a quiz. It returns an empty list when
// the configured recorder cannot be read back.
func (s *QuizService) Results(ctx context.Context, quizID string, limit int) ([]domain.Result, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	reader, ok := s.results.(ResultReader)
	if !ok {
		return []domain.Result{}, nil
	}
	results, err := reader.Recent(ctx, quizID, limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.Result{}
	}
	return results, nil
}

func (s *QuizService) newSession(quiz domain.Quiz, state domain.SessionState) *Session {
	opts := []SessionOption{WithClock(s.now), WithOptionCount(s.optionCount)}
	if state.Phase == "" {
		return NewSession(quiz, s.rnd, opts...)
	}
	return RestoreSession(quiz, state, s.rnd, opts...)
}

func (s *QuizService) record(ctx context.Context, sessionID string, state domain.SessionState) {
	if s.results == nil {
		return
	}
	result := domain.Result{
		ID:           ulid.Make().String(),
		SessionID:    sessionID,
		QuizID:       state.QuizID,
		Total:        state.TotalQuestions,
		Answered:     state.AnsweredCount,
		Correct:      state.CorrectCount,
		ScorePercent: ScorePercent(state.CorrectCount, state.AnsweredCount),
		StartedAt:    state.StartedAt,
		FinishedAt:   state.UpdatedAt,
	}
	if err := s.results.Record(ctx, result); err != nil {
		logger.Get().Warn("failed to record quiz result",
			zap.String("quiz_id", state.QuizID),
			zap.Error(err),
		)
	}
}
