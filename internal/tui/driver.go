package tui

import (
	"context"

	"mathtoys-quiz/internal/app"
	"mathtoys-quiz/internal/client"
	"mathtoys-quiz/internal/domain"
)

// Driver runs the quiz state machine behind the terminal UI, either in
// process or against a server.
type Driver interface {
	Title() string
	Start(ctx context.Context) (int, error)
	Next(ctx context.Context) (domain.NextResult, error)
	Check(ctx context.Context, questionID domain.QuestionID, answer string) (domain.CheckResult, domain.Progress, error)
}

// LocalDriver runs a standalone session on a loaded question bank.
type LocalDriver struct {
	config  domain.QuizConfig
	session *app.Session
}

func NewLocalDriver(quiz domain.Quiz, rnd app.Random, opts ...app.SessionOption) *LocalDriver {
	return &LocalDriver{config: quiz.Config, session: app.NewSession(quiz, rnd, opts...)}
}

func (d *LocalDriver) Title() string { return title(d.config) }

func (d *LocalDriver) Start(context.Context) (int, error) {
	if err := d.session.Start(); err != nil {
		return 0, err
	}
	return d.session.State().TotalQuestions, nil
}

func (d *LocalDriver) Next(context.Context) (domain.NextResult, error) {
	view, finished, err := d.session.Advance()
	if err != nil {
		return domain.NextResult{}, err
	}
	result := domain.NextResult{Finished: finished, Progress: app.ProgressOf(d.session.State())}
	if !finished {
		result.Question = &view
	}
	return result, nil
}

func (d *LocalDriver) Check(_ context.Context, questionID domain.QuestionID, answer string) (domain.CheckResult, domain.Progress, error) {
	res, err := d.session.SubmitFor(questionID, answer)
	if err != nil {
		return domain.CheckResult{}, domain.Progress{}, err
	}
	return res, app.ProgressOf(d.session.State()), nil
}

// RemoteDriver plays one quiz on a server.
type RemoteDriver struct {
	client *client.Client
	config domain.QuizConfig
}

func NewRemoteDriver(c *client.Client, config domain.QuizConfig) *RemoteDriver {
	return &RemoteDriver{client: c, config: config}
}

func (d *RemoteDriver) Title() string { return title(d.config) }

func (d *RemoteDriver) Start(ctx context.Context) (int, error) {
	return d.client.Start(ctx, d.config.ID)
}

func (d *RemoteDriver) Next(ctx context.Context) (domain.NextResult, error) {
	return d.client.Next(ctx, d.config.ID)
}

func (d *RemoteDriver) Check(ctx context.Context, questionID domain.QuestionID, answer string) (domain.CheckResult, domain.Progress, error) {
	return d.client.Check(ctx, d.config.ID, questionID, answer)
}

func title(cfg domain.QuizConfig) string {
	name := cfg.Name
	if name == "" {
		name = cfg.ID
	}
	if cfg.Emoji != "" {
		return cfg.Emoji + " " + name
	}
	return name
}
