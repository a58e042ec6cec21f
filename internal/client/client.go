// Package client talks to the server-backed quiz API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"mathtoys-quiz/internal/domain"
)

// Client keeps the session cookie between calls, so one Client is one player.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying client. A cookie jar is added when
// the given client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for baseURL. Calls block until the server answers or
// the transport fails; cancellation is left to the caller's context.
func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *Client) Catalog(ctx context.Context) ([]domain.QuizConfig, error) {
	var out struct {
		envelope
		Quizzes []domain.QuizConfig `json:"quizzes"`
	}
	if err := c.do(ctx, "catalog", http.MethodGet, "/api/quizzes", nil, &out, &out.envelope); err != nil {
		return nil, err
	}
	return out.Quizzes, nil
}

// Start begins a fresh run and returns the number of questions.
func (c *Client) Start(ctx context.Context, quizID string) (int, error) {
	var out struct {
		envelope
		TotalQuestions int `json:"total_questions"`
	}
	if err := c.do(ctx, "start", http.MethodPost, quizPath(quizID, "start"), nil, &out, &out.envelope); err != nil {
		return 0, err
	}
	return out.TotalQuestions, nil
}

func (c *Client) Next(ctx context.Context, quizID string) (domain.NextResult, error) {
	var out struct {
		envelope
		Finished bool `json:"finished"`
		Question *struct {
			ID       domain.QuestionID `json:"id"`
			Question string            `json:"question"`
			Options  []domain.Option   `json:"options"`
			Number   int               `json:"number"`
			Total    int               `json:"total"`
		} `json:"question"`
		Remaining int             `json:"remaining"`
		Progress  domain.Progress `json:"progress"`
	}
	if err := c.do(ctx, "next", http.MethodGet, quizPath(quizID, "next"), nil, &out, &out.envelope); err != nil {
		return domain.NextResult{}, err
	}

	result := domain.NextResult{Finished: out.Finished, Progress: out.Progress}
	if !out.Finished && out.Question != nil {
		result.Question = &domain.QuestionView{
			ID:        out.Question.ID,
			Question:  out.Question.Question,
			Options:   out.Question.Options,
			Number:    out.Question.Number,
			Total:     out.Question.Total,
			Remaining: out.Remaining,
		}
	}
	return result, nil
}

func (c *Client) Check(ctx context.Context, quizID string, questionID domain.QuestionID, answer string) (domain.CheckResult, domain.Progress, error) {
	body := map[string]any{"question_id": questionID, "answer": answer}
	var out struct {
		envelope
		Correct       bool            `json:"correct"`
		CorrectAnswer string          `json:"correct_answer"`
		Explanation   string          `json:"explanation"`
		Replayed      bool            `json:"replayed"`
		Progress      domain.Progress `json:"progress"`
	}
	if err := c.do(ctx, "check", http.MethodPost, quizPath(quizID, "check"), body, &out, &out.envelope); err != nil {
		return domain.CheckResult{}, domain.Progress{}, err
	}
	return domain.CheckResult{
		QuestionID:    questionID,
		Answer:        answer,
		Correct:       out.Correct,
		CorrectAnswer: out.CorrectAnswer,
		Explanation:   out.Explanation,
		Replayed:      out.Replayed,
	}, out.Progress, nil
}

func (c *Client) Progress(ctx context.Context, quizID string) (domain.Progress, error) {
	var out struct {
		envelope
		Progress domain.Progress `json:"progress"`
	}
	if err := c.do(ctx, "progress", http.MethodGet, quizPath(quizID, "progress"), nil, &out, &out.envelope); err != nil {
		return domain.Progress{}, err
	}
	return out.Progress, nil
}

func quizPath(quizID, action string) string {
	return "/api/quiz/" + url.PathEscape(quizID) + "/" + action
}

// do performs one round-trip. env must point into out so the success flag
// and error message can be checked after decoding.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any, env *envelope) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &NetworkError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(raw)),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}
