// Package catalog reads the standalone quiz data directory: a quiz_config.json
// catalog plus one question file (JSON or YAML) per quiz.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"mathtoys-quiz/internal/domain"
)

// ConfigFile is the catalog file name at the root of the data directory.
const ConfigFile = "quiz_config.json"

type configDocument struct {
	Quizzes []domain.QuizConfig `json:"quizzes"`
}

type questionsDocument struct {
	Questions []domain.QuestionRecord `json:"questions"`
}

// Catalog serves quizzes from a data directory. It satisfies memory.QuizLoader.
type Catalog struct {
	fsys    fs.FS
	configs []domain.QuizConfig
	byID    map[string]domain.QuizConfig
}

// Open reads and validates the catalog file. Question files are read lazily.
func Open(fsys fs.FS) (*Catalog, error) {
	raw, err := readDocument(fsys, ConfigFile, configSchema)
	if err != nil {
		return nil, err
	}
	var doc configDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrConfiguration, ConfigFile, err)
	}

	byID := make(map[string]domain.QuizConfig, len(doc.Quizzes))
	for _, cfg := range doc.Quizzes {
		if _, dup := byID[cfg.ID]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate quiz id %q", domain.ErrConfiguration, ConfigFile, cfg.ID)
		}
		byID[cfg.ID] = cfg
	}
	return &Catalog{fsys: fsys, configs: doc.Quizzes, byID: byID}, nil
}

// ListQuizzes returns the catalog entries in file order.
func (c *Catalog) ListQuizzes(_ context.Context) ([]domain.QuizConfig, error) {
	return append([]domain.QuizConfig(nil), c.configs...), nil
}

// LoadQuiz reads the question file of quizID.
func (c *Catalog) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	cfg, ok := c.byID[quizID]
	if !ok {
		return domain.Quiz{}, fmt.Errorf("%w: %q", domain.ErrQuizNotFound, quizID)
	}

	raw, err := readDocument(c.fsys, cfg.File, questionsSchema)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("quiz %q: %w", quizID, err)
	}
	var doc questionsDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: %s: %w", domain.ErrConfiguration, cfg.File, err)
	}
	return domain.Quiz{Config: cfg, Questions: doc.Questions}, nil
}

// Load reads every quiz in the catalog.
func Load(fsys fs.FS) ([]domain.Quiz, error) {
	c, err := Open(fsys)
	if err != nil {
		return nil, err
	}
	quizzes := make([]domain.Quiz, 0, len(c.configs))
	for _, cfg := range c.configs {
		quiz, err := c.LoadQuiz(context.Background(), cfg.ID)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

// readDocument decodes a JSON or YAML file, checks it against the named
// schema and returns it re-encoded as JSON.
func readDocument(fsys fs.FS, name, schema string) ([]byte, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrConfiguration, name, err)
	}

	var doc any
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrConfiguration, name, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("%w: %s is not JSON-compatible: %w", domain.ErrConfiguration, name, err)
		}
		doc = nil
		fallthrough
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrConfiguration, name, err)
		}
	}

	if err := validateDocument(schema, doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrConfiguration, name, err)
	}
	return data, nil
}

// Issue is one problem found by Validate.
type Issue struct {
	QuizID string
	File   string
	Err    error
}

func (i Issue) Error() string {
	if i.QuizID == "" {
		return fmt.Sprintf("%s: %v", i.File, i.Err)
	}
	return fmt.Sprintf("%s (%s): %v", i.QuizID, i.File, i.Err)
}

func (i Issue) Unwrap() error { return i.Err }

// Report summarises a data directory check.
type Report struct {
	Quizzes   int
	Questions int
	Issues    []Issue
}

func (r Report) OK() bool { return len(r.Issues) == 0 }

// Err joins all issues, or is nil for a clean report.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Issues))
	for i, issue := range r.Issues {
		errs[i] = issue
	}
	return errors.Join(errs...)
}

// Validate checks the catalog and every question file. optionCount is the
// fallback for random-option quizzes without option_count.
func Validate(fsys fs.FS, optionCount int) Report {
	var report Report
	c, err := Open(fsys)
	if err != nil {
		report.Issues = append(report.Issues, Issue{File: ConfigFile, Err: err})
		return report
	}

	for _, cfg := range c.configs {
		report.Quizzes++
		quiz, err := c.LoadQuiz(context.Background(), cfg.ID)
		if err == nil {
			report.Questions += len(quiz.Questions)
			err = quiz.Validate(optionCount)
		}
		if err != nil {
			report.Issues = append(report.Issues, Issue{QuizID: cfg.ID, File: cfg.File, Err: err})
		}
	}
	return report
}
