package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// AnswerType decides where the displayed options of a question come from.
type AnswerType string

const (
	AnswerFixedTwo   AnswerType = "fixed_two_option"
	AnswerFixedThree AnswerType = "fixed_three_option"
	AnswerFixedFour  AnswerType = "fixed_four_option"
	AnswerRandom     AnswerType = "per_question_random_options"
)

// answerTypeAliases maps the names used by the published quiz data files.
var answerTypeAliases = map[string]AnswerType{
	"multiple_choice_2":      AnswerFixedTwo,
	"multiple_choice_3":      AnswerFixedThree,
	"multiple_choice_4":      AnswerFixedFour,
	"multiple_choice_random": AnswerRandom,
}

func (t *AnswerType) UnmarshalText(text []byte) error {
	raw := string(text)
	switch AnswerType(raw) {
	case AnswerFixedTwo, AnswerFixedThree, AnswerFixedFour, AnswerRandom:
		*t = AnswerType(raw)
		return nil
	}
	if alias, ok := answerTypeAliases[raw]; ok {
		*t = alias
		return nil
	}
	return fmt.Errorf("%w: unknown answer type %q", ErrConfiguration, raw)
}

// FixedOptionCount returns the size of the shared option list, or 0 for
// per-question random options.
func (t AnswerType) FixedOptionCount() int {
	switch t {
	case AnswerFixedTwo:
		return 2
	case AnswerFixedThree:
		return 3
	case AnswerFixedFour:
		return 4
	}
	return 0
}

func (t AnswerType) IsFixed() bool { return t.FixedOptionCount() > 0 }

// Option is a candidate answer. Value is what gets compared on submit.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// UnmarshalJSON accepts either a bare string or a {value, label} object.
func (o *Option) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*o = Option{Value: s, Label: s}
		return nil
	}
	type plain Option
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.Label == "" {
		p.Label = p.Value
	}
	*o = Option(p)
	return nil
}

// OptionsFromValues labels each value with itself.
func OptionsFromValues(values []string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: v}
	}
	return out
}

// QuestionID is unique within a bank. Data files use numbers or strings.
type QuestionID string

func (id *QuestionID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: question id must be a string or number", ErrInvalidRequest)
	}
	*id = QuestionID(n.String())
	return nil
}

// QuestionRecord is one entry of a question bank. Immutable once loaded.
type QuestionRecord struct {
	ID          QuestionID `json:"id"`
	Question    string     `json:"question"`
	Correct     string     `json:"correct"`
	Explanation string     `json:"explanation"`
	Options     []string   `json:"options,omitempty"`
}

// QuizConfig describes a quiz in the catalog.
type QuizConfig struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Emoji       string     `json:"emoji,omitempty"`
	File        string     `json:"file,omitempty"`
	AnswerType  AnswerType `json:"answer_type"`
	Options     []Option   `json:"options,omitempty"`
	AllOptions  []string   `json:"all_options,omitempty"`
	OptionCount int        `json:"option_count,omitempty"`
}

// OptionCountOr returns the number of options shown per question, using
// fallback for random quizzes that do not set their own count.
func (c QuizConfig) OptionCountOr(fallback int) int {
	if n := c.AnswerType.FixedOptionCount(); n > 0 {
		return n
	}
	if c.OptionCount > 0 {
		return c.OptionCount
	}
	return fallback
}

// Quiz is a loaded question bank together with its configuration.
type Quiz struct {
	Config    QuizConfig       `json:"config"`
	Questions []QuestionRecord `json:"questions"`
}

// Phase is the coarse state of a quiz session.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
)

// NoQuestion marks SessionState.Current when nothing is displayed.
const NoQuestion = -1

// SessionState is the persisted state of one run through a quiz.
type SessionState struct {
	QuizID         string       `json:"quiz_id"`
	Phase          Phase        `json:"phase"`
	TotalQuestions int          `json:"total_questions"`
	Remaining      []int        `json:"remaining"`
	Current        int          `json:"current"`
	CurrentOptions []Option     `json:"current_options,omitempty"`
	Answered       bool         `json:"answered"`
	LastResult     *CheckResult `json:"last_result,omitempty"`
	Served         int          `json:"served"`
	CorrectCount   int          `json:"correct_count"`
	AnsweredCount  int          `json:"answered_count"`
	StartedAt      time.Time    `json:"started_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// HasCurrent reports whether a question is on display.
func (s SessionState) HasCurrent() bool { return s.Current != NoQuestion && s.Phase == PhaseInProgress }

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (s SessionState) Clone() SessionState {
	out := s
	if s.Remaining != nil {
		out.Remaining = append([]int(nil), s.Remaining...)
	}
	if s.CurrentOptions != nil {
		out.CurrentOptions = append([]Option(nil), s.CurrentOptions...)
	}
	if s.LastResult != nil {
		r := *s.LastResult
		out.LastResult = &r
	}
	return out
}

// QuestionView is what a client may see of the current question. It never
// carries the correct answer.
type QuestionView struct {
	ID        QuestionID `json:"id"`
	Question  string     `json:"question"`
	Options   []Option   `json:"options,omitempty"`
	Number    int        `json:"number"`
	Total     int        `json:"total"`
	// Remaining counts questions still to be served after this one, so it
	// is 0 on the last question.
	Remaining int        `json:"remaining"`
}

// CheckResult is the verdict for a submitted answer.
type CheckResult struct {
	QuestionID    QuestionID `json:"question_id"`
	Answer        string     `json:"answer"`
	Correct       bool       `json:"correct"`
	CorrectAnswer string     `json:"correct_answer"`
	Explanation   string     `json:"explanation"`
	Replayed      bool       `json:"replayed,omitempty"`
}

// Progress is the read-side summary derived from SessionState.
type Progress struct {
	QuizID           string  `json:"quiz_id"`
	Phase            Phase   `json:"phase"`
	Number           int     `json:"number"`
	Total            int     `json:"total"`
	Answered         int     `json:"answered"`
	Correct          int     `json:"correct"`
	ProgressFraction float64 `json:"progress_fraction"`
	ScorePercent     int     `json:"score_percent"`
	Tier             string  `json:"tier"`
}

// NextResult is returned when advancing a session.
type NextResult struct {
	Finished bool          `json:"finished"`
	Question *QuestionView `json:"question,omitempty"`
	Progress Progress      `json:"progress"`
}

// Result records a finished session.
type Result struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	QuizID       string    `json:"quiz_id"`
	Total        int       `json:"total"`
	Answered     int       `json:"answered"`
	Correct      int       `json:"correct"`
	ScorePercent int       `json:"score_percent"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}
