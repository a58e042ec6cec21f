// Package tui is a terminal front end for quizzes built on Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"mathtoys-quiz/internal/app"
	"mathtoys-quiz/internal/domain"
)

type screen int

const (
	screenStart screen = iota
	screenQuestion
	screenFinish
)

// Model is the root Bubble Tea model. While a request is in flight (busy)
// every key except quit is ignored.
type Model struct {
	driver   Driver
	ctx      context.Context
	screen   screen
	busy     bool
	err      error
	total    int
	question *domain.QuestionView
	cursor   int
	result   *domain.CheckResult
	progress domain.Progress
	width    int
}

func New(driver Driver) Model {
	return Model{driver: driver, ctx: context.Background()}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		return m.handleKey(msg.String())

	case startedMsg:
		if msg.Err != nil {
			m.busy = false
			m.err = msg.Err
			return m, nil
		}
		m.total = msg.Total
		m.screen = screenQuestion
		m.question = nil
		m.result = nil
		m.progress = domain.Progress{Total: msg.Total, Phase: domain.PhaseInProgress}
		cmd := m.nextCmd()
		return m, cmd

	case nextMsg:
		m.busy = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.progress = msg.Result.Progress
		if msg.Result.Finished {
			m.screen = screenFinish
			m.question = nil
			m.result = nil
			return m, nil
		}
		m.question = msg.Result.Question
		m.result = nil
		m.cursor = 0
		return m, nil

	case checkedMsg:
		m.busy = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		result := msg.Result
		m.result = &result
		m.progress = msg.Progress
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "q" || key == "esc" {
		return m, tea.Quit
	}

	switch m.screen {
	case screenStart, screenFinish:
		if key == "enter" || key == "s" || key == "r" {
			cmd := m.startCmd()
			return m, cmd
		}
	case screenQuestion:
		if m.question == nil {
			return m, nil
		}
		if m.result != nil {
			if key == "enter" || key == "n" {
				cmd := m.nextCmd()
				return m, cmd
			}
			return m, nil
		}
		n := len(m.question.Options)
		switch key {
		case "up", "k":
			if n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
			}
		case "down", "j", "tab":
			if n > 0 {
				m.cursor = (m.cursor + 1) % n
			}
		case "enter", "space":
			return m.submit()
		case "n":
			// Skipping leaves the question unanswered.
			cmd := m.nextCmd()
			return m, cmd
		default:
			if i, err := strconv.Atoi(key); err == nil && i >= 1 && i <= n {
				m.cursor = i - 1
				return m.submit()
			}
		}
	}
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.question == nil || len(m.question.Options) == 0 {
		return m, nil
	}
	cmd := m.checkCmd(m.question.ID, m.question.Options[m.cursor].Value)
	return m, cmd
}

// The command builders mark the model busy; call them before returning m.

func (m *Model) startCmd() tea.Cmd {
	m.busy = true
	m.err = nil
	driver, ctx := m.driver, m.ctx
	return func() tea.Msg {
		total, err := driver.Start(ctx)
		return startedMsg{Total: total, Err: err}
	}
}

func (m *Model) nextCmd() tea.Cmd {
	m.busy = true
	driver, ctx := m.driver, m.ctx
	return func() tea.Msg {
		result, err := driver.Next(ctx)
		return nextMsg{Result: result, Err: err}
	}
}

func (m *Model) checkCmd(id domain.QuestionID, answer string) tea.Cmd {
	m.busy = true
	driver, ctx := m.driver, m.ctx
	return func() tea.Msg {
		result, progress, err := driver.Check(ctx, id, answer)
		return checkedMsg{Result: result, Progress: progress, Err: err}
	}
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.SetContent(m.render())
	return v
}

func (m Model) render() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.driver.Title()))
	b.WriteString("\n\n")

	switch m.screen {
	case screenStart:
		b.WriteString(bodyStyle.Render("Press Enter to start."))
	case screenQuestion:
		b.WriteString(m.renderQuestion())
	case screenFinish:
		b.WriteString(m.renderSummary())
	}

	if m.busy {
		b.WriteString("\n\n" + hintStyle.Render("Loading..."))
	}
	if m.err != nil {
		b.WriteString("\n\n" + errorStyle.Render("Error: "+m.err.Error()))
	}
	b.WriteString("\n\n" + hintStyle.Render(m.hints()))
	return b.String()
}

func (m Model) renderQuestion() string {
	q := m.question
	if q == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Question %d of %d   Score %d/%d",
		q.Number, q.Total, m.progress.Correct, m.progress.Answered)))
	b.WriteString("\n\n")
	b.WriteString(bodyStyle.Render(q.Question))
	b.WriteString("\n\n")

	for i, opt := range q.Options {
		line := fmt.Sprintf("%d. %s", i+1, opt.Label)
		switch {
		case m.result != nil && opt.Value == m.result.CorrectAnswer:
			line = correctStyle.Render("  " + line)
		case m.result != nil && opt.Value == m.result.Answer:
			line = wrongStyle.Render("  " + line)
		case m.result == nil && i == m.cursor:
			line = selectedStyle.Render("> " + line)
		default:
			line = bodyStyle.Render("  " + line)
		}
		b.WriteString(line + "\n")
	}

	if r := m.result; r != nil {
		verdict := correctStyle.Render("Correct!")
		if !r.Correct {
			verdict = wrongStyle.Render("Wrong. The answer is " + r.CorrectAnswer + ".")
		}
		feedback := verdict
		if r.Explanation != "" {
			feedback += "\n" + bodyStyle.Render(r.Explanation)
		}
		b.WriteString("\n" + cardStyle.Render(feedback))
	}
	return b.String()
}

func (m Model) renderSummary() string {
	p := m.progress
	tier := map[string]string{
		app.TierExcellent: "Excellent work!",
		app.TierGood:      "Good job.",
		app.TierNeedsWork: "Keep practising.",
	}[p.Tier]
	summary := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Quiz complete"),
		"",
		bodyStyle.Render(fmt.Sprintf("Correct: %d of %d answered (%d questions)", p.Correct, p.Answered, p.Total)),
		bodyStyle.Render(fmt.Sprintf("Score: %d%%", p.ScorePercent)),
		"",
		bodyStyle.Render(tier),
	)
	return cardStyle.Render(summary)
}

func (m Model) hints() string {
	switch {
	case m.screen == screenQuestion && m.result == nil:
		return "↑↓ choose · 1-9/Enter answer · n skip · q quit"
	case m.screen == screenQuestion:
		return "Enter next · q quit"
	case m.screen == screenFinish:
		return "r restart · q quit"
	default:
		return "Enter start · q quit"
	}
}

// Run starts the Bubble Tea program.
func Run(driver Driver) error {
	_, err := tea.NewProgram(New(driver)).Run()
	return err
}
