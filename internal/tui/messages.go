package tui

import "mathtoys-quiz/internal/domain"

// startedMsg is sent when a run has been (re)started.
type startedMsg struct {
	Total int
	Err   error
}

// nextMsg carries the next question or the finished signal.
type nextMsg struct {
	Result domain.NextResult
	Err    error
}

// checkedMsg carries the verdict for a submitted answer.
type checkedMsg struct {
	Result   domain.CheckResult
	Progress domain.Progress
	Err      error
}
