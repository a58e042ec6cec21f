package domain

import "errors"

var (
	// ErrConfiguration is returned when a quiz or its question bank is missing or malformed.
	ErrConfiguration = errors.New("quiz configuration error")
	// ErrInsufficientOptions is returned when the distractor pool cannot fill the option set.
	ErrInsufficientOptions = errors.New("insufficient options")
	// ErrNoActiveQuestion is returned when an answer arrives with no question on display.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrQuestionMismatch indicates an answer for a question other than the current one.
	ErrQuestionMismatch = errors.New("answer does not match the current question")
	// ErrNotStarted is returned when a session is advanced before start.
	ErrNotStarted = errors.New("quiz session not started")
	// ErrSessionNotFound is returned when a quiz session has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidRequest indicates a malformed client request.
	ErrInvalidRequest = errors.New("invalid request")
)
