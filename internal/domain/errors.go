package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz is returned when quiz content violates its invariants.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrInvalidTransition is returned when an event is not permitted in the current phase.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrSessionNotFound is returned when a session id is unknown or already finished.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrMissingEmail is returned by login when no email was given.
	ErrMissingEmail = errors.New("email is required")
	// ErrUnknownRole is returned by login for roles other than student and teacher.
	ErrUnknownRole = errors.New("unknown role")
)
