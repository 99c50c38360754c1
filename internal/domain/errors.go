package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizClosed is returned when a quiz is not accepting new attempts.
	ErrQuizClosed = errors.New("quiz closed")
	// ErrAlreadyAttempted is returned when a wallet already holds an attempt
	// for the quiz. The storage layer is the canonical source of this error.
	ErrAlreadyAttempted = errors.New("wallet already attempted quiz")
	// ErrSessionNotFound is returned when no active attempt matches the id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnauthorized is returned when the caller wallet does not own the attempt.
	ErrUnauthorized = errors.New("wallet does not own session")
	// ErrAlreadyAnswered is returned on a repeat submission for a question;
	// recorded answers are immutable.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrQuestionNotFound indicates a submitted question ID is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
)

// ErrorCode maps a domain error to its stable wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrQuizNotFound):
		return "QUIZ_NOT_FOUND"
	case errors.Is(err, ErrQuizClosed):
		return "QUIZ_CLOSED"
	case errors.Is(err, ErrAlreadyAttempted):
		return "ALREADY_ATTEMPTED"
	case errors.Is(err, ErrSessionNotFound):
		return "SESSION_NOT_FOUND"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrAlreadyAnswered):
		return "ALREADY_ANSWERED"
	case errors.Is(err, ErrQuestionNotFound):
		return "INVALID_QUESTION"
	default:
		return "INTERNAL"
	}
}
