package domain

import "errors"

var (
	// ErrQuizUnavailable is returned when a game is started from a quiz
	// that is missing, unpublished, or has no questions.
	ErrQuizUnavailable = errors.New("quiz unavailable")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question id no longer exists in the
	// catalog (content deleted mid-game).
	ErrQuestionNotFound = errors.New("question not found")
	// ErrGameNotFound is returned when a game id is unknown.
	ErrGameNotFound = errors.New("game not found")
	// ErrNoCurrentQuestion indicates a game whose current question cannot
	// be resolved at all; it should not occur while mutations are serialized.
	ErrNoCurrentQuestion = errors.New("game has no current question")
)
