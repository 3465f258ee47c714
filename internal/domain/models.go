package domain

import "time"

// Answer is one selectable option for a question.
type Answer struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Image   string `json:"image,omitempty"`
	Correct bool   `json:"correct"`
}

// Question models a quiz question with its full answer set.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Image   string   `json:"image,omitempty"`
	Answers []Answer `json:"answers"`
}

// Quiz is the catalog definition a game is created from. QuestionIDs is the
// unshuffled membership; the per-game order lives on the Game itself.
type Quiz struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Published      bool     `json:"published"`
	TimerSeconds   int      `json:"timerSeconds"`
	FiftyFiftyHint bool     `json:"fiftyFiftyHint"`
	CanSkip        bool     `json:"canSkip"`
	QuestionIDs    []string `json:"questionIds"`
}

// ChannelRef identifies which transport owns a game. Both fields are
// opaque correlation ids; the engine never interprets them.
type ChannelRef struct {
	UserID string `json:"userId,omitempty"`
	ChatID string `json:"chatId,omitempty"`
}

// Game is one player's run through a shuffled question sequence.
// QuestionRow is fixed at creation; CurrentQuestionID points into it.
// LastActivityAt drives timeout detection and is refreshed on every
// successful progression.
type Game struct {
	ID                string     `json:"id"`
	QuizID            string     `json:"quizId"`
	Channel           ChannelRef `json:"channel"`
	QuestionRow       []string   `json:"questionRow"`
	CurrentQuestionID string     `json:"currentQuestionId"`
	CorrectCount      int        `json:"correctCount"`
	FiftyFiftyHint    bool       `json:"fiftyFiftyHint"`
	CanSkip           bool       `json:"canSkip"`
	CreatedAt         time.Time  `json:"createdAt"`
	LastActivityAt    time.Time  `json:"lastActivityAt"`
}

// GameStep is the immutable record of one answer attempt. AnswerID is empty
// when no answer was chosen (timed-out submit, skip without a pick).
type GameStep struct {
	ID             string    `json:"id"`
	GameID         string    `json:"gameId"`
	QuestionID     string    `json:"questionId"`
	AnswerID       string    `json:"answerId,omitempty"`
	TimedOut       bool      `json:"timedOut"`
	Correct        bool      `json:"correct"`
	FiftyFiftyHint bool      `json:"fiftyFiftyHint"`
	CanSkip        bool      `json:"canSkip"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Outward-visible error states surfaced by StateView. These are results,
// not Go errors.
const (
	ErrorStateNone        = ""
	ErrorStateTimedOut    = "TimedOut"
	ErrorStateWrongAnswer = "WrongAnswer"
)

// CompletionMessage is returned once the last question has been answered.
const CompletionMessage = "Congratulations! You answered all questions!"

// AnswerView is an answer with its correctness withheld.
type AnswerView struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// StateView is everything a channel needs to render the game's current
// state. CorrectAnswerID is populated only after a wrong attempt or
// timeout.
type StateView struct {
	FirstQuestion    bool         `json:"firstQuestion"`
	Error            string       `json:"error"`
	Message          string       `json:"message"`
	CorrectAnswerID  string       `json:"correctAnswerId,omitempty"`
	QuestionID       string       `json:"questionId"`
	QuestionText     string       `json:"questionText"`
	QuestionImage    string       `json:"questionImage,omitempty"`
	Answers          []AnswerView `json:"answers"`
	QuestionsTotal   int          `json:"questionsTotal"`
	CorrectCount     int          `json:"correctCount"`
	SecondsRemaining int          `json:"secondsRemaining"`
	FiftyFiftyHint   bool         `json:"fiftyFiftyHint"`
	CanSkip          bool         `json:"canSkip"`
}
