package app

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"quiz-game-service/internal/domain"

	"github.com/google/uuid"
)

// Catalog resolves quiz and question content. The engine only ever reads it.
type Catalog interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// GameStore persists games and their append-only step log (in-memory, Redis,
// Postgres, etc). LatestStep returns (nil, nil) when the game has no steps.
type GameStore interface {
	CreateGame(ctx context.Context, game domain.Game) error
	GetGame(ctx context.Context, id string) (domain.Game, error)
	SaveGame(ctx context.Context, game domain.Game) error
	AppendStep(ctx context.Context, step domain.GameStep) error
	LatestStep(ctx context.Context, gameID string) (*domain.GameStep, error)
	MarkLatestStepHint(ctx context.Context, gameID string) error
	RecentGames(ctx context.Context, channel domain.ChannelRef, limit int) ([]domain.Game, error)
}

// GameService contains the play-session use cases: starting a game,
// rendering its current state, and processing answer submissions and hints.
type GameService struct {
	games   GameStore
	catalog Catalog
	now     func() time.Time

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewGameService(store GameStore, catalog Catalog) *GameService {
	return NewGameServiceWithClock(store, catalog, time.Now)
}

// NewGameServiceWithClock allows deterministic timestamps in tests.
func NewGameServiceWithClock(store GameStore, catalog Catalog, now func() time.Time) *GameService {
	return &GameService{
		games:   store,
		catalog: catalog,
		now:     now,
		locks:   make(map[string]*sync.Mutex),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateGame starts a new game from a published quiz. The question order is
// shuffled once here and never recomputed; hint availability is copied from
// the quiz toggles.
func (s *GameService) CreateGame(ctx context.Context, quizID string, channel domain.ChannelRef) (domain.Game, error) {
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			return domain.Game{}, domain.ErrQuizUnavailable
		}
		return domain.Game{}, err
	}
	if !quiz.Published || len(quiz.QuestionIDs) == 0 {
		return domain.Game{}, domain.ErrQuizUnavailable
	}

	row := append([]string(nil), quiz.QuestionIDs...)
	s.shuffleStrings(row)

	now := s.now()
	game := domain.Game{
		ID:                uuid.NewString(),
		QuizID:            quiz.ID,
		Channel:           channel,
		QuestionRow:       row,
		CurrentQuestionID: row[0],
		CorrectCount:      0,
		FiftyFiftyHint:    quiz.FiftyFiftyHint,
		CanSkip:           quiz.CanSkip,
		CreatedAt:         now,
		LastActivityAt:    now,
	}
	if err := s.games.CreateGame(ctx, game); err != nil {
		return domain.Game{}, err
	}
	return game, nil
}

// Render computes what the player should see right now. It is a pure read:
// the same game state and arguments yield the same view (minus the
// countdown). sortHint is the answer order the client displayed previously,
// so a retry after a wrong answer keeps positions stable; fiftyRequested
// applies the 50/50 view for a hint consumed on this same request.
func (s *GameService) Render(ctx context.Context, gameID string, sortHint []string, fiftyRequested bool) (domain.StateView, error) {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return domain.StateView{}, err
	}
	quiz, err := s.catalog.GetQuiz(ctx, game.QuizID)
	if err != nil {
		return domain.StateView{}, err
	}
	question, err := s.catalog.GetQuestion(ctx, game.CurrentQuestionID)
	if err != nil {
		if errors.Is(err, domain.ErrQuestionNotFound) {
			return domain.StateView{}, domain.ErrNoCurrentQuestion
		}
		return domain.StateView{}, err
	}
	step, err := s.games.LatestStep(ctx, game.ID)
	if err != nil {
		return domain.StateView{}, err
	}

	first := step == nil
	errState := domain.ErrorStateNone
	message := ""
	if !first {
		errState = errorState(step)
		message = completionMessage(game, step, errState)
	}

	correctID := correctAnswerID(question)
	answers := s.visibleAnswers(question, step, errState, sortHint, correctID, fiftyRequested)
	if errState == domain.ErrorStateNone {
		correctID = ""
	}

	seconds := s.secondsRemaining(quiz, game)
	if errState != domain.ErrorStateNone || message != "" {
		seconds = 0
	}

	return domain.StateView{
		FirstQuestion:    first,
		Error:            errState,
		Message:          message,
		CorrectAnswerID:  correctID,
		QuestionID:       question.ID,
		QuestionText:     question.Text,
		QuestionImage:    question.Image,
		Answers:          answers,
		QuestionsTotal:   len(game.QuestionRow),
		CorrectCount:     game.CorrectCount,
		SecondsRemaining: seconds,
		FiftyFiftyHint:   game.FiftyFiftyHint,
		CanSkip:          game.CanSkip,
	}, nil
}

// SubmitAnswer processes one submission for a game. Submissions for the
// same game are serialized so racing callers cannot both advance it.
func (s *GameService) SubmitAnswer(ctx context.Context, gameID string, sub domain.Submission) error {
	unlock := s.lockGame(gameID)
	defer unlock()

	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}

	if sub.Kind() == domain.SubmissionRevealHalf {
		return s.applyRevealHalf(ctx, &game)
	}

	quiz, err := s.catalog.GetQuiz(ctx, game.QuizID)
	if err != nil {
		return err
	}
	question, err := s.catalog.GetQuestion(ctx, game.CurrentQuestionID)
	if err != nil {
		if errors.Is(err, domain.ErrQuestionNotFound) {
			return domain.ErrNoCurrentQuestion
		}
		return err
	}

	now := s.now()
	step := domain.GameStep{
		ID:         uuid.NewString(),
		GameID:     game.ID,
		QuestionID: game.CurrentQuestionID,
		AnswerID:   sub.AnswerID(),
		TimedOut:   now.Sub(game.LastActivityAt) > time.Duration(quiz.TimerSeconds)*time.Second,
		Correct:    isCorrectAnswer(question, sub.AnswerID()),
		CanSkip:    sub.Kind() == domain.SubmissionSkip,
		CreatedAt:  now,
	}
	if err := s.games.AppendStep(ctx, step); err != nil {
		return err
	}

	if step.TimedOut {
		// Leave the game where it is; the next Render surfaces the timeout.
		return nil
	}
	if step.Correct || step.CanSkip {
		return s.advance(ctx, &game, step)
	}
	return nil
}

// RecentGames lists a channel's newest games for report-style consumers.
func (s *GameService) RecentGames(ctx context.Context, channel domain.ChannelRef, limit int) ([]domain.Game, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.games.RecentGames(ctx, channel, limit)
}

// applyRevealHalf consumes the one-shot 50/50 hint. If a step already
// exists its hint flag is persisted so later renders reconstruct the halved
// view; before the first step only the caller's in-call flag can show it.
func (s *GameService) applyRevealHalf(ctx context.Context, game *domain.Game) error {
	if !game.FiftyFiftyHint {
		return nil
	}
	game.FiftyFiftyHint = false
	game.LastActivityAt = s.now()
	if err := s.games.SaveGame(ctx, *game); err != nil {
		return err
	}
	return s.games.MarkLatestStepHint(ctx, game.ID)
}

// advance moves the game forward after a correct answer or a skip,
// crediting the answered question and refreshing the timer.
func (s *GameService) advance(ctx context.Context, game *domain.Game, step domain.GameStep) error {
	next, err := s.nextQuestion(ctx, game, step.QuestionID)
	if err != nil {
		return err
	}
	if next != "" {
		game.CurrentQuestionID = next
	}
	if step.CanSkip {
		game.CanSkip = false
	}
	game.CorrectCount++
	game.LastActivityAt = s.now()
	return s.games.SaveGame(ctx, *game)
}

// nextQuestion finds the next still-existing question after fromID in the
// stored order. Questions deleted from the catalog mid-game are skipped
// with a compensating point each. The walk is bounded by the row length.
func (s *GameService) nextQuestion(ctx context.Context, game *domain.Game, fromID string) (string, error) {
	idx := -1
	for i, id := range game.QuestionRow {
		if id == fromID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", nil
	}
	for i := idx + 1; i < len(game.QuestionRow); i++ {
		candidate := game.QuestionRow[i]
		if _, err := s.catalog.GetQuestion(ctx, candidate); err != nil {
			if errors.Is(err, domain.ErrQuestionNotFound) {
				game.CorrectCount++
				continue
			}
			return "", err
		}
		return candidate, nil
	}
	return "", nil
}

// visibleAnswers picks the answer list for the current attempt. The 50/50
// view wins over everything; a fresh question gets a shuffle; a retry after
// an error keeps the client's previous order.
func (s *GameService) visibleAnswers(question domain.Question, step *domain.GameStep, errState string, sortHint []string, correctID string, fiftyRequested bool) []domain.AnswerView {
	shuffled := append([]domain.Answer(nil), question.Answers...)
	s.shuffleAnswers(shuffled)

	if (step != nil && step.FiftyFiftyHint) || fiftyRequested {
		return revealHalf(shuffled, correctID)
	}
	if errState == domain.ErrorStateNone {
		return answerViews(shuffled)
	}
	return sortBySortHint(shuffled, sortHint)
}

// revealHalf keeps the correct answer plus ceil(n/2)-1 incorrect ones in
// their relative order, so a 4-answer question comes back as a true 50/50.
func revealHalf(answers []domain.Answer, correctID string) []domain.AnswerView {
	keep := (len(answers)+1)/2 - 1
	result := make([]domain.AnswerView, 0, keep+1)
	for _, a := range answers {
		if a.ID == correctID {
			result = append(result, answerView(a))
			break
		}
	}
	for _, a := range answers {
		if keep == 0 {
			break
		}
		if a.ID != correctID {
			result = append(result, answerView(a))
			keep--
		}
	}
	return result
}

// sortBySortHint re-projects the answers into the order the client showed
// them before; ids the client never saw go last. An empty hint falls back
// to the shuffled order.
func sortBySortHint(answers []domain.Answer, sortHint []string) []domain.AnswerView {
	if len(sortHint) == 0 {
		return answerViews(answers)
	}
	result := make([]domain.AnswerView, 0, len(answers))
	seen := make(map[string]bool, len(sortHint))
	for _, id := range sortHint {
		for _, a := range answers {
			if a.ID == id {
				result = append(result, answerView(a))
				seen[id] = true
				break
			}
		}
	}
	for _, a := range answers {
		if !seen[a.ID] {
			result = append(result, answerView(a))
		}
	}
	return result
}

func errorState(step *domain.GameStep) string {
	switch {
	case step.TimedOut:
		return domain.ErrorStateTimedOut
	case !step.Correct && !step.CanSkip:
		return domain.ErrorStateWrongAnswer
	default:
		return domain.ErrorStateNone
	}
}

// completionMessage fires when the last recorded attempt was against the
// question still marked current: progression had nowhere left to go.
func completionMessage(game domain.Game, step *domain.GameStep, errState string) string {
	if errState == domain.ErrorStateNone && game.CurrentQuestionID == step.QuestionID {
		return domain.CompletionMessage
	}
	return ""
}

func (s *GameService) secondsRemaining(quiz domain.Quiz, game domain.Game) int {
	elapsed := s.now().Sub(game.LastActivityAt).Seconds()
	remaining := int(math.Ceil(float64(quiz.TimerSeconds) - elapsed))
	if remaining < 0 {
		return 0
	}
	return remaining
}

func isCorrectAnswer(question domain.Question, answerID string) bool {
	if answerID == "" {
		return false
	}
	for _, a := range question.Answers {
		if a.ID == answerID && a.Correct {
			return true
		}
	}
	return false
}

func correctAnswerID(question domain.Question) string {
	for _, a := range question.Answers {
		if a.Correct {
			return a.ID
		}
	}
	return ""
}

func answerView(a domain.Answer) domain.AnswerView {
	return domain.AnswerView{ID: a.ID, Text: a.Text, Image: a.Image}
}

func answerViews(answers []domain.Answer) []domain.AnswerView {
	views := make([]domain.AnswerView, 0, len(answers))
	for _, a := range answers {
		views = append(views, answerView(a))
	}
	return views
}

// lockGame serializes mutations per game id. Render stays unsynchronized.
func (s *GameService) lockGame(id string) func() {
	s.lockMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.lockMu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *GameService) shuffleStrings(items []string) {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	s.rnd.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

func (s *GameService) shuffleAnswers(items []domain.Answer) {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	s.rnd.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
