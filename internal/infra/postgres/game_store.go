package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quiz-game-service/internal/domain"

	"github.com/uptrace/bun"
)

type gameRow struct {
	bun.BaseModel `bun:"table:games"`

	ID                string    `bun:"id,pk"`
	QuizID            string    `bun:"quiz_id,notnull"`
	UserID            string    `bun:"user_id"`
	ChatID            string    `bun:"chat_id"`
	QuestionRow       []string  `bun:"question_row,type:jsonb"`
	CurrentQuestionID string    `bun:"current_question_id,notnull"`
	CorrectCount      int       `bun:"correct_count,notnull"`
	FiftyFiftyHint    bool      `bun:"fifty_fifty_hint,notnull"`
	CanSkip           bool      `bun:"can_skip,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
	LastActivityAt    time.Time `bun:"last_activity_at,notnull"`
}

type gameStepRow struct {
	bun.BaseModel `bun:"table:game_steps"`

	ID             string    `bun:"id,pk"`
	GameID         string    `bun:"game_id,notnull"`
	QuestionID     string    `bun:"question_id,notnull"`
	AnswerID       string    `bun:"answer_id"`
	TimedOut       bool      `bun:"timed_out,notnull"`
	Correct        bool      `bun:"is_correct,notnull"`
	FiftyFiftyHint bool      `bun:"fifty_fifty_hint,notnull"`
	CanSkip        bool      `bun:"can_skip,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

// GameStore persists games and steps in Postgres through bun. Saves run in
// a transaction that locks the game row, so concurrent writers from other
// nodes serialize on the database as well.
type GameStore struct {
	db *bun.DB
}

func NewGameStore(db *bun.DB) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) CreateGame(ctx context.Context, game domain.Game) error {
	row := toGameRow(game)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (s *GameStore) GetGame(ctx context.Context, id string) (domain.Game, error) {
	var row gameRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("select game: %w", err)
	}
	return fromGameRow(row), nil
}

func (s *GameStore) SaveGame(ctx context.Context, game domain.Game) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existing gameRow
		err := tx.NewSelect().Model(&existing).Where("id = ?", game.ID).For("UPDATE").Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrGameNotFound
		}
		if err != nil {
			return fmt.Errorf("lock game: %w", err)
		}
		row := toGameRow(game)
		if _, err := tx.NewUpdate().Model(&row).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("update game: %w", err)
		}
		return nil
	})
}

func (s *GameStore) AppendStep(ctx context.Context, step domain.GameStep) error {
	row := toStepRow(step)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return nil
}

func (s *GameStore) LatestStep(ctx context.Context, gameID string) (*domain.GameStep, error) {
	var row gameStepRow
	err := s.db.NewSelect().Model(&row).
		Where("game_id = ?", gameID).
		OrderExpr("created_at DESC, id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select latest step: %w", err)
	}
	step := fromStepRow(row)
	return &step, nil
}

func (s *GameStore) MarkLatestStepHint(ctx context.Context, gameID string) error {
	step, err := s.LatestStep(ctx, gameID)
	if err != nil || step == nil {
		return err
	}
	_, err = s.db.NewUpdate().Model((*gameStepRow)(nil)).
		Set("fifty_fifty_hint = TRUE").
		Where("id = ?", step.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark step hint: %w", err)
	}
	return nil
}

func (s *GameStore) RecentGames(ctx context.Context, channel domain.ChannelRef, limit int) ([]domain.Game, error) {
	var rows []gameRow
	q := s.db.NewSelect().Model(&rows).OrderExpr("created_at DESC").Limit(limit)
	if channel.UserID != "" {
		q = q.Where("user_id = ?", channel.UserID)
	}
	if channel.ChatID != "" {
		q = q.Where("chat_id = ?", channel.ChatID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select recent games: %w", err)
	}
	games := make([]domain.Game, 0, len(rows))
	for _, row := range rows {
		games = append(games, fromGameRow(row))
	}
	return games, nil
}

func toGameRow(game domain.Game) gameRow {
	return gameRow{
		ID:                game.ID,
		QuizID:            game.QuizID,
		UserID:            game.Channel.UserID,
		ChatID:            game.Channel.ChatID,
		QuestionRow:       game.QuestionRow,
		CurrentQuestionID: game.CurrentQuestionID,
		CorrectCount:      game.CorrectCount,
		FiftyFiftyHint:    game.FiftyFiftyHint,
		CanSkip:           game.CanSkip,
		CreatedAt:         game.CreatedAt,
		LastActivityAt:    game.LastActivityAt,
	}
}

func fromGameRow(row gameRow) domain.Game {
	return domain.Game{
		ID:                row.ID,
		QuizID:            row.QuizID,
		Channel:           domain.ChannelRef{UserID: row.UserID, ChatID: row.ChatID},
		QuestionRow:       row.QuestionRow,
		CurrentQuestionID: row.CurrentQuestionID,
		CorrectCount:      row.CorrectCount,
		FiftyFiftyHint:    row.FiftyFiftyHint,
		CanSkip:           row.CanSkip,
		CreatedAt:         row.CreatedAt,
		LastActivityAt:    row.LastActivityAt,
	}
}

func toStepRow(step domain.GameStep) gameStepRow {
	return gameStepRow{
		ID:             step.ID,
		GameID:         step.GameID,
		QuestionID:     step.QuestionID,
		AnswerID:       step.AnswerID,
		TimedOut:       step.TimedOut,
		Correct:        step.Correct,
		FiftyFiftyHint: step.FiftyFiftyHint,
		CanSkip:        step.CanSkip,
		CreatedAt:      step.CreatedAt,
	}
}

func fromStepRow(row gameStepRow) domain.GameStep {
	return domain.GameStep{
		ID:             row.ID,
		GameID:         row.GameID,
		QuestionID:     row.QuestionID,
		AnswerID:       row.AnswerID,
		TimedOut:       row.TimedOut,
		Correct:        row.Correct,
		FiftyFiftyHint: row.FiftyFiftyHint,
		CanSkip:        row.CanSkip,
		CreatedAt:      row.CreatedAt,
	}
}
