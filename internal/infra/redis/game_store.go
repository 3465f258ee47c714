package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quiz-game-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// GameStore keeps games and their step logs in Redis:
//
//	SET   game:{id}                {game json}
//	RPUSH game:{id}:steps          {step json}
//	LPUSH games:channel:{u}:{c}    {game id}
//
// Games are never deleted by the engine; the TTL (if any) is the operator's
// retention window for finished sessions.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGameStore(client *redis.Client, ttl time.Duration) *GameStore {
	return &GameStore{client: client, ttl: ttl}
}

func (s *GameStore) CreateGame(ctx context.Context, game domain.Game) error {
	raw, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.gameKey(game.ID), raw, s.ttl)
	pipe.LPush(ctx, s.channelKey(game.Channel), game.ID)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.channelKey(game.Channel), s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *GameStore) GetGame(ctx context.Context, id string) (domain.Game, error) {
	raw, err := s.client.Get(ctx, s.gameKey(id)).Bytes()
	if err == redis.Nil {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("get game: %w", err)
	}
	var game domain.Game
	if err := json.Unmarshal(raw, &game); err != nil {
		return domain.Game{}, fmt.Errorf("unmarshal game: %w", err)
	}
	return game, nil
}

func (s *GameStore) SaveGame(ctx context.Context, game domain.Game) error {
	raw, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	return s.client.Set(ctx, s.gameKey(game.ID), raw, redis.KeepTTL).Err()
}

func (s *GameStore) AppendStep(ctx context.Context, step domain.GameStep) error {
	raw, err := json.Marshal(step)
	if err != nil {
		return fmt.Errorf("marshal step: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.stepsKey(step.GameID), raw)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.stepsKey(step.GameID), s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *GameStore) LatestStep(ctx context.Context, gameID string) (*domain.GameStep, error) {
	raw, err := s.client.LIndex(ctx, s.stepsKey(gameID), -1).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest step: %w", err)
	}
	var step domain.GameStep
	if err := json.Unmarshal(raw, &step); err != nil {
		return nil, fmt.Errorf("unmarshal step: %w", err)
	}
	return &step, nil
}

func (s *GameStore) MarkLatestStepHint(ctx context.Context, gameID string) error {
	step, err := s.LatestStep(ctx, gameID)
	if err != nil || step == nil {
		return err
	}
	step.FiftyFiftyHint = true
	raw, err := json.Marshal(step)
	if err != nil {
		return fmt.Errorf("marshal step: %w", err)
	}
	return s.client.LSet(ctx, s.stepsKey(gameID), -1, raw).Err()
}

func (s *GameStore) RecentGames(ctx context.Context, channel domain.ChannelRef, limit int) ([]domain.Game, error) {
	ids, err := s.client.LRange(ctx, s.channelKey(channel), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("recent games: %w", err)
	}
	games := make([]domain.Game, 0, len(ids))
	for _, id := range ids {
		game, err := s.GetGame(ctx, id)
		if err == domain.ErrGameNotFound {
			// expired game body, keep listing the rest
			continue
		}
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, nil
}

func (s *GameStore) gameKey(id string) string {
	return "game:" + id
}

func (s *GameStore) stepsKey(gameID string) string {
	return "game:" + gameID + ":steps"
}

func (s *GameStore) channelKey(channel domain.ChannelRef) string {
	return "games:channel:" + channel.UserID + ":" + channel.ChatID
}
