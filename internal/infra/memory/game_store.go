package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-game-service/internal/domain"
)

// GameStore is an in-memory implementation of app.GameStore.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]domain.Game
	steps map[string][]domain.GameStep
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[string]domain.Game),
		steps: make(map[string][]domain.GameStep),
	}
}

func (s *GameStore) CreateGame(_ context.Context, game domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game
	return nil
}

func (s *GameStore) GetGame(_ context.Context, id string) (domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	return game, nil
}

func (s *GameStore) SaveGame(_ context.Context, game domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[game.ID]; !ok {
		return domain.ErrGameNotFound
	}
	s.games[game.ID] = game
	return nil
}

func (s *GameStore) AppendStep(_ context.Context, step domain.GameStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[step.GameID] = append(s.steps[step.GameID], step)
	return nil
}

func (s *GameStore) LatestStep(_ context.Context, gameID string) (*domain.GameStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	steps := s.steps[gameID]
	if len(steps) == 0 {
		return nil, nil
	}
	latest := steps[len(steps)-1]
	return &latest, nil
}

func (s *GameStore) MarkLatestStepHint(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	steps := s.steps[gameID]
	if len(steps) == 0 {
		return nil
	}
	steps[len(steps)-1].FiftyFiftyHint = true
	return nil
}

func (s *GameStore) RecentGames(_ context.Context, channel domain.ChannelRef, limit int) ([]domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]domain.Game, 0)
	for _, game := range s.games {
		if channel.UserID != "" && game.Channel.UserID != channel.UserID {
			continue
		}
		if channel.ChatID != "" && game.Channel.ChatID != channel.ChatID {
			continue
		}
		matched = append(matched, game)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
