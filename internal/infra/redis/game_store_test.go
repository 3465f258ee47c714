package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-game-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestGameStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewGameStore(newClient(mr), time.Hour)

	game := domain.Game{
		ID:                "g1",
		QuizID:            "quiz-1",
		Channel:           domain.ChannelRef{ChatID: "chat-1"},
		QuestionRow:       []string{"q1", "q2"},
		CurrentQuestionID: "q1",
		FiftyFiftyHint:    true,
		CreatedAt:         time.Now().UTC(),
		LastActivityAt:    time.Now().UTC(),
	}
	if err := store.CreateGame(ctx, game); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := store.GetGame(ctx, "g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.CurrentQuestionID != "q1" || !loaded.FiftyFiftyHint {
		t.Fatalf("round trip lost fields: %+v", loaded)
	}

	loaded.CurrentQuestionID = "q2"
	loaded.CorrectCount = 1
	if err := store.SaveGame(ctx, loaded); err != nil {
		t.Fatalf("save: %v", err)
	}
	saved, _ := store.GetGame(ctx, "g1")
	if saved.CorrectCount != 1 || saved.CurrentQuestionID != "q2" {
		t.Fatalf("save not applied: %+v", saved)
	}

	if _, err := store.GetGame(ctx, "missing"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected game not found, got %v", err)
	}
}

func TestGameStoreStepLog(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewGameStore(newClient(mr), time.Hour)
	_ = store.CreateGame(ctx, domain.Game{ID: "g1"})

	step, err := store.LatestStep(ctx, "g1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if step != nil {
		t.Fatalf("expected no steps yet")
	}
	if err := store.MarkLatestStepHint(ctx, "g1"); err != nil {
		t.Fatalf("mark on empty log: %v", err)
	}

	_ = store.AppendStep(ctx, domain.GameStep{ID: "s1", GameID: "g1", QuestionID: "q1"})
	_ = store.AppendStep(ctx, domain.GameStep{ID: "s2", GameID: "g1", QuestionID: "q1", Correct: true})

	step, _ = store.LatestStep(ctx, "g1")
	if step == nil || step.ID != "s2" {
		t.Fatalf("expected s2 latest, got %+v", step)
	}

	if err := store.MarkLatestStepHint(ctx, "g1"); err != nil {
		t.Fatalf("mark hint: %v", err)
	}
	step, _ = store.LatestStep(ctx, "g1")
	if !step.FiftyFiftyHint {
		t.Fatalf("expected hint flag persisted on latest step")
	}
}

func TestGameStoreRecentGamesPerChannel(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewGameStore(newClient(mr), time.Hour)
	ref := domain.ChannelRef{ChatID: "chat-1"}

	for _, id := range []string{"g1", "g2", "g3"} {
		_ = store.CreateGame(ctx, domain.Game{ID: id, Channel: ref})
	}
	_ = store.CreateGame(ctx, domain.Game{ID: "gx", Channel: domain.ChannelRef{ChatID: "chat-2"}})

	games, err := store.RecentGames(ctx, ref, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(games) != 2 || games[0].ID != "g3" || games[1].ID != "g2" {
		t.Fatalf("expected newest first, got %+v", games)
	}
}
