package redis

import (
	"context"
	"testing"
	"time"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/infra/memory"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestCatalogCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{
		CatalogLoader: memory.NewStaticCatalogLoader(sampleQuizzes(), sampleQuestions()),
	}
	catalog := NewCatalog(client, loader, time.Minute)

	if _, err := catalog.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.quizCalls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.quizCalls)
	}

	// Second call should hit cache, loader not incremented.
	_, _ = catalog.GetQuiz(context.Background(), "quiz-1")
	if loader.quizCalls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.quizCalls)
	}
	if !mr.Exists("quiz:quiz-1") {
		t.Fatalf("expected quiz cached in redis")
	}

	if _, err := catalog.GetQuestion(context.Background(), "q1"); err != nil {
		t.Fatalf("get question: %v", err)
	}
	_, _ = catalog.GetQuestion(context.Background(), "q1")
	if loader.questionCalls != 1 {
		t.Fatalf("expected question cache hit, loader calls=%d", loader.questionCalls)
	}
}

type countingLoader struct {
	memory.CatalogLoader
	quizCalls     int
	questionCalls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.quizCalls++
	return l.CatalogLoader.LoadQuiz(ctx, quizID)
}

func (l *countingLoader) LoadQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	l.questionCalls++
	return l.CatalogLoader.LoadQuestion(ctx, questionID)
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:           "quiz-1",
			Title:        "Sample",
			Published:    true,
			TimerSeconds: 60,
			QuestionIDs:  []string{"q1"},
		},
	}
}

func sampleQuestions() map[string]domain.Question {
	return map[string]domain.Question{
		"q1": {
			ID:   "q1",
			Text: "What is 2 + 2?",
			Answers: []domain.Answer{
				{ID: "a1", Text: "3", Correct: false},
				{ID: "a2", Text: "4", Correct: true},
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
