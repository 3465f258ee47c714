package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-game-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches quiz content from a backing store (e.g., Postgres).
type CatalogLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	LoadQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// Catalog caches quizzes and questions with TTL to avoid repeated DB hits.
// A ttl of zero disables caching, which also keeps mid-game content
// deletions visible immediately.
type Catalog struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	quizzes   map[string]cachedQuiz
	questions map[string]cachedQuestion
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

func NewCatalog(loader CatalogLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		loader:    loader,
		ttl:       ttl,
		clock:     time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		quizzes:   make(map[string]cachedQuiz),
		questions: make(map[string]cachedQuestion),
	}
}

func (c *Catalog) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.quizzes[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.quiz, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("quiz:"+quizID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.quizzes[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.quiz, nil
		}
		c.mu.RUnlock()

		quiz, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		c.mu.Lock()
		c.quizzes[quizID] = cachedQuiz{quiz: quiz, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *Catalog) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.questions[questionID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.question, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("question:"+questionID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.questions[questionID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.question, nil
		}
		c.mu.RUnlock()

		question, err := c.loader.LoadQuestion(ctx, questionID)
		if err != nil {
			return domain.Question{}, err
		}

		c.mu.Lock()
		c.questions[questionID] = cachedQuestion{question: question, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return question, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticCatalogLoader is a loader backed by in-memory maps (useful for
// tests/demos). Questions can be deleted to exercise self-healing
// progression.
type StaticCatalogLoader struct {
	mu        sync.RWMutex
	quizzes   map[string]domain.Quiz
	questions map[string]domain.Question
}

func NewStaticCatalogLoader(quizzes map[string]domain.Quiz, questions map[string]domain.Question) *StaticCatalogLoader {
	return &StaticCatalogLoader{quizzes: quizzes, questions: questions}
}

func (l *StaticCatalogLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (l *StaticCatalogLoader) LoadQuestion(_ context.Context, questionID string) (domain.Question, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if question, ok := l.questions[questionID]; ok {
		return question, nil
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

// DeleteQuestion removes a question, simulating content deleted mid-game.
func (l *StaticCatalogLoader) DeleteQuestion(questionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.questions, questionID)
}
