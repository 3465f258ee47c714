package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"quiz-game-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches quiz content from a backing store (e.g., Postgres).
type CatalogLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	LoadQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// Catalog caches quiz and question documents in Redis as JSON and falls
// back to a loader on cache miss. Full documents are cached because the
// engine needs complete answer sets to render views:
//
//	SET quiz:{quizID}     {json}
//	SET question:{questionID} {json}
type Catalog struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalog(client *redis.Client, loader CatalogLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Catalog) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	key := "quiz:" + quizID

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err == nil {
			return quiz, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var quiz domain.Quiz
			if err := json.Unmarshal(raw, &quiz); err == nil {
				return quiz, nil
			}
		}

		quiz, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		c.cacheJSON(ctx, key, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *Catalog) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	key := "question:" + questionID

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var question domain.Question
		if err := json.Unmarshal(raw, &question); err == nil {
			return question, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var question domain.Question
			if err := json.Unmarshal(raw, &question); err == nil {
				return question, nil
			}
		}

		question, err := c.loader.LoadQuestion(ctx, questionID)
		if err != nil {
			return domain.Question{}, err
		}
		c.cacheJSON(ctx, key, question)
		return question, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

// cacheJSON is best-effort; a failed write only costs a reload later.
func (c *Catalog) cacheJSON(ctx context.Context, key string, doc any) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
