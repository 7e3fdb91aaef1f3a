package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"classquiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches a quiz's question set from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
}

// QuestionCache caches question sets in Redis and falls back to a loader on
// cache miss. The full set is stored as one JSON value:
// SET quiz:{quizID}:questions {json}
type QuestionCache struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	key := c.key(quizID)

	if questions, ok := c.fromCache(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.fromCache(ctx, key); ok {
			return questions, nil
		}

		questions, err := c.loader.LoadQuestions(ctx, quizID)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			// best-effort cache fill
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) fromCache(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCache) key(quizID string) string {
	return "quiz:" + quizID + ":questions"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	// singleflight serializes per key only; rnd is shared across keys.
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
