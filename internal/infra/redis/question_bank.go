package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"millionaire-quiz-service/internal/domain"
)

// QuestionLoader fetches every question of a level from a backing store (Postgres, SQLite).
type QuestionLoader interface {
	LoadLevel(ctx context.Context, level int) ([]domain.Question, error)
}

// Source picks random indexes and TTL jitter.
type Source interface {
	Intn(n int) int
	Int63n(n int64) int64
}

// QuestionBank caches the questions of each level in Redis and falls back to a loader on cache miss.
// Questions are stored as: HSET questions:level:{level} {questionID} {json}
type QuestionBank struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    Source
}

func NewQuestionBank(client *redis.Client, loader QuestionLoader, ttl time.Duration, rnd Source) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rnd,
	}
}

// FetchOne returns a random question of the given level.
func (b *QuestionBank) FetchOne(ctx context.Context, level int) (domain.Question, error) {
	questions, err := b.levelQuestions(ctx, level)
	if err != nil {
		return domain.Question{}, err
	}
	if len(questions) == 0 {
		return domain.Question{}, fmt.Errorf("%w %d", domain.ErrNoQuestion, level)
	}
	return questions[b.rnd.Intn(len(questions))], nil
}

// Invalidate drops the cached copy of a level, e.g. after seeding new questions.
func (b *QuestionBank) Invalidate(ctx context.Context, level int) error {
	return b.client.Del(ctx, levelKey(level)).Err()
}

func (b *QuestionBank) levelQuestions(ctx context.Context, level int) ([]domain.Question, error) {
	key := levelKey(level)

	cached, err := b.client.HGetAll(ctx, key).Result()
	if err == nil && len(cached) > 0 {
		return decodeLevel(cached)
	}

	result, err, _ := b.sf.Do(strconv.Itoa(level), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := b.client.HGetAll(ctx, key).Result()
		if err == nil && len(cached) > 0 {
			return decodeLevel(cached)
		}

		questions, err := b.loader.LoadLevel(ctx, level)
		if err != nil {
			return nil, fmt.Errorf("load level %d: %w", level, err)
		}
		if len(questions) == 0 {
			return questions, nil
		}

		pipe := b.client.Pipeline()
		for _, q := range questions {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, err
			}
			pipe.HSet(ctx, key, strconv.FormatInt(q.ID, 10), raw)
		}
		if ttl := b.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func levelKey(level int) string {
	return "questions:level:" + strconv.Itoa(level)
}

func decodeLevel(cached map[string]string) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(cached))
	for id, raw := range cached {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("decode cached question %s: %w", id, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
