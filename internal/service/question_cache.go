package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"devday_quiz_backend/internal/model"
	"devday_quiz_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const questionKeyPrefix = "quiz:question:"

// QuestionCache is a read-through Redis cache for question documents.
// Concurrent misses for the same id collapse to one database load, and
// TTLs carry jitter so a burst of loads does not expire in lockstep.
type QuestionCache struct {
	rdb    *redis.Client
	ttl    func() time.Duration
	flight singleflight.Group
}

// NewQuestionCache builds a cache whose TTL is read per fill, so config
// reloads take effect without a restart.
func NewQuestionCache(rdb *redis.Client, ttl func() time.Duration) *QuestionCache {
	return &QuestionCache{rdb: rdb, ttl: ttl}
}

func questionKey(id string) string {
	return questionKeyPrefix + id
}

func (c *QuestionCache) jitteredTTL() time.Duration {
	ttl := c.ttl()
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	// up to +10% so keys filled together drift apart
	jitter := time.Duration(rand.Int63n(int64(ttl) / 10))
	return ttl + jitter
}

// Get returns the cached question or loads it via load on a miss. Cache
// failures degrade to the loader; they never fail the read.
func (c *QuestionCache) Get(ctx context.Context, id string, load func() (*model.Question, error)) (*model.Question, error) {
	data, err := c.rdb.Get(ctx, questionKey(id)).Bytes()
	if err == nil {
		var q model.Question
		if jsonErr := json.Unmarshal(data, &q); jsonErr == nil {
			return &q, nil
		}
		// poisoned entry, fall through and refill
	} else if !errors.Is(err, redis.Nil) {
		logger.Log.Warn("question cache read failed", zap.String("id", id), zap.Error(err))
	}

	v, err, _ := c.flight.Do(id, func() (interface{}, error) {
		q, err := load()
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(q); err == nil {
			if err := c.rdb.Set(ctx, questionKey(id), data, c.jitteredTTL()).Err(); err != nil {
				logger.Log.Warn("question cache write failed", zap.String("id", id), zap.Error(err))
			}
		}
		return q, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Question), nil
}

// Invalidate drops the cached copy after a write to the question.
func (c *QuestionCache) Invalidate(ctx context.Context, id string) {
	if err := c.rdb.Del(ctx, questionKey(id)).Err(); err != nil {
		logger.Log.Warn("question cache invalidate failed", zap.String("id", id), zap.Error(err))
	}
}
