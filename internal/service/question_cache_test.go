package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"devday_quiz_backend/internal/model"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func fixedTTL(d time.Duration) func() time.Duration {
	return func() time.Duration { return d }
}

func TestQuestionCacheReadThrough(t *testing.T) {
	_, client := newTestRedis(t)
	cache := NewQuestionCache(client, fixedTTL(time.Minute))
	ctx := context.Background()

	var calls int32
	load := func() (*model.Question, error) {
		atomic.AddInt32(&calls, 1)
		q := newQuestion("q1", model.QuestionQA)
		return &q, nil
	}

	q, err := cache.Get(ctx, "q1", load)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q.ID != "q1" {
		t.Fatalf("wrong question: %+v", q)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected one load, got %d", calls)
	}

	if _, err := cache.Get(ctx, "q1", load); err != nil {
		t.Fatalf("get: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("second read should hit the cache, loads = %d", calls)
	}
}

func TestQuestionCacheInvalidate(t *testing.T) {
	_, client := newTestRedis(t)
	cache := NewQuestionCache(client, fixedTTL(time.Minute))
	ctx := context.Background()

	var calls int32
	load := func() (*model.Question, error) {
		atomic.AddInt32(&calls, 1)
		q := newQuestion("q1", model.QuestionQA)
		return &q, nil
	}

	cache.Get(ctx, "q1", load)
	cache.Invalidate(ctx, "q1")
	cache.Get(ctx, "q1", load)

	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected reload after invalidate, loads = %d", calls)
	}
}

func TestQuestionCacheCollapsesConcurrentMisses(t *testing.T) {
	_, client := newTestRedis(t)
	cache := NewQuestionCache(client, fixedTTL(time.Minute))
	ctx := context.Background()

	var calls int32
	started := make(chan struct{})
	load := func() (*model.Question, error) {
		atomic.AddInt32(&calls, 1)
		<-started
		q := newQuestion("q1", model.QuestionQA)
		return &q, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(ctx, "q1", load); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	// give the goroutines time to pile onto the same flight
	time.Sleep(50 * time.Millisecond)
	close(started)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single collapsed load, got %d", got)
	}
}

func TestQuestionCacheSetsExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewQuestionCache(client, fixedTTL(time.Minute))
	ctx := context.Background()

	load := func() (*model.Question, error) {
		q := newQuestion("q1", model.QuestionQA)
		return &q, nil
	}
	if _, err := cache.Get(ctx, "q1", load); err != nil {
		t.Fatalf("get: %v", err)
	}

	ttl := mr.TTL(questionKey("q1"))
	if ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected jittered TTL near one minute, got %v", ttl)
	}
}
