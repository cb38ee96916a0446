// Package ratelimit limits requests per client key, either in process
// (token bucket) or across replicas (Redis fixed window).
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Backend() string
}

// New picks the Redis limiter when client is non-nil.
func New(client *redis.Client, requests int, window time.Duration) Limiter {
	if client != nil {
		return NewRedis(client, requests, window)
	}
	return NewLocal(requests, window)
}

// Local keeps one token bucket per key. Buckets idle for longer than an
// hour are dropped by Cleanup.
type Local struct {
	mu       sync.Mutex
	limiters map[string]*localEntry
	rate     rate.Limit
	burst    int
}

type localEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewLocal allows requests per window with bursts up to requests.
func NewLocal(requests int, window time.Duration) *Local {
	if requests < 1 {
		requests = 1
	}
	return &Local{
		limiters: make(map[string]*localEntry),
		rate:     rate.Every(window / time.Duration(requests)),
		burst:    requests,
	}
}

func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &localEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastAccess = time.Now()
	limiter := entry.limiter
	l.mu.Unlock()

	return limiter.Allow(), nil
}

func (l *Local) Backend() string { return "local" }

// Cleanup removes buckets not used since before.
func (l *Local) Cleanup(before time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, entry := range l.limiters {
		if entry.lastAccess.Before(before) {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done.
func (l *Local) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Cleanup(time.Now().Add(-time.Hour))
		case <-ctx.Done():
			return
		}
	}
}

// Redis counts hits per key in fixed windows shared by every replica.
type Redis struct {
	client   *redis.Client
	requests int
	window   time.Duration
	now      func() time.Time
}

func NewRedis(client *redis.Client, requests int, window time.Duration) *Redis {
	return &Redis{client: client, requests: requests, window: window, now: time.Now}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	bucket := r.now().UnixNano() / int64(r.window)
	redisKey := fmt.Sprintf("foodgram:ratelimit:%s:%s", key, strconv.FormatInt(bucket, 10))

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, r.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val() <= int64(r.requests), nil
}

func (r *Redis) Backend() string { return "redis" }
