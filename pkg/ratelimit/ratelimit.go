package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether another request for key fits in the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Memory keeps one token bucket per key inside the process. A bucket left
// idle for a whole window has refilled completely, so it is dropped on the
// next sweep.
type Memory struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
	limiters  map[string]*memoryEntry
}

type memoryEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemory allows requests per window with a burst of the same size.
func NewMemory(requests int, window time.Duration) *Memory {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Memory{
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		window:   window,
		now:      time.Now,
		limiters: make(map[string]*memoryEntry),
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= m.window {
		m.sweep(now)
	}
	entry, ok := m.limiters[key]
	if !ok {
		entry = &memoryEntry{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1), nil
}

// sweep must be called with mu held.
func (m *Memory) sweep(now time.Time) {
	for key, entry := range m.limiters {
		if now.Sub(entry.lastSeen) >= m.window {
			delete(m.limiters, key)
		}
	}
	m.lastSweep = now
}

type cmdable interface {
	Incr(context.Context, string) *redis.IntCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	TTL(context.Context, string) *redis.DurationCmd
}

// Redis applies a fixed-window counter shared by every API instance.
type Redis struct {
	store  cmdable
	limit  int64
	window time.Duration
	prefix string
}

func NewRedis(client *redis.Client, requests int, window time.Duration) *Redis {
	return newRedis(client, requests, window)
}

func newRedis(store cmdable, requests int, window time.Duration) *Redis {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Redis{store: store, limit: int64(requests), window: window, prefix: "inventory:rate_limit"}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	if r.store == nil {
		return false, errors.New("redis client not initialized")
	}
	redisKey := r.prefix + ":" + strings.TrimSpace(key)
	count, err := r.store.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("incr rate limit: %w", err)
	}
	if count == 1 {
		if err := r.store.Expire(ctx, redisKey, r.window).Err(); err != nil {
			return false, fmt.Errorf("expire rate limit: %w", err)
		}
		return true, nil
	}
	if count <= r.limit {
		return true, nil
	}
	// A blocked key must still expire. If the first Expire was lost the key
	// has no TTL (-1) and would block forever.
	ttl, err := r.store.TTL(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("ttl rate limit: %w", err)
	}
	if ttl == -1 {
		if err := r.store.Expire(ctx, redisKey, r.window).Err(); err != nil {
			return false, fmt.Errorf("expire rate limit: %w", err)
		}
	}
	return false, nil
}

// Connect parses url and verifies connectivity.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
