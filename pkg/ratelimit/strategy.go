package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	redisKeyPrefix = "ratelimit:"
	emptyKey       = "__empty__"

	// sweepEvery is how many checks pass between sweeps of idle in-memory buckets.
	sweepEvery = 1024
)

// slidingWindowScript trims the window, counts and admits atomically. Scores are
// milliseconds. It returns {limited, remaining}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

	local count = redis.call('ZCARD', key)
	if count >= limit then
		return {1, 0}
	end

	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window)

	return {0, limit - count - 1}
`)

type Logger interface {
	Error(msg string, args ...interface{})
}

// Limit is a budget of Requests per Window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Decision is the outcome of one Check.
type Decision struct {
	Limited   bool
	Remaining int
}

// RateLimiter decides whether the caller identified by key has exhausted its budget.
type RateLimiter interface {
	Limit() Limit
	Check(ctx context.Context, key string) (Decision, error)
	Close() error
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// Scope namespaces keys so limiters sharing one Redis do not share budgets.
	Scope  string
	Redis  *redis.Client // nil selects the in-memory limiter
	Logger Logger
}

// NewRateLimiter creates a Redis limiter when a client is configured, in-memory otherwise.
func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	limit := Limit{Requests: config.Requests, Window: config.Window}
	if config.Redis != nil {
		return NewRedisRateLimiter(config.Redis, limit, config.Scope, config.Logger)
	}
	return NewInMemoryRateLimiter(limit)
}

// InMemoryRateLimiter keeps one token bucket per key, for single-instance deployments.
type InMemoryRateLimiter struct {
	limit Limit

	mu      sync.Mutex
	buckets map[string]*bucket
	checks  uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewInMemoryRateLimiter(limit Limit) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		limit:   limit,
		buckets: make(map[string]*bucket),
	}
}

func (r *InMemoryRateLimiter) Limit() Limit {
	return r.limit
}

func (r *InMemoryRateLimiter) Check(_ context.Context, key string) (Decision, error) {
	if key == "" {
		key = emptyKey
	}

	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[key]
	if !ok {
		refill := rate.Limit(float64(r.limit.Requests) / r.limit.Window.Seconds())
		b = &bucket{limiter: rate.NewLimiter(refill, r.limit.Requests)}
		r.buckets[key] = b
	}
	b.lastSeen = now

	r.checks++
	if r.checks%sweepEvery == 0 {
		r.sweep(now.Add(-2 * r.limit.Window))
	}

	if !b.limiter.AllowN(now, 1) {
		return Decision{Limited: true}, nil
	}

	return Decision{Remaining: max(0, int(b.limiter.TokensAt(now)))}, nil
}

// sweep drops buckets idle since before cutoff. Callers hold r.mu.
func (r *InMemoryRateLimiter) sweep(cutoff time.Time) {
	for key, b := range r.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(r.buckets, key)
		}
	}
}

func (r *InMemoryRateLimiter) Close() error {
	return nil
}

// RedisRateLimiter is a sliding-window limiter shared across instances.
type RedisRateLimiter struct {
	client    *redis.Client
	limit     Limit
	keyPrefix string
	logger    Logger
}

func NewRedisRateLimiter(client *redis.Client, limit Limit, scope string, logger Logger) *RedisRateLimiter {
	prefix := redisKeyPrefix
	if scope != "" {
		prefix += scope + ":"
	}

	return &RedisRateLimiter{
		client:    client,
		limit:     limit,
		keyPrefix: prefix,
		logger:    logger,
	}
}

func (r *RedisRateLimiter) Limit() Limit {
	return r.limit
}

func (r *RedisRateLimiter) redisKey(key string) string {
	if key == "" {
		key = emptyKey
	}
	return r.keyPrefix + key
}

func (r *RedisRateLimiter) Check(ctx context.Context, key string) (Decision, error) {
	fullKey := r.redisKey(key)

	result, err := slidingWindowScript.Run(
		ctx,
		r.client,
		[]string{fullKey},
		time.Now().UnixMilli(),
		r.limit.Window.Milliseconds(),
		r.limit.Requests,
		uuid.NewString(),
	).Int64Slice()
	if err == nil && len(result) != 2 {
		err = fmt.Errorf("unexpected script result %v", result)
	}
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis rate limit check failed", "key", fullKey, "error", err)
		}
		return Decision{}, fmt.Errorf("rate limiter Redis error: %w", err)
	}

	return Decision{Limited: result[0] == 1, Remaining: int(result[1])}, nil
}

// Close is a no-op; the Redis client belongs to the application cache.
func (r *RedisRateLimiter) Close() error {
	return nil
}
