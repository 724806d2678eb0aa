package factory

import (
	"context"
	"time"

	"github.com/akeren/wiwi-waitlist/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RateLimiterFactory interface {
	CreateRateLimiter() ratelimit.RateLimiter
	CreateScopedRateLimiter(scope string, requests int, window time.Duration) ratelimit.RateLimiter
	UsesRedis() bool
}

type DefaultRateLimiterFactory struct {
	config *ratelimit.RateLimitConfig
}

// NewDefaultRateLimiterFactory builds Redis-backed limiters when the cache exposes
// a reachable Redis client and in-memory limiters otherwise.
func NewDefaultRateLimiterFactory(requests int, window time.Duration, cache Cache, logger ratelimit.Logger) *DefaultRateLimiterFactory {
	return &DefaultRateLimiterFactory{
		config: &ratelimit.RateLimitConfig{
			Requests: requests,
			Window:   window,
			Redis:    RedisClientFromCache(cache),
			Logger:   logger,
		},
	}
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter() ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(f.config)
}

func (f *DefaultRateLimiterFactory) CreateScopedRateLimiter(scope string, requests int, window time.Duration) ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: requests,
		Window:   window,
		Scope:    scope,
		Redis:    f.config.Redis,
		Logger:   f.config.Logger,
	})
}

func (f *DefaultRateLimiterFactory) UsesRedis() bool {
	return f.config.Redis != nil
}

// RedisClientFromCache returns nil when the cache is absent, not Redis-backed, or unreachable.
func RedisClientFromCache(cache Cache) *redis.Client {
	if cache == nil {
		return nil
	}

	provider, ok := cache.(RedisClientProvider)
	if !ok {
		return nil
	}

	client := provider.GetClient()
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}

	return client
}
