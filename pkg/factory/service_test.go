package factory

import (
	"context"
	"testing"
	"time"

	"github.com/akeren/wiwi-waitlist/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
)

type pingOnlyCache struct{}

func (pingOnlyCache) Ping(ctx context.Context) error { return nil }

func TestDefaultRateLimiterFactory_FallsBackToInMemory(t *testing.T) {
	for name, cache := range map[string]Cache{"nil cache": nil, "non-redis cache": pingOnlyCache{}} {
		t.Run(name, func(t *testing.T) {
			f := NewDefaultRateLimiterFactory(5, time.Minute, cache, nil)

			limiter := f.CreateRateLimiter()

			assert.False(t, f.UsesRedis())
			assert.IsType(t, &ratelimit.InMemoryRateLimiter{}, limiter)

			assert.Equal(t, ratelimit.Limit{Requests: 5, Window: time.Minute}, limiter.Limit())
		})
	}
}

func TestDefaultRateLimiterFactory_ScopedLimiterUsesOwnBudget(t *testing.T) {
	f := NewDefaultRateLimiterFactory(100, time.Minute, nil, nil)

	scoped := f.CreateScopedRateLimiter("signup", 1, time.Hour)

	assert.Equal(t, ratelimit.Limit{Requests: 1, Window: time.Hour}, scoped.Limit())

	decision, err := scoped.Check(context.Background(), "203.0.113.1")
	assert.NoError(t, err)
	assert.False(t, decision.Limited)

	decision, err = scoped.Check(context.Background(), "203.0.113.1")
	assert.NoError(t, err)
	assert.True(t, decision.Limited)
}
