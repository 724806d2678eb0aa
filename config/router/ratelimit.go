package router

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/akeren/wiwi-waitlist/pkg/factory"
	"github.com/akeren/wiwi-waitlist/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

func (routerService *RouterService) initRateLimiting(cache Cache) {
	requests, window := routerService.rateLimitRequests, routerService.rateLimitWindow

	// Falls back to in-memory when Redis is absent or unreachable.
	limiterFactory := factory.NewDefaultRateLimiterFactory(requests, window, cache, routerService.logger)
	routerService.limiterFactory = limiterFactory
	routerService.rateLimiter = limiterFactory.CreateRateLimiter()

	backend := "memory"
	if limiterFactory.UsesRedis() {
		backend = "redis"
	} else if cache != nil {
		routerService.logger.Warn("Cache is configured but Redis is unavailable for rate limiting; using in-memory limiter")
	}

	routerService.logger.Info("Rate limiting initialized", "backend", backend, "requests", requests, "window", window)
}

// NewScopedRateLimiter returns a limiter for a single route or controller, backed by the
// same store as the global limiter but with its own key namespace.
func (routerService *RouterService) NewScopedRateLimiter(scope string, requests int, window time.Duration) ratelimit.RateLimiter {
	if routerService.limiterFactory == nil {
		return ratelimit.NewInMemoryRateLimiter(ratelimit.Limit{Requests: requests, Window: window})
	}
	return routerService.limiterFactory.CreateScopedRateLimiter(scope, requests, window)
}

// limiterFor returns the route's own limiter, else the global one. ok is false for
// requests that match no registered handler.
func (routerService *RouterService) limiterFor(c *gin.Context) (limiter ratelimit.RateLimiter, ok bool) {
	key := routeKey{method: c.Request.Method, path: c.FullPath()}
	if _, registered := routerService.routes[key]; !registered {
		return nil, false
	}

	if limiter, scoped := routerService.routeLimiters[key]; scoped {
		return limiter, true
	}
	return routerService.rateLimiter, true
}

func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter, ok := routerService.limiterFor(c)
		if !ok {
			// Unknown routes fall through to NoRoute/NoMethod and /metrics is unlimited.
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		limit := limiter.Limit()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		c.Header("X-RateLimit-Window", limit.Window.String())

		decision, err := limiter.Check(c.Request.Context(), clientIP)
		if err != nil {
			// Limiter errors fail open.
			routerService.logger.Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if decision.Limited {
			routerService.logger.Warn("Rate limit exceeded", "client_ip", clientIP, "route", c.FullPath())
			routerService.metrics.observeRateLimited(c.FullPath())

			retryAfter := strconv.Itoa(max(1, int(math.Ceil(limit.Window.Seconds()))))
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, TooManyRequestsResult(RateLimitResponse{
				Limit:      limit.Requests,
				Window:     limit.Window.String(),
				RetryAfter: retryAfter,
			}).ToJSON())
			return
		}

		c.Next()
	}
}
