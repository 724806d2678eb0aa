package constants

import "time"

// ServiceName identifies the service in traces, logs and scheduled exports.
const ServiceName = "wiwi-waitlist"

// Global rate limit applied to every route without its own scoped limiter.
const (
	DefaultRateLimitRequests = 100
	DefaultRateLimitWindow   = time.Minute
)

const DefaultRequestTimeout = 30 * time.Second
