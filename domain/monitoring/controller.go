package monitoring

import (
	"context"
	"time"

	"github.com/akeren/wiwi-waitlist/config/router"
	"github.com/akeren/wiwi-waitlist/internal/log"
	"github.com/akeren/wiwi-waitlist/pkg/circuitbreaker"
	"gorm.io/gorm"
)

const (
	monitoringRequestsPerMinute = 10
	monitoringRateLimitScope    = "monitoring"
	healthCheckTimeout          = 2 * time.Second

	ipLookupDisabled = "disabled"
)

type Cache interface {
	Ping(ctx context.Context) error
}

// OutboundCheck is an optional outbound dependency guarded by a circuit breaker. A health
// check resolves the server's egress address through it and reports the breaker state.
type OutboundCheck interface {
	Enabled() bool
	State() circuitbreaker.CircuitState
	PublicIP(ctx context.Context) (string, error)
}

type HealthStatus struct {
	Database int    `json:"database"`  // 1 = healthy, 0 = unhealthy
	Cache    int    `json:"cache"`     // 1 = healthy, 0 = unhealthy or not configured
	IPLookup string `json:"ip_lookup"` // circuit state, or "disabled"
	Uptime   int    `json:"uptime"`    // seconds
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	ipLookup  OutboundCheck
	startTime time.Time
}

// NewMonitoringController mounts liveness and health endpoints. cache and ipLookup may be nil.
func NewMonitoringController(db *gorm.DB, logger *log.Logger, cache Cache, ipLookup OutboundCheck) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		ipLookup:  ipLookup,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			limiter := routerService.NewScopedRateLimiter(monitoringRateLimitScope, monitoringRequestsPerMinute, time.Minute)

			routerService.AddGetHandler(controller, limiter, "", ctrl.monitor)
			routerService.AddGetHandler(controller, limiter, "health", ctrl.healthCheck)
		},
	)
}

func (ctrl *MonitoringController) monitor(
	c *router.RequestContext,
) *router.ServiceResult {
	return router.OKResult("Waitlist service is operational.", "Monitoring successful")
}

func (ctrl *MonitoringController) healthCheck(c *router.RequestContext) *router.ServiceResult {
	logger := log.GetLoggerInstanceFromContext(c.Request.Context(), ctrl.logger)

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	return router.OKResult(ctrl.performHealthChecks(ctx, logger), "wiwi-waitlist health check completed")
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Uptime:   int(time.Since(ctrl.startTime).Seconds()),
		IPLookup: ctrl.checkIPLookup(ctx, logger),
	}

	if ctrl.checkDatabase(ctx) {
		status.Database = 1
	} else {
		logger.Error("Database health check failed")
	}

	switch {
	case ctrl.cache == nil:
		logger.Debug("Cache not configured, cache health check skipped")
	case ctrl.cache.Ping(ctx) == nil:
		status.Cache = 1
	default:
		logger.Error("Cache health check failed")
	}

	return status
}

func (ctrl *MonitoringController) checkIPLookup(ctx context.Context, logger *log.Logger) string {
	if ctrl.ipLookup == nil || !ctrl.ipLookup.Enabled() {
		return ipLookupDisabled
	}

	if _, err := ctrl.ipLookup.PublicIP(ctx); err != nil {
		logger.Warn("IP lookup health check failed", "error", err)
	}

	return ctrl.ipLookup.State().String()
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context) bool {
	if ctrl.db == nil {
		return false
	}

	sqlDB, err := ctrl.db.DB()
	if err != nil {
		return false
	}

	return sqlDB.PingContext(ctx) == nil
}
