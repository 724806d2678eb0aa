package waitlist

import (
	"net/http"
	"time"

	"github.com/akeren/wiwi-waitlist/config/router"
	"github.com/akeren/wiwi-waitlist/internal/log"
	apperrors "github.com/akeren/wiwi-waitlist/pkg/errors"
	"gorm.io/gorm"
)

const (
	signupRequestsPerMinute = 30
	signupRateLimitScope    = "waitlist-signup"
)

// NewWaitlistController mounts the public signup endpoint.
func NewWaitlistController(db *gorm.DB, logger *log.Logger) *router.RESTController {

	return router.NewVersionedRESTController(
		"WaitlistController",
		"v1",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewWaitlistRepository(db)
			service := NewWaitlistService(logger, repository, NewIPResolver(logger))
			metrics := newSignupMetrics(rs.MetricsRegisterer())

			signupLimiter := rs.NewScopedRateLimiter(signupRateLimitScope, signupRequestsPerMinute, time.Minute)

			rs.AddPostHandler(c, signupLimiter, "", joinWaitlistHandler(service, metrics))
		},
	)
}

func joinWaitlistHandler(service WaitlistService, metrics *signupMetrics) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req SignupRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Error("Failed to bind request", "error", err)
			return router.BadRequestResult("Invalid request body", nil)
		}

		meta := ClientMetadata{
			UserAgent:  ctx.GetHeader("User-Agent"),
			RemoteIP:   ctx.ClientIP(),
			ReportedIP: req.IPAddress,
		}

		response, err := service.Join(ctx.Request.Context(), &req, meta)
		if err != nil {
			return signupErrorResult(err, metrics)
		}

		metrics.observe(string(SignupStatusJoined))
		return &router.ServiceResult{
			StatusCode: http.StatusCreated,
			Data:       response,
			Message:    response.Message,
		}
	}
}

func signupErrorResult(err error, metrics *signupMetrics) *router.ServiceResult {
	switch apperrors.GetErrorType(err) {
	case apperrors.ErrorTypeNoContent:
		metrics.observe(resultEmpty)
		return router.NoContentResult()
	case apperrors.ErrorTypeConflict:
		metrics.observe(string(SignupStatusAlreadyRegistered))
		return router.ErrorResult(
			http.StatusConflict,
			MessageAlreadyRegistered,
			NewSignupResponse(SignupStatusAlreadyRegistered, MessageAlreadyRegistered, nil),
		)
	case apperrors.ErrorTypeInvalidRequest:
		return router.BadRequestResult(apperrors.GetHumanReadableMessage(err), nil)
	default:
		metrics.observe(string(SignupStatusFailed))
		return router.ErrorResult(
			http.StatusInternalServerError,
			MessageSignupFailed,
			NewSignupResponse(SignupStatusFailed, MessageSignupFailed, nil),
		)
	}
}
