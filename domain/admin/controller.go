package admin

import (
	"net/http"
	"time"

	"github.com/akeren/wiwi-waitlist/config"
	"github.com/akeren/wiwi-waitlist/config/router"
	"github.com/akeren/wiwi-waitlist/domain/waitlist"
	"github.com/akeren/wiwi-waitlist/internal/log"
	apperrors "github.com/akeren/wiwi-waitlist/pkg/errors"
	"gorm.io/gorm"
)

const (
	loginAttemptsPerMinute = 5
	loginRateLimitScope    = "admin-login"
)

// NewAdminController mounts the admin session and dashboard endpoints. cache may be nil.
func NewAdminController(
	db *gorm.DB,
	logger *log.Logger,
	cache Cache,
	settings *config.AdminSettings,
	exportSettings *config.ExportSettings,
) *router.RESTController {

	return router.NewVersionedRESTController(
		"AdminController",
		"v1",
		"/admin",
		func(rs *router.RouterService, c *router.RESTController) {
			auth := NewAuthService(
				logger,
				NewPasswordVerifier(settings.Password, settings.PasswordHash),
				NewTokenIssuer(settings.SessionSecret, settings.SessionTTL),
				NewSessionStore(cache),
			)
			source := waitlist.NewWaitlistRepository(db)
			exporter := NewCSVExporter(exportSettings.Location)
			requireSession := RequireSession(auth)

			loginLimiter := rs.NewScopedRateLimiter(loginRateLimitScope, loginAttemptsPerMinute, time.Minute)

			rs.AddPostHandler(c, loginLimiter, "session", loginHandler(auth, settings.SecureCookie))
			rs.AddGetHandler(c, nil, "session", sessionStatusHandler(auth))
			rs.AddDeleteHandler(c, nil, "session", logoutHandler(auth, settings.SecureCookie))

			rs.AddGetHandler(c, nil, "waitlist", listWaitlistHandler(source), requireSession)
			rs.AddGetHandler(c, nil, "waitlist/export", exportWaitlistHandler(source, exporter), requireSession)
		},
	)
}

func loginHandler(auth AuthService, secureCookie bool) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req LoginRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Warn("Rejected login request", "error", err)
			return router.BadRequestResult("Invalid request body", apperrors.FormatValidationErrors(err, &req))
		}

		session, err := auth.Login(ctx.Request.Context(), req.Password)
		if err != nil {
			return errorResult(err)
		}

		setSessionCookie(ctx, session.Token, secureCookie)
		return router.CreatedResult(session, "Admin session")
	}
}

func sessionStatusHandler(auth AuthService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		session, err := auth.Authenticate(ctx.Request.Context(), tokenFromRequest(ctx))
		if err != nil {
			if apperrors.GetErrorType(err) != apperrors.ErrorTypeUnauthorized {
				return errorResult(err)
			}
			return router.OKResult(SessionStatusResponse{Authenticated: false}, "No active admin session")
		}

		return router.OKResult(SessionStatusResponse{Authenticated: true, ExpiresAt: &session.ExpiresAt}, "Admin session is active")
	}
}

func logoutHandler(auth AuthService, secureCookie bool) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		if err := auth.Logout(ctx.Request.Context(), tokenFromRequest(ctx)); err != nil {
			return errorResult(err)
		}

		clearSessionCookie(ctx, secureCookie)
		return router.OKResult(nil, "Signed out")
	}
}

func listWaitlistHandler(source EntrySource) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		dashboard, result := loadDashboard(ctx, source)
		if result != nil {
			return result
		}

		return router.OKResult(ToDashboardResponse(dashboard), "Waitlist retrieved successfully")
	}
}

func exportWaitlistHandler(source EntrySource, exporter *CSVExporter) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		dashboard, result := loadDashboard(ctx, source)
		if result != nil {
			return result
		}

		logger := router.GetLogger(ctx)
		if session, ok := SessionFromContext(ctx.Request.Context()); ok {
			logger.Info("Exporting waitlist", "entries", len(dashboard.Visible()), "session_issued_at", session.IssuedAt)
		}

		return router.AttachmentResult(ExportFilename(time.Now()), CSVContentType, exporter.Render(dashboard.Visible()))
	}
}

// loadDashboard builds the view described by the query string; a non-nil result is an error response.
func loadDashboard(ctx *router.RequestContext, source EntrySource) (*Dashboard, *router.ServiceResult) {
	logger := router.GetLogger(ctx)

	var query WaitlistQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, router.BadRequestResult("Invalid query parameters", apperrors.FormatValidationErrors(err, &query))
	}

	order, err := waitlist.ParseSortOrder(query.Order)
	if err != nil {
		return nil, router.BadRequestResult(err.Error(), nil)
	}

	dashboard := NewDashboard(source)
	dashboard.SetSearch(query.Search)

	if err := dashboard.SetOrder(ctx.Request.Context(), order); err != nil {
		logger.Error("Failed to load waitlist", "error", err)
	}
	if err := dashboard.Err(); err != nil {
		return nil, errorResult(err)
	}

	return dashboard, nil
}

func errorResult(err error) *router.ServiceResult {
	status := apperrors.HTTPStatusCode(err)
	if status == http.StatusInternalServerError {
		return router.InternalServerErrorResult(apperrors.GetHumanReadableMessage(err))
	}
	return router.ErrorResult(status, apperrors.GetHumanReadableMessage(err), nil)
}
