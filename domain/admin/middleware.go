package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/akeren/wiwi-waitlist/config/router"
	apperrors "github.com/akeren/wiwi-waitlist/pkg/errors"
)

// SessionCookieName is the cookie that carries the admin session token.
const SessionCookieName = "wiwi_admin_auth"

type sessionContextKey struct{}

func ContextWithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(*Session)
	return session, ok && session != nil
}

// tokenFromRequest prefers an Authorization bearer token over the session cookie.
func tokenFromRequest(c *router.RequestContext) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}

	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}

	return ""
}

// RequireSession rejects requests without a live admin session and stores the session
// in the request context for downstream handlers.
func RequireSession(auth AuthService) router.MiddlewareFunc {
	return func(c *router.RequestContext) {
		session, err := auth.Authenticate(c.Request.Context(), tokenFromRequest(c))
		if err != nil {
			status := apperrors.HTTPStatusCode(err)
			if status == http.StatusUnauthorized {
				c.Header("WWW-Authenticate", `Bearer realm="admin"`)
			}
			c.AbortWithStatusJSON(status, router.ErrorResult(status, apperrors.GetHumanReadableMessage(err), nil).ToJSON())
			return
		}

		c.Request = c.Request.WithContext(ContextWithSession(c.Request.Context(), session))
		c.Next()
	}
}

func setSessionCookie(c *router.RequestContext, token string, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	// MaxAge 0 omits Max-Age so the browser drops the cookie when the session ends.
	c.SetCookie(SessionCookieName, token, 0, "/", "", secure, true)
}

func clearSessionCookie(c *router.RequestContext, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", secure, true)
}
