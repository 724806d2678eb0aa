package router

import (
	"fmt"
	"strings"

	"github.com/akeren/wiwi-waitlist/pkg/utils"
)

const (
	defaultPort         = "8080"
	defaultMaxBodyBytes = 1 << 20
	defaultHSTSMaxAge   = 31536000
)

// httpSettings is the environment-driven part of the HTTP layer, read once at startup.
type httpSettings struct {
	port           string
	ginMode        string
	trustedProxies []string
	allowedOrigins []string
	maxBodyBytes   int64

	hstsEnabled           bool
	hstsMaxAge            int
	hstsIncludeSubdomains bool
}

func loadHTTPSettings() httpSettings {
	appEnv := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))

	s := httpSettings{
		port:                  utils.GetEnvTrimmedOrDefault("APP_PORT", defaultPort),
		ginMode:               utils.GetEnvTrimmed("GIN_MODE"),
		trustedProxies:        parseTrustedProxies(utils.GetEnvTrimmed("TRUSTED_PROXIES")),
		allowedOrigins:        splitList(utils.GetEnvTrimmed("CORS_ALLOWED_ORIGIN")),
		hstsEnabled:           utils.GetEnvBool("HSTS_ENABLED", appEnv == "production" || appEnv == "prod"),
		hstsIncludeSubdomains: utils.GetEnvBool("HSTS_INCLUDE_SUBDOMAINS", true),
	}

	// Invalid sizes fall back to the defaults; the returned errors only describe the value.
	maxBody, _ := utils.GetEnvPositiveInt("MAX_REQUEST_BODY_BYTES", defaultMaxBodyBytes)
	s.maxBodyBytes = int64(maxBody)
	s.hstsMaxAge, _ = utils.GetEnvPositiveInt("HSTS_MAX_AGE", defaultHSTSMaxAge)

	return s
}

// parseTrustedProxies returns nil when unset so ClientIP uses RemoteAddr and ignores
// X-Forwarded-For. "*" trusts every proxy and is meant for local setups.
func parseTrustedProxies(v string) []string {
	if v == "*" {
		return []string{"0.0.0.0/0", "::/0"}
	}
	return splitList(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s httpSettings) originAllowed(origin string) bool {
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s httpSettings) hstsValue() string {
	value := fmt.Sprintf("max-age=%d", s.hstsMaxAge)
	if s.hstsIncludeSubdomains {
		value += "; includeSubDomains"
	}
	return value
}
