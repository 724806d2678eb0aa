package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/akeren/wiwi-waitlist/internal/log"
	"github.com/akeren/wiwi-waitlist/pkg/circuitbreaker"
	"github.com/akeren/wiwi-waitlist/pkg/ipinfo"
	"github.com/akeren/wiwi-waitlist/pkg/utils"
)

const (
	DefaultAdminSessionTTL = 12 * time.Hour
	ipLookupDisabledValue  = "off"
)

type AdminSettings struct {
	Password      string
	PasswordHash  string
	SessionSecret []byte
	SessionTTL    time.Duration
	SecureCookie  bool
}

func (as *AdminSettings) HasCredential() bool {
	return as.Password != "" || as.PasswordHash != ""
}

type IPLookupSettings struct {
	Endpoint string
	Timeout  time.Duration
}

type ExportSettings struct {
	Location *time.Location
	Schedule string
	Dir      string
}

func (es *ExportSettings) SnapshotsEnabled() bool {
	return es.Schedule != "" && es.Dir != ""
}

func NewAdminSettings(logger *log.Logger) (*AdminSettings, error) {
	settings := &AdminSettings{
		// The password is compared verbatim, so only surrounding quotes are stripped.
		Password:     unquoteEnv(GetValueFromEnvironmentVariable("ADMIN_PASSWORD", "")),
		PasswordHash: envValue("ADMIN_PASSWORD_HASH"),
		SecureCookie: isProductionEnv(GetAppEnv()),
	}

	ttl, err := utils.GetEnvPositiveDuration("ADMIN_SESSION_TTL", DefaultAdminSessionTTL)
	if err != nil {
		return nil, err
	}
	settings.SessionTTL = ttl

	secret := envValue("ADMIN_SESSION_SECRET")
	if secret == "" {
		generated, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate admin session secret: %w", err)
		}
		logger.Warn("ADMIN_SESSION_SECRET not set; using an ephemeral secret, admin sessions end on restart")
		secret = generated
	}
	settings.SessionSecret = []byte(secret)

	if !settings.HasCredential() {
		logger.Warn("No admin credential configured (ADMIN_PASSWORD_HASH or ADMIN_PASSWORD); admin login is disabled")
	}

	return settings, nil
}

func NewIPLookupSettings() (*IPLookupSettings, error) {
	timeout, err := utils.GetEnvPositiveDuration("IP_LOOKUP_TIMEOUT", ipinfo.DefaultTimeout)
	if err != nil {
		return nil, err
	}

	settings := &IPLookupSettings{
		Endpoint: utils.GetEnvTrimmed("IP_LOOKUP_URL"),
		Timeout:  timeout,
	}

	if strings.EqualFold(settings.Endpoint, ipLookupDisabledValue) {
		settings.Endpoint = ""
	}

	return settings, nil
}

// NewClient builds the egress lookup client used by the health check. It resolves the
// server's own address, so signups never use it.
func (s *IPLookupSettings) NewClient(logger *log.Logger) *ipinfo.Client {
	breaker := circuitbreaker.DefaultConfig()
	breaker.OnStateChange = func(from, to circuitbreaker.CircuitState) {
		logger.Warn("IP lookup circuit changed state", "from", from.String(), "to", to.String())
	}

	return ipinfo.NewClient(&ipinfo.Config{
		Endpoint: s.Endpoint,
		Timeout:  s.Timeout,
		Breaker:  breaker,
	})
}

func NewExportSettings() (*ExportSettings, error) {
	tz := utils.GetEnvTrimmedOrDefault("EXPORT_TIMEZONE", "UTC")

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid EXPORT_TIMEZONE %q: %w", tz, err)
	}

	return &ExportSettings{
		Location: loc,
		Schedule: utils.GetEnvTrimmed("EXPORT_SCHEDULE"),
		Dir:      utils.GetEnvTrimmed("EXPORT_DIR"),
	}, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
