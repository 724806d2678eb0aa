package ipinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/akeren/wiwi-waitlist/pkg/circuitbreaker"
)

const (
	DefaultEndpoint = "https://api.ipify.org?format=json"
	DefaultTimeout  = 3 * time.Second

	// maxResponseBytes bounds the lookup body; a valid answer is a few dozen bytes.
	maxResponseBytes = 1 << 10
)

var (
	ErrDisabled        = errors.New("ipinfo: lookup disabled")
	ErrInvalidResponse = errors.New("ipinfo: invalid response")
)

type Config struct {
	Endpoint string
	Timeout  time.Duration
	Breaker  *circuitbreaker.Config
}

type Client struct {
	endpoint   string
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker
}

type lookupResponse struct {
	IP string `json:"ip"`
}

// NewClient returns a lookup client; an empty endpoint yields a client that always
// reports ErrDisabled.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{Endpoint: DefaultEndpoint}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		endpoint:   strings.TrimSpace(cfg.Endpoint),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    circuitbreaker.NewCircuitBreaker(cfg.Breaker),
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// State exposes the breaker state for health reporting.
func (c *Client) State() circuitbreaker.CircuitState {
	return c.breaker.State()
}

// PublicIP returns the caller's public address as the external service sees it.
func (c *Client) PublicIP(ctx context.Context) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	var ip string
	err := c.breaker.Call(func() error {
		resolved, err := c.fetch(ctx)
		if err != nil {
			return err
		}
		ip = resolved
		return nil
	})
	if err != nil {
		return "", err
	}

	return ip, nil
}

func (c *Client) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("ipinfo: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ipinfo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ipinfo: unexpected status %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	ip := strings.TrimSpace(body.IP)
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("%w: %q is not an IP address", ErrInvalidResponse, body.IP)
	}

	return ip, nil
}

// IsPublic reports whether ip is a routable, non-private address.
func IsPublic(ip string) bool {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return false
	}

	return parsed.IsGlobalUnicast() && !parsed.IsPrivate()
}
