package waitlist

import (
	"context"
	"strings"

	"github.com/akeren/wiwi-waitlist/internal/log"
	"github.com/akeren/wiwi-waitlist/pkg/ipinfo"
)

// IPResolver decides which address is recorded with a signup. A nil result means unknown.
type IPResolver interface {
	Resolve(ctx context.Context, meta ClientMetadata) *string
}

type ipResolver struct {
	logger *log.Logger
}

// NewIPResolver prefers the address the visitor's browser reported, then the connecting
// client's address. Only public addresses are recorded; the server never substitutes
// its own egress address.
func NewIPResolver(logger *log.Logger) IPResolver {
	return &ipResolver{logger: logger}
}

func (r *ipResolver) Resolve(ctx context.Context, meta ClientMetadata) *string {
	reported := strings.TrimSpace(meta.ReportedIP)
	if ipinfo.IsPublic(reported) {
		return &reported
	}
	if reported != "" {
		log.GetLoggerInstanceFromContext(ctx, r.logger).Debug("Ignoring reported IP address", "ip_address", reported)
	}

	remote := strings.TrimSpace(meta.RemoteIP)
	if ipinfo.IsPublic(remote) {
		return &remote
	}

	return nil
}
