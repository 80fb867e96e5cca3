package domain

import (
	"net/netip"
	"strings"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/config"
)

// RateLimitPolicy configures per-client request throttling.
type RateLimitPolicy struct {
	Enabled        bool
	RequestsPerSec float64
	Burst          int
}

// SecurityPolicy is the trust service's enforcement configuration. Policy
// checks run before any authority state is touched.
type SecurityPolicy struct {
	MTLSEnabled       bool
	MFARequired       bool
	AllowedIPs        []string
	AllowedUserAgents []string
	RateLimit         RateLimitPolicy
}

// PolicyFromConfig builds the security policy from configuration. Empty
// allow-lists permit everything.
func PolicyFromConfig(cfg *config.Config) *SecurityPolicy {
	return &SecurityPolicy{
		MTLSEnabled:       cfg.MTLSEnabled,
		MFARequired:       cfg.MFARequired,
		AllowedIPs:        splitList(cfg.AllowedIPs),
		AllowedUserAgents: splitList(cfg.AllowedUserAgents),
		RateLimit: RateLimitPolicy{
			Enabled:        cfg.RateLimitEnabled,
			RequestsPerSec: cfg.RateLimitRequestsPerSec,
			Burst:          cfg.RateLimitBurst,
		},
	}
}

// IPAllowed reports whether the IP passes the allow-list. Entries may be
// exact addresses or CIDR prefixes.
func (p *SecurityPolicy) IPAllowed(ip string) bool {
	if len(p.AllowedIPs) == 0 {
		return true
	}
	addr, addrErr := netip.ParseAddr(ip)
	for _, allowed := range p.AllowedIPs {
		if allowed == ip {
			return true
		}
		prefix, err := netip.ParsePrefix(allowed)
		if err != nil {
			continue
		}
		if addrErr == nil && prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// UserAgentAllowed reports whether the user agent passes the allow-list.
// Entries match as substrings.
func (p *SecurityPolicy) UserAgentAllowed(userAgent string) bool {
	if len(p.AllowedUserAgents) == 0 {
		return true
	}
	for _, allowed := range p.AllowedUserAgents {
		if strings.Contains(userAgent, allowed) {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
