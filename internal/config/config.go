// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// AgentID is the identity of the local agent this process runs as.
	AgentID string
	// AgentBaseURL is the externally reachable base URL of the local agent.
	AgentBaseURL string

	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// AccessTokenExpiration is the lifetime of issued access tokens.
	AccessTokenExpiration time.Duration
	// RefreshTokenExpiration is the lifetime of issued refresh tokens.
	RefreshTokenExpiration time.Duration
	// AuthorizationCodeExpiration is the lifetime of single-use authorization codes.
	AuthorizationCodeExpiration time.Duration
	// SweepInterval is how often expired grants and tokens are removed.
	SweepInterval time.Duration

	// CACommonName is the common name of the self-issued root certificate.
	CACommonName string
	// CertValidityDays is the validity window of issued leaf certificates.
	CertValidityDays int
	// CertGracePeriodDays is the window before expiry in which a certificate
	// is reported as expiring_soon.
	CertGracePeriodDays int
	// KeeperURI selects the gocloud.dev secrets keeper used to wrap private
	// keys at rest (e.g., "base64key://...", "awskms://...", "gcpkms://...").
	KeeperURI string

	// ChannelMasterKey is the base64-encoded 32-byte key from which per-pair
	// envelope signing keys are derived.
	ChannelMasterKey string
	// ReplayCacheTTL is how long seen message ids are remembered.
	ReplayCacheTTL time.Duration
	// ReplayCacheCapacity bounds the number of remembered message ids.
	ReplayCacheCapacity int
	// ClockSkewWindow is the maximum accepted difference between an envelope
	// timestamp and local time. ReplayCacheTTL must be at least this long.
	ClockSkewWindow time.Duration
	// SendTimeout is the default deadline for outbound message delivery.
	SendTimeout time.Duration

	// MTLSEnabled indicates whether agent registration issues certificates and
	// high-security channels require mutual TLS.
	MTLSEnabled bool
	// MFARequired is surfaced in authentication results for the host application.
	MFARequired bool
	// AllowedIPs is a comma-separated list of IPs or CIDR ranges permitted to
	// authenticate. Empty means no IP restriction.
	AllowedIPs string
	// AllowedUserAgents is a comma-separated list of user-agent substrings
	// permitted to authenticate. Empty means no user-agent restriction.
	AllowedUserAgents string
	// AuditKey is the base64-encoded key used to sign audit events.
	AuditKey string

	// RateLimitEnabled indicates whether per-client rate limiting is enforced.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of requests allowed per second per client.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size for per-client rate limiting.
	RateLimitBurst int

	// HealthDegradedThreshold is the round-trip latency above which a
	// successful health check reports degraded instead of healthy.
	HealthDegradedThreshold time.Duration

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Agent identity
		AgentID:      env.GetString("AGENT_ID", "local-agent"),
		AgentBaseURL: env.GetString("AGENT_BASE_URL", "http://localhost:8080"),

		// Server configuration
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 8080),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Token authority
		AccessTokenExpiration:       env.GetDuration("ACCESS_TOKEN_EXPIRATION_SECONDS", 3600, time.Second),
		RefreshTokenExpiration:      env.GetDuration("REFRESH_TOKEN_EXPIRATION_SECONDS", 2592000, time.Second),
		AuthorizationCodeExpiration: env.GetDuration("AUTHORIZATION_CODE_EXPIRATION_SECONDS", 600, time.Second),
		SweepInterval:               env.GetDuration("SWEEP_INTERVAL_SECONDS", 300, time.Second),

		// Certificate authority
		CACommonName:        env.GetString("CA_COMMON_NAME", "Agent Trust Root CA"),
		CertValidityDays:    env.GetInt("CERT_VALIDITY_DAYS", 365),
		CertGracePeriodDays: env.GetInt("CERT_GRACE_PERIOD_DAYS", 30),
		KeeperURI:           env.GetString("KEEPER_URI", ""),

		// Secure channel
		ChannelMasterKey:    env.GetString("CHANNEL_MASTER_KEY", ""),
		ReplayCacheTTL:      env.GetDuration("REPLAY_CACHE_TTL_SECONDS", 600, time.Second),
		ReplayCacheCapacity: env.GetInt("REPLAY_CACHE_CAPACITY", 100000),
		ClockSkewWindow:     env.GetDuration("CLOCK_SKEW_WINDOW_SECONDS", 300, time.Second),
		SendTimeout:         env.GetDuration("SEND_TIMEOUT_SECONDS", 30, time.Second),

		// Security policy
		MTLSEnabled:       env.GetBool("MTLS_ENABLED", true),
		MFARequired:       env.GetBool("MFA_REQUIRED", false),
		AllowedIPs:        env.GetString("ALLOWED_IPS", ""),
		AllowedUserAgents: env.GetString("ALLOWED_USER_AGENTS", ""),
		AuditKey:          env.GetString("AUDIT_KEY", ""),

		// Rate limiting
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 10.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 20),

		// Health checks
		HealthDegradedThreshold: env.GetDuration("HEALTH_DEGRADED_THRESHOLD_MS", 1000, time.Millisecond),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "trust"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	case "info", "warn", "error":
		return "release"
	default:
		return "release"
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
