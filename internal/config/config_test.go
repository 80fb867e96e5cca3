package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.ServerHost)
				assert.Equal(t, 8080, cfg.ServerPort)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, time.Hour, cfg.AccessTokenExpiration)
				assert.Equal(t, 10*time.Minute, cfg.AuthorizationCodeExpiration)
				assert.Equal(t, 365, cfg.CertValidityDays)
				assert.Equal(t, 10*time.Minute, cfg.ReplayCacheTTL)
				assert.Equal(t, 5*time.Minute, cfg.ClockSkewWindow)
				assert.True(t, cfg.MTLSEnabled)
				assert.True(t, cfg.RateLimitEnabled)
			},
		},
		{
			name: "load custom agent configuration",
			envVars: map[string]string{
				"AGENT_ID":       "payment-agent",
				"AGENT_BASE_URL": "https://agent.example.com",
				"SERVER_PORT":    "9090",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "payment-agent", cfg.AgentID)
				assert.Equal(t, "https://agent.example.com", cfg.AgentBaseURL)
				assert.Equal(t, 9090, cfg.ServerPort)
			},
		},
		{
			name: "load custom token configuration",
			envVars: map[string]string{
				"ACCESS_TOKEN_EXPIRATION_SECONDS":       "600",
				"AUTHORIZATION_CODE_EXPIRATION_SECONDS": "120",
				"SWEEP_INTERVAL_SECONDS":                "60",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 10*time.Minute, cfg.AccessTokenExpiration)
				assert.Equal(t, 2*time.Minute, cfg.AuthorizationCodeExpiration)
				assert.Equal(t, time.Minute, cfg.SweepInterval)
			},
		},
		{
			name: "load custom security policy",
			envVars: map[string]string{
				"MTLS_ENABLED":        "false",
				"ALLOWED_IPS":         "10.0.0.0/8,192.168.1.5",
				"ALLOWED_USER_AGENTS": "omise-agent",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.MTLSEnabled)
				assert.Equal(t, "10.0.0.0/8,192.168.1.5", cfg.AllowedIPs)
				assert.Equal(t, "omise-agent", cfg.AllowedUserAgents)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				os.Setenv(key, value)
			}
			defer func() {
				for key := range tt.envVars {
					os.Unsetenv(key)
				}
			}()

			cfg := Load()
			tt.validate(t, cfg)
		})
	}
}

func TestGetGinMode(t *testing.T) {
	assert.Equal(t, "debug", (&Config{LogLevel: "debug"}).GetGinMode())
	assert.Equal(t, "release", (&Config{LogLevel: "info"}).GetGinMode())
	assert.Equal(t, "release", (&Config{LogLevel: "unknown"}).GetGinMode())
}
