package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-session-secret-with-32-plus-characters"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, "./public", cfg.Server.SiteDir)

	assert.Equal(t, 24*time.Hour, cfg.Session.Timeout)
	assert.Equal(t, "auth-session", cfg.Session.CookieName)
	assert.False(t, cfg.Session.Secure)

	assert.Equal(t, AttemptStoreMemory, cfg.Auth.AttemptStore)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AttemptRetention)
	assert.Equal(t, time.Hour, cfg.Auth.CleanupInterval)
	assert.Equal(t, 20, cfg.Auth.LoginRequestsPerMinute)
	assert.True(t, cfg.Auth.TrustProxyHeaders)
	assert.Empty(t, cfg.Auth.Password)

	assert.False(t, cfg.Alert.Enabled())
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_TIMEOUT", "60000")
	t.Setenv("SERVER_READ_TIMEOUT", "30s")
	t.Setenv("TRUST_PROXY_HEADERS", "false")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2")
	t.Setenv("ALLOWED_ORIGINS", "https://showcase.example.com")
	t.Setenv("AUTH_PASSWORD", "hunter2")
	t.Setenv("LOCKOUT_ALERT_EMAIL", "ops@example.com")
	t.Setenv("LOCKOUT_ALERT_FROM", "noreply@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Session.Timeout)
	assert.True(t, cfg.Session.Secure)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.False(t, cfg.Auth.TrustProxyHeaders)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Auth.TrustedProxies)
	assert.Equal(t, []string{"https://showcase.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "hunter2", cfg.Auth.Password)
	assert.True(t, cfg.Alert.Enabled())
}

func TestLoad_InvalidSessionTimeoutFallsBack(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("SESSION_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionTimeout, cfg.Session.Timeout)
}

func TestLoad_SessionSecretValidation(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr string
	}{
		{"missing", "", "SESSION_SECRET is required"},
		{"too short", "short-secret", "at least 32 characters"},
		{"placeholder", "complex_password_at_least_32_characters_long", "well-known placeholder"},
		{"repeated", strings.Repeat("A", 32), "well-known placeholder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SESSION_SECRET", tt.secret)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_AttemptStore(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", testSecret)
		t.Setenv("ATTEMPT_STORE", "redis")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ATTEMPT_STORE")
	})

	t.Run("postgres requires credentials", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", testSecret)
		t.Setenv("ATTEMPT_STORE", "postgres")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("postgres with url", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", testSecret)
		t.Setenv("ATTEMPT_STORE", "Postgres")
		t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/showcase")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, AttemptStorePostgres, cfg.Auth.AttemptStore)
		assert.Equal(t, "postgres://u:p@db:5432/showcase", cfg.Database.DSN())
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Name:     "showcase",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=showcase sslmode=disable", cfg.DSN())
}
