package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// MinSessionSecretLength is the shortest SESSION_SECRET accepted
	MinSessionSecretLength = 32

	// DefaultSessionTimeout matches the 86 400 000 ms default of SESSION_TIMEOUT
	DefaultSessionTimeout = 24 * time.Hour

	AttemptStoreMemory   = "memory"
	AttemptStorePostgres = "postgres"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Session  SessionConfig
	Database DatabaseConfig
	Alert    AlertConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	SiteDir        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	// Password is the shared secret or its bcrypt hash. Empty means login can
	// never succeed; it is reported at runtime instead of failing startup.
	Password               string
	AttemptStore           string
	AttemptRetention       time.Duration
	CleanupInterval        time.Duration
	LoginRequestsPerMinute int
	TrustProxyHeaders      bool
	TrustedProxies         []string
	TimingDelayBaseMs      int
	TimingDelayRandomMs    int
}

type SessionConfig struct {
	Secret       string
	Timeout      time.Duration
	CookieName   string
	CookieDomain string
	Secure       bool
}

type DatabaseConfig struct {
	URL               string
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// AlertConfig controls the optional lockout alert email
type AlertConfig struct {
	Recipient   string
	FromAddress string
	AWSRegion   string
}

// Enabled reports whether lockout alerts should be sent
func (c AlertConfig) Enabled() bool {
	return c.Recipient != "" && c.FromAddress != ""
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	sessionSecret := getEnv("SESSION_SECRET", "")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			SiteDir:        getEnv("SITE_DIR", "./public"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			Password:               os.Getenv("AUTH_PASSWORD"),
			AttemptStore:           strings.ToLower(getEnv("ATTEMPT_STORE", AttemptStoreMemory)),
			AttemptRetention:       getEnvAsDuration("ATTEMPT_RETENTION", 24*time.Hour),
			CleanupInterval:        getEnvAsDuration("ATTEMPT_CLEANUP_INTERVAL", 1*time.Hour),
			LoginRequestsPerMinute: getEnvAsInt("LOGIN_REQUESTS_PER_MINUTE", 20),
			TrustProxyHeaders:      getEnvAsBool("TRUST_PROXY_HEADERS", true),
			TrustedProxies:         splitList(getEnv("TRUSTED_PROXIES", "")),
			TimingDelayBaseMs:      getEnvAsInt("TIMING_DELAY_BASE_MS", 250),
			TimingDelayRandomMs:    getEnvAsInt("TIMING_DELAY_RANDOM_MS", 250),
		},
		Session: SessionConfig{
			Secret:       sessionSecret,
			Timeout:      getEnvAsMillis("SESSION_TIMEOUT", DefaultSessionTimeout),
			CookieName:   getEnv("SESSION_COOKIE_NAME", "auth-session"),
			CookieDomain: getEnv("COOKIE_DOMAIN", ""),
			Secure:       env == "production",
		},
		Database: DatabaseConfig{
			URL:               getEnv("DATABASE_URL", ""),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "showcase"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 1)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Alert: AlertConfig{
			Recipient:   getEnv("LOCKOUT_ALERT_EMAIL", ""),
			FromAddress: getEnv("LOCKOUT_ALERT_FROM", ""),
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
		},
	}

	if err := validateSessionSecret(sessionSecret); err != nil {
		return nil, err
	}

	switch cfg.Auth.AttemptStore {
	case AttemptStoreMemory:
	case AttemptStorePostgres:
		if cfg.Database.URL == "" && cfg.Database.Password == "" {
			return nil, fmt.Errorf("DATABASE_URL or DB_PASSWORD is required when ATTEMPT_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("ATTEMPT_STORE must be %q or %q (got %q)",
			AttemptStoreMemory, AttemptStorePostgres, cfg.Auth.AttemptStore)
	}

	if cfg.Session.Timeout <= 0 {
		cfg.Session.Timeout = DefaultSessionTimeout
	}

	return cfg, nil
}

// validateSessionSecret enforces minimum security standards for the cookie key
func validateSessionSecret(secret string) error {
	if len(secret) < MinSessionSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters (got %d)",
			MinSessionSecretLength, len(secret))
	}

	// Placeholders that circulate in example .env files
	weakSecrets := []string{
		"complex_password_at_least_32_characters_long",
		strings.Repeat("a", MinSessionSecretLength),
	}

	for _, weak := range weakSecrets {
		if strings.EqualFold(secret, weak) {
			return fmt.Errorf("SESSION_SECRET cannot be a well-known placeholder value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

// getEnvAsMillis reads an integer number of milliseconds
func getEnvAsMillis(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return splitList(getEnv("ALLOWED_ORIGINS", ""))
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
	}
}
