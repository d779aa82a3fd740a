package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	pkghttp "github.com/BradenHooton/showcase/pkg/http"
)

// RateLimitConfig holds the coarse request cap placed in front of the
// progressive login limiter
type RateLimitConfig struct {
	RequestsPerMinute int
	IPConfig          *pkghttp.IPConfig
}

// DefaultLoginRateLimit returns the default cap for POST /auth
func DefaultLoginRateLimit(ipConfig *pkghttp.IPConfig) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 20,
		IPConfig:          ipConfig,
	}
}

// RateLimitByClient caps raw request volume per client identifier. It uses
// the same identifier as the login gate so both layers agree on who a
// client is, including when proxy headers are not trusted.
func RateLimitByClient(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientID(r, config.IPConfig), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "Rate limit exceeded")
		}),
	)
}
