package middleware

import "net/http"

// SecurityHeadersConfig holds security headers configuration
type SecurityHeadersConfig struct {
	Env string
}

// SecurityHeaders returns a middleware that adds security headers to all responses
func SecurityHeaders(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	production := config.Env == "production"

	// The gallery demos draw on canvas/WebGL and spin up blob: workers
	var csp string
	if production {
		csp = "default-src 'self'; " +
			"script-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data: blob: https:; " +
			"font-src 'self'; " +
			"connect-src 'self' https:; " +
			"worker-src 'self' blob:; " +
			"frame-ancestors 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'"
	} else {
		// Lenient for hot reloading
		csp = "default-src 'self' http: https: ws:; " +
			"script-src 'self' 'unsafe-inline' 'unsafe-eval' http: https: ws:; " +
			"style-src 'self' 'unsafe-inline' http: https:; " +
			"img-src 'self' data: blob: https: http:; " +
			"font-src 'self' data: http: https:; " +
			"connect-src 'self' http: https: ws: wss:; " +
			"worker-src 'self' blob:; " +
			"frame-ancestors 'self'; " +
			"base-uri 'self'; " +
			"form-action 'self'"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", csp)

			// Everything behind the password is private
			h.Set("X-Robots-Tag", "noindex, nofollow")

			// HSTS only over HTTPS in production
			if production && (r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https") {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			h.Set("Permissions-Policy",
				"camera=(), "+
					"geolocation=(), "+
					"microphone=(), "+
					"payment=(), "+
					"usb=()",
			)
			h.Set("X-DNS-Prefetch-Control", "off")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")

			next.ServeHTTP(w, r)
		})
	}
}
