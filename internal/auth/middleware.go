package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	pkghttp "github.com/BradenHooton/showcase/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// SessionContextKey marks requests that passed the edge check
	SessionContextKey contextKey = "session"

	// DefaultLoginPath is where unauthenticated browsers are sent
	DefaultLoginPath = "/login"
)

// SessionChecker is the read-only edge check used by RequireSession
type SessionChecker interface {
	IsAuthenticatedRequest(r *http.Request) bool
}

// GateConfig controls how RequireSession rejects a request
type GateConfig struct {
	LoginPath string
}

// RequireSession gates a handler on the edge check. It never modifies the
// session cookie: browsers are redirected to the login page with the original
// path preserved, API callers get a 401 JSON body.
func RequireSession(checker SessionChecker, config GateConfig) func(next http.Handler) http.Handler {
	loginPath := config.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if checker.IsAuthenticatedRequest(r) {
				ctx := context.WithValue(r.Context(), SessionContextKey, true)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if wantsJSON(r) {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			target := loginPath + "?redirect=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
		})
	}
}

// IsSessionRequest reports whether the request passed RequireSession
func IsSessionRequest(r *http.Request) bool {
	ok, _ := r.Context().Value(SessionContextKey).(bool)
	return ok
}

// wantsJSON treats fetch/XHR style requests as API callers
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}
