package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/showcase/internal/models"
	"github.com/BradenHooton/showcase/internal/services"
	pkghttp "github.com/BradenHooton/showcase/pkg/http"
)

// maxLoginBodyBytes bounds the POST /auth body
const maxLoginBodyBytes = 4 << 10

// invalidPasswordMessage is the only credential error ever shown to callers
const invalidPasswordMessage = "Invalid password"

// AuthServiceInterface defines the interface for the login gate
type AuthServiceInterface interface {
	Login(ctx context.Context, req services.LoginRequest) (*services.LoginResult, error)
	Logout(ctx context.Context, clientID, sessionID, userAgent string)
}

// SessionManagerInterface defines the cookie operations the handler needs
type SessionManagerInterface interface {
	SetCookie(w http.ResponseWriter, value string)
	Destroy(w http.ResponseWriter)
	IsAuthenticated(w http.ResponseWriter, r *http.Request) bool
	SessionID(r *http.Request) string
}

// RateLimitInfoInterface exposes limiter diagnostics
type RateLimitInfoInterface interface {
	Status(ctx context.Context, clientID string) (models.RateLimitStatus, error)
	Stats(ctx context.Context) (models.RateLimitStats, error)
	AttemptWarning(attempts int) string
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	sessions SessionManagerInterface
	limiter  RateLimitInfoInterface
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, sessions SessionManagerInterface, limiter RateLimitInfoInterface, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		sessions: sessions,
		limiter:  limiter,
		ipConfig: ipConfig,
		logger:   logger,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Password string `json:"password" validate:"required,max=1024"`
}

// SuccessResponse is returned by login and logout
type SuccessResponse struct {
	Success bool `json:"success"`
}

// InvalidPasswordResponse is returned with 401
type InvalidPasswordResponse struct {
	Error    string `json:"error"`
	Attempts int    `json:"attempts"`
	Cooldown int64  `json:"cooldown"` // milliseconds
	Warning  string `json:"warning,omitempty"`
}

// RateLimitedResponse is returned with 429
type RateLimitedResponse struct {
	Error         string `json:"error"`
	Attempts      int    `json:"attempts"`
	RemainingTime int64  `json:"remainingTime"` // milliseconds
}

// SessionStatusResponse is returned by GET /auth
type SessionStatusResponse struct {
	IsAuthenticated bool `json:"isAuthenticated"`
}

// Login handles POST /auth
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	clientID := pkghttp.ExtractClientID(r, h.ipConfig)

	result, err := h.service.Login(r.Context(), services.LoginRequest{
		ClientID:  clientID,
		Password:  req.Password,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.writeLoginError(w, err)
		return
	}

	h.sessions.SetCookie(w, result.CookieValue)
	pkghttp.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// writeLoginError maps gate outcomes onto 401, 429 or 500
func (h *AuthHandler) writeLoginError(w http.ResponseWriter, err error) {
	var rateLimitErr *models.RateLimitError
	var credentialErr *models.CredentialError

	switch {
	case errors.As(err, &rateLimitErr):
		pkghttp.WriteJSON(w, http.StatusTooManyRequests, RateLimitedResponse{
			Error:         rateLimitErr.Message,
			Attempts:      rateLimitErr.Attempts,
			RemainingTime: rateLimitErr.RemainingTime.Milliseconds(),
		})
	case errors.As(err, &credentialErr):
		// A missing AUTH_PASSWORD lands here too; it is logged by the service
		pkghttp.WriteJSON(w, http.StatusUnauthorized, InvalidPasswordResponse{
			Error:    invalidPasswordMessage,
			Attempts: credentialErr.Attempts,
			Cooldown: credentialErr.Cooldown.Milliseconds(),
			Warning:  h.limiter.AttemptWarning(credentialErr.Attempts),
		})
	default:
		h.logger.Error("login failed unexpectedly", slog.String("error", err.Error()))
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// Logout handles DELETE /auth. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessions.SessionID(r)
	h.sessions.Destroy(w)

	h.service.Logout(r.Context(), pkghttp.ExtractClientID(r, h.ipConfig), sessionID, r.UserAgent())
	pkghttp.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Session handles GET /auth using the full, self-healing check
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, SessionStatusResponse{
		IsAuthenticated: h.sessions.IsAuthenticated(w, r),
	})
}

// Status handles GET /auth/status for the calling client
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.limiter.Status(r.Context(), pkghttp.ExtractClientID(r, h.ipConfig))
	if err != nil {
		h.logger.Error("failed to read rate limit status", slog.String("error", err.Error()))
		pkghttp.WriteServiceUnavailable(w, "Rate limit status unavailable")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, status)
}

// Stats handles GET /auth/stats. Mounted behind the session gate.
func (h *AuthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.limiter.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to read rate limit stats", slog.String("error", err.Error()))
		pkghttp.WriteServiceUnavailable(w, "Rate limit stats unavailable")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, stats)
}
