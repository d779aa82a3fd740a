package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/BradenHooton/showcase/internal/models"
	pkglogger "github.com/BradenHooton/showcase/pkg/logger"
)

// SessionConfig holds session cookie settings
type SessionConfig struct {
	Secret  string
	Timeout time.Duration
	Cookie  CookieConfig
	Now     func() time.Time // nil = time.Now
}

// SessionManager issues, validates and destroys cookie-backed sessions.
//
// Two checks are exposed:
//   - IsAuthenticated is authoritative and destroys an expired cookie
//   - IsAuthenticatedRequest only reads the request and never mutates anything
type SessionManager struct {
	sealer      *Sealer
	timeout     time.Duration
	cookie      CookieConfig
	now         func() time.Time
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewSessionManager creates a new SessionManager instance
func NewSessionManager(config SessionConfig, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) (*SessionManager, error) {
	if config.Cookie.Name == "" {
		config.Cookie.Name = DefaultSessionCookieName
	}
	if config.Cookie.SameSite == "" {
		config.Cookie.SameSite = "strict"
	}
	if config.Timeout <= 0 {
		return nil, fmt.Errorf("session timeout must be positive")
	}

	sealer, err := NewSealer(config.Secret, config.Cookie.Name)
	if err != nil {
		return nil, err
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &SessionManager{
		sealer:      sealer,
		timeout:     config.Timeout,
		cookie:      config.Cookie,
		now:         now,
		logger:      logger,
		auditLogger: auditLogger,
	}, nil
}

// Timeout returns the absolute session lifetime
func (sm *SessionManager) Timeout() time.Duration {
	return sm.timeout
}

// CookieName returns the name of the session cookie
func (sm *SessionManager) CookieName() string {
	return sm.cookie.Name
}

// Issue seals a fresh authenticated session and returns the payload with its cookie value.
func (sm *SessionManager) Issue() (*models.Session, string, error) {
	session := &models.Session{
		Version:         models.SessionVersion,
		ID:              uuid.NewString(),
		IsAuthenticated: true,
		LoginTime:       sm.now().UnixMilli(),
	}

	value, err := sm.sealer.Seal(session)
	if err != nil {
		return nil, "", err
	}
	return session, value, nil
}

// Create issues a session and writes it to the response cookie
func (sm *SessionManager) Create(w http.ResponseWriter) (*models.Session, error) {
	session, value, err := sm.Issue()
	if err != nil {
		return nil, err
	}
	sm.SetCookie(w, value)
	return session, nil
}

// SetCookie writes an already sealed session value to the response
func (sm *SessionManager) SetCookie(w http.ResponseWriter, value string) {
	SetSessionCookie(w, value, sm.timeout, sm.cookie)
}

// Destroy overwrites the session cookie so it no longer decodes. Always safe to call.
func (sm *SessionManager) Destroy(w http.ResponseWriter) {
	ClearSessionCookie(w, sm.cookie)
}

// Read returns the decoded session carried by the request, if valid.
func (sm *SessionManager) Read(r *http.Request) (*models.Session, error) {
	value, err := GetSessionCookie(r, sm.cookie.Name)
	if err != nil {
		return nil, models.ErrSessionInvalid
	}

	session, err := sm.sealer.Open(value)
	if err != nil {
		return nil, models.ErrSessionInvalid
	}
	if !session.IsAuthenticated || session.LoginTime <= 0 {
		return nil, models.ErrSessionInvalid
	}
	return session, nil
}

// IsAuthenticated is the full check. An expired session is destroyed on w
// before false is returned.
func (sm *SessionManager) IsAuthenticated(w http.ResponseWriter, r *http.Request) bool {
	session, err := sm.Read(r)
	if err != nil {
		return false
	}

	if session.ValidAt(sm.now(), sm.timeout) {
		return true
	}

	sm.Destroy(w)
	if sm.logger != nil {
		sm.logger.Debug("expired session destroyed",
			slog.String("session_id", session.ID),
			slog.Time("login_time", session.LoginAt()),
		)
	}
	if sm.auditLogger != nil {
		sm.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     pkglogger.EventSessionExpired,
			SessionID:     session.ID,
			UserAgent:     r.UserAgent(),
			Success:       false,
			FailureReason: "session_expired",
		})
	}
	return false
}

// IsAuthenticatedRequest is the read-only edge check. It applies the same
// validation as IsAuthenticated but never touches the response.
func (sm *SessionManager) IsAuthenticatedRequest(r *http.Request) bool {
	session, err := sm.Read(r)
	if err != nil {
		return false
	}
	return session.ValidAt(sm.now(), sm.timeout)
}

// SessionID returns the id of a valid session on the request, or ""
func (sm *SessionManager) SessionID(r *http.Request) string {
	session, err := sm.Read(r)
	if err != nil || !session.ValidAt(sm.now(), sm.timeout) {
		return ""
	}
	return session.ID
}
