package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/showcase/internal/auth"
	"github.com/BradenHooton/showcase/internal/models"
	pkgauth "github.com/BradenHooton/showcase/pkg/auth"
	pkglogger "github.com/BradenHooton/showcase/pkg/logger"
)

const lockoutNotifyTimeout = 10 * time.Second

// SessionIssuer seals a new authenticated session
type SessionIssuer interface {
	Issue() (*models.Session, string, error)
}

// LoginLimiter is the part of RateLimitService the login gate depends on
type LoginLimiter interface {
	IsRateLimited(ctx context.Context, clientID string) (models.RateLimitCheck, error)
	RecordFailedAttempt(ctx context.Context, clientID string) (models.FailedAttemptResult, error)
	RecordSuccessfulLogin(ctx context.Context, clientID string) error
	EntersFinalTier(attempts int) bool
}

// LoginRequest carries one login attempt
type LoginRequest struct {
	ClientID  string
	Password  string
	UserAgent string
}

// LoginResult is returned on a successful login
type LoginResult struct {
	Session     *models.Session
	CookieValue string
}

// AuthServiceConfig holds the shared credential and optional collaborators
type AuthServiceConfig struct {
	// Password is the plain shared secret or its bcrypt hash
	Password string
	Timing   *auth.TimingDelay
	Notifier LockoutNotifier
}

// AuthService runs the login transaction: rate limit check, password
// verification, then either session issuance or failure accounting
type AuthService struct {
	limiter     LoginLimiter
	sessions    SessionIssuer
	password    string
	timing      *auth.TimingDelay
	notifier    LockoutNotifier
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(limiter LoginLimiter, sessions SessionIssuer, config AuthServiceConfig, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	if config.Password == "" {
		logger.Error("AUTH_PASSWORD is not configured; every login will be denied")
	}
	return &AuthService{
		limiter:     limiter,
		sessions:    sessions,
		password:    config.Password,
		timing:      config.Timing,
		notifier:    config.Notifier,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Login performs one login attempt.
//
// Returns *models.RateLimitError while the client is cooling down (even for the
// correct password), *models.CredentialError for a wrong password, and an
// error matching models.ErrConfigurationMissing when no password is set.
// The rate limit check always runs first so a throttled attempt changes nothing.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	startTime := time.Now()

	check, err := s.limiter.IsRateLimited(ctx, req.ClientID)
	if err != nil {
		// Fail open: an unavailable attempt store must not lock everyone out
		s.logger.Error("rate limit check failed",
			slog.String("client_id", pkglogger.MaskClientID(req.ClientID)),
			slog.String("error", err.Error()))
		check = models.RateLimitCheck{}
	}

	if check.Limited {
		s.audit(pkglogger.AuditEvent{
			EventType:     pkglogger.EventLoginRateLimited,
			ClientID:      req.ClientID,
			UserAgent:     req.UserAgent,
			FailureReason: "cooldown_active",
			Attempts:      check.Attempts,
			Cooldown:      check.RemainingTime,
		})
		return nil, &models.RateLimitError{
			Attempts:      check.Attempts,
			RemainingTime: check.RemainingTime,
			Message:       check.Message,
		}
	}

	if s.password == "" {
		s.logger.Error("login attempted but AUTH_PASSWORD is not configured",
			slog.String("client_id", pkglogger.MaskClientID(req.ClientID)))
		s.audit(pkglogger.AuditEvent{
			EventType:     pkglogger.EventLoginFailed,
			ClientID:      req.ClientID,
			UserAgent:     req.UserAgent,
			FailureReason: "not_configured",
			Attempts:      check.Attempts,
		})
		s.timing.WaitFrom(ctx, startTime, false)
		return nil, fmt.Errorf("%w: %w", models.ErrConfigurationMissing,
			&models.CredentialError{Attempts: check.Attempts})
	}

	if !pkgauth.VerifyPassword(s.password, req.Password) {
		credErr := s.recordFailure(ctx, req, check)
		s.timing.WaitFrom(ctx, startTime, false)
		return nil, credErr
	}

	session, value, err := s.sessions.Issue()
	if err != nil {
		s.logger.Error("failed to issue session", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: issue session: %v", models.ErrInternalServer, err)
	}

	if err := s.limiter.RecordSuccessfulLogin(ctx, req.ClientID); err != nil {
		s.logger.Error("failed to reset login attempts",
			slog.String("client_id", pkglogger.MaskClientID(req.ClientID)),
			slog.String("error", err.Error()))
	}

	s.audit(pkglogger.AuditEvent{
		EventType: pkglogger.EventLoginSuccess,
		ClientID:  req.ClientID,
		SessionID: session.ID,
		UserAgent: req.UserAgent,
		Success:   true,
	})

	s.timing.WaitFrom(ctx, startTime, true)
	return &LoginResult{Session: session, CookieValue: value}, nil
}

// recordFailure counts a wrong password and escalates when the client
// enters the top penalty tier
func (s *AuthService) recordFailure(ctx context.Context, req LoginRequest, check models.RateLimitCheck) *models.CredentialError {
	result, err := s.limiter.RecordFailedAttempt(ctx, req.ClientID)
	if err != nil {
		s.logger.Error("failed to record failed login",
			slog.String("client_id", pkglogger.MaskClientID(req.ClientID)),
			slog.String("error", err.Error()))
		result = models.FailedAttemptResult{Attempts: check.Attempts + 1}
	}

	s.audit(pkglogger.AuditEvent{
		EventType:     pkglogger.EventLoginFailed,
		ClientID:      req.ClientID,
		UserAgent:     req.UserAgent,
		FailureReason: "invalid_password",
		Attempts:      result.Attempts,
		Cooldown:      result.Cooldown,
	})

	if err == nil && s.limiter.EntersFinalTier(result.Attempts) {
		s.audit(pkglogger.AuditEvent{
			EventType:     pkglogger.EventLockoutEscalated,
			ClientID:      req.ClientID,
			UserAgent:     req.UserAgent,
			FailureReason: "final_penalty_tier",
			Attempts:      result.Attempts,
			Cooldown:      result.Cooldown,
		})
		s.notifyLockout(ctx, req.ClientID, result)
	}

	return &models.CredentialError{Attempts: result.Attempts, Cooldown: result.Cooldown}
}

// notifyLockout sends the alert in the background so the response is not held up
func (s *AuthService) notifyLockout(ctx context.Context, clientID string, result models.FailedAttemptResult) {
	if s.notifier == nil {
		return
	}

	alert := LockoutAlert{
		ClientID:      clientID,
		Attempts:      result.Attempts,
		Cooldown:      result.Cooldown,
		CooldownUntil: result.CooldownUntil,
	}

	go func() {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockoutNotifyTimeout)
		defer cancel()

		if err := s.notifier.NotifyLockout(notifyCtx, alert); err != nil {
			s.logger.Error("failed to send lockout alert",
				slog.String("client_id", pkglogger.MaskClientID(clientID)),
				slog.String("error", err.Error()))
		}
	}()
}

// Logout records the logout. Clearing the cookie is the caller's job and
// succeeds whether or not a session existed.
func (s *AuthService) Logout(ctx context.Context, clientID, sessionID, userAgent string) {
	s.audit(pkglogger.AuditEvent{
		EventType: pkglogger.EventLogout,
		ClientID:  clientID,
		SessionID: sessionID,
		UserAgent: userAgent,
		Success:   true,
	})
}

func (s *AuthService) audit(event pkglogger.AuditEvent) {
	if s.auditLogger != nil {
		s.auditLogger.LogAuthAttempt(event)
	}
}
