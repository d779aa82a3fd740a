package logger

import (
	"context"
	"log/slog"
	"time"
)

// Audit event types
const (
	EventLoginSuccess     = "login_success"
	EventLoginFailed      = "login_failed"
	EventLoginRateLimited = "login_rate_limited"
	EventLogout           = "logout"
	EventSessionExpired   = "session_expired"
	EventLockoutEscalated = "lockout_escalated"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	ClientID      string // masked before it is written
	SessionID     string
	UserAgent     string
	Success       bool
	FailureReason string
	Attempts      int
	Cooldown      time.Duration
}

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuthAttempt logs login, logout and lockout events
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.ClientID != "" {
		attrs = append(attrs, slog.String("client_id", MaskClientID(event.ClientID)))
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	if event.Attempts > 0 {
		attrs = append(attrs, slog.Int("attempts", event.Attempts))
	}
	if event.Cooldown > 0 {
		attrs = append(attrs, slog.Duration("cooldown", event.Cooldown))
	}

	if event.Success {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}
