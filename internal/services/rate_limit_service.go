package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/BradenHooton/showcase/internal/models"
	pkglogger "github.com/BradenHooton/showcase/pkg/logger"
)

// AttemptStore defines the storage operations the rate limiter depends on.
// Implementations must make Update atomic per client.
type AttemptStore interface {
	Get(ctx context.Context, clientID string) (models.AttemptRecord, error)
	Set(ctx context.Context, record models.AttemptRecord) error
	Delete(ctx context.Context, clientID string) error
	Update(ctx context.Context, clientID string, fn func(*models.AttemptRecord)) (models.AttemptRecord, error)
	Sweep(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]models.AttemptRecord, error)
}

// PenaltyTier imposes Cooldown once the failure count is at most MaxAttempts
type PenaltyTier struct {
	MaxAttempts int
	Cooldown    time.Duration
}

// DefaultPenaltySchedule is evaluated in order, first match wins
var DefaultPenaltySchedule = []PenaltyTier{
	{MaxAttempts: 3, Cooldown: 0},
	{MaxAttempts: 5, Cooldown: 5 * time.Minute},
	{MaxAttempts: 8, Cooldown: 30 * time.Minute},
	{MaxAttempts: 10, Cooldown: 2 * time.Hour},
	{MaxAttempts: math.MaxInt, Cooldown: 24 * time.Hour},
}

// RateLimitConfig holds configuration for rate limiting behavior
type RateLimitConfig struct {
	Penalties []PenaltyTier    // defaults to DefaultPenaltySchedule
	Now       func() time.Time // defaults to time.Now
}

// RateLimitService applies progressive cooldowns to clients that keep failing
// to log in
type RateLimitService struct {
	store     AttemptStore
	penalties []PenaltyTier
	now       func() time.Time
	logger    *slog.Logger
}

// NewRateLimitService creates a new RateLimitService
func NewRateLimitService(store AttemptStore, config RateLimitConfig, logger *slog.Logger) *RateLimitService {
	penalties := config.Penalties
	if len(penalties) == 0 {
		penalties = DefaultPenaltySchedule
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &RateLimitService{
		store:     store,
		penalties: penalties,
		now:       now,
		logger:    logger,
	}
}

// IsRateLimited reports whether the client is inside an active cooldown.
// It never modifies state.
func (s *RateLimitService) IsRateLimited(ctx context.Context, clientID string) (models.RateLimitCheck, error) {
	record, err := s.store.Get(ctx, clientID)
	if err != nil {
		return models.RateLimitCheck{}, err
	}

	now := s.now()
	if record.InCooldown(now) {
		remaining := record.CooldownUntil.Sub(now)
		return models.RateLimitCheck{
			Limited:       true,
			RemainingTime: remaining,
			Attempts:      record.Attempts,
			Message:       CooldownMessage(remaining),
		}, nil
	}

	return models.RateLimitCheck{Limited: false, Attempts: record.Attempts}, nil
}

// RecordFailedAttempt increments the client's failure count and recomputes its
// cooldown from the post-increment count
func (s *RateLimitService) RecordFailedAttempt(ctx context.Context, clientID string) (models.FailedAttemptResult, error) {
	now := s.now()
	var cooldown time.Duration

	record, err := s.store.Update(ctx, clientID, func(r *models.AttemptRecord) {
		r.Attempts++
		r.LastAttemptAt = now
		cooldown = s.PenaltyFor(r.Attempts)
		if cooldown > 0 {
			r.CooldownUntil = now.Add(cooldown)
		} else {
			r.CooldownUntil = time.Time{}
		}
	})
	if err != nil {
		return models.FailedAttemptResult{}, err
	}

	if cooldown > 0 {
		s.logger.Warn("login cooldown applied",
			slog.String("client_id", pkglogger.MaskClientID(clientID)),
			slog.Int("attempts", record.Attempts),
			slog.Duration("cooldown", cooldown))
	}

	cooldownUntil := record.CooldownUntil
	if cooldownUntil.IsZero() {
		// a zero cooldown still reports "until now", matching now + 0
		cooldownUntil = now
	}

	return models.FailedAttemptResult{
		Attempts:      record.Attempts,
		CooldownUntil: cooldownUntil,
		Cooldown:      cooldown,
	}, nil
}

// RecordSuccessfulLogin wipes all failure history for the client
func (s *RateLimitService) RecordSuccessfulLogin(ctx context.Context, clientID string) error {
	return s.store.Delete(ctx, clientID)
}

// CleanupOldEntries evicts records idle for longer than the store's retention
func (s *RateLimitService) CleanupOldEntries(ctx context.Context) (int64, error) {
	return s.store.Sweep(ctx)
}

// PenaltyFor returns the cooldown imposed after the given number of failures
func (s *RateLimitService) PenaltyFor(attempts int) time.Duration {
	for _, tier := range s.penalties {
		if attempts <= tier.MaxAttempts {
			return tier.Cooldown
		}
	}
	return s.penalties[len(s.penalties)-1].Cooldown
}

// EntersFinalTier reports whether the given failure count is the first one
// penalised by the most severe tier
func (s *RateLimitService) EntersFinalTier(attempts int) bool {
	if len(s.penalties) < 2 {
		return false
	}
	return attempts == s.lockoutThreshold()+1
}

// Status returns a diagnostic view of the client's limiter state
func (s *RateLimitService) Status(ctx context.Context, clientID string) (models.RateLimitStatus, error) {
	record, err := s.store.Get(ctx, clientID)
	if err != nil {
		return models.RateLimitStatus{}, err
	}

	now := s.now()
	status := models.RateLimitStatus{
		ClientID:     pkglogger.MaskClientID(clientID),
		Attempts:     record.Attempts,
		IsInCooldown: record.InCooldown(now),
	}
	if status.IsInCooldown {
		status.CooldownRemaining = record.CooldownUntil.Sub(now).Milliseconds()
	}
	if !record.LastAttemptAt.IsZero() {
		lastAttempt := record.LastAttemptAt.UTC()
		status.LastAttempt = &lastAttempt
	}
	return status, nil
}

// Stats summarises every tracked client, most recent first
func (s *RateLimitService) Stats(ctx context.Context) (models.RateLimitStats, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return models.RateLimitStats{}, err
	}

	now := s.now()
	sort.Slice(records, func(i, j int) bool {
		return records[i].LastAttemptAt.After(records[j].LastAttemptAt)
	})

	clients := make([]models.ClientAttemptSummary, 0, len(records))
	for _, record := range records {
		summary := models.ClientAttemptSummary{
			ID:          pkglogger.MaskClientID(record.ClientID),
			Attempts:    record.Attempts,
			LastAttempt: record.LastAttemptAt.UTC(),
		}
		if record.InCooldown(now) {
			until := record.CooldownUntil.UTC()
			summary.CooldownUntil = &until
		}
		clients = append(clients, summary)
	}

	return models.RateLimitStats{TotalClients: len(clients), Clients: clients}, nil
}

// CooldownMessage renders the user-facing lockout message with the remaining
// minutes rounded up
func CooldownMessage(remaining time.Duration) string {
	minutes := int(math.Ceil(remaining.Minutes()))
	return fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", minutes)
}

// Attempt counts from which the login response carries a warning
const (
	attemptNoticeThreshold  = 3
	attemptWarningThreshold = 8
)

// AttemptWarning returns the advisory message shown after a failed login.
// It is informational only; enforcement is the cooldown.
func (s *RateLimitService) AttemptWarning(attempts int) string {
	switch {
	case attempts >= attemptWarningThreshold:
		return "WARNING: Further attempts will result in longer cooldowns."
	case attempts >= attemptNoticeThreshold:
		return fmt.Sprintf("%d/%d attempts used.", attempts, s.lockoutThreshold())
	default:
		return ""
	}
}

// lockoutThreshold is the last failure count before the most severe tier
func (s *RateLimitService) lockoutThreshold() int {
	if len(s.penalties) < 2 {
		return s.penalties[0].MaxAttempts
	}
	return s.penalties[len(s.penalties)-2].MaxAttempts
}
