package models

import "time"

// AttemptRecord tracks consecutive failed logins for one client identifier
type AttemptRecord struct {
	ClientID      string    `db:"client_id"`
	Attempts      int       `db:"attempts"`
	LastAttemptAt time.Time `db:"last_attempt_at"`
	CooldownUntil time.Time `db:"cooldown_until"` // zero when not in cooldown
}

// IsZero reports whether the record represents a fresh client
func (r AttemptRecord) IsZero() bool {
	return r.Attempts == 0
}

// InCooldown reports whether new attempts are rejected at now
func (r AttemptRecord) InCooldown(now time.Time) bool {
	return !r.CooldownUntil.IsZero() && r.CooldownUntil.After(now)
}

// RateLimitCheck is the result of asking whether a client may attempt a login
type RateLimitCheck struct {
	Limited       bool
	RemainingTime time.Duration
	Attempts      int
	Message       string
}

// FailedAttemptResult describes the state after a failure was recorded
type FailedAttemptResult struct {
	Attempts      int
	CooldownUntil time.Time
	Cooldown      time.Duration
}

// RateLimitStatus is the diagnostic view of one client's limiter state
type RateLimitStatus struct {
	ClientID          string     `json:"clientId"`
	Attempts          int        `json:"attempts"`
	IsInCooldown      bool       `json:"isInCooldown"`
	CooldownRemaining int64      `json:"cooldownRemaining"` // milliseconds
	LastAttempt       *time.Time `json:"lastAttempt"`
}

// RateLimitStats aggregates limiter state across all tracked clients
type RateLimitStats struct {
	TotalClients int                   `json:"totalClients"`
	Clients      []ClientAttemptSummary `json:"clients"`
}

// ClientAttemptSummary is one masked entry of RateLimitStats
type ClientAttemptSummary struct {
	ID            string     `json:"id"`
	Attempts      int        `json:"attempts"`
	LastAttempt   time.Time  `json:"lastAttempt"`
	CooldownUntil *time.Time `json:"cooldownUntil"`
}
