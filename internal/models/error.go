package models

import (
	"errors"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Login gate outcomes
	ErrRateLimited          = errors.New("too many failed attempts")
	ErrInvalidCredential    = errors.New("invalid password")
	ErrSessionInvalid       = errors.New("session invalid")
	ErrConfigurationMissing = errors.New("authentication is not configured")
)

// RateLimitError is returned when a client is inside an active cooldown.
type RateLimitError struct {
	Attempts      int
	RemainingTime time.Duration
	Message       string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// Is lets callers match the error with errors.Is(err, ErrRateLimited).
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// CredentialError is returned for a wrong password and carries the
// post-increment failure count and the cooldown it produced.
type CredentialError struct {
	Attempts int
	Cooldown time.Duration
}

func (e *CredentialError) Error() string {
	return ErrInvalidCredential.Error()
}

func (e *CredentialError) Is(target error) bool {
	return target == ErrInvalidCredential
}
