package models

import "time"

// SessionVersion is bumped whenever the sealed payload shape changes
const SessionVersion = 1

// Session is the payload sealed inside the session cookie.
// The cookie itself is the session record; nothing is stored server-side.
type Session struct {
	Version         int    `json:"v"`
	ID              string `json:"sid"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	LoginTime       int64  `json:"loginTime"` // epoch milliseconds
}

// LoginAt returns LoginTime as a time.Time
func (s *Session) LoginAt() time.Time {
	return time.UnixMilli(s.LoginTime)
}

// ValidAt reports whether the session is authenticated and younger than timeout at now
func (s *Session) ValidAt(now time.Time, timeout time.Duration) bool {
	if s == nil || !s.IsAuthenticated || s.LoginTime <= 0 {
		return false
	}
	return now.Sub(s.LoginAt()) < timeout
}
