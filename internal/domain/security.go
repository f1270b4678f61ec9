package domain

import "time"

// Session is an authenticated admin session.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// LoginAttempt is the audit record of a failed admin login.
type LoginAttempt struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	ClientIP string    `json:"clientIp"`
	At       time.Time `json:"at"`
}

// RateLimitEntry is one recorded attempt against a throttled endpoint.
type RateLimitEntry struct {
	ClientKey string    `json:"clientKey"`
	Endpoint  string    `json:"endpoint"`
	At        time.Time `json:"at"`
}
