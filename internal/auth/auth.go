// Package auth manages admin sessions against the single configured admin
// identity.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/store"
)

const (
	// DefaultSessionTTL is how long a session stays valid after login.
	DefaultSessionTTL = 7 * 24 * time.Hour

	sessionPrefix      = "sessions"
	loginAttemptPrefix = "loginAttempts"
	securityPrefix     = "security"
)

// Credentials is the admin identity. PasswordHash (bcrypt) wins over
// Password when both are set.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
}

// Service is the session store.
type Service struct {
	st    store.Store
	creds Credentials
	ttl   time.Duration
	log   logger.Logger

	now   func() time.Time
	newID func() string
}

// Option tunes a Service, mostly for tests.
type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewService(st store.Store, creds Credentials, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		st:    st,
		creds: creds,
		ttl:   DefaultSessionTTL,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the session lifetime, used for the cookie Max-Age.
func (s *Service) TTL() time.Duration { return s.ttl }

// Login checks the credentials and opens a session. Bad credentials are not
// an error: ok is false and the attempt is recorded.
func (s *Service) Login(ctx context.Context, username, password, clientIP string) (string, bool, error) {
	if !s.checkCredentials(username, password) {
		s.recordFailure(ctx, username, clientIP)
		return "", false, nil
	}

	id, err := newSessionID()
	if err != nil {
		return "", false, err
	}
	now := s.now().UTC()
	sess := domain.Session{
		ID:        id,
		Username:  s.creds.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	data, err := jsonx.Marshal(sess)
	if err != nil {
		return "", false, err
	}
	if err := s.st.Set(ctx, sessionKey(id), data); err != nil {
		return "", false, fmt.Errorf("failed to store session: %w", err)
	}
	s.log.Info("admin logged in", logger.String("user", sess.Username), logger.String("ip", clientIP))
	return id, true, nil
}

// Validate returns the username behind a live session. An expired session
// is deleted on the spot.
func (s *Service) Validate(ctx context.Context, id string) (string, bool, error) {
	if id == "" {
		return "", false, nil
	}
	data, err := s.st.Get(ctx, sessionKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var sess domain.Session
	if err := jsonx.Unmarshal(data, &sess); err != nil {
		return "", false, fmt.Errorf("failed to decode session: %w", err)
	}
	if sess.Expired(s.now()) {
		if err := s.st.Delete(ctx, sessionKey(id)); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	return sess.Username, true, nil
}

// Logout deletes the session; unknown ids are fine.
func (s *Service) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.st.Delete(ctx, sessionKey(id))
}

// SweepExpired deletes every expired session and returns how many went.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()
	return store.Prune(ctx, s.st, store.K(sessionPrefix), func(e store.Entry) store.PruneAction {
		var sess domain.Session
		if err := jsonx.Unmarshal(e.Value, &sess); err != nil {
			s.log.Warn("dropping unreadable session", logger.String("key", e.Key), logger.Error(err))
			return store.Remove
		}
		if sess.Expired(now) {
			return store.Remove
		}
		return store.Keep
	}, s.logDeleteFailure)
}

// RecentLoginAttempts lists failed logins, newest first.
func (s *Service) RecentLoginAttempts(ctx context.Context, limit int) ([]*domain.LoginAttempt, error) {
	out := make([]*domain.LoginAttempt, 0)
	for e, err := range s.st.Scan(ctx, store.K(securityPrefix, loginAttemptPrefix), store.ScanOptions{Reverse: true, Limit: limit}) {
		if err != nil {
			return nil, err
		}
		var a domain.LoginAttempt
		if err := jsonx.Unmarshal(e.Value, &a); err != nil {
			return nil, fmt.Errorf("failed to decode login attempt: %w", err)
		}
		out = append(out, &a)
	}
	return out, nil
}

// SweepLoginAttempts deletes audit records older than cutoff.
func (s *Service) SweepLoginAttempts(ctx context.Context, cutoff time.Time) (int, error) {
	return store.Prune(ctx, s.st, store.K(securityPrefix, loginAttemptPrefix), store.Before(2, cutoff), s.logDeleteFailure)
}

// checkCredentials always evaluates the password so a wrong username takes
// as long as a wrong password.
func (s *Service) checkCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.creds.Username)) == 1
	var passOK bool
	if s.creds.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(s.creds.PasswordHash), []byte(password)) == nil
	} else {
		passOK = s.creds.Password != "" &&
			subtle.ConstantTimeCompare([]byte(password), []byte(s.creds.Password)) == 1
	}
	return userOK && passOK && s.creds.Username != ""
}

func (s *Service) recordFailure(ctx context.Context, username, clientIP string) {
	a := domain.LoginAttempt{
		ID:       s.newID(),
		Username: username,
		ClientIP: clientIP,
		At:       s.now().UTC(),
	}
	s.log.Warn("admin login failed", logger.String("user", username), logger.String("ip", clientIP))

	data, err := jsonx.Marshal(a)
	if err == nil {
		err = s.st.Set(ctx, store.K(securityPrefix, loginAttemptPrefix, a.At, a.ID), data)
	}
	if err != nil {
		s.log.Error("failed to record login attempt", logger.Error(err))
	}
}

func (s *Service) logDeleteFailure(e store.Entry, err error) {
	s.log.Warn("sweep delete failed", logger.String("key", e.Key), logger.Error(err))
}

// HashPassword returns a bcrypt hash for the admin password setting.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", domain.Invalid("password", "required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func sessionKey(id string) store.Key {
	return store.K(sessionPrefix, id)
}

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
