// Package ratelimit throttles attempts per (client, endpoint) with a sliding
// window counted from timestamped entries in the store.
package ratelimit

import (
	"context"
	"fmt"
	"maps"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/store"
)

const keyPrefix = "rateLimit"

// Profile names.
const (
	ProfileLogin  = "login"
	ProfilePrayer = "prayer"
	ProfileForm   = "form"
)

// Profile is an attempt budget over a trailing window.
type Profile struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Window      time.Duration `yaml:"window"`
}

func (p Profile) validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1, got %d", p.MaxAttempts)
	}
	if p.Window <= 0 {
		return fmt.Errorf("window must be > 0, got %v", p.Window)
	}
	return nil
}

// DefaultProfiles returns the built-in budgets.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		ProfileLogin:  {MaxAttempts: 5, Window: 15 * time.Minute},
		ProfilePrayer: {MaxAttempts: 3, Window: time.Hour},
		ProfileForm:   {MaxAttempts: 10, Window: time.Hour},
	}
}

// Decision is the outcome of one check. A rejection is a value, not an error.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // zero when allowed
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, for the
// Retry-After header.
func (d Decision) RetryAfterSeconds() int {
	return int((d.RetryAfter + time.Second - 1) / time.Second)
}

// Limiter counts attempts in the store.
type Limiter struct {
	st       store.Store
	profiles map[string]Profile
	log      logger.Logger

	now   func() time.Time
	newID func() string
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithProfiles merges overrides over the defaults.
func WithProfiles(overrides map[string]Profile) Option {
	return func(l *Limiter) { maps.Copy(l.profiles, overrides) }
}

func New(st store.Store, log logger.Logger, opts ...Option) (*Limiter, error) {
	l := &Limiter{
		st:       st,
		profiles: DefaultProfiles(),
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	for name, p := range l.profiles {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("rate limit profile %q: %w", name, err)
		}
	}
	return l, nil
}

// Profile returns a named profile.
func (l *Limiter) Profile(name string) (Profile, bool) {
	p, ok := l.profiles[name]
	return p, ok
}

// CheckAndRecord counts the attempts of clientKey on endpoint inside the
// profile window. Under budget, it records a new attempt and allows it.
//
// The count and the record are separate store calls: simultaneous requests
// from one client can all pass before any of them is recorded.
func (l *Limiter) CheckAndRecord(ctx context.Context, clientKey, endpoint string, p Profile) (Decision, error) {
	now := l.now().UTC()
	cutoff := now.Add(-p.Window)
	bucket := store.K(keyPrefix, clientKey+":"+endpoint)

	count := 0
	var oldest time.Time
	for e, err := range l.st.Scan(ctx, bucket, store.ScanOptions{}) {
		if err != nil {
			return Decision{}, err
		}
		at, ok := entryTime(e)
		if !ok || at.Before(cutoff) {
			continue
		}
		if count == 0 {
			oldest = at
		}
		count++
	}

	if count >= p.MaxAttempts {
		return Decision{
			Allowed:    false,
			RetryAfter: retryAfter(oldest.Add(p.Window).Sub(now)),
		}, nil
	}

	entry := domain.RateLimitEntry{ClientKey: clientKey, Endpoint: endpoint, At: now}
	data, err := jsonx.Marshal(entry)
	if err != nil {
		return Decision{}, err
	}
	if err := l.st.Set(ctx, bucket.Append(now, l.newID()), data); err != nil {
		return Decision{}, fmt.Errorf("failed to record attempt: %w", err)
	}
	return Decision{Allowed: true, Remaining: p.MaxAttempts - count - 1}, nil
}

// Sweep deletes every entry older than the longest profile window.
func (l *Limiter) Sweep(ctx context.Context) (int, error) {
	longest := time.Duration(0)
	for _, p := range l.profiles {
		longest = max(longest, p.Window)
	}
	cutoff := l.now().Add(-longest)

	return store.Prune(ctx, l.st, store.K(keyPrefix), func(e store.Entry) store.PruneAction {
		at, ok := entryTime(e)
		if !ok || at.Before(cutoff) {
			return store.Remove
		}
		return store.Keep
	}, func(e store.Entry, err error) {
		l.log.Warn("rate limit sweep delete failed", logger.String("key", e.Key), logger.Error(err))
	})
}

// entryTime reads the timestamp segment of rateLimit/{bucket}/{at}/{id}.
func entryTime(e store.Entry) (time.Time, bool) {
	segs := e.Segments()
	if len(segs) < 3 {
		return time.Time{}, false
	}
	at, err := store.DecodeTime(segs[2])
	return at, err == nil
}

// retryAfter rounds up to a whole second, never below one.
func retryAfter(d time.Duration) time.Duration {
	secs := math.Ceil(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}
