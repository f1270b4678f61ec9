package scheduler

import (
	"context"
	"iter"
	"time"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/logger"
)

const (
	DefaultAnalyticsRetention    = 90 * 24 * time.Hour
	DefaultPrayedRetention       = 30 * 24 * time.Hour
	DefaultLoginAttemptRetention = 30 * 24 * time.Hour
)

// Sessions expires admin sessions and login audit records.
type Sessions interface {
	SweepExpired(ctx context.Context) (int, error)
	SweepLoginAttempts(ctx context.Context, cutoff time.Time) (int, error)
}

// RateLimits drops attempts outside every window.
type RateLimits interface {
	Sweep(ctx context.Context) (int, error)
}

// PageViews exposes aged analytics records.
type PageViews interface {
	OlderThan(ctx context.Context, cutoff time.Time) iter.Seq2[*domain.PageView, error]
	Delete(ctx context.Context, v *domain.PageView) error
}

// Prayers exposes prayers marked prayed.
type Prayers interface {
	PrayedBefore(ctx context.Context, cutoff time.Time) iter.Seq2[*domain.Prayer, error]
	Delete(ctx context.Context, id string) error
}

// Retention sets how long aged records are kept. Zero selects the default.
type Retention struct {
	Analytics    time.Duration
	Prayed       time.Duration
	LoginAttempt time.Duration
}

func (r Retention) withDefaults() Retention {
	if r.Analytics <= 0 {
		r.Analytics = DefaultAnalyticsRetention
	}
	if r.Prayed <= 0 {
		r.Prayed = DefaultPrayedRetention
	}
	if r.LoginAttempt <= 0 {
		r.LoginAttempt = DefaultLoginAttemptRetention
	}
	return r
}

// Report counts what one sweep removed. Failed counts steps or items that
// errored; the sweep carried on past them.
type Report struct {
	Sessions      int `json:"sessions"`
	RateLimits    int `json:"rateLimits"`
	LoginAttempts int `json:"loginAttempts"`
	PageViews     int `json:"pageViews"`
	Prayers       int `json:"prayers"`
	Failed        int `json:"failed"`
}

func (r Report) Total() int {
	return r.Sessions + r.RateLimits + r.LoginAttempts + r.PageViews + r.Prayers
}

// Sweeper deletes expired and aged records. It does not schedule itself
// unless Start is called with a positive interval.
type Sweeper struct {
	sessions   Sessions
	rateLimits RateLimits
	pageViews  PageViews
	prayers    Prayers
	retention  Retention
	logger     logger.Logger
	now        func() time.Time
	stopCh     chan struct{}
}

// NewSweeper creates a new sweeper
func NewSweeper(
	sessions Sessions,
	rateLimits RateLimits,
	pageViews PageViews,
	prayers Prayers,
	retention Retention,
	log logger.Logger,
) *Sweeper {
	return &Sweeper{
		sessions:   sessions,
		rateLimits: rateLimits,
		pageViews:  pageViews,
		prayers:    prayers,
		retention:  retention.withDefaults(),
		logger:     log,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}
}

// Start runs a sweep every interval until Stop or ctx ends. A non-positive
// interval leaves scheduling to an external trigger.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.logger.Info("retention sweep not scheduled, trigger it externally")
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	s.logger.Info("retention sweep scheduled", logger.Duration("interval", interval))
}

// Stop stops the periodic sweep. Safe to call once.
func (s *Sweeper) Stop() {
	close(s.stopCh)
}

// Sweep runs every retention step. Failures are logged and counted, never
// returned: one broken step must not keep the others from running.
func (s *Sweeper) Sweep(ctx context.Context) Report {
	start := s.now()
	var rep Report

	s.step(ctx, "sessions", &rep.Sessions, &rep.Failed, s.sessions.SweepExpired)
	s.step(ctx, "rate_limits", &rep.RateLimits, &rep.Failed, s.rateLimits.Sweep)
	s.step(ctx, "login_attempts", &rep.LoginAttempts, &rep.Failed, func(ctx context.Context) (int, error) {
		return s.sessions.SweepLoginAttempts(ctx, start.Add(-s.retention.LoginAttempt))
	})
	rep.PageViews = s.collectPageViews(ctx, start.Add(-s.retention.Analytics), &rep.Failed)
	rep.Prayers = s.collectPrayers(ctx, start.Add(-s.retention.Prayed), &rep.Failed)

	fields := []logger.Field{
		logger.Int("sessions", rep.Sessions),
		logger.Int("rate_limits", rep.RateLimits),
		logger.Int("login_attempts", rep.LoginAttempts),
		logger.Int("page_views", rep.PageViews),
		logger.Int("prayers", rep.Prayers),
		logger.Int("failed", rep.Failed),
		logger.Duration("took", s.now().Sub(start)),
	}
	if rep.Total() > 0 || rep.Failed > 0 {
		s.logger.Info("retention sweep completed", fields...)
	} else {
		s.logger.Debug("nothing to sweep", fields...)
	}
	return rep
}

func (s *Sweeper) step(ctx context.Context, name string, removed, failed *int, run func(context.Context) (int, error)) {
	n, err := run(ctx)
	*removed = n
	if err != nil {
		*failed++
		s.logger.Error("sweep step failed", logger.String("step", name), logger.Int("removed", n), logger.Error(err))
	}
}

// collectPageViews removes page views older than cutoff
func (s *Sweeper) collectPageViews(ctx context.Context, cutoff time.Time, failed *int) int {
	deleted := 0
	for v, err := range s.pageViews.OlderThan(ctx, cutoff) {
		if err != nil {
			*failed++
			s.logger.Error("failed to scan page views", logger.Error(err))
			break
		}
		if err := s.pageViews.Delete(ctx, v); err != nil {
			*failed++
			s.logger.Warn("failed to delete page view",
				logger.String("page_view_id", v.ID),
				logger.Error(err))
			continue
		}
		deleted++
	}
	return deleted
}

// collectPrayers removes prayers prayed over before cutoff
func (s *Sweeper) collectPrayers(ctx context.Context, cutoff time.Time, failed *int) int {
	deleted := 0
	for p, err := range s.prayers.PrayedBefore(ctx, cutoff) {
		if err != nil {
			*failed++
			s.logger.Error("failed to scan prayed prayers", logger.Error(err))
			break
		}
		if err := s.prayers.Delete(ctx, p.ID); err != nil {
			*failed++
			s.logger.Warn("failed to delete prayed prayer",
				logger.String("prayer_id", p.ID),
				logger.Error(err))
			continue
		}
		s.logger.Debug("swept prayed prayer",
			logger.String("prayer_id", p.ID),
			logger.Time("prayed_at", *p.PrayedAt))
		deleted++
	}
	return deleted
}
