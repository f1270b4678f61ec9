package scheduler

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/MrSnakeDoc/ministry/internal/auth"
	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/ratelimit"
	"github.com/MrSnakeDoc/ministry/internal/repository"
	"github.com/MrSnakeDoc/ministry/internal/store/memory"
)

func TestSweeper_Sweep(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()
	st := memory.New()

	now := time.Now().UTC()
	clock := func() time.Time { return now }

	repos := repository.New(st, repository.WithClock(clock))
	sessions := auth.NewService(st, auth.Credentials{Username: "admin", Password: "pw"}, log, auth.WithClock(clock))
	limiter, err := ratelimit.New(st, log, ratelimit.WithClock(clock))
	if err != nil {
		t.Fatalf("ratelimit.New() error = %v", err)
	}

	// 100 days ago: a session, a failed login, a rate limit hit, a view and a prayed prayer
	now = now.Add(-100 * 24 * time.Hour)
	if _, ok, _ := sessions.Login(ctx, "admin", "pw", ""); !ok {
		t.Fatal("login failed")
	}
	_, _, _ = sessions.Login(ctx, "admin", "nope", "")
	_, _ = limiter.CheckAndRecord(ctx, "ip", "form", ratelimit.Profile{MaxAttempts: 5, Window: time.Hour})
	_, _ = repos.Analytics.Record(ctx, "/", "")
	req := "old"
	old, _ := repos.Prayers.Create(ctx, domain.PrayerInput{Request: &req})
	_, _ = repos.Prayers.MarkPrayed(ctx, old.ID)

	// 10 days ago: a view and a prayed prayer that must survive
	now = now.Add(90 * 24 * time.Hour)
	_, _ = repos.Analytics.Record(ctx, "/journal", "")
	recent, _ := repos.Prayers.Create(ctx, domain.PrayerInput{Request: &req})
	_, _ = repos.Prayers.MarkPrayed(ctx, recent.ID)

	now = now.Add(10 * 24 * time.Hour)
	sw := NewSweeper(sessions, limiter, repos.Analytics, repos.Prayers, Retention{}, log)
	sw.now = clock

	rep := sw.Sweep(ctx)

	want := Report{Sessions: 1, RateLimits: 1, LoginAttempts: 1, PageViews: 1, Prayers: 1}
	if rep != want {
		t.Errorf("Sweep() = %+v, want %+v", rep, want)
	}
	if _, err := repos.Prayers.Get(ctx, recent.ID); err != nil {
		t.Errorf("recent prayer removed: %v", err)
	}
	if _, err := repos.Prayers.Get(ctx, old.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("old prayer kept: %v", err)
	}

	if again := sw.Sweep(ctx); again.Total() != 0 {
		t.Errorf("second Sweep() removed %d, want 0", again.Total())
	}
}

type failingSessions struct{}

func (failingSessions) SweepExpired(context.Context) (int, error) {
	return 0, errors.New("boom")
}

func (failingSessions) SweepLoginAttempts(context.Context, time.Time) (int, error) {
	return 2, nil
}

type noRateLimits struct{}

func (noRateLimits) Sweep(context.Context) (int, error) { return 0, nil }

type brokenViews struct{}

func (brokenViews) OlderThan(context.Context, time.Time) iter.Seq2[*domain.PageView, error] {
	return func(yield func(*domain.PageView, error) bool) {
		if !yield(&domain.PageView{ID: "a"}, nil) {
			return
		}
		yield(&domain.PageView{ID: "b"}, nil)
	}
}

func (brokenViews) Delete(_ context.Context, v *domain.PageView) error {
	if v.ID == "a" {
		return errors.New("locked")
	}
	return nil
}

type noPrayers struct{}

func (noPrayers) PrayedBefore(context.Context, time.Time) iter.Seq2[*domain.Prayer, error] {
	return func(func(*domain.Prayer, error) bool) {}
}

func (noPrayers) Delete(context.Context, string) error { return nil }

func TestSweeper_ContinuesPastFailures(t *testing.T) {
	sw := NewSweeper(failingSessions{}, noRateLimits{}, brokenViews{}, noPrayers{}, Retention{}, logger.NewNop())

	rep := sw.Sweep(context.Background())
	if rep.Failed != 2 {
		t.Errorf("Failed = %d, want 2", rep.Failed)
	}
	if rep.LoginAttempts != 2 {
		t.Errorf("LoginAttempts = %d, want 2 (later steps must still run)", rep.LoginAttempts)
	}
	if rep.PageViews != 1 {
		t.Errorf("PageViews = %d, want 1", rep.PageViews)
	}
}

func TestSweeper_StartDisabled(t *testing.T) {
	sw := NewSweeper(failingSessions{}, noRateLimits{}, brokenViews{}, noPrayers{}, Retention{}, logger.NewNop())
	sw.Start(context.Background(), 0)
	sw.Stop()
}

func TestRetentionDefaults(t *testing.T) {
	r := Retention{Prayed: time.Hour}.withDefaults()
	if r.Prayed != time.Hour {
		t.Errorf("Prayed = %v, want 1h", r.Prayed)
	}
	if r.Analytics != DefaultAnalyticsRetention || r.LoginAttempt != DefaultLoginAttemptRetention {
		t.Errorf("defaults not applied: %+v", r)
	}
}
