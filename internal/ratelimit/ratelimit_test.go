package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/store/memory"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestLimiter(t *testing.T, opts ...Option) (*Limiter, *memory.Store, *fakeClock) {
	t.Helper()
	st := memory.New()
	clock := &fakeClock{now: time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)}
	l, err := New(st, logger.NewNop(), append([]Option{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)
	return l, st, clock
}

func TestFourthPrayerRejected(t *testing.T) {
	ctx := context.Background()
	l, _, clock := newTestLimiter(t)
	p := Profile{MaxAttempts: 3, Window: time.Hour}

	for i := range 3 {
		d, err := l.CheckAndRecord(ctx, "1.2.3.4", "pray", p)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "attempt %d", i+1)
		assert.Equal(t, 2-i, d.Remaining)
		clock.now = clock.now.Add(time.Minute)
	}

	d, err := l.CheckAndRecord(ctx, "1.2.3.4", "pray", p)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Positive(t, d.RetryAfterSeconds())
	// oldest attempt at 10:00, now 10:03: an hour window frees up in 57m
	assert.Equal(t, 57*time.Minute, d.RetryAfter)
}

func TestRetryAfterSecondsRoundsUp(t *testing.T) {
	tests := []struct {
		retry time.Duration
		want  int
	}{
		{0, 0},
		{time.Millisecond, 1},
		{time.Second, 1},
		{time.Second + time.Nanosecond, 2},
		{57 * time.Minute, 3420},
	}
	for _, tt := range tests {
		d := Decision{RetryAfter: tt.retry}
		assert.Equal(t, tt.want, d.RetryAfterSeconds(), "RetryAfter=%s", tt.retry)
	}
}

func TestWindowSlides(t *testing.T) {
	ctx := context.Background()
	l, _, clock := newTestLimiter(t)
	p := Profile{MaxAttempts: 2, Window: 10 * time.Minute}

	start := clock.now
	for range 2 {
		d, err := l.CheckAndRecord(ctx, "c", "login", p)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	d, _ := l.CheckAndRecord(ctx, "c", "login", p)
	require.False(t, d.Allowed)

	// rejected attempts are not recorded, so the window frees up on time
	clock.now = start.Add(10*time.Minute + time.Millisecond)
	d, err := l.CheckAndRecord(ctx, "c", "login", p)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestBucketsAreIndependent(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLimiter(t)
	p := Profile{MaxAttempts: 1, Window: time.Hour}

	d, _ := l.CheckAndRecord(ctx, "a", "form", p)
	assert.True(t, d.Allowed)
	d, _ = l.CheckAndRecord(ctx, "a", "form", p)
	assert.False(t, d.Allowed)

	d, _ = l.CheckAndRecord(ctx, "b", "form", p)
	assert.True(t, d.Allowed, "other client")
	d, _ = l.CheckAndRecord(ctx, "a", "prayer", p)
	assert.True(t, d.Allowed, "other endpoint")
	d, _ = l.CheckAndRecord(ctx, "2001:db8::/64", "form", p)
	assert.True(t, d.Allowed, "keys with separators are escaped")
}

func TestRetryAfterRounding(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{1500 * time.Millisecond, 2 * time.Second},
		{time.Millisecond, time.Second},
		{0, time.Second},
		{-time.Second, time.Second},
		{3 * time.Second, 3 * time.Second},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.in); got != tt.want {
			t.Errorf("retryAfter(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	l, st, clock := newTestLimiter(t)
	p := Profile{MaxAttempts: 100, Window: time.Minute}

	for range 3 {
		_, err := l.CheckAndRecord(ctx, "x", "form", p)
		require.NoError(t, err)
	}
	// longest default window is one hour
	clock.now = clock.now.Add(61 * time.Minute)
	_, err := l.CheckAndRecord(ctx, "y", "form", p)
	require.NoError(t, err)

	removed, err := l.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 1, st.Len())
}

func TestProfilesOverride(t *testing.T) {
	l, _, _ := newTestLimiter(t, WithProfiles(map[string]Profile{
		ProfileLogin: {MaxAttempts: 2, Window: time.Minute},
	}))
	p, ok := l.Profile(ProfileLogin)
	require.True(t, ok)
	assert.Equal(t, 2, p.MaxAttempts)
	_, ok = l.Profile(ProfilePrayer)
	assert.True(t, ok, "defaults survive partial overrides")

	_, err := New(memory.New(), logger.NewNop(), WithProfiles(map[string]Profile{"bad": {}}))
	assert.Error(t, err)
}
