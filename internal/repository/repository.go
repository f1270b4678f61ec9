// Package repository persists the site's records on a store.Store and keeps
// every secondary index in step with the primary record.
//
// Each write goes out as one store commit holding the primary record and all
// index changes, so readers never see an index pointing at a stale record.
package repository

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/store"
)

// Repositories groups every repository built on one store.
type Repositories struct {
	Journal      *JournalRepository
	Locations    *LocationRepository
	Links        *LinkRepository
	Testimonials *TestimonialRepository
	Prayers      *PrayerRepository
	Settings     *SettingsRepository
	Analytics    *AnalyticsRepository
}

// Option tunes repositories, mostly for tests.
type Option func(*env)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *env) { e.now = now }
}

// WithIDs replaces the uuid generator.
func WithIDs(newID func() string) Option {
	return func(e *env) { e.newID = newID }
}

// env is shared by every repository.
type env struct {
	st    store.Store
	now   func() time.Time
	newID func() string
}

// New builds all repositories.
func New(st store.Store, opts ...Option) *Repositories {
	e := &env{
		st:    st,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return &Repositories{
		Journal:      newJournal(e),
		Locations:    newLocations(e),
		Links:        newLinks(e),
		Testimonials: newTestimonials(e),
		Prayers:      newPrayers(e),
		Settings:     &SettingsRepository{st: st},
		Analytics:    &AnalyticsRepository{env: e},
	}
}

func (e *env) timestamp() time.Time {
	return e.now().UTC()
}

// ─────────────────────────────
// input helpers
// ─────────────────────────────

func required(field string, v *string) (string, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "", domain.Invalid(field, "required")
	}
	return strings.TrimSpace(*v), nil
}

func maxLen(field, v string, n int) error {
	if len([]rune(v)) > n {
		return domain.Invalid(field, "too long")
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
