package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/ministry/internal/httpserver/mw"
	"github.com/MrSnakeDoc/ministry/internal/ratelimit"
)

func init() { Register("public", registerPublic) }

func registerPublic(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))

		r.Get("/csrf", handlers.CSRFToken(d))

		r.Group(func(r chi.Router) {
			r.Use(mw.TrackViews(d.Repos.Analytics, d.Logger))

			r.Get("/api/journal", handlers.JournalList(d))
			r.Get("/api/journal/featured", handlers.JournalFeatured(d))
			r.Get("/api/journal/{slug}", handlers.JournalBySlug(d))
			r.Get("/api/locations", handlers.LocationList(d))
			r.Get("/api/locations/current", handlers.LocationCurrent(d))
			r.Get("/api/links", handlers.LinkList(d))
			r.Get("/api/testimonials", handlers.TestimonialList(d))
			r.Get("/api/prayers", handlers.PrayerWall(d))
			r.Get("/api/theme", handlers.Theme(d))
		})

		// CSRF runs first so forged posts never spend the client's budget.
		r.Group(func(r chi.Router) {
			r.Use(mw.CSRF(d.CSRF, d.TrustProxy, d.Logger))

			r.With(limit(d, ratelimit.ProfileForm, "testimonials")).Post("/api/testimonials", handlers.TestimonialSubmit(d))
			r.With(limit(d, ratelimit.ProfilePrayer, "prayers")).Post("/api/prayers", handlers.PrayerSubmit(d))
			r.With(limit(d, ratelimit.ProfileForm, "prayed")).Post("/api/prayers/{id}/prayed", handlers.PrayerPrayed(d))
		})
	})
}

func limit(d deps.Deps, profile, endpoint string) Middleware {
	return mw.RateLimit(d.Limiter, profile, endpoint, d.TrustProxy, d.Logger)
}
