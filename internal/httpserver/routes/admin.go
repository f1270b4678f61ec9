package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/ministry/internal/httpserver/mw"
	"github.com/MrSnakeDoc/ministry/internal/ratelimit"
)

func init() { Register("admin", registerAdmin, middleware.NoCache) }

func registerAdmin(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AdminCIDRS, d.TrustProxy, d.Logger))
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))

		csrf := mw.CSRF(d.CSRF, d.TrustProxy, d.Logger)
		r.With(csrf, limit(d, ratelimit.ProfileLogin, "login")).Post("/admin/login", handlers.Login(d))
		r.With(csrf).Post("/admin/logout", handlers.Logout(d))

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireSession(d.Auth, d.Logger))
			r.Use(csrf)

			journal := d.Repos.Journal
			r.Get("/admin/journal", handlers.AdminJournalList(d))
			r.Post("/admin/journal", handlers.Create(d, journal.Create))
			r.Get("/admin/journal/{id}", handlers.Get(d, journal.Get))
			r.Put("/admin/journal/{id}", handlers.Update(d, journal.Update))
			r.Delete("/admin/journal/{id}", handlers.Delete(d, journal.Delete))

			locations := d.Repos.Locations
			r.Get("/admin/locations", handlers.AdminLocationList(d))
			r.Post("/admin/locations", handlers.Create(d, locations.Create))
			r.Get("/admin/locations/{id}", handlers.Get(d, locations.Get))
			r.Put("/admin/locations/{id}", handlers.Update(d, locations.Update))
			r.Delete("/admin/locations/{id}", handlers.Delete(d, locations.Delete))
			r.Post("/admin/locations/{id}/current", handlers.Action(d, locations.SetCurrent))

			links := d.Repos.Links
			r.Get("/admin/links", handlers.AdminLinkList(d))
			r.Post("/admin/links", handlers.Create(d, links.Create))
			r.Get("/admin/links/{id}", handlers.Get(d, links.Get))
			r.Put("/admin/links/{id}", handlers.Update(d, links.Update))
			r.Delete("/admin/links/{id}", handlers.Delete(d, links.Delete))

			testimonials := d.Repos.Testimonials
			r.Get("/admin/testimonials", handlers.AdminTestimonialList(d))
			r.Post("/admin/testimonials", handlers.Create(d, testimonials.Create))
			r.Get("/admin/testimonials/{id}", handlers.Get(d, testimonials.Get))
			r.Put("/admin/testimonials/{id}", handlers.Update(d, testimonials.Update))
			r.Delete("/admin/testimonials/{id}", handlers.Delete(d, testimonials.Delete))

			prayers := d.Repos.Prayers
			r.Get("/admin/prayers", handlers.AdminPrayerList(d))
			r.Get("/admin/prayers/{id}", handlers.Get(d, prayers.Get))
			r.Put("/admin/prayers/{id}", handlers.Update(d, prayers.Update))
			r.Delete("/admin/prayers/{id}", handlers.Delete(d, prayers.Delete))
			r.Post("/admin/prayers/{id}/prayed", handlers.Action(d, prayers.MarkPrayed))

			r.Get("/admin/settings/{name}", handlers.GetSetting(d))
			r.Put("/admin/settings/{name}", handlers.PutSetting(d))
			r.Get("/admin/analytics", handlers.AnalyticsSummary(d))
			r.Get("/admin/login-attempts", handlers.LoginAttempts(d))
			r.Post("/admin/sweep", handlers.Sweep(d))
		})
	})
}
