package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/repository"
)

// TrackViews records a page view for each successful GET. A failed record
// is logged and never affects the response.
func TrackViews(a *repository.AnalyticsRepository, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			ww := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(ww, r)

			if ww.status >= http.StatusBadRequest {
				return
			}
			if _, err := a.Record(r.Context(), r.URL.Path, r.Referer()); err != nil {
				log.Warn("failed to record page view",
					logger.String("path", r.URL.Path),
					logger.Error(err))
			}
		})
	}
}
