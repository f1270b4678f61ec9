package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
)

const (
	defaultSummaryDays = 30
	maxSummaryDays     = 365
)

// AnalyticsSummary counts page views over the last ?days= days.
func AnalyticsSummary(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := strconv.Atoi(r.URL.Query().Get("days"))
		if err != nil || days <= 0 {
			days = defaultSummaryDays
		}
		days = min(days, maxSummaryDays)

		since := d.Now().Add(-time.Duration(days) * 24 * time.Hour)
		summary, err := d.Repos.Analytics.Summary(r.Context(), since)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		jsonx.WriteJSON(w, http.StatusOK, summary)
	}
}
