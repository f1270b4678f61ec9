package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/version"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	version.Info
}

func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		jsonx.WriteJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: d.Now().Sub(start).Seconds(),
			Info:          d.Build,
		})
	}
}
