package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/logger"
)

// Sweep runs the retention sweep now and returns its report.
func Sweep(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := adminUser(r)
		d.Logger.Info("manual retention sweep", logger.String("user", user))
		jsonx.WriteJSON(w, http.StatusOK, d.Sweeper.Sweep(r.Context()))
	}
}
