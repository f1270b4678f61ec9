package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/ministry/internal/csrf"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/utils"
)

// CSRF rejects unsafe requests without a matching token pair with a JSON 403.
func CSRF(g *csrf.Guard, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	guard := *g
	guard.OnReject = func(w http.ResponseWriter, r *http.Request) {
		log.Warn("csrf token rejected",
			logger.String("path", r.URL.Path),
			logger.String("client_ip", utils.ClientIP(r, trustProxy)))
		jsonx.WriteError(w, http.StatusForbidden, "invalid csrf token")
	}
	return guard.Middleware
}
