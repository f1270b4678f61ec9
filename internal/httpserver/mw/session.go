package mw

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/ministry/internal/auth"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/logger"
)

// SessionCookie carries the admin session id.
const SessionCookie = "ministry_session"

type ctxKey int

const adminKey ctxKey = iota

// RequireSession lets through requests carrying a live admin session and
// answers 401 otherwise. The username is stored in the request context.
func RequireSession(a *auth.Service, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err != nil {
				jsonx.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			user, ok, err := a.Validate(r.Context(), c.Value)
			if err != nil {
				log.Error("session lookup failed", logger.Error(err))
				jsonx.WriteError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !ok {
				jsonx.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminKey, user)))
		})
	}
}

// AdminUser returns the username set by RequireSession.
func AdminUser(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(adminKey).(string)
	return user, ok
}
