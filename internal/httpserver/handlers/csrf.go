package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
)

type csrfResponse struct {
	Token string `json:"token"`
}

// CSRFToken issues a token cookie and echoes the token for the form or the
// X-CSRF-Token header.
func CSRFToken(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := d.CSRF.SetCookie(w)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		jsonx.WriteJSON(w, http.StatusOK, csrfResponse{Token: token})
	}
}
