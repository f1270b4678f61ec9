package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/httpserver/mw"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/utils"
)

const loginAttemptsLimit = 50

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Username string `json:"username"`
}

// Login opens an admin session and sets the session cookie.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeBody(r, d, &req); err != nil {
			writeError(w, r, d, err)
			return
		}

		id, ok, err := d.Auth.Login(r.Context(), req.Username, req.Password, utils.ClientIP(r, d.TrustProxy))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if !ok {
			writeError(w, r, d, domain.ErrInvalidCredentials)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     mw.SessionCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(d.Auth.TTL().Seconds()),
			HttpOnly: true,
			Secure:   d.CookieSecure,
			SameSite: http.SameSiteStrictMode,
		})
		w.Header().Set("Cache-Control", "no-store")
		jsonx.WriteJSON(w, http.StatusOK, loginResponse{Username: req.Username})
	}
}

// Logout ends the session, if any, and clears the cookie.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(mw.SessionCookie); err == nil {
			if err := d.Auth.Logout(r.Context(), c.Value); err != nil {
				writeError(w, r, d, err)
				return
			}
		}
		http.SetCookie(w, &http.Cookie{
			Name:     mw.SessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   d.CookieSecure,
			SameSite: http.SameSiteStrictMode,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// LoginAttempts lists recent failed logins.
func LoginAttempts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attempts, err := d.Auth.RecentLoginAttempts(r.Context(), queryLimit(r, loginAttemptsLimit, adminMaxLimit))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		jsonx.WriteJSON(w, http.StatusOK, attempts)
	}
}

func adminUser(r *http.Request) (string, bool) {
	return mw.AdminUser(r.Context())
}
