// Package csrf implements double-submit cookie protection. Tokens are never
// stored server side: a request is valid when the cookie and the submitted
// value are equal.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"
)

const (
	CookieName = "csrf_token"
	FieldName  = "_csrf"
	HeaderName = "X-CSRF-Token"

	// DefaultMaxAge bounds how long an issued token stays usable.
	DefaultMaxAge = time.Hour
)

// Issue returns a fresh random token.
func Issue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Validate compares both tokens in constant time. Either one empty is a
// rejection; only a length mismatch returns early.
func Validate(cookieToken, formToken string) bool {
	if cookieToken == "" || formToken == "" {
		return false
	}
	return compare([]byte(cookieToken), []byte(formToken)) == 1
}

// compare is swapped in tests to observe the comparison.
var compare = subtle.ConstantTimeCompare

// Guard issues cookies and checks unsafe requests.
type Guard struct {
	MaxAge time.Duration
	Secure bool // set the Secure cookie attribute

	// OnReject writes the rejection; nil sends a plain 403.
	OnReject http.HandlerFunc
}

// SetCookie issues a token, stores it in the response cookie and returns it
// so the caller can echo it in the form or page.
func (g *Guard) SetCookie(w http.ResponseWriter) (string, error) {
	token, err := Issue()
	if err != nil {
		return "", err
	}
	maxAge := g.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   g.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// Check reports whether r carries matching cookie and submitted tokens.
// The submitted token comes from the header, or else the form field.
func (g *Guard) Check(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	submitted := r.Header.Get(HeaderName)
	if submitted == "" {
		submitted = r.PostFormValue(FieldName)
	}
	return Validate(c.Value, submitted)
}

// Middleware rejects unsafe methods that lack a valid token.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if !g.Check(r) {
			if g.OnReject != nil {
				g.OnReject(w, r)
				return
			}
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
