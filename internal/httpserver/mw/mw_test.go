package mw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/ministry/internal/auth"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/ratelimit"
	"github.com/MrSnakeDoc/ministry/internal/repository"
	"github.com/MrSnakeDoc/ministry/internal/store/memory"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"example.com", "example.com", true},
		{"www.example.com", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"evil-example.com", "*.example.com", false},
		{"other.com", "example.com", false},
	}
	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"Ministry.example.org"}, logger.NewNop())(ok)

	tests := []struct {
		host string
		want int
	}{
		{"ministry.example.org", http.StatusOK},
		{"ministry.example.org:8080", http.StatusOK},
		{"attacker.example", http.StatusForbidden},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = tt.host
		if got := serve(h, r).Code; got != tt.want {
			t.Errorf("host %q: status = %d, want %d", tt.host, got, tt.want)
		}
	}

	passthrough := EnforceHost(nil, logger.NewNop())(ok)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Host = "anything"
	if got := serve(passthrough, r).Code; got != http.StatusOK {
		t.Errorf("empty host list should pass through, got %d", got)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, false, logger.NewNop())(ok)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.1.1:1234"
	if got := serve(h, r).Code; got != http.StatusOK {
		t.Errorf("allowed address: status = %d", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	r.Header.Set("X-Forwarded-For", "10.1.1.1")
	if got := serve(h, r).Code; got != http.StatusForbidden {
		t.Errorf("untrusted forwarded header must not be honoured, status = %d", got)
	}
}

func TestRateLimit(t *testing.T) {
	st := memory.New()
	l, err := ratelimit.New(st, logger.NewNop(), ratelimit.WithProfiles(map[string]ratelimit.Profile{
		"tiny": {MaxAttempts: 2, Window: time.Minute},
	}))
	if err != nil {
		t.Fatal(err)
	}
	h := RateLimit(l, "tiny", "test", false, logger.NewNop())(ok)

	request := func(ip string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = ip + ":1"
		return serve(h, r)
	}

	for i, wantRemaining := range []string{"1", "0"} {
		rec := request("192.0.2.1")
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != wantRemaining {
			t.Errorf("attempt %d: remaining = %q, want %q", i+1, got, wantRemaining)
		}
	}

	rec := request("192.0.2.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third attempt: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	// Same /64, same bucket.
	if got := request("2001:db8::1").Code; got != http.StatusOK {
		t.Fatalf("v6 first attempt: status = %d", got)
	}
	request("2001:db8::2")
	if got := request("2001:db8::3").Code; got != http.StatusTooManyRequests {
		t.Errorf("v6 neighbours should share a budget, status = %d", got)
	}
}

func TestRateLimitUnknownProfilePanics(t *testing.T) {
	l, err := ratelimit.New(memory.New(), logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Error("RateLimit() with an unknown profile should panic")
		}
	}()
	RateLimit(l, "missing", "x", false, logger.NewNop())
}

func TestRequireSession(t *testing.T) {
	st := memory.New()
	a := auth.NewService(st, auth.Credentials{Username: "admin", Password: "pw"}, logger.NewNop())
	id, okLogin, err := a.Login(context.Background(), "admin", "pw", "192.0.2.1")
	if err != nil || !okLogin {
		t.Fatalf("Login() = %v, %v", okLogin, err)
	}

	var seen string
	h := RequireSession(a, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = AdminUser(r.Context())
	}))

	tests := []struct {
		name   string
		cookie string
		want   int
	}{
		{"no cookie", "", http.StatusUnauthorized},
		{"unknown session", "nope", http.StatusUnauthorized},
		{"live session", id, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			if got := serve(h, r).Code; got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
	if seen != "admin" {
		t.Errorf("AdminUser() = %q, want admin", seen)
	}
}

func TestTrackViews(t *testing.T) {
	st := memory.New()
	repos := repository.New(st)
	mux := http.NewServeMux()
	mux.HandleFunc("/found", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("hi")) })
	h := TrackViews(repos.Analytics, logger.NewNop())(mux)

	serve(h, httptest.NewRequest(http.MethodGet, "/found", nil))
	serve(h, httptest.NewRequest(http.MethodGet, "/missing", nil))
	serve(h, httptest.NewRequest(http.MethodPost, "/found", nil))

	summary, err := repos.Analytics.Summary(context.Background(), time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total != 1 || summary.ByPath["/found"] != 1 {
		t.Errorf("summary = %+v, want one view of /found", summary)
	}
}
