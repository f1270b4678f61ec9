package httpserver

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ministry/internal/auth"
	"github.com/MrSnakeDoc/ministry/internal/csrf"
	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/httpserver/mw"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/notify"
	"github.com/MrSnakeDoc/ministry/internal/ratelimit"
	"github.com/MrSnakeDoc/ministry/internal/repository"
	"github.com/MrSnakeDoc/ministry/internal/scheduler"
	"github.com/MrSnakeDoc/ministry/internal/store/memory"
	"github.com/MrSnakeDoc/ministry/internal/version"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

type fixedSweeper struct{ report scheduler.Report }

func (s fixedSweeper) Sweep(context.Context) scheduler.Report { return s.report }

type fixture struct {
	d        deps.Deps
	handler  http.Handler
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	log := logger.NewNop()

	limiter, err := ratelimit.New(st, log)
	require.NoError(t, err)

	n := &recordingNotifier{}
	d := deps.Deps{
		Logger:    log,
		StartTime: time.Now(),
		Build:     version.Info{Version: "test"},
		Store:     st,
		Repos:     repository.New(st),
		Auth:      auth.NewService(st, auth.Credentials{Username: "admin", Password: "s3cret"}, log),
		CSRF:      &csrf.Guard{},
		Limiter:   limiter,
		Sweeper:   fixedSweeper{report: scheduler.Report{Sessions: 2, PageViews: 3}},
		Notifier:  n,
	}
	return &fixture{d: d, handler: NewRouter(d), notifier: n}
}

// client keeps cookies and the csrf token between requests.
type client struct {
	t       *testing.T
	h       http.Handler
	ip      string
	cookies map[string]*http.Cookie
	token   string
}

func (f *fixture) client(t *testing.T, ip string) *client {
	return &client{t: t, h: f.handler, ip: ip, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := jsonx.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.RemoteAddr = c.ip + ":40000"
	if c.token != "" {
		req.Header.Set(csrf.HeaderName, c.token)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) fetchCSRF() {
	c.t.Helper()
	rec := c.do(http.MethodGet, "/csrf", nil)
	require.Equal(c.t, http.StatusOK, rec.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, jsonx.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(c.t, resp.Token)
	c.token = resp.Token
}

func (c *client) login(password string) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, "/admin/login", map[string]string{"username": "admin", "password": password})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func ptr[T any](v T) *T { return &v }

func TestHealthAndReadiness(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "203.0.113.1")

	rec := c.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "test", health["version"])

	rec = c.do(http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["ready"])

	rec = c.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicJournalHidesDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pub, err := f.d.Repos.Journal.Create(ctx, domain.JournalInput{
		Title: ptr("Into the hills"), Content: ptr("<p>We walked.</p>"), IsPublished: ptr(true), IsFeatured: ptr(true),
	})
	require.NoError(t, err)
	draft, err := f.d.Repos.Journal.Create(ctx, domain.JournalInput{
		Title: ptr("Unfinished"), Content: ptr("draft"), IsFeatured: ptr(true),
	})
	require.NoError(t, err)

	c := f.client(t, "203.0.113.1")

	rec := c.do(http.MethodGet, "/api/journal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]domain.JournalEntry](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, pub.ID, list[0].ID)

	featured := decode[[]domain.JournalEntry](t, c.do(http.MethodGet, "/api/journal/featured", nil))
	require.Len(t, featured, 1)
	assert.Equal(t, pub.ID, featured[0].ID)

	rec = c.do(http.MethodGet, "/api/journal/"+pub.Slug, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "We walked.", decode[domain.JournalEntry](t, rec).Excerpt)

	rec = c.do(http.MethodGet, "/api/journal/"+draft.Slug, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	summary, err := f.d.Repos.Analytics.Summary(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total, "successful GETs are counted, the 404 is not")
	assert.Equal(t, 1, summary.ByPath["/api/journal"])
}

func TestLocationCurrentMissing(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "203.0.113.1")

	rec := c.do(http.MethodGet, "/api/locations/current", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodGet, "/api/locations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestPrayerSubmissionNeedsCSRF(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "203.0.113.2")
	body := map[string]any{"name": "Ann", "email": "ann@example.com", "request": "Pray for my family", "isPublic": true}

	rec := c.do(http.MethodPost, "/api/prayers", body)
	require.Equal(t, http.StatusForbidden, rec.Code)

	c.fetchCSRF()
	rec = c.do(http.MethodPost, "/api/prayers", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[map[string]string](t, rec)["id"]
	require.NotEmpty(t, id)
	assert.Equal(t, 1, f.notifier.count())

	// Unapproved: not on the wall, and "I prayed" does not find it.
	assert.JSONEq(t, "[]", c.do(http.MethodGet, "/api/prayers", nil).Body.String())
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPost, "/api/prayers/"+id+"/prayed", nil).Code)

	_, err := f.d.Repos.Prayers.Update(context.Background(), id, domain.PrayerInput{IsApproved: ptr(true)})
	require.NoError(t, err)

	rec = c.do(http.MethodGet, "/api/prayers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "ann@example.com")

	rec = c.do(http.MethodPost, "/api/prayers/"+id+"/prayed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["prayerCount"])
}

func TestPrayerSubmissionRateLimited(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "203.0.113.3")
	c.fetchCSRF()

	p, ok := f.d.Limiter.Profile(ratelimit.ProfilePrayer)
	require.True(t, ok)

	body := map[string]any{"request": "Healing"}
	for i := 0; i < p.MaxAttempts; i++ {
		rec := c.do(http.MethodPost, "/api/prayers", body)
		require.Equal(t, http.StatusCreated, rec.Code, "attempt %d", i+1)
	}

	rec := c.do(http.MethodPost, "/api/prayers", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Positive(t, retry)

	// Another client keeps its own budget.
	other := f.client(t, "198.51.100.4")
	other.fetchCSRF()
	assert.Equal(t, http.StatusCreated, other.do(http.MethodPost, "/api/prayers", body).Code)
}

func TestTestimonialSubmissionStartsPending(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "203.0.113.5")
	c.fetchCSRF()

	rec := c.do(http.MethodPost, "/api/testimonials", map[string]any{
		"name": "Ben", "content": "Grateful", "isApproved": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, f.notifier.count())

	assert.JSONEq(t, "[]", c.do(http.MethodGet, "/api/testimonials", nil).Body.String())

	rec = c.do(http.MethodPost, "/api/testimonials", map[string]any{"name": "Ben"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "content", decode[map[string]string](t, rec)["field"])
}

func TestAdminRequiresSession(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "203.0.113.6")

	for _, path := range []string{"/admin/journal", "/admin/prayers", "/admin/settings/theme", "/admin/analytics"} {
		rec := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	c.cookies[mw.SessionCookie] = &http.Cookie{Name: mw.SessionCookie, Value: "forged"}
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/admin/journal", nil).Code)
}

func TestAdminSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "203.0.113.7")

	// No token: rejected before the credentials are looked at.
	require.Equal(t, http.StatusForbidden, c.login("s3cret").Code)

	c.fetchCSRF()
	require.Equal(t, http.StatusUnauthorized, c.login("wrong").Code)

	rec := c.login("s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, c.cookies, mw.SessionCookie)
	assert.True(t, c.cookies[mw.SessionCookie].HttpOnly)

	rec = c.do(http.MethodPost, "/admin/journal", map[string]any{
		"title": "Road notes", "content": "Day one", "isPublished": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decode[domain.JournalEntry](t, rec)
	assert.Equal(t, "road-notes", entry.Slug)

	rec = c.do(http.MethodPut, "/admin/journal/"+entry.ID, map[string]any{"isPublished": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[domain.JournalEntry](t, rec).IsPublished)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/api/journal/road-notes", nil).Code)

	list := decode[[]domain.JournalEntry](t, c.do(http.MethodGet, "/admin/journal", nil))
	assert.Len(t, list, 1)

	attempts := decode[[]domain.LoginAttempt](t, c.do(http.MethodGet, "/admin/login-attempts", nil))
	require.Len(t, attempts, 1)
	assert.Equal(t, "203.0.113.7", attempts[0].ClientIP)

	require.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/admin/journal/"+entry.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, "/admin/journal/"+entry.ID, nil).Code)

	require.Equal(t, http.StatusNoContent, c.do(http.MethodPost, "/admin/logout", nil).Code)
	assert.NotContains(t, c.cookies, mw.SessionCookie)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/admin/journal", nil).Code)
}

func TestAdminLocationsAndSettings(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "203.0.113.8")
	c.fetchCSRF()
	require.Equal(t, http.StatusOK, c.login("s3cret").Code)

	var ids []string
	for _, name := range []string{"Lagos", "Accra"} {
		rec := c.do(http.MethodPost, "/admin/locations", map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		ids = append(ids, decode[domain.Location](t, rec).ID)
	}
	for _, id := range ids {
		require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/admin/locations/"+id+"/current", nil).Code)
	}
	current := decode[domain.Location](t, c.do(http.MethodGet, "/api/locations/current", nil))
	assert.Equal(t, ids[1], current.ID)

	rec := c.do(http.MethodGet, "/admin/settings/theme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.DefaultTheme(), decode[domain.ThemeSettings](t, rec))

	theme := domain.ThemeSettings{Primary: "#000000", Secondary: "#111111", Accent: "#222222", Background: "#ffffff"}
	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/admin/settings/theme", theme).Code)
	assert.Equal(t, theme, decode[domain.ThemeSettings](t, c.do(http.MethodGet, "/api/theme", nil)))

	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/admin/settings/fonts", nil).Code)
	rec = c.do(http.MethodPut, "/admin/settings/webhook", domain.WebhookConfig{Enabled: true, URL: "not a url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/admin/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[scheduler.Report](t, rec)
	assert.Equal(t, 2, report.Sessions)
	assert.Equal(t, 3, report.PageViews)
}

func TestMalformedBody(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "203.0.113.9")
	c.fetchCSRF()

	req := httptest.NewRequest(http.MethodPost, "/api/testimonials", bytes.NewBufferString("{not json"))
	req.RemoteAddr = "203.0.113.9:1"
	req.Header.Set(csrf.HeaderName, c.token)
	req.AddCookie(c.cookies[csrf.CookieName])
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
