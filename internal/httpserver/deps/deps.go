package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/ministry/internal/auth"
	"github.com/MrSnakeDoc/ministry/internal/csrf"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/notify"
	"github.com/MrSnakeDoc/ministry/internal/ratelimit"
	"github.com/MrSnakeDoc/ministry/internal/repository"
	"github.com/MrSnakeDoc/ministry/internal/scheduler"
	"github.com/MrSnakeDoc/ministry/internal/store"
	"github.com/MrSnakeDoc/ministry/internal/version"
)

// Notifier sends submission alerts in the background.
type Notifier interface {
	Notify(ctx context.Context, msg notify.Message)
}

// Sweeper runs one retention pass on demand.
type Sweeper interface {
	Sweep(ctx context.Context) scheduler.Report
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Build        version.Info
	TimeNow      func() time.Time         // for testing, defaults to time.Now
	Store        store.Store              // pinged by /readyz
	Repos        *repository.Repositories // every record repository
	Auth         *auth.Service            // admin sessions
	CSRF         *csrf.Guard              // double-submit cookie guard
	Limiter      *ratelimit.Limiter       // per-client attempt budgets
	Sweeper      Sweeper                  // retention sweep behind POST /admin/sweep
	Notifier     Notifier                 // Discord alerts, nil disables them
	AllowedHosts []string                 // Host headers allowed to access the server
	AdminCIDRS   []string                 // IPs allowed to access /admin and ops endpoints
	TrustProxy   bool                     // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CookieSecure bool                     // Secure attribute on the session cookie
	MaxBodyBytes int64                    // JSON request body limit
}

// Now returns TimeNow() or time.Now() when unset.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
