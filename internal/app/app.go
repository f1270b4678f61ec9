package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/ministry/internal/auth"
	"github.com/MrSnakeDoc/ministry/internal/config"
	"github.com/MrSnakeDoc/ministry/internal/csrf"
	"github.com/MrSnakeDoc/ministry/internal/httpserver"
	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/notify"
	"github.com/MrSnakeDoc/ministry/internal/ratelimit"
	"github.com/MrSnakeDoc/ministry/internal/repository"
	"github.com/MrSnakeDoc/ministry/internal/scheduler"
	"github.com/MrSnakeDoc/ministry/internal/store"
	"github.com/MrSnakeDoc/ministry/internal/utils"
	"github.com/MrSnakeDoc/ministry/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	store    store.Store
	sweeper  *scheduler.Sweeper
	notifier *notify.Discord
}

// Core is everything built on the store, shared by the server and ministryctl.
type Core struct {
	Store   store.Store
	Repos   *repository.Repositories
	Auth    *auth.Service
	Limiter *ratelimit.Limiter
	Sweeper *scheduler.Sweeper
}

// NewCore builds repositories and the security services on st.
func NewCore(cfg *config.Config, st store.Store, log logger.Logger) (*Core, error) {
	repos := repository.New(st)

	authSvc := auth.NewService(st, auth.Credentials{
		Username:     cfg.AdminUser,
		Password:     cfg.AdminPassword,
		PasswordHash: cfg.AdminPasswordHash,
	}, log.With(logger.String("component", "auth")), auth.WithTTL(cfg.SessionTTL))

	limiter, err := ratelimit.New(st, log.With(logger.String("component", "ratelimit")),
		ratelimit.WithProfiles(cfg.RateLimits))
	if err != nil {
		return nil, err
	}

	sweeper := scheduler.NewSweeper(authSvc, limiter, repos.Analytics, repos.Prayers, scheduler.Retention{
		Analytics:    cfg.AnalyticsRetention,
		Prayed:       cfg.PrayedRetention,
		LoginAttempt: cfg.LoginAttemptRetention,
	}, log.With(logger.String("component", "sweeper")))

	return &Core{
		Store:   st,
		Repos:   repos,
		Auth:    authSvc,
		Limiter: limiter,
		Sweeper: sweeper,
	}, nil
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Open the store early - fail fast if unavailable
	st, err := OpenStore(context.Background(), cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s store: %v", cfg.StoreBackend, err)
		os.Exit(1)
	}

	core, err := NewCore(cfg, st, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to initialize: %v", err)
		os.Exit(1)
	}

	notifier := notify.NewDiscord(core.Repos.Settings, cfg.NotifyTimeout,
		loggerClient.With(logger.String("component", "notify")))

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Build:        version.Get(),
		TimeNow:      time.Now,
		Store:        st,
		Repos:        core.Repos,
		Auth:         core.Auth,
		CSRF:         &csrf.Guard{Secure: cfg.CookieSecure},
		Limiter:      core.Limiter,
		Sweeper:      core.Sweeper,
		Notifier:     notifier,
		AllowedHosts: cfg.AllowedHosts,
		AdminCIDRS:   cfg.AdminCIDRS,
		TrustProxy:   cfg.TrustProxy,
		CookieSecure: cfg.CookieSecure,
	}

	server := httpserver.New(cfg.ListenPort, loggerClient, d)

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   server,
		store:    st,
		sweeper:  core.Sweeper,
		notifier: notifier,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Ministry %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.Get().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Retention sweep runs in-process only when an interval is configured
	a.sweeper.Start(ctx, a.cfg.SweepInterval)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// Let in-flight webhook posts finish before the store goes away
	a.notifier.Wait()
	utils.MustClose(a.store, a.logger, a.cfg.StoreBackend+" store")

	a.logger.Info("✅ Ministry stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
