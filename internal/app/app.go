// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/actworks/control-tower/internal/config"
	"github.com/actworks/control-tower/internal/domain"
	"github.com/actworks/control-tower/internal/identity"
	"github.com/actworks/control-tower/internal/identity/jwt"
	identitypostgres "github.com/actworks/control-tower/internal/identity/postgres"
	"github.com/actworks/control-tower/internal/pkg/ctxlog"
	"github.com/actworks/control-tower/internal/pkg/httputil"
	"github.com/actworks/control-tower/internal/pkg/metrics"
	"github.com/actworks/control-tower/internal/pkg/postgres"
	"github.com/actworks/control-tower/internal/tracker"
	"github.com/actworks/control-tower/internal/version"
)

// operatorRoles are the roles allowed to mutate incidents. Everyone except
// viewers: the dashboard is read-only for unmapped directory users.
var operatorRoles = []domain.Role{
	domain.RoleAdmin,
	domain.RoleManager,
	domain.RoleSupervisor,
	domain.RoleTechnician,
	domain.RoleOperator,
	domain.RoleSupport,
	domain.RoleSafety,
}

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	store         *tracker.Store
	server        *http.Server
	metricsServer *http.Server
	watchdog      *tracker.Watchdog
	rateLimiter   *httputil.RateLimiter
	bgCancel      context.CancelFunc
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := runMigrations(cfg.Database); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())

	app := &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		bgCancel: bgCancel,
	}

	router, err := app.setup(bgCtx)
	if err != nil {
		db.Close()
		bgCancel()
		return nil, fmt.Errorf("setup: %w", err)
	}

	app.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              cfg.Server.MetricsAddr(),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server", "addr", a.metricsServer.Addr)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server", "addr", a.server.Addr)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.bgCancel()

	if a.watchdog != nil {
		a.watchdog.Stop()
	}

	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}

	// Shutdown both servers in parallel
	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	a.db.Close()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Store returns the incident store. Used in tests to inspect state.
func (a *App) Store() *tracker.Store {
	return a.store
}

func (a *App) setup(ctx context.Context) (*chi.Mux, error) {
	identityRepo := identitypostgres.NewRepository(a.db)
	jwtAuth := jwt.New(a.config.Auth.JWTSecret, a.config.Auth.AccessTokenDuration)
	identityService := identity.NewService(identityRepo, jwtAuth, a.config.Auth.RefreshTokenDuration)

	bootCtx, bootCancel := context.WithTimeout(ctx, 10*time.Second)
	defer bootCancel()

	if err := identityService.EnsureAdmin(bootCtx, a.config.Auth.BootstrapAdminEmail, a.config.Auth.BootstrapAdminPass); err != nil {
		return nil, err
	}

	users, err := identityService.ListUsers(bootCtx)
	if err != nil {
		return nil, fmt.Errorf("load user directory: %w", err)
	}

	a.store = tracker.NewStore(users)

	if a.config.Seed.Enabled {
		if err := tracker.SeedIncidents(a.store, a.config.Seed.Incidents, users); err != nil {
			return nil, err
		}
	}

	trackerService := tracker.NewService(a.store)
	trackerHandler := tracker.NewHandler(trackerService)

	identityHandler := identity.NewHandler(identityService, identity.CookieSettings{
		Secure:               a.config.Auth.CookieSecure,
		Domain:               a.config.Auth.CookieDomain,
		AccessTokenDuration:  a.config.Auth.AccessTokenDuration,
		RefreshTokenDuration: a.config.Auth.RefreshTokenDuration,
	})

	a.watchdog = tracker.NewWatchdog(tracker.WatchdogConfig{
		PollInterval: a.config.Watchdog.PollInterval,
	}, a.store)
	a.watchdog.Start(ctx)

	go a.collectDBMetrics(ctx)
	go a.syncDirectory(ctx, identityService)

	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))

	if a.config.RateLimit.Enabled {
		a.rateLimiter = httputil.NewRateLimiter(a.config.RateLimit.RPS, a.config.RateLimit.Burst)
		r.Use(a.rateLimiter.Middleware)
	}

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	r.Route("/api/v1", func(r chi.Router) {
		identityHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(httputil.AuthMiddleware(identityService))

			identityHandler.RegisterProtectedRoutes(r)
			trackerHandler.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(httputil.RequireRole(operatorRoles...))
				trackerHandler.RegisterOperatorRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(httputil.RequireRole(domain.RoleAdmin))
				identityHandler.RegisterAdminRoutes(r)
			})
		})
	})

	return r, nil
}

func (a *App) collectDBMetrics(ctx context.Context) {
	// Collect immediately on start
	metrics.RecordDBPoolMetrics(a.db)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.RecordDBPoolMetrics(a.db)
		case <-ctx.Done():
			return
		}
	}
}

// syncDirectory keeps the store's user snapshot aligned with the directory
// so assignment pickers see created or deleted users without a restart.
func (a *App) syncDirectory(ctx context.Context, identityService *identity.Service) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			users, err := identityService.ListUsers(ctx)
			if err != nil {
				slog.Error("failed to refresh user directory", "error", err)
				continue
			}
			a.store.SetUsers(users)
		case <-ctx.Done():
			return
		}
	}
}

func runMigrations(cfg config.DatabaseConfig) error {
	m, err := migrate.New("file://"+cfg.MigrationsPath, cfg.URL)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
