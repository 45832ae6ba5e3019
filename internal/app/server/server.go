package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"vacations/internal/domain/audit"
	"vacations/internal/domain/auth"
	"vacations/internal/domain/directory"
	"vacations/internal/domain/notifications"
	"vacations/internal/domain/reports"
	"vacations/internal/domain/vacation"
	"vacations/internal/platform/config"
	cryptoutil "vacations/internal/platform/crypto"
	"vacations/internal/platform/db"
	"vacations/internal/platform/email"
	"vacations/internal/platform/jobs"
	"vacations/internal/platform/metrics"
	"vacations/internal/transport/http/middleware"
)

// App owns the process-wide resources behind the HTTP API.
type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Logger  *slog.Logger
}

type services struct {
	auth          *auth.Service
	authStore     *auth.Store
	audit         *audit.Service
	notifications *notifications.Service
	vacation      *vacation.Service
	directory     *directory.Service
	reports       *reports.Service
	idempotency   *middleware.PGIdempotencyStore
	mailer        notifications.Mailer
}

// NewLogger returns JSON output in production and text elsewhere.
func NewLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// New connects to the database, prepares the schema when configured to and
// wires every service behind the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := NewLogger(cfg)
	slog.SetDefault(logger)

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		applied, err := db.Migrate(ctx, pool, db.Migrations())
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		logger.Info("migrations applied", "count", applied)
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	box, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}

	collector := metrics.New()
	svc := buildServices(pool, cfg, box, collector)
	jobService := jobs.New(pool, svc.vacation, cfg.AccrualInterval)

	app := &App{
		Config:  cfg,
		DB:      pool,
		Jobs:    jobService,
		Metrics: collector,
		Logger:  logger,
	}
	app.Router = newRouter(app, svc)
	return app, nil
}

func buildServices(pool *pgxpool.Pool, cfg config.Config, box *cryptoutil.Service, collector *metrics.Collector) services {
	mailer := email.New(cfg)
	authStore := auth.NewStore(pool)
	auditService := audit.New(pool)
	notificationService := notifications.New(notifications.NewStore(pool), mailer, cfg.EmailFrom)
	return services{
		auth:          auth.NewService(authStore, cfg.JWTSecret, box),
		authStore:     authStore,
		audit:         auditService,
		notifications: notificationService,
		vacation:      vacation.NewService(vacation.NewStore(pool), notificationService, auditService, collector),
		directory:     directory.NewService(directory.NewStore(pool)),
		reports:       reports.NewService(reports.NewStore(pool)),
		idempotency:   middleware.NewIdempotencyStore(pool),
		mailer:        mailer,
	}
}

// Run serves HTTP and runs background jobs until ctx is cancelled, then
// drains in-flight requests within the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("vacations server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.Jobs.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		a.Logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
