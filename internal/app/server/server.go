package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ems/internal/domain/audit"
	"ems/internal/domain/employee"
	"ems/internal/domain/identity"
	"ems/internal/domain/leave"
	"ems/internal/domain/org"
	"ems/internal/platform/config"
	"ems/internal/platform/crypto"
	"ems/internal/platform/db"
	"ems/internal/platform/metrics"
	audithandler "ems/internal/transport/http/handlers/audit"
	authhandler "ems/internal/transport/http/handlers/auth"
	employeehandler "ems/internal/transport/http/handlers/employee"
	leavehandler "ems/internal/transport/http/handlers/leave"
	orghandler "ems/internal/transport/http/handlers/org"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
}

// AuditLog records and lists audit events.
type AuditLog interface {
	shared.AuditRecorder
	audithandler.Lister
}

// Deps is everything the router needs. Tests build it with fakes.
type Deps struct {
	Verifier  middleware.TokenVerifier
	Resolver  middleware.ClaimsResolver
	Metrics   *metrics.Collector
	Ready     func(ctx context.Context) error
	Employees employeehandler.EmployeeService
	Leaves    leavehandler.LeaveService
	Org       orghandler.OrgService
	Audit     AuditLog
}

// New connects to Postgres, applies migrations and seed data when enabled,
// and wires every service into the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := db.Migrate(cfg.MigrationsDir, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	tx := db.NewTransactionManager(pool)

	if cfg.RunSeed {
		if err := seed(ctx, tx, pool, cfg.SeedFile); err != nil {
			pool.Close()
			return nil, err
		}
	}

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	if !sealer.Configured() {
		slog.Warn("DATA_ENCRYPTION_KEY not set, documents and photos are stored in plaintext")
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	employees := employee.NewService(employee.PostgresStores(employee.NewStore(pool, sealer)), tx, collector)
	deps := Deps{
		Verifier:  identity.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience),
		Resolver:  identity.NewResolver(employees, cfg.ClaimNamespace),
		Metrics:   collector,
		Ready:     pool.Ping,
		Employees: employees,
		Leaves:    leave.NewService(leave.NewStore(pool), tx, collector),
		Org:       org.NewService(org.NewStore(pool), tx, collector),
		Audit:     audit.New(pool),
	}
	return &App{Config: cfg, DB: pool, Router: NewRouter(cfg, deps)}, nil
}

func seed(ctx context.Context, tx *db.TransactionManager, pool *pgxpool.Pool, path string) error {
	fixture, err := db.LoadSeedFile(path)
	if err != nil {
		return fmt.Errorf("seed file: %w", err)
	}
	err = tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		return db.Seed(ctx, db.QueryerFromContext(ctx, pool), fixture)
	})
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	slog.Info("seed data applied", "file", path)
	return nil
}

func NewRouter(cfg config.Config, deps Deps) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(deps.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes))
	router.Use(middleware.Authenticate(deps.Verifier, deps.Resolver))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler().RegisterRoutes(r)
		employeehandler.NewHandler(deps.Employees, deps.Audit, cfg.MaxUploadBytes).RegisterRoutes(r)
		leavehandler.NewHandler(deps.Leaves, deps.Audit).RegisterRoutes(r)
		orghandler.NewHandler(deps.Org, deps.Audit).RegisterRoutes(r)
		audithandler.NewHandler(deps.Audit).RegisterRoutes(r)
	})

	return router
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("EMS server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	slog.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
