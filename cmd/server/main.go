// Command server wires the document validator, the test-session lifecycle
// and their supporting stores into one HTTP process. Business logic lives in
// the internal packages; main only builds dependencies and owns the
// lifecycle.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"atsnet/internal/audit"
	"atsnet/internal/auth"
	authhandler "atsnet/internal/auth/handler"
	"atsnet/internal/center"
	inspectionhandler "atsnet/internal/inspection/handler"
	inspectionservice "atsnet/internal/inspection/service"
	"atsnet/internal/platform/config"
	"atsnet/internal/platform/httpserver"
	"atsnet/internal/platform/logger"
	"atsnet/internal/platform/metrics"
	"atsnet/internal/platform/middleware"
	platformredis "atsnet/internal/platform/redis"
	"atsnet/internal/storage"
	"atsnet/internal/validation"
	"atsnet/internal/vehicle"
	"atsnet/pkg/domain"
	"atsnet/pkg/platform/httputil"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	// Document and audit stores: postgres when configured, in-memory
	// otherwise.
	var (
		store      storage.Store
		auditStore audit.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, storage.Schema); err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, audit.PostgresSchema); err != nil {
			return err
		}
		store = storage.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		log.Info("using postgres storage")
	} else {
		store = storage.NewMemory()
		auditStore = audit.NewMemoryStore()
		log.Warn("no database configured, using in-memory storage")
	}

	// Login sessions live in redis when configured.
	var sessionStore auth.SessionStore
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessionStore = auth.NewRedisSessionStore(redisClient.Client)
		log.Info("using redis login sessions")
	} else {
		sessionStore = auth.NewMemorySessionStore(nil)
		log.Warn("no redis configured, using in-memory login sessions")
	}

	m := metrics.New()

	publisher := audit.NewPublisher(cfg.AuditBufferSize, audit.WithLogger(log))
	worker := audit.NewWorker(auditStore, publisher.Events(), log)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()
	go trackDroppedAudits(ctx, publisher, m)

	validator := validation.New(validation.WithLogger(log))
	resolver := validation.NewResolver(store)

	tokens := auth.NewTokenService(cfg.JWTSigningKey, cfg.JWTIssuer)
	authService := auth.New(store, validator, sessionStore, tokens,
		auth.WithLogger(log),
		auth.WithAuditPublisher(publisher),
		auth.WithTokenTTL(cfg.TokenTTL),
	)

	sessionService, err := inspectionservice.New(store, validator, resolver,
		inspectionservice.WithLogger(log),
		inspectionservice.WithAuditPublisher(publisher),
		inspectionservice.WithMetrics(m),
	)
	if err != nil {
		return err
	}
	centerService := center.New(store, validator,
		center.WithLogger(log),
		center.WithAuditPublisher(publisher),
	)
	vehicleService := vehicle.New(store, validator, resolver,
		vehicle.WithLogger(log),
		vehicle.WithAuditPublisher(publisher),
	)

	authHandler := authhandler.New(authService, log)
	sessionHandler := inspectionhandler.New(sessionService, log)
	centerHandler := center.NewHandler(centerService, log)
	vehicleHandler := vehicle.NewHandler(vehicleService, log)

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.Recoverer)

	router.Get("/healthz", healthHandler(redisClient))
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		authHandler.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(auth.NewMiddlewareAdapter(authService), log))

			authHandler.RegisterProtected(r)
			sessionHandler.Register(r)
			centerHandler.Register(r)
			vehicleHandler.Register(r)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(log, domain.RoleAdmin))
				authHandler.RegisterAdmin(r)
			})
		})
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// trackDroppedAudits reflects the publisher's drop counter into the gauge.
func trackDroppedAudits(ctx context.Context, publisher *audit.Publisher, m *metrics.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.AuditEventsDropped.Set(float64(publisher.Dropped()))
		}
	}
}

func healthHandler(redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				status["status"] = "degraded"
				status["redis"] = "unreachable"
				httputil.WriteJSON(w, http.StatusServiceUnavailable, status)
				return
			}
			status["redis"] = "ok"
		}
		httputil.WriteJSON(w, http.StatusOK, status)
	}
}
