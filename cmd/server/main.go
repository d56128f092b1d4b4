package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/time/rate"

	"flowrunner/internal/infra/adapter/persistence/postgres"
	"flowrunner/internal/infra/db"
	"flowrunner/internal/pipeline"
	"flowrunner/internal/repository"
	"flowrunner/internal/resilience/circuitbreaker"
	"flowrunner/internal/websub"
	"flowrunner/pkg/config"

	hhttp "flowrunner/internal/handler/http"
	hflow "flowrunner/internal/handler/http/flow"
	"flowrunner/internal/handler/http/middleware"
	"flowrunner/internal/handler/http/requestid"
	hwebsub "flowrunner/internal/handler/http/websub"
	"flowrunner/internal/observability/logging"
	"flowrunner/internal/observability/tracing"
	flowsvc "flowrunner/internal/service/flow"
	websubsvc "flowrunner/internal/service/websub"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.LoadServerConfig(os.Getenv("FLOWRUNNER_CONFIG"))
	if err != nil {
		logger.Error("failed to load server configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if v := os.Getenv("VERSION"); v != "" {
		cfg.Version = v
	}

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	registry, svc, err := setupServices(context.Background(), database, cfg)
	if err != nil {
		logger.Error("failed to initialize services", slog.Any("error", err))
		os.Exit(1)
	}

	handler := setupRoutes(database, cfg, registry, svc)
	handler = applyMiddleware(logger, handler)

	runServer(logger, handler, cfg)
}

// initDatabase opens the database connection and runs migrations.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// setupServices builds the flow registry and WebSub subscription service,
// loading every persisted flow so the registry is ready to serve traffic.
func setupServices(ctx context.Context, database *sql.DB, cfg config.ServerConfig) (*flowsvc.Registry, *websubsvc.Service, error) {
	limiter := rate.NewLimiter(rate.Limit(cfg.FetchRatePerSecond), cfg.FetchBurst)
	deps := pipeline.NewNodeDepsWithLimiter(http.DefaultClient, limiter)

	dbcb := circuitbreaker.NewDBCircuitBreaker(database)

	flowRepo := postgres.NewFlowRepo(dbcb)
	registry := flowsvc.NewRegistry(flowRepo, deps)
	if err := registry.Load(ctx); err != nil {
		return nil, nil, err
	}

	subRepo := postgres.NewWebSubRepo(dbcb)
	svc := &websubsvc.Service{
		Repo: subRepo,
		Requester: websub.SubscribeRequester{
			Client:       http.DefaultClient,
			CallbackBase: cfg.WebSubCallbackBase,
		},
		LeaseSeconds: int64(cfg.DefaultLeaseTime.Seconds()),
	}

	return registry, svc, nil
}

// setupRoutes registers every HTTP route on a fresh ServeMux.
func setupRoutes(database *sql.DB, cfg config.ServerConfig, registry *flowsvc.Registry, svc *websubsvc.Service) http.Handler {
	flowHandler := &hflow.Handler{Registry: registry}

	subscribeHandler := &hwebsub.Handler{
		Subscribe: func(r *http.Request, flow, topic, hub, secret string) error {
			_, err := svc.Subscribe(r.Context(), flow, topic, hub, secret)
			return err
		},
	}

	receiver := &websub.Receiver{
		Subs:     websubsvc.RepoStore{Repo: subscriptionRepo(svc)},
		Flows:    registry,
		Verifier: websub.Verifier{AllowSHA1: false},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/flow", flowHandler.List)
	mux.HandleFunc("GET /api/flow/{name}", flowHandler.Get)
	mux.Handle("PUT /api/flow/{name}", hhttp.LimitRequestBody(256<<10)(http.HandlerFunc(flowHandler.Put)))
	mux.HandleFunc("DELETE /api/flow/{name}", flowHandler.Delete)
	mux.HandleFunc("POST /api/flow/{name}/subscribe", subscribeHandler.Create)
	mux.HandleFunc("GET /flow/{name}", flowHandler.Run)

	mux.HandleFunc("POST /websub/{uuid}", receiver.Push)
	mux.HandleFunc("GET /websub/{uuid}", receiver.Verify)

	mux.Handle("/health", &hhttp.HealthHandler{DB: database, Version: cfg.Version})
	mux.Handle("/ready", &hhttp.ReadyHandler{DB: database})
	mux.Handle("/live", &hhttp.LiveHandler{})
	mux.Handle("/metrics", hhttp.MetricsHandler())

	return mux
}

// subscriptionRepo recovers svc.Repo for the Receiver's store adapter; svc
// already owns the same repository instance used to persist subscriptions.
func subscriptionRepo(svc *websubsvc.Service) repository.SubscriptionRepository {
	return svc.Repo
}

// applyMiddleware wraps handler with the server's middleware chain, applied
// outermost-first: request ID, then tracing, then access logging, then
// panic recovery, then a request timeout, then input validation (which also
// caps body size), then metrics.
func applyMiddleware(logger *slog.Logger, handler http.Handler) http.Handler {
	chain := handler
	chain = hhttp.MetricsMiddleware(chain)
	chain = hhttp.InputValidation()(chain)
	chain = hhttp.Timeout(30 * time.Second)(chain)
	chain = hhttp.Recover(logger)(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = tracing.Middleware(chain)
	chain = requestid.Middleware(chain)

	ipLimiter := middleware.NewRateLimiter(120, time.Minute, &middleware.RemoteAddrExtractor{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			ipLimiter.CleanupExpired()
		}
	}()
	chain = ipLimiter.Middleware(chain)

	go hhttp.SLORecorder().Run(make(chan struct{}), time.Minute)

	return chain
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, handler http.Handler, cfg config.ServerConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting", slog.String("addr", cfg.Addr), slog.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
