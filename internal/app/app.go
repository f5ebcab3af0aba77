package app

import (
	"context"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/petstoreapp/order-service/internal/cache"
	"github.com/petstoreapp/order-service/internal/catalog"
	"github.com/petstoreapp/order-service/internal/domain/order"
	"github.com/petstoreapp/order-service/internal/handler"
	"github.com/petstoreapp/order-service/internal/repository"
	"github.com/petstoreapp/order-service/internal/storage"
	"github.com/petstoreapp/order-service/pkg/health"
	"github.com/petstoreapp/order-service/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage_backend", cfg.Storage.Backend))

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Order store backend, selected by configuration.
	var repo repository.OrderRepository
	switch cfg.Storage.Backend {
	case "postgres":
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := repository.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		repo = repository.NewPostgresRepository(pool)
	default:
		repo = repository.NewMemoryRepository()
	}

	// Catalog client with memoized product list.
	catalogClient := catalog.NewClient(catalog.ClientConfig{
		BaseURL: cfg.Catalog.URL,
		Timeout: cfg.Catalog.Timeout,
		MemoTTL: cfg.Catalog.MemoTTL,
	})

	// Store/cache duality with the scheduled full flush.
	var orderCache *cache.Cache
	flushTargets := []cache.Flushable{catalogClient}
	if cfg.Cache.Enabled {
		orderCache = cache.New()
		flushTargets = append(flushTargets, orderCache)
	}
	store := storage.New(repo, orderCache)
	go cache.RunFlusher(zctx.Base(ctx, lg), cfg.Cache.FlushInterval, flushTargets...)

	// Domain service and HTTP handlers.
	orderService := order.NewService(store, catalogClient)

	hostname, _ := os.Hostname()
	h := handler.New(
		handler.Config{Version: serviceVersion(), Hostname: hostname},
		orderService,
		catalogClient,
		store,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/", otelhttp.NewHandler(h.Routes(), "order-service",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.SessionTracing(),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	healthSvc.SetReady(true)
	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// serviceVersion reports the main module version from build info, or "dev".
func serviceVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}
