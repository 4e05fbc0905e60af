package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	cfhttp "github.com/Strob0t/TenantForge/internal/adapter/http"
	cfnats "github.com/Strob0t/TenantForge/internal/adapter/nats"
	"github.com/Strob0t/TenantForge/internal/adapter/natskv"
	cfotel "github.com/Strob0t/TenantForge/internal/adapter/otel"
	"github.com/Strob0t/TenantForge/internal/adapter/postgres"
	"github.com/Strob0t/TenantForge/internal/adapter/ristretto"
	"github.com/Strob0t/TenantForge/internal/adapter/tiered"
	"github.com/Strob0t/TenantForge/internal/config"
	"github.com/Strob0t/TenantForge/internal/logger"
	"github.com/Strob0t/TenantForge/internal/middleware"
	"github.com/Strob0t/TenantForge/internal/port/cache"
	"github.com/Strob0t/TenantForge/internal/port/messagequeue"
	"github.com/Strob0t/TenantForge/internal/resilience"
	"github.com/Strob0t/TenantForge/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "serve":
		case "migrate":
			return runMigrate(args[1:])
		case "admin":
			return runAdmin(args[1:])
		case "help", "-h", "--help":
			printHelp()
			return nil
		default:
			printHelp()
			return fmt.Errorf("unknown command: %s", args[0])
		}
	}
	return serve()
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Usage: tenantforge [command]

Commands:
  serve     Run the HTTP server (default)
  migrate   Apply or roll back database migrations
  admin     Tenant administration (create-tenant, delete-tenant, list-tenants)
`)
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"root_domain", cfg.Server.RootDomain,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"nats", cfg.NATS.URL != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	// OTel instruments are exported on the same registry as the HTTP metrics.
	var reg *prometheus.Registry
	var promReg prometheus.Registerer
	if cfg.Telemetry.Prometheus {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		promReg = reg
	}

	otelShutdown, err := cfotel.Setup(ctx, cfg.Telemetry, cfg.Logging.Service, promReg)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := otelShutdown(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	migrator, err := postgres.NewMigrator(pool)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	applied, err := migrator.Up(ctx)
	_ = migrator.Close()
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied", "count", applied)

	l1, err := ristretto.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()

	// Without NATS the service runs on the local cache alone and drops events.
	var (
		queue       messagequeue.Queue
		tenantCache cache.Cache = l1
		idemCache   cache.Cache = l1
	)
	if cfg.NATS.URL != "" {
		q, err := cfnats.Connect(ctx, cfg.NATS)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = q.Close() }()
		queue = q

		tenantKV, err := natskv.Open(ctx, q.JetStream(), cfg.NATS.CacheBucket, cfg.Cache.TenantTTL)
		if err != nil {
			return fmt.Errorf("nats kv: %w", err)
		}
		tenantCache = tiered.New(l1, tenantKV, cfg.Cache.TenantTTL)

		idemKV, err := natskv.Open(ctx, q.JetStream(), cfg.NATS.IdempotencyBucket, cfg.Cache.IdempotencyTTL)
		if err != nil {
			return fmt.Errorf("nats kv: %w", err)
		}
		idemCache = tiered.New(l1, idemKV, cfg.Cache.IdempotencyTTL)
		slog.Info("nats connected", "stream", cfg.NATS.Stream)
	}

	// --- Services ---

	store := postgres.NewStore(pool)

	events := service.NewEventPublisher(queue, resilience.NewBreaker("events", cfg.Breaker))
	events.SetMetrics(metrics)

	tenants := service.NewTenantService(store, tenantCache, cfg.Cache.TenantTTL)
	provision := service.NewProvisionService(store, tenants, cfg.Server)
	provision.SetEvents(events)
	provision.SetMetrics(metrics)
	resolver := service.NewResolver(tenants, store, provision)
	resolver.SetMetrics(metrics)
	collections := service.NewCollectionService(store)
	collections.SetEvents(events)
	documents := service.NewDocumentService(store)
	documents.SetEvents(events)
	documents.SetMetrics(metrics)

	if queue != nil {
		cancelEvictions, err := service.SubscribeTenantEvictions(ctx, queue, tenants)
		if err != nil {
			return fmt.Errorf("tenant eviction subscriber: %w", err)
		}
		defer cancelEvictions()
	}

	// --- HTTP ---

	handlers := &cfhttp.Handlers{
		Tenants:     tenants,
		Provision:   provision,
		Resolver:    resolver,
		Collections: collections,
		Documents:   documents,
		Store:       store,
		Queue:       queue,
		BodyLimit:   cfg.Server.BodyLimit,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate)
	limiter.SetKnownTenant(tenants.Exists)
	limiter.StartCleanup(ctx, cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)

	opts := cfhttp.RouteOptions{
		RateLimiter:    limiter,
		Idempotency:    idemCache,
		IdempotencyTTL: cfg.Cache.IdempotencyTTL,
	}
	if reg != nil {
		opts.Metrics = cfhttp.NewPrometheusMetrics(reg)
	}

	r := chi.NewRouter()
	r.Use(cfotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Tenant(cfg.Server.LocalSuffixes))
	r.Use(cfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cfhttp.SecurityHeaders)
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	cfhttp.MountRoutes(r, handlers, opts)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
