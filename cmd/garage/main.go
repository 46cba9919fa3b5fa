package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/garage/pkg/api"
	"github.com/platinummonkey/garage/pkg/billing"
	"github.com/platinummonkey/garage/pkg/config"
	"github.com/platinummonkey/garage/pkg/garages"
	"github.com/platinummonkey/garage/pkg/httputil"
	"github.com/platinummonkey/garage/pkg/identity"
	"github.com/platinummonkey/garage/pkg/middleware"
	"github.com/platinummonkey/garage/pkg/notifications"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/provisioning"
	"github.com/platinummonkey/garage/pkg/storage"
	"github.com/platinummonkey/garage/pkg/storage/postgres"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatalf("Garage server stopped: %v", err)
	}
	log.Info("Garage server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	logger := observability.NewLogger(cfg.Observability.Level(), os.Stdout)
	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)
	defer func() {
		if err := shutdown.Shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("Shutdown finished with errors")
		}
	}()

	otelProviders, err := observability.InitOTel(ctx, cfg.Observability.OTel, logger)
	if err != nil {
		return fmt.Errorf("init opentelemetry: %w", err)
	}
	if otelProviders != nil {
		shutdown.Register("otel", otelProviders.Shutdown)
	}

	db, err := postgres.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	shutdown.Register("database", func(context.Context) error { return db.Close() })
	log.WithField("driver", cfg.Storage.Driver).Info("Database connected")

	if cfg.Server.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, db, cfg.Storage.Driver); err != nil {
			return err
		}
		log.Info("Database schema ensured")
	}

	redisClient, err := postgres.NewRedisClient(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	shutdown.Register("redis", func(context.Context) error { return redisClient.Close() })

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	if err := metrics.RegisterDBStats(db, "garage"); err != nil {
		log.WithError(err).Warn("Failed to register database stats")
	}

	store := postgres.NewStore(db)
	health := observability.NewHealthChecker(store, redisClient, cfg.Observability.OTel.ServiceVersion)

	objects, err := openObjectStore(ctx, cfg.Storage, health)
	if err != nil {
		return err
	}

	sessions := identity.NewRedisSessionStore(redisClient, cfg.Identity.SessionTTL)
	provider, err := identity.NewOIDCProvider(ctx, cfg.Identity, sessions, logger)
	if err != nil {
		return fmt.Errorf("init identity provider: %w", err)
	}

	activity := notifications.NewActivityLogger(store, logger, metrics)
	billingService := billing.NewService(store, logger)
	garageService := garages.NewService(store, objects, activity, billingService, logger, metrics)
	provisioner := provisioning.NewProvisioner(store, provider, activity, logger, metrics)

	middlewares := []mux.MiddlewareFunc{
		observability.HTTPMetricsMiddleware(metrics),
		middleware.NewIdentityMiddleware(provider, logger, true).Handler,
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimitMiddleware(redisClient, cfg.RateLimit.PerIdentity, cfg.RateLimit.Anonymous, logger)
		middlewares = append(middlewares, limiter.Handler)
	}

	server := api.NewServer(middlewares...)
	server.RegisterRoutes(
		api.NewAuthHandlers(provider),
		api.NewLandingHandlers(provisioner, provider.SignInURL(), logger),
		api.NewGarageHandlers(garageService, activity, store, logger),
		api.NewBillingHandlers(billingService, garageService.Checker(), store, logger),
	)

	handler := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
		httputil.CORSMiddleware(cfg.Server.CORSOrigins),
		httputil.MaxBytesMiddleware(cfg.Server.MaxBodyBytes),
	)(server)

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      otelhttp.NewHandler(handler, "garage"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthRouter := mux.NewRouter()
	observability.RegisterHealthRoutes(healthRouter, health)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthRouter, metrics)
	}
	healthServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:     healthRouter,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	// Servers stop first; shutdown runs in reverse registration order.
	shutdown.Register("health server", healthServer.Shutdown)
	shutdown.Register("api server", apiServer.Shutdown)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", apiServer.Addr).Info("Starting garage API server")
		return serve(apiServer)
	})
	g.Go(func() error {
		log.WithField("addr", healthServer.Addr).Info("Starting health server")
		return serve(healthServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		return shutdown.Shutdown(context.Background())
	})

	return g.Wait()
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", srv.Addr, err)
	}
	return nil
}

func openObjectStore(ctx context.Context, cfg storage.Config, health *observability.HealthChecker) (storage.ObjectStore, error) {
	switch cfg.ObjectStore {
	case "s3":
		objects, err := postgres.NewS3ObjectStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		health.AddCheck("s3", objects.HealthCheck)
		return objects, nil
	default:
		return storage.NewFileSystemObjectStore(cfg.FilesystemRoot)
	}
}
