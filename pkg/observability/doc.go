// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("garage_id", id).Info("Garage updated")
//
// Request handlers use FromContext, which adds the request id, garage id
// and trace ids carried by the context.
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//	metrics.ObserveProvisioning("created")
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(store, redisClient, version)
//	checker.AddCheck("object_store", s3.HealthCheck)
//
// The database is required; redis and registered checks only degrade.
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, cfg, logger)
//	defer providers.Shutdown(ctx)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/httputil: Request logging middleware
package observability
