// Package config loads the console configuration.
//
// Values come from three layers, each overriding the last: built-in
// defaults, an optional YAML file named by GARAGE_CONFIG_FILE, and GARAGE_*
// environment variables.
//
// # Configuration Structure
//
// Server settings:
//
//	GARAGE_HOST="0.0.0.0"
//	GARAGE_PORT="8080"
//	GARAGE_HEALTH_PORT="9090"
//	GARAGE_READ_TIMEOUT="15s"
//	GARAGE_CORS_ORIGINS="https://console.example.com"
//	GARAGE_AUTO_MIGRATE="true"
//
// Storage settings:
//
//	GARAGE_DATABASE_DRIVER="postgres"  # postgres, sqlite3
//	GARAGE_DATABASE_URL="postgres://localhost/garage"
//	GARAGE_OBJECT_STORE="s3"           # filesystem, s3
//	GARAGE_S3_BUCKET="garage-assets"
//	GARAGE_REDIS_URL="redis://localhost:6379/0"
//
// Identity settings:
//
//	GARAGE_OIDC_ISSUER_URL="https://idp.example.com"
//	GARAGE_OIDC_CLIENT_ID="garage"
//	GARAGE_OIDC_CLIENT_SECRET="..."
//	GARAGE_OIDC_REDIRECT_URL="https://console.example.com/auth/callback"
//
// Observability settings:
//
//	GARAGE_LOG_LEVEL="info"  # debug, info, warn, error
//	GARAGE_METRICS_ENABLED="true"
//	GARAGE_OTEL_ENABLED="true"
//	GARAGE_OTEL_ENDPOINT="otel-collector:4317"
//
// The same keys in YAML:
//
//	server:
//	  port: "8080"
//	storage:
//	  driver: postgres
//	  database_url: postgres://localhost/garage
//	rate_limit:
//	  anonymous:
//	    requests_per_window: 100
//	    window: 1m
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
package config
