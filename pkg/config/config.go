package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/garage/pkg/identity"
	"github.com/platinummonkey/garage/pkg/middleware"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/storage"
)

// FileEnvVar names the optional YAML configuration file
const FileEnvVar = "GARAGE_CONFIG_FILE"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Storage configuration
	Storage storage.Config `yaml:"storage"`

	// Identity provider configuration
	Identity identity.Config `yaml:"identity"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	CORSOrigins     []string      `yaml:"cors_origins"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`

	// AutoMigrate applies the schema at startup
	AutoMigrate bool `yaml:"auto_migrate"`
}

// RateLimitConfig holds the Redis rate limiter settings
type RateLimitConfig struct {
	Enabled     bool                       `yaml:"enabled"`
	PerIdentity middleware.RateLimitConfig `yaml:"per_identity"`
	Anonymous   middleware.RateLimitConfig `yaml:"anonymous"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel string `yaml:"log_level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTel observability.OTelConfig `yaml:"otel"`
}

// Level returns the parsed log level
func (o ObservabilityConfig) Level() observability.LogLevel {
	return observability.ParseLogLevel(o.LogLevel)
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    10 << 20,
			HealthPort:      "9090",
		},
		Storage: storage.DefaultConfig(),
		Identity: identity.Config{
			Scopes:     []string{"openid", "profile", "email"},
			SessionTTL: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Enabled:     true,
			PerIdentity: middleware.PerIdentityRateLimitConfig(),
			Anonymous:   middleware.DefaultRateLimitConfig(),
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			MetricsEnabled: true,
			OTel: observability.OTelConfig{
				Endpoint:       "localhost:4317",
				ServiceName:    "garage",
				ServiceVersion: "1.0.0",
				Insecure:       true,
				SampleRatio:    1.0,
			},
		},
	}
}

// LoadConfig loads the defaults, then the YAML file named by
// GARAGE_CONFIG_FILE, then GARAGE_* environment variables, and validates
// the result
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnvVar); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyServerEnv()
	cfg.applyStorageEnv()
	cfg.applyIdentityEnv()
	cfg.applyRateLimitEnv()
	cfg.applyObservabilityEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadStorageConfig loads only the storage section. Admin tools use it so
// they do not need identity provider credentials.
func LoadStorageConfig() (storage.Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnvVar); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return storage.Config{}, err
		}
	}
	cfg.applyStorageEnv()

	switch cfg.Storage.Driver {
	case "postgres", "sqlite3":
	default:
		return storage.Config{}, fmt.Errorf("invalid database driver: %s (must be postgres or sqlite3)", cfg.Storage.Driver)
	}
	if cfg.Storage.DatabaseURL == "" {
		return storage.Config{}, fmt.Errorf("database URL is required")
	}
	return cfg.Storage, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyServerEnv() {
	s := &c.Server
	s.Host = getEnv("GARAGE_HOST", s.Host)
	s.Port = getEnv("GARAGE_PORT", s.Port)
	s.ReadTimeout = getEnvDuration("GARAGE_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("GARAGE_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("GARAGE_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("GARAGE_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.MaxBodyBytes = getEnvInt64("GARAGE_MAX_BODY_BYTES", s.MaxBodyBytes)
	s.CORSOrigins = getEnvList("GARAGE_CORS_ORIGINS", s.CORSOrigins)
	s.HealthPort = getEnv("GARAGE_HEALTH_PORT", s.HealthPort)
	s.AutoMigrate = getEnvBool("GARAGE_AUTO_MIGRATE", s.AutoMigrate)
}

func (c *Config) applyStorageEnv() {
	s := &c.Storage

	// Relational store
	s.Driver = getEnv("GARAGE_DATABASE_DRIVER", s.Driver)
	s.DatabaseURL = getEnv("GARAGE_DATABASE_URL", s.DatabaseURL)
	if maxConns := getEnvInt("GARAGE_DATABASE_MAX_CONNS", 0); maxConns > 0 {
		s.MaxConns = maxConns
	}
	if minConns := getEnvInt("GARAGE_DATABASE_MIN_CONNS", 0); minConns > 0 {
		s.MinConns = minConns
	}
	s.Timeout = getEnvDuration("GARAGE_DATABASE_TIMEOUT", s.Timeout)

	// Object store
	s.ObjectStore = getEnv("GARAGE_OBJECT_STORE", s.ObjectStore)
	s.FilesystemRoot = getEnv("GARAGE_FILESYSTEM_ROOT", s.FilesystemRoot)
	s.S3Endpoint = getEnv("GARAGE_S3_ENDPOINT", s.S3Endpoint)
	s.S3Region = getEnv("GARAGE_S3_REGION", s.S3Region)
	s.S3Bucket = getEnv("GARAGE_S3_BUCKET", s.S3Bucket)
	s.S3AccessKey = getEnv("GARAGE_S3_ACCESS_KEY", s.S3AccessKey)
	s.S3SecretKey = getEnv("GARAGE_S3_SECRET_KEY", s.S3SecretKey)
	s.S3UsePathStyle = getEnvBool("GARAGE_S3_USE_PATH_STYLE", s.S3UsePathStyle)

	// Redis
	s.RedisURL = getEnv("GARAGE_REDIS_URL", s.RedisURL)
	s.RedisPassword = getEnv("GARAGE_REDIS_PASSWORD", s.RedisPassword)
	if redisDB := getEnvInt("GARAGE_REDIS_DB", -1); redisDB >= 0 {
		s.RedisDB = redisDB
	}
	if poolSize := getEnvInt("GARAGE_REDIS_POOL_SIZE", 0); poolSize > 0 {
		s.RedisPoolSize = poolSize
	}
}

func (c *Config) applyIdentityEnv() {
	i := &c.Identity
	i.IssuerURL = getEnv("GARAGE_OIDC_ISSUER_URL", i.IssuerURL)
	i.ClientID = getEnv("GARAGE_OIDC_CLIENT_ID", i.ClientID)
	i.ClientSecret = getEnv("GARAGE_OIDC_CLIENT_SECRET", i.ClientSecret)
	i.RedirectURL = getEnv("GARAGE_OIDC_REDIRECT_URL", i.RedirectURL)
	i.Scopes = getEnvList("GARAGE_OIDC_SCOPES", i.Scopes)
	i.SessionCookie = getEnv("GARAGE_SESSION_COOKIE", i.SessionCookie)
	i.SecureCookies = getEnvBool("GARAGE_SECURE_COOKIES", i.SecureCookies)
	i.SessionTTL = getEnvDuration("GARAGE_SESSION_TTL", i.SessionTTL)
}

func (c *Config) applyRateLimitEnv() {
	r := &c.RateLimit
	r.Enabled = getEnvBool("GARAGE_RATE_LIMIT_ENABLED", r.Enabled)
	r.PerIdentity.RequestsPerWindow = getEnvInt("GARAGE_RATE_LIMIT_IDENTITY_REQUESTS", r.PerIdentity.RequestsPerWindow)
	r.Anonymous.RequestsPerWindow = getEnvInt("GARAGE_RATE_LIMIT_ANONYMOUS_REQUESTS", r.Anonymous.RequestsPerWindow)
}

func (c *Config) applyObservabilityEnv() {
	o := &c.Observability
	o.LogLevel = getEnv("GARAGE_LOG_LEVEL", o.LogLevel)
	o.MetricsEnabled = getEnvBool("GARAGE_METRICS_ENABLED", o.MetricsEnabled)
	o.OTel.Enabled = getEnvBool("GARAGE_OTEL_ENABLED", o.OTel.Enabled)
	o.OTel.Endpoint = getEnv("GARAGE_OTEL_ENDPOINT", o.OTel.Endpoint)
	o.OTel.ServiceName = getEnv("GARAGE_OTEL_SERVICE_NAME", o.OTel.ServiceName)
	o.OTel.ServiceVersion = getEnv("GARAGE_OTEL_SERVICE_VERSION", o.OTel.ServiceVersion)
	o.OTel.Insecure = getEnvBool("GARAGE_OTEL_INSECURE", o.OTel.Insecure)
	o.OTel.SampleRatio = getEnvFloat("GARAGE_OTEL_SAMPLE_RATIO", o.OTel.SampleRatio)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate storage config
	switch c.Storage.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite3)", c.Storage.Driver)
	}
	if c.Storage.DatabaseURL == "" {
		return fmt.Errorf("database URL is required")
	}

	switch c.Storage.ObjectStore {
	case "filesystem":
		if c.Storage.FilesystemRoot == "" {
			return fmt.Errorf("filesystem root is required for filesystem object storage")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 object storage")
		}
	default:
		return fmt.Errorf("invalid object store: %s (must be filesystem or s3)", c.Storage.ObjectStore)
	}

	if c.Storage.RedisURL == "" {
		return fmt.Errorf("redis URL is required for sessions")
	}

	if err := c.Identity.Validate(); err != nil {
		return fmt.Errorf("invalid identity config: %w", err)
	}

	// Validate OpenTelemetry config
	if c.Observability.OTel.Enabled {
		if c.Observability.OTel.Endpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTel.ServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
		if r := c.Observability.OTel.SampleRatio; r < 0 || r > 1 {
			return fmt.Errorf("OpenTelemetry sample ratio must be between 0 and 1, got %v", r)
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
