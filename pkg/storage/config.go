package storage

import "time"

// Config for storage backends
type Config struct {
	// Driver is "postgres" or "sqlite3"
	Driver string `yaml:"driver"`

	// DatabaseURL is a postgres URL or a sqlite3 DSN
	DatabaseURL     string        `yaml:"database_url"`
	MaxConns        int           `yaml:"max_conns"`
	MinConns        int           `yaml:"min_conns"`
	Timeout         time.Duration `yaml:"timeout"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`

	// ObjectStore is "filesystem" or "s3"
	ObjectStore    string `yaml:"object_store"`
	FilesystemRoot string `yaml:"filesystem_root"`

	// S3 config
	S3Endpoint     string `yaml:"s3_endpoint"`
	S3Region       string `yaml:"s3_region"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
	S3UsePathStyle bool   `yaml:"s3_use_path_style"`

	// Redis config
	RedisURL        string `yaml:"redis_url"`
	RedisPassword   string `yaml:"redis_password"`
	RedisDB         int    `yaml:"redis_db"`
	RedisMaxRetries int    `yaml:"redis_max_retries"`
	RedisPoolSize   int    `yaml:"redis_pool_size"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Driver:          "postgres",
		DatabaseURL:     "postgres://localhost:5432/garage?sslmode=disable",
		MaxConns:        20,
		MinConns:        2,
		Timeout:         10 * time.Second,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		ObjectStore:     "filesystem",
		FilesystemRoot:  "/tmp/garage",
		S3Region:        "us-east-1",
		S3Bucket:        "garage-assets",
		RedisMaxRetries: 3,
		RedisPoolSize:   10,
	}
}
