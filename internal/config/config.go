package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the gallery service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"gallery-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"GALLERY_API_PORT" envDefault:"8290"`
	LogLevel        string        `env:"GALLERY_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database (required, no default)
	DBPostgresqlWriteDSN string `env:"DB_POSTGRESQL_WRITE_DSN,notEmpty"`

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Photo Picker Provider
	PickerBaseURL     string        `env:"PICKER_API_BASE_URL" envDefault:"https://photospicker.googleapis.com/v1"`
	PickerAccessToken string        `env:"PICKER_ACCESS_TOKEN"`
	PickerAssetHost   string        `env:"PICKER_ASSET_HOST" envDefault:"googleusercontent.com"`
	PickerTimeout     time.Duration `env:"PICKER_HTTP_TIMEOUT" envDefault:"30s"`
	PollInterval      time.Duration `env:"PICKER_POLL_INTERVAL" envDefault:"1s"`
	PollMaxAttempts   int           `env:"PICKER_POLL_MAX_ATTEMPTS" envDefault:"60"`

	// Ingestion
	DownloadTimeout time.Duration `env:"GALLERY_DOWNLOAD_TIMEOUT" envDefault:"30s"`
	MaxMediaBytes   int64         `env:"GALLERY_MAX_BYTES" envDefault:"20971520"`
	ThumbnailEdge   int           `env:"GALLERY_THUMBNAIL_EDGE" envDefault:"300"`

	// Storage Backend Selection
	StorageBackend string `env:"GALLERY_STORAGE_BACKEND" envDefault:"s3"` // Options: "s3" or "local"

	// Local Storage Configuration
	LocalStoragePath    string `env:"GALLERY_LOCAL_STORAGE_PATH"`
	LocalStorageBaseURL string `env:"GALLERY_LOCAL_STORAGE_BASE_URL"`

	// S3 Storage Configuration
	S3Endpoint       string `env:"GALLERY_S3_ENDPOINT"`
	S3PublicEndpoint string `env:"GALLERY_S3_PUBLIC_ENDPOINT"`
	S3Region         string `env:"GALLERY_S3_REGION" envDefault:"us-west-2"`
	S3Bucket         string `env:"GALLERY_S3_BUCKET"`
	S3AccessKeyID    string `env:"GALLERY_S3_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"GALLERY_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle   bool   `env:"GALLERY_S3_USE_PATH_STYLE" envDefault:"true"`

	// Authentication
	AuthEnabled  bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer   string `env:"AUTH_ISSUER"`
	AuthAudience string `env:"AUTH_AUDIENCE"`
	AuthJWKSURL  string `env:"AUTH_JWKS_URL"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	cfg.S3PublicEndpoint = strings.TrimSpace(cfg.S3PublicEndpoint)
	cfg.PickerBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PickerBaseURL), "/")
	cfg.PickerAccessToken = strings.TrimSpace(cfg.PickerAccessToken)

	if cfg.MaxMediaBytes <= 0 {
		cfg.MaxMediaBytes = 20 * 1024 * 1024
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.PollMaxAttempts <= 0 {
		cfg.PollMaxAttempts = 60
	}
	if cfg.ThumbnailEdge <= 0 {
		cfg.ThumbnailEdge = 300
	}
	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return cfg, nil
}

// GetDatabaseWriteDSN returns the write database connection string.
func (c *Config) GetDatabaseWriteDSN() string {
	return c.DBPostgresqlWriteDSN
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsLocalStorage returns true if local storage backend is configured.
func (c *Config) IsLocalStorage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "local"
}

// IsS3Storage returns true if S3 storage backend is configured.
func (c *Config) IsS3Storage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "s3"
}
