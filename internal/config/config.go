// Package config provides centralized configuration management for the map
// service. It loads configuration from environment variables with sensible
// defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Maps     MapsConfig
	Archive  ArchiveConfig
	Events   EventsConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StorageConfig selects where marker lists and map options live.
type StorageConfig struct {
	// Backend is one of memory, badger, postgres (default: badger)
	Backend string `env:"STORAGE_BACKEND" default:"badger"`

	// BadgerDir is the data directory of the badger backend (default: ./data/markers)
	BadgerDir string `env:"BADGER_DIR" default:"./data/markers"`

	// CheckRevision turns every mutation into a compare-and-swap (default: false)
	CheckRevision bool `env:"STORAGE_CHECK_REVISION" default:"false"`
}

// DatabaseConfig holds database connection settings for the postgres backend.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required when STORAGE_BACKEND=postgres.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of parallel imports (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an import slot (default: 10s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"10s"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAuth rejects API requests without a valid session or API key (default: false)
	RequireAuth bool `env:"REQUIRE_AUTH" default:"false"`

	// SigningSecret signs operator session tokens
	SigningSecret string `env:"AUTH_SIGNING_SECRET"`

	// SessionTTL is the lifetime of a session token (default: 12h)
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" default:"12h"`

	// APIKeys is a comma-separated list of keys that may open admin sessions
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// MapsConfig holds the map rendering settings.
type MapsConfig struct {
	// APIKey is the Google Maps JavaScript API key
	APIKey string `env:"MAPS_API_KEY" envAlt:"GOOGLE_MAPS_API_KEY"`

	// AssetBaseURL is the public URL the page script and bundled images are served from
	AssetBaseURL string `env:"ASSET_BASE_URL" default:"/static/"`

	// DefaultMarkerIcon is the installation-wide marker icon URL
	DefaultMarkerIcon string `env:"DEFAULT_MARKER_ICON"`

	// DefaultTooltipImage is the installation-wide info window image URL
	DefaultTooltipImage string `env:"DEFAULT_TOOLTIP_IMAGE"`
}

// ArchiveConfig holds the S3 export archive settings.
type ArchiveConfig struct {
	// Enabled stores a copy of every export in object storage (default: false)
	Enabled bool `env:"ARCHIVE_ENABLED" default:"false"`

	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`

	// UseSSL connects to the endpoint over TLS (default: true)
	UseSSL bool `env:"S3_USE_SSL" default:"true"`

	// Bucket is the archive bucket (default: map-exports)
	Bucket string `env:"S3_BUCKET" default:"map-exports"`

	Region string `env:"S3_REGION"`
}

// EventsConfig holds the Kafka change event settings.
type EventsConfig struct {
	// Enabled publishes marker change events (default: false)
	Enabled bool `env:"EVENTS_ENABLED" default:"false"`

	// Brokers is a comma-separated list of Kafka brokers
	Brokers []string `env:"KAFKA_BROKERS"`

	// Topic receives the events (default: map-markers)
	Topic string `env:"KAFKA_TOPIC" default:"map-markers"`

	// WriteTimeout bounds a single publish (default: 5s)
	WriteTimeout time.Duration `env:"KAFKA_WRITE_TIMEOUT" default:"5s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
