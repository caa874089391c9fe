// Package config loads process settings from environment variables and the
// reconciliation policy from an optional YAML file.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all process configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Security SecurityConfig
	Audit    AuditConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds every request through chi's Timeout middleware.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds PostgreSQL pool settings.
type DatabaseConfig struct {
	// URL accepts DATABASE_URL or DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies pending migrations on server start.
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"true"`
}

// ImportConfig bounds CSV imports.
type ImportConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 10MB).
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	// MaxRows caps data rows per file.
	MaxRows int `env:"IMPORT_MAX_ROWS" default:"20000"`

	// MaxConcurrent commits may hold a transaction at once.
	MaxConcurrent int           `env:"IMPORT_MAX_CONCURRENT" default:"4"`
	MaxWaitTime   time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"15s"`

	// Timeout bounds a single preview or commit.
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"2m"`

	// PolicyFile is an optional YAML reconciliation policy.
	PolicyFile string `env:"IMPORT_POLICY_FILE"`

	// DefaultActor is recorded when a request names no actor.
	DefaultActor string `env:"IMPORT_DEFAULT_ACTOR"`
}

// AuditConfig controls how long change history is kept.
type AuditConfig struct {
	// RetentionDays deletes entries older than this many days. Zero keeps
	// the log forever.
	RetentionDays  int           `env:"AUDIT_RETENTION_DAYS" default:"0"`
	PurgeBatchSize int           `env:"AUDIT_PURGE_BATCH_SIZE" default:"5000"`
	PurgeInterval  time.Duration `env:"AUDIT_PURGE_INTERVAL" default:"24h"`
}

// SecurityConfig holds API access settings.
type SecurityConfig struct {
	// APIKeys is a comma-separated list of accepted keys.
	APIKeys       []string `env:"API_KEYS"`
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`

	// ActorHeader names the request header carrying the operator identity.
	ActorHeader string `env:"ACTOR_HEADER" default:"X-Actor"`

	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level: debug, info, warn, error.
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format: text or json.
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" default:"true"`
	Path    string `env:"METRICS_PATH" default:"/metrics"`
	Runtime bool   `env:"METRICS_RUNTIME" default:"true"`
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
