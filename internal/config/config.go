// Package config provides environment variable based configuration for the
// leaderboard service with validation and sensible defaults for all
// components: HTTP server, Redis, PostgreSQL, JWT, security, cache,
// the Brawl Stars API client, and logging.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// MinJWTSecretLength is the minimum required length for the JWT secret.
	MinJWTSecretLength = 32
	// MinPortNumber is the minimum valid port number.
	MinPortNumber = 1
	// MaxPortNumber is the maximum valid port number.
	MaxPortNumber = 65535
	// MaxLeaderboardLimit is the hard cap on a single leaderboard page size.
	MaxLeaderboardLimit = 500
)

// Config aggregates all component-specific configuration for the service.
type Config struct {
	// Server contains HTTP server settings including timeouts.
	Server ServerConfig `envconfig:"SERVER"`
	// Redis contains Redis connection and pool settings.
	Redis RedisConfig `envconfig:"REDIS"`
	// Database contains PostgreSQL settings.
	Database DatabaseConfig `envconfig:"POSTGRES"`
	// JWT contains token signing and lifetime settings.
	JWT JWTConfig `envconfig:"JWT"`
	// Security contains CORS and rate limiting settings.
	Security SecurityConfig `envconfig:"SECURITY"`
	// Cache contains response cache settings.
	Cache CacheConfig `envconfig:"CACHE"`
	// Brawl contains the external Brawl Stars API client settings.
	Brawl BrawlConfig `envconfig:"BRAWL"`
	// Logging contains logging settings.
	Logging LoggingConfig `envconfig:"LOGGING"`
}

// ServerConfig holds HTTP server network and timeout settings.
type ServerConfig struct {
	// Port is the HTTP server listening port.
	Port int `envconfig:"PORT"             default:"8080"`
	// Host is the network interface to bind to.
	Host string `envconfig:"HOST"             default:"0.0.0.0"`
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT"     default:"15s"`
	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT"    default:"15s"`
	// IdleTimeout is the keep-alive idle connection timeout.
	IdleTimeout time.Duration `envconfig:"IDLE_TIMEOUT"     default:"60s"`
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// RedisConfig contains Redis connection pool settings and timeouts.
type RedisConfig struct {
	// URL is the Redis connection URL.
	URL string `envconfig:"URL"           default:"redis://localhost:6379"`
	// Password is the Redis authentication password.
	Password string `envconfig:"PASSWORD"`
	// DB is the Redis database number to use.
	DB int `envconfig:"DB"            default:"0"`
	// MaxRetries is the maximum retry count for failed operations.
	MaxRetries int `envconfig:"MAX_RETRIES"   default:"3"`
	// PoolSize is the maximum number of socket connections.
	PoolSize int `envconfig:"POOL_SIZE"     default:"10"`
	// MinIdleConn is the minimum number of idle connections.
	MinIdleConn int `envconfig:"MIN_IDLE_CONN" default:"5"`
	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration `envconfig:"DIAL_TIMEOUT"  default:"5s"`
	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT"  default:"3s"`
	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
	// PoolTimeout is how long a caller waits for a pooled connection.
	PoolTimeout time.Duration `envconfig:"POOL_TIMEOUT"  default:"4s"`
	// IdleTimeout is the idle connection close timeout.
	IdleTimeout time.Duration `envconfig:"IDLE_TIMEOUT"  default:"300s"`
}

// DatabaseConfig contains PostgreSQL connection pool settings.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `envconfig:"HOST"                default:"localhost"`
	// Port is the PostgreSQL server port.
	Port int `envconfig:"PORT"                default:"5432"`
	// Database is the PostgreSQL database name.
	Database string `envconfig:"DB"                  default:"brawl_leaderboard"`
	// User is the database username.
	User string `envconfig:"USER"`
	// Password is the database password.
	Password string `envconfig:"PASSWORD"`
	// SSLMode is the SSL connection mode.
	SSLMode string `envconfig:"SSL_MODE"            default:"disable"`
	// MaxConn is the maximum number of pooled connections.
	MaxConn int32 `envconfig:"MAX_CONN"            default:"25"`
	// MinConn is the minimum number of pooled connections.
	MinConn int32 `envconfig:"MIN_CONN"            default:"5"`
	// MaxConnLifetime is the maximum lifetime of a connection.
	MaxConnLifetime time.Duration `envconfig:"MAX_CONN_LIFETIME"   default:"1h"`
	// MaxConnIdleTime is the maximum idle time for a connection.
	MaxConnIdleTime time.Duration `envconfig:"MAX_CONN_IDLE_TIME"  default:"30m"`
	// HealthCheckPeriod is how often to check database connectivity.
	HealthCheckPeriod time.Duration `envconfig:"HEALTH_CHECK_PERIOD" default:"30s"`
	// ConnectTimeout is the timeout for establishing connections.
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT"     default:"10s"`
}

// JWTConfig contains token signing and lifetime settings.
type JWTConfig struct {
	// Secret is the HMAC signing secret (required, minimum 32 characters).
	Secret string `envconfig:"SECRET"               required:"true"`
	// AccessTokenExpiry is the access token lifetime.
	AccessTokenExpiry time.Duration `envconfig:"ACCESS_TOKEN_EXPIRY"  default:"1h"`
	// RefreshTokenExpiry is the refresh token lifetime.
	RefreshTokenExpiry time.Duration `envconfig:"REFRESH_TOKEN_EXPIRY" default:"168h"`
	// Issuer is the JWT issuer claim.
	Issuer string `envconfig:"ISSUER"               default:"brawl-leaderboard"`
	// Algorithm is the JWT signing algorithm.
	Algorithm string `envconfig:"ALGORITHM"            default:"HS256"`
}

// SecurityConfig contains rate limiting and CORS settings.
type SecurityConfig struct {
	// RateLimitMax is the maximum requests allowed per identifier per window.
	RateLimitMax int `envconfig:"RATE_LIMIT_MAX"    default:"100"`
	// RateLimitWindow is the fixed rate limiting window.
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	// AllowedOrigin is the CORS allowed origin (exact value or "*").
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN"    default:"*"`
	// AllowedMethods are the CORS allowed HTTP methods.
	AllowedMethods []string `envconfig:"ALLOWED_METHODS"   default:"GET,POST,PUT,DELETE,OPTIONS"`
	// AllowedHeaders are the CORS allowed headers.
	AllowedHeaders []string `envconfig:"ALLOWED_HEADERS"   default:"Content-Type,Authorization"`
	// MaxAge is the CORS preflight cache duration in seconds.
	MaxAge int `envconfig:"MAX_AGE"           default:"86400"`
}

// CacheConfig contains response cache settings.
type CacheConfig struct {
	// LeaderboardTTL is the TTL for cached leaderboard pages.
	LeaderboardTTL time.Duration `envconfig:"LEADERBOARD_TTL" default:"300s"`
}

// BrawlConfig contains the external Brawl Stars API client settings.
type BrawlConfig struct {
	// BaseURL is the Brawl Stars API base URL.
	BaseURL string `envconfig:"BASE_URL" default:"https://api.brawlstars.com/v1"`
	// APIKey is the bearer token for the Brawl Stars API.
	APIKey string `envconfig:"API_KEY"`
	// Timeout is the HTTP client timeout for API calls.
	Timeout time.Duration `envconfig:"TIMEOUT"  default:"5s"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string `envconfig:"LEVEL"  default:"info"`
	// Format is the log output format (json, text).
	Format string `envconfig:"FORMAT" default:"json"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `envconfig:"OUTPUT" default:"stdout"`
}

// Load reads configuration from environment variables and returns a
// validated Config. It returns an error if required values are missing
// or invalid.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration values against security and operational
// requirements.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT secret is required")
	}

	if len(c.JWT.Secret) < MinJWTSecretLength {
		return fmt.Errorf("JWT secret must be at least %d characters long", MinJWTSecretLength)
	}

	if c.Server.Port < MinPortNumber || c.Server.Port > MaxPortNumber {
		return errors.New("server port must be between 1 and 65535")
	}

	if c.JWT.AccessTokenExpiry < time.Minute {
		return errors.New("access token expiry must be at least 1 minute")
	}

	if c.JWT.RefreshTokenExpiry < time.Hour {
		return errors.New("refresh token expiry must be at least 1 hour")
	}

	if c.Security.RateLimitMax < 1 {
		return errors.New("rate limit max must be positive")
	}

	if c.Security.RateLimitWindow < time.Second {
		return errors.New("rate limit window must be at least 1 second")
	}

	validAlgorithms := map[string]bool{
		"HS256": true, "HS384": true, "HS512": true,
	}
	if !validAlgorithms[c.JWT.Algorithm] {
		return fmt.Errorf("unsupported JWT algorithm: %s", c.JWT.Algorithm)
	}

	return nil
}

// ServerAddr returns the server address in host:port format.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DatabaseDSN returns the PostgreSQL connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.User,
		c.Database.Password,
		c.Database.SSLMode,
	)
}

// IsDatabaseConfigured returns true if database credentials are set.
func (c *Config) IsDatabaseConfigured() bool {
	return c.Database.User != "" && c.Database.Password != ""
}
