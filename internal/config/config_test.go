package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		JWT: JWTConfig{
			Secret:             "test-secret-key-that-is-long-enough-for-validation",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 168 * time.Hour,
			Algorithm:          "HS256",
		},
		Security: SecurityConfig{
			RateLimitMax:    100,
			RateLimitWindow: time.Minute,
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing JWT secret", func(c *Config) { c.JWT.Secret = "" }},
		{"short JWT secret", func(c *Config) { c.JWT.Secret = "too-short" }},
		{"invalid port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"access expiry too short", func(c *Config) { c.JWT.AccessTokenExpiry = time.Second }},
		{"refresh expiry too short", func(c *Config) { c.JWT.RefreshTokenExpiry = time.Minute }},
		{"rate limit max zero", func(c *Config) { c.Security.RateLimitMax = 0 }},
		{"rate limit window too short", func(c *Config) { c.Security.RateLimitWindow = time.Millisecond }},
		{"unsupported algorithm", func(c *Config) { c.JWT.Algorithm = "RS256" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Host = "127.0.0.1"
	assert.Equal(t, "127.0.0.1:8080", cfg.ServerAddr())
}

func TestDatabaseDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		Database: "brawl_leaderboard",
		User:     "app",
		Password: "secret",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5432 dbname=brawl_leaderboard user=app password=secret sslmode=require",
		cfg.DatabaseDSN(),
	)
}

func TestIsDatabaseConfigured(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.IsDatabaseConfigured())

	cfg.Database.User = "app"
	cfg.Database.Password = "secret"
	assert.True(t, cfg.IsDatabaseConfigured())
}
