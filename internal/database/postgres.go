// Package database manages the PostgreSQL connection pool for the
// leaderboard source of truth, with background health monitoring and
// automatic reconnection.
package database

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/config"
)

const healthCheckTimeout = 5 * time.Second

// ErrDatabaseUnavailable is returned when operations are attempted while
// the database is unreachable.
var ErrDatabaseUnavailable = errors.New("database is not available")

// Manager owns the pgx connection pool and monitors its health.
type Manager struct {
	pool      *pgxpool.Pool
	config    *config.DatabaseConfig
	dsn       string
	logger    *logrus.Logger
	available bool
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewManager creates a database manager, connects, and starts background
// health monitoring. A failed initial connection is logged, not fatal;
// the monitor retries periodically.
func NewManager(cfg *config.Config, logger *logrus.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	manager := &Manager{
		config: &cfg.Database,
		dsn:    cfg.DatabaseDSN(),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := manager.connect(); err != nil {
		logger.WithError(err).Warn("Failed to connect to PostgreSQL on startup, will retry periodically")
	}

	go manager.healthMonitor()

	return manager
}

func (m *Manager) connect() error {
	poolConfig, err := pgxpool.ParseConfig(m.dsn)
	if err != nil {
		return err
	}

	poolConfig.MaxConns = m.config.MaxConn
	poolConfig.MinConns = m.config.MinConn
	poolConfig.MaxConnLifetime = m.config.MaxConnLifetime
	poolConfig.MaxConnIdleTime = m.config.MaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = m.config.ConnectTimeout

	ctx, cancel := context.WithTimeout(m.ctx, m.config.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return err
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return pingErr
	}

	m.mu.Lock()
	if m.pool != nil {
		m.pool.Close()
	}
	m.pool = pool
	m.available = true
	m.mu.Unlock()

	m.logger.Info("Successfully connected to PostgreSQL")
	return nil
}

func (m *Manager) healthMonitor() {
	ticker := time.NewTicker(m.config.HealthCheckPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.checkHealth()
		}
	}
}

func (m *Manager) checkHealth() {
	m.mu.RLock()
	pool := m.pool
	wasAvailable := m.available
	m.mu.RUnlock()

	if pool == nil {
		if err := m.connect(); err != nil && wasAvailable {
			m.logger.WithError(err).Warn("PostgreSQL connection lost, attempting reconnection")
		}
		return
	}

	ctx, cancel := context.WithTimeout(m.ctx, healthCheckTimeout)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		m.mu.Lock()
		m.available = false
		m.mu.Unlock()

		if wasAvailable {
			m.logger.WithError(err).Warn("PostgreSQL health check failed, connection lost")
		}

		if reconnectErr := m.connect(); reconnectErr != nil {
			m.logger.WithError(reconnectErr).Debug("PostgreSQL reconnection attempt failed")
		}
		return
	}

	m.mu.Lock()
	restored := !m.available
	m.available = true
	m.mu.Unlock()

	if restored {
		m.logger.Info("PostgreSQL connection restored")
	}
}

// IsAvailable reports whether the database is currently reachable.
func (m *Manager) IsAvailable() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.available
}

// Pool returns the connection pool, or nil when unavailable.
func (m *Manager) Pool() *pgxpool.Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.available {
		return m.pool
	}
	return nil
}

// Ping checks connectivity for health endpoints.
func (m *Manager) Ping(ctx context.Context) error {
	pool := m.Pool()
	if pool == nil {
		return ErrDatabaseUnavailable
	}
	return pool.Ping(ctx)
}

// Close shuts down the pool and stops health monitoring.
func (m *Manager) Close() {
	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
	}
	m.available = false
}
