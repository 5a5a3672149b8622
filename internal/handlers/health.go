package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/database"
	redisStore "github.com/asterix1221/brawl-leaderboard-sub000/internal/redis"
)

// HealthCheckTimeout bounds dependency probes from the readiness check.
const HealthCheckTimeout = 5 * time.Second

// ComponentHealth describes one dependency in the readiness response.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the readiness check payload.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthHandler provides liveness, readiness, and metrics endpoints.
type HealthHandler struct {
	store     redisStore.Store
	dbMgr     *database.Manager
	logger    *logrus.Logger
	metrics   http.Handler
	startTime time.Time
}

// NewHealthHandler creates a health handler. The database manager may be
// nil when the service runs without PostgreSQL.
func NewHealthHandler(store redisStore.Store, dbMgr *database.Manager, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		store:     store,
		dbMgr:     dbMgr,
		logger:    logger,
		metrics:   promhttp.Handler(),
		startTime: time.Now(),
	}
}

// Action implements router.Handler.
func (h *HealthHandler) Action(name string) http.HandlerFunc {
	switch name {
	case "live":
		return h.Live
	case "ready":
		return h.Ready
	case "metrics":
		return h.Metrics
	default:
		return nil
	}
}

// Live reports process liveness. It never probes dependencies.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "alive"})
}

// Ready probes Redis and PostgreSQL and reports aggregate readiness.
// Dependency failures degrade the status and flip the HTTP code to 503.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
	defer cancel()

	components := make(map[string]ComponentHealth, 2)
	healthy := true

	if err := h.store.Ping(ctx); err != nil {
		healthy = false
		components["redis"] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
	} else {
		components["redis"] = ComponentHealth{Status: "healthy"}
	}

	switch {
	case h.dbMgr == nil:
		components["database"] = ComponentHealth{Status: "healthy", Message: "not configured, using in-memory repositories"}
	case h.dbMgr.Ping(ctx) != nil:
		healthy = false
		components["database"] = ComponentHealth{Status: "unhealthy", Message: "database unreachable"}
	default:
		components["database"] = ComponentHealth{Status: "healthy"}
	}

	response := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now(),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Components: components,
	}

	status := http.StatusOK
	if !healthy {
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, h.logger, status, response)
}

// Metrics exposes Prometheus metrics.
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
