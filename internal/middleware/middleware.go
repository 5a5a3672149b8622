// Package middleware provides the global HTTP middleware stack: panic
// recovery, structured request logging, CORS, and Redis-backed rate
// limiting keyed by authenticated user or client IP.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/config"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/constants"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/ratelimit"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/token"
)

const (
	// HTTPClientError minimum status code (4xx).
	HTTPClientError = 400
	// HTTPServerError minimum status code (5xx).
	HTTPServerError = 500
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_http_requests_total",
			Help: "Total HTTP requests processed, by method and status.",
		},
		[]string{"method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leaderboard_http_request_duration_seconds",
			Help:    "HTTP request processing duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration)
}

// contextKey is an unexported type for keys stored in context to avoid collisions.
type contextKey string

// requestIDKey is the context key used to store the request ID.
const requestIDKey contextKey = "request_id"

// RequestIDFromContext returns the request ID stored by RequestLogger,
// or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Stack holds all middleware dependencies and provides methods to create
// HTTP middleware handlers.
type Stack struct {
	config  *config.Config
	limiter *ratelimit.Limiter
	tokens  *token.Service
	logger  *logrus.Logger
}

// NewStack creates a new middleware stack with the provided dependencies.
// The token service is used only to attribute rate limit buckets to
// authenticated users; requests without a valid token fall back to a
// per-IP bucket.
func NewStack(cfg *config.Config, limiter *ratelimit.Limiter, tokens *token.Service, logger *logrus.Logger) *Stack {
	return &Stack{
		config:  cfg,
		limiter: limiter,
		tokens:  tokens,
		logger:  logger,
	}
}

// Chain applies multiple middleware functions to an HTTP handler.
func (m *Stack) Chain(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := range middleware {
		h = middleware[len(middleware)-1-i](h)
	}
	return h
}

// Recovery recovers from panics and logs them while returning a proper
// error response.
func (m *Stack) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				m.logger.WithFields(logrus.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  err,
				}).Error("Panic recovered")

				m.writeError(w, models.NewServerError("internal server error"))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs HTTP requests with structured logging including
// request details, response status, and processing duration, and records
// Prometheus request metrics.
func (m *Stack) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		wrapped.Header().Set(constants.HeaderXRequestID, requestID)

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		status := strconv.Itoa(wrapped.statusCode)
		httpRequestsTotal.WithLabelValues(r.Method, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method).Observe(duration.Seconds())

		// Health probes are noisy and uninformative in logs.
		if strings.HasPrefix(r.URL.Path, "/health") {
			return
		}

		fields := logrus.Fields{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"query":       r.URL.RawQuery,
			"status":      wrapped.statusCode,
			"duration_ms": duration.Milliseconds(),
			"remote_addr": getClientIP(r),
			"user_agent":  r.UserAgent(),
		}

		level := logrus.InfoLevel
		if wrapped.statusCode >= HTTPClientError {
			level = logrus.WarnLevel
		}
		if wrapped.statusCode >= HTTPServerError {
			level = logrus.ErrorLevel
		}

		m.logger.WithFields(fields).Log(level, "HTTP request processed")
	})
}

// CORS handles Cross-Origin Resource Sharing headers based on
// configuration. Preflight requests are answered with 204 and never
// reach the router.
func (m *Stack) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.setCORSHeaders(w, r)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Stack) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	allowed := m.config.Security.AllowedOrigin
	origin := r.Header.Get(constants.HeaderOrigin)

	switch {
	case allowed == "*":
		w.Header().Set("Access-Control-Allow-Origin", "*")
	case origin != "" && origin == allowed:
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", constants.HeaderOrigin)
	}

	if len(m.config.Security.AllowedMethods) > 0 {
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(m.config.Security.AllowedMethods, ", "))
	}

	if len(m.config.Security.AllowedHeaders) > 0 {
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(m.config.Security.AllowedHeaders, ", "))
	}

	if m.config.Security.MaxAge > 0 {
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(m.config.Security.MaxAge))
	}
}

// RateLimit enforces the fixed-window request limit. The bucket
// identifier is the authenticated user when the request carries a valid
// token, otherwise the client IP. Limit checks that fail open are logged
// inside the limiter.
func (m *Stack) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identifier := m.rateLimitIdentifier(r)

		if !m.limiter.Allow(r.Context(), identifier) {
			m.logger.WithFields(logrus.Fields{
				"identifier": identifier,
				"path":       r.URL.Path,
				"method":     r.Method,
			}).Warn("Rate limit exceeded")

			retryAfter := int(m.limiter.Window().Seconds())
			w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(retryAfter))
			m.writeError(w, models.NewRateLimitError("rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimitIdentifier attributes the request to a user bucket when a
// valid unexpired bearer token is present, falling back to the client IP.
// Authentication itself is enforced later by route middleware; a bad
// token here only changes bucket attribution.
func (m *Stack) rateLimitIdentifier(r *http.Request) string {
	authHeader := r.Header.Get(constants.HeaderAuthorization)
	if strings.HasPrefix(authHeader, constants.BearerPrefix) {
		tokenString := strings.TrimPrefix(authHeader, constants.BearerPrefix)
		if claims, err := m.tokens.Verify(tokenString); err == nil && !m.tokens.IsExpired(claims) {
			return "user:" + claims.UserID
		}
	}
	return "ip:" + getClientIP(r)
}

func (m *Stack) writeError(w http.ResponseWriter, apiErr *models.APIError) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(apiErr.StatusCode)

	response := models.NewErrorResponse(apiErr.Message, apiErr.StatusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		m.logger.WithError(err).Error("Failed to encode error response")
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter

	statusCode int
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the real client IP address from proxy headers,
// falling back to the connection remote address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}
