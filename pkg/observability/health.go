package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// HealthStatus represents the health state of a component
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth describes the health of a single dependency
type ComponentHealth struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// HealthReport is the full health check response
type HealthReport struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthChecker performs health checks against service dependencies
type HealthChecker struct {
	db      *sql.DB
	redis   *redis.Client
	timeout time.Duration

	mu         sync.RWMutex
	lastReport *HealthReport
}

// NewHealthChecker creates a health checker. The redis client may be nil
// when rate limiting is disabled.
func NewHealthChecker(db *sql.DB, redisClient *redis.Client) *HealthChecker {
	return &HealthChecker{
		db:      db,
		redis:   redisClient,
		timeout: 5 * time.Second,
	}
}

// Check runs all component checks and aggregates the result. Postgres
// being down makes the service unhealthy; redis being down only degrades
// it because the rate limiter fails open.
func (h *HealthChecker) Check(ctx context.Context) *HealthReport {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	report := &HealthReport{
		Status:     StatusHealthy,
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]ComponentHealth),
	}

	report.Components["postgres"] = h.checkPostgres(ctx)
	if report.Components["postgres"].Status != StatusHealthy {
		report.Status = StatusUnhealthy
	}

	if h.redis != nil {
		report.Components["redis"] = h.checkRedis(ctx)
		if report.Components["redis"].Status != StatusHealthy && report.Status == StatusHealthy {
			report.Status = StatusDegraded
		}
	}

	h.mu.Lock()
	h.lastReport = report
	h.mu.Unlock()

	return report
}

// LastReport returns the most recent health report, or nil if no check
// has run yet
func (h *HealthChecker) LastReport() *HealthReport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastReport
}

func (h *HealthChecker) checkPostgres(ctx context.Context) ComponentHealth {
	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		return ComponentHealth{
			Status:  StatusUnhealthy,
			Message: err.Error(),
		}
	}
	return ComponentHealth{
		Status:  StatusHealthy,
		Latency: time.Since(start).String(),
	}
}

func (h *HealthChecker) checkRedis(ctx context.Context) ComponentHealth {
	start := time.Now()
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return ComponentHealth{
			Status:  StatusUnhealthy,
			Message: err.Error(),
		}
	}
	return ComponentHealth{
		Status:  StatusHealthy,
		Latency: time.Since(start).String(),
	}
}

// LivenessHandler reports whether the process is alive
func (h *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// ReadinessHandler reports whether the service can handle traffic
func (h *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	report := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if report.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(report)
}

// RegisterHealthRoutes adds health endpoints to a serve mux
func (h *HealthChecker) RegisterHealthRoutes(serveMux *http.ServeMux) {
	serveMux.HandleFunc("/healthz", h.LivenessHandler)
	serveMux.HandleFunc("/readyz", h.ReadinessHandler)
}
