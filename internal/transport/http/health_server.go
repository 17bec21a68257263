package http

import (
	"net/http"
	"time"

	"github.com/sparktechagency/Mobile-Repair/internal/platform/database/mongodb"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/database/redis"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/transport/http/handlers"
)

// HealthServer answers liveness and readiness probes
type HealthServer struct {
	mongo     *mongodb.Connection
	redis     *redis.Connection
	logger    logging.Logger
	service   string
	version   string
	startTime time.Time
}

// NewHealthServer creates the health endpoints handler
func NewHealthServer(mongo *mongodb.Connection, redis *redis.Connection, service, version string, logger logging.Logger) *HealthServer {
	return &HealthServer{
		mongo:     mongo,
		redis:     redis,
		logger:    logger,
		service:   service,
		version:   version,
		startTime: time.Now(),
	}
}

type healthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// HandleHealthCheck reports overall health including dependency checks
func (h *HealthServer) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := h.dependencyChecks(r)

	status := "healthy"
	code := http.StatusOK
	for _, result := range checks {
		if result != "ok" {
			status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}

	handlers.WriteJSONWithStatus(w, code, healthResponse{
		Status:  status,
		Service: h.service,
		Version: h.version,
		Uptime:  time.Since(h.startTime).String(),
		Checks:  checks,
	})
}

// HandleReadinessCheck reports whether the service can take traffic
func (h *HealthServer) HandleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	for name, result := range h.dependencyChecks(r) {
		if result != "ok" {
			h.logger.Warn(r.Context(), "Readiness check failed", map[string]interface{}{
				"dependency": name,
				"error":      result,
			})
			handlers.WriteJSONWithStatus(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
			})
			return
		}
	}

	handlers.WriteJSON(w, map[string]string{"status": "ready"})
}

// HandleLivenessCheck reports that the process is running
func (h *HealthServer) HandleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, map[string]string{"status": "alive"})
}

func (h *HealthServer) dependencyChecks(r *http.Request) map[string]string {
	checks := make(map[string]string, 2)

	if err := h.mongo.HealthCheck(r.Context()); err != nil {
		checks["mongodb"] = err.Error()
	} else {
		checks["mongodb"] = "ok"
	}

	if err := h.redis.HealthCheck(r.Context()); err != nil {
		checks["redis"] = err.Error()
	} else {
		checks["redis"] = "ok"
	}

	return checks
}
