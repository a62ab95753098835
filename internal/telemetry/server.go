package telemetry

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus mirrors the overall-status field the teacher's health
// handler reports, trimmed to what this service actually tracks: it has
// no provider registry, only a sink breaker.
type HealthStatus struct {
	Status    string    `json:"status"` // healthy, degraded, unhealthy
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
	Version   string    `json:"version"`
	SinkState string    `json:"sink_breaker_state,omitempty"`
}

// BreakerStater reports a circuit breaker's current state string.
type BreakerStater interface {
	State() string
}

// HealthHandler serves /healthz, degrading to "degraded" when the sink
// breaker is open and "unhealthy" is never produced here since an
// analysis pipeline with no sink configured is still a healthy service.
type HealthHandler struct {
	startTime time.Time
	version   string
	sink      BreakerStater
}

// NewHealthHandler builds a handler reporting version and, if sink is
// non-nil, its breaker state.
func NewHealthHandler(version string, sink BreakerStater) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), version: version, sink: sink}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(h.startTime).String(),
		Version:   h.version,
	}
	if h.sink != nil {
		status.SinkState = h.sink.State()
		if status.SinkState == "open" {
			status.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status.Status != "healthy" {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(status)
}

// Mux builds the ambient HTTP surface this service exposes on its own:
// Prometheus metrics and a health check. No analysis endpoints live
// here — serving analysis requests over HTTP is out of scope.
func Mux(version string, sink BreakerStater) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", NewHealthHandler(version, sink))
	return mux
}
