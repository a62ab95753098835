// Package telemetry wires structured logging (zerolog) and Prometheus
// metrics for the analysis pipeline, the same split the CLI entry point
// and HTTP metrics registry use elsewhere in this codebase.
package telemetry

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger with a console writer
// in development and structured JSON otherwise.
func InitLogger(pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Registry holds all Prometheus metrics exposed by the analysis pipeline.
type Registry struct {
	PhaseDuration   *prometheus.HistogramVec
	PipelineRuns    *prometheus.CounterVec
	PipelineErrors  *prometheus.CounterVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	BreakerState    *prometheus.GaugeVec
	ActiveAnalyses  prometheus.Gauge
	EventsExtracted *prometheus.CounterVec
}

// NewRegistry builds a Registry with all metrics registered, and
// registers them against prometheus.DefaultRegisterer.
func NewRegistry() *Registry {
	r := &Registry{
		PhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flightsentry_phase_duration_seconds",
				Help:    "Duration of each analysis pipeline phase in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"phase", "aircraft_class"},
		),
		PipelineRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightsentry_pipeline_runs_total",
				Help: "Total analysis pipeline runs by outcome",
			},
			[]string{"result"},
		),
		PipelineErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightsentry_pipeline_errors_total",
				Help: "Total analysis pipeline errors by error code",
			},
			[]string{"error_code"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flightsentry_cache_hits_total",
				Help: "Total result cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flightsentry_cache_misses_total",
				Help: "Total result cache misses",
			},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flightsentry_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"breaker"},
		),
		ActiveAnalyses: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "flightsentry_active_analyses",
				Help: "Number of analyses currently in flight",
			},
		),
		EventsExtracted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightsentry_events_extracted_total",
				Help: "Total flight events extracted by severity",
			},
			[]string{"severity"},
		),
	}

	prometheus.MustRegister(
		r.PhaseDuration, r.PipelineRuns, r.PipelineErrors,
		r.CacheHits, r.CacheMisses, r.BreakerState,
		r.ActiveAnalyses, r.EventsExtracted,
	)

	return r
}
