// Package postgres implements result.Sink against PostgreSQL, the same
// sqlx-over-lib/pq shape the regime repository uses elsewhere: a
// per-call context timeout, JSON-encoded nested structs, and an upsert
// keyed on the natural identifier (here, flight_id).
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/oualidl290/flightsentry/internal/result"
)

// ResultSink persists analysis results to the analysis_results table.
type ResultSink struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewResultSink opens a connection pool against dsn and returns a
// ResultSink bound to it.
func NewResultSink(dsn string, timeout time.Duration) (*ResultSink, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}
	return &ResultSink{db: db, timeout: timeout}, nil
}

// NewResultSinkFromDB wraps an already-open sqlx.DB, letting tests drive
// it with sqlmock.
func NewResultSinkFromDB(db *sqlx.DB, timeout time.Duration) *ResultSink {
	return &ResultSink{db: db, timeout: timeout}
}

// Store upserts r keyed on (flight_id), so re-analyzing a flight
// overwrites its prior result rather than accumulating duplicates.
func (s *ResultSink) Store(ctx context.Context, r result.Result) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	eventsJSON, err := json.Marshal(r.Events)
	if err != nil {
		return fmt.Errorf("postgres: marshaling events: %w", err)
	}
	attributionJSON, err := json.Marshal(r.Attribution)
	if err != nil {
		return fmt.Errorf("postgres: marshaling attribution: %w", err)
	}
	flightPhasesJSON, err := json.Marshal(r.Phases)
	if err != nil {
		return fmt.Errorf("postgres: marshaling flight phases: %w", err)
	}
	performanceJSON, err := json.Marshal(r.Performance)
	if err != nil {
		return fmt.Errorf("postgres: marshaling performance: %w", err)
	}
	phaseJSON, err := json.Marshal(r.PhaseMetrics)
	if err != nil {
		return fmt.Errorf("postgres: marshaling phase metrics: %w", err)
	}

	query := `
		INSERT INTO analysis_results
		(receipt_id, flight_id, aircraft_class, class_confidence, risk_score,
		 risk_level, events, attribution, flight_phases, performance, phase_metrics,
		 error_code, internal_error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (flight_id) DO UPDATE SET
			receipt_id = EXCLUDED.receipt_id,
			aircraft_class = EXCLUDED.aircraft_class,
			class_confidence = EXCLUDED.class_confidence,
			risk_score = EXCLUDED.risk_score,
			risk_level = EXCLUDED.risk_level,
			events = EXCLUDED.events,
			attribution = EXCLUDED.attribution,
			flight_phases = EXCLUDED.flight_phases,
			performance = EXCLUDED.performance,
			phase_metrics = EXCLUDED.phase_metrics,
			error_code = EXCLUDED.error_code,
			internal_error = EXCLUDED.internal_error,
			created_at = EXCLUDED.created_at`

	_, err = s.db.ExecContext(ctx, query,
		r.ReceiptID, r.FlightID, r.AircraftClass, r.ClassConfidence, r.RiskScore,
		r.RiskLevel, eventsJSON, attributionJSON, flightPhasesJSON, performanceJSON, phaseJSON,
		string(r.ErrorCode), r.InternalError, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: storing result: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *ResultSink) Close() error {
	return s.db.Close()
}
