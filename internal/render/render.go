// Package render formats an assembled result.Result for output: a
// deterministic JSON encoding for machine consumers, a compact
// human-readable summary for logs and the CLI, and a pluggable
// narrative Renderer with a deterministic template fallback so the
// pipeline is never blocked on an external text generator.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/oualidl290/flightsentry/internal/result"
)

// Renderer turns an assembled Result into human-readable report text.
// The pipeline never depends on a Renderer directly — it's an optional
// collaborator invoked by callers (CLI, a future report endpoint) after
// analysis completes.
type Renderer interface {
	Render(r result.Result) (string, error)
}

// DeterministicRenderer builds report text from the result's own fields
// with no external call, so it can never fail or block.
type DeterministicRenderer struct{}

// Render implements Renderer using only CompactString plus the
// attribution summary and top events, never erroring.
func (DeterministicRenderer) Render(r result.Result) (string, error) {
	text := CompactString(r)
	if r.Attribution.Summary != "" {
		text += "\n" + r.Attribution.Summary
	}
	for _, e := range r.Events {
		text += fmt.Sprintf("\n[%s] %s (score=%.2f)", e.Severity, e.Description, e.Score)
	}
	return text, nil
}

// CompositeRenderer tries an injected generative Renderer first and
// falls back to DeterministicRenderer on any error, so a flaky or
// unconfigured external text generator never blocks a report.
type CompositeRenderer struct {
	Generative Renderer
	Fallback   Renderer
}

// NewCompositeRenderer wires generative in front of the deterministic
// fallback. generative may be nil, in which case the fallback always
// runs.
func NewCompositeRenderer(generative Renderer) *CompositeRenderer {
	return &CompositeRenderer{Generative: generative, Fallback: DeterministicRenderer{}}
}

// Render tries c.Generative when set, falling back to c.Fallback on a
// nil generative renderer or any error from it.
func (c *CompositeRenderer) Render(r result.Result) (string, error) {
	if c.Generative != nil {
		if text, err := c.Generative.Render(r); err == nil {
			return text, nil
		}
	}
	return c.Fallback.Render(r)
}

// JSON serializes r deterministically (indented, stable field order via
// the struct's own json tags) — deterministic because result.Result has
// no maps in its top-level encoding path that would reorder keys.
func JSON(r result.Result) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// CompactString renders a one-line summary of r, suitable for log lines
// and CLI output.
func CompactString(r result.Result) string {
	if r.ErrorCode != result.ErrNone {
		return fmt.Sprintf("%s: ERROR (%s): %s", r.FlightID, r.ErrorCode, r.InternalError)
	}
	return fmt.Sprintf("%s: %s risk=%.3f class=%s (%.2f) events=%d",
		r.FlightID, r.RiskLevel, r.RiskScore, r.AircraftClass,
		r.ClassConfidence, len(r.Events))
}
