// Package pipeline sequences the per-flight analysis: classify aircraft
// type, score anomalies, extract events, attribute the worst moment,
// and assemble a result.Result — mirroring the original analyzer's
// linear classify -> score -> explain -> assemble flow, but with
// explicit context deadlines and a total failure path so nothing ever
// panics or blocks the caller indefinitely.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/oualidl290/flightsentry/internal/aircraft"
	"github.com/oualidl290/flightsentry/internal/anomaly"
	"github.com/oualidl290/flightsentry/internal/attribution"
	"github.com/oualidl290/flightsentry/internal/cache"
	"github.com/oualidl290/flightsentry/internal/classifier"
	"github.com/oualidl290/flightsentry/internal/config"
	"github.com/oualidl290/flightsentry/internal/events"
	"github.com/oualidl290/flightsentry/internal/frame"
	"github.com/oualidl290/flightsentry/internal/result"
	"github.com/oualidl290/flightsentry/internal/telemetry"
)

// Orchestrator sequences a complete flight-log analysis. All fields
// besides classifier and models are optional collaborators; a zero-value
// Cache, Sink, or Metrics simply disables that stage.
type Orchestrator struct {
	Classifier *classifier.Detector
	Models     *anomaly.Registry
	Thresholds config.Thresholds
	Cache      *cache.ResultCache
	Sink       result.Sink
	Metrics    *telemetry.Registry
	Explainers map[aircraft.Class]*attribution.Explainer

	// Limiter bounds how many analyses start per second when set, so a
	// burst of uploads can't starve the anomaly ensembles' CPU budget.
	// Nil disables limiting.
	Limiter *rate.Limiter
}

// New builds an Orchestrator wired with fresh classifier and model
// registries, and one attribution.Explainer per concrete class.
func New(thresholds config.Thresholds, ensembleCfg anomaly.EnsembleConfig) *Orchestrator {
	models := anomaly.NewRegistry(ensembleCfg)
	explainers := make(map[aircraft.Class]*attribution.Explainer, len(aircraft.Concrete()))
	for _, class := range aircraft.Concrete() {
		explainers[class] = attribution.New(models.ModelFor(class), class)
	}

	return &Orchestrator{
		Classifier: classifier.New(classifier.Config{ConfidenceThreshold: thresholds.ClassConfidence}),
		Models:     models,
		Thresholds: thresholds,
		Explainers: explainers,
	}
}

// Analyze runs the full pipeline for one flight log. It never returns an
// error: every failure mode degrades to result.Neutral with an
// appropriate ErrorCode, since spec.md's failure semantics require the
// caller always gets a usable result.
func (o *Orchestrator) Analyze(ctx context.Context, flightID string, f *frame.Frame) result.Result {
	now := time.Now()

	if o.Metrics != nil {
		o.Metrics.ActiveAnalyses.Inc()
		defer o.Metrics.ActiveAnalyses.Dec()
	}

	if o.Cache != nil {
		if cached, ok := o.Cache.Get(ctx, flightID); ok {
			if o.Metrics != nil {
				o.Metrics.CacheHits.Inc()
			}
			return cached
		}
		if o.Metrics != nil {
			o.Metrics.CacheMisses.Inc()
		}
	}

	if err := ctx.Err(); err != nil {
		return o.fail(flightID, result.ErrCanceled, err, now)
	}

	if o.Limiter != nil {
		if err := o.Limiter.Wait(ctx); err != nil {
			return o.fail(flightID, result.ErrCanceled, err, now)
		}
	}

	if f == nil || f.Len() == 0 {
		return o.fail(flightID, result.ErrInvalidInput, fmt.Errorf("empty or nil frame"), now)
	}

	var phases []result.PhaseMetric

	classStart := time.Now()
	classification := o.Classifier.Detect(f)
	phases = append(phases, o.recordPhase("classify", classification.Class, classStart))

	modelClass := aircraft.EffectiveModelClass(classification.Class)
	model := o.Models.ModelFor(modelClass)

	scoreStart := time.Now()
	scores, err := model.Predict(ctx, f)
	phases = append(phases, o.recordPhase("score", modelClass, scoreStart))
	if err != nil {
		code := result.ErrInternal
		if ctx.Err() != nil {
			code = result.ErrCanceled
		}
		return o.fail(flightID, code, err, now)
	}

	eventStart := time.Now()
	flightEvents := events.Extract(f, modelClass, scores)
	phases = append(phases, o.recordPhase("events", modelClass, eventStart))

	worstRow, _ := worstScore(scores)
	riskScore := meanScore(scores)

	attributionStart := time.Now()
	explanation := attribution.Explanation{AircraftClass: modelClass.String(), Summary: "Unable to generate explanation"}
	if explainer, ok := o.Explainers[modelClass]; ok {
		explanation = explainer.Explain(f, worstRow)
	}
	phases = append(phases, o.recordPhase("attribution", modelClass, attributionStart))

	r := result.Result{
		ReceiptID:       uuid.NewString(),
		FlightID:        flightID,
		AircraftClass:   classification.Class.String(),
		ClassConfidence: classification.Confidence,
		RiskScore:       riskScore,
		RiskLevel: result.ClassifyRisk(riskScore,
			o.Thresholds.RiskCritical, o.Thresholds.RiskWarning, o.Thresholds.RiskElevated),
		Events:       flightEvents,
		Attribution:  explanation,
		Phases:       phaseStats(f, modelClass),
		Performance:  perfMetrics(f, modelClass),
		PhaseMetrics: phases,
		CreatedAt:    now,
	}

	o.persist(ctx, r)

	if o.Metrics != nil {
		o.Metrics.PipelineRuns.WithLabelValues("success").Inc()
		for _, e := range flightEvents {
			o.Metrics.EventsExtracted.WithLabelValues(string(e.Severity)).Inc()
		}
	}

	return r
}

func (o *Orchestrator) recordPhase(name string, class aircraft.Class, start time.Time) result.PhaseMetric {
	d := time.Since(start)
	if o.Metrics != nil {
		o.Metrics.PhaseDuration.WithLabelValues(name, class.String()).Observe(d.Seconds())
	}
	return result.PhaseMetric{Name: name, Duration: d}
}

func (o *Orchestrator) fail(flightID string, code result.ErrorCode, err error, createdAt time.Time) result.Result {
	if o.Metrics != nil {
		o.Metrics.PipelineRuns.WithLabelValues("error").Inc()
		o.Metrics.PipelineErrors.WithLabelValues(string(code)).Inc()
	}
	log.Warn().Str("flight_id", flightID).Str("error_code", string(code)).Err(err).Msg("analysis failed, returning neutral result")
	r := result.Neutral(flightID, code, err, createdAt)
	o.persist(context.Background(), r)
	return r
}

// persist best-effort caches and stores r. Failures here are logged, not
// propagated: a storage hiccup must never turn a completed analysis into
// a failed one.
func (o *Orchestrator) persist(ctx context.Context, r result.Result) {
	if o.Cache != nil {
		if err := o.Cache.Set(ctx, r.FlightID, r); err != nil {
			log.Warn().Err(err).Str("flight_id", r.FlightID).Msg("result cache write failed")
		}
	}
	if o.Sink != nil {
		if err := o.Sink.Store(ctx, r); err != nil {
			log.Warn().Err(err).Str("flight_id", r.FlightID).Msg("result sink write failed")
		}
	}
}

// worstScore finds the most anomalous row, used to pick the sample the
// attribution explainer reasons about; it is deliberately distinct from
// the aggregate risk_score, which spec.md §3 defines as the mean of the
// full prediction vector.
func worstScore(scores []float64) (int, float64) {
	if len(scores) == 0 {
		return 0, 0
	}
	bestIdx, best := 0, scores[0]
	for i, s := range scores {
		if s > best {
			best = s
			bestIdx = i
		}
	}
	return bestIdx, best
}

// meanScore computes risk_score = mean(prediction vector), per spec.md
// §3's invariant P1.
func meanScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

