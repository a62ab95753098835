// Package attribution explains an anomaly score by decomposing it into
// per-feature contributions, the same role the SHAP tree explainer plays
// in the original model: sample a reference background, perturb one
// feature at a time against that background, and rank features by the
// resulting swing in predicted score.
package attribution

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/oualidl290/flightsentry/internal/aircraft"
	"github.com/oualidl290/flightsentry/internal/anomaly"
	"github.com/oualidl290/flightsentry/internal/frame"
)

// SampleSize caps how many rows of background reference data are used to
// compute feature means, matching the original explainer's sample cap.
const SampleSize = 100

// backgroundSeed is fixed so the reference sample (and therefore the
// explanations derived from it) are reproducible across runs.
const backgroundSeed = 42

// TopFeatureCount is how many ranked features are retained per explanation.
const TopFeatureCount = 5

// FeatureImpact is one feature's contribution to an anomaly score, the
// shape of one entry in spec.md §3's Attribution Bundle top_features list.
type FeatureImpact struct {
	Feature       string
	Importance    float64 // ranking magnitude: |actual score - score with feature replaced by its background mean|
	AverageValue  float64 // mean of this feature across the background sample
	Impact        string  // "positive" if the feature pushed the score up, "negative" if it pulled it down
	AircraftClass string
}

// Explanation is the result of attributing one row's anomaly score —
// spec.md §3's Attribution Bundle.
type Explanation struct {
	TopFeatures   []FeatureImpact
	OverallImpact float64
	SampleSize    int
	AircraftClass string
	Summary       string
}

// failureExplanation is returned whenever attribution cannot be computed;
// it never raises, matching spec.md §4.7's degrade-to-neutral contract.
func failureExplanation(class aircraft.Class) Explanation {
	return Explanation{
		TopFeatures:   nil,
		OverallImpact: 0,
		AircraftClass: class.String(),
		Summary:       "Unable to generate explanation",
	}
}

// background holds the per-class reference feature means, computed once
// per process lifetime and reused for every subsequent explanation of
// that class — mirroring the original explainer's cached background set.
type background struct {
	means      map[string]float64
	sampleSize int
}

// Explainer attributes anomaly scores to features for a single class's
// model, memoizing its background sample across calls.
type Explainer struct {
	model *anomaly.Model
	class aircraft.Class

	mu         sync.Mutex
	background *background
}

// New creates an Explainer bound to a class's anomaly model.
func New(model *anomaly.Model, class aircraft.Class) *Explainer {
	return &Explainer{model: model, class: class}
}

// Explain attributes the anomaly score at rowIndex to its contributing
// features. f must be the same frame the score was computed from.
func (e *Explainer) Explain(f *frame.Frame, rowIndex int) Explanation {
	if f == nil || rowIndex < 0 || rowIndex >= f.Len() {
		return failureExplanation(e.class)
	}

	bg := e.backgroundFor(f)
	if bg == nil {
		return failureExplanation(e.class)
	}

	features := e.model.FeatureNames()
	row := f.Row(rowIndex, features...)

	baseline := e.model.ScoreRow(bg.means)
	actual := e.model.ScoreRow(row)
	className := e.class.String()

	type rawImpact struct {
		feature string
		swing   float64
	}
	raw := make([]rawImpact, 0, len(features))
	for _, feat := range features {
		perturbed := make(map[string]float64, len(row))
		for k, v := range row {
			perturbed[k] = v
		}
		perturbed[feat] = bg.means[feat]
		withoutFeature := e.model.ScoreRow(perturbed)
		raw = append(raw, rawImpact{feature: feat, swing: actual - withoutFeature})
	}

	sort.SliceStable(raw, func(i, j int) bool {
		return absFloat(raw[i].swing) > absFloat(raw[j].swing)
	})

	if len(raw) > TopFeatureCount {
		raw = raw[:TopFeatureCount]
	}

	top := make([]FeatureImpact, 0, len(raw))
	for _, r := range raw {
		impact := "positive"
		if r.swing < 0 {
			impact = "negative"
		}
		top = append(top, FeatureImpact{
			Feature:       r.feature,
			Importance:    absFloat(r.swing),
			AverageValue:  bg.means[r.feature],
			Impact:        impact,
			AircraftClass: className,
		})
	}

	return Explanation{
		TopFeatures:   top,
		OverallImpact: actual - baseline,
		SampleSize:    bg.sampleSize,
		AircraftClass: className,
		Summary:       describe(e.class, top),
	}
}

// backgroundFor returns the class's memoized background sample, computing
// it from f on the first call for this Explainer.
func (e *Explainer) backgroundFor(f *frame.Frame) *background {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.background != nil {
		return e.background
	}

	features := e.model.FeatureNames()
	n := f.Len()
	sampleSize := SampleSize
	if sampleSize > n {
		sampleSize = n
	}

	rng := rand.New(rand.NewSource(backgroundSeed))
	indices := rng.Perm(n)[:sampleSize]

	means := make(map[string]float64, len(features))
	for _, feat := range features {
		values := f.Get(feat)
		sum := 0.0
		for _, i := range indices {
			sum += values[i]
		}
		means[feat] = sum / float64(sampleSize)
	}

	e.background = &background{means: means, sampleSize: sampleSize}
	return e.background
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// describe generates the natural-language summary for the top
// contributing features, matching the keyword-driven phrasing rules of
// the original per-class explanation generator.
func describe(class aircraft.Class, top []FeatureImpact) string {
	if len(top) == 0 {
		return "No dominant contributing factors identified"
	}

	leading := top[0].Feature
	switch aircraft.EffectiveModelClass(class) {
	case aircraft.FixedWing:
		switch {
		case contains(leading, "airspeed"):
			return "Airspeed deviation is the primary driver of this anomaly"
		case contains(leading, "motor") || contains(leading, "rpm"):
			return "Engine/motor RPM behavior is the primary driver of this anomaly"
		case contains(leading, "elevator") || contains(leading, "aileron"):
			return "Control surface deflection is the primary driver of this anomaly"
		}
	case aircraft.Multirotor:
		switch {
		case contains(leading, "motor") || contains(leading, "rpm"):
			return "Motor RPM imbalance is the primary driver of this anomaly"
		case contains(leading, "vibration"):
			return "Vibration levels are the primary driver of this anomaly"
		case contains(leading, "pitch") || contains(leading, "roll"):
			return "Attitude instability is the primary driver of this anomaly"
		}
	case aircraft.VTOL:
		switch {
		case contains(leading, "transition"):
			return "Transition-phase behavior is the primary driver of this anomaly"
		case contains(leading, "motor_5"):
			return "Forward propulsion motor behavior is the primary driver of this anomaly"
		}
	}

	return "Flight parameter " + leading + " is the primary driver of this anomaly"
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
