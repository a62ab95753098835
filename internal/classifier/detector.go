// Package classifier assigns an aircraft Class and confidence to a flight
// frame using additive heuristic scoring over motor, flight-pattern,
// control-surface, and speed features — the same majority-vote-by-scoring
// shape as the market regime detector this package is modeled on, applied
// here to a single frame instead of a 4-hour polling cycle.
package classifier

import (
	"math"
	"strings"

	"github.com/oualidl290/flightsentry/internal/aircraft"
	"github.com/oualidl290/flightsentry/internal/frame"
)

// Config holds the tunable thresholds for class detection.
type Config struct {
	ConfidenceThreshold float64 // default 0.8
}

// DefaultConfig returns production-ready detector configuration.
func DefaultConfig() Config {
	return Config{ConfidenceThreshold: 0.8}
}

// Detector classifies a frame into an aircraft Class with a confidence.
type Detector struct {
	config Config
}

// New creates a class Detector with the given configuration.
func New(config Config) *Detector {
	return &Detector{config: config}
}

// Result carries the classification outcome plus the intermediate signals
// that produced it, for logging and for the attribution explainer's
// context.
type Result struct {
	Class        aircraft.Class
	Confidence   float64
	Scores       map[aircraft.Class]float64
	MotorStats   MotorStats
	FlightStats  FlightPatternStats
	ControlFlags ControlSurfaceFlags
	SpeedStats   SpeedStats
}

// MotorStats summarizes active motor count and cross-motor symmetry.
type MotorStats struct {
	ActiveMotors  int
	MotorSymmetry float64
}

// FlightPatternStats summarizes altitude/speed behavior over the frame.
type FlightPatternStats struct {
	HoverRatio         float64
	CruiseRatio        float64
	VerticalTransitions float64
	TransitionEvents   int
}

// ControlSurfaceFlags reports which control surfaces show meaningful
// variance on this frame.
type ControlSurfaceFlags struct {
	HasElevator bool
	HasAileron  bool
	HasRudder   bool
	HasThrottle bool
}

// SpeedStats summarizes the frame's speed column.
type SpeedStats struct {
	AvgSpeed      float64
	MaxSpeed      float64
	SpeedVariance float64
}

// Detect never raises: any internal irregularity degrades to
// (Unknown, 0.0), per spec.md §4.5's failure semantics. Go doesn't have
// exceptions for this to absorb, so the degrade path is reached only via
// the explicit empty-frame guard below — the shape is kept because the
// rest of the pipeline's error handling assumes every component can
// return a zero-confidence Unknown.
func (d *Detector) Detect(f *frame.Frame) Result {
	if f == nil || f.Len() == 0 {
		return Result{Class: aircraft.Unknown, Confidence: 0, Scores: map[aircraft.Class]float64{}}
	}

	motors := analyzeMotors(f)
	patterns := analyzeFlightPatterns(f)
	controls := analyzeControlSurfaces(f)
	speeds := analyzeSpeed(f)

	scores := map[aircraft.Class]float64{
		aircraft.FixedWing:  scoreFixedWing(motors, patterns, controls, speeds),
		aircraft.Multirotor: scoreMultirotor(motors, patterns, speeds),
		aircraft.VTOL:       scoreVTOL(motors, patterns, controls),
	}

	best, bestScore := aircraft.FixedWing, scores[aircraft.FixedWing]
	for _, c := range []aircraft.Class{aircraft.Multirotor, aircraft.VTOL} {
		if scores[c] > bestScore {
			best, bestScore = c, scores[c]
		}
	}

	result := Result{
		Scores:       scores,
		MotorStats:   motors,
		FlightStats:  patterns,
		ControlFlags: controls,
		SpeedStats:   speeds,
		Confidence:   bestScore,
	}

	if bestScore < d.config.ConfidenceThreshold {
		result.Class = aircraft.Unknown
		return result
	}

	result.Class = best
	return result
}

func scoreFixedWing(m MotorStats, p FlightPatternStats, c ControlSurfaceFlags, s SpeedStats) float64 {
	score := 0.0
	if m.ActiveMotors == 1 {
		score += 0.3
	}
	if c.HasElevator || c.HasAileron {
		score += 0.2
	}
	if p.CruiseRatio > 0.6 {
		score += 0.2
	}
	if s.AvgSpeed > 15 {
		score += 0.2
	}
	if p.VerticalTransitions < 0.2 {
		score += 0.1
	}
	return math.Min(score, 1.0)
}

func scoreMultirotor(m MotorStats, p FlightPatternStats, s SpeedStats) float64 {
	score := 0.0
	if m.ActiveMotors >= 4 {
		score += 0.3
	}
	if p.HoverRatio > 0.3 {
		score += 0.2
	}
	if p.VerticalTransitions > 0.4 {
		score += 0.2
	}
	if s.AvgSpeed < 15 {
		score += 0.1
	}
	if m.MotorSymmetry > 0.7 {
		score += 0.2
	}
	return math.Min(score, 1.0)
}

func scoreVTOL(m MotorStats, p FlightPatternStats, c ControlSurfaceFlags) float64 {
	score := 0.0
	if m.ActiveMotors >= 5 {
		score += 0.2
	}
	if p.HoverRatio > 0.2 && p.CruiseRatio > 0.3 {
		score += 0.3
	}
	if c.HasElevator && m.ActiveMotors >= 4 {
		score += 0.2
	}
	if p.TransitionEvents > 0 {
		score += 0.3
	}
	return math.Min(score, 1.0)
}

// motorColumns is intentionally not exported: it's an
// implementation detail of how we discover motor_*_rpm columns without a
// true "list the columns" frame API (spec.md §4.1 deliberately narrows the
// frame's surface, so the detector asks for the well-known column names
// instead of introspecting).
var motorColumns = []string{
	"motor_rpm", "motor_1_rpm", "motor_2_rpm", "motor_3_rpm", "motor_4_rpm", "motor_5_rpm",
}

func analyzeMotors(f *frame.Frame) MotorStats {
	var means []float64
	active := 0
	for _, col := range motorColumns {
		if !f.HasColumn(col) {
			continue
		}
		m := f.Mean(col)
		if m > 500 {
			active++
			means = append(means, m)
		}
	}

	symmetry := 0.0
	if len(means) > 1 {
		mean := avg(means)
		if mean > 0 {
			symmetry = math.Max(0, 1-std(means, mean)/mean)
		}
	}

	return MotorStats{ActiveMotors: active, MotorSymmetry: symmetry}
}

func analyzeFlightPatterns(f *frame.Frame) FlightPatternStats {
	if !f.HasColumn("altitude") || !f.HasColumn("speed") {
		return FlightPatternStats{}
	}

	n := f.Len()
	speed := f.Get("speed")
	altitude := f.Get("altitude")
	altDiff := f.Diff("altitude")
	rollingStd := f.RollingStd("altitude", 10)

	hover := f.CountWhere(func(i int) bool {
		return speed[i] < 2 && math.Abs(altDiff[i]) < 2
	})
	cruise := f.CountWhere(func(i int) bool {
		return speed[i] > 10 && rollingStd[i] < 5
	})
	vertical := f.CountWhere(func(i int) bool {
		return math.Abs(altDiff[i]) > 5
	})

	transitions := 0
	for i := 10; i < n-5; i++ {
		altChange := math.Abs(altitude[i+5] - altitude[i])
		speedChange := math.Abs(speed[i+5] - speed[i])
		if altChange > 20 && speedChange > 5 {
			transitions++
		}
	}

	return FlightPatternStats{
		HoverRatio:          float64(hover) / float64(n),
		CruiseRatio:         float64(cruise) / float64(n),
		VerticalTransitions: float64(vertical) / float64(n),
		TransitionEvents:    transitions,
	}
}

func analyzeControlSurfaces(f *frame.Frame) ControlSurfaceFlags {
	return ControlSurfaceFlags{
		HasElevator: hasVariantColumn(f, "elevator"),
		HasAileron:  hasVariantColumn(f, "aileron"),
		HasRudder:   hasVariantColumn(f, "rudder"),
		HasThrottle: hasVariantColumn(f, "throttle"),
	}
}

// knownColumnsBySurface lists the concrete column names matching each
// control-surface substring, since the frame doesn't expose a "find
// columns matching X" operation.
var knownColumnsBySurface = map[string][]string{
	"elevator": {"elevator_position"},
	"aileron":  {"aileron_position"},
	"rudder":   {"rudder_position"},
	"throttle": {"throttle_position"},
}

func hasVariantColumn(f *frame.Frame, surface string) bool {
	for _, col := range knownColumnsBySurface[surface] {
		if f.HasColumn(col) && f.Var(col) > 1.0 {
			return true
		}
	}
	return false
}

func analyzeSpeed(f *frame.Frame) SpeedStats {
	if !f.HasColumn("speed") {
		return SpeedStats{}
	}
	return SpeedStats{
		AvgSpeed:      f.Mean("speed"),
		MaxSpeed:      f.Max("speed"),
		SpeedVariance: f.Var("speed"),
	}
}

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func std(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// VotingBreakdown renders each class's score as a compact string, in the
// same spirit as the regime detector's per-signal vote map — useful for
// logs and the attribution explainer's reasoning text.
func (r Result) VotingBreakdown() map[string]string {
	out := make(map[string]string, len(r.Scores))
	for class, score := range r.Scores {
		out[strings.ToLower(class.String())] = scoreLabel(score)
	}
	return out
}

func scoreLabel(score float64) string {
	switch {
	case score >= 0.8:
		return "strong"
	case score >= 0.5:
		return "moderate"
	default:
		return "weak"
	}
}
