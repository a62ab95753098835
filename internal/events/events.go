// Package events turns per-row anomaly scores into a ranked list of
// human-readable flight events, using class-specific rule tables to
// describe what made a row anomalous — the same "evaluate a list of
// named checks, collect pass/fail reasons" shape as the entry gate
// evaluator this package is modeled on, run here in reverse: every row
// above threshold produces a reason instead of every check needing one.
package events

import (
	"math"
	"sort"
	"strings"

	"github.com/oualidl290/flightsentry/internal/aircraft"
	"github.com/oualidl290/flightsentry/internal/frame"
)

// Threshold is the anomaly score above which a row becomes a reported
// event.
const Threshold = 0.7

// CriticalThreshold is the anomaly score above which an event is
// reported as CRITICAL rather than WARNING severity.
const CriticalThreshold = 0.9

// Severity classifies how serious a flight event is.
type Severity string

const (
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Event is one anomalous moment in a flight log.
type Event struct {
	RowIndex    int
	Timestamp   float64 // seconds from flight start, estimated as row index times the first sample interval (0.1s if no timestamp column)
	Score       float64
	Severity    Severity
	Description string
}

// rule inspects one row and returns a description if it recognizes the
// anomaly pattern there, or "" if it has nothing specific to say.
type rule func(row map[string]float64) string

// rulesFor returns the ordered class-specific rule set, evaluated
// top-to-bottom. Every rule that matches contributes its fragment; the
// fragments are joined with "; " into one description, per spec.md
// §4.6's "semicolon-joined description" contract.
func rulesFor(c aircraft.Class) []rule {
	switch aircraft.EffectiveModelClass(c) {
	case aircraft.FixedWing:
		return fixedWingRules
	case aircraft.VTOL:
		return vtolRules
	default:
		return multirotorRules
	}
}

// fixedWingRules mirrors spec.md §4.6's FixedWing rule table (thresholds
// and description text carried over exactly from
// original_source/src/core/models/multi_aircraft_detector.py's
// _describe_fixed_wing_anomaly).
var fixedWingRules = []rule{
	func(row map[string]float64) string {
		switch airspeed := row["airspeed"]; {
		case airspeed < 12:
			return "CRITICAL: Airspeed below stall speed"
		case airspeed > 45:
			return "WARNING: Airspeed exceeds safe limits"
		}
		return ""
	},
	func(row map[string]float64) string {
		switch rpm := row["motor_rpm"]; {
		case rpm < 1000:
			return "CRITICAL: Engine failure or shutdown"
		case rpm > 8000:
			return "WARNING: Engine overspeed"
		}
		return ""
	},
	func(row map[string]float64) string {
		if math.Abs(row["elevator_position"]) > 25 {
			return "WARNING: Extreme elevator deflection"
		}
		return ""
	},
	func(row map[string]float64) string {
		if row["angle_of_attack"] > 20 {
			return "CRITICAL: High angle of attack — stall risk"
		}
		return ""
	},
	func(row map[string]float64) string {
		if row["battery_voltage"] < 10 {
			return "CRITICAL: Battery voltage critically low"
		}
		return ""
	},
}

// multirotorMotorColumns lists the motor_i_rpm columns the active-motor
// count scans, per spec.md §4.6's "count(motor_i_rpm>500 for i∈1..6)" —
// the multirotor schema only populates motor_1..4_rpm, so motor_5/6_rpm
// simply default to 0 (never active) when absent.
var multirotorMotorColumns = []string{
	"motor_1_rpm", "motor_2_rpm", "motor_3_rpm", "motor_4_rpm", "motor_5_rpm", "motor_6_rpm",
}

// multirotorRules mirrors spec.md §4.6's Multirotor rule table, grounded
// on _describe_multirotor_anomaly.
var multirotorRules = []rule{
	func(row map[string]float64) string {
		if len(activeMotors(row, multirotorMotorColumns)) < 4 {
			return "CRITICAL: Insufficient motors operational"
		}
		return ""
	},
	func(row map[string]float64) string {
		active := activeMotors(row, multirotorMotorColumns)
		if len(active) >= 4 && stddev(active) > 1000 {
			return "WARNING: Severe motor RPM asymmetry"
		}
		return ""
	},
	func(row map[string]float64) string {
		if math.Abs(row["pitch_angle"]) > 30 || math.Abs(row["roll_angle"]) > 30 {
			return "WARNING: Extreme aircraft attitude"
		}
		return ""
	},
	func(row map[string]float64) string {
		if vibrationMagnitude(row) > 10 {
			return "WARNING: Excessive vibration detected"
		}
		return ""
	},
	func(row map[string]float64) string {
		if row["battery_voltage"] < 10.5 {
			return "CRITICAL: Battery voltage critically low"
		}
		return ""
	},
}

// vtolLiftMotorColumns lists the VTOL lift-motor columns, per spec.md
// §4.6's "<4 of motor_1..motor_4 above 500".
var vtolLiftMotorColumns = []string{"motor_1_rpm", "motor_2_rpm", "motor_3_rpm", "motor_4_rpm"}

// vtolRules mirrors spec.md §4.6's VTOL rule table, grounded on
// _describe_vtol_anomaly.
var vtolRules = []rule{
	func(row map[string]float64) string {
		if len(activeMotors(row, vtolLiftMotorColumns)) < 4 {
			return "CRITICAL: Lift motor failure — vertical flight compromised"
		}
		return ""
	},
	func(row map[string]float64) string {
		if row["airspeed"] > 15 && row["motor_5_rpm"] < 1000 {
			return "CRITICAL: Forward motor failure during cruise flight"
		}
		return ""
	},
	func(row map[string]float64) string {
		if row["transition_mode"] == 1 {
			if airspeed := row["airspeed"]; airspeed < 8 || airspeed > 35 {
				return "WARNING: Unsafe transition airspeed"
			}
		}
		return ""
	},
}

// defaultDescription is used when a row clears Threshold but no
// class-specific rule recognizes the pattern.
const defaultDescription = "Flight parameter anomaly detected"

// columnsFor lists the columns each class's rule set reads, so Extract
// can materialize rows once instead of per-rule.
func columnsFor(c aircraft.Class) []string {
	switch aircraft.EffectiveModelClass(c) {
	case aircraft.FixedWing:
		return []string{"airspeed", "motor_rpm", "elevator_position", "angle_of_attack", "battery_voltage"}
	case aircraft.VTOL:
		return []string{"motor_1_rpm", "motor_2_rpm", "motor_3_rpm", "motor_4_rpm", "motor_5_rpm",
			"airspeed", "transition_mode"}
	default:
		return []string{"motor_1_rpm", "motor_2_rpm", "motor_3_rpm", "motor_4_rpm", "motor_5_rpm", "motor_6_rpm",
			"pitch_angle", "roll_angle", "vibration_x", "vibration_y", "vibration_z", "vibration_w",
			"battery_voltage"}
	}
}

// Extract scans per-row anomaly scores and returns every event above
// Threshold, ordered by descending score (the most severe events first).
func Extract(f *frame.Frame, class aircraft.Class, scores []float64) []Event {
	rules := rulesFor(class)
	cols := columnsFor(class)

	var events []Event
	for i, score := range scores {
		if score <= Threshold {
			continue
		}

		row := f.Row(i, cols...)
		var fragments []string
		for _, r := range rules {
			if d := r(row); d != "" {
				fragments = append(fragments, d)
			}
		}
		description := defaultDescription
		if len(fragments) > 0 {
			description = strings.Join(fragments, "; ")
		}

		severity := SeverityWarning
		if score > CriticalThreshold {
			severity = SeverityCritical
		}

		events = append(events, Event{
			RowIndex:    i,
			Timestamp:   f.TimestampDelta(0, 0.1) * float64(i),
			Score:       score,
			Severity:    severity,
			Description: description,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Score > events[j].Score
	})

	return events
}

// activeMotors returns the values among cols whose row value exceeds
// 500 RPM, the "active motor" cutoff spec.md uses throughout.
func activeMotors(row map[string]float64, cols []string) []float64 {
	var active []float64
	for _, c := range cols {
		if v := row[c]; v > 500 {
			active = append(active, v)
		}
	}
	return active
}

// vibrationMagnitude is sqrt(sum(vib_{x,y,z,w}^2)), per spec.md §4.6's
// Multirotor vibration rule.
func vibrationMagnitude(row map[string]float64) float64 {
	x, y, z, w := row["vibration_x"], row["vibration_y"], row["vibration_z"], row["vibration_w"]
	return math.Sqrt(x*x + y*y + z*z + w*w)
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}
