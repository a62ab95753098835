package pipeline

import (
	"math"

	"github.com/oualidl290/flightsentry/internal/aircraft"
	"github.com/oualidl290/flightsentry/internal/frame"
	"github.com/oualidl290/flightsentry/internal/result"
)

// phaseTimeUnit is the per-sample duration the original phase analysis
// assumed (10Hz logging), used to convert a matching-sample count into a
// duration the way _analyze_fixed_wing_phases/_analyze_multirotor_phases/
// _analyze_vtol_phases in multi_aircraft_detector.py do.
const phaseTimeUnit = 0.1

// multirotorPerfMotorColumns lists the motor_i_rpm columns
// _calculate_performance_metrics scans for "motor"+"rpm" columns when
// computing motor_symmetry; the frame has no column-introspection API, so
// this mirrors schema.FeatureSet's multirotor/VTOL motor columns.
var multirotorPerfMotorColumns = []string{"motor_1_rpm", "motor_2_rpm", "motor_3_rpm", "motor_4_rpm"}

var vibrationColumns = []string{"vibration_x", "vibration_y", "vibration_z", "vibration_w"}

// phaseStats computes spec.md §4.8's per-class flight_phases bag, grounded
// on _analyze_fixed_wing_phases/_analyze_multirotor_phases/
// _analyze_vtol_phases in multi_aircraft_detector.py.
func phaseStats(f *frame.Frame, class aircraft.Class) result.FlightPhases {
	switch aircraft.EffectiveModelClass(class) {
	case aircraft.FixedWing:
		return fixedWingPhases(f)
	case aircraft.VTOL:
		phases := multirotorPhases(f)
		phases.TransitionTime = float64(f.CountWhere(func(i int) bool {
			return f.Get("transition_mode")[i] == 1
		})) * phaseTimeUnit
		return phases
	default:
		return multirotorPhases(f)
	}
}

func fixedWingPhases(f *frame.Frame) result.FlightPhases {
	if !f.HasColumn("altitude") || !f.HasColumn("airspeed") {
		return result.FlightPhases{}
	}

	altitudeDiff := f.Diff("altitude")
	rollingStd := f.RollingStd("altitude", 20)
	airspeed := f.Get("airspeed")

	takeoff := f.CountWhere(func(i int) bool {
		return altitudeDiff[i] > 1 && airspeed[i] > 15
	})
	cruise := f.CountWhere(func(i int) bool {
		return rollingStd[i] < 3 && airspeed[i] > 20
	})
	approach := f.CountWhere(func(i int) bool {
		return altitudeDiff[i] < -1 && airspeed[i] < 30
	})

	return result.FlightPhases{
		TakeoffDuration:  float64(takeoff) * phaseTimeUnit,
		CruiseDuration:   float64(cruise) * phaseTimeUnit / 60,
		ApproachDuration: float64(approach) * phaseTimeUnit,
	}
}

func multirotorPhases(f *frame.Frame) result.FlightPhases {
	if !f.HasColumn("speed") || !f.HasColumn("altitude") {
		return result.FlightPhases{}
	}

	speed := f.Get("speed")
	altitudeDiff := f.Diff("altitude")
	pitch := f.Get("pitch_angle")
	roll := f.Get("roll_angle")

	hover := f.CountWhere(func(i int) bool {
		return speed[i] < 2 && math.Abs(altitudeDiff[i]) < 2
	})
	forward := f.CountWhere(func(i int) bool {
		return speed[i] > 5
	})
	aggressive := f.CountWhere(func(i int) bool {
		return math.Abs(pitch[i]) > 15 || math.Abs(roll[i]) > 15
	})

	return result.FlightPhases{
		HoverTime:           float64(hover) * phaseTimeUnit,
		ForwardFlightTime:   float64(forward) * phaseTimeUnit,
		AggressiveManeuvers: float64(aggressive) * phaseTimeUnit,
	}
}

// perfMetrics computes spec.md §4.8's per-class performance_metrics bag,
// grounded on _calculate_performance_metrics in
// multi_aircraft_detector.py.
func perfMetrics(f *frame.Frame, class aircraft.Class) result.PerformanceMetrics {
	switch aircraft.EffectiveModelClass(class) {
	case aircraft.FixedWing:
		return fixedWingPerf(f)
	case aircraft.VTOL:
		perf := multirotorPerf(f)
		perf.TransitionEfficiency = float64(f.CountWhere(func(i int) bool {
			return f.Get("transition_mode")[i] == 1
		})) * phaseTimeUnit
		return perf
	default:
		return multirotorPerf(f)
	}
}

func fixedWingPerf(f *frame.Frame) result.PerformanceMetrics {
	engine := "Below Normal"
	if f.Mean("motor_rpm") > 1000 {
		engine = "Normal"
	}

	return result.PerformanceMetrics{
		AverageAirspeed:    f.Mean("airspeed"),
		MaxAirspeed:        f.Max("airspeed"),
		EnginePerformance:  engine,
		AverageThrottle:    f.Mean("throttle_position"),
		BatteryConsumption: batteryConsumption(f),
	}
}

func multirotorPerf(f *frame.Frame) result.PerformanceMetrics {
	var motorMeans []float64
	for _, col := range multirotorPerfMotorColumns {
		if f.HasColumn(col) {
			motorMeans = append(motorMeans, f.Mean(col))
		}
	}

	return result.PerformanceMetrics{
		MotorSymmetry:      stddevOf(motorMeans),
		BatteryConsumption: batteryConsumption(f),
		AverageVibration:   averageVibration(f),
	}
}

// batteryConsumption is battery_voltage[0] - battery_voltage[-1], the
// original's measure of charge drawn down over the flight; a one-sample
// frame has no drawdown to report.
func batteryConsumption(f *frame.Frame) float64 {
	voltage := f.Get("battery_voltage")
	if len(voltage) < 2 {
		return 0
	}
	return voltage[0] - voltage[len(voltage)-1]
}

// averageVibration is the mean of each vibration axis's mean absolute
// value, and only reported when all four axes are present.
func averageVibration(f *frame.Frame) float64 {
	for _, col := range vibrationColumns {
		if !f.HasColumn(col) {
			return 0
		}
	}

	var axisMeans []float64
	for _, col := range vibrationColumns {
		values := f.Get(col)
		sum := 0.0
		for _, v := range values {
			sum += math.Abs(v)
		}
		axisMeans = append(axisMeans, sum/float64(len(values)))
	}
	return meanOf(axisMeans)
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddevOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := meanOf(values)
	variance := 0.0
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}
