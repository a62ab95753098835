// Package schema holds the per-class ordered feature lists that the
// anomaly models are trained and scored on. Ordering is load-bearing: the
// trained model's column order must match inference exactly, so these
// lists are the single source of truth for both C3 (synthetic trainer)
// and C4 (anomaly model).
package schema

import "github.com/oualidl290/flightsentry/internal/aircraft"

var fixedWing = []string{
	"altitude", "battery_voltage", "motor_rpm", "airspeed",
	"ground_speed", "throttle_position", "elevator_position",
	"rudder_position", "aileron_position", "pitch_angle",
	"roll_angle", "yaw_rate", "gps_hdop", "temperature",
	"wind_speed", "angle_of_attack",
}

var multirotor = []string{
	"altitude", "battery_voltage", "motor_1_rpm", "motor_2_rpm",
	"motor_3_rpm", "motor_4_rpm", "vibration_x", "vibration_y",
	"vibration_z", "vibration_w", "pitch_angle", "roll_angle",
	"speed", "temperature", "gps_hdop",
}

var vtol = []string{
	"altitude", "battery_voltage", "motor_1_rpm", "motor_2_rpm",
	"motor_3_rpm", "motor_4_rpm", "motor_5_rpm", "airspeed",
	"elevator_position", "aileron_position", "gps_hdop",
	"vibration_x", "vibration_y", "vibration_z", "vibration_w",
	"temperature", "transition_mode", "pitch_angle", "roll_angle",
}

// FeatureSet returns the ordered feature list for a class. Unknown
// resolves to Multirotor's schema, per spec.md §4.2.
func FeatureSet(c aircraft.Class) []string {
	switch aircraft.EffectiveModelClass(c) {
	case aircraft.FixedWing:
		return fixedWing
	case aircraft.VTOL:
		return vtol
	default:
		return multirotor
	}
}
