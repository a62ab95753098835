package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oualidl290/flightsentry/internal/aircraft"
	"github.com/oualidl290/flightsentry/internal/frame"
)

func TestExtractFiltersBelowThreshold(t *testing.T) {
	f := frame.New(map[string][]float64{"airspeed": {20, 20, 20}}, 3)
	scores := []float64{0.1, 0.5, 0.6}

	result := Extract(f, aircraft.FixedWing, scores)
	assert.Empty(t, result)
}

func TestExtractAssignsSeverity(t *testing.T) {
	f := frame.New(map[string][]float64{
		"airspeed":          {20, 20},
		"battery_voltage":   {12, 12},
		"elevator_position": {0, 0},
		"angle_of_attack":   {2, 2},
		"motor_rpm":         {6500, 6500},
	}, 2)
	scores := []float64{0.75, 0.95}

	result := Extract(f, aircraft.FixedWing, scores)
	require := assert.New(t)
	require.Len(result, 2)

	// descending by score
	require.Equal(0.95, result[0].Score)
	require.Equal(SeverityCritical, result[0].Severity)
	require.Equal(SeverityWarning, result[1].Severity)
}

func TestExtractFixedWingStallRule(t *testing.T) {
	f := frame.New(map[string][]float64{
		"airspeed":          {5},
		"battery_voltage":   {12},
		"elevator_position": {0},
		"angle_of_attack":   {2},
		"motor_rpm":         {6500},
	}, 1)

	result := Extract(f, aircraft.FixedWing, []float64{0.8})
	assert.Len(t, result, 1)
	assert.Equal(t, "CRITICAL: Airspeed below stall speed", result[0].Description)
}

func TestExtractFixedWingHighAngleOfAttack(t *testing.T) {
	f := frame.New(map[string][]float64{
		"airspeed":          {20},
		"battery_voltage":   {12},
		"elevator_position": {0},
		"angle_of_attack":   {25},
		"motor_rpm":         {6500},
	}, 1)

	result := Extract(f, aircraft.FixedWing, []float64{0.8})
	assert.Len(t, result, 1)
	assert.Equal(t, "CRITICAL: High angle of attack — stall risk", result[0].Description)
}

func TestExtractFixedWingJoinsMultipleFragments(t *testing.T) {
	f := frame.New(map[string][]float64{
		"airspeed":          {5},
		"battery_voltage":   {9},
		"elevator_position": {0},
		"angle_of_attack":   {2},
		"motor_rpm":         {6500},
	}, 1)

	result := Extract(f, aircraft.FixedWing, []float64{0.8})
	assert.Len(t, result, 1)
	assert.Equal(t,
		"CRITICAL: Airspeed below stall speed; CRITICAL: Battery voltage critically low",
		result[0].Description)
}

func TestExtractDefaultsWhenNoRuleMatches(t *testing.T) {
	f := frame.New(map[string][]float64{
		"airspeed":          {20},
		"battery_voltage":   {12},
		"elevator_position": {0},
		"angle_of_attack":   {2},
		"motor_rpm":         {6500},
	}, 1)

	result := Extract(f, aircraft.FixedWing, []float64{0.75})
	assert.Len(t, result, 1)
	assert.Equal(t, defaultDescription, result[0].Description)
}

func TestExtractMultirotorInsufficientMotorsRule(t *testing.T) {
	f := frame.New(map[string][]float64{
		"vibration_x": {1}, "vibration_y": {1}, "vibration_z": {1}, "vibration_w": {1},
		"battery_voltage": {16}, "motor_1_rpm": {5200}, "motor_2_rpm": {5200},
		"motor_3_rpm": {200}, "motor_4_rpm": {100}, "pitch_angle": {0}, "roll_angle": {0},
	}, 1)

	result := Extract(f, aircraft.Multirotor, []float64{0.85})
	assert.Len(t, result, 1)
	assert.Equal(t, "CRITICAL: Insufficient motors operational", result[0].Description)
}

func TestExtractMultirotorVibrationRule(t *testing.T) {
	f := frame.New(map[string][]float64{
		"vibration_x": {10}, "vibration_y": {1}, "vibration_z": {1}, "vibration_w": {1},
		"battery_voltage": {16}, "motor_1_rpm": {5200}, "motor_2_rpm": {5200},
		"motor_3_rpm": {5200}, "motor_4_rpm": {5200}, "pitch_angle": {0}, "roll_angle": {0},
	}, 1)

	result := Extract(f, aircraft.Multirotor, []float64{0.85})
	assert.Len(t, result, 1)
	assert.Equal(t, "WARNING: Excessive vibration detected", result[0].Description)
}

func TestExtractVTOLLiftMotorFailureRule(t *testing.T) {
	f := frame.New(map[string][]float64{
		"motor_1_rpm": {5000}, "motor_2_rpm": {5000}, "motor_3_rpm": {100}, "motor_4_rpm": {100},
		"motor_5_rpm": {6000}, "airspeed": {10}, "transition_mode": {0},
	}, 1)

	result := Extract(f, aircraft.VTOL, []float64{0.85})
	assert.Len(t, result, 1)
	assert.Equal(t, "CRITICAL: Lift motor failure — vertical flight compromised", result[0].Description)
}

func TestExtractVTOLForwardMotorFailureRule(t *testing.T) {
	f := frame.New(map[string][]float64{
		"motor_1_rpm": {3000}, "motor_2_rpm": {3000}, "motor_3_rpm": {3000}, "motor_4_rpm": {3000},
		"motor_5_rpm": {500}, "airspeed": {20}, "transition_mode": {0},
	}, 1)

	result := Extract(f, aircraft.VTOL, []float64{0.85})
	assert.Len(t, result, 1)
	assert.Equal(t, "CRITICAL: Forward motor failure during cruise flight", result[0].Description)
}

func TestExtractVTOLUnsafeTransitionAirspeedRule(t *testing.T) {
	f := frame.New(map[string][]float64{
		"motor_1_rpm": {3000}, "motor_2_rpm": {3000}, "motor_3_rpm": {3000}, "motor_4_rpm": {3000},
		"motor_5_rpm": {5000}, "airspeed": {40}, "transition_mode": {1},
	}, 1)

	result := Extract(f, aircraft.VTOL, []float64{0.85})
	assert.Len(t, result, 1)
	assert.Equal(t, "WARNING: Unsafe transition airspeed", result[0].Description)
}
