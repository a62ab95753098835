package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oualidl290/flightsentry/internal/aircraft"
	"github.com/oualidl290/flightsentry/internal/frame"
)

func repeat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// alternate returns n values switching between a and b, giving the column
// a nonzero variance.
func alternate(n int, a, b float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = a
		if i%2 == 1 {
			out[i] = b
		}
	}
	return out
}

func TestDetectEmptyFrameIsUnknown(t *testing.T) {
	d := New(DefaultConfig())
	result := d.Detect(nil)
	assert.Equal(t, aircraft.Unknown, result.Class)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestDetectFixedWingProfile(t *testing.T) {
	n := 100
	columns := map[string][]float64{
		"motor_rpm":          repeat(n, 6500),
		"elevator_position":  alternate(n, 0, 10),
		"aileron_position":   alternate(n, 0, 10),
		"altitude":           repeat(n, 300),
		"speed":              repeat(n, 22),
	}
	f := frame.New(columns, n)

	d := New(DefaultConfig())
	result := d.Detect(f)

	assert.Equal(t, aircraft.FixedWing, result.Class)
	assert.GreaterOrEqual(t, result.Confidence, DefaultConfig().ConfidenceThreshold)
}

func TestDetectMultirotorProfile(t *testing.T) {
	n := 100
	columns := map[string][]float64{
		"motor_1_rpm": repeat(n, 5200),
		"motor_2_rpm": repeat(n, 5200),
		"motor_3_rpm": repeat(n, 5200),
		"motor_4_rpm": repeat(n, 5200),
		"altitude":    repeat(n, 40),
		"speed":       repeat(n, 1),
	}
	f := frame.New(columns, n)

	d := New(DefaultConfig())
	result := d.Detect(f)

	assert.Equal(t, aircraft.Multirotor, result.Class)
}

func TestDetectLowSignalIsUnknown(t *testing.T) {
	n := 20
	f := frame.New(map[string][]float64{"altitude": repeat(n, 50)}, n)

	d := New(DefaultConfig())
	result := d.Detect(f)

	assert.Equal(t, aircraft.Unknown, result.Class)
	assert.Less(t, result.Confidence, DefaultConfig().ConfidenceThreshold)
}

func TestVotingBreakdownCoversAllClasses(t *testing.T) {
	d := New(DefaultConfig())
	result := d.Detect(frame.New(map[string][]float64{"altitude": repeat(10, 1)}, 10))
	breakdown := result.VotingBreakdown()

	assert.Contains(t, breakdown, "fixed_wing")
	assert.Contains(t, breakdown, "multirotor")
	assert.Contains(t, breakdown, "vtol")
}
