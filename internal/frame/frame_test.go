package frame

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndGet(t *testing.T) {
	f := New(map[string][]float64{"altitude": {1, 2, 3}}, 3)

	assert.Equal(t, 3, f.Len())
	assert.True(t, f.HasColumn("altitude"))
	assert.False(t, f.HasColumn("missing"))
	assert.Equal(t, []float64{1, 2, 3}, f.Get("altitude"))
	assert.Equal(t, []float64{0, 0, 0}, f.Get("missing"))
}

func TestTimestampDelta(t *testing.T) {
	f := New(map[string][]float64{"altitude": {1, 2, 3}}, 3).WithTimestamps([]float64{0, 0.5, 1.2})

	assert.True(t, f.HasTimestamps())
	assert.InDelta(t, 0.5, f.TimestampDelta(0, 0.1), 1e-9)
	assert.InDelta(t, 0.7, f.TimestampDelta(1, 0.1), 1e-9)
	assert.Equal(t, 0.1, f.TimestampDelta(2, 0.1)) // out of range falls back to assumed period
}

func TestTimestampDeltaWithoutColumn(t *testing.T) {
	f := New(map[string][]float64{"altitude": {1, 2, 3}}, 3)
	assert.False(t, f.HasTimestamps())
	assert.Equal(t, 0.1, f.TimestampDelta(0, 0.1))
}

func TestDiff(t *testing.T) {
	f := New(map[string][]float64{"altitude": {10, 12, 9}}, 3)
	assert.Equal(t, []float64{0, 2, -3}, f.Diff("altitude"))
}

func TestMeanMaxMinVarStd(t *testing.T) {
	f := New(map[string][]float64{"speed": {2, 4, 6, 8}}, 4)
	assert.Equal(t, 5.0, f.Mean("speed"))
	assert.Equal(t, 8.0, f.Max("speed"))
	assert.Equal(t, 2.0, f.Min("speed"))
	assert.Equal(t, 5.0, f.Var("speed"))
	assert.InDelta(t, math.Sqrt(5.0), f.Std("speed"), 1e-9)
}

func TestMeanIgnoresNonFinite(t *testing.T) {
	f := New(map[string][]float64{"speed": {2, math.NaN(), 4, math.Inf(1)}}, 4)
	assert.Equal(t, 3.0, f.Mean("speed"))
}

func TestRollingStd(t *testing.T) {
	f := New(map[string][]float64{"altitude": {1, 1, 1, 1, 5, 5, 5, 5}}, 8)
	rolling := f.RollingStd("altitude", 4)

	// first window isn't full yet
	assert.Equal(t, 0.0, rolling[2])
	// fully within the flat segment: no variance
	assert.Equal(t, 0.0, rolling[3])
	// window spanning the jump has nonzero variance
	assert.Greater(t, rolling[6], 0.0)
}

func TestCountWhere(t *testing.T) {
	f := New(map[string][]float64{"speed": {1, 20, 3, 25}}, 4)
	count := f.CountWhere(func(i int) bool {
		return f.Get("speed")[i] > 10
	})
	assert.Equal(t, 2, count)
}

func TestRow(t *testing.T) {
	f := New(map[string][]float64{"altitude": {1, 2}, "speed": {10, 20}}, 2)
	row := f.Row(1, "altitude", "speed", "missing")
	assert.Equal(t, 2.0, row["altitude"])
	assert.Equal(t, 20.0, row["speed"])
	assert.Contains(t, row, "missing")
}

func TestFillMissingForwardAndBack(t *testing.T) {
	values := []float64{math.NaN(), 1, math.NaN(), math.NaN(), 4, math.NaN()}
	filled := FillMissing(values)
	assert.Equal(t, []float64{1, 1, 1, 1, 4, 4}, filled)
}

func TestFillMissingAllNaN(t *testing.T) {
	filled := FillMissing([]float64{math.NaN(), math.NaN()})
	assert.Equal(t, []float64{0, 0}, filled)
}

func TestBuildRejectsLengthMismatch(t *testing.T) {
	_, err := Build(map[string][]float64{"altitude": {1, 2}}, 3)
	require.Error(t, err)
	var mismatchErr *LengthMismatchError
	assert.ErrorAs(t, err, &mismatchErr)
	assert.Equal(t, "altitude", mismatchErr.Column)
}

func TestBuildFillsAndConstructs(t *testing.T) {
	f, err := Build(map[string][]float64{"altitude": {1, math.NaN(), 3}}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 3}, f.Get("altitude"))
}
