package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oualidl290/flightsentry/internal/aircraft"
	"github.com/oualidl290/flightsentry/internal/schema"
)

func TestGenerateRejectsUnknownClass(t *testing.T) {
	_, _, err := Generate(aircraft.Unknown, 100, 1)
	assert.Error(t, err)
}

func TestGenerateRejectsTooFewSamples(t *testing.T) {
	_, _, err := Generate(aircraft.Multirotor, MinSampleSize-1, 1)
	assert.Error(t, err)
}

func TestGenerateProducesLabeledSplit(t *testing.T) {
	for _, class := range aircraft.Concrete() {
		f, labels, err := Generate(class, 100, 7)
		require.NoError(t, err)

		assert.Equal(t, 100, f.Len())
		assert.Len(t, labels, 100)

		normal, anomalous := 0, 0
		for _, l := range labels {
			if l == 0 {
				normal++
			} else {
				anomalous++
			}
		}
		assert.Equal(t, 80, normal)
		assert.Equal(t, 20, anomalous)

		for _, col := range schema.FeatureSet(class) {
			assert.True(t, f.HasColumn(col), "missing column %s for class %s", col, class)
		}
	}
}

func TestGenerateIsDeterministicForSameSeed(t *testing.T) {
	f1, labels1, err := Generate(aircraft.FixedWing, 50, 42)
	require.NoError(t, err)
	f2, labels2, err := Generate(aircraft.FixedWing, 50, 42)
	require.NoError(t, err)

	assert.Equal(t, labels1, labels2)
	for _, col := range schema.FeatureSet(aircraft.FixedWing) {
		assert.Equal(t, f1.Get(col), f2.Get(col))
	}
}

func TestGenerateDiffersAcrossSeeds(t *testing.T) {
	f1, _, err := Generate(aircraft.Multirotor, 50, 1)
	require.NoError(t, err)
	f2, _, err := Generate(aircraft.Multirotor, 50, 2)
	require.NoError(t, err)

	assert.NotEqual(t, f1.Get("altitude"), f2.Get("altitude"))
}
