package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oualidl290/flightsentry/internal/aircraft"
	"github.com/oualidl290/flightsentry/internal/anomaly"
	"github.com/oualidl290/flightsentry/internal/config"
	"github.com/oualidl290/flightsentry/internal/result"
	"github.com/oualidl290/flightsentry/internal/synth"
)

func testEnsembleConfig() anomaly.EnsembleConfig {
	return anomaly.EnsembleConfig{
		Estimators: 10, MaxDepth: 3, Shrinkage: 0.1, MinSamplesSplit: 2,
		TrainingSize: 80, Seed: 1,
	}
}

func TestAnalyzeNilFrameReturnsInvalidInput(t *testing.T) {
	orch := New(config.DefaultThresholds(), testEnsembleConfig())
	r := orch.Analyze(context.Background(), "flight-1", nil)

	assert.Equal(t, result.ErrInvalidInput, r.ErrorCode)
	assert.Equal(t, "flight-1", r.FlightID)
}

func TestAnalyzeCanceledContext(t *testing.T) {
	orch := New(config.DefaultThresholds(), testEnsembleConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f, _, err := synth.Generate(aircraft.Multirotor, 50, 1)
	require.NoError(t, err)

	r := orch.Analyze(ctx, "flight-2", f)
	assert.Equal(t, result.ErrCanceled, r.ErrorCode)
}

func TestAnalyzeProducesAssembledResult(t *testing.T) {
	orch := New(config.DefaultThresholds(), testEnsembleConfig())

	f, _, err := synth.Generate(aircraft.Multirotor, 50, 1)
	require.NoError(t, err)

	r := orch.Analyze(context.Background(), "flight-3", f)

	assert.Equal(t, result.ErrNone, r.ErrorCode)
	assert.NotEmpty(t, r.ReceiptID)
	assert.NotEmpty(t, r.AircraftClass)
	assert.GreaterOrEqual(t, r.RiskScore, 0.0)
	assert.LessOrEqual(t, r.RiskScore, 1.0)
	assert.NotEmpty(t, r.PhaseMetrics)
	assert.Equal(t, r.RiskLevel, result.ClassifyRisk(r.RiskScore,
		config.DefaultThresholds().RiskCritical,
		config.DefaultThresholds().RiskWarning,
		config.DefaultThresholds().RiskElevated))
}

// TestAnalyzeRiskScoreIsMeanOfPredictions pins spec.md §3's invariant P1:
// risk_score is the arithmetic mean of the prediction vector, not the
// worst single row's score.
func TestAnalyzeRiskScoreIsMeanOfPredictions(t *testing.T) {
	orch := New(config.DefaultThresholds(), testEnsembleConfig())

	f, _, err := synth.Generate(aircraft.Multirotor, 50, 1)
	require.NoError(t, err)

	model := orch.Models.ModelFor(aircraft.Multirotor)
	scores, err := model.Predict(context.Background(), f)
	require.NoError(t, err)

	want := meanScore(scores)

	r := orch.Analyze(context.Background(), "flight-4", f)
	assert.InDelta(t, want, r.RiskScore, 1e-9)
}
