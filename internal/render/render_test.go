package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oualidl290/flightsentry/internal/result"
)

func TestJSONRoundTrips(t *testing.T) {
	r := result.Result{FlightID: "f1", RiskScore: 0.5, AircraftClass: "vtol"}
	data, err := JSON(r)
	require.NoError(t, err)

	var decoded result.Result
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.FlightID, decoded.FlightID)
	assert.Equal(t, r.RiskScore, decoded.RiskScore)
}

func TestCompactStringReportsError(t *testing.T) {
	r := result.Result{FlightID: "f2", ErrorCode: result.ErrInvalidInput, InternalError: "empty frame"}
	s := CompactString(r)
	assert.Contains(t, s, "f2")
	assert.Contains(t, s, "ERROR")
	assert.Contains(t, s, "empty frame")
}

func TestCompactStringReportsSuccess(t *testing.T) {
	r := result.Result{FlightID: "f3", RiskLevel: result.RiskNormal, RiskScore: 0.1, AircraftClass: "fixed_wing"}
	s := CompactString(r)
	assert.Contains(t, s, "f3")
	assert.Contains(t, s, "fixed_wing")
}
