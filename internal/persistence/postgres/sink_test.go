package postgres

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oualidl290/flightsentry/internal/result"
)

func newMockSink(t *testing.T) (*ResultSink, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewResultSinkFromDB(sqlxDB, 5*time.Second), mock
}

func TestStoreExecutesUpsert(t *testing.T) {
	sink, mock := newMockSink(t)

	r := result.Result{
		FlightID:      "flight-42",
		ReceiptID:     "receipt-1",
		AircraftClass: "multirotor",
		RiskScore:     0.8,
		RiskLevel:     result.RiskWarning,
		CreatedAt:     time.Now(),
	}

	mock.ExpectExec("INSERT INTO analysis_results").
		WithArgs(r.ReceiptID, r.FlightID, r.AircraftClass, r.ClassConfidence, r.RiskScore,
			r.RiskLevel, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), string(r.ErrorCode), r.InternalError, r.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := sink.Store(context.Background(), r)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorePropagatesDBError(t *testing.T) {
	sink, mock := newMockSink(t)

	r := result.Result{FlightID: "flight-err"}
	mock.ExpectExec("INSERT INTO analysis_results").
		WillReturnError(assert.AnError)

	err := sink.Store(context.Background(), r)
	assert.Error(t, err)
}
