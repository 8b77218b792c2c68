package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Completion is a conditional update: only a row still pending flips, and the
// flip reports the receiving donor so the caller can stamp the cooldown.
func TestMarkCompletedFlipsPendingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reqID := uuid.New()
	wantDonor := uuid.New()

	mock.ExpectQuery("UPDATE blood_requests").
		WithArgs("completed", reqID, "pending").
		WillReturnRows(sqlmock.NewRows([]string{"donor_id"}).AddRow(wantDonor))

	donorID, flipped, err := NewPostgres(db).MarkCompleted(context.Background(), reqID)
	require.NoError(t, err)
	require.True(t, flipped)
	require.Equal(t, wantDonor, donorID)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A repeat call finds no pending row. The store probes for the row and
// reports flipped=false instead of failing, keeping completion idempotent.
func TestMarkCompletedIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reqID := uuid.New()
	wantDonor := uuid.New()

	mock.ExpectQuery("UPDATE blood_requests").
		WithArgs("completed", reqID, "pending").
		WillReturnRows(sqlmock.NewRows([]string{"donor_id"}))

	mock.ExpectQuery("SELECT donor_id FROM blood_requests").
		WithArgs(reqID).
		WillReturnRows(sqlmock.NewRows([]string{"donor_id"}).AddRow(wantDonor))

	donorID, flipped, err := NewPostgres(db).MarkCompleted(context.Background(), reqID)
	require.NoError(t, err)
	require.False(t, flipped)
	require.Equal(t, wantDonor, donorID)
	require.NoError(t, mock.ExpectationsWereMet())
}
