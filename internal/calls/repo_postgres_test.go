package calls

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepo_ApplyStatusGuardsTerminal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepo(db)
	d := 42
	by := "human"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE call_logs SET status = CASE WHEN status IN ($1,$2,$3,$4,$5) THEN status ELSE $6 END")).
		WithArgs("completed", "no_answer", "busy", "failed", "missed", "completed", sqlmock.AnyArg(), 42, "human", "call-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.ApplyStatus(context.Background(), "call-1", StatusUpdate{
		Status:          StatusCompleted,
		DurationSeconds: &d,
		AnsweredBy:      &by,
	}, time.Now())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_ApplyStatusMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepo(db)
	mock.ExpectExec("UPDATE call_logs").WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.ApplyStatus(context.Background(), "nope", StatusUpdate{Status: StatusBusy}, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepo_InsertNullsEmptyCustomer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepo(db)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO call_logs").
		WithArgs("id-1", nil, "+15550001111", "Ann", "outbound", "initiated", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Insert(context.Background(), CallLog{
		ID:           "id-1",
		PhoneNumber:  "+15550001111",
		CustomerName: "Ann",
		Direction:    DirectionOutbound,
		Status:       StatusInitiated,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepo(db)
	mock.ExpectQuery("SELECT (.+) FROM call_logs").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepo_ListFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepo(db)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	cols := []string{"id", "customer_id", "phone_number", "customer_name", "direction", "status", "call_sid", "duration_seconds", "answered_by", "notes", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM call_logs WHERE").
		WithArgs(from, to, "inbound").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("c1", nil, "+15550001111", "", "inbound", "completed", "CA1", 30, "human", nil, from, from))

	rows, err := repo.List(context.Background(), Filter{From: from, To: to, Direction: DirectionInbound})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusCompleted, rows[0].Status)
	assert.Equal(t, "", rows[0].CustomerID)
	assert.Equal(t, "CA1", rows[0].CallSID)
}

func TestPostgresRepo_ApplyStatusWithoutStatusLeavesColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	by := "machine_start"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE call_logs SET updated_at = $1, answered_by = $2 WHERE id = $3")).
		WithArgs(sqlmock.AnyArg(), "machine_start", "call-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresRepo(db).ApplyStatus(context.Background(), "call-1", StatusUpdate{AnsweredBy: &by}, time.Now())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
