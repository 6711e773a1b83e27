package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pragmaRows(columns ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"})
	for i, column := range columns {
		rows.AddRow(i, column, "TEXT", 0, nil, 0)
	}
	return rows
}

func TestEnsureJournalSchemaAddsMissingColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS transitions`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_transitions_booking`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info(transitions);`)).
		WillReturnRows(pragmaRows("id", "booking_number", "booking_id", "origin", "action", "from_status", "to_status", "operator_id", "outcome", "at", "note"))
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE transitions ADD COLUMN error TEXT;`)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, ensureJournalSchema(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureJournalSchemaCreateFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS transitions`).WillReturnError(fmt.Errorf("disk I/O error"))

	err = ensureJournalSchema(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create transitions table")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	journal := &Journal{DB: db}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO transitions`).
			WithArgs(sqlmock.AnyArg(), "SR-1001", int64(31), "agent", "confirm", "under-process", "Confirmed", int64(42), "", OutcomeOK, "", "2025-03-01T10:00:00Z").
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := journal.RecordTransition(context.Background(), Transition{
			BookingNumber: "SR-1001",
			BookingID:     31,
			Origin:        "agent",
			Action:        "confirm",
			FromStatus:    "under-process",
			ToStatus:      "Confirmed",
			OperatorID:    42,
			Outcome:       OutcomeOK,
			At:            "2025-03-01T10:00:00Z",
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO transitions`).WillReturnError(fmt.Errorf("database is locked"))

		err := journal.RecordTransition(context.Background(), Transition{BookingNumber: "SR-1001"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "record transition")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListTransitionsBuildsFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	journal := &Journal{DB: db}

	columns := []string{"id", "booking_number", "booking_id", "origin", "action", "from_status", "to_status", "operator_id", "note", "outcome", "error", "at"}
	mock.ExpectQuery(`FROM transitions\s+WHERE booking_number = \? AND outcome = \?\s+ORDER BY at DESC\s+LIMIT \?`).
		WithArgs("SR-1001", OutcomeFailed, 5).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("t-1", "SR-1001", 31, "public", "approve", "Confirmed", "Approved", 42, nil, OutcomeFailed, `{"detail":"nope"}`, "2025-03-01T10:00:00Z"))

	got, err := journal.ListTransitions(context.Background(), TransitionFilter{BookingNumber: "SR-1001", FailedOnly: true, Limit: 5})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "approve", got[0].Action)
	assert.Equal(t, "", got[0].Note)
	assert.Equal(t, `{"detail":"nope"}`, got[0].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalRoundTripOnSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	db, err := OpenJournalAt(path)
	require.NoError(t, err)
	defer db.Close()
	journal := &Journal{DB: db}
	ctx := context.Background()

	require.NoError(t, journal.RecordTransition(ctx, Transition{BookingNumber: "SR-1", Action: "confirm", Outcome: OutcomeOK, At: "2025-03-01T10:00:00Z"}))
	require.NoError(t, journal.RecordTransition(ctx, Transition{BookingNumber: "SR-1", Action: "approve", Outcome: OutcomeFailed, Error: "boom", At: "2025-03-02T10:00:00Z"}))
	require.NoError(t, journal.RecordTransition(ctx, Transition{BookingNumber: "SR-2", Action: "reject", Note: "duplicate", Outcome: OutcomeOK, At: "2025-03-03T10:00:00Z"}))

	all, err := journal.ListTransitions(ctx, TransitionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "SR-2", all[0].BookingNumber)
	assert.Equal(t, "duplicate", all[0].Note)

	sr1, err := journal.ListTransitions(ctx, TransitionFilter{BookingNumber: "SR-1", Since: "2025-03-02"})
	require.NoError(t, err)
	require.Len(t, sr1, 1)
	assert.Equal(t, "boom", sr1[0].Error)

	// Reopening an existing journal must not fail on the column migration.
	again, err := OpenJournalAt(path)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}
