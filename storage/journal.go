package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Transition is one dispatched status change, successful or not.
type Transition struct {
	ID            string `json:"id"`
	BookingNumber string `json:"booking_number"`
	BookingID     int64  `json:"booking_id"`
	Origin        string `json:"origin"`
	Action        string `json:"action"`
	FromStatus    string `json:"from_status"`
	ToStatus      string `json:"to_status"`
	OperatorID    int64  `json:"operator_id"`
	Note          string `json:"note,omitempty"`
	Outcome       string `json:"outcome"`
	Error         string `json:"error,omitempty"`
	At            string `json:"at"`
}

type TransitionFilter struct {
	BookingNumber string
	Action        string
	Since         string
	FailedOnly    bool
	Limit         int
}

// Journal is the local transition history kept next to the session.
type Journal struct {
	DB *sql.DB
}

func OpenJournalDB() (*sql.DB, error) {
	if _, err := ensureConfigDir(); err != nil {
		return nil, err
	}
	path, err := JournalPath()
	if err != nil {
		return nil, err
	}
	return OpenJournalAt(path)
}

func OpenJournalAt(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := ensureJournalSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func ensureJournalSchema(db *sql.DB) error {
	createTable := `
CREATE TABLE IF NOT EXISTS transitions (
  id TEXT PRIMARY KEY,
  booking_number TEXT NOT NULL,
  booking_id INTEGER,
  origin TEXT,
  action TEXT,
  from_status TEXT,
  to_status TEXT,
  operator_id INTEGER,
  outcome TEXT,
  at TEXT
);`

	if _, err := db.Exec(createTable); err != nil {
		return fmt.Errorf("create transitions table: %w", err)
	}

	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_transitions_booking ON transitions(booking_number, at);"); err != nil {
		return fmt.Errorf("create transitions index: %w", err)
	}

	return ensureJournalColumns(db, []string{"note", "error"})
}

// ensureJournalColumns adds columns introduced after the first release.
func ensureJournalColumns(db *sql.DB, columns []string) error {
	rows, err := db.Query("PRAGMA table_info(transitions);")
	if err != nil {
		return fmt.Errorf("inspect transitions table: %w", err)
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var cid int
		var name string
		var ctype string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("inspect transitions columns: %w", err)
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect transitions columns: %w", err)
	}

	for _, column := range columns {
		if _, ok := existing[column]; ok {
			continue
		}
		if _, err := db.Exec(fmt.Sprintf("ALTER TABLE transitions ADD COLUMN %s TEXT;", column)); err != nil {
			return fmt.Errorf("add transitions column %s: %w", column, err)
		}
	}
	return nil
}

func (j *Journal) RecordTransition(ctx context.Context, t Transition) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	query := `
INSERT INTO transitions (
  id, booking_number, booking_id, origin, action, from_status, to_status, operator_id, note, outcome, error, at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	_, err := j.DB.ExecContext(
		ctx,
		query,
		t.ID,
		t.BookingNumber,
		t.BookingID,
		t.Origin,
		t.Action,
		t.FromStatus,
		t.ToStatus,
		t.OperatorID,
		t.Note,
		t.Outcome,
		t.Error,
		t.At,
	)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

func (j *Journal) ListTransitions(ctx context.Context, filter TransitionFilter) ([]Transition, error) {
	base := `
SELECT id, booking_number, booking_id, origin, action, from_status, to_status, operator_id, note, outcome, error, at
FROM transitions`

	var conds []string
	var args []any
	if filter.BookingNumber != "" {
		conds = append(conds, "booking_number = ?")
		args = append(args, filter.BookingNumber)
	}
	if filter.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.Since != "" {
		conds = append(conds, "at >= ?")
		args = append(args, filter.Since)
	}
	if filter.FailedOnly {
		conds = append(conds, "outcome = ?")
		args = append(args, OutcomeFailed)
	}

	query := base
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	query += "\nORDER BY at DESC"
	if filter.Limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := j.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		var note, errText sql.NullString
		if err := rows.Scan(
			&t.ID,
			&t.BookingNumber,
			&t.BookingID,
			&t.Origin,
			&t.Action,
			&t.FromStatus,
			&t.ToStatus,
			&t.OperatorID,
			&note,
			&t.Outcome,
			&errText,
			&t.At,
		); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.Note = note.String
		t.Error = errText.String
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	return out, nil
}
