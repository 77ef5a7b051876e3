// Package audit records the switch configuration changes made through the
// service and which transport applied them.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/switchconnector/internal/store"
)

// Operations that change device configuration.
const (
	OpSetMode = "set_mode"
	OpTag     = "tag"
	OpUntag   = "untag"
)

// Outcomes of a recorded operation.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// DefaultLimit caps List when no limit is given.
const DefaultLimit = 100

// Entry is one recorded change.
type Entry struct {
	ID        string    `json:"id"`
	Device    string    `json:"device"`
	Interface string    `json:"interface"`
	Operation string    `json:"operation"`
	Protocol  string    `json:"protocol,omitempty"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Filter narrows List.
type Filter struct {
	Device string
	Limit  int
}

// Trail stores entries in the shared SQLite database.
type Trail struct {
	db  *sql.DB
	now func() time.Time
}

func migrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "create audit_entries",
			Up: func(tx *sql.Tx) error {
				if _, err := tx.Exec(`CREATE TABLE audit_entries (
					id         TEXT PRIMARY KEY,
					device     TEXT NOT NULL,
					interface  TEXT NOT NULL,
					operation  TEXT NOT NULL,
					protocol   TEXT NOT NULL DEFAULT '',
					outcome    TEXT NOT NULL,
					detail     TEXT NOT NULL DEFAULT '',
					timestamp  INTEGER NOT NULL
				)`); err != nil {
					return err
				}
				_, err := tx.Exec(`CREATE INDEX idx_audit_device_ts ON audit_entries(device, timestamp)`)
				return err
			},
		},
	}
}

// New migrates db and returns a Trail. A nil now uses time.Now.
func New(ctx context.Context, db *store.SQLiteStore, now func() time.Time) (*Trail, error) {
	if err := db.Migrate(ctx, "audit", migrations()); err != nil {
		return nil, fmt.Errorf("migrate audit: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &Trail{db: db.DB(), now: now}, nil
}

// Record persists e, filling in ID and Timestamp when unset.
func (t *Trail) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = t.now().UTC()
	}
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, device, interface, operation, protocol, outcome, detail, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Device, e.Interface, e.Operation, e.Protocol, e.Outcome, e.Detail, e.Timestamp.UnixNano(),
	)
	if err != nil {
		return e, fmt.Errorf("insert audit entry: %w", err)
	}
	return e, nil
}

// List returns entries newest first.
func (t *Trail) List(ctx context.Context, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT id, device, interface, operation, protocol, outcome, detail, timestamp FROM audit_entries`
	var args []any
	if f.Device != "" {
		query += ` WHERE device = ?`
		args = append(args, f.Device)
	}
	query += ` ORDER BY timestamp DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e  Entry
			ts int64
		)
		if err := rows.Scan(&e.ID, &e.Device, &e.Interface, &e.Operation, &e.Protocol, &e.Outcome, &e.Detail, &ts); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
