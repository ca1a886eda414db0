// Package audit keeps a local append-only journal of booking
// mutations. The journal is advisory: it backs the admin's paper
// trail and never participates in availability decisions.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one journal record.
type Entry struct {
	ID        int64     `json:"id"`
	At        time.Time `json:"at"`
	Action    string    `json:"action"` // created, updated, cancelled, completed, deleted, payment_toggled
	BookingID string    `json:"booking_id"`
	Actor     string    `json:"actor"` // "client", "admin" or "system"
	Details   string    `json:"details,omitempty"`
}

// DB wraps the sqlite journal.
type DB struct {
	*sql.DB
}

// NewDB opens the journal at path and runs migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at DATETIME NOT NULL,
		action TEXT NOT NULL,
		booking_id TEXT NOT NULL,
		actor TEXT NOT NULL,
		details TEXT
	)`)
	if err != nil {
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_booking ON audit_log(booking_id)`); err != nil {
		return nil, fmt.Errorf("index audit db: %w", err)
	}
	return &DB{db}, nil
}

// Record appends one entry.
func (db *DB) Record(ctx context.Context, action, bookingID, actor, details string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO audit_log (at, action, booking_id, actor, details) VALUES (?, ?, ?, ?, ?)`,
		time.Now(), action, bookingID, actor, details,
	)
	return err
}

// List returns the most recent entries, newest first.
func (db *DB) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, at, action, booking_id, actor, details FROM audit_log ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.At, &e.Action, &e.BookingID, &e.Actor, &details); err != nil {
			return nil, err
		}
		if details.Valid {
			e.Details = details.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
