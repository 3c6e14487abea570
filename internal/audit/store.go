// Package audit is the durable record of sessions and the per-command
// events they generate: an AttackSession row per connection, and an
// ordered AttackCommand row per dispatched command line. Every write is
// its own begin/commit/rollback transaction — the server must stay
// responsive and survive a crash mid-session, so nothing is batched.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// AttackCommand is one recorded command line within a session.
type AttackCommand struct {
	ID        int64
	Time      time.Time
	Command   string
	Host      string
	Output    string
	SessionID uuid.UUID
}

// Store is a handle to the sqlite-backed audit database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit store %s: %w", path, err)
	}
	// Shells on different connections run in their own goroutines and may
	// write at the same time; a single connection serializes those writes
	// and avoids sqlite's writer-lock contention entirely.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attacksession (
			id          TEXT PRIMARY KEY,
			start_time  DATETIME NOT NULL,
			source_ip   TEXT NOT NULL,
			source_port INTEGER NOT NULL,
			end_time    DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS attackcommand (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			time       DATETIME NOT NULL,
			command    TEXT NOT NULL,
			host       TEXT NOT NULL,
			output     TEXT,
			session_id TEXT NOT NULL REFERENCES attacksession(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attackcommand_session_time ON attackcommand(session_id, time, id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate audit schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database handle.
func (st *Store) Close() error { return st.db.Close() }

// withTx runs fn inside its own transaction: begin, body, commit on
// success, rollback on any error.
func (st *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CreateSession inserts the AttackSession row for a newly accepted
// connection.
func (st *Store) CreateSession(ctx context.Context, id uuid.UUID, start time.Time, sourceIP string, sourcePort int) error {
	return st.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO attacksession (id, start_time, source_ip, source_port) VALUES (?, ?, ?, ?)`,
			id.String(), start, sourceIP, sourcePort)
		return err
	})
}

// CloseSession stamps end_time on an existing AttackSession row.
func (st *Store) CloseSession(ctx context.Context, id uuid.UUID, end time.Time) error {
	return st.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE attacksession SET end_time = ? WHERE id = ?`, end, id.String())
		return err
	})
}

// RecordCommand inserts one AttackCommand row, timestamped now.
func (st *Store) RecordCommand(ctx context.Context, sessionID uuid.UUID, command, host, output string) error {
	return st.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO attackcommand (time, command, host, output, session_id) VALUES (?, ?, ?, ?, ?)`,
			time.Now(), command, host, output, sessionID.String())
		return err
	})
}

// Commands returns every AttackCommand recorded for sessionID, ordered
// by time (then insertion order for same-timestamp rows).
func (st *Store) Commands(ctx context.Context, sessionID uuid.UUID) ([]AttackCommand, error) {
	rows, err := st.db.QueryContext(ctx,
		`SELECT id, time, command, host, output FROM attackcommand WHERE session_id = ? ORDER BY time ASC, id ASC`,
		sessionID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttackCommand
	for rows.Next() {
		var c AttackCommand
		if err := rows.Scan(&c.ID, &c.Time, &c.Command, &c.Host, &c.Output); err != nil {
			return nil, err
		}
		c.SessionID = sessionID
		out = append(out, c)
	}
	return out, rows.Err()
}
