// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package audit records every state-changing vCenter operation in a local
// SQLite database, so a maintenance window leaves a queryable trail of who
// powered what, when, and whether it worked.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one audited operation.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	// Tool is the MCP tool or CLI command that performed the operation.
	Tool string `json:"tool"`

	// Target is the VM or other object acted on.
	Target string `json:"target,omitempty"`

	// Action is what was done: power_on, power_off, reset, clone, deploy.
	Action string `json:"action"`

	// Outcome is "ok", "error", or "dry_run".
	Outcome string `json:"outcome"`

	// Detail carries the error message or extra context.
	Detail string `json:"detail,omitempty"`
}

// Outcome values.
const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	OutcomeDryRun = "dry_run"
)

// Store is the SQLite-backed audit log.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the audit database. The special path
// ":memory:" creates a throwaway in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("audit database path is required")
	}

	// WAL mode so reads from the audit tool don't block writes.
	connStr := path
	if path != ":memory:" {
		connStr += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run audit migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			tool TEXT NOT NULL,
			target TEXT,
			action TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_target ON audit_log(target)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends an entry. The ID and timestamp are filled in when unset.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, timestamp, tool, target, action, outcome, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UnixMilli(), e.Tool, e.Target, e.Action, e.Outcome, e.Detail,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to record audit entry: %w", err)
	}
	return e, nil
}

// ListOptions narrows a List call.
type ListOptions struct {
	// Target filters to one VM or object name.
	Target string

	// Since excludes entries older than the given time.
	Since time.Time

	// Limit caps the number of rows returned, newest first. Default: 100.
	Limit int
}

// List returns audit entries, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, timestamp, tool, target, action, outcome, detail
		FROM audit_log WHERE 1=1`
	var args []interface{}
	if opts.Target != "" {
		query += " AND target = ?"
		args = append(args, opts.Target)
	}
	if !opts.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, opts.Since.UnixMilli())
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		var target, detail sql.NullString
		if err := rows.Scan(&e.ID, &ts, &e.Tool, &target, &e.Action, &e.Outcome, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts).UTC()
		e.Target = target.String
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
