// Package postgres provides a PostgreSQL-backed target store with an
// immutable status history.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/txn2/mcp-dal/pkg/targetstore"
)

// Store persists target records in PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a Store on an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ targetstore.Store = (*Store)(nil)

const recordColumns = `id, name, provider, metadata, auth, guardrails, status,
	 last_test_at, last_test_error, created_at, updated_at`

// Create inserts a new record. The record always starts INACTIVE.
func (s *Store) Create(ctx context.Context, rec *targetstore.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Status = targetstore.StatusInactive

	metadata, auth, guardrails, err := marshalFields(rec)
	if err != nil {
		return err
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO query_targets (id, name, provider, metadata, auth, guardrails, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		rec.ID, rec.Name, rec.Provider, metadata, auth, guardrails, rec.Status,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting target record: %w", err)
	}
	return nil
}

// Get returns a record by id.
func (s *Store) Get(ctx context.Context, id string) (*targetstore.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM query_targets WHERE id = $1`, id)
	return scanRecord(row)
}

// GetByName returns a record by its unique name.
func (s *Store) GetByName(ctx context.Context, name string) (*targetstore.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM query_targets WHERE name = $1`, name)
	return scanRecord(row)
}

// List returns all records ordered by name.
func (s *Store) List(ctx context.Context) ([]targetstore.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM query_targets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying target records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []targetstore.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating target records: %w", err)
	}
	return records, nil
}

// RecordTest updates the record's status and last-test fields and appends a
// history entry in the same transaction. History rows are append-only.
func (s *Store) RecordTest(ctx context.Context, id string, outcome targetstore.TestOutcome) error {
	if !outcome.Status.Valid() {
		return fmt.Errorf("invalid target status %q", outcome.Status)
	}
	if outcome.At.IsZero() {
		outcome.At = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var previous targetstore.Status
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM query_targets WHERE id = $1 FOR UPDATE`, id,
	).Scan(&previous)
	if err == sql.ErrNoRows {
		return targetstore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("locking target record: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE query_targets
		 SET status = $2, last_test_at = $3, last_test_error = $4, updated_at = NOW()
		 WHERE id = $1`,
		id, outcome.Status, outcome.At, outcome.Detail,
	)
	if err != nil {
		return fmt.Errorf("updating target status: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO query_target_status_history (target_id, from_status, to_status, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, previous, outcome.Status, outcome.Detail, outcome.At,
	)
	if err != nil {
		return fmt.Errorf("appending status history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing status update: %w", err)
	}
	return nil
}

// History returns recent transitions for a target, newest first.
func (s *Store) History(ctx context.Context, id string, limit int) ([]targetstore.Transition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target_id, from_status, to_status, detail, created_at
		 FROM query_target_status_history
		 WHERE target_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		id, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying status history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transitions []targetstore.Transition
	for rows.Next() {
		var tr targetstore.Transition
		if err := rows.Scan(&tr.ID, &tr.TargetID, &tr.From, &tr.To, &tr.Detail, &tr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning transition: %w", err)
		}
		transitions = append(transitions, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transitions: %w", err)
	}
	return transitions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*targetstore.Record, error) {
	var (
		rec        targetstore.Record
		metadata   []byte
		auth       []byte
		guardrails []byte
		lastTestAt sql.NullTime
		lastErr    sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.Name, &rec.Provider, &metadata, &auth, &guardrails,
		&rec.Status, &lastTestAt, &lastErr, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, targetstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning target record: %w", err)
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("decoding target metadata: %w", err)
		}
	}
	if len(auth) > 0 {
		if err := json.Unmarshal(auth, &rec.Auth); err != nil {
			return nil, fmt.Errorf("decoding target auth: %w", err)
		}
	}
	if len(guardrails) > 0 {
		if err := json.Unmarshal(guardrails, &rec.Guardrail); err != nil {
			return nil, fmt.Errorf("decoding target guardrails: %w", err)
		}
	}
	if lastTestAt.Valid {
		rec.LastTestAt = &lastTestAt.Time
	}
	rec.LastTestError = lastErr.String
	return &rec, nil
}

func marshalFields(rec *targetstore.Record) (metadata, auth, guardrails []byte, err error) {
	if metadata, err = json.Marshal(rec.Metadata); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding target metadata: %w", err)
	}
	if auth, err = json.Marshal(rec.Auth); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding target auth: %w", err)
	}
	if guardrails, err = json.Marshal(rec.Guardrail); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding target guardrails: %w", err)
	}
	return metadata, auth, guardrails, nil
}
