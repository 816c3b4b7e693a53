// Package targetstore persists query-target configuration records and their
// status lifecycle. A record is created INACTIVE, moves to PENDING when its
// first connectivity test starts, and settles ACTIVE on success or UNHEALTHY
// on a classified non-transient failure. Every transition is appended to an
// immutable history, never rewritten.
package targetstore

import (
	"context"
	"errors"
	"time"

	"github.com/txn2/mcp-dal/pkg/executor"
)

// ErrNotFound is returned when a target record does not exist.
var ErrNotFound = errors.New("target record not found")

// Status is a target lifecycle state.
type Status string

const (
	StatusInactive  Status = "INACTIVE"
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusUnhealthy Status = "UNHEALTHY"
)

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusInactive, StatusPending, StatusActive, StatusUnhealthy:
		return true
	}
	return false
}

// Record is a persisted query-target configuration.
type Record struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Provider  string              `json:"provider"`
	Metadata  map[string]string   `json:"metadata,omitempty"`
	Auth      map[string]string   `json:"auth,omitempty"`
	Guardrail executor.Guardrails `json:"guardrails"`
	Status    Status              `json:"status"`

	// Last connectivity test outcome. LastTestError is empty on success.
	LastTestAt    *time.Time `json:"last_test_at,omitempty"`
	LastTestError string     `json:"last_test_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transition is one immutable status-history entry.
type Transition struct {
	ID        int       `json:"id"`
	TargetID  string    `json:"target_id"`
	From      Status    `json:"from_status"`
	To        Status    `json:"to_status"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TestOutcome captures the result of one connectivity test for persistence.
type TestOutcome struct {
	Status Status
	Detail string
	At     time.Time
}

// Store persists target records and status history.
type Store interface {
	// Create inserts a new record. The record starts INACTIVE regardless of
	// the status field on the argument.
	Create(ctx context.Context, rec *Record) error
	// Get returns a record by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)
	// GetByName returns a record by unique name, or ErrNotFound.
	GetByName(ctx context.Context, name string) (*Record, error)
	// List returns all records ordered by name.
	List(ctx context.Context) ([]Record, error)
	// RecordTest persists a connectivity-test outcome: it updates the
	// record's status and last-test fields and appends a history entry in
	// the same transaction.
	RecordTest(ctx context.Context, id string, outcome TestOutcome) error
	// History returns recent transitions for a target, newest first.
	History(ctx context.Context, id string, limit int) ([]Transition, error)
}
