// Package pool owns one database/sql pool per configured provider target and
// exposes scoped connection acquisition. A handle is owned exclusively by the
// call that acquired it and is released on every exit path.
package pool

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/txn2/mcp-dal/pkg/capability"
)

// Handle is an acquired, request-scoped backend connection. Operations on a
// handle are strictly sequential; it must never be shared across goroutines
// or held beyond the scope that acquired it.
type Handle struct {
	conn *sql.Conn
	tx   *sql.Tx

	// Tenant identifies the logical tenant the handle was acquired for.
	// It is carried explicitly, never read from ambient state.
	Tenant string

	// ReadOnly records the declared intent for this acquisition.
	ReadOnly bool
}

// QueryContext runs a query on the handle, inside the scoped transaction when
// one is open.
func (h *Handle) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if h.tx != nil {
		return h.tx.QueryContext(ctx, query, args...)
	}
	return h.conn.QueryContext(ctx, query, args...)
}

// ExecContext runs a statement on the handle, inside the scoped transaction
// when one is open.
func (h *Handle) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if h.tx != nil {
		return h.tx.ExecContext(ctx, query, args...)
	}
	return h.conn.ExecContext(ctx, query, args...)
}

// InTransaction reports whether the handle is wrapped in a scoped transaction.
func (h *Handle) InTransaction() bool {
	return h.tx != nil
}

// Pool wraps a database/sql pool for one provider target. The same Pool
// instance safely serves concurrent requests for different tenants.
type Pool struct {
	provider string
	caps     capability.Capabilities
	db       *sql.DB
	sem      chan struct{}
	logger   *slog.Logger
}

// New creates a Pool around an opened database handle. The provider name
// selects the capability record that gates transaction wrapping and bounds
// concurrency.
func New(provider string, db *sql.DB, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	caps := capability.Lookup(provider)

	var sem chan struct{}
	if caps.MaxConcurrentQueries > 0 {
		sem = make(chan struct{}, caps.MaxConcurrentQueries)
	}

	return &Pool{
		provider: provider,
		caps:     caps,
		db:       db,
		sem:      sem,
		logger:   logger.With("component", "pool", "provider", string(caps.ID)),
	}
}

// Provider returns the canonical provider name the pool serves.
func (p *Pool) Provider() string {
	return string(p.caps.ID)
}

// Capabilities returns the capability record the pool was built with.
func (p *Pool) Capabilities() capability.Capabilities {
	return p.caps
}

// With acquires a scoped connection for the tenant, runs fn, and releases the
// connection on every exit path. When the provider supports transactions and
// readOnly is true the body runs inside a read-only transaction; providers
// without transaction support never get a transaction wrapper, even for
// reads, because some distributed engines reject transaction blocks entirely.
func (p *Pool) With(ctx context.Context, tenantID string, readOnly bool, fn func(context.Context, *Handle) error) error {
	if err := p.acquireSlot(ctx); err != nil {
		return err
	}
	defer p.releaseSlot()

	conn, err := p.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			p.logger.Warn("releasing connection", "tenant", tenantID, "error", cerr)
		}
	}()

	h := &Handle{conn: conn, Tenant: tenantID, ReadOnly: readOnly}

	if readOnly && p.caps.SupportsTransactions {
		return p.withReadOnlyTx(ctx, h, fn)
	}
	return fn(ctx, h)
}

func (p *Pool) withReadOnlyTx(ctx context.Context, h *Handle, fn func(context.Context, *Handle) error) error {
	tx, err := h.conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("beginning read-only transaction: %w", err)
	}
	h.tx = tx

	if err := fn(ctx, h); err != nil {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			p.logger.Warn("rolling back read-only transaction", "tenant", h.Tenant, "error", rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing read-only transaction: %w", err)
	}
	return nil
}

// Ping verifies backend connectivity.
func (p *Pool) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close shuts the underlying pool down.
func (p *Pool) Close() error {
	return p.db.Close()
}

// acquireSlot blocks until a concurrency slot frees up, honoring ctx. Pools
// with unbounded concurrency return immediately.
func (p *Pool) acquireSlot(ctx context.Context) error {
	if p.sem == nil {
		return nil
	}
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for query slot: %w", ctx.Err())
	}
}

func (p *Pool) releaseSlot() {
	if p.sem != nil {
		<-p.sem
	}
}
