package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/txn2/mcp-dal/pkg/capability"
	"github.com/txn2/mcp-dal/pkg/dalerror"
	"github.com/txn2/mcp-dal/pkg/dialect"
	"github.com/txn2/mcp-dal/pkg/pagination"
	"github.com/txn2/mcp-dal/pkg/pool"
)

// Guardrails are the configured limits enforced defensively regardless of
// backend-reported limits.
type Guardrails struct {
	// MaxRows caps rows per result. Zero disables the cap.
	MaxRows int `yaml:"max_rows" json:"max_rows"`
	// TimeoutSeconds bounds a single execution. Zero disables the deadline.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
	// DefaultPageSize applies when a request has no limit.
	DefaultPageSize int `yaml:"default_page_size" json:"default_page_size"`
	// MaxPageSize caps any requested page size.
	MaxPageSize int `yaml:"max_page_size" json:"max_page_size"`
	// CursorMaxAgeSeconds bounds reported continuation-token age.
	CursorMaxAgeSeconds int64 `yaml:"cursor_max_age_seconds" json:"cursor_max_age_seconds"`
}

// Target binds one named backend: its provider identity, capability record,
// dialect adapter, connection pool or job runner, and guardrails.
type Target struct {
	Name       string
	Provider   string
	Guardrails Guardrails

	caps    capability.Capabilities
	dialect *dialect.Adapter
	pool    *pool.Pool
	jobs    JobRunner
}

// NewTarget builds a Target. Sync- and async-model providers need a pool;
// job-model providers need a JobRunner.
func NewTarget(name, provider string, p *pool.Pool, jobs JobRunner, g Guardrails) (*Target, error) {
	caps := capability.Lookup(provider)
	switch caps.ExecutionModel {
	case capability.ModelJob:
		if jobs == nil {
			return nil, fmt.Errorf("target %s: provider %s requires a job runner", name, provider)
		}
	default:
		if p == nil {
			return nil, fmt.Errorf("target %s: provider %s requires a connection pool", name, provider)
		}
	}
	return &Target{
		Name:       name,
		Provider:   string(caps.ID),
		Guardrails: g,
		caps:       caps,
		dialect:    dialect.For(provider),
		pool:       p,
		jobs:       jobs,
	}, nil
}

// Capabilities returns the target's capability record.
func (t *Target) Capabilities() capability.Capabilities {
	return t.caps
}

// Dialect returns the target's dialect adapter.
func (t *Target) Dialect() *dialect.Adapter {
	return t.dialect
}

// Pool returns the target's connection pool; nil for job-model targets.
func (t *Target) Pool() *pool.Pool {
	return t.pool
}

// Close releases target resources.
func (t *Target) Close() error {
	if t.pool != nil {
		return t.pool.Close()
	}
	return nil
}

// Request describes one query execution.
type Request struct {
	SQL      string
	Params   []any
	TenantID string
	// ReadOnly declares intent; transactional providers wrap read-only work
	// in a read-only transaction.
	ReadOnly bool
	// MaxRows overrides the target's row guardrail. Zero keeps the target's
	// configured cap; a negative value disables capping for this request.
	MaxRows int
	// Limit is the requested page size, bounded by guardrails.
	Limit int
	// PageToken continues a prior paginated fetch.
	PageToken string
}

// Executor runs queries against targets. It is stateless and safe for
// concurrent use.
type Executor struct {
	logger *slog.Logger
}

// New creates an Executor.
func New(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{logger: logger.With("component", "executor")}
}

// Query executes req against the target and returns the normalized result.
// Failures come back as classified *dalerror.Error values; the DAL never
// retries internally beyond the single cancellation-after-timeout sequence.
func (e *Executor) Query(ctx context.Context, t *Target, req Request) (*Result, error) {
	reqID := uuid.NewString()
	logger := e.logger.With("request_id", reqID, "target", t.Name, "provider", t.Provider, "tenant", req.TenantID)

	if strings.TrimSpace(req.SQL) == "" {
		return nil, dalerror.NewError(dalerror.Info{
			Category: dalerror.CategoryValidation,
			Provider: t.Provider,
			Message:  "empty query",
		}, errors.New("empty query"))
	}

	if violations := t.dialect.Validate(req.SQL); len(violations) > 0 {
		return nil, dalerror.NewError(dalerror.Info{
			Category: dalerror.CategoryValidation,
			Provider: t.Provider,
			Message:  dalerror.Sanitize(strings.Join(violations, "; ")),
		}, errors.New("unsupported SQL constructs"))
	}

	sqlText := t.dialect.RewriteQuoting(req.SQL)

	pager := pagination.NewPager(t.Guardrails.DefaultPageSize, t.Guardrails.MaxPageSize, t.Guardrails.CursorMaxAgeSeconds)
	page, err := pager.Resolve(req.Limit, req.PageToken)
	if err != nil {
		return nil, dalerror.NewError(dalerror.Info{
			Category: dalerror.CategoryValidation,
			Provider: t.Provider,
			Message:  dalerror.Sanitize(err.Error()),
		}, err)
	}
	if req.PageToken != "" {
		logger.Info("continuation token resolved",
			"offset", page.Offset,
			"page_size", page.Size,
			"token_age_seconds", page.TokenAge,
		)
	}

	timeout := time.Duration(t.Guardrails.TimeoutSeconds) * time.Second

	start := time.Now()
	var raw *RawRows
	if t.caps.ExecutionModel == capability.ModelJob {
		raw, err = e.runJobQuery(ctx, t, sqlText, req.Params, page, timeout, logger)
	} else {
		raw, err = e.runSyncQuery(ctx, t, sqlText, req, page, timeout, logger)
	}
	if err != nil {
		if errors.Is(err, ErrQueryTimeout) {
			logger.Warn("query timed out", "timeout_seconds", t.Guardrails.TimeoutSeconds)
			return nil, dalerror.NewError(dalerror.Info{
				Category:    dalerror.CategoryTransient,
				Provider:    t.Provider,
				IsRetryable: true,
				Message:     fmt.Sprintf("query timed out after %ds", t.Guardrails.TimeoutSeconds),
			}, err)
		}
		logger.Warn("query failed", "error", err)
		return nil, dalerror.WrapErr(t.Provider, err)
	}

	result := e.shape(t, req, pager, page, raw)
	logger.Info("query complete",
		"rows", len(result.Rows),
		"truncated", result.IsTruncated,
		"limited", result.IsLimited,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// runSyncQuery executes through the connection pool under the timeout
// controller. Cancellation rides the context for providers that support it;
// the hook itself is a no-op because drivers propagate context cancellation.
func (e *Executor) runSyncQuery(ctx context.Context, t *Target, sqlText string, req Request, page pagination.Page, timeout time.Duration, logger *slog.Logger) (*RawRows, error) {
	var raw *RawRows
	err := t.pool.With(ctx, req.TenantID, req.ReadOnly, func(connCtx context.Context, h *pool.Handle) error {
		var ferr error
		raw, ferr = RunWithTimeout(connCtx, timeout, func(opCtx context.Context) (*RawRows, error) {
			return fetchRows(opCtx, h, sqlText, req.Params, page)
		}, NopCancel, logger)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// runJobQuery drives the submit/poll/fetch protocol under the timeout
// controller. On timeout the hook cancels the submitted job exactly once;
// when the provider cannot cancel, the job is abandoned locally.
func (e *Executor) runJobQuery(ctx context.Context, t *Target, sqlText string, params []any, page pagination.Page, timeout time.Duration, logger *slog.Logger) (*RawRows, error) {
	var mu sync.Mutex
	var jobID string
	onSubmit := func(id string) {
		mu.Lock()
		jobID = id
		mu.Unlock()
	}

	cancelHook := NopCancel
	if t.caps.SupportsCancel {
		cancelHook = func(hookCtx context.Context) error {
			mu.Lock()
			id := jobID
			mu.Unlock()
			if id == "" {
				return nil
			}
			return t.jobs.Cancel(hookCtx, id)
		}
	}

	// Fetch one row past the window so More is knowable.
	fetchMax := int(page.Offset) + page.Size + 1
	return RunWithTimeout(ctx, timeout, func(opCtx context.Context) (*RawRows, error) {
		raw, err := runJob(opCtx, t.jobs, sqlText, params, fetchMax, onSubmit)
		if err != nil {
			return nil, err
		}
		return windowRows(raw, page), nil
	}, cancelHook, logger)
}

// rowQuerier is the slice of pool.Handle the fetch path needs.
type rowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// fetchRows runs the query and scans the page window into row maps, reading
// one extra row to learn whether more exist.
func fetchRows(ctx context.Context, q rowQuerier, sqlText string, params []any, page pagination.Page) (*RawRows, error) {
	rows, err := q.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading column names: %w", err)
	}

	raw := &RawRows{Columns: make([]RawColumn, len(cols))}
	for i, name := range cols {
		raw.Columns[i] = RawColumn{Name: name}
	}
	if types, terr := rows.ColumnTypes(); terr == nil {
		for i, ct := range types {
			if i < len(raw.Columns) {
				raw.Columns[i].NativeType = ct.DatabaseTypeName()
			}
		}
	}

	var skipped int64
	for rows.Next() {
		if skipped < page.Offset {
			skipped++
			continue
		}
		if len(raw.Rows) > page.Size {
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rowMap := make(map[string]any, len(cols))
		for i, name := range cols {
			rowMap[name] = normalizeValue(values[i])
		}
		raw.Rows = append(raw.Rows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(raw.Rows) > page.Size {
		raw.Rows = raw.Rows[:page.Size]
		raw.More = true
	}
	return raw, nil
}

// windowRows applies the page window to rows a job runner fetched in bulk.
func windowRows(raw *RawRows, page pagination.Page) *RawRows {
	out := &RawRows{Columns: raw.Columns, More: raw.More}
	rows := raw.Rows
	if page.Offset >= int64(len(rows)) {
		return out
	}
	rows = rows[page.Offset:]
	if len(rows) > page.Size {
		rows = rows[:page.Size]
		out.More = true
	}
	out.Rows = rows
	return out
}

// shape applies the row guardrail and pagination to a raw fetch.
func (e *Executor) shape(t *Target, req Request, pager *pagination.Pager, page pagination.Page, raw *RawRows) *Result {
	result := &Result{
		Rows:     raw.Rows,
		Columns:  normalizeColumns(raw.Columns),
		PageSize: page.Size,
	}
	if result.Rows == nil {
		result.Rows = []map[string]any{}
	}

	maxRows := t.Guardrails.MaxRows
	if req.MaxRows > 0 {
		maxRows = req.MaxRows
	} else if req.MaxRows < 0 {
		maxRows = 0
	}

	capped, limited := CapRows(result.Rows, maxRows)
	if limited {
		result.Rows = capped
		result.IsLimited = true
		result.PartialReason = ReasonProviderCap
		return result
	}

	if raw.More {
		result.IsTruncated = true
		result.PartialReason = ReasonPaginated
		result.NextPageToken = pager.Next(page, true)
	}
	return result
}

// normalizeValue converts driver-native values into JSON-friendly ones.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
