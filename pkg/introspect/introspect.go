// Package introspect implements read-only schema introspection: table
// listings, table definitions, and sample rows. All operations run through
// the same executor and error-classification path as regular queries.
package introspect

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/txn2/mcp-dal/pkg/capability"
	"github.com/txn2/mcp-dal/pkg/dialect"
	"github.com/txn2/mcp-dal/pkg/executor"
	"github.com/txn2/mcp-dal/pkg/typemap"
)

// ColumnDef describes one column of a table definition.
type ColumnDef struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NativeType string `json:"native_type"`
	Nullable   bool   `json:"nullable"`
}

// TableDef is the schema of a single table.
type TableDef struct {
	Namespace dialect.Namespace `json:"namespace"`
	Columns   []ColumnDef       `json:"columns"`
}

// Inspector runs introspection queries against targets.
type Inspector struct {
	exec *executor.Executor
}

// New creates an Inspector on top of an executor.
func New(exec *executor.Executor) *Inspector {
	return &Inspector{exec: exec}
}

// ListTableNames returns table names in the namespace's schema level,
// bounded by the target's row guardrails.
func (i *Inspector) ListTableNames(ctx context.Context, t *executor.Target, tenantID string, ns dialect.Namespace) ([]string, error) {
	if ns.Level2 == "" {
		return nil, fmt.Errorf("schema is required")
	}

	builder := sq.Select("table_name").
		From(infoSchemaTable(t, ns, "tables")).
		Where(sq.Eq{"table_schema": ns.Level2}).
		OrderBy("table_name").
		PlaceholderFormat(placeholder(t))

	sqlText, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building table listing: %w", err)
	}

	res, err := i.exec.Query(ctx, t, executor.Request{
		SQL:      sqlText,
		Params:   args,
		TenantID: tenantID,
		ReadOnly: true,
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if name, ok := row["table_name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// GetTableDef returns the column definitions of a table, with types
// normalized to the canonical display vocabulary.
func (i *Inspector) GetTableDef(ctx context.Context, t *executor.Target, tenantID string, ns dialect.Namespace) (*TableDef, error) {
	if ns.Level2 == "" || ns.Table == "" {
		return nil, fmt.Errorf("schema and table are required")
	}

	builder := sq.Select("column_name", "data_type", "is_nullable").
		From(infoSchemaTable(t, ns, "columns")).
		Where(sq.Eq{"table_schema": ns.Level2, "table_name": ns.Table}).
		OrderBy("ordinal_position").
		PlaceholderFormat(placeholder(t))

	sqlText, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building column listing: %w", err)
	}

	res, err := i.exec.Query(ctx, t, executor.Request{
		SQL:      sqlText,
		Params:   args,
		TenantID: tenantID,
		ReadOnly: true,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, fmt.Errorf("table %s not found", ns.String())
	}

	def := &TableDef{Namespace: ns, Columns: make([]ColumnDef, 0, len(res.Rows))}
	for _, row := range res.Rows {
		name, _ := row["column_name"].(string)
		native, _ := row["data_type"].(string)
		nullable, _ := row["is_nullable"].(string)
		def.Columns = append(def.Columns, ColumnDef{
			Name:       name,
			Type:       typemap.Normalize(native),
			NativeType: native,
			Nullable:   strings.EqualFold(nullable, "yes"),
		})
	}
	return def, nil
}

// GetSampleRows returns up to limit rows from the table, quoting the
// namespace for the target's dialect.
func (i *Inspector) GetSampleRows(ctx context.Context, t *executor.Target, tenantID string, ns dialect.Namespace, limit int) (*executor.Result, error) {
	if ns.Table == "" {
		return nil, fmt.Errorf("table is required")
	}
	if limit <= 0 {
		limit = 10
	}

	sqlText := fmt.Sprintf("SELECT * FROM %s LIMIT %d", t.Dialect().FormatNamespace(ns), limit)
	return i.exec.Query(ctx, t, executor.Request{
		SQL:      sqlText,
		TenantID: tenantID,
		ReadOnly: true,
		Limit:    limit,
	})
}

// infoSchemaTable resolves the information_schema path for the target. Trino
// scopes information_schema under the catalog; BigQuery exposes dataset-level
// INFORMATION_SCHEMA views.
func infoSchemaTable(t *executor.Target, ns dialect.Namespace, view string) string {
	switch t.Capabilities().ID {
	case capability.Trino:
		if ns.Level1 != "" {
			return ns.Level1 + ".information_schema." + view
		}
		return "information_schema." + view
	case capability.BigQuery:
		return ns.Level2 + ".INFORMATION_SCHEMA." + strings.ToUpper(view)
	default:
		return "information_schema." + view
	}
}

// placeholder selects the bind-parameter style for the target's driver.
func placeholder(t *executor.Target) sq.PlaceholderFormat {
	switch t.Capabilities().ID {
	case capability.PostgreSQL, capability.CockroachDB:
		return sq.Dollar
	default:
		return sq.Question
	}
}
