// Package executor orchestrates query execution against provider targets:
// capability negotiation, dialect rewriting, scoped connections, deadlines,
// job polling, and row guardrails, returning one normalized result shape.
package executor

import "github.com/txn2/mcp-dal/pkg/typemap"

// Partial-result reasons. A result with IsTruncated or IsLimited set always
// carries one of these.
const (
	// ReasonProviderCap marks rows cut by the configured max-row guardrail.
	ReasonProviderCap = "PROVIDER_CAP"
	// ReasonPaginated marks rows cut at a page boundary; a continuation
	// token accompanies this reason.
	ReasonPaginated = "PAGINATED"
)

// Column describes one result column with its display type.
type Column struct {
	Name string `json:"name"`
	// Type is the canonical display type, normalized from the backend's
	// native type name.
	Type string `json:"type"`
	// NativeType preserves the backend's own type name.
	NativeType string `json:"native_type,omitempty"`
}

// Result is the normalized query result envelope returned to callers.
type Result struct {
	Rows          []map[string]any `json:"rows"`
	Columns       []Column         `json:"columns,omitempty"`
	NextPageToken string           `json:"next_page_token,omitempty"`
	PageSize      int              `json:"page_size,omitempty"`
	IsTruncated   bool             `json:"is_truncated"`
	IsLimited     bool             `json:"is_limited"`
	PartialReason string           `json:"partial_reason,omitempty"`
}

// RawColumn is a fetched column before type normalization.
type RawColumn struct {
	Name       string
	NativeType string
}

// RawRows is the provider-side fetch outcome before guardrails and
// normalization are applied.
type RawRows struct {
	Columns []RawColumn
	Rows    []map[string]any
	// More reports whether the backend indicated additional rows beyond
	// the fetched window.
	More bool
}

// CapRows bounds rows to maxRows. A maxRows of zero disables the guardrail
// and returns rows unchanged. The second return reports whether truncation
// happened.
func CapRows(rows []map[string]any, maxRows int) ([]map[string]any, bool) {
	if maxRows <= 0 || len(rows) <= maxRows {
		return rows, false
	}
	return rows[:maxRows], true
}

// normalizeColumns maps native column types to the canonical vocabulary.
func normalizeColumns(raw []RawColumn) []Column {
	if len(raw) == 0 {
		return nil
	}
	cols := make([]Column, len(raw))
	for i, c := range raw {
		cols[i] = Column{
			Name:       c.Name,
			Type:       typemap.Normalize(c.NativeType),
			NativeType: c.NativeType,
		}
	}
	return cols
}
