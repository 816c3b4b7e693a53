// Package dialect captures per-provider SQL surface rules: identifier quoting,
// unsupported-construct validation, and catalog namespace formatting. All
// operations are pure text transforms independent of any live connection.
package dialect

import (
	"strings"

	"github.com/txn2/mcp-dal/pkg/capability"
)

// Adapter describes the SQL surface of one backend.
type Adapter struct {
	// Provider is the canonical backend ID this adapter serves.
	Provider capability.Provider

	// IdentQuote is the identifier quote rune the backend expects.
	// ANSI double quotes in incoming SQL are rewritten to this rune.
	IdentQuote rune

	// rules are the unsupported-construct checks for this backend.
	rules []constructRule
}

var adapters = map[capability.Provider]*Adapter{
	capability.PostgreSQL:  {Provider: capability.PostgreSQL, IdentQuote: '"'},
	capability.CockroachDB: {Provider: capability.CockroachDB, IdentQuote: '"'},
	capability.MySQL: {
		Provider:   capability.MySQL,
		IdentQuote: '`',
		rules:      mysqlRules,
	},
	capability.Trino: {
		Provider:   capability.Trino,
		IdentQuote: '"',
		rules:      trinoRules,
	},
	capability.Snowflake: {Provider: capability.Snowflake, IdentQuote: '"'},
	capability.BigQuery: {
		Provider:   capability.BigQuery,
		IdentQuote: '`',
		rules:      bigqueryRules,
	},
}

// ansiAdapter serves unknown providers: ANSI quoting, no construct rules.
var ansiAdapter = &Adapter{IdentQuote: '"'}

// For returns the adapter for the named provider, falling back to a plain
// ANSI adapter for unknown names. Matching is case- and alias-insensitive.
func For(provider string) *Adapter {
	if id, ok := capability.Canonical(provider); ok {
		if a, ok := adapters[id]; ok {
			return a
		}
	}
	return ansiAdapter
}

// RewriteQuoting translates ANSI double-quoted identifiers to the adapter's
// quote rune. A single left-to-right scan tracks single-quote string state:
// double quotes inside string literals pass through untouched, and a doubled
// single quote ('') is an escape that does not toggle string state.
func (a *Adapter) RewriteQuoting(sql string) string {
	if a.IdentQuote == '"' {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql))

	inString := false
	runes := []rune(sql)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\'':
			if inString && i+1 < len(runes) && runes[i+1] == '\'' {
				// Escaped quote inside a string literal.
				b.WriteRune('\'')
				b.WriteRune('\'')
				i++
				continue
			}
			inString = !inString
			b.WriteRune(r)
		case r == '"' && !inString:
			b.WriteRune(a.IdentQuote)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatNamespace renders a catalog namespace with this adapter's identifier
// quoting.
func (a *Adapter) FormatNamespace(ns Namespace) string {
	return ns.format(a.IdentQuote)
}

// QuoteIdent quotes a single identifier for this adapter's backend, doubling
// any embedded quote runes.
func (a *Adapter) QuoteIdent(ident string) string {
	q := string(a.IdentQuote)
	return q + strings.ReplaceAll(ident, q, q+q) + q
}
