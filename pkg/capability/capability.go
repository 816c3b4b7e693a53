// Package capability provides a static registry describing what each query
// backend supports. Components branch on capability records instead of
// type-testing provider names at call sites.
package capability

import "strings"

// Provider is the canonical identifier for a supported query backend.
type Provider string

const (
	PostgreSQL  Provider = "postgres"
	MySQL       Provider = "mysql"
	CockroachDB Provider = "cockroach"
	Trino       Provider = "trino"
	Snowflake   Provider = "snowflake"
	BigQuery    Provider = "bigquery"
)

// ExecutionModel describes how a backend executes queries.
type ExecutionModel string

const (
	// ModelSync backends return results on the same call that submits the query.
	ModelSync ExecutionModel = "sync"
	// ModelAsync backends execute asynchronously behind a synchronous driver
	// surface; cancellation propagates through the driver.
	ModelAsync ExecutionModel = "async"
	// ModelJob backends run queries as background jobs addressed by ID,
	// requiring a submit/poll/fetch protocol.
	ModelJob ExecutionModel = "job"
)

// Capabilities describes what a backend supports. Records are immutable: a
// given provider name always maps to the same record for the process lifetime.
type Capabilities struct {
	// Human-friendly vendor or product name, e.g. "PostgreSQL".
	Name string `json:"name"`

	// Canonical ID used across the codebase, e.g. "postgres".
	ID Provider `json:"id"`

	// Whether the backend handles transaction blocks. Some distributed
	// engines reject or mishandle them even for simple reads.
	SupportsTransactions bool `json:"supportsTransactions"`

	// Whether an in-flight query can be cancelled remotely.
	SupportsCancel bool `json:"supportsCancel"`

	// How the backend executes queries.
	ExecutionModel ExecutionModel `json:"executionModel"`

	// Maximum concurrent queries per pool. Zero means unbounded.
	MaxConcurrentQueries int `json:"maxConcurrentQueries,omitempty"`

	// Common aliases (driver names, env labels) that map to this backend.
	Aliases []string `json:"aliases,omitempty"`
}

// registry holds capabilities keyed by canonical provider ID. It is built once
// at init and never mutated afterward.
var registry = map[Provider]Capabilities{
	PostgreSQL: {
		Name:                 "PostgreSQL",
		ID:                   PostgreSQL,
		SupportsTransactions: true,
		SupportsCancel:       true,
		ExecutionModel:       ModelSync,
		Aliases:              []string{"postgresql", "pgsql"},
	},
	MySQL: {
		Name:                 "MySQL",
		ID:                   MySQL,
		SupportsTransactions: true,
		SupportsCancel:       true,
		ExecutionModel:       ModelSync,
		Aliases:              []string{"mariadb", "aurora-mysql"},
	},
	CockroachDB: {
		Name:                 "CockroachDB",
		ID:                   CockroachDB,
		SupportsTransactions: true,
		SupportsCancel:       true,
		ExecutionModel:       ModelSync,
		Aliases:              []string{"cockroachdb", "crdb"},
	},
	Trino: {
		Name: "Trino",
		ID:   Trino,
		// Trino rejects transaction blocks on most connectors; never wrap.
		SupportsTransactions: false,
		SupportsCancel:       true,
		ExecutionModel:       ModelSync,
		Aliases:              []string{"presto", "prestosql"},
	},
	Snowflake: {
		Name:                 "Snowflake",
		ID:                   Snowflake,
		SupportsTransactions: true,
		SupportsCancel:       true,
		ExecutionModel:       ModelAsync,
		MaxConcurrentQueries: 8,
	},
	BigQuery: {
		Name:                 "BigQuery",
		ID:                   BigQuery,
		SupportsTransactions: false,
		SupportsCancel:       true,
		ExecutionModel:       ModelJob,
		MaxConcurrentQueries: 16,
		Aliases:              []string{"bq"},
	},
}

// aliasIndex maps lowercase aliases to canonical IDs. Built once at init.
var aliasIndex = func() map[string]Provider {
	idx := make(map[string]Provider)
	for id, c := range registry {
		idx[string(id)] = id
		for _, a := range c.Aliases {
			idx[strings.ToLower(a)] = id
		}
	}
	return idx
}()

// Default is the conservative record returned for unknown providers: no
// transactions, no cancellation, synchronous execution, unbounded concurrency.
var Default = Capabilities{
	Name:           "Unknown",
	ExecutionModel: ModelSync,
}

// Lookup returns the capability record for the named provider. Matching is
// case-insensitive and alias-aware. Unknown providers get the conservative
// Default rather than an error, so lookup is total.
func Lookup(name string) Capabilities {
	if id, ok := aliasIndex[strings.ToLower(strings.TrimSpace(name))]; ok {
		return registry[id]
	}
	d := Default
	d.ID = Provider(strings.ToLower(strings.TrimSpace(name)))
	return d
}

// Canonical resolves a provider name or alias to its canonical ID. The second
// return reports whether the provider is known.
func Canonical(name string) (Provider, bool) {
	id, ok := aliasIndex[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// Known returns true when the provider name or one of its aliases is registered.
func Known(name string) bool {
	_, ok := Canonical(name)
	return ok
}
