package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup_KnownProviders(t *testing.T) {
	tests := []struct {
		name       string
		provider   string
		wantID     Provider
		wantTx     bool
		wantCancel bool
		wantModel  ExecutionModel
	}{
		{"postgres", "postgres", PostgreSQL, true, true, ModelSync},
		{"postgres alias", "postgresql", PostgreSQL, true, true, ModelSync},
		{"mysql", "mysql", MySQL, true, true, ModelSync},
		{"cockroach", "cockroach", CockroachDB, true, true, ModelSync},
		{"trino no transactions", "trino", Trino, false, true, ModelSync},
		{"presto alias", "presto", Trino, false, true, ModelSync},
		{"snowflake", "snowflake", Snowflake, true, true, ModelAsync},
		{"bigquery job model", "bigquery", BigQuery, false, true, ModelJob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := Lookup(tt.provider)
			assert.Equal(t, tt.wantID, caps.ID)
			assert.Equal(t, tt.wantTx, caps.SupportsTransactions)
			assert.Equal(t, tt.wantCancel, caps.SupportsCancel)
			assert.Equal(t, tt.wantModel, caps.ExecutionModel)
		})
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	for _, name := range []string{"Trino", "TRINO", " trino ", "tRiNo"} {
		caps := Lookup(name)
		assert.Equal(t, Trino, caps.ID, "casing %q", name)
		assert.False(t, caps.SupportsTransactions)
	}
}

func TestLookup_UnknownFallsBackToDefault(t *testing.T) {
	caps := Lookup("no-such-engine")
	assert.False(t, caps.SupportsTransactions)
	assert.False(t, caps.SupportsCancel)
	assert.Equal(t, ModelSync, caps.ExecutionModel)
	assert.Zero(t, caps.MaxConcurrentQueries)
	assert.Equal(t, Provider("no-such-engine"), caps.ID)
}

func TestLookup_Stable(t *testing.T) {
	first := Lookup("snowflake")
	second := Lookup("snowflake")
	assert.Equal(t, first, second)
}

func TestCanonical(t *testing.T) {
	id, ok := Canonical("PGSQL")
	assert.True(t, ok)
	assert.Equal(t, PostgreSQL, id)

	_, ok = Canonical("duckdb")
	assert.False(t, ok)

	assert.True(t, Known("crdb"))
	assert.False(t, Known(""))
}
