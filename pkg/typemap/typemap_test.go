package typemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		// MySQL boolean convention.
		{"tinyint(1)", "boolean"},
		{"TINYINT(1)", "boolean"},
		{"tinyint", "int"},
		{"tinyint(2)", "int"},
		{"smallint", "int"},
		{"int", "int"},
		{"INTEGER", "int"},
		{"bigint", "bigint"},
		{"int8", "bigint"},
		{"real", "float"},
		{"double precision", "float"},
		{"float64", "float"},
		{"numeric(10,2)", "decimal"},
		{"DECIMAL(38, 0)", "decimal"},
		{"NUMBER(38,0)", "decimal"},
		{"varchar", "string"},
		{"varchar(255)", "string"},
		{"character varying", "string"},
		{"character varying(64)", "string"},
		{"CHARACTER   VARYING (64)", "string"},
		{"text", "string"},
		{"uuid", "string"},
		{"timestamp", "timestamp"},
		{"timestamp with time zone", "timestamp"},
		{"timestamptz", "timestamp"},
		{"datetime", "timestamp"},
		{"time", "timestamp"},
		{"date", "date"},
		{"json", "json"},
		{"jsonb", "json"},
		{"VARIANT", "json"},
		{"bytea", "binary"},
		{"varbinary(16)", "binary"},
		// Unrecognized types pass through unchanged.
		{"geometry", "geometry"},
		{"INTERVAL DAY TO SECOND", "INTERVAL DAY TO SECOND"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"tinyint(1)", "varchar(255)", "numeric(10,2)", "timestamptz",
		"double precision", "jsonb", "geometry", "boolean", "bigint",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
