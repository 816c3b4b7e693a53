// Package typemap maps backend-native column type names to a small canonical
// vocabulary used for display and schema introspection.
package typemap

import (
	"sort"
	"strings"
)

// Canonical display types. Every recognized backend type normalizes to one of
// these; unrecognized types pass through unchanged.
const (
	TypeBoolean   = "boolean"
	TypeInt       = "int"
	TypeBigint    = "bigint"
	TypeFloat     = "float"
	TypeDecimal   = "decimal"
	TypeString    = "string"
	TypeTimestamp = "timestamp"
	TypeDate      = "date"
	TypeJSON      = "json"
	TypeBinary    = "binary"
)

// exact matches take priority over prefix rules. Keys are lowercase with
// collapsed whitespace.
var exact = map[string]string{
	// MySQL convention: tinyint(1) is a boolean, bare tinyint is not.
	"tinyint(1)": TypeBoolean,
	"tinyint":    TypeInt,
	"smallint":   TypeInt,
	"mediumint":  TypeInt,
	"int":        TypeInt,
	"integer":    TypeInt,
	"int4":       TypeInt,
	"int2":       TypeInt,
	"serial":     TypeInt,
	"bigint":     TypeBigint,
	"int8":       TypeBigint,
	"int64":      TypeBigint,
	"int32":      TypeInt,
	"int16":      TypeInt,
	"bignumeric": TypeDecimal,
	"bigserial":  TypeBigint,
	"long":       TypeBigint,
	"bool":       TypeBoolean,
	"boolean":    TypeBoolean,
	"bit":        TypeBoolean,
	"real":       TypeFloat,
	"float":      TypeFloat,
	"float4":     TypeFloat,
	"float8":     TypeFloat,
	"double":     TypeFloat,
	"text":       TypeString,
	"string":     TypeString,
	"uuid":       TypeString,
	"name":       TypeString,
	"citext":     TypeString,
	"clob":       TypeString,
	"date":       TypeDate,
	"json":       TypeJSON,
	"jsonb":      TypeJSON,
	"variant":    TypeJSON,
	"bytea":      TypeBinary,
	"blob":       TypeBinary,
	"bytes":      TypeBinary,
	"binary":     TypeBinary,
	"varbinary":  TypeBinary,
	"money":      TypeDecimal,
}

// prefixes are matched longest-first after exact lookup fails. Parameterized
// forms like varchar(255) or numeric(10,2) land here.
var prefixes = []struct {
	prefix string
	canon  string
}{
	{"character varying", TypeString},
	{"double precision", TypeFloat},
	{"timestamptz", TypeTimestamp},
	{"timestamp", TypeTimestamp},
	{"datetime", TypeTimestamp},
	{"character", TypeString},
	{"nvarchar", TypeString},
	{"varchar", TypeString},
	{"numeric", TypeDecimal},
	{"decimal", TypeDecimal},
	{"number", TypeDecimal},
	{"smallint", TypeInt},
	{"tinyint", TypeInt},
	{"bigint", TypeBigint},
	{"nchar", TypeString},
	{"float", TypeFloat},
	{"char", TypeString},
	{"time", TypeTimestamp},
	{"date", TypeDate},
}

func init() {
	// Longest-prefix wins, so order by descending length once up front.
	sort.SliceStable(prefixes, func(i, j int) bool {
		return len(prefixes[i].prefix) > len(prefixes[j].prefix)
	})
}

// Normalize maps a backend-native type name to the canonical display
// vocabulary. It is pure, case- and whitespace-insensitive, and never fails:
// unrecognized types are returned unchanged, which also makes it idempotent
// (canonical names are themselves recognized).
func Normalize(typeName string) string {
	key := collapse(typeName)
	if key == "" {
		return typeName
	}

	if canon, ok := exact[key]; ok {
		return canon
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p.prefix) {
			return p.canon
		}
	}
	return typeName
}

// collapse lowercases and squeezes interior whitespace so "CHARACTER   Varying"
// and "character varying(64)" share a lookup key.
func collapse(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
