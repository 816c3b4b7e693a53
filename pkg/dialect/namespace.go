package dialect

import "strings"

// Namespace is a three-level qualified name (catalog.schema[.table]). The
// levels are dialect-agnostic; only formatting depends on the target backend.
type Namespace struct {
	Level1 string `json:"level1"`
	Level2 string `json:"level2"`
	Table  string `json:"table,omitempty"`
}

// ParseNamespace splits a dotted name into namespace levels. One part is
// treated as a schema, two as schema.table, three as catalog.schema.table.
func ParseNamespace(name string) Namespace {
	parts := strings.Split(name, ".")
	switch len(parts) {
	case 1:
		return Namespace{Level2: parts[0]}
	case 2:
		return Namespace{Level2: parts[0], Table: parts[1]}
	default:
		return Namespace{Level1: parts[0], Level2: parts[1], Table: strings.Join(parts[2:], ".")}
	}
}

// String returns the unquoted dotted form.
func (n Namespace) String() string {
	parts := n.parts()
	return strings.Join(parts, ".")
}

// IsZero reports whether no level is set.
func (n Namespace) IsZero() bool {
	return n.Level1 == "" && n.Level2 == "" && n.Table == ""
}

func (n Namespace) parts() []string {
	parts := make([]string, 0, 3)
	if n.Level1 != "" {
		parts = append(parts, n.Level1)
	}
	if n.Level2 != "" {
		parts = append(parts, n.Level2)
	}
	if n.Table != "" {
		parts = append(parts, n.Table)
	}
	return parts
}

func (n Namespace) format(quote rune) string {
	q := string(quote)
	parts := n.parts()
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = q + strings.ReplaceAll(p, q, q+q) + q
	}
	return strings.Join(quoted, ".")
}
