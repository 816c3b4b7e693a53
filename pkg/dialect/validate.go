package dialect

import "regexp"

// constructRule flags a SQL construct the target backend does not support.
// Detection is pattern-based over the raw SQL text, not a full parse; the
// goal is a clear early message instead of an opaque backend error.
type constructRule struct {
	pattern *regexp.Regexp
	message string
}

var mysqlRules = []constructRule{
	{
		pattern: regexp.MustCompile(`(?i)\bARRAY\s*\[`),
		message: "ARRAY literals are not supported by MySQL",
	},
	{
		pattern: regexp.MustCompile(`(?i)::\s*[a-z_]+`),
		message: "Postgres-style :: casts are not supported by MySQL; use CAST(expr AS type)",
	},
	{
		pattern: regexp.MustCompile(`(?i)\bILIKE\b`),
		message: "ILIKE is not supported by MySQL; use LIKE with LOWER()",
	},
}

var trinoRules = []constructRule{
	{
		pattern: regexp.MustCompile(`->>|#>>?`),
		message: "Postgres JSON operators (->>, #>) are not supported by Trino; use json_extract",
	},
	{
		pattern: regexp.MustCompile(`(?i)\bILIKE\b`),
		message: "ILIKE is not supported by Trino; use LIKE with LOWER()",
	},
}

var bigqueryRules = []constructRule{
	{
		pattern: regexp.MustCompile(`->>?|#>>?`),
		message: "Postgres JSON operators are not supported by BigQuery; use JSON_VALUE",
	},
	{
		pattern: regexp.MustCompile(`(?i)\bILIKE\b`),
		message: "ILIKE is not supported by BigQuery; use LIKE with LOWER()",
	},
	{
		pattern: regexp.MustCompile(`(?i)::\s*[a-z_]+`),
		message: "Postgres-style :: casts are not supported by BigQuery; use CAST(expr AS type)",
	},
}

// Validate returns human-readable violations for constructs the backend does
// not support. An empty result means the query text is acceptable. String
// literals are masked before matching so data values never trigger rules.
func (a *Adapter) Validate(sql string) []string {
	if len(a.rules) == 0 {
		return nil
	}

	masked := maskStrings(sql)
	var violations []string
	for _, r := range a.rules {
		if r.pattern.MatchString(masked) {
			violations = append(violations, r.message)
		}
	}
	return violations
}

// maskStrings blanks the contents of single-quoted literals, honoring ''
// escapes, so validation patterns only see structural SQL.
func maskStrings(sql string) string {
	out := []rune(sql)
	inString := false
	for i := 0; i < len(out); i++ {
		if out[i] == '\'' {
			if inString && i+1 < len(out) && out[i+1] == '\'' {
				out[i+1] = ' '
				i++
				continue
			}
			inString = !inString
			continue
		}
		if inString {
			out[i] = ' '
		}
	}
	return string(out)
}
