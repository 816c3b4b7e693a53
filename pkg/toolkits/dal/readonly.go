package dal

import (
	"fmt"
	"regexp"
	"strings"
)

// writeKeywords are SQL keywords that indicate write operations.
// These are matched at the beginning of SQL statements (after stripping comments/whitespace).
var writeKeywords = []string{
	"INSERT",
	"UPDATE",
	"DELETE",
	"DROP",
	"CREATE",
	"ALTER",
	"TRUNCATE",
	"GRANT",
	"REVOKE",
	"MERGE",
	"CALL",
	"EXECUTE",
}

// writePattern matches SQL statements that start with write keywords.
// Handles optional leading whitespace and common comment styles.
var writePattern = regexp.MustCompile(
	`(?i)^\s*(?:--[^\n]*\n\s*|/\*[\s\S]*?\*/\s*)*\s*(` +
		strings.Join(writeKeywords, "|") +
		`)(?:\s|$|;|\()`,
)

// checkReadOnly rejects SQL statements that modify data or schema. It is
// pattern-based over the raw text; statements it cannot recognize as writes
// pass through and the backend's own permissions are the final word.
func checkReadOnly(sql string) error {
	if isWriteQuery(sql) {
		return fmt.Errorf("write operations not allowed in read-only mode")
	}
	return nil
}

// isWriteQuery checks if the SQL query is a write operation.
func isWriteQuery(sql string) bool {
	normalized := strings.TrimSpace(sql)
	return writePattern.MatchString(normalized)
}
