package dalerror

import (
	"regexp"
	"strings"
)

// SchemaVersion identifies the error envelope wire format.
const SchemaVersion = "1.0"

// maxMessageLen bounds sanitized messages before they leave the DAL boundary.
const maxMessageLen = 2048

// Envelope is the error shape returned to callers.
type Envelope struct {
	SchemaVersion string `json:"schema_version"`
	Error         Info   `json:"error"`
}

// NewEnvelope wraps an Info in a versioned envelope. The message is sanitized
// again here so an Info built by hand still cannot leak credentials.
func NewEnvelope(info Info) Envelope {
	info.Message = Sanitize(info.Message)
	return Envelope{
		SchemaVersion: SchemaVersion,
		Error:         info,
	}
}

// credentialPatterns match secrets that must never appear in user-visible
// error text: key=value credential pairs and user:password@host URL segments.
var credentialPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{
		re:   regexp.MustCompile(`(?i)(password|passwd|pwd|secret|token|api[_-]?key|access[_-]?key)\s*[:=]\s*[^\s&;,'"]+`),
		repl: "$1=[REDACTED]",
	},
	{
		re:   regexp.MustCompile(`(?i)([a-z][a-z0-9+.-]*://[^/\s:@]+):[^@\s]+@`),
		repl: "$1:[REDACTED]@",
	},
}

// Sanitize redacts credential material and caps the message length. It is
// applied to every message that crosses the DAL boundary.
func Sanitize(message string) string {
	for _, p := range credentialPatterns {
		message = p.re.ReplaceAllString(message, p.repl)
	}
	if len(message) > maxMessageLen {
		message = strings.ToValidUTF8(message[:maxMessageLen], "") + "..."
	}
	return message
}
