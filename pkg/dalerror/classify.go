// Package dalerror maps raw backend errors to a unified taxonomy with a
// retryability verdict. Classification is a pure function of the provider name
// and error text: it never fails, and the resulting Info is produced once per
// failed operation and trusted downstream without re-classification.
package dalerror

import (
	"errors"
	"regexp"
	"strings"

	"github.com/txn2/mcp-dal/pkg/capability"
)

// Category is the closed error taxonomy.
type Category string

const (
	CategoryThrottling            Category = "THROTTLING"
	CategoryResourceExhausted     Category = "RESOURCE_EXHAUSTED"
	CategoryTransient             Category = "TRANSIENT"
	CategoryDeadlock              Category = "DEADLOCK"
	CategoryPermissionDenied      Category = "PERMISSION_DENIED"
	CategoryValidation            Category = "VALIDATION"
	CategoryToolResponseMalformed Category = "TOOL_RESPONSE_MALFORMED"
	CategoryUnknown               Category = "UNKNOWN"
)

// Retryable reports whether callers may usefully retry operations that failed
// with this category. The DAL itself never retries; the verdict is advisory.
func (c Category) Retryable() bool {
	switch c {
	case CategoryThrottling, CategoryResourceExhausted, CategoryTransient, CategoryDeadlock:
		return true
	default:
		return false
	}
}

// Info is the classified description of a failed operation.
type Info struct {
	Category    Category `json:"category"`
	Provider    string   `json:"provider"`
	IsRetryable bool     `json:"is_retryable"`
	SQLState    string   `json:"sql_state,omitempty"`
	Message     string   `json:"message"`
}

// rule maps a lowercase substring of the error text to a category.
type rule struct {
	substr   string
	category Category
}

// providerRules hold backend-specific phrases matched before the generic set.
// The tables are policy data: only phrases actually observed from each backend
// belong here.
var providerRules = map[capability.Provider][]rule{
	capability.PostgreSQL: {
		{"deadlock detected", CategoryDeadlock},
		{"permission denied", CategoryPermissionDenied},
		{"syntax error", CategoryValidation},
		{"too many clients", CategoryResourceExhausted},
		{"out of memory", CategoryResourceExhausted},
		{"canceling statement due to statement timeout", CategoryTransient},
	},
	capability.CockroachDB: {
		{"deadlock detected", CategoryDeadlock},
		{"restart transaction", CategoryTransient},
		{"permission denied", CategoryPermissionDenied},
		{"syntax error", CategoryValidation},
	},
	capability.MySQL: {
		{"deadlock found", CategoryDeadlock},
		{"lock wait timeout", CategoryTransient},
		{"access denied", CategoryPermissionDenied},
		{"error in your sql syntax", CategoryValidation},
		{"too many connections", CategoryResourceExhausted},
	},
	capability.Trino: {
		{"too many queued queries", CategoryThrottling},
		{"query exceeded", CategoryResourceExhausted},
		{"exceeded memory limit", CategoryResourceExhausted},
		{"access denied", CategoryPermissionDenied},
		{"mismatched input", CategoryValidation},
		{"syntax_error", CategoryValidation},
	},
	capability.Snowflake: {
		{"suspended", CategoryTransient},
		{"too many requests", CategoryThrottling},
		{"does not exist or not authorized", CategoryPermissionDenied},
		{"sql compilation error", CategoryValidation},
		{"statement reached its statement or warehouse timeout", CategoryTransient},
	},
	capability.BigQuery: {
		{"ratelimitexceeded", CategoryThrottling},
		{"resources exceeded", CategoryResourceExhausted},
		{"resourcesexceeded", CategoryResourceExhausted},
		{"quota exceeded", CategoryThrottling},
		{"accessdenied", CategoryPermissionDenied},
		{"permission", CategoryPermissionDenied},
		{"invalidquery", CategoryValidation},
		{"syntax error", CategoryValidation},
		{"backenderror", CategoryTransient},
	},
}

// genericRules apply to every provider after the provider table misses.
var genericRules = []rule{
	{"rate limit", CategoryThrottling},
	{"too many requests", CategoryThrottling},
	{"throttl", CategoryThrottling},
	{"resources exceeded", CategoryResourceExhausted},
	{"resource exhausted", CategoryResourceExhausted},
	{"insufficient resources", CategoryResourceExhausted},
	{"deadlock", CategoryDeadlock},
	{"permission denied", CategoryPermissionDenied},
	{"unauthorized", CategoryPermissionDenied},
	{"connection refused", CategoryTransient},
	{"connection reset", CategoryTransient},
	{"broken pipe", CategoryTransient},
	{"i/o timeout", CategoryTransient},
	{"timeout", CategoryTransient},
	{"temporarily unavailable", CategoryTransient},
}

var sqlStatePattern = regexp.MustCompile(`SQLSTATE[:= ]+([0-9A-Z]{5})`)

// sqlStater is implemented by driver errors that carry a SQLSTATE code.
type sqlStater interface {
	SQLState() string
}

// Classify maps a raw backend error to an Info. Matching is deterministic and
// case-insensitive: provider-specific rules first, then the generic table,
// then UNKNOWN/non-retryable. It never panics; a nil error classifies as
// UNKNOWN with an empty message.
func Classify(provider string, err error) Info {
	info := Info{
		Category: CategoryUnknown,
		Provider: normalizeProvider(provider),
	}
	if err == nil {
		return info
	}

	info.Message = Sanitize(err.Error())
	info.SQLState = extractSQLState(err)

	lower := strings.ToLower(err.Error())
	if id, ok := capability.Canonical(provider); ok {
		for _, r := range providerRules[id] {
			if strings.Contains(lower, r.substr) {
				info.Category = r.category
				info.IsRetryable = r.category.Retryable()
				return info
			}
		}
	}
	for _, r := range genericRules {
		if strings.Contains(lower, r.substr) {
			info.Category = r.category
			info.IsRetryable = r.category.Retryable()
			return info
		}
	}
	return info
}

// Malformed builds an Info for upstream payloads the DAL could not decode.
// This is a caller-side category, not a backend error.
func Malformed(provider, message string) Info {
	return Info{
		Category: CategoryToolResponseMalformed,
		Provider: normalizeProvider(provider),
		Message:  Sanitize(message),
	}
}

func normalizeProvider(provider string) string {
	if id, ok := capability.Canonical(provider); ok {
		return string(id)
	}
	return strings.ToLower(strings.TrimSpace(provider))
}

func extractSQLState(err error) string {
	var st sqlStater
	if errors.As(err, &st) {
		return st.SQLState()
	}
	if m := sqlStatePattern.FindStringSubmatch(err.Error()); m != nil {
		return m[1]
	}
	return ""
}
