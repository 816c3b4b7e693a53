// Package pagination derives page-size-bounded fetches from opaque
// continuation tokens and enforces page-size guardrails.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	// DefaultPageSize applies when a request carries no limit.
	DefaultPageSize = 1000

	// DefaultMaxPageSize caps any single fetch.
	DefaultMaxPageSize = 10000

	// DefaultMaxAgeSeconds is the token age clamp bound: one week.
	DefaultMaxAgeSeconds = 7 * 24 * 60 * 60
)

// Token is the decoded continuation token. The wire form is opaque to
// callers: base64url-encoded JSON.
type Token struct {
	Offset   int64 `json:"o"`
	PageSize int   `json:"s"`
	IssuedAt int64 `json:"t"`
}

// Encode renders the opaque wire form.
func (t Token) Encode() string {
	data, _ := json.Marshal(t)
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode parses an opaque continuation token. Payload fields are coerced
// strictly: a token whose fields are not integral is rejected rather than
// silently zeroed.
func Decode(s string) (Token, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Token{}, fmt.Errorf("decoding page token: %w", err)
	}
	var wire struct {
		Offset   any `json:"o"`
		PageSize any `json:"s"`
		IssuedAt any `json:"t"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Token{}, fmt.Errorf("parsing page token: %w", err)
	}

	offset, err := tokenField(wire.Offset, "offset")
	if err != nil {
		return Token{}, err
	}
	size, err := tokenField(wire.PageSize, "page size")
	if err != nil {
		return Token{}, err
	}
	issued, err := tokenField(wire.IssuedAt, "issue time")
	if err != nil {
		return Token{}, err
	}

	if offset < 0 {
		return Token{}, fmt.Errorf("parsing page token: negative offset")
	}
	if size < 0 || size > math.MaxInt32 {
		return Token{}, fmt.Errorf("parsing page token: page size out of range")
	}
	return Token{Offset: offset, PageSize: int(size), IssuedAt: issued}, nil
}

// tokenField coerces one token payload field; absent fields decode to zero.
func tokenField(v any, name string) (int64, error) {
	if v == nil {
		return 0, nil
	}
	n, ok := NormalizeInt(v)
	if !ok {
		return 0, fmt.Errorf("parsing page token: bad %s", name)
	}
	return n, nil
}

// AgeSeconds returns the token age clamped to [0, maxAge]. Clock skew can
// make raw ages negative and stale tokens arbitrarily large; clamping keeps
// the value safe for telemetry.
func (t Token) AgeSeconds(now time.Time, maxAge int64) int64 {
	if maxAge <= 0 {
		maxAge = DefaultMaxAgeSeconds
	}
	age := now.Unix() - t.IssuedAt
	if age < 0 {
		return 0
	}
	if age > maxAge {
		return maxAge
	}
	return age
}

// Pager resolves incoming limits and tokens into bounded page windows.
type Pager struct {
	DefaultSize int
	MaxSize     int
	MaxAge      int64 // seconds
	Now         func() time.Time
}

// NewPager builds a Pager with guardrail defaults filled in.
func NewPager(defaultSize, maxSize int, maxAgeSeconds int64) *Pager {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxPageSize
	}
	if maxAgeSeconds <= 0 {
		maxAgeSeconds = DefaultMaxAgeSeconds
	}
	return &Pager{
		DefaultSize: defaultSize,
		MaxSize:     maxSize,
		MaxAge:      maxAgeSeconds,
		Now:         time.Now,
	}
}

// Page is a resolved fetch window. TokenAge is the clamped age in seconds of
// the continuation token that produced it, zero for a fresh window.
type Page struct {
	Offset   int64
	Size     int
	TokenAge int64
}

// Resolve derives the fetch window from an optional incoming token and limit.
// The token's stored page size wins over the request limit so a continuation
// walks consistent windows; both are clamped to the max guardrail, and the
// token age is clamped to the max-age guardrail.
func (p *Pager) Resolve(limit int, token string) (Page, error) {
	size := limit
	if size <= 0 {
		size = p.DefaultSize
	}
	if size > p.MaxSize {
		size = p.MaxSize
	}

	page := Page{Size: size}
	if token == "" {
		return page, nil
	}

	t, err := Decode(token)
	if err != nil {
		return Page{}, err
	}
	page.Offset = t.Offset
	if t.PageSize > 0 && t.PageSize <= p.MaxSize {
		page.Size = t.PageSize
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	page.TokenAge = t.AgeSeconds(now(), p.MaxAge)
	return page, nil
}

// Next returns the continuation token for the window after page, or the empty
// string when the fetch indicated no more rows exist.
func (p *Pager) Next(page Page, more bool) string {
	if !more {
		return ""
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return Token{
		Offset:   page.Offset + int64(page.Size),
		PageSize: page.Size,
		IssuedAt: now().Unix(),
	}.Encode()
}

// NormalizeInt strictly coerces integer-like values. Booleans are never
// integers, floats must be integral and in range, and strings must parse as
// base-10 integers; anything else normalizes to absent.
func NormalizeInt(v any) (int64, bool) {
	switch n := v.(type) {
	case bool:
		return 0, false
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
