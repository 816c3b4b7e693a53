package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tok := Token{Offset: 500, PageSize: 250, IssuedAt: 1700000000}
	decoded, err := Decode(tok.Encode())
	require.NoError(t, err)
	assert.Equal(t, tok, decoded)
}

func TestDecode_Invalid(t *testing.T) {
	for _, s := range []string{"not base64!!", "aGVsbG8", ""} {
		_, err := Decode(s)
		assert.Error(t, err, "token %q", s)
	}
}

func TestDecode_NegativeOffset(t *testing.T) {
	_, err := Decode(Token{Offset: -1}.Encode())
	assert.Error(t, err)
}

func TestAgeSeconds_Clamped(t *testing.T) {
	now := time.Unix(1700000000, 0)

	fresh := Token{IssuedAt: now.Unix() - 30}
	assert.Equal(t, int64(30), fresh.AgeSeconds(now, 0))

	future := Token{IssuedAt: now.Unix() + 1000}
	assert.Equal(t, int64(0), future.AgeSeconds(now, 0))

	ancient := Token{IssuedAt: now.Unix() - 10*DefaultMaxAgeSeconds}
	assert.Equal(t, int64(DefaultMaxAgeSeconds), ancient.AgeSeconds(now, 0))

	assert.Equal(t, int64(60), ancient.AgeSeconds(now, 60))
}

func TestPagerResolve(t *testing.T) {
	p := NewPager(100, 1000, 0)

	t.Run("defaults applied", func(t *testing.T) {
		page, err := p.Resolve(0, "")
		require.NoError(t, err)
		assert.Equal(t, Page{Offset: 0, Size: 100}, page)
	})

	t.Run("limit clamped to max", func(t *testing.T) {
		page, err := p.Resolve(50000, "")
		require.NoError(t, err)
		assert.Equal(t, 1000, page.Size)
	})

	t.Run("token carries offset and size", func(t *testing.T) {
		issued := time.Unix(1700000000, 0)
		p.Now = func() time.Time { return issued }
		defer func() { p.Now = time.Now }()

		tok := Token{Offset: 300, PageSize: 150, IssuedAt: issued.Unix()}
		page, err := p.Resolve(0, tok.Encode())
		require.NoError(t, err)
		assert.Equal(t, Page{Offset: 300, Size: 150}, page)
	})

	t.Run("bad token is an error", func(t *testing.T) {
		_, err := p.Resolve(10, "garbage!")
		assert.Error(t, err)
	})
}

func TestPagerResolve_TokenAgeObservesBound(t *testing.T) {
	now := time.Unix(1700000000, 0)
	yearOld := Token{Offset: 100, PageSize: 10, IssuedAt: now.Add(-365 * 24 * time.Hour).Unix()}

	tight := NewPager(100, 1000, 1)
	tight.Now = func() time.Time { return now }
	page, err := tight.Resolve(0, yearOld.Encode())
	require.NoError(t, err)
	assert.Equal(t, int64(100), page.Offset)
	assert.Equal(t, int64(1), page.TokenAge)

	week := NewPager(100, 1000, 7*24*60*60)
	week.Now = func() time.Time { return now }
	page, err = week.Resolve(0, yearOld.Encode())
	require.NoError(t, err)
	assert.Equal(t, int64(7*24*60*60), page.TokenAge)

	fresh := Token{Offset: 100, PageSize: 10, IssuedAt: now.Unix() - 30}
	page, err = tight.Resolve(0, fresh.Encode())
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TokenAge)
	page, err = week.Resolve(0, fresh.Encode())
	require.NoError(t, err)
	assert.Equal(t, int64(30), page.TokenAge)
}

func TestDecode_RejectsNonIntegralFields(t *testing.T) {
	for name, payload := range map[string]string{
		"fractional offset": `{"o":12.5,"s":10,"t":1700000000}`,
		"boolean size":      `{"o":0,"s":true,"t":1700000000}`,
		"bad issue time":    `{"o":0,"s":10,"t":"later"}`,
		"oversized size":    `{"o":0,"s":4294967296,"t":1700000000}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(encodeRaw(payload))
			assert.Error(t, err)
		})
	}

	// Absent fields stay zero, and numeric strings are accepted.
	tok, err := Decode(encodeRaw(`{"o":"100"}`))
	require.NoError(t, err)
	assert.Equal(t, Token{Offset: 100}, tok)
}

func encodeRaw(payload string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func TestPagerNext(t *testing.T) {
	p := NewPager(100, 1000, 0)
	p.Now = func() time.Time { return time.Unix(1700000000, 0) }

	assert.Empty(t, p.Next(Page{Offset: 0, Size: 100}, false))

	tok := p.Next(Page{Offset: 100, Size: 100}, true)
	require.NotEmpty(t, tok)
	decoded, err := Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(200), decoded.Offset)
	assert.Equal(t, 100, decoded.PageSize)
	assert.Equal(t, int64(1700000000), decoded.IssuedAt)
}

func TestNormalizeInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"int", 42, 42, true},
		{"int64", int64(-7), -7, true},
		{"integral float", 12.0, 12, true},
		{"fractional float", 12.5, 0, false},
		{"numeric string", "99", 99, true},
		{"bad string", "12abc", 0, false},
		{"bool true is not an int", true, 0, false},
		{"bool false is not an int", false, 0, false},
		{"nil", nil, 0, false},
		{"slice", []int{1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeInt(tt.in)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
