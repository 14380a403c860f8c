package cookies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Request Cookie Tests
// ============================================================================

func TestParseCookies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []Cookie
	}{
		{
			name:  "simple",
			input: "session=abc123; user=john",
			want:  []Cookie{{Name: "session", Value: "abc123"}, {Name: "user", Value: "john"}},
		},
		{
			name:  "spaces",
			input: "  name1  =  value1  ;  name2  =  value2  ",
			want:  []Cookie{{Name: "name1", Value: "value1"}, {Name: "name2", Value: "value2"}},
		},
		{
			name:  "quoted values",
			input: `session="abc123"; user="john doe"`,
			want:  []Cookie{{Name: "session", Value: "abc123"}, {Name: "user", Value: "john doe"}},
		},
		{
			name:  "escaped quote inside value",
			input: `a="x\"y"; b=2`,
			want:  []Cookie{{Name: "a", Value: `x"y`}, {Name: "b", Value: "2"}},
		},
		{
			name:  "separator inside quotes",
			input: `a="1;2,3"; b=4`,
			want:  []Cookie{{Name: "a", Value: "1;2,3"}, {Name: "b", Value: "4"}},
		},
		{
			name:  "comma separator",
			input: "a=1, b=2",
			want:  []Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}},
		},
		{
			name:  "no equals",
			input: "invalidcookie",
			want:  []Cookie{{Name: "invalidcookie"}},
		},
		{
			name:  "trailing semicolon",
			input: "name1=value1; name2=value2;",
			want:  []Cookie{{Name: "name1", Value: "value1"}, {Name: "name2", Value: "value2"}},
		},
		{
			name:  "rfc 2109 attributes",
			input: `$Version=1; Customer="WILE_E_COYOTE"; $Path="/acme"; Part_Number="Rocket_0001"; $Path="/acme"; $Domain=".acme.com"`,
			want: []Cookie{
				{Name: "Customer", Value: "WILE_E_COYOTE", Version: 1, Path: "/acme"},
				{Name: "Part_Number", Value: "Rocket_0001", Version: 1, Path: "/acme", Domain: ".acme.com"},
			},
		},
		{
			name:  "attribute before any cookie",
			input: "$Path=/; a=1",
			want:  []Cookie{{Name: "a", Value: "1"}},
		},
		{
			name:  "empty",
			input: "",
			want:  []Cookie{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseCookies(tt.input))
		})
	}
}

func TestBuildCookieHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cookies []Cookie
		want    string
	}{
		{"simple", []Cookie{{Name: "session", Value: "abc123"}, {Name: "user", Value: "john"}}, "session=abc123; user=john"},
		{"empty", nil, ""},
		{"skip empty name", []Cookie{{Name: "a", Value: "1"}, {Value: "x"}, {Name: "b", Value: "2"}}, "a=1; b=2"},
		{
			"versioned",
			[]Cookie{{Name: "a", Value: "1", Version: 1, Path: "/p"}, {Name: "b", Value: "2", Version: 1, Domain: ".d"}},
			"$Version=1; a=1; $Path=/p; b=2; $Domain=.d",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BuildCookieHeader(tt.cookies))
		})
	}
}

func TestCookieRoundTrip(t *testing.T) {
	t.Parallel()

	original := []Cookie{
		{Name: "a", Value: "1", Version: 1, Path: "/x"},
		{Name: "b", Value: "2", Version: 1},
	}
	assert.Equal(t, original, ParseCookies(BuildCookieHeader(original)))
}

// ============================================================================
// Response Set-Cookie Tests
// ============================================================================

func TestParseSetCookie_WithAttributes(t *testing.T) {
	t.Parallel()

	input := "id=a3fWa; Expires=Wed, 21 Oct 2025 07:28:00 GMT; Path=/; Domain=.example.com; Secure; HttpOnly"
	cookie := ParseSetCookie(input)

	assert.Equal(t, "id", cookie.Name)
	assert.Equal(t, "a3fWa", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, ".example.com", cookie.Domain)
	assert.True(t, cookie.Secure)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "Wed, 21 Oct 2025 07:28:00 GMT", cookie.Expires)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.Equal(t, input, cookie.Raw)

	expires, err := cookie.ExpiresTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.October, 21, 7, 28, 0, 0, time.UTC), expires)
}

func TestParseSetCookie_Attributes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		check func(t *testing.T, c ResponseCookie)
	}{
		{"token=xyz; Max-Age=3600", func(t *testing.T, c ResponseCookie) { assert.Equal(t, 3600, c.MaxAge) }},
		{"token=xyz; Max-Age=soon", func(t *testing.T, c ResponseCookie) { assert.Equal(t, -1, c.MaxAge) }},
		{"session=abc; SameSite=Strict", func(t *testing.T, c ResponseCookie) { assert.Equal(t, "Strict", c.SameSite) }},
		{"session=abc; samesite=Lax", func(t *testing.T, c ResponseCookie) { assert.Equal(t, "Lax", c.SameSite) }},
		{"session=abc; Version=1", func(t *testing.T, c ResponseCookie) { assert.Equal(t, 1, c.Version) }},
		{`session=abc; Comment="for \"you\""`, func(t *testing.T, c ResponseCookie) { assert.Equal(t, `for "you"`, c.Comment) }},
		{`session="quoted"`, func(t *testing.T, c ResponseCookie) { assert.Equal(t, "quoted", c.Value) }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			tt.check(t, ParseSetCookie(tt.input))
		})
	}
}

func TestParseSetCookie_Malformed(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "nocookie", ";;;", "=noname"} {
		assert.NotPanics(t, func() { ParseSetCookie(input) }, input)
	}
	assert.Empty(t, ParseSetCookie("").Name)
}

func TestResponseCookie_Build(t *testing.T) {
	t.Parallel()

	cookie := ResponseCookie{
		Name:     "session",
		Value:    "abc123",
		Path:     "/",
		Domain:   ".example.com",
		MaxAge:   3600,
		Version:  1,
		Comment:  "two words",
		Secure:   true,
		HttpOnly: true,
		SameSite: "Strict",
	}

	assert.Equal(t,
		`session=abc123; Path=/; Domain=.example.com; Max-Age=3600; Version=1; Comment="two words"; Secure; HttpOnly; SameSite=Strict`,
		cookie.Build())

	minimal := ResponseCookie{Name: "token", Value: "xyz"}
	assert.Equal(t, "token=xyz", minimal.Build())
}

func TestSetCookieRoundTrip(t *testing.T) {
	t.Parallel()

	for _, original := range []string{
		"session=abc123",
		"id=a3fWa; Path=/; Secure; HttpOnly",
		"token=xyz; Max-Age=3600; SameSite=Lax",
		`token=xyz; Version=1; Comment="a b"`,
	} {
		parsed := ParseSetCookie(original)
		rebuilt := parsed.Build()
		again := ParseSetCookie(rebuilt)
		again.Raw = parsed.Raw
		assert.Equal(t, parsed, again, original)
	}
}
