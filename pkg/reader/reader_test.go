package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WhileEndless/go-conneg/pkg/errors"
)

type lexeme struct {
	event Event
	value string
}

// lex reads every token of header
func lex(t *testing.T, header string, opts ...Option) []lexeme {
	t.Helper()
	r := New(header, opts...)
	var out []lexeme
	for r.HasNext() {
		e, err := r.Next()
		require.NoError(t, err)
		out = append(out, lexeme{e, r.Value()})
	}
	return out
}

func TestReader_Tokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		opts   []Option
		want   []lexeme
	}{
		{
			name:   "media type",
			header: "text/html;level=1",
			want: []lexeme{
				{Token, "text"}, {Separator, "/"}, {Token, "html"},
				{Separator, ";"}, {Token, "level"}, {Separator, "="}, {Token, "1"},
			},
		},
		{
			name:   "wildcard is a token",
			header: "*/*",
			want:   []lexeme{{Token, "*"}, {Separator, "/"}, {Token, "*"}},
		},
		{
			name:   "whitespace and folded lines skipped",
			header: " a ,\r\n\t b ",
			want:   []lexeme{{Token, "a"}, {Separator, ","}, {Token, "b"}},
		},
		{
			name:   "quoted string unescaped",
			header: `"a \"b\" \\c"`,
			want:   []lexeme{{QuotedString, `a "b" \c`}},
		},
		{
			name:   "quoted string keeps separators",
			header: `x="a,b;c"`,
			want:   []lexeme{{Token, "x"}, {Separator, "="}, {QuotedString, "a,b;c"}},
		},
		{
			name:   "backslash preserved",
			header: `"C:\dir\file.txt"`,
			opts:   []Option{WithBackslash(true)},
			want:   []lexeme{{QuotedString, `C:\dir\file.txt`}},
		},
		{
			name:   "parenthesis is a separator by default",
			header: "a(b)",
			want:   []lexeme{{Token, "a"}, {Separator, "("}, {Token, "b"}, {Separator, ")"}},
		},
		{
			name:   "nested comment",
			header: "Mozilla/5.0 (X11; (nested) \\) ok)",
			opts:   []Option{WithComments(true)},
			want: []lexeme{
				{Token, "Mozilla"}, {Separator, "/"}, {Token, "5.0"},
				{Comment, "X11; (nested) ) ok"},
			},
		},
		{
			name:   "empty quoted string",
			header: `""`,
			want:   []lexeme{{QuotedString, ""}},
		},
		{
			name:   "empty header",
			header: "",
		},
		{
			name:   "whitespace only",
			header: " \t ",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, lex(t, tt.header, tt.opts...))
		})
	}
}

func TestReader_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		opts    []Option
		offset  int
		message string
	}{
		{"unterminated quoted string", `a, "abc`, nil, 3, "unterminated quoted string"},
		{"unterminated after escape", `"abc\`, nil, 0, "unterminated quoted string"},
		{"unterminated comment", "a (b (c)", []Option{WithComments(true)}, 2, "unterminated comment"},
		{"non-ascii outside quotes", "text/h\xc3\xa9", nil, 6, "invalid character"},
		{"control character", "a\x01b", nil, 1, "invalid character"},
		{"control in quoted string", "\"a\x00\"", nil, 2, "control character in quoted string"},
		{"delete character", "a \x7f", nil, 2, "invalid character"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := New(tt.header, tt.opts...)
			var err error
			for err == nil && r.HasNext() {
				_, err = r.Next()
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrGrammar)
			assert.Equal(t, tt.offset, errors.Offset(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestReader_NonASCIIInQuotedString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []lexeme{{QuotedString, "caf\xc3\xa9"}}, lex(t, "\"caf\xc3\xa9\""))
}

func TestReader_Cursor(t *testing.T) {
	t.Parallel()

	r := New(` text / html ; q = "0.5" `)
	assert.True(t, r.HasNext())
	assert.False(t, r.HasNextSeparator('/', true))

	tok, err := r.NextToken()
	require.NoError(t, err)
	assert.Equal(t, "text", tok)
	assert.Equal(t, 1, r.Start())
	assert.Equal(t, 5, r.Index())
	assert.True(t, r.HasNextSeparator('/', true))
	assert.False(t, r.HasNextSeparator('/', false))

	require.NoError(t, r.NextSeparator('/'))
	_, err = r.NextToken()
	require.NoError(t, err)
	require.NoError(t, r.NextSeparator(';'))
	_, err = r.NextToken()
	require.NoError(t, err)
	require.NoError(t, r.NextSeparator('='))

	v, err := r.NextTokenOrQuotedString()
	require.NoError(t, err)
	assert.Equal(t, "0.5", v)
	assert.Equal(t, QuotedString, r.Event())
	assert.Equal(t, " ", r.Remainder())
	assert.False(t, r.HasNext())

	_, err = r.Next()
	require.Error(t, err)
	assert.Equal(t, len(r.Header()), errors.Offset(err))
}

func TestReader_TypedAccessorMismatch(t *testing.T) {
	t.Parallel()

	r := New(`text, "q"`)
	_, err := r.NextQuotedString()
	require.Error(t, err)
	assert.Equal(t, 0, errors.Offset(err))
	assert.Contains(t, err.Error(), `expected quoted string, got token "text"`)

	err = r.NextSeparator(';')
	require.Error(t, err)
	assert.Equal(t, 4, errors.Offset(err))
	assert.Contains(t, err.Error(), "expected separator ';' instead of ','")

	_, err = r.NextToken()
	require.Error(t, err)
	assert.Equal(t, 6, errors.Offset(err))
}

func TestReadList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   []string
	}{
		{"Accept, Accept-Encoding", []string{"Accept", "Accept-Encoding"}},
		{"", []string{}},
		{" , a ,, b , ", []string{"a", "b"}},
		{"a,b,c", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.header, func(t *testing.T) {
			t.Parallel()
			got, err := ReadStringList(tt.header)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadList_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header  string
		offset  int
		message string
	}{
		{"a b, c", 2, `unexpected token "b" after list element`},
		{"a, /", 3, "expected token, got separator"},
		{"a, b;", 4, `unexpected separator ";" after list element`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.header, func(t *testing.T) {
			t.Parallel()
			_, err := ReadStringList(tt.header)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrGrammar)
			assert.Equal(t, tt.offset, errors.Offset(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestListReader_ElementBoundary(t *testing.T) {
	t.Parallel()

	r := New("a;b, c")
	l := NewListReader(r)

	tok, err := l.NextToken()
	require.NoError(t, err)
	assert.Equal(t, "a", tok)
	assert.True(t, l.HasNextSeparator(';', true))
	require.NoError(t, l.NextSeparator(';'))
	_, err = l.NextToken()
	require.NoError(t, err)

	// the comma ends the element
	assert.False(t, l.HasNext())
	assert.False(t, l.HasNextSeparator(',', true))
	_, err = l.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected end of list element")
	assert.Equal(t, 3, errors.Offset(err))

	require.NoError(t, l.Reset())
	assert.True(t, l.HasNext())
	tok, err = l.NextToken()
	require.NoError(t, err)
	assert.Equal(t, "c", tok)
	assert.False(t, l.HasNext())
	require.NoError(t, l.Reset())
}

func TestIsToken(t *testing.T) {
	t.Parallel()

	assert.True(t, IsToken("gzip"))
	assert.True(t, IsToken("*"))
	assert.True(t, IsToken("x-custom_1.0~!#$%&'^`|"))
	assert.False(t, IsToken(""))
	assert.False(t, IsToken("a b"))
	assert.False(t, IsToken("a/b"))
	assert.False(t, IsToken("caf\xc3\xa9"))
}

// FuzzReader checks the lexer never panics, always makes progress and
// reports offsets inside the header
func FuzzReader(f *testing.F) {
	for _, seed := range []string{
		"text/html;q=0.9, */*;q=0.1",
		`a="b\"c", (d (e)) f`,
		"\"unterminated",
		"\x00\xff",
		"",
	} {
		f.Add(seed, true)
	}

	f.Fuzz(func(t *testing.T, header string, comments bool) {
		r := New(header, WithComments(comments))
		last := -1
		for r.HasNext() {
			_, err := r.Next()
			if err != nil {
				off := errors.Offset(err)
				if off < 0 || off > len(header) {
					t.Fatalf("offset %d outside header of length %d", off, len(header))
				}
				return
			}
			if r.Index() <= last {
				t.Fatalf("no progress at %d", r.Index())
			}
			last = r.Index()
		}
	})
}
