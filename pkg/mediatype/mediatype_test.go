package mediatype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WhileEndless/go-conneg/pkg/errors"
	"github.com/WhileEndless/go-conneg/pkg/reader"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		typ     string
		subtype string
		params  []Param
	}{
		{"text/html", "text", "html", []Param{}},
		{"Text/HTML", "Text", "HTML", []Param{}},
		{"*/*", "*", "*", []Param{}},
		{"text/*", "text", "*", []Param{}},
		{"application/xml;charset=utf-8", "application", "xml", []Param{{"charset", "utf-8"}}},
		{" text / plain ; format = flowed ", "text", "plain", []Param{{"format", "flowed"}}},
		{`multipart/form-data; boundary="a b;c"`, "multipart", "form-data", []Param{{"boundary", "a b;c"}}},
		{"text/html;;level=1;", "text", "html", []Param{{"level", "1"}}},
		{"text/html;a=1;b=2;a=3", "text", "html", []Param{{"a", "3"}, {"b", "2"}}},
		{"text/html;Level=1", "text", "html", []Param{{"Level", "1"}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			m, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, m.Type)
			assert.Equal(t, tt.subtype, m.Subtype)
			assert.Equal(t, tt.params, m.Params.All())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		offset int
	}{
		{"", 0},
		{"   ", 0},
		{"text", 4},
		{"text/", 5},
		{"/html", 0},
		{"text/html;level", 15},
		{"text/html;level=", 16},
		{"text/html, text/plain", 9},
		{`text/html;a="unterminated`, 12},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrGrammar)
			assert.Equal(t, tt.offset, errors.Offset(err))
		})
	}
}

func TestReadRange_BareType(t *testing.T) {
	t.Parallel()

	m, err := ReadRange(reader.New("*"))
	require.NoError(t, err)
	assert.True(t, m.Equal(Any))

	m, err = ReadRange(reader.New("text;level=1"))
	require.NoError(t, err)
	assert.Equal(t, "text/*;level=1", m.String())
}

func TestReadParamsFunc_Offsets(t *testing.T) {
	t.Parallel()

	type seen struct {
		name, value string
		offset      int
	}
	var got []seen
	m, err := ReadFunc(reader.New(`text/html; q=0.5; x="y"`), func(name, value string, offset int) (bool, error) {
		got = append(got, seen{name, value, offset})
		return name != "q", nil
	})
	require.NoError(t, err)
	assert.Equal(t, []seen{{"q", "0.5", 13}, {"x", "y", 21}}, got)
	assert.Equal(t, []string{"x"}, m.Params.Names())
}

func TestString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		m    MediaType
		want string
	}{
		{New("text", "html"), "text/html"},
		{New("text", "plain", Param{"charset", "utf-8"}), "text/plain;charset=utf-8"},
		{New("multipart", "mixed", Param{"boundary", `a "b"`}), `multipart/mixed;boundary="a \"b\""`},
		{New("a", "b", Param{"empty", ""}), `a/b;empty=""`},
	}

	for _, tt := range tests {
		tt := tt
		assert.Equal(t, tt.want, tt.m.String())

		back, err := Parse(tt.want)
		require.NoError(t, err)
		assert.True(t, back.Equal(tt.m), tt.want)
	}
}

func TestIsCompatible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{"text/html", "text/html", true},
		{"text/html", "TEXT/Html", true},
		{"text/*", "text/html", true},
		{"text/html", "text/*", true},
		{"*/*", "application/json", true},
		{"application/json", "*/*", true},
		{"text/html", "text/plain", false},
		{"text/*", "application/xml", false},
		{"text/html;level=1", "text/html;level=2", true},
	}

	for _, tt := range tests {
		tt := tt
		a, b := MustParse(tt.a), MustParse(tt.b)
		assert.Equal(t, tt.want, a.IsCompatible(b), "%s vs %s", tt.a, tt.b)
		assert.Equal(t, tt.want, b.IsCompatible(a), "%s vs %s", tt.b, tt.a)
	}
}

func TestSpecificity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SpecificityConcrete, MustParse("text/html").Specificity())
	assert.Equal(t, SpecificityWildcardSubtype, MustParse("text/*").Specificity())
	assert.Equal(t, SpecificityWildcard, MustParse("*/*").Specificity())

	ordered := []string{"text/html;level=1", "text/html", "text/*;charset=utf-8", "text/*", "*/*"}
	for i := 0; i < len(ordered)-1; i++ {
		a, b := MustParse(ordered[i]), MustParse(ordered[i+1])
		assert.Negative(t, CompareSpecificity(a, b), "%s before %s", ordered[i], ordered[i+1])
		assert.Positive(t, CompareSpecificity(b, a))
	}
	assert.Zero(t, CompareSpecificity(MustParse("text/html"), MustParse("application/xml")))
	assert.Zero(t, CompareSpecificity(MustParse("text/html;q=0.5"), MustParse("text/html")))
}

func TestMostSpecific(t *testing.T) {
	t.Parallel()

	html, text, all := MustParse("text/html"), MustParse("text/*"), MustParse("*/*")
	assert.Equal(t, html, MostSpecific(text, html))
	assert.Equal(t, html, MostSpecific(html, all))
	assert.Equal(t, text, MostSpecific(all, text))
	assert.Equal(t, text, MostSpecific(text, text.WithParam("x", "1")))
}

func TestParams(t *testing.T) {
	t.Parallel()

	m := MustParse("text/html;Q=0.5;level=1;QS=0.8")
	assert.Equal(t, "0.5", m.Params.Get("q"))
	assert.Equal(t, "0.8", m.Params.Get("qs"))
	assert.True(t, m.Params.Has("level"))
	assert.False(t, m.Params.Has("LEVEL"))
	assert.Equal(t, 3, m.Params.Len())

	stripped := m.StripQuality()
	assert.Equal(t, []string{"level"}, stripped.Params.Names())
	assert.Equal(t, map[string]string{"level": "1"}, stripped.Params.Map())
	assert.Equal(t, 3, m.Params.Len(), "original untouched")

	v, ok := m.Params.Lookup("missing")
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestParams_Immutable(t *testing.T) {
	t.Parallel()

	base := MustParse("text/html;a=1")
	changed := base.WithParam("a", "2").WithParam("b", "3")

	assert.Equal(t, "text/html;a=1", base.String())
	assert.Equal(t, "text/html;a=2;b=3", changed.String())

	all := changed.Params.All()
	all[0].Value = "mutated"
	assert.Equal(t, "2", changed.Params.Get("a"))
}

func TestEssence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "text/html", MustParse("Text/HTML;charset=utf-8").Essence())
	assert.True(t, MustParse("TEXT/html").TypeEqual(MustParse("text/HTML;x=1")))
	assert.False(t, MustParse("text/html;x=1").Equal(MustParse("text/html")))
}

func TestValidValue(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidValue("utf-8"))
	assert.True(t, ValidValue("a b"))
	assert.False(t, ValidValue("a\nb"))
}

func TestMustParse_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { MustParse("not a media type") })
}
