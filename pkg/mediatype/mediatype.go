// Package mediatype parses and compares media types and media ranges.
package mediatype

import (
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/WhileEndless/go-conneg/pkg/errors"
	"github.com/WhileEndless/go-conneg/pkg/quality"
	"github.com/WhileEndless/go-conneg/pkg/reader"
)

// Wildcard matches any type or subtype
const Wildcard = "*"

// Specificity levels, most specific highest
const (
	SpecificityWildcard        = 1 // */*
	SpecificityWildcardSubtype = 2 // type/*
	SpecificityConcrete        = 3 // type/subtype
)

// MediaType is a parsed media type or media range
type MediaType struct {
	Type    string
	Subtype string
	Params  Params
}

// Any is the full wildcard media range */*
var Any = MediaType{Type: Wildcard, Subtype: Wildcard}

// New creates a media type with the given parameters
func New(typ, subtype string, params ...Param) MediaType {
	return MediaType{Type: typ, Subtype: subtype, Params: NewParams(params...)}
}

// Parse parses exactly one media type, as found in Content-Type
func Parse(s string) (MediaType, error) {
	r := reader.New(s)
	if !r.HasNext() {
		return MediaType{}, errors.NewError(errors.ErrorTypeGrammar,
			"empty media type", s, 0)
	}
	return Read(r)
}

// MustParse is like Parse but panics on error. For static tables.
func MustParse(s string) MediaType {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParamFunc inspects a parameter as it is read. offset is where the value
// starts in the header (after the opening quote for quoted strings).
// Returning keep=false leaves the parameter out of the result.
type ParamFunc func(name, value string, offset int) (keep bool, err error)

// Read reads `type "/" subtype *( ";" parameter )` from src
func Read(src reader.Source) (MediaType, error) {
	return read(src, false, nil)
}

// ReadFunc is Read with a parameter hook
func ReadFunc(src reader.Source, fn ParamFunc) (MediaType, error) {
	return read(src, false, fn)
}

// ReadRange reads a media range as sent in Accept. A bare type without
// "/" is read as type/*, so the "*" sent by some Java clients means */*.
func ReadRange(src reader.Source) (MediaType, error) {
	return read(src, true, nil)
}

// ReadRangeFunc is ReadRange with a parameter hook
func ReadRangeFunc(src reader.Source, fn ParamFunc) (MediaType, error) {
	return read(src, true, fn)
}

func read(src reader.Source, lenient bool, fn ParamFunc) (MediaType, error) {
	typ, err := src.NextToken()
	if err != nil {
		return MediaType{}, err
	}

	subtype := Wildcard
	if !lenient || src.HasNextSeparator('/', true) {
		if err := src.NextSeparator('/'); err != nil {
			return MediaType{}, err
		}
		if subtype, err = src.NextToken(); err != nil {
			return MediaType{}, err
		}
	}

	params, err := ReadParamsFunc(src, fn)
	if err != nil {
		return MediaType{}, err
	}
	return MediaType{Type: typ, Subtype: subtype, Params: params}, nil
}

// ReadParams reads `*( ";" name "=" value )` until src is exhausted.
// Empty segments (";;") are skipped.
func ReadParams(src reader.Source) (Params, error) {
	return ReadParamsFunc(src, nil)
}

// ReadParamsFunc is ReadParams with a parameter hook
func ReadParamsFunc(src reader.Source, fn ParamFunc) (Params, error) {
	var params Params
	for src.HasNext() {
		if err := src.NextSeparator(';'); err != nil {
			return Params{}, err
		}
		for src.HasNextSeparator(';', true) {
			if _, err := src.Next(); err != nil {
				return Params{}, err
			}
		}
		if !src.HasNext() {
			break
		}

		name, err := src.NextToken()
		if err != nil {
			return Params{}, err
		}
		if err := src.NextSeparator('='); err != nil {
			return Params{}, err
		}
		value, err := src.NextTokenOrQuotedString()
		if err != nil {
			return Params{}, err
		}

		if fn != nil {
			offset := src.Start()
			if src.Event() == reader.QuotedString {
				offset++
			}
			keep, err := fn(name, value, offset)
			if err != nil {
				return Params{}, err
			}
			if !keep {
				continue
			}
		}
		params = params.with(name, value)
	}
	return params, nil
}

// IsWildcardType reports whether the type is *
func (m MediaType) IsWildcardType() bool {
	return m.Type == Wildcard
}

// IsWildcardSubtype reports whether the subtype is *
func (m MediaType) IsWildcardSubtype() bool {
	return m.Subtype == Wildcard
}

// IsCompatible reports whether m and o can describe the same representation.
// Wildcards on either side match; comparison is case-insensitive.
func (m MediaType) IsCompatible(o MediaType) bool {
	if m.IsWildcardType() || o.IsWildcardType() {
		return true
	}
	if !strings.EqualFold(m.Type, o.Type) {
		return false
	}
	return m.IsWildcardSubtype() || o.IsWildcardSubtype() || strings.EqualFold(m.Subtype, o.Subtype)
}

// TypeEqual reports whether type and subtype are equal, ignoring parameters
func (m MediaType) TypeEqual(o MediaType) bool {
	return strings.EqualFold(m.Type, o.Type) && strings.EqualFold(m.Subtype, o.Subtype)
}

// Equal reports whether type, subtype and parameters are equal
func (m MediaType) Equal(o MediaType) bool {
	return m.TypeEqual(o) && m.Params.Equal(o.Params)
}

// Specificity ranks how concrete the type and subtype are
func (m MediaType) Specificity() int {
	switch {
	case m.IsWildcardType():
		return SpecificityWildcard
	case m.IsWildcardSubtype():
		return SpecificityWildcardSubtype
	default:
		return SpecificityConcrete
	}
}

// hasContentParams reports whether m carries parameters other than q and qs
func (m MediaType) hasContentParams() bool {
	for _, p := range m.Params.list {
		if !quality.IsQualityParam(p.Name) {
			return true
		}
	}
	return false
}

// CompareSpecificity orders media types most specific first:
// m/n;p < m/n < m/* < */*. Returns <0 if a is more specific than b.
// The actual type names are ignored.
func CompareSpecificity(a, b MediaType) int {
	if d := b.Specificity() - a.Specificity(); d != 0 {
		return d
	}
	pa, pb := a.hasContentParams(), b.hasContentParams()
	switch {
	case pa && !pb:
		return -1
	case pb && !pa:
		return 1
	}
	return 0
}

// MostSpecific returns the more specific of a and b, a on a tie
func MostSpecific(a, b MediaType) MediaType {
	if a.IsWildcardSubtype() && !b.IsWildcardSubtype() {
		return b
	}
	if a.IsWildcardType() && !b.IsWildcardType() {
		return b
	}
	return a
}

// StripQuality returns m without q and qs parameters
func (m MediaType) StripQuality() MediaType {
	m.Params = m.Params.Without(quality.Q, quality.QS)
	return m
}

// WithParam returns a copy of m with the parameter set
func (m MediaType) WithParam(name, value string) MediaType {
	m.Params = m.Params.with(name, value)
	return m
}

// Essence returns "type/subtype" in lower case
func (m MediaType) Essence() string {
	return strings.ToLower(m.Type) + "/" + strings.ToLower(m.Subtype)
}

// String renders the media type for a header, quoting values that are not tokens
func (m MediaType) String() string {
	var b strings.Builder
	b.WriteString(m.Type)
	b.WriteByte('/')
	b.WriteString(m.Subtype)
	for _, p := range m.Params.list {
		b.WriteByte(';')
		b.WriteString(p.Name)
		b.WriteByte('=')
		writeValue(&b, p.Value)
	}
	return b.String()
}

func writeValue(b *strings.Builder, v string) {
	if reader.IsToken(v) {
		b.WriteString(v)
		return
	}
	b.WriteByte('"')
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
}

// ValidValue reports whether v can be written as a parameter value at all
func ValidValue(v string) bool {
	return httpguts.ValidHeaderFieldValue(v)
}
