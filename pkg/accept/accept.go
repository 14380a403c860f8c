// Package accept reads quality-ranked lists from Accept-style headers.
//
// Every reader parses the header with a fresh reader.Reader, attaches the
// q (or qs) value and the zero-based position to each element, strips the
// quality parameters and sorts the result most preferred first:
//
//  1. quality, descending
//  2. specificity, descending: type/subtype > type/* > */*, and among
//     equally specific ranges one with parameters beats one without
//  3. position, in the order chosen by the Builder's TieBreak
//
// An empty header yields an empty list. A malformed header fails as a
// whole with an *errors.Error carrying the header and offset; nothing is
// skipped or repaired.
package accept

import (
	"cmp"
	"slices"
	"strings"

	"github.com/WhileEndless/go-conneg/pkg/errors"
	"github.com/WhileEndless/go-conneg/pkg/mediatype"
	"github.com/WhileEndless/go-conneg/pkg/quality"
	"github.com/WhileEndless/go-conneg/pkg/reader"
)

// TieBreak decides the order of elements with equal quality and specificity
type TieBreak int

const (
	// DeclarationOrder keeps equal elements in header order
	DeclarationOrder TieBreak = iota
	// ReverseDeclarationOrder puts later-declared equal elements first,
	// matching JAX-RS reference implementations
	ReverseDeclarationOrder
)

// Option configures a Builder
type Option func(*Builder)

// WithTieBreak sets the final ordering key
func WithTieBreak(t TieBreak) Option {
	return func(b *Builder) { b.tieBreak = t }
}

// Builder reads ranked lists. It holds only configuration and is safe for
// concurrent use.
type Builder struct {
	tieBreak TieBreak
}

// NewBuilder creates a Builder
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{tieBreak: DeclarationOrder}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var defaultBuilder = NewBuilder()

// ReadAcceptMediaType reads an Accept header with the default Builder
func ReadAcceptMediaType(header string) ([]AcceptableMediaType, error) {
	return defaultBuilder.ReadAcceptMediaType(header)
}

// ReadAcceptMediaTypeWithSource reads an Accept header ranked against
// server quality-of-source with the default Builder
func ReadAcceptMediaTypeWithSource(header string, sources []QualitySourceMediaType) ([]RankedMediaType, error) {
	return defaultBuilder.ReadAcceptMediaTypeWithSource(header, sources)
}

// ReadQualitySourceMediaType reads server media types with the default Builder
func ReadQualitySourceMediaType(headers ...string) ([]QualitySourceMediaType, error) {
	return defaultBuilder.ReadQualitySourceMediaType(headers...)
}

// ReadAcceptToken reads Accept-Encoding, Accept-Charset or TE with the default Builder
func ReadAcceptToken(header string) ([]AcceptableToken, error) {
	return defaultBuilder.ReadAcceptToken(header)
}

// ReadAcceptLanguage reads Accept-Language with the default Builder
func ReadAcceptLanguage(header string) ([]AcceptableLanguageTag, error) {
	return defaultBuilder.ReadAcceptLanguage(header)
}

// ReadMediaTypes reads a comma-separated list of media types, most specific first
func ReadMediaTypes(header string) ([]mediatype.MediaType, error) {
	return defaultBuilder.ReadMediaTypes(header)
}

// ReadAcceptMediaType reads an Accept header
func (b *Builder) ReadAcceptMediaType(header string) ([]AcceptableMediaType, error) {
	out := make([]AcceptableMediaType, 0, 4)
	err := reader.ReadList(header, func(src reader.Source) error {
		q := quality.Default
		m, err := mediatype.ReadRangeFunc(src, qualityParam(header, quality.Q, &q))
		if err != nil {
			return err
		}
		out = append(out, AcceptableMediaType{MediaType: m, Quality: q, Position: len(out)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, b.compareAcceptable)
	return out, nil
}

// ReadAcceptMediaTypeWithSource reads an Accept header and ranks every
// element by its quality multiplied by the qs of the most specific
// compatible server media type. Elements no server type matches rank with
// an effective quality of 0.
func (b *Builder) ReadAcceptMediaTypeWithSource(header string, sources []QualitySourceMediaType) ([]RankedMediaType, error) {
	acceptable, err := b.ReadAcceptMediaType(header)
	if err != nil {
		return nil, err
	}

	out := make([]RankedMediaType, len(acceptable))
	for i, a := range acceptable {
		ranked := RankedMediaType{AcceptableMediaType: a}
		if src := bestSource(a.MediaType, sources); src != nil {
			ranked.Source = src
			ranked.QualitySource = src.QualitySource
			ranked.Effective = quality.Multiply(a.Quality, src.QualitySource)
		}
		out[i] = ranked
	}

	slices.SortFunc(out, func(x, y RankedMediaType) int {
		if d := cmp.Compare(y.Effective, x.Effective); d != 0 {
			return d
		}
		return b.compareAcceptable(x.AcceptableMediaType, y.AcceptableMediaType)
	})
	return out, nil
}

// bestSource picks the compatible source with the highest specificity:
// exact type beats type/* beats */*. Ties go to the higher qs, then to the
// earlier declaration.
func bestSource(m mediatype.MediaType, sources []QualitySourceMediaType) *QualitySourceMediaType {
	var best *QualitySourceMediaType
	for i := range sources {
		s := &sources[i]
		if !m.IsCompatible(s.MediaType) {
			continue
		}
		if best == nil {
			best = s
			continue
		}
		if d := s.Specificity() - best.Specificity(); d != 0 {
			if d > 0 {
				best = s
			}
			continue
		}
		if s.QualitySource > best.QualitySource {
			best = s
		}
	}
	return best
}

// ReadQualitySourceMediaType reads server media types annotated with qs.
// Several values are read as one comma-separated list.
func (b *Builder) ReadQualitySourceMediaType(headers ...string) ([]QualitySourceMediaType, error) {
	header := strings.Join(headers, ",")
	out := make([]QualitySourceMediaType, 0, len(headers))
	err := reader.ReadList(header, func(src reader.Source) error {
		qs := quality.Default
		m, err := mediatype.ReadFunc(src, qualityParam(header, quality.QS, &qs))
		if err != nil {
			return err
		}
		out = append(out, QualitySourceMediaType{MediaType: m, QualitySource: qs, Position: len(out)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(x, y QualitySourceMediaType) int {
		if d := cmp.Compare(y.QualitySource, x.QualitySource); d != 0 {
			return d
		}
		if d := mediatype.CompareSpecificity(x.MediaType, y.MediaType); d != 0 {
			return d
		}
		return b.comparePosition(x.Position, y.Position)
	})
	return out, nil
}

// ReadAcceptToken reads a token list such as Accept-Encoding
func (b *Builder) ReadAcceptToken(header string) ([]AcceptableToken, error) {
	out := make([]AcceptableToken, 0, 4)
	err := reader.ReadList(header, func(src reader.Source) error {
		token, err := src.NextToken()
		if err != nil {
			return err
		}
		q := quality.Default
		params, err := mediatype.ReadParamsFunc(src, qualityParam(header, quality.Q, &q))
		if err != nil {
			return err
		}
		out = append(out, AcceptableToken{Token: token, Quality: q, Position: len(out), Params: params})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(x, y AcceptableToken) int {
		if d := cmp.Compare(y.Quality, x.Quality); d != 0 {
			return d
		}
		if x.IsWildcard() != y.IsWildcard() {
			if y.IsWildcard() {
				return -1
			}
			return 1
		}
		return b.comparePosition(x.Position, y.Position)
	})
	return out, nil
}

// ReadMediaTypes reads a plain media type list, ordered by specificity only
func (b *Builder) ReadMediaTypes(header string) ([]mediatype.MediaType, error) {
	type positioned struct {
		m   mediatype.MediaType
		pos int
	}
	var list []positioned
	err := reader.ReadList(header, func(src reader.Source) error {
		m, err := mediatype.Read(src)
		if err != nil {
			return err
		}
		list = append(list, positioned{m: m, pos: len(list)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(list, func(x, y positioned) int {
		if d := mediatype.CompareSpecificity(x.m, y.m); d != 0 {
			return d
		}
		return b.comparePosition(x.pos, y.pos)
	})
	out := make([]mediatype.MediaType, len(list))
	for i, p := range list {
		out[i] = p.m
	}
	return out, nil
}

func (b *Builder) compareAcceptable(x, y AcceptableMediaType) int {
	if d := cmp.Compare(y.Quality, x.Quality); d != 0 {
		return d
	}
	if d := mediatype.CompareSpecificity(x.MediaType, y.MediaType); d != 0 {
		return d
	}
	return b.comparePosition(x.Position, y.Position)
}

func (b *Builder) comparePosition(x, y int) int {
	if b.tieBreak == ReverseDeclarationOrder {
		return cmp.Compare(y, x)
	}
	return cmp.Compare(x, y)
}

// qualityParam returns a ParamFunc that parses the named quality parameter
// into dst and drops both q and qs from the parameter list.
func qualityParam(header, name string, dst *quality.Value) mediatype.ParamFunc {
	return func(param, value string, offset int) (bool, error) {
		if !quality.IsQualityParam(param) {
			return true, nil
		}
		if !strings.EqualFold(param, name) {
			return false, nil
		}
		q, err := quality.Parse(value)
		if err != nil {
			return false, errors.WithHeader(err, header, offset)
		}
		*dst = q
		return false, nil
	}
}
