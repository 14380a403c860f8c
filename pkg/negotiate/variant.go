package negotiate

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/WhileEndless/go-conneg/pkg/accept"
	"github.com/WhileEndless/go-conneg/pkg/headers"
	"github.com/WhileEndless/go-conneg/pkg/mediatype"
	"github.com/WhileEndless/go-conneg/pkg/quality"
)

// Variant is one representation of a resource. Empty fields do not take
// part in negotiation.
type Variant struct {
	MediaType mediatype.MediaType // may carry qs and charset parameters
	Language  string              // BCP 47 tag
	Encoding  string              // content coding token
}

// NewVariant builds a Variant, parsing mediaType when it is not empty
func NewVariant(mediaType, language, encoding string) (Variant, error) {
	v := Variant{Language: language, Encoding: encoding}
	if mediaType == "" {
		return v, nil
	}
	m, err := mediatype.Parse(mediaType)
	if err != nil {
		return Variant{}, err
	}
	if qs, ok := m.Params.Lookup(quality.QS); ok {
		if _, err := quality.Parse(qs); err != nil {
			return Variant{}, err
		}
	}
	v.MediaType = m
	return v, nil
}

// QualitySource returns the qs parameter of the media type, 1 when absent
func (v Variant) QualitySource() quality.Value {
	if qs, ok := v.MediaType.Params.Lookup(quality.QS); ok {
		if q, err := quality.Parse(qs); err == nil {
			return q
		}
	}
	return quality.Default
}

// Charset returns the charset parameter of the media type
func (v Variant) Charset() string {
	return v.MediaType.Params.Get("charset")
}

// score ranks a variant along one dimension
type score struct {
	present bool
	qs      quality.Value
	q       quality.Value
}

func compareScore(x, y score) int {
	if x.present != y.present {
		if x.present {
			return -1
		}
		return 1
	}
	if d := cmp.Compare(y.qs, x.qs); d != 0 {
		return d
	}
	return cmp.Compare(y.q, x.q)
}

// dimension reads one Accept header and scores variants against it.
// rate returns ok=false when the variant value is not acceptable.
type dimension struct {
	header string
	value  func(Variant) string
	rate   func(Variant) (score, bool)
}

type candidate struct {
	variant  Variant
	position int
	scores   []score
}

// SelectVariants returns the acceptable variants, best first, and the
// value of the Vary header naming every Accept header that was consulted.
//
// Variants are ranked by media type (qs, then q), then language, then
// charset, then encoding. A variant that leaves a dimension empty ranks
// after the ones that set it. Equal variants keep their order.
func (n *Negotiator) SelectVariants(h *headers.Headers, variants []Variant) (selected []Variant, vary string, err error) {
	dims, err := n.dimensions(h)
	if err != nil {
		return nil, "", err
	}

	consulted := lo.Filter(dims, func(d dimension, _ int) bool {
		return lo.SomeBy(variants, func(v Variant) bool { return d.value(v) != "" })
	})
	vary = strings.Join(lo.Map(consulted, func(d dimension, _ int) string { return d.header }), ", ")

	candidates := make([]candidate, 0, len(variants))
	for i, v := range variants {
		c := candidate{variant: v, position: i, scores: make([]score, len(dims))}
		acceptable := true
		for j, d := range dims {
			if d.value(v) == "" {
				continue
			}
			s, ok := d.rate(v)
			if !ok {
				acceptable = false
				break
			}
			c.scores[j] = s
		}
		if acceptable {
			candidates = append(candidates, c)
		}
	}

	slices.SortStableFunc(candidates, func(x, y candidate) int {
		for j := range dims {
			if d := compareScore(x.scores[j], y.scores[j]); d != 0 {
				return d
			}
		}
		return 0
	})

	if len(candidates) == 0 {
		n.logger.Debug("no acceptable variant", "variants", len(variants), "vary", vary)
	}
	return lo.Map(candidates, func(c candidate, _ int) Variant { return c.variant }), vary, nil
}

// SelectVariant returns the best acceptable variant.
// ok is false when none is acceptable.
func (n *Negotiator) SelectVariant(h *headers.Headers, variants []Variant) (best Variant, vary string, ok bool, err error) {
	selected, vary, err := n.SelectVariants(h, variants)
	if err != nil {
		return Variant{}, "", false, err
	}
	if len(selected) == 0 {
		return Variant{}, vary, false, nil
	}
	return selected[0], vary, true, nil
}

func (n *Negotiator) dimensions(h *headers.Headers) ([]dimension, error) {
	mediaTypes, err := n.MediaTypes(h)
	if err != nil {
		return nil, err
	}
	languages, err := n.Languages(h)
	if err != nil {
		return nil, err
	}
	charsets, err := n.Charsets(h)
	if err != nil {
		return nil, err
	}
	encodings, err := n.Encodings(h)
	if err != nil {
		return nil, err
	}

	return []dimension{
		{
			header: HeaderAccept,
			value:  func(v Variant) string { return v.MediaType.Type },
			rate: func(v Variant) (score, bool) {
				a, ok := mostSpecificRange(mediaTypes, v.MediaType)
				return score{present: true, qs: v.QualitySource(), q: a.Quality}, ok && a.Quality > quality.Minimum
			},
		},
		{
			header: HeaderAcceptLanguage,
			value:  func(v Variant) string { return v.Language },
			rate: func(v Variant) (score, bool) {
				return rateBest(languages, v.Language,
					accept.AcceptableLanguageTag.IsCompatible,
					accept.AcceptableLanguageTag.Specificity,
					func(l accept.AcceptableLanguageTag) quality.Value { return l.Quality })
			},
		},
		{
			header: HeaderAcceptCharset,
			value:  Variant.Charset,
			rate: func(v Variant) (score, bool) {
				return rateBest(charsets, v.Charset(),
					accept.AcceptableToken.IsCompatible,
					accept.AcceptableToken.Specificity,
					func(t accept.AcceptableToken) quality.Value { return t.Quality })
			},
		},
		{
			header: HeaderAcceptEncoding,
			value:  func(v Variant) string { return v.Encoding },
			rate: func(v Variant) (score, bool) {
				// identity stays acceptable unless refused
				if strings.EqualFold(v.Encoding, "identity") && !lo.SomeBy(encodings, func(t accept.AcceptableToken) bool {
					return t.IsCompatible(v.Encoding)
				}) {
					return score{present: true, q: implicitIdentity}, true
				}
				return rateBest(encodings, v.Encoding,
					accept.AcceptableToken.IsCompatible,
					accept.AcceptableToken.Specificity,
					func(t accept.AcceptableToken) quality.Value { return t.Quality })
			},
		},
	}, nil
}

// rateBest scores value by the most specific compatible entry of list
func rateBest[T any](list []T, value string, compatible func(T, string) bool, specificity func(T) int, q func(T) quality.Value) (score, bool) {
	var best T
	found := false
	for _, item := range list {
		if !compatible(item, value) {
			continue
		}
		if !found || specificity(item) > specificity(best) {
			best, found = item, true
		}
	}
	if !found || q(best) == quality.Minimum {
		return score{}, false
	}
	return score{present: true, q: q(best)}, true
}
