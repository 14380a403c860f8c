package accept

import (
	"cmp"
	stderrors "errors"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"github.com/WhileEndless/go-conneg/pkg/errors"
	"github.com/WhileEndless/go-conneg/pkg/mediatype"
	"github.com/WhileEndless/go-conneg/pkg/quality"
	"github.com/WhileEndless/go-conneg/pkg/reader"
)

// ReadAcceptLanguage reads an Accept-Language header.
// Tags must be well-formed BCP 47; unknown but well-formed subtags are kept.
func (b *Builder) ReadAcceptLanguage(header string) ([]AcceptableLanguageTag, error) {
	out := make([]AcceptableLanguageTag, 0, 4)
	err := reader.ReadList(header, func(src reader.Source) error {
		tag, err := src.NextToken()
		if err != nil {
			return err
		}
		l, err := parseLanguageTag(tag)
		if err != nil {
			return errors.WithHeader(err, header, src.Start())
		}
		q := quality.Default
		if _, err := mediatype.ReadParamsFunc(src, qualityParam(header, quality.Q, &q)); err != nil {
			return err
		}
		l.Quality = q
		l.Position = len(out)
		out = append(out, l)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(x, y AcceptableLanguageTag) int {
		if d := cmp.Compare(y.Quality, x.Quality); d != 0 {
			return d
		}
		if d := y.Specificity() - x.Specificity(); d != 0 {
			return d
		}
		return b.comparePosition(x.Position, y.Position)
	})
	return out, nil
}

// ParseLanguageTag parses a single language range
func ParseLanguageTag(tag string) (AcceptableLanguageTag, error) {
	l, err := parseLanguageTag(tag)
	if err != nil {
		return AcceptableLanguageTag{}, err
	}
	l.Quality = quality.Default
	return l, nil
}

func parseLanguageTag(tag string) (AcceptableLanguageTag, error) {
	if tag == mediatype.Wildcard {
		return AcceptableLanguageTag{Tag: tag, Primary: tag, Language: language.Und}, nil
	}

	parsed, err := language.Parse(tag)
	if err != nil {
		var unknown language.ValueError
		if !stderrors.As(err, &unknown) {
			return AcceptableLanguageTag{}, errors.Wrap(errors.ErrorTypeLanguageTag, err,
				"invalid language tag \""+tag+"\"", tag, 0)
		}
	}

	primary, sub, _ := strings.Cut(tag, "-")
	return AcceptableLanguageTag{
		Tag:      tag,
		Primary:  primary,
		Sub:      sub,
		Language: parsed,
	}, nil
}
