package accept

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/WhileEndless/go-conneg/pkg/mediatype"
	"github.com/WhileEndless/go-conneg/pkg/quality"
)

// AcceptableMediaType is a media range from an Accept header.
// Quality holds the q parameter, which is removed from Params.
type AcceptableMediaType struct {
	mediatype.MediaType
	Quality  quality.Value
	Position int // zero-based position in the header
}

// String renders the media range with its q parameter
func (a AcceptableMediaType) String() string {
	if a.Quality == quality.Default {
		return a.MediaType.String()
	}
	return a.MediaType.String() + ";q=" + a.Quality.String()
}

// QualitySourceMediaType is a media type a server can produce, ranked by qs
type QualitySourceMediaType struct {
	mediatype.MediaType
	QualitySource quality.Value
	Position      int
}

// String renders the media type with its qs parameter
func (s QualitySourceMediaType) String() string {
	if s.QualitySource == quality.Default {
		return s.MediaType.String()
	}
	return s.MediaType.String() + ";qs=" + s.QualitySource.String()
}

// RankedMediaType is an acceptable media type ranked against server
// quality-of-source. Effective is Quality multiplied by QualitySource.
type RankedMediaType struct {
	AcceptableMediaType
	QualitySource quality.Value
	Effective     quality.Value
	Source        *QualitySourceMediaType // nil when no server type matched
}

// AcceptableToken is a token from Accept-Encoding, Accept-Charset or TE
type AcceptableToken struct {
	Token    string
	Quality  quality.Value
	Position int
	Params   mediatype.Params
}

// IsWildcard reports whether the token is *
func (t AcceptableToken) IsWildcard() bool {
	return t.Token == mediatype.Wildcard
}

// IsCompatible reports whether s is covered by this token
func (t AcceptableToken) IsCompatible(s string) bool {
	return t.IsWildcard() || strings.EqualFold(t.Token, s)
}

// Specificity is 0 for * and 1 for a concrete token
func (t AcceptableToken) Specificity() int {
	if t.IsWildcard() {
		return 0
	}
	return 1
}

// AcceptableLanguageTag is a language range from Accept-Language
type AcceptableLanguageTag struct {
	Tag      string // as sent, e.g. "en-US" or "*"
	Primary  string // "en"
	Sub      string // "US", empty when absent
	Quality  quality.Value
	Position int
	Language language.Tag // canonical tag, language.Und for *
}

// IsWildcard reports whether the range is *
func (l AcceptableLanguageTag) IsWildcard() bool {
	return l.Tag == mediatype.Wildcard
}

// Specificity is 0 for *, 1 for a primary language and 2 with a subtag
func (l AcceptableLanguageTag) Specificity() int {
	switch {
	case l.IsWildcard():
		return 0
	case l.Sub == "":
		return 1
	default:
		return 2
	}
}

// IsCompatible reports whether the language tag tag is covered by this range.
// A range without a subtag matches every tag with the same primary language.
func (l AcceptableLanguageTag) IsCompatible(tag string) bool {
	if l.IsWildcard() {
		return true
	}
	primary, sub, _ := strings.Cut(tag, "-")
	if !strings.EqualFold(l.Primary, primary) {
		return false
	}
	return l.Sub == "" || strings.EqualFold(l.Sub, sub)
}
