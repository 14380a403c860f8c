// Package negotiate selects representations for a request from its
// Accept, Accept-Language, Accept-Charset and Accept-Encoding headers.
//
// A Negotiator holds only configuration. Every call reads the request
// headers afresh, so one Negotiator can serve many goroutines:
//
//	n := negotiate.New(
//		negotiate.WithLogger(logger),
//		negotiate.WithStrict(negotiate.HeaderAccept),
//	)
//	best, ok, err := n.SelectMediaType(h, produces)
//
// Headers that fail to parse are ignored and logged at Debug level unless
// they were named in WithStrict, in which case the error is returned.
package negotiate

import (
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/WhileEndless/go-conneg/pkg/accept"
	"github.com/WhileEndless/go-conneg/pkg/coding"
	"github.com/WhileEndless/go-conneg/pkg/errors"
	"github.com/WhileEndless/go-conneg/pkg/headers"
	"github.com/WhileEndless/go-conneg/pkg/mediatype"
	"github.com/WhileEndless/go-conneg/pkg/quality"
)

// Request header names read by the Negotiator
const (
	HeaderAccept         = "Accept"
	HeaderAcceptLanguage = "Accept-Language"
	HeaderAcceptCharset  = "Accept-Charset"
	HeaderAcceptEncoding = "Accept-Encoding"
)

// Option configures a Negotiator
type Option func(*Negotiator)

// WithLogger sets the logger used to report ignored headers.
// If not provided, nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Negotiator) {
		n.logger = logger
	}
}

// WithTieBreak sets how equally ranked entries of one header are ordered
func WithTieBreak(t accept.TieBreak) Option {
	return func(n *Negotiator) {
		n.tieBreak = t
	}
}

// WithStrict makes parse failures of the named headers fail the call
// instead of being ignored
func WithStrict(names ...string) Option {
	return func(n *Negotiator) {
		for _, name := range names {
			n.strict[strings.ToLower(name)] = true
		}
	}
}

// WithCodings sets the content codings the server offers, most preferred
// first. Identity is always available.
// Default: coding.All()
func WithCodings(codings ...coding.Coding) Option {
	return func(n *Negotiator) {
		n.codings = codings
	}
}

// WithCompressionLevel sets the level Encode compresses with.
// Default: coding.DefaultLevel
func WithCompressionLevel(level int) Option {
	return func(n *Negotiator) {
		n.level = level
	}
}

// Negotiator performs server-driven content negotiation
type Negotiator struct {
	logger   *slog.Logger
	tieBreak accept.TieBreak
	strict   map[string]bool
	codings  []coding.Coding
	level    int
	builder  *accept.Builder
}

// New creates a Negotiator
func New(opts ...Option) *Negotiator {
	n := &Negotiator{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tieBreak: accept.DeclarationOrder,
		strict:   make(map[string]bool),
		codings:  coding.All(),
		level:    coding.DefaultLevel,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.codings = lo.Uniq(append(slices.Clip(n.codings), coding.Identity))
	n.builder = accept.NewBuilder(accept.WithTieBreak(n.tieBreak))
	return n
}

// MediaTypes returns the acceptable media ranges of the request.
// A missing or empty Accept header accepts */*.
func (n *Negotiator) MediaTypes(h *headers.Headers) ([]accept.AcceptableMediaType, error) {
	if value, ok := joined(h, HeaderAccept); ok {
		list, err := n.builder.ReadAcceptMediaType(value)
		switch {
		case err != nil:
			if err := n.failed(HeaderAccept, value, err); err != nil {
				return nil, err
			}
		case len(list) > 0:
			return list, nil
		}
	}
	return []accept.AcceptableMediaType{{MediaType: mediatype.Any, Quality: quality.Default}}, nil
}

// Languages returns the acceptable language ranges of the request.
// A missing or empty Accept-Language header accepts *.
func (n *Negotiator) Languages(h *headers.Headers) ([]accept.AcceptableLanguageTag, error) {
	if value, ok := joined(h, HeaderAcceptLanguage); ok {
		list, err := n.builder.ReadAcceptLanguage(value)
		switch {
		case err != nil:
			if err := n.failed(HeaderAcceptLanguage, value, err); err != nil {
				return nil, err
			}
		case len(list) > 0:
			return list, nil
		}
	}
	wildcard, _ := accept.ParseLanguageTag(mediatype.Wildcard)
	return []accept.AcceptableLanguageTag{wildcard}, nil
}

// Charsets returns the acceptable charsets of the request.
// A missing or empty Accept-Charset header accepts *.
func (n *Negotiator) Charsets(h *headers.Headers) ([]accept.AcceptableToken, error) {
	list, present, err := n.tokens(h, HeaderAcceptCharset)
	if err != nil {
		return nil, err
	}
	if !present || len(list) == 0 {
		return wildcardTokens(), nil
	}
	return list, nil
}

// Encodings returns the acceptable content codings of the request.
// A missing Accept-Encoding header accepts *; an empty one accepts only
// identity and yields an empty list.
func (n *Negotiator) Encodings(h *headers.Headers) ([]accept.AcceptableToken, error) {
	list, present, err := n.tokens(h, HeaderAcceptEncoding)
	if err != nil {
		return nil, err
	}
	if !present {
		return wildcardTokens(), nil
	}
	return list, nil
}

// tokens reads a token list header; present is false when the header is
// missing or was ignored because it did not parse
func (n *Negotiator) tokens(h *headers.Headers, name string) (list []accept.AcceptableToken, present bool, err error) {
	value, ok := joined(h, name)
	if !ok {
		return nil, false, nil
	}
	list, err = n.builder.ReadAcceptToken(value)
	if err != nil {
		return nil, false, n.failed(name, value, err)
	}
	return list, true, nil
}

// failed returns err when name is strict. Otherwise it logs err and
// returns nil so the caller falls back to the default list.
func (n *Negotiator) failed(name, value string, err error) error {
	if n.strict[strings.ToLower(name)] {
		return err
	}
	n.logger.Debug("ignoring malformed header",
		"header", name,
		"value", value,
		"offset", errors.Offset(err),
		"error", err,
	)
	return nil
}

func joined(h *headers.Headers, name string) (string, bool) {
	if h == nil {
		return "", false
	}
	return h.Joined(name)
}

func wildcardTokens() []accept.AcceptableToken {
	return []accept.AcceptableToken{{Token: mediatype.Wildcard, Quality: quality.Default}}
}
