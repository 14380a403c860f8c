package negotiate

import (
	stderrors "errors"

	"github.com/WhileEndless/go-conneg/pkg/accept"
	"github.com/WhileEndless/go-conneg/pkg/coding"
	"github.com/WhileEndless/go-conneg/pkg/headers"
	"github.com/WhileEndless/go-conneg/pkg/quality"
)

// ErrNotAcceptable is returned by Encode when the request refuses every
// coding the server offers, identity included
var ErrNotAcceptable = stderrors.New("negotiate: no acceptable content coding")

// implicitIdentity ranks identity below every coding the client named
const implicitIdentity quality.Value = 1

// SelectCoding picks the content coding for a response (RFC 9110 12.5.3).
//
// Without an Accept-Encoding header the response is not encoded. Otherwise
// the offered coding with the highest quality wins, ties going to the
// server's preference order. Identity is acceptable unless the header
// refuses it with identity;q=0, or with *;q=0 and no identity entry.
// ok is false when nothing offered is acceptable.
func (n *Negotiator) SelectCoding(h *headers.Headers) (c coding.Coding, ok bool, err error) {
	list, present, err := n.tokens(h, HeaderAcceptEncoding)
	if err != nil {
		return coding.Identity, false, err
	}
	if !present {
		return coding.Identity, true, nil
	}

	best, bestQ := coding.Identity, quality.Minimum
	for _, offered := range n.codings {
		q := codingQuality(list, offered)
		if q > bestQ {
			best, bestQ = offered, q
		}
	}
	return best, bestQ > quality.Minimum, nil
}

// codingQuality returns the quality of c: an exact entry beats *
func codingQuality(list []accept.AcceptableToken, c coding.Coding) quality.Value {
	var wildcard *accept.AcceptableToken
	for i := range list {
		t := &list[i]
		if t.IsWildcard() {
			if wildcard == nil {
				wildcard = t
			}
			continue
		}
		if named, ok := coding.Lookup(t.Token); ok && named == c {
			return t.Quality
		}
	}
	switch {
	case wildcard != nil:
		return wildcard.Quality
	case c == coding.Identity:
		return implicitIdentity
	default:
		return quality.Minimum
	}
}

// Encode negotiates a coding and encodes body with it
func (n *Negotiator) Encode(h *headers.Headers, body []byte) (coding.Coding, []byte, error) {
	c, ok, err := n.SelectCoding(h)
	if err != nil {
		return coding.Identity, nil, err
	}
	if !ok {
		return coding.Identity, nil, ErrNotAcceptable
	}

	encoded, err := coding.Encode(body, c, n.level)
	if err != nil {
		return coding.Identity, nil, err
	}
	n.logger.Debug("encoded response", "coding", c.Token(), "size", len(body), "encoded", len(encoded))
	return c, encoded, nil
}
