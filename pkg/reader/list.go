package reader

import "github.com/WhileEndless/go-conneg/pkg/errors"

// ListReader presents one element of a comma-separated list.
// A top-level "," looks like the end of input until Reset is called.
type ListReader struct {
	r *Reader
}

// NewListReader wraps r
func NewListReader(r *Reader) *ListReader {
	return &ListReader{r: r}
}

// HasNext reports whether the current element has another token
func (l *ListReader) HasNext() bool {
	return l.r.HasNext() && !l.r.HasNextSeparator(',', true)
}

// HasNextSeparator peeks for c within the current element
func (l *ListReader) HasNextSeparator(c byte, skipWhitespace bool) bool {
	if c == ',' || !l.HasNext() {
		return false
	}
	return l.r.HasNextSeparator(c, skipWhitespace)
}

// Next advances within the current element
func (l *ListReader) Next() (Event, error) {
	if !l.HasNext() {
		return l.r.event, errors.NewError(errors.ErrorTypeGrammar,
			"unexpected end of list element", l.r.header, l.r.skip(l.r.index))
	}
	return l.r.Next()
}

// Reset consumes the "," that terminates the current element, if any
func (l *ListReader) Reset() error {
	if !l.r.HasNext() {
		return nil
	}
	return l.r.NextSeparator(',')
}

func (l *ListReader) Event() Event   { return l.r.Event() }
func (l *ListReader) Value() string  { return l.r.Value() }
func (l *ListReader) Start() int     { return l.r.Start() }
func (l *ListReader) Index() int     { return l.r.Index() }
func (l *ListReader) Header() string { return l.r.Header() }

func (l *ListReader) NextToken() (string, error)        { return nextToken(l) }
func (l *ListReader) NextSeparator(c byte) error        { return nextSeparator(l, c) }
func (l *ListReader) NextQuotedString() (string, error) { return nextQuotedString(l) }
func (l *ListReader) NextTokenOrQuotedString() (string, error) {
	return nextTokenOrQuotedString(l)
}

// ReadList calls create once per element of a comma-separated header.
// Empty elements (", ,") are skipped as RFC 7230 section 7 requires.
// create must consume its element completely; anything left over other
// than the terminating "," is a grammar error.
func ReadList(header string, create func(src Source) error, opts ...Option) error {
	r := New(header, opts...)
	list := NewListReader(r)

	for r.HasNext() {
		if r.HasNextSeparator(',', true) {
			if _, err := r.Next(); err != nil {
				return err
			}
			continue
		}
		if err := create(list); err != nil {
			return err
		}
		if list.HasNext() {
			if _, err := r.Next(); err != nil {
				return err
			}
			return errors.NewError(errors.ErrorTypeGrammar,
				"unexpected "+r.Event().String()+" \""+r.Value()+"\" after list element",
				header, r.Start())
		}
		if err := list.Reset(); err != nil {
			return err
		}
	}
	return nil
}

// ReadStringList reads a comma-separated list of tokens (Vary, Allow, Connection)
func ReadStringList(header string) ([]string, error) {
	out := make([]string, 0, 4)
	err := ReadList(header, func(src Source) error {
		token, err := src.NextToken()
		if err != nil {
			return err
		}
		out = append(out, token)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
