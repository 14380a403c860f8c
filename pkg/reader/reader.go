// Package reader implements a pull-based lexer for HTTP header values.
//
// A Reader walks a single header value and yields RFC 2616 tokens,
// quoted strings, comments and separators. Linear whitespace, including
// folded continuation lines, is skipped between tokens and never surfaced.
// Structured readers (media types, entity tags, parameter lists) drive a
// Reader through the typed accessors NextToken, NextSeparator and
// NextQuotedString, which fail when the grammar does not match.
//
// Readers are created per header value and are not safe for concurrent use.
package reader

import (
	"strings"

	"github.com/WhileEndless/go-conneg/pkg/errors"
)

// Event is the kind of the current token
type Event int

const (
	Token Event = iota
	QuotedString
	Comment
	Separator
)

func (e Event) String() string {
	switch e {
	case Token:
		return "token"
	case QuotedString:
		return "quoted string"
	case Comment:
		return "comment"
	case Separator:
		return "separator"
	default:
		return "unknown"
	}
}

// lexState is the state of the lexer while scanning one token
type lexState int

const (
	stateStart lexState = iota
	stateInToken
	stateInQuotedString
	stateInComment
	stateAfterEscape
)

// Source is the cursor protocol shared by Reader and ListReader
type Source interface {
	HasNext() bool
	HasNextSeparator(c byte, skipWhitespace bool) bool
	Next() (Event, error)
	Event() Event
	Value() string
	Start() int
	Index() int
	Header() string
	NextSeparator(c byte) error
	NextToken() (string, error)
	NextQuotedString() (string, error)
	NextTokenOrQuotedString() (string, error)
}

// Option configures a Reader
type Option func(*Reader)

// WithComments makes "(" open a comment token instead of being a separator.
// Comments appear in User-Agent, Server and Via.
func WithComments(enabled bool) Option {
	return func(r *Reader) { r.comments = enabled }
}

// WithBackslash keeps backslashes inside quoted strings.
// Browsers send unescaped Windows paths in filename parameters.
func WithBackslash(enabled bool) Option {
	return func(r *Reader) { r.preserveBackslash = enabled }
}

// Reader is a single-pass lexer over one header value
type Reader struct {
	header string
	index  int
	start  int

	event Event
	value string

	comments          bool
	preserveBackslash bool
}

// New creates a Reader over header. An empty header is immediately exhausted.
func New(header string, opts ...Option) *Reader {
	r := &Reader{header: header}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Header returns the full header value being read
func (r *Reader) Header() string {
	return r.header
}

// Index returns the offset just past the current token
func (r *Reader) Index() int {
	return r.index
}

// Start returns the offset where the current token begins
func (r *Reader) Start() int {
	return r.start
}

// Event returns the kind of the current token
func (r *Reader) Event() Event {
	return r.event
}

// Value returns the text of the current token.
// Quoted strings and comments are returned without delimiters or escapes.
func (r *Reader) Value() string {
	return r.value
}

// Remainder returns the unread part of the header
func (r *Reader) Remainder() string {
	return r.header[r.index:]
}

// HasNext reports whether another token can be read
func (r *Reader) HasNext() bool {
	return r.skip(r.index) < len(r.header)
}

// HasNextSeparator reports whether the next character is the separator c
func (r *Reader) HasNextSeparator(c byte, skipWhitespace bool) bool {
	i := r.index
	if skipWhitespace {
		i = r.skip(i)
	}
	return i < len(r.header) && r.header[i] == c
}

func (r *Reader) skip(i int) int {
	for i < len(r.header) && isWhitespace(r.header[i]) {
		i++
	}
	return i
}

// Next advances to the next token and returns its kind
func (r *Reader) Next() (Event, error) {
	r.index = r.skip(r.index)
	if r.index >= len(r.header) {
		return r.event, r.errorf("unexpected end of header", r.index)
	}

	start := r.index
	r.start = start
	state := stateStart
	resume := stateInQuotedString
	depth := 0
	var buf strings.Builder

	for {
		if r.index >= len(r.header) {
			switch state {
			case stateInToken:
				return r.emit(Token, r.header[start:r.index])
			case stateInComment:
				return r.event, r.errorf("unterminated comment", start)
			case stateAfterEscape:
				if resume == stateInComment {
					return r.event, r.errorf("unterminated comment", start)
				}
				return r.event, r.errorf("unterminated quoted string", start)
			default:
				return r.event, r.errorf("unterminated quoted string", start)
			}
		}

		c := r.header[r.index]
		switch state {
		case stateStart:
			switch {
			case c == '"':
				state = stateInQuotedString
			case c == '(' && r.comments:
				state = stateInComment
				depth = 1
			case isToken(c):
				state = stateInToken
			case isSeparator(c):
				r.index++
				return r.emit(Separator, r.header[start:r.index])
			default:
				return r.event, r.errorf("invalid character '"+printable(c)+"'", r.index)
			}
			r.index++

		case stateInToken:
			if !isToken(c) {
				return r.emit(Token, r.header[start:r.index])
			}
			r.index++

		case stateInQuotedString:
			switch {
			case c == '"':
				r.index++
				return r.emit(QuotedString, buf.String())
			case c == '\\':
				if r.preserveBackslash {
					buf.WriteByte(c)
				}
				resume = stateInQuotedString
				state = stateAfterEscape
			case isControl(c) && !isWhitespace(c):
				return r.event, r.errorf("control character in quoted string", r.index)
			default:
				buf.WriteByte(c)
			}
			r.index++

		case stateInComment:
			switch c {
			case '(':
				depth++
				buf.WriteByte(c)
			case ')':
				depth--
				if depth == 0 {
					r.index++
					return r.emit(Comment, buf.String())
				}
				buf.WriteByte(c)
			case '\\':
				resume = stateInComment
				state = stateAfterEscape
			default:
				if isControl(c) && !isWhitespace(c) {
					return r.event, r.errorf("control character in comment", r.index)
				}
				buf.WriteByte(c)
			}
			r.index++

		case stateAfterEscape:
			buf.WriteByte(c)
			state = resume
			r.index++
		}
	}
}

func (r *Reader) emit(e Event, value string) (Event, error) {
	r.event = e
	r.value = value
	return e, nil
}

func (r *Reader) errorf(message string, offset int) error {
	return errors.NewError(errors.ErrorTypeGrammar, message, r.header, offset)
}

// NextToken reads the next token, failing if it is not a token
func (r *Reader) NextToken() (string, error) { return nextToken(r) }

// NextSeparator consumes the separator c, failing on anything else
func (r *Reader) NextSeparator(c byte) error { return nextSeparator(r, c) }

// NextQuotedString reads the next quoted string, without quotes and escapes
func (r *Reader) NextQuotedString() (string, error) { return nextQuotedString(r) }

// NextTokenOrQuotedString reads a token or a quoted string
func (r *Reader) NextTokenOrQuotedString() (string, error) { return nextTokenOrQuotedString(r) }

// cursor is the subset of Source the typed accessors are built on
type cursor interface {
	Next() (Event, error)
	Value() string
	Start() int
	Header() string
}

func nextToken(c cursor) (string, error) {
	e, err := c.Next()
	if err != nil {
		return "", err
	}
	if e != Token {
		return "", unexpected(c, "token", e)
	}
	return c.Value(), nil
}

func nextSeparator(c cursor, sep byte) error {
	e, err := c.Next()
	if err != nil {
		return err
	}
	if e != Separator {
		return unexpected(c, "separator '"+string(sep)+"'", e)
	}
	if got := c.Value()[0]; got != sep {
		return errors.NewError(errors.ErrorTypeGrammar,
			"expected separator '"+string(sep)+"' instead of '"+string(got)+"'",
			c.Header(), c.Start())
	}
	return nil
}

func nextQuotedString(c cursor) (string, error) {
	e, err := c.Next()
	if err != nil {
		return "", err
	}
	if e != QuotedString {
		return "", unexpected(c, "quoted string", e)
	}
	return c.Value(), nil
}

func nextTokenOrQuotedString(c cursor) (string, error) {
	e, err := c.Next()
	if err != nil {
		return "", err
	}
	if e != Token && e != QuotedString {
		return "", unexpected(c, "token or quoted string", e)
	}
	return c.Value(), nil
}

// unexpected reports a token of the wrong kind at the offset where it starts
func unexpected(c cursor, want string, got Event) error {
	return errors.NewError(errors.ErrorTypeGrammar,
		"expected "+want+", got "+got.String()+" \""+c.Value()+"\"",
		c.Header(), c.Start())
}

func printable(c byte) string {
	if c < 0x20 || c >= 0x7f {
		const hex = "0123456789abcdef"
		return "\\x" + string(hex[c>>4]) + string(hex[c&0xf])
	}
	return string(c)
}
