package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different kinds of header failures
type ErrorType int

const (
	ErrorTypeGrammar ErrorType = iota
	ErrorTypeQuality
	ErrorTypeLanguageTag
	ErrorTypeEntityTag
	ErrorTypeCompression
)

// String returns a short name for the error type
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeGrammar:
		return "grammar"
	case ErrorTypeQuality:
		return "quality"
	case ErrorTypeLanguageTag:
		return "language-tag"
	case ErrorTypeEntityTag:
		return "entity-tag"
	case ErrorTypeCompression:
		return "compression"
	default:
		return "unknown"
	}
}

// Sentinel kinds for errors.Is. An *Error matches the sentinel of its Type.
var (
	ErrGrammar     = errors.New("conneg: grammar error")
	ErrQuality     = errors.New("conneg: invalid quality value")
	ErrLanguageTag = errors.New("conneg: invalid language tag")
	ErrEntityTag   = errors.New("conneg: invalid entity tag")
	ErrCompression = errors.New("conneg: compression error")
)

// Error represents a structured header parsing error
type Error struct {
	Type    ErrorType
	Message string
	Header  string // original header text
	Offset  int    // byte offset of the offending character, -1 if unknown
	Err     error  // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Offset < 0 {
		if e.Header == "" {
			return fmt.Sprintf("conneg: %s", e.Message)
		}
		return fmt.Sprintf("conneg: %s in %q", e.Message, e.Header)
	}
	return fmt.Sprintf("conneg: %s at offset %d in %q", e.Message, e.Offset, e.Header)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's type
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Type)
}

func sentinel(t ErrorType) error {
	switch t {
	case ErrorTypeGrammar:
		return ErrGrammar
	case ErrorTypeQuality:
		return ErrQuality
	case ErrorTypeLanguageTag:
		return ErrLanguageTag
	case ErrorTypeEntityTag:
		return ErrEntityTag
	case ErrorTypeCompression:
		return ErrCompression
	}
	return nil
}

// NewError creates a new Error
func NewError(errType ErrorType, message, header string, offset int) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Header:  header,
		Offset:  offset,
	}
}

// Wrap creates a new Error carrying cause
func Wrap(errType ErrorType, cause error, message, header string, offset int) *Error {
	e := NewError(errType, message, header, offset)
	e.Err = cause
	return e
}

// WithHeader returns err re-anchored to header at the given base offset.
// Errors raised while parsing a fragment (a parameter value, a single token)
// are reported against the full header the caller passed in.
func WithHeader(err error, header string, base int) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	out := *e
	out.Header = header
	if out.Offset >= 0 {
		out.Offset += base
	} else {
		out.Offset = base
	}
	return &out
}

// IsParseError checks if an error is a header parsing error
func IsParseError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// Offset returns the byte offset carried by err, or -1
func Offset(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Offset
	}
	return -1
}
