// Package etag reads entity tags and If-Match / If-None-Match lists.
package etag

import (
	"strings"

	"github.com/WhileEndless/go-conneg/pkg/errors"
	"github.com/WhileEndless/go-conneg/pkg/reader"
)

// EntityTag is an opaque validator, strong unless Weak is set
type EntityTag struct {
	Value string
	Weak  bool
}

// Strong creates a strong entity tag
func Strong(value string) EntityTag {
	return EntityTag{Value: value}
}

// Weak creates a weak entity tag
func Weak(value string) EntityTag {
	return EntityTag{Value: value, Weak: true}
}

// Parse parses a single entity tag: `"v"` or `W/"v"`
func Parse(s string) (EntityTag, error) {
	r := reader.New(s)
	if !r.HasNext() {
		return EntityTag{}, errors.NewError(errors.ErrorTypeEntityTag, "empty entity tag", s, 0)
	}
	t, err := Read(r)
	if err != nil {
		return EntityTag{}, err
	}
	if r.HasNext() {
		return EntityTag{}, errors.NewError(errors.ErrorTypeEntityTag,
			"unexpected characters after entity tag", s, r.Index())
	}
	return t, nil
}

// Read reads one entity tag from src
func Read(src reader.Source) (EntityTag, error) {
	e, err := src.Next()
	if err != nil {
		return EntityTag{}, err
	}

	switch e {
	case reader.QuotedString:
		return EntityTag{Value: src.Value()}, nil
	case reader.Token:
		if src.Value() != "W" && src.Value() != "w" {
			break
		}
		if err := src.NextSeparator('/'); err != nil {
			return EntityTag{}, err
		}
		value, err := src.NextQuotedString()
		if err != nil {
			return EntityTag{}, err
		}
		return EntityTag{Value: value, Weak: true}, nil
	}
	return EntityTag{}, errors.NewError(errors.ErrorTypeEntityTag,
		"expected entity tag, got "+e.String()+" \""+src.Value()+"\"", src.Header(), src.Start())
}

// String renders the tag for a header
func (t EntityTag) String() string {
	var b strings.Builder
	if t.Weak {
		b.WriteString("W/")
	}
	b.WriteByte('"')
	for i := 0; i < len(t.Value); i++ {
		if c := t.Value[i]; c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(t.Value[i])
	}
	b.WriteByte('"')
	return b.String()
}

// StrongMatch reports whether both tags are strong and equal (RFC 7232 2.3.2)
func (t EntityTag) StrongMatch(o EntityTag) bool {
	return !t.Weak && !o.Weak && t.Value == o.Value
}

// WeakMatch reports whether the opaque values are equal
func (t EntityTag) WeakMatch(o EntityTag) bool {
	return t.Value == o.Value
}

// Set is a parsed If-Match or If-None-Match header
type Set struct {
	Any  bool // the header was "*"
	Tags []EntityTag
}

// ReadMatching reads an If-Match or If-None-Match header
func ReadMatching(header string) (Set, error) {
	if strings.TrimSpace(header) == "*" {
		return Set{Any: true}, nil
	}

	var set Set
	err := reader.ReadList(header, func(src reader.Source) error {
		t, err := Read(src)
		if err != nil {
			return err
		}
		set.Tags = append(set.Tags, t)
		return nil
	})
	if err != nil {
		return Set{}, err
	}
	return set, nil
}

// Matches reports whether t satisfies the set. If-Match compares strongly,
// If-None-Match weakly.
func (s Set) Matches(t EntityTag, weak bool) bool {
	if s.Any {
		return true
	}
	for _, candidate := range s.Tags {
		if weak && candidate.WeakMatch(t) || !weak && candidate.StrongMatch(t) {
			return true
		}
	}
	return false
}
