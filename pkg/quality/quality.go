// Package quality implements HTTP quality values as fixed-point thousandths.
//
// The grammar (RFC 7231 section 5.3.1) is
//
//	qvalue = ( "0" [ "." 0*3DIGIT ] ) / ( "1" [ "." 0*3("0") ] )
//
// so every valid value is exactly representable as an integer in [0, 1000].
// Comparisons on Value never drift the way float64 comparisons can.
package quality

import (
	"strconv"
	"strings"

	"github.com/WhileEndless/go-conneg/pkg/errors"
)

// Value is a quality value in thousandths (0..1000)
type Value int

const (
	// Minimum is q=0, "not acceptable"
	Minimum Value = 0
	// Default is q=1, applied when no q parameter is given
	Default Value = 1000
)

// Parameter names carrying quality metadata
const (
	Q  = "q"
	QS = "qs"
)

// maxLength is the longest valid literal, "0.999" or "1.000"
const maxLength = 5

// IsQualityParam reports whether name is q or qs, case-insensitively
func IsQualityParam(name string) bool {
	return strings.EqualFold(name, Q) || strings.EqualFold(name, QS)
}

// Parse parses a quality value literal.
// A leading "." (".5") is tolerated; some HTTP stacks send it.
func Parse(s string) (Value, error) {
	if s == "" {
		return 0, errors.NewError(errors.ErrorTypeQuality,
			"quality value cannot be empty", s, 0)
	}
	if len(s) > maxLength {
		return 0, errors.NewError(errors.ErrorTypeQuality,
			"quality value is longer than 5 characters", s, maxLength)
	}

	i := 0
	whole := s[0]
	switch whole {
	case '0', '1':
		i++
		if i == len(s) {
			return Value(whole-'0') * 1000, nil
		}
		if s[i] != '.' {
			return 0, errors.NewError(errors.ErrorTypeQuality,
				"expected decimal point, got '"+string(s[i])+"'", s, i)
		}
		i++
	case '.':
		i++
		if i == len(s) {
			return 0, errors.NewError(errors.ErrorTypeQuality,
				"expected digit after decimal point", s, i)
		}
		whole = '0'
	default:
		return 0, errors.NewError(errors.ErrorTypeQuality,
			"expected '0' or '1', got '"+string(whole)+"'", s, 0)
	}

	if len(s)-i > 3 {
		return 0, errors.NewError(errors.ErrorTypeQuality,
			"more than 3 decimal digits", s, i+3)
	}

	frac := 0
	exponent := 100
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, errors.NewError(errors.ErrorTypeQuality,
				"expected digit, got '"+string(c)+"'", s, i)
		}
		frac += int(c-'0') * exponent
		exponent /= 10
	}

	if whole == '1' {
		if frac > 0 {
			return 0, errors.NewError(errors.ErrorTypeQuality,
				"quality value "+s+" is greater than 1", s, 0)
		}
		return Default, nil
	}
	return Value(frac), nil
}

// Multiply combines a client quality with a server quality-of-source
func Multiply(q, qs Value) Value {
	return q * qs / Default
}

// Valid reports whether v is within [Minimum, Default]
func (v Value) Valid() bool {
	return v >= Minimum && v <= Default
}

// String renders the shortest decimal literal for v
func (v Value) String() string {
	switch {
	case v >= Default:
		return "1"
	case v <= Minimum:
		return "0"
	}
	frac := strconv.Itoa(int(v) + 1000)[1:] // zero-padded to 3 digits
	return "0." + strings.TrimRight(frac, "0")
}
