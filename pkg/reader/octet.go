package reader

import "golang.org/x/net/http/httpguts"

// octetType describes the character class of a header byte.
//
// From RFC 2616 section 2.2:
//
//	CTL        = <any US-ASCII control character (octets 0 - 31) and DEL (127)>
//	LWS        = [CRLF] 1*( SP | HT )
//	separators = "(" | ")" | "<" | ">" | "@"
//	           | "," | ";" | ":" | "\" | <">
//	           | "/" | "[" | "]" | "?" | "="
//	           | "{" | "}" | SP | HT
//	token      = 1*<any CHAR except CTLs or separators>
type octetType byte

const (
	octetToken octetType = 1 << iota
	octetSeparator
	octetSpace
	octetControl
)

var octetTypes [256]octetType

func init() {
	for c := 0; c < 256; c++ {
		var t octetType
		if c < 0x80 && httpguts.IsTokenRune(rune(c)) {
			t |= octetToken
		}
		switch c {
		case '(', ')', '<', '>', '@', ',', ';', ':', '\\', '"',
			'/', '[', ']', '?', '=', '{', '}':
			t |= octetSeparator
		case ' ', '\t', '\r', '\n':
			t |= octetSpace
		}
		if c <= 31 || c == 127 {
			t |= octetControl
		}
		octetTypes[c] = t
	}
}

func isToken(c byte) bool      { return octetTypes[c]&octetToken != 0 }
func isSeparator(c byte) bool  { return octetTypes[c]&octetSeparator != 0 }
func isWhitespace(c byte) bool { return octetTypes[c]&octetSpace != 0 }
func isControl(c byte) bool    { return octetTypes[c]&octetControl != 0 }

// IsToken reports whether s is a non-empty RFC 2616 token
func IsToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isToken(s[i]) {
			return false
		}
	}
	return true
}
