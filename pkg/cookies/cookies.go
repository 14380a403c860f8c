package cookies

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/WhileEndless/go-conneg/pkg/reader"
)

// Cookie represents a request cookie (from Cookie header).
// Version, Path and Domain come from RFC 2109 $-attributes.
type Cookie struct {
	Name    string
	Value   string
	Version int
	Path    string
	Domain  string
}

// ParseCookies parses Cookie header value
// Never fails - returns empty slice if malformed
// Format: "name1=value1; name2=value2" or
// "$Version=1; name1=value1; $Path=/; name2=value2"
// Both ";" and "," separate cookies. $Version applies to every cookie
// after it; $Path and $Domain attach to the cookie before them.
func ParseCookies(cookieHeader string) []Cookie {
	cookies := []Cookie{}
	if cookieHeader == "" {
		return cookies
	}

	version := 0
	for _, part := range split(cookieHeader) {
		name, value, _ := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		value = unquote(strings.TrimSpace(value))
		if name == "" {
			continue
		}

		if name[0] == '$' {
			attr := strings.ToLower(name[1:])
			if attr == "version" {
				if v, err := strconv.Atoi(value); err == nil {
					version = v
				}
				continue
			}
			if len(cookies) == 0 {
				continue
			}
			last := &cookies[len(cookies)-1]
			switch attr {
			case "path":
				last.Path = value
			case "domain":
				last.Domain = value
			}
			continue
		}

		cookies = append(cookies, Cookie{
			Name:    name,
			Value:   value,
			Version: version,
		})
	}

	return cookies
}

// split cuts a cookie header on ";" and "," outside of quoted strings
func split(header string) []string {
	var parts []string
	start := 0
	quoted := false
	for i := 0; i < len(header); i++ {
		switch c := header[i]; {
		case c == '\\' && quoted:
			i++
		case c == '"':
			quoted = !quoted
		case (c == ';' || c == ',') && !quoted:
			if part := strings.TrimSpace(header[start:i]); part != "" {
				parts = append(parts, part)
			}
			start = i + 1
		}
	}
	if part := strings.TrimSpace(header[start:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}

// unquote strips quotes and escapes from a quoted-string value.
// Values that are not well-formed quoted strings are returned as-is.
func unquote(value string) string {
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return value
	}
	r := reader.New(value)
	s, err := r.NextQuotedString()
	if err != nil || r.HasNext() {
		return value[1 : len(value)-1]
	}
	return s
}

// BuildCookieHeader builds Cookie header from cookies
// Format: "name1=value1; name2=value2"
// A $Version prefix is written when any cookie has a non-zero version.
func BuildCookieHeader(cookies []Cookie) string {
	if len(cookies) == 0 {
		return ""
	}

	var parts []string
	version := 0
	for _, cookie := range cookies {
		if cookie.Version > version {
			version = cookie.Version
		}
	}
	if version > 0 {
		parts = append(parts, "$Version="+strconv.Itoa(version))
	}

	for _, cookie := range cookies {
		if cookie.Name == "" {
			continue
		}
		parts = append(parts, cookie.Name+"="+cookie.Value)
		if version > 0 && cookie.Path != "" {
			parts = append(parts, "$Path="+cookie.Path)
		}
		if version > 0 && cookie.Domain != "" {
			parts = append(parts, "$Domain="+cookie.Domain)
		}
	}

	return strings.Join(parts, "; ")
}

// ResponseCookie is a parsed Set-Cookie header.
// MaxAge is -1 when the attribute is absent.
type ResponseCookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  string
	MaxAge   int
	Version  int
	Comment  string
	Secure   bool
	HttpOnly bool
	SameSite string
	Raw      string // header as received
}

// attributes maps lower-cased Set-Cookie attribute names to their setters.
// Flags (Secure, HttpOnly) are set whether or not they carry a value.
var attributes = map[string]func(c *ResponseCookie, value string){
	"path":     func(c *ResponseCookie, v string) { c.Path = v },
	"domain":   func(c *ResponseCookie, v string) { c.Domain = v },
	"expires":  func(c *ResponseCookie, v string) { c.Expires = v },
	"comment":  func(c *ResponseCookie, v string) { c.Comment = v },
	"samesite": func(c *ResponseCookie, v string) { c.SameSite = v },
	"max-age":  func(c *ResponseCookie, v string) { atoi(v, &c.MaxAge) },
	"version":  func(c *ResponseCookie, v string) { atoi(v, &c.Version) },
	"secure":   func(c *ResponseCookie, _ string) { c.Secure = true },
	"httponly": func(c *ResponseCookie, _ string) { c.HttpOnly = true },
}

// ParseSetCookie parses a Set-Cookie header. It never fails: unknown
// attributes and unparsable numbers are skipped.
// Expires contains a comma, so attributes are split on ";" only.
func ParseSetCookie(setCookie string) ResponseCookie {
	cookie := ResponseCookie{Raw: setCookie, MaxAge: -1}

	pair, rest, _ := strings.Cut(setCookie, ";")
	if name, value, ok := strings.Cut(pair, "="); ok {
		cookie.Name = strings.TrimSpace(name)
		cookie.Value = unquote(strings.TrimSpace(value))
	} else {
		cookie.Name = strings.TrimSpace(pair)
	}

	for _, attr := range strings.Split(rest, ";") {
		key, value, _ := strings.Cut(attr, "=")
		if set, ok := attributes[strings.ToLower(strings.TrimSpace(key))]; ok {
			set(&cookie, unquote(strings.TrimSpace(value)))
		}
	}
	return cookie
}

func atoi(s string, dst *int) {
	if n, err := strconv.Atoi(s); err == nil {
		*dst = n
	}
}

// ExpiresTime parses Expires in any of the three HTTP date formats
func (c *ResponseCookie) ExpiresTime() (time.Time, error) {
	return http.ParseTime(c.Expires)
}

// Build renders the cookie as a Set-Cookie header value. Max-Age and
// Version are written only when positive.
func (c *ResponseCookie) Build() string {
	var b strings.Builder
	attr := func(name, value string, present bool) {
		if !present {
			return
		}
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		if value != "" {
			b.WriteByte('=')
			b.WriteString(value)
		}
	}

	if c.Name != "" {
		b.WriteString(c.Name + "=" + c.Value)
	}
	attr("Path", c.Path, c.Path != "")
	attr("Domain", c.Domain, c.Domain != "")
	attr("Expires", c.Expires, c.Expires != "")
	attr("Max-Age", strconv.Itoa(c.MaxAge), c.MaxAge > 0)
	attr("Version", strconv.Itoa(c.Version), c.Version > 0)
	attr("Comment", quote(c.Comment), c.Comment != "")
	attr("Secure", "", c.Secure)
	attr("HttpOnly", "", c.HttpOnly)
	attr("SameSite", c.SameSite, c.SameSite != "")
	return b.String()
}

func quote(s string) string {
	if reader.IsToken(s) {
		return s
	}
	return strconv.Quote(s)
}
