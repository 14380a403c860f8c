package headers

import (
	"bytes"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// ParseHeaders parses a raw HTTP/1 header block with fault tolerance.
// Parsing stops at the first empty line. Lines starting with SP or HT
// continue the previous value (obs-fold) and are joined with one space.
// Lines without a colon or with an invalid field name are kept under
// X-Malformed-Header.
func ParseHeaders(data []byte) (*Headers, error) {
	headers := New()

	var name string
	var value strings.Builder
	flush := func() {
		if name != "" {
			headers.Add(name, strings.TrimSpace(value.String()))
		}
		name = ""
		value.Reset()
	}

	i := 0
	for i < len(data) {
		// Find the end of current line; \n, \r\n and stray \r all end it
		lineEnd := i
		for lineEnd < len(data) && data[lineEnd] != '\n' && data[lineEnd] != '\r' {
			lineEnd++
		}
		next := lineEnd
		for next < len(data) && data[next] == '\r' {
			next++
		}
		if next < len(data) && data[next] == '\n' {
			next++
		}

		line := string(data[i:lineEnd])
		i = next

		// Skip empty lines (end of headers)
		if strings.TrimSpace(line) == "" {
			break
		}

		if line[0] == ' ' || line[0] == '\t' {
			if name != "" {
				value.WriteByte(' ')
				value.WriteString(strings.TrimSpace(line))
				continue
			}
			line = strings.TrimSpace(line)
		}

		flush()

		colonPos := strings.IndexByte(line, ':')
		if colonPos == -1 {
			// Invalid header format, but store it anyway for fault tolerance
			headers.Add("X-Malformed-Header", line)
			continue
		}

		name = strings.TrimSpace(line[:colonPos])
		switch {
		case name == "":
			name = "X-Empty-Header-Name"
		case !httpguts.ValidHeaderFieldName(name):
			headers.Add("X-Malformed-Header", line)
			name = ""
			continue
		}
		value.WriteString(strings.TrimSpace(line[colonPos+1:]))
	}
	flush()

	return headers, nil
}

// Build writes the headers in standard format (Name: Value\r\n)
func (h *Headers) Build() []byte {
	var buf bytes.Buffer

	for _, header := range h.All() {
		buf.WriteString(header.Name)
		buf.WriteString(": ")
		buf.WriteString(header.Value)
		buf.WriteString("\r\n")
	}

	return buf.Bytes()
}
