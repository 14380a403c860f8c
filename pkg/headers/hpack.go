package headers

import (
	"golang.org/x/net/http2/hpack"

	"github.com/WhileEndless/go-conneg/pkg/errors"
)

// DefaultHPACKTableSize is the SETTINGS_HEADER_TABLE_SIZE default (RFC 7540 6.5.2)
const DefaultHPACKTableSize = 4096

// FromHPACK decodes a complete HPACK header block, as carried by an HTTP/2
// HEADERS frame plus its CONTINUATION frames. Pseudo-headers (:method,
// :path, ...) are skipped.
func FromHPACK(block []byte) (*Headers, error) {
	return NewHPACKDecoder(DefaultHPACKTableSize).Decode(block)
}

// HPACKDecoder decodes successive header blocks of one HTTP/2 connection,
// sharing the dynamic table between them. It is not safe for concurrent use.
type HPACKDecoder struct {
	dec *hpack.Decoder
}

// NewHPACKDecoder creates a decoder with the given dynamic table size
func NewHPACKDecoder(tableSize uint32) *HPACKDecoder {
	return &HPACKDecoder{dec: hpack.NewDecoder(tableSize, nil)}
}

// Decode decodes one complete header block
func (d *HPACKDecoder) Decode(block []byte) (*Headers, error) {
	fields, err := d.dec.DecodeFull(block)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeGrammar, err, "invalid HPACK header block", "", -1)
	}

	h := New()
	for _, f := range fields {
		if f.IsPseudo() {
			continue
		}
		h.Add(f.Name, f.Value)
	}
	return h, nil
}
