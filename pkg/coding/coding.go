// Package coding implements the content codings a negotiated response can
// be encoded with.
package coding

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/samber/lo"

	"github.com/WhileEndless/go-conneg/pkg/errors"
)

// Coding is a content coding from the IANA HTTP Content Coding Registry
type Coding int

const (
	Identity Coding = iota
	Gzip
	Deflate
	Brotli
	Zstd
)

// DefaultLevel selects each coding's default compression level
const DefaultLevel = -1

var tokens = map[Coding]string{
	Identity: "identity",
	Gzip:     "gzip",
	Deflate:  "deflate",
	Brotli:   "br",
	Zstd:     "zstd",
}

var aliases = map[string]Coding{
	"identity":  Identity,
	"gzip":      Gzip,
	"x-gzip":    Gzip,
	"deflate":   Deflate,
	"x-deflate": Deflate,
	"br":        Brotli,
	"brotli":    Brotli,
	"zstd":      Zstd,
	"zstandard": Zstd,
}

// All returns every supported coding, in server preference order
func All() []Coding {
	return []Coding{Zstd, Brotli, Gzip, Deflate, Identity}
}

// Tokens returns the Content-Encoding tokens of codings
func Tokens(codings []Coding) []string {
	return lo.Map(codings, func(c Coding, _ int) string { return c.Token() })
}

// Lookup finds the coding for an Accept-Encoding or Content-Encoding token.
// Matching is case-insensitive and accepts the common aliases.
func Lookup(token string) (Coding, bool) {
	c, ok := aliases[strings.ToLower(strings.TrimSpace(token))]
	return c, ok
}

// Token returns the registered Content-Encoding token
func (c Coding) Token() string {
	return tokens[c]
}

func (c Coding) String() string {
	if t, ok := tokens[c]; ok {
		return t
	}
	return "unknown"
}

// Encode compresses data with c at the given level
func Encode(data []byte, c Coding, level int) ([]byte, error) {
	if c == Identity {
		return data, nil
	}

	// zstd has a one-shot API that skips the stream framing work
	if c == Zstd {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdLevel(level)))
		if err != nil {
			return nil, wrap(err, "failed to create zstd writer")
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, c, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, wrap(err, "failed to write "+c.Token()+" data")
	}
	if err := w.Close(); err != nil {
		return nil, wrap(err, "failed to close "+c.Token()+" writer")
	}
	return buf.Bytes(), nil
}

// Decode decompresses data encoded with c
func Decode(data []byte, c Coding) ([]byte, error) {
	if c == Identity || len(data) == 0 {
		return data, nil
	}

	r, err := NewReader(bytes.NewReader(data), c)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, wrap(err, "failed to decompress "+c.Token()+" data")
	}
	return decoded, nil
}

// NewWriter returns a streaming compressor writing to w.
// Close must be called to flush the stream; it does not close w.
func NewWriter(w io.Writer, c Coding, level int) (io.WriteCloser, error) {
	switch c {
	case Identity:
		return nopWriteCloser{w}, nil
	case Gzip:
		if level == DefaultLevel {
			level = gzip.DefaultCompression
		}
		gw, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, wrap(err, "failed to create gzip writer")
		}
		return gw, nil
	case Deflate:
		if level == DefaultLevel {
			level = flate.DefaultCompression
		}
		fw, err := flate.NewWriter(w, level)
		if err != nil {
			return nil, wrap(err, "failed to create deflate writer")
		}
		return fw, nil
	case Brotli:
		if level == DefaultLevel {
			level = brotli.DefaultCompression
		}
		return brotli.NewWriterLevel(w, level), nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstdLevel(level)))
		if err != nil {
			return nil, wrap(err, "failed to create zstd writer")
		}
		return enc, nil
	}
	return nil, errors.NewError(errors.ErrorTypeCompression, "unsupported coding "+c.String(), "", -1)
}

// NewReader returns a streaming decompressor reading from r
func NewReader(r io.Reader, c Coding) (io.ReadCloser, error) {
	switch c {
	case Identity:
		return io.NopCloser(r), nil
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, wrap(err, "failed to create gzip reader")
		}
		return gr, nil
	case Deflate:
		return flate.NewReader(r), nil
	case Brotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, wrap(err, "failed to create zstd reader")
		}
		return dec.IOReadCloser(), nil
	}
	return nil, errors.NewError(errors.ErrorTypeCompression, "unsupported coding "+c.String(), "", -1)
}

// zstdLevel maps a gzip-style 1-9+ level onto the zstd encoder presets
func zstdLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 0:
		return zstd.SpeedDefault
	case level <= 3:
		return zstd.SpeedFastest
	case level <= 6:
		return zstd.SpeedDefault
	case level <= 12:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func wrap(err error, message string) error {
	return errors.Wrap(errors.ErrorTypeCompression, err, message+": "+err.Error(), "", -1)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
