package core

// streaming.go provides the reader chain that sits between the source file
// and the CSV parser. Nothing here buffers more than the transformer's fixed
// internal window, so memory stays constant regardless of file size.

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// NewUTF8Decoder strips a leading UTF-8 BOM and replaces ill-formed UTF-8
// with U+FFFD. PostgreSQL rejects invalid UTF-8 in text columns, so repairing
// bytes here keeps a stray Latin-1 byte from failing an entire run at commit.
func NewUTF8Decoder(r io.Reader) io.Reader {
	return transform.NewReader(r, transform.Chain(
		unicode.UTF8BOM.NewDecoder(),
		runes.ReplaceIllFormed(),
	))
}

// CountingReader wraps an io.Reader to track bytes read.
// Used for progress reporting while streaming.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{
		reader: r,
		Total:  total,
	}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Percent returns read progress as 0-100, or 0 if the total is unknown.
func (r *CountingReader) Percent() int {
	if r.Total <= 0 {
		return 0
	}
	pct := int(r.BytesRead * 100 / r.Total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// WrapForStreaming counts raw bytes from r and then decodes them.
// Counting sits below the decoder so BytesRead matches the file size on disk.
func WrapForStreaming(r io.Reader, totalSize int64) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r, totalSize)
	return NewUTF8Decoder(counter), counter
}
