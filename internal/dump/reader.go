package dump

// reader.go reads a dump file line by line at the file boundary.
//
// The byte stream is wrapped in this order:
//
//  1. counting, so progress reflects raw bytes consumed from the file
//  2. UTF-8 decoding that drops a leading BOM and replaces every invalid
//     byte with U+FFFD instead of failing the read
//  3. buffered line splitting without a line length limit, since one
//     extended INSERT can hold a whole table

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readBufferSize is sized for dump files whose lines run to megabytes.
const readBufferSize = 1 << 20

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with an optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}

// LineReader yields the lines of a dump as decoded text.
type LineReader struct {
	counter *CountingReader
	buf     *bufio.Reader
	line    int
}

// NewLineReader wraps r for permissive line-oriented reading. total is the
// input size in bytes if known, and only feeds Progress.
func NewLineReader(r io.Reader, total int64) *LineReader {
	counter := NewCountingReader(r, total)
	decoded := transform.NewReader(counter, unicode.UTF8BOM.NewDecoder())
	return &LineReader{
		counter: counter,
		buf:     bufio.NewReaderSize(decoded, readBufferSize),
	}
}

// Next returns the next line without its line terminator. At the end of
// input it returns io.EOF; a final line without a newline is still returned
// first.
func (lr *LineReader) Next() (string, error) {
	s, err := lr.buf.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if s == "" {
			return "", io.EOF
		}
	}
	lr.line++
	return strings.TrimRight(s, "\r\n"), nil
}

// Line is the 1-based number of the line last returned by Next.
func (lr *LineReader) Line() int { return lr.line }

// BytesRead reports raw bytes consumed from the underlying reader.
func (lr *LineReader) BytesRead() int64 { return lr.counter.BytesRead }

// Progress reports the share of the input consumed, 0 if the size is unknown.
func (lr *LineReader) Progress() int { return lr.counter.Progress() }
