package core

// streaming.go normalizes the byte stream of an uploaded CSV file before parsing.
//
// Spreadsheet programs commonly prepend a byte order mark and occasionally emit
// UTF-16 or stray invalid bytes. The wrapped reader:
//
//   - strips a UTF-8 BOM
//   - decodes UTF-16 (LE or BE) input announced by its BOM
//   - replaces invalid UTF-8 sequences with U+FFFD
//
// It works on the fly, so memory use does not grow with file size.

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WrapForStreaming wraps r so that it yields valid UTF-8 without a BOM.
func WrapForStreaming(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// limitedReader fails with ErrFileTooLarge once more than max bytes were read.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

// LimitReader returns a reader that yields at most max bytes of r and reports
// ErrFileTooLarge when the input is longer. A max of zero or less disables the limit.
func LimitReader(r io.Reader, max int64) io.Reader {
	if max <= 0 {
		return r
	}
	return &limitedReader{r: r, remaining: max}
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n + int(l.remaining), ErrFileTooLarge
	}
	return n, err
}
