// Package encoder renders books into output formats.
package encoder

import (
	"errors"
	"io"
	"strings"

	"github.com/kaitwalla/bookle/book"
)

var (
	ErrEncodingFailed   = errors.New("encoding failed")
	ErrResourceNotFound = errors.New("resource not found")
	ErrInvalidTemplate  = errors.New("invalid template")
	ErrTypstError       = errors.New("typst generation failed")
)

// Encoder renders a book into one output format.
type Encoder interface {
	// Encode writes the rendered book to w.
	Encode(b *book.Book, w io.Writer) error
	// FormatName is the human-readable format name.
	FormatName() string
	// FileExtension is the extension for output files, without the dot.
	FileExtension() string
	// MIMEType is the MIME type of the output.
	MIMEType() string
}

// ForFormat returns the encoder for a format token, or nil when the format
// is unknown. The "pdf" token produces Typst source ready for compilation
// with the typst CLI. Matching is case-insensitive.
func ForFormat(format string) Encoder {
	switch strings.ToLower(format) {
	case "epub":
		return NewEpub()
	case "kepub", "kepub.epub":
		return NewKepub()
	case "pdf", "typ", "typst":
		return NewTypst()
	default:
		return nil
	}
}
