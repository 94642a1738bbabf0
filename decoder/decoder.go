// Package decoder parses ebook formats into the shared book representation.
// Each decoder consumes a fully buffered input; there is no streaming.
package decoder

import (
	"errors"
	"strings"

	"github.com/kaitwalla/bookle/book"
)

var (
	ErrInvalidHTML       = errors.New("invalid HTML")
	ErrInvalidEPUB       = errors.New("invalid EPUB")
	ErrInvalidMOBI       = errors.New("invalid MOBI")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrMissingField      = errors.New("missing required field")
	ErrMalformedContent  = errors.New("malformed content")
)

// Decoder parses one input format into a Book.
type Decoder interface {
	// Decode parses a complete input buffer.
	Decode(data []byte) (*book.Book, error)
	// SupportedExtensions lists the file extensions this decoder handles.
	SupportedExtensions() []string
	// SupportedMIMETypes lists the MIME types this decoder handles.
	SupportedMIMETypes() []string
}

// ForExtension returns the decoder for a file extension (without the dot),
// or nil when the extension is unknown. Compound extensions like
// "kepub.epub" are matched whole. Matching is case-insensitive.
func ForExtension(ext string) Decoder {
	switch strings.ToLower(ext) {
	case "kepub.epub", "kepub":
		return NewKepub()
	case "epub":
		return NewEpub()
	case "lit":
		return NewLit()
	case "md", "markdown", "mdown", "mkd":
		return NewMarkdown()
	case "pdf":
		return NewPdf()
	case "mobi", "azw", "azw3", "prc":
		return NewMobi()
	default:
		return nil
	}
}

// ForMIMEType returns the decoder for a MIME type, or nil when the type is
// unknown. Matching is case-insensitive.
func ForMIMEType(mime string) Decoder {
	switch strings.ToLower(mime) {
	case "application/x-kobo-epub+zip":
		return NewKepub()
	case "application/epub+zip":
		return NewEpub()
	case "application/x-ms-reader", "application/x-ms-lit":
		return NewLit()
	case "text/markdown", "text/x-markdown":
		return NewMarkdown()
	case "application/pdf":
		return NewPdf()
	case "application/x-mobipocket-ebook", "application/vnd.amazon.ebook":
		return NewMobi()
	default:
		return nil
	}
}

// splitIntoChapters cuts a block sequence into chapters at headers of
// maxLevel or lower. Content before the first such header becomes an
// "Untitled" chapter; a bookful of nothing becomes one empty "Content"
// chapter.
func splitIntoChapters(blocks []book.Block, maxLevel int) []book.Chapter {
	var chapters []book.Chapter
	var current []book.Block
	title := ""
	haveTitle := false

	flush := func() {
		if len(current) == 0 && !haveTitle {
			return
		}
		t := title
		if !haveTitle {
			t = "Untitled"
		}
		chapters = append(chapters, book.NewChapter("", t, current))
		current = nil
		title = ""
		haveTitle = false
	}

	for _, b := range blocks {
		if h, ok := b.(*book.Header); ok && h.Level <= maxLevel {
			flush()
			title = book.PlainText(h.Content)
			haveTitle = true
		}
		current = append(current, b)
	}
	flush()

	if len(chapters) == 0 {
		chapters = append(chapters, book.NewChapter("", "Content", nil))
	}
	return chapters
}

// firstHeaderText returns the text of the first header at or above
// maxLevel, or "" when none exists.
func firstHeaderText(blocks []book.Block, maxLevel int) string {
	for _, b := range blocks {
		if h, ok := b.(*book.Header); ok && h.Level <= maxLevel {
			return book.PlainText(h.Content)
		}
	}
	return ""
}
