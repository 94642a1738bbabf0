package encoder

import (
	"fmt"
	"io"
	"strings"

	"github.com/kaitwalla/bookle/book"
)

// Kepub packages a book as Kobo's EPUB variant. Every text run is wrapped
// in a koboSpan element so Kobo readers can track reading position.
type Kepub struct{}

// NewKepub creates a KEPUB encoder.
func NewKepub() *Kepub {
	return &Kepub{}
}

// Encode implements Encoder.
func (e *Kepub) Encode(b *book.Book, w io.Writer) error {
	spanner := &koboSpanner{}
	return writeEpub(b, w, func(chapter int) *xhtmlWriter {
		spanner.startChapter(chapter + 1)
		xw := newXHTMLWriter()
		xw.wrapText = spanner.wrap
		return xw
	})
}

// FormatName implements Encoder.
func (e *Kepub) FormatName() string { return "KEPUB" }

// FileExtension implements Encoder.
func (e *Kepub) FileExtension() string { return "kepub.epub" }

// MIMEType implements Encoder.
func (e *Kepub) MIMEType() string { return "application/x-kobo-epub+zip" }

// koboSpanner numbers spans as kobo.<chapter>.<span>, restarting the span
// counter at 1 for each chapter.
type koboSpanner struct {
	chapter int
	span    int
}

func (k *koboSpanner) startChapter(n int) {
	k.chapter = n
	k.span = 1
}

// wrap surrounds a rendered text run with a koboSpan. Whitespace-only runs
// pass through unwrapped.
func (k *koboSpanner) wrap(escaped string) string {
	if strings.TrimSpace(escaped) == "" {
		return escaped
	}
	id := fmt.Sprintf("kobo.%d.%d", k.chapter, k.span)
	k.span++
	return fmt.Sprintf(`<span class="koboSpan" id="%s">%s</span>`, id, escaped)
}
