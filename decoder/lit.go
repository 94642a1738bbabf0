package decoder

import (
	"bytes"
	"fmt"
	"unicode"

	"github.com/kaitwalla/bookle/book"
)

// litSignature opens every LIT container: an ITOL/ITLS compound document.
var litSignature = []byte("ITOLITLS")

// Lit recognizes Microsoft Reader LIT files. The format combines a
// proprietary compound document with LZX compression, so content is not
// extracted; the decoder validates the container, scavenges a title from
// the header area, and produces a book explaining how to convert the file.
type Lit struct {
	titleScanLimit int
}

// NewLit creates a LIT decoder.
func NewLit() *Lit {
	return &Lit{titleScanLimit: 4096}
}

// Decode implements Decoder.
func (d *Lit) Decode(data []byte) (*book.Book, error) {
	if len(data) < len(litSignature) {
		return nil, fmt.Errorf("%w: file too small to be a valid LIT file", ErrMalformedContent)
	}
	if !bytes.Equal(data[:len(litSignature)], litSignature) {
		return nil, fmt.Errorf("%w: invalid LIT file signature", ErrUnsupportedFormat)
	}

	md := book.NewMetadata("Unknown Title (LIT Format)", "en", "")
	area := data
	if len(area) > d.titleScanLimit {
		area = area[:d.titleScanLimit]
	}
	if title := findUTF16LEString(area, 10, 200); title != "" {
		md.Title = title
	}
	md.Description = "Imported from Microsoft Reader LIT format. For best results, " +
		"consider converting to EPUB using Calibre."

	b := book.New(md)
	b.AddChapter(placeholderChapter())
	return b, nil
}

// SupportedExtensions implements Decoder.
func (d *Lit) SupportedExtensions() []string {
	return []string{"lit"}
}

// SupportedMIMETypes implements Decoder.
func (d *Lit) SupportedMIMETypes() []string {
	return []string{"application/x-ms-reader", "application/x-ms-lit"}
}

// findUTF16LEString scans for a run of printable ASCII encoded as UTF-16LE
// that could plausibly be a title. Paths, URLs, and all-caps runs are
// skipped.
func findUTF16LEString(data []byte, minLen, maxLen int) string {
	for i := 0; i+2 <= len(data); i += 2 {
		var chars []byte
		for j := i; j+2 <= len(data); j += 2 {
			lo, hi := data[j], data[j+1]
			if hi != 0 || lo < 0x20 || lo > 0x7E {
				break
			}
			chars = append(chars, lo)
		}
		if len(chars) >= minLen && len(chars) <= maxLen {
			s := string(chars)
			if !bytes.Contains(chars, []byte("http")) &&
				!bytes.ContainsAny(chars, `\/`) &&
				!isUpperOrSpace(s) {
				return s
			}
		}
	}
	return ""
}

func isUpperOrSpace(s string) bool {
	for _, r := range s {
		if !unicode.IsUpper(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// placeholderChapter explains the conversion path for LIT content.
func placeholderChapter() book.Chapter {
	text := func(s string) book.Inline { return &book.Text{Value: s} }
	bold := func(s string) book.Inline { return &book.Bold{Children: []book.Inline{text(s)}} }

	content := []book.Block{
		book.NewHeader(1, []book.Inline{text("LIT Format Import")}),
		&book.Paragraph{Content: []book.Inline{
			text("This book was imported from Microsoft Reader's LIT format. "),
			text("Due to the proprietary nature of the LIT format, full content extraction is limited."),
		}},
		&book.Paragraph{Content: []book.Inline{
			bold("Recommendation: "),
			text("For complete book content, please convert this LIT file to EPUB using:"),
		}},
		&book.List{
			Items: [][]book.Block{
				{&book.Paragraph{Content: []book.Inline{
					bold("Calibre"),
					text(" - Free, open-source ebook management software"),
				}}},
				{&book.Paragraph{Content: []book.Inline{
					bold("ConvertLIT"),
					text(" - Command-line tool for LIT conversion"),
				}}},
			},
		},
		&book.Paragraph{Content: []book.Inline{
			text("After conversion to EPUB, you can re-import the book for full functionality."),
		}},
	}

	return book.NewChapter("lit-info", "LIT Format Information", content)
}
