package decoder

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/kaitwalla/bookle/book"
)

// Kepub decodes Kobo's EPUB variant. Kobo instruments content documents
// with position-tracking span elements; this decoder strips them and
// delegates the cleaned container to the EPUB decoder.
type Kepub struct {
	epub *Epub
}

// NewKepub creates a KEPUB decoder.
func NewKepub() *Kepub {
	return &Kepub{epub: NewEpub()}
}

// Decode implements Decoder.
func (d *Kepub) Decode(data []byte) (*book.Book, error) {
	cleaned, err := stripKoboMarkup(data)
	if err != nil {
		return nil, err
	}
	return d.epub.Decode(cleaned)
}

// SupportedExtensions implements Decoder.
func (d *Kepub) SupportedExtensions() []string {
	return []string{"kepub.epub", "kepub"}
}

// SupportedMIMETypes implements Decoder.
func (d *Kepub) SupportedMIMETypes() []string {
	return []string{"application/x-kobo-epub+zip", "application/epub+zip"}
}

// stripKoboMarkup rewrites the container, cleaning Kobo spans out of every
// HTML document.
func stripKoboMarkup(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid KEPUB archive: %v", ErrInvalidEPUB, err)
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEPUB, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEPUB, err)
		}

		name := f.Name
		if strings.HasSuffix(name, ".xhtml") || strings.HasSuffix(name, ".html") || strings.HasSuffix(name, ".htm") {
			content = []byte(removeKoboSpans(string(content)))
		}

		method := zip.Deflate
		if name == "mimetype" {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEPUB, err)
		}
		if _, err := w.Write(content); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEPUB, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEPUB, err)
	}
	return out.Bytes(), nil
}

// removeKoboSpans drops koboSpan opening tags and queues one closing span
// elision for each, preserving the wrapped content. A single linear scan;
// no HTML parse.
func removeKoboSpans(html string) string {
	var result strings.Builder
	result.Grow(len(html))

	var tag strings.Builder
	inTag := false
	skipClosingSpans := 0

	for _, c := range html {
		switch {
		case c == '<':
			inTag = true
			tag.Reset()
			tag.WriteRune(c)
		case inTag:
			tag.WriteRune(c)
			if c == '>' {
				inTag = false
				t := tag.String()
				switch {
				case strings.Contains(t, "koboSpan"),
					strings.HasPrefix(t, "<span") && strings.Contains(t, `id="kobo.`):
					skipClosingSpans++
				case t == "</span>" && skipClosingSpans > 0:
					skipClosingSpans--
				default:
					result.WriteString(t)
				}
			}
		default:
			result.WriteRune(c)
		}
	}

	return result.String()
}
