package encoder

import (
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	epub "github.com/go-shiori/go-epub"
	"github.com/vincent-petithory/dataurl"

	"github.com/kaitwalla/bookle/book"
	"github.com/kaitwalla/bookle/internal/imageproc"
)

// Covers larger than this are scaled down before packaging.
const (
	coverMaxWidth    = 1600
	coverMaxHeight   = 2400
	coverJPEGQuality = 90
)

// Epub packages a book as EPUB 3.
type Epub struct{}

// NewEpub creates an EPUB encoder.
func NewEpub() *Epub {
	return &Epub{}
}

// Encode implements Encoder.
func (e *Epub) Encode(b *book.Book, w io.Writer) error {
	return writeEpub(b, w, nil)
}

// FormatName implements Encoder.
func (e *Epub) FormatName() string { return "EPUB" }

// FileExtension implements Encoder.
func (e *Epub) FileExtension() string { return "epub" }

// MIMEType implements Encoder.
func (e *Epub) MIMEType() string { return "application/epub+zip" }

// writeEpub builds the EPUB container. makeWriter, when non-nil, produces
// the XHTML renderer for each chapter index so the KEPUB encoder can inject
// its span wrapping.
func writeEpub(b *book.Book, w io.Writer, makeWriter func(chapter int) *xhtmlWriter) error {
	ep, err := epub.NewEpub(b.Metadata.Title)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}

	if len(b.Metadata.Authors) > 0 {
		ep.SetAuthor(strings.Join(b.Metadata.Authors, ", "))
	}
	ep.SetLang(b.Metadata.Language)
	if b.Metadata.Identifier != "" {
		ep.SetIdentifier(b.Metadata.Identifier)
	}
	if b.Metadata.Description != "" {
		ep.SetDescription(b.Metadata.Description)
	}
	if b.Metadata.Direction == book.RightToLeft {
		ep.SetPpd("rtl")
	}

	paths, err := addResources(ep, b)
	if err != nil {
		return err
	}

	if key := b.Metadata.CoverResourceKey; key != "" {
		if err := setCover(ep, b, key); err != nil {
			return err
		}
	}

	for i, ch := range b.Chapters {
		xw := newXHTMLWriter()
		if makeWriter != nil {
			xw = makeWriter(i)
		}
		xw.imagePath = func(key string) string {
			if p, ok := paths[key]; ok {
				return p
			}
			return key
		}

		body := xw.blocks(ch.Content)
		filename := fmt.Sprintf("chapter_%d.xhtml", i+1)
		if _, err := ep.AddSection(body, ch.Title, filename, ""); err != nil {
			return fmt.Errorf("%w: chapter %q: %v", ErrEncodingFailed, ch.Title, err)
		}
	}

	if _, err := ep.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}
	return nil
}

// addResources embeds image and font resources, returning the store key to
// internal path mapping used to rewrite img srcs. Resources that cannot be
// read or have no packagable media type are skipped.
func addResources(ep *epub.Epub, b *book.Book) (map[string]string, error) {
	paths := make(map[string]string)
	for i, key := range b.Resources.Keys() {
		res := b.Resources.Get(key)
		if res == nil {
			continue
		}
		data, err := res.Bytes()
		if err != nil {
			log.Printf("warning: skipping resource %q: %v", key, err)
			continue
		}

		src := dataurl.New(data, res.MIMEType).String()
		name := resourceFilename(res, i)

		var internal string
		switch {
		case strings.HasPrefix(res.MIMEType, "image/"):
			internal, err = ep.AddImage(src, name)
		case isFontMIME(res.MIMEType):
			internal, err = ep.AddFont(src, name)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: resource %q: %v", ErrEncodingFailed, key, err)
		}
		paths[key] = internal
	}
	return paths, nil
}

func isFontMIME(mime string) bool {
	return strings.HasPrefix(mime, "font/") ||
		strings.HasPrefix(mime, "application/font") ||
		mime == "application/vnd.ms-opentype" ||
		mime == "application/x-font-ttf"
}

// resourceFilename builds a unique internal name, keeping the original
// filename readable when one is known.
func resourceFilename(res *book.Resource, index int) string {
	if res.OriginalFilename != "" {
		return fmt.Sprintf("%03d_%s", index, path.Base(res.OriginalFilename))
	}
	return fmt.Sprintf("%03d%s", index, extForMIME(res.MIMEType))
}

func extForMIME(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/svg+xml":
		return ".svg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

func setCover(ep *epub.Epub, b *book.Book, key string) error {
	res := b.Resources.Get(key)
	if res == nil {
		return fmt.Errorf("%w: cover %q", ErrResourceNotFound, key)
	}
	data, err := res.Bytes()
	if err != nil {
		return fmt.Errorf("%w: cover %q: %v", ErrResourceNotFound, key, err)
	}

	cover := imageproc.Normalize(data, res.MIMEType, imageproc.Options{
		MaxWidth:    coverMaxWidth,
		MaxHeight:   coverMaxHeight,
		JPEGQuality: coverJPEGQuality,
	})
	if cover.Warning != "" {
		log.Printf("warning: cover %q: %s", key, cover.Warning)
	}

	internal, err := ep.AddImage(dataurl.New(cover.Data, cover.MIMEType).String(), "cover"+extForMIME(cover.MIMEType))
	if err != nil {
		return fmt.Errorf("%w: cover: %v", ErrEncodingFailed, err)
	}
	if err := ep.SetCover(internal, ""); err != nil {
		return fmt.Errorf("%w: cover: %v", ErrEncodingFailed, err)
	}
	return nil
}
