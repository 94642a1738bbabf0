package decoder

import (
	"fmt"

	"github.com/kaitwalla/bookle/book"
	"github.com/kaitwalla/bookle/internal/htmlmap"
	"github.com/kaitwalla/bookle/internal/mobi"
)

// Mobi decodes Mobipocket and Amazon Kindle books.
type Mobi struct{}

// NewMobi creates a MOBI/AZW decoder.
func NewMobi() *Mobi {
	return &Mobi{}
}

// Decode implements Decoder.
func (d *Mobi) Decode(data []byte) (*book.Book, error) {
	doc, err := mobi.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMOBI, err)
	}

	// MOBI language metadata is a locale code without reliable mapping
	// back to a tag; default to English.
	md := book.NewMetadata(doc.Title, "en", "")
	if doc.Author != "" {
		md.Authors = []string{doc.Author}
	}
	md.Publisher = doc.Publisher
	md.Description = doc.Description
	md.Subjects = doc.Subjects

	b := book.New(md)

	blocks, err := htmlmap.ParseBlocks(doc.HTML)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHTML, err)
	}

	for _, ch := range splitIntoChapters(blocks, 2) {
		b.AddChapter(ch)
	}
	return b, nil
}

// SupportedExtensions implements Decoder.
func (d *Mobi) SupportedExtensions() []string {
	return []string{"mobi", "azw", "azw3", "prc"}
}

// SupportedMIMETypes implements Decoder.
func (d *Mobi) SupportedMIMETypes() []string {
	return []string{"application/x-mobipocket-ebook", "application/vnd.amazon.ebook"}
}
