// Package bookle converts ebooks between formats through a shared
// intermediate representation. Supported inputs are EPUB, KEPUB, MOBI/AZW,
// LIT, Markdown, and PDF text; outputs are EPUB, KEPUB, and Typst markup.
package bookle

import (
	"fmt"
	"io"

	"github.com/kaitwalla/bookle/book"
	"github.com/kaitwalla/bookle/decoder"
	"github.com/kaitwalla/bookle/encoder"
)

// Convert decodes data as the from format and writes it to w in the to
// format. Formats are named by file extension without the dot ("epub",
// "kepub.epub", "md"); "pdf" output produces Typst source.
func Convert(data []byte, from, to string, w io.Writer) error {
	dec := decoder.ForExtension(from)
	if dec == nil {
		return fmt.Errorf("%w: no decoder for %q", decoder.ErrUnsupportedFormat, from)
	}
	enc := encoder.ForFormat(to)
	if enc == nil {
		return fmt.Errorf("%w: no encoder for %q", decoder.ErrUnsupportedFormat, to)
	}

	b, err := dec.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", from, err)
	}
	if err := enc.Encode(b, w); err != nil {
		return fmt.Errorf("failed to encode %s: %w", to, err)
	}
	return nil
}

// Decode parses data according to a file extension.
func Decode(data []byte, ext string) (*book.Book, error) {
	dec := decoder.ForExtension(ext)
	if dec == nil {
		return nil, fmt.Errorf("%w: no decoder for %q", decoder.ErrUnsupportedFormat, ext)
	}
	return dec.Decode(data)
}

// DecoderForExtension returns the decoder registered for a file extension,
// or nil.
func DecoderForExtension(ext string) decoder.Decoder {
	return decoder.ForExtension(ext)
}

// DecoderForMIMEType returns the decoder registered for a MIME type, or
// nil.
func DecoderForMIMEType(mime string) decoder.Decoder {
	return decoder.ForMIMEType(mime)
}

// EncoderForFormat returns the encoder registered for a format token, or
// nil.
func EncoderForFormat(format string) encoder.Encoder {
	return encoder.ForFormat(format)
}
