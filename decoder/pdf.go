package decoder

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/kaitwalla/bookle/book"
)

// sectionKeywords mark lines that open a structural division.
var sectionKeywords = []string{
	"chapter", "part", "section", "book", "volume",
	"prologue", "epilogue", "introduction", "conclusion",
	"preface", "appendix", "foreword", "afterword",
}

var romanPrefixes = []string{
	"I.", "II.", "III.", "IV.", "V.", "VI.", "VII.", "VIII.", "IX.", "X.",
}

// Pdf extracts the text layer of a PDF. PDF carries no structural markup,
// so headings are inferred heuristically from line shape.
type Pdf struct{}

// NewPdf creates a PDF text decoder.
func NewPdf() *Pdf {
	return &Pdf{}
}

// Decode implements Decoder.
func (d *Pdf) Decode(data []byte) (*book.Book, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	textReader, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract PDF text: %v", ErrMalformedContent, err)
	}
	text, err := io.ReadAll(textReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}

	blocks := textToBlocks(string(text))

	title := firstHeaderText(blocks, 2)
	if title == "" {
		title = "Untitled PDF"
	}

	b := book.New(book.NewMetadata(title, "en", ""))
	for _, ch := range splitIntoChapters(blocks, 2) {
		b.AddChapter(ch)
	}
	return b, nil
}

// SupportedExtensions implements Decoder.
func (d *Pdf) SupportedExtensions() []string {
	return []string{"pdf"}
}

// SupportedMIMETypes implements Decoder.
func (d *Pdf) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// textToBlocks splits extracted text on blank lines, joining the lines of
// each paragraph with spaces.
func textToBlocks(text string) []book.Block {
	var blocks []book.Block
	var para strings.Builder

	flush := func() {
		if para.Len() == 0 {
			return
		}
		blocks = append(blocks, textToBlock(para.String()))
		para.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		if para.Len() > 0 {
			para.WriteByte(' ')
		}
		para.WriteString(line)
	}
	flush()

	return blocks
}

func textToBlock(text string) book.Block {
	text = strings.TrimSpace(text)
	content := []book.Inline{&book.Text{Value: text}}
	if isLikelyHeading(text) {
		return book.NewHeader(detectHeadingLevel(text), content)
	}
	return &book.Paragraph{Content: content}
}

// isLikelyHeading guesses whether a paragraph is a heading. Short lines
// without sentence punctuation qualify when they start with a section
// keyword, are set in capitals, or open with a number or Roman numeral.
func isLikelyHeading(text string) bool {
	isShort := len(text) < 100 &&
		!strings.HasSuffix(text, ".") &&
		!strings.HasSuffix(text, "?") &&
		!strings.HasSuffix(text, "!")
	if !isShort {
		return false
	}

	lower := strings.ToLower(text)
	for _, kw := range sectionKeywords {
		if strings.HasPrefix(lower, kw) {
			return true
		}
	}

	if len(text) < 60 && isAllCaps(text) {
		return true
	}

	runes := []rune(text)
	if len(runes) > 0 && unicode.IsDigit(runes[0]) {
		return true
	}
	for _, r := range romanPrefixes {
		if strings.HasPrefix(text, r) {
			return true
		}
	}
	return false
}

func isAllCaps(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// detectHeadingLevel maps section keywords to depth. Books and parts sit
// above chapters; everything else defaults to chapter depth.
func detectHeadingLevel(text string) int {
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "book "), strings.HasPrefix(lower, "part "):
		return 1
	case strings.HasPrefix(lower, "chapter "),
		strings.HasPrefix(lower, "prologue"),
		strings.HasPrefix(lower, "epilogue"):
		return 2
	case strings.HasPrefix(lower, "section "):
		return 3
	default:
		return 2
	}
}
