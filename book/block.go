package book

// Block is a block-level content element. The concrete types below form a
// closed set; decoders produce them and encoders consume them via type
// switches. The set and its JSON tags are a stability contract shared with
// external consumers of the interchange format.
type Block interface {
	isBlock()
}

// Inline is an inline-level content element nested inside blocks.
type Inline interface {
	isInline()
}

// Header is a heading (h1-h6).
type Header struct {
	Level   int      // 1-6
	Content []Inline
	Anchor  string // optional id for cross-references
}

// Paragraph is a paragraph of inline content.
type Paragraph struct {
	Content []Inline
}

// List is an ordered or unordered list. Each item is a block sequence.
type List struct {
	Items   [][]Block
	Ordered bool
}

// Image references a resource in the store by key. A key that could not be
// remapped to a store entry keeps its original source identifier.
type Image struct {
	ResourceKey string
	Caption     string // optional
	Alt         string
}

// CodeBlock is a preformatted code block with an optional language.
type CodeBlock struct {
	Lang string // optional
	Code string
}

// Blockquote is a quoted block sequence.
type Blockquote struct {
	Content []Block
}

// ThematicBreak is a horizontal rule.
type ThematicBreak struct{}

// Table holds a header row and body rows.
type Table struct {
	Headers []TableCell
	Rows    [][]TableCell
}

// Footnote is a footnote definition referenced by FootnoteRef.
type Footnote struct {
	ID      string
	Content []Block
}

// TableCell is a single table cell. Colspan and rowspan default to 1.
type TableCell struct {
	Content []Inline
	Colspan int
	Rowspan int
}

// NewTableCell creates a cell with default spans.
func NewTableCell(content []Inline) TableCell {
	return TableCell{Content: content, Colspan: 1, Rowspan: 1}
}

// NewHeader creates a header, clamping the level to the valid [1,6] range.
func NewHeader(level int, content []Inline) *Header {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return &Header{Level: level, Content: content}
}

// NewParagraph creates a paragraph from inline content.
func NewParagraph(content []Inline) *Paragraph {
	return &Paragraph{Content: content}
}

// NewCodeBlock creates a code block. lang may be empty.
func NewCodeBlock(code, lang string) *CodeBlock {
	return &CodeBlock{Lang: lang, Code: code}
}

func (*Header) isBlock()        {}
func (*Paragraph) isBlock()     {}
func (*List) isBlock()          {}
func (*Image) isBlock()         {}
func (*CodeBlock) isBlock()     {}
func (*Blockquote) isBlock()    {}
func (*ThematicBreak) isBlock() {}
func (*Table) isBlock()         {}
func (*Footnote) isBlock()      {}

// Text is plain text.
type Text struct {
	Value string
}

// Bold is strongly emphasized content.
type Bold struct {
	Children []Inline
}

// Italic is emphasized content.
type Italic struct {
	Children []Inline
}

// Code is inline code; text content only, no nested structure.
type Code struct {
	Value string
}

// Link is a hyperlink.
type Link struct {
	Children []Inline
	URL      string
}

// Superscript is superscript content.
type Superscript struct {
	Children []Inline
}

// Subscript is subscript content.
type Subscript struct {
	Children []Inline
}

// Strikethrough is struck-through content.
type Strikethrough struct {
	Children []Inline
}

// FootnoteRef references a Footnote definition by id.
type FootnoteRef struct {
	ID string
}

// Ruby is a ruby annotation for CJK texts.
type Ruby struct {
	Base       string
	Annotation string
}

// Break is a hard line break.
type Break struct{}

func (*Text) isInline()          {}
func (*Bold) isInline()          {}
func (*Italic) isInline()        {}
func (*Code) isInline()          {}
func (*Link) isInline()          {}
func (*Superscript) isInline()   {}
func (*Subscript) isInline()     {}
func (*Strikethrough) isInline() {}
func (*FootnoteRef) isInline()   {}
func (*Ruby) isInline()          {}
func (*Break) isInline()         {}

// PlainText flattens inline content to plain text. Footnote references
// render as "[id]", ruby annotations collapse to their base text, and hard
// breaks become single spaces.
func PlainText(inlines []Inline) string {
	var out string
	for _, in := range inlines {
		switch v := in.(type) {
		case *Text:
			out += v.Value
		case *Bold:
			out += PlainText(v.Children)
		case *Italic:
			out += PlainText(v.Children)
		case *Superscript:
			out += PlainText(v.Children)
		case *Subscript:
			out += PlainText(v.Children)
		case *Strikethrough:
			out += PlainText(v.Children)
		case *Link:
			out += PlainText(v.Children)
		case *Code:
			out += v.Value
		case *FootnoteRef:
			out += "[" + v.ID + "]"
		case *Ruby:
			out += v.Base
		case *Break:
			out += " "
		}
	}
	return out
}
