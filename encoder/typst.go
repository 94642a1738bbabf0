package encoder

import (
	"fmt"
	"io"
	"strings"

	"github.com/kaitwalla/bookle/book"
)

var typstEscaper = strings.NewReplacer(
	`\`, `\\`,
	"#", `\#`,
	"*", `\*`,
	"_", `\_`,
	"@", `\@`,
	"$", `\$`,
	"[", `\[`,
	"]", `\]`,
)

func escapeTypst(s string) string {
	return typstEscaper.Replace(s)
}

// PageConfig controls the page geometry of Typst output.
type PageConfig struct {
	Width        string
	Height       string
	MarginTop    string
	MarginBottom string
	MarginLeft   string
	MarginRight  string
	FontSize     string
}

// DefaultPageConfig returns A4 pages with book-ish margins.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Width:        "210mm",
		Height:       "297mm",
		MarginTop:    "2.5cm",
		MarginBottom: "2.5cm",
		MarginLeft:   "2cm",
		MarginRight:  "2cm",
		FontSize:     "11pt",
	}
}

func (c PageConfig) validate() error {
	fields := map[string]string{
		"width":         c.Width,
		"height":        c.Height,
		"margin top":    c.MarginTop,
		"margin bottom": c.MarginBottom,
		"margin left":   c.MarginLeft,
		"margin right":  c.MarginRight,
		"font size":     c.FontSize,
	}
	for name, v := range fields {
		if v == "" {
			return fmt.Errorf("%w: page %s is empty", ErrInvalidTemplate, name)
		}
	}
	return nil
}

// Typst renders a book as Typst markup. The output compiles to PDF with
// the typst CLI.
type Typst struct {
	Page PageConfig
}

// NewTypst creates a Typst encoder with default page geometry.
func NewTypst() *Typst {
	return &Typst{Page: DefaultPageConfig()}
}

// Encode implements Encoder.
func (e *Typst) Encode(b *book.Book, w io.Writer) error {
	if err := e.Page.validate(); err != nil {
		return err
	}
	if _, err := io.WriteString(w, e.render(b)); err != nil {
		return fmt.Errorf("%w: %v", ErrTypstError, err)
	}
	return nil
}

// FormatName implements Encoder.
func (e *Typst) FormatName() string { return "Typst" }

// FileExtension implements Encoder.
func (e *Typst) FileExtension() string { return "typ" }

// MIMEType implements Encoder.
func (e *Typst) MIMEType() string { return "text/x-typst" }

func (e *Typst) render(b *book.Book) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `#set page(
  width: %s,
  height: %s,
  margin: (
    top: %s,
    bottom: %s,
    left: %s,
    right: %s,
  ),
)

#set text(size: %s)
#set heading(numbering: "1.1")

`, e.Page.Width, e.Page.Height, e.Page.MarginTop, e.Page.MarginBottom,
		e.Page.MarginLeft, e.Page.MarginRight, e.Page.FontSize)

	// Title page.
	fmt.Fprintf(&sb, `#align(center)[
  #v(30%%)
  #text(size: 24pt, weight: "bold")[%s]
  #v(1em)
`, escapeTypst(b.Metadata.Title))
	for _, author := range b.Metadata.Authors {
		fmt.Fprintf(&sb, "  #text(size: 14pt)[%s]\n", escapeTypst(author))
	}
	sb.WriteString("]\n\n#pagebreak()\n\n")

	if len(b.Chapters) > 0 {
		sb.WriteString("#outline(title: \"Contents\", depth: 2)\n\n#pagebreak()\n\n")
	}

	for _, ch := range b.Chapters {
		fmt.Fprintf(&sb, "= %s\n\n", escapeTypst(ch.Title))
		sb.WriteString(e.blocks(ch.Content))
		sb.WriteString("\n#pagebreak()\n\n")
	}

	return sb.String()
}

func (e *Typst) blocks(blocks []book.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(e.block(b))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (e *Typst) block(b book.Block) string {
	switch v := b.(type) {
	case *book.Header:
		level := v.Level
		if level > 6 {
			level = 6
		}
		label := ""
		if v.Anchor != "" {
			label = fmt.Sprintf(" <%s>", v.Anchor)
		}
		return fmt.Sprintf("%s %s%s\n", strings.Repeat("=", level), e.inlines(v.Content), label)
	case *book.Paragraph:
		return e.inlines(v.Content) + "\n"
	case *book.List:
		var sb strings.Builder
		for i, item := range v.Items {
			marker := "- "
			if v.Ordered {
				marker = fmt.Sprintf("%d. ", i+1)
			}
			sb.WriteString(marker)
			sb.WriteString(strings.TrimSpace(e.blocks(item)))
			sb.WriteByte('\n')
		}
		return sb.String()
	case *book.Image:
		var sb strings.Builder
		fmt.Fprintf(&sb, "#figure(\n  image(\"%s\", width: 80%%),\n", v.ResourceKey)
		if v.Caption != "" {
			fmt.Fprintf(&sb, "  caption: [%s],\n", escapeTypst(v.Caption))
		}
		sb.WriteString(")\n")
		return sb.String()
	case *book.CodeBlock:
		// Fenced output breaks if the code itself contains a fence.
		if strings.Contains(v.Code, "```") {
			escaped := strings.ReplaceAll(v.Code, "]", `\]`)
			if v.Lang == "" {
				return fmt.Sprintf("#raw(block: true)[%s]\n", escaped)
			}
			return fmt.Sprintf("#raw(block: true, lang: \"%s\")[%s]\n", v.Lang, escaped)
		}
		return fmt.Sprintf("```%s\n%s\n```\n", v.Lang, v.Code)
	case *book.Blockquote:
		return fmt.Sprintf("#quote(block: true)[\n%s\n]\n", e.blocks(v.Content))
	case *book.ThematicBreak:
		return "#line(length: 100%)\n"
	case *book.Table:
		return e.table(v)
	case *book.Footnote:
		return fmt.Sprintf("#footnote[%s] <fn-%s>\n", strings.TrimSpace(e.blocks(v.Content)), v.ID)
	default:
		return ""
	}
}

func (e *Typst) table(t *book.Table) string {
	cols := len(t.Headers)
	if len(t.Rows) > 0 && len(t.Rows[0]) > cols {
		cols = len(t.Rows[0])
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "#table(\n  columns: %d,\n", cols)
	for _, cell := range t.Headers {
		fmt.Fprintf(&sb, "  [*%s*],\n", e.inlines(cell.Content))
	}
	for _, row := range t.Rows {
		for _, cell := range row {
			fmt.Fprintf(&sb, "  [%s],\n", e.inlines(cell.Content))
		}
	}
	sb.WriteString(")\n")
	return sb.String()
}

func (e *Typst) inlines(inlines []book.Inline) string {
	var sb strings.Builder
	for _, in := range inlines {
		sb.WriteString(e.inline(in))
	}
	return sb.String()
}

func (e *Typst) inline(in book.Inline) string {
	switch v := in.(type) {
	case *book.Text:
		return escapeTypst(v.Value)
	case *book.Bold:
		return fmt.Sprintf("*%s*", e.inlines(v.Children))
	case *book.Italic:
		return fmt.Sprintf("_%s_", e.inlines(v.Children))
	case *book.Code:
		if strings.Contains(v.Value, "`") {
			return fmt.Sprintf("#raw(%q)", v.Value)
		}
		return fmt.Sprintf("`%s`", v.Value)
	case *book.Link:
		url := strings.ReplaceAll(v.URL, `"`, `\"`)
		return fmt.Sprintf("#link(\"%s\")[%s]", url, e.inlines(v.Children))
	case *book.Superscript:
		return fmt.Sprintf("#super[%s]", e.inlines(v.Children))
	case *book.Subscript:
		return fmt.Sprintf("#sub[%s]", e.inlines(v.Children))
	case *book.Strikethrough:
		return fmt.Sprintf("#strike[%s]", e.inlines(v.Children))
	case *book.FootnoteRef:
		return fmt.Sprintf("#footnote[See footnote %s]", v.ID)
	case *book.Ruby:
		// Typst has no native ruby; fake it with a superscript.
		return fmt.Sprintf("%s#super[#text(size: 0.6em)[%s]]",
			escapeTypst(v.Base), escapeTypst(v.Annotation))
	case *book.Break:
		return "\\\n"
	default:
		return ""
	}
}
