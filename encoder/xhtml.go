package encoder

import (
	"fmt"
	"strings"

	"github.com/kaitwalla/bookle/book"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// xhtmlWriter renders blocks to XHTML. The hooks let the KEPUB encoder
// wrap text runs in Kobo spans and point image sources at their packaged
// locations; both default to identity.
type xhtmlWriter struct {
	wrapText  func(escaped string) string
	imagePath func(key string) string
}

func newXHTMLWriter() *xhtmlWriter {
	return &xhtmlWriter{}
}

func (x *xhtmlWriter) text(escaped string) string {
	if x.wrapText == nil {
		return escaped
	}
	return x.wrapText(escaped)
}

func (x *xhtmlWriter) imageSrc(key string) string {
	if x.imagePath == nil {
		return key
	}
	return x.imagePath(key)
}

func (x *xhtmlWriter) blocks(blocks []book.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(x.block(b))
	}
	return sb.String()
}

func (x *xhtmlWriter) block(b book.Block) string {
	switch v := b.(type) {
	case *book.Header:
		idAttr := ""
		if v.Anchor != "" {
			idAttr = " id=\"" + escapeHTML(v.Anchor) + "\""
		}
		return fmt.Sprintf("<h%d%s>%s</h%d>\n", v.Level, idAttr, x.inlines(v.Content), v.Level)
	case *book.Paragraph:
		return fmt.Sprintf("<p>%s</p>\n", x.inlines(v.Content))
	case *book.List:
		tag := "ul"
		if v.Ordered {
			tag = "ol"
		}
		var sb strings.Builder
		for _, item := range v.Items {
			sb.WriteString("<li>")
			sb.WriteString(x.blocks(item))
			sb.WriteString("</li>")
		}
		return fmt.Sprintf("<%s>%s</%s>\n", tag, sb.String(), tag)
	case *book.Image:
		img := fmt.Sprintf("<img src=\"%s\" alt=\"%s\"/>", escapeHTML(x.imageSrc(v.ResourceKey)), escapeHTML(v.Alt))
		if v.Caption != "" {
			return fmt.Sprintf("<figure>%s<figcaption>%s</figcaption></figure>\n",
				img, x.text(escapeHTML(v.Caption)))
		}
		return img + "\n"
	case *book.CodeBlock:
		classAttr := ""
		if v.Lang != "" {
			classAttr = fmt.Sprintf(" class=\"language-%s\"", v.Lang)
		}
		return fmt.Sprintf("<pre><code%s>%s</code></pre>\n", classAttr, escapeHTML(v.Code))
	case *book.Blockquote:
		return fmt.Sprintf("<blockquote>%s</blockquote>\n", x.blocks(v.Content))
	case *book.ThematicBreak:
		return "<hr/>\n"
	case *book.Table:
		return x.table(v)
	case *book.Footnote:
		return fmt.Sprintf("<aside id=\"fn-%s\" epub:type=\"footnote\">%s</aside>\n",
			escapeHTML(v.ID), x.blocks(v.Content))
	default:
		return ""
	}
}

func (x *xhtmlWriter) table(t *book.Table) string {
	var sb strings.Builder
	sb.WriteString("<table>\n")
	if len(t.Headers) > 0 {
		sb.WriteString("<thead><tr>")
		for _, cell := range t.Headers {
			sb.WriteString(fmt.Sprintf("<th>%s</th>", x.inlines(cell.Content)))
		}
		sb.WriteString("</tr></thead>\n")
	}
	sb.WriteString("<tbody>")
	for _, row := range t.Rows {
		sb.WriteString("<tr>")
		for _, cell := range row {
			sb.WriteString(fmt.Sprintf("<td>%s</td>", x.inlines(cell.Content)))
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table>\n")
	return sb.String()
}

func (x *xhtmlWriter) inlines(inlines []book.Inline) string {
	var sb strings.Builder
	for _, in := range inlines {
		sb.WriteString(x.inline(in))
	}
	return sb.String()
}

func (x *xhtmlWriter) inline(in book.Inline) string {
	switch v := in.(type) {
	case *book.Text:
		return x.text(escapeHTML(v.Value))
	case *book.Bold:
		return fmt.Sprintf("<strong>%s</strong>", x.inlines(v.Children))
	case *book.Italic:
		return fmt.Sprintf("<em>%s</em>", x.inlines(v.Children))
	case *book.Code:
		return fmt.Sprintf("<code>%s</code>", escapeHTML(v.Value))
	case *book.Link:
		return fmt.Sprintf("<a href=\"%s\">%s</a>", escapeHTML(v.URL), x.inlines(v.Children))
	case *book.Superscript:
		return fmt.Sprintf("<sup>%s</sup>", x.inlines(v.Children))
	case *book.Subscript:
		return fmt.Sprintf("<sub>%s</sub>", x.inlines(v.Children))
	case *book.Strikethrough:
		return fmt.Sprintf("<del>%s</del>", x.inlines(v.Children))
	case *book.FootnoteRef:
		id := escapeHTML(v.ID)
		return fmt.Sprintf("<a href=\"#fn-%s\" epub:type=\"noteref\">[%s]</a>", id, id)
	case *book.Ruby:
		return fmt.Sprintf("<ruby>%s<rp>(</rp><rt>%s</rt><rp>)</rp></ruby>",
			x.text(escapeHTML(v.Base)), escapeHTML(v.Annotation))
	case *book.Break:
		return "<br/>"
	default:
		return ""
	}
}
