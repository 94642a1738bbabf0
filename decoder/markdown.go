package decoder

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/kaitwalla/bookle/book"
)

// Markdown decodes CommonMark with the GFM table, strikethrough, and
// footnote extensions.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates a Markdown decoder.
func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Table,
				extension.Strikethrough,
				extension.Footnote,
			),
			goldmark.WithParserOptions(parser.WithAttribute()),
		),
	}
}

// Decode implements Decoder.
func (d *Markdown) Decode(data []byte) (*book.Book, error) {
	doc := d.md.Parser().Parse(text.NewReader(data))

	c := &mdConverter{src: data}
	blocks := c.blocks(doc)

	title := firstHeaderText(blocks, 1)
	if title == "" {
		title = "Untitled"
	}

	b := book.New(book.NewMetadata(title, "en", ""))
	for _, ch := range splitIntoChapters(blocks, 1) {
		b.AddChapter(ch)
	}
	return b, nil
}

// SupportedExtensions implements Decoder.
func (d *Markdown) SupportedExtensions() []string {
	return []string{"md", "markdown", "mdown", "mkd"}
}

// SupportedMIMETypes implements Decoder.
func (d *Markdown) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// mdConverter walks a goldmark AST into blocks. Images encountered inside
// inline content surface as blocks after the containing paragraph.
type mdConverter struct {
	src    []byte
	images []book.Block
}

func (c *mdConverter) blocks(parent ast.Node) []book.Block {
	var out []book.Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, c.block(n)...)
	}
	return out
}

func (c *mdConverter) block(n ast.Node) []book.Block {
	switch v := n.(type) {
	case *ast.Heading:
		h := book.NewHeader(v.Level, c.inlines(v))
		if id, ok := v.AttributeString("id"); ok {
			if s, ok := id.([]byte); ok {
				h.Anchor = string(s)
			}
		}
		return []book.Block{h}
	case *ast.Paragraph:
		return c.paragraph(v)
	case *ast.TextBlock:
		return c.paragraph(v)
	case *ast.Blockquote:
		return []book.Block{&book.Blockquote{Content: c.blocks(v)}}
	case *ast.FencedCodeBlock:
		return []book.Block{book.NewCodeBlock(c.lines(v), string(v.Language(c.src)))}
	case *ast.CodeBlock:
		return []book.Block{book.NewCodeBlock(c.lines(v), "")}
	case *ast.ThematicBreak:
		return []book.Block{&book.ThematicBreak{}}
	case *ast.List:
		var items [][]book.Block
		for li := v.FirstChild(); li != nil; li = li.NextSibling() {
			items = append(items, c.blocks(li))
		}
		return []book.Block{&book.List{Items: items, Ordered: v.IsOrdered()}}
	case *east.Table:
		return []book.Block{c.table(v)}
	case *east.FootnoteList:
		var out []book.Block
		for fn := v.FirstChild(); fn != nil; fn = fn.NextSibling() {
			if f, ok := fn.(*east.Footnote); ok {
				out = append(out, &book.Footnote{
					ID:      strconv.Itoa(f.Index),
					Content: c.blocks(f),
				})
			}
		}
		return out
	default:
		return nil
	}
}

// paragraph emits the paragraph followed by any images it contained.
func (c *mdConverter) paragraph(n ast.Node) []book.Block {
	content := c.inlines(n)
	var out []book.Block
	if len(content) > 0 {
		out = append(out, &book.Paragraph{Content: content})
	}
	out = append(out, c.images...)
	c.images = nil
	return out
}

func (c *mdConverter) table(t *east.Table) *book.Table {
	tbl := &book.Table{}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []book.TableCell
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, book.NewTableCell(c.inlines(cell)))
		}
		if _, ok := row.(*east.TableHeader); ok {
			tbl.Headers = cells
		} else {
			tbl.Rows = append(tbl.Rows, cells)
		}
	}
	return tbl
}

func (c *mdConverter) inlines(parent ast.Node) []book.Inline {
	var out []book.Inline
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch v := n.(type) {
		case *ast.Text:
			s := string(v.Segment.Value(c.src))
			if s != "" {
				out = append(out, &book.Text{Value: s})
			}
			if v.HardLineBreak() {
				out = append(out, &book.Break{})
			} else if v.SoftLineBreak() {
				out = append(out, &book.Text{Value: " "})
			}
		case *ast.String:
			out = append(out, &book.Text{Value: string(v.Value)})
		case *ast.Emphasis:
			if v.Level >= 2 {
				out = append(out, &book.Bold{Children: c.inlines(v)})
			} else {
				out = append(out, &book.Italic{Children: c.inlines(v)})
			}
		case *east.Strikethrough:
			out = append(out, &book.Strikethrough{Children: c.inlines(v)})
		case *ast.CodeSpan:
			out = append(out, &book.Code{Value: c.nodeText(v)})
		case *ast.Link:
			out = append(out, &book.Link{Children: c.inlines(v), URL: string(v.Destination)})
		case *ast.AutoLink:
			url := string(v.URL(c.src))
			out = append(out, &book.Link{Children: []book.Inline{&book.Text{Value: url}}, URL: url})
		case *east.FootnoteLink:
			out = append(out, &book.FootnoteRef{ID: strconv.Itoa(v.Index)})
		case *ast.Image:
			alt := c.nodeText(v)
			c.images = append(c.images, &book.Image{
				ResourceKey: string(v.Destination),
				Caption:     string(v.Title),
				Alt:         alt,
			})
		}
	}
	return out
}

// lines concatenates the source lines of a code block.
func (c *mdConverter) lines(n ast.Node) string {
	var sb strings.Builder
	l := n.Lines()
	for i := 0; i < l.Len(); i++ {
		seg := l.At(i)
		sb.Write(seg.Value(c.src))
	}
	return sb.String()
}

// nodeText flattens a node's descendants to plain text.
func (c *mdConverter) nodeText(n ast.Node) string {
	var sb strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch v := child.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(c.src))
		case *ast.String:
			sb.Write(v.Value)
		default:
			sb.WriteString(c.nodeText(child))
		}
	}
	return sb.String()
}
