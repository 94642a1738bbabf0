// Package htmlmap converts parsed HTML trees into the shared block and
// inline representation. It is the single mapping used for every HTML-shaped
// input, so EPUB, KEPUB, and MOBI content all normalize identically.
package htmlmap

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kaitwalla/bookle/book"
)

// ParseBlocks parses an HTML document and maps its body to blocks. The
// parser is tolerant; only I/O-level failures surface as errors.
func ParseBlocks(data []byte) ([]book.Block, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return Blocks(doc), nil
}

// Blocks maps the body of a parsed document to blocks. When the tree has no
// body element the whole tree is mapped.
func Blocks(doc *html.Node) []book.Block {
	root := findBody(doc)
	if root == nil {
		root = doc
	}
	return childrenToBlocks(root)
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

func childrenToBlocks(n *html.Node) []book.Block {
	var blocks []book.Block
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if b := elementToBlock(c); b != nil {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func elementToBlock(n *html.Node) book.Block {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		h := book.NewHeader(level, childrenToInlines(n))
		h.Anchor = attr(n, "id")
		return h
	case atom.P:
		content := childrenToInlines(n)
		if len(content) == 0 {
			return nil
		}
		return &book.Paragraph{Content: content}
	case atom.Ul, atom.Ol:
		var items [][]book.Block
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Li {
				items = append(items, liToBlocks(c))
			}
		}
		return &book.List{Items: items, Ordered: n.DataAtom == atom.Ol}
	case atom.Blockquote:
		return &book.Blockquote{Content: childrenToBlocks(n)}
	case atom.Pre:
		return &book.CodeBlock{Code: textContent(n)}
	case atom.Hr:
		return &book.ThematicBreak{}
	case atom.Div, atom.Section, atom.Article:
		// Container elements collapse when trivial. Multi-block containers
		// wrap in a blockquote.
		// TODO: emit container children as sibling blocks instead of a
		// blockquote wrapper.
		inner := childrenToBlocks(n)
		switch len(inner) {
		case 0:
			return nil
		case 1:
			return inner[0]
		default:
			return &book.Blockquote{Content: inner}
		}
	case atom.Img:
		return &book.Image{
			// Raw src for now; resolved against the store afterwards.
			ResourceKey: attr(n, "src"),
			Alt:         attr(n, "alt"),
		}
	default:
		content := childrenToInlines(n)
		if len(content) == 0 {
			return nil
		}
		return &book.Paragraph{Content: content}
	}
}

// liToBlocks maps a list item. Items holding block-level children map block
// by block; pure inline items wrap in a single paragraph.
func liToBlocks(n *html.Node) []book.Block {
	hasBlocks := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.P, atom.Ul, atom.Ol, atom.Blockquote, atom.Pre:
			hasBlocks = true
		}
	}
	if hasBlocks {
		return childrenToBlocks(n)
	}
	inlines := childrenToInlines(n)
	if len(inlines) == 0 {
		return nil
	}
	return []book.Block{&book.Paragraph{Content: inlines}}
}

func childrenToInlines(n *html.Node) []book.Inline {
	var inlines []book.Inline
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			s := strings.TrimSpace(c.Data)
			if s != "" {
				inlines = append(inlines, &book.Text{Value: s})
			}
		case html.ElementNode:
			inlines = append(inlines, elementToInlines(c)...)
		}
	}
	return inlines
}

func elementToInlines(n *html.Node) []book.Inline {
	switch n.DataAtom {
	case atom.B, atom.Strong:
		return []book.Inline{&book.Bold{Children: childrenToInlines(n)}}
	case atom.I, atom.Em:
		return []book.Inline{&book.Italic{Children: childrenToInlines(n)}}
	case atom.Code:
		return []book.Inline{&book.Code{Value: textContent(n)}}
	case atom.A:
		url := attr(n, "href")
		if url == "" {
			url = "#"
		}
		return []book.Inline{&book.Link{Children: childrenToInlines(n), URL: url}}
	case atom.Sup:
		return []book.Inline{&book.Superscript{Children: childrenToInlines(n)}}
	case atom.Sub:
		return []book.Inline{&book.Subscript{Children: childrenToInlines(n)}}
	case atom.S, atom.Strike, atom.Del:
		return []book.Inline{&book.Strikethrough{Children: childrenToInlines(n)}}
	case atom.Br:
		return []book.Inline{&book.Break{}}
	case atom.Span:
		return childrenToInlines(n)
	default:
		text := textContent(n)
		if text == "" {
			return nil
		}
		return []book.Inline{&book.Text{Value: text}}
	}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
