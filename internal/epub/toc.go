package epub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NavPoint represents a single navigation point in the table of contents.
type NavPoint struct {
	Label       string
	ContentPath string // fragment-free, container-absolute path
	Fragment    string // fragment identifier (without #)
	Children    []NavPoint
}

// ncxDoc is the NCX XML structure.
type ncxDoc struct {
	XMLName xml.Name `xml:"ncx"`
	NavMap  struct {
		NavPoints []ncxNavPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type ncxNavPoint struct {
	Label struct {
		Text string `xml:"text"`
	} `xml:"navLabel"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

// ParseNCX parses an NCX document. baseDir is the container directory of
// the NCX file; content srcs resolve against it.
func ParseNCX(content []byte, baseDir string) ([]NavPoint, error) {
	var doc ncxDoc
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse NCX: %w", err)
	}
	return ncxNavPoints(doc.NavMap.NavPoints, baseDir), nil
}

func ncxNavPoints(points []ncxNavPoint, baseDir string) []NavPoint {
	var out []NavPoint
	for _, p := range points {
		src, frag := splitFragment(p.Content.Src)
		out = append(out, NavPoint{
			Label:       strings.TrimSpace(p.Label.Text),
			ContentPath: resolveHref(baseDir, src),
			Fragment:    frag,
			Children:    ncxNavPoints(p.Children, baseDir),
		})
	}
	return out
}

// ParseNav parses an EPUB 3.0 nav document. The toc nav (epub:type="toc")
// is preferred; the first nav element is the fallback.
func ParseNav(content []byte, baseDir string) ([]NavPoint, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse nav document: %w", err)
	}

	nav := doc.Find(`nav[epub\:type="toc"]`).First()
	if nav.Length() == 0 {
		nav = doc.Find("nav").First()
	}
	if nav.Length() == 0 {
		return nil, nil
	}

	return navList(nav.ChildrenFiltered("ol").First(), baseDir), nil
}

func navList(ol *goquery.Selection, baseDir string) []NavPoint {
	var out []NavPoint
	ol.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		point := NavPoint{}
		if a := li.ChildrenFiltered("a").First(); a.Length() > 0 {
			point.Label = strings.TrimSpace(a.Text())
			if href, ok := a.Attr("href"); ok {
				src, frag := splitFragment(href)
				point.ContentPath = resolveHref(baseDir, src)
				point.Fragment = frag
			}
		} else if span := li.ChildrenFiltered("span").First(); span.Length() > 0 {
			point.Label = strings.TrimSpace(span.Text())
		}
		point.Children = navList(li.ChildrenFiltered("ol").First(), baseDir)
		out = append(out, point)
	})
	return out
}

// splitFragment splits a source path into the path and fragment identifier.
func splitFragment(src string) (pathPart, fragment string) {
	if src == "" {
		return "", ""
	}
	parts := strings.SplitN(src, "#", 2)
	pathPart = parts[0]
	if len(parts) == 2 {
		fragment = parts[1]
	}
	return pathPart, fragment
}

// resolveHref resolves a document-relative href to a container path.
func resolveHref(baseDir, href string) string {
	if href == "" {
		return ""
	}
	if baseDir == "" || baseDir == "." {
		return href
	}
	return path.Clean(path.Join(baseDir, href))
}
