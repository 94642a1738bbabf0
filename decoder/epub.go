package decoder

import (
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/kaitwalla/bookle/book"
	"github.com/kaitwalla/bookle/internal/epub"
	"github.com/kaitwalla/bookle/internal/htmlmap"
)

// Epub decodes EPUB 2.0 and 3.0 containers.
type Epub struct{}

// NewEpub creates an EPUB decoder.
func NewEpub() *Epub {
	return &Epub{}
}

// Decode implements Decoder.
func (d *Epub) Decode(data []byte) (*book.Book, error) {
	r, err := epub.NewReader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEPUB, err)
	}

	opfData, err := r.ReadFile(r.OPFPath())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEPUB, err)
	}
	opf, err := epub.ParseOPF(opfData, path.Dir(r.OPFPath()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEPUB, err)
	}

	b := book.New(metadataFromOPF(opf))
	b.Toc = loadToc(r, opf)

	pathToKey := extractResources(r, opf, b.Resources)
	if cover, ok := opf.FindCoverImage(); ok {
		if key, ok := pathToKey[cover]; ok {
			b.Metadata.CoverResourceKey = key
		}
	}

	// Flattened TOC targets for chapter title lookup.
	tocTitles := map[string]string{}
	for _, e := range book.FlattenToc(b.Toc) {
		target, _ := splitTarget(e.Target)
		tocTitles[target] = e.Title
	}

	for _, spine := range opf.Spine {
		item, ok := opf.Manifest[spine.IDRef]
		if !ok {
			log.Printf("warning: spine item %q not found in manifest, skipping", spine.IDRef)
			continue
		}
		if !strings.Contains(item.MediaType, "html") {
			continue
		}

		content, err := r.ReadFile(item.Href)
		if err != nil {
			log.Printf("warning: failed to read %q: %v, skipping", item.Href, err)
			continue
		}
		blocks, err := htmlmap.ParseBlocks(content)
		if err != nil {
			log.Printf("warning: failed to parse %q: %v, skipping", item.Href, err)
			continue
		}

		rewriteImageRefs(blocks, path.Dir(item.Href), pathToKey)

		title := chapterTitle(tocTitles, item, blocks)
		b.AddChapter(book.NewChapter(item.ID, title, blocks))
	}

	return b, nil
}

// SupportedExtensions implements Decoder.
func (d *Epub) SupportedExtensions() []string {
	return []string{"epub"}
}

// SupportedMIMETypes implements Decoder.
func (d *Epub) SupportedMIMETypes() []string {
	return []string{"application/epub+zip"}
}

func metadataFromOPF(opf *epub.OPF) book.Metadata {
	md := book.NewMetadata(opf.Metadata.Title, opf.Metadata.Language, opf.Metadata.Identifier)
	for _, c := range opf.Metadata.Creators {
		md.Authors = append(md.Authors, c.Name)
	}
	md.Publisher = opf.Metadata.Publisher
	md.Description = opf.Metadata.Description
	md.Subjects = opf.Metadata.Subjects
	md.PublishedDate = opf.Metadata.Date
	md.Rights = opf.Metadata.Rights
	if opf.Metadata.Direction == "rtl" {
		md.Direction = book.RightToLeft
	}
	return md
}

// loadToc prefers the EPUB 3.0 nav document and falls back to NCX.
func loadToc(r *epub.Reader, opf *epub.OPF) []book.TocEntry {
	var points []epub.NavPoint
	if opf.NavPath != "" {
		if data, err := r.ReadFile(opf.NavPath); err == nil {
			points, _ = epub.ParseNav(data, path.Dir(opf.NavPath))
		}
	}
	if len(points) == 0 && opf.NCXPath != "" {
		data, err := r.ReadFile(opf.NCXPath)
		if err != nil {
			log.Printf("warning: failed to read NCX: %v", err)
		} else if points, err = epub.ParseNCX(data, path.Dir(opf.NCXPath)); err != nil {
			log.Printf("warning: failed to parse NCX: %v", err)
		}
	}
	return navPointsToToc(points, 0)
}

func navPointsToToc(points []epub.NavPoint, level int) []book.TocEntry {
	var out []book.TocEntry
	for _, p := range points {
		target := p.ContentPath
		if p.Fragment != "" {
			target += "#" + p.Fragment
		}
		out = append(out, book.TocEntry{
			Title:    p.Label,
			Target:   target,
			Level:    level,
			Children: navPointsToToc(p.Children, level+1),
		})
	}
	return out
}

// extractResources stores every non-document manifest item and returns the
// container path to store key mapping.
func extractResources(r *epub.Reader, opf *epub.OPF, store *book.ResourceStore) map[string]string {
	pathToKey := make(map[string]string)
	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		// HTML/XML entries are chapters or packaging, not assets.
		if strings.Contains(item.MediaType, "html") || strings.Contains(item.MediaType, "xml") {
			continue
		}
		data, err := r.ReadFile(item.Href)
		if err != nil {
			log.Printf("warning: failed to read resource %q: %v, skipping", item.Href, err)
			continue
		}
		key := store.Add(data, item.MediaType, path.Base(item.Href))
		pathToKey[item.Href] = key
	}
	return pathToKey
}

// rewriteImageRefs replaces raw image srcs with store keys. Exact matches
// against the chapter-resolved path win; otherwise a suffix/prefix match
// handles relative path mismatches. Unresolvable refs keep their src.
func rewriteImageRefs(blocks []book.Block, chapterDir string, pathToKey map[string]string) {
	for _, b := range blocks {
		switch v := b.(type) {
		case *book.Image:
			resolved := path.Clean(path.Join(chapterDir, v.ResourceKey))
			if key, ok := pathToKey[resolved]; ok {
				v.ResourceKey = key
				continue
			}
			for p, key := range pathToKey {
				if strings.HasSuffix(v.ResourceKey, p) || strings.HasSuffix(p, v.ResourceKey) {
					v.ResourceKey = key
					break
				}
			}
		case *book.List:
			for _, item := range v.Items {
				rewriteImageRefs(item, chapterDir, pathToKey)
			}
		case *book.Blockquote:
			rewriteImageRefs(v.Content, chapterDir, pathToKey)
		case *book.Footnote:
			rewriteImageRefs(v.Content, chapterDir, pathToKey)
		}
	}
}

// chapterTitle resolves a chapter title: TOC entry whose target stem or
// suffix matches the spine item, else the first header in the content, else
// the manifest id.
func chapterTitle(tocTitles map[string]string, item epub.ManifestItem, blocks []book.Block) string {
	for target, title := range tocTitles {
		stem := strings.TrimSuffix(path.Base(target), path.Ext(target))
		if stem == item.ID || strings.HasSuffix(target, item.ID) || target == item.Href {
			return title
		}
	}
	if t := firstHeaderText(blocks, 6); t != "" {
		return t
	}
	return item.ID
}

// splitTarget splits a TOC target into path and fragment.
func splitTarget(target string) (string, string) {
	parts := strings.SplitN(target, "#", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return target, ""
}
