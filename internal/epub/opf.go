package epub

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"
)

// opfPackage represents the OPF XML structure.
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	UniqueID string      `xml:"unique-identifier,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
}

// opfMetadata represents the metadata section.
type opfMetadata struct {
	Title       []string        `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creator     []opfCreator    `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Language    []string        `xml:"http://purl.org/dc/elements/1.1/ language"`
	Identifier  []opfIdentifier `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Publisher   []string        `xml:"http://purl.org/dc/elements/1.1/ publisher"`
	Date        []string        `xml:"http://purl.org/dc/elements/1.1/ date"`
	Description []string        `xml:"http://purl.org/dc/elements/1.1/ description"`
	Subject     []string        `xml:"http://purl.org/dc/elements/1.1/ subject"`
	Rights      []string        `xml:"http://purl.org/dc/elements/1.1/ rights"`
	Meta        []opfMeta       `xml:"meta"`
}

// opfCreator represents a creator element.
type opfCreator struct {
	Name string `xml:",chardata"`
	Role string `xml:"http://www.idpf.org/2007/opf role,attr"`
}

// opfIdentifier represents an identifier element.
type opfIdentifier struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr"`
}

// opfMeta represents a meta element (EPUB 2.0 and 3.0).
type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

// opfManifest represents the manifest section.
type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

// opfManifestItem represents an item in the manifest.
type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// opfSpine represents the spine section.
type opfSpine struct {
	Toc       string       `xml:"toc,attr"`
	Direction string       `xml:"page-progression-direction,attr"`
	ItemRefs  []opfItemRef `xml:"itemref"`
}

// opfItemRef represents an itemref in the spine.
type opfItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

// ParseOPF parses a package document. opfDir is the container directory
// holding the OPF file (e.g. "OEBPS"); manifest hrefs resolve against it.
func ParseOPF(content []byte, opfDir string) (*OPF, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse OPF XML: %w", err)
	}

	opf := &OPF{
		Manifest: make(map[string]ManifestItem),
	}
	opf.Metadata = parseMetadata(&pkg.Metadata, pkg.UniqueID)
	opf.Metadata.Direction = pkg.Spine.Direction

	for _, item := range pkg.Manifest.Items {
		manifestItem := ManifestItem{
			ID:        item.ID,
			Href:      joinPath(opfDir, item.Href),
			MediaType: item.MediaType,
		}
		if item.Properties != "" {
			manifestItem.Properties = strings.Fields(item.Properties)
		}
		opf.Manifest[item.ID] = manifestItem
		opf.ManifestOrder = append(opf.ManifestOrder, item.ID)

		if manifestItem.HasProperty("nav") {
			opf.NavPath = manifestItem.Href
		}
	}

	for _, itemRef := range pkg.Spine.ItemRefs {
		opf.Spine = append(opf.Spine, SpineItem{
			IDRef:  itemRef.IDRef,
			Linear: itemRef.Linear != "no",
		})
	}

	if pkg.Spine.Toc != "" {
		if ncxItem, ok := opf.Manifest[pkg.Spine.Toc]; ok {
			opf.NCXPath = ncxItem.Href
		}
	}

	return opf, nil
}

// parseMetadata parses the metadata section.
func parseMetadata(meta *opfMetadata, uniqueID string) Metadata {
	md := Metadata{}

	if len(meta.Title) > 0 {
		md.Title = meta.Title[0]
	}
	if len(meta.Language) > 0 {
		md.Language = meta.Language[0]
	}

	// Prefer the identifier marked as unique-identifier.
	for _, id := range meta.Identifier {
		if id.ID == uniqueID {
			md.Identifier = id.Value
			break
		}
	}
	if md.Identifier == "" && len(meta.Identifier) > 0 {
		md.Identifier = meta.Identifier[0].Value
	}

	if len(meta.Publisher) > 0 {
		md.Publisher = meta.Publisher[0]
	}
	if len(meta.Date) > 0 {
		md.Date = meta.Date[0]
	}
	if len(meta.Description) > 0 {
		md.Description = meta.Description[0]
	}
	if len(meta.Rights) > 0 {
		md.Rights = meta.Rights[0]
	}
	md.Subjects = meta.Subject

	for _, creator := range meta.Creator {
		md.Creators = append(md.Creators, Creator{
			Name: creator.Name,
			Role: creator.Role,
		})
	}

	// EPUB 2.0 cover meta element.
	for _, m := range meta.Meta {
		if m.Name == "cover" && m.Content != "" {
			md.CoverID = m.Content
			break
		}
	}

	return md
}

// joinPath joins the OPF directory with a container-relative path.
func joinPath(base, rel string) string {
	if base == "" || base == "." {
		return rel
	}
	return path.Clean(path.Join(base, rel))
}

// FindCoverImage finds the cover image in the manifest. EPUB 3.0
// cover-image properties win over the EPUB 2.0 meta name="cover" pointer.
func (opf *OPF) FindCoverImage() (string, bool) {
	for _, id := range opf.ManifestOrder {
		if opf.Manifest[id].HasProperty("cover-image") {
			return opf.Manifest[id].Href, true
		}
	}
	if opf.Metadata.CoverID != "" {
		if item, ok := opf.Manifest[opf.Metadata.CoverID]; ok {
			return item.Href, true
		}
	}
	return "", false
}
