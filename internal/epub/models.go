package epub

// OPF represents the parsed Open Package Format document.
type OPF struct {
	Metadata      Metadata
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // manifest ids in document order
	Spine         []SpineItem
	NCXPath       string // from the spine toc attribute
	NavPath       string // EPUB 3.0 nav document (properties~=nav)
}

// Metadata represents the metadata section of the OPF.
type Metadata struct {
	Title       string
	Creators    []Creator
	Language    string
	Identifier  string
	Publisher   string
	Date        string
	Description string
	Subjects    []string
	Rights      string
	CoverID     string // EPUB 2.0 cover image manifest item ID (from meta name="cover")
	Direction   string // spine page-progression-direction
}

// Creator represents a creator (author, editor, etc.) of the book.
type Creator struct {
	Name string
	Role string // e.g., "aut" for author, "edt" for editor
}

// ManifestItem represents an item in the manifest.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}

// HasProperty reports whether the item carries the given property token.
func (m ManifestItem) HasProperty(prop string) bool {
	for _, p := range m.Properties {
		if p == prop {
			return true
		}
	}
	return false
}

// SpineItem represents an item reference in the spine.
type SpineItem struct {
	IDRef  string
	Linear bool
}
