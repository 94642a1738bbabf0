package book

// TocEntry is one node of the navigation tree. Target names a chapter ID,
// optionally with a "#fragment" suffix for an in-chapter anchor.
type TocEntry struct {
	Title    string
	Target   string
	Level    int
	Children []TocEntry
}

// FlattenToc walks the tree depth-first and returns every entry in reading
// order.
func FlattenToc(entries []TocEntry) []TocEntry {
	var out []TocEntry
	for _, e := range entries {
		out = append(out, e)
		out = append(out, FlattenToc(e.Children)...)
	}
	return out
}
