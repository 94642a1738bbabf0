package book

// Chapter is one spine-level content unit of a book.
type Chapter struct {
	ID      string
	Title   string
	Content []Block
}

// NewChapter creates a chapter.
func NewChapter(id, title string, content []Block) Chapter {
	return Chapter{ID: id, Title: title, Content: content}
}

// IsEmpty reports whether the chapter carries no content blocks.
func (c *Chapter) IsEmpty() bool {
	return len(c.Content) == 0
}
