// Package book defines the format-neutral in-memory representation shared by
// every decoder and encoder: a Book of Chapters holding Block/Inline content
// trees, plus Metadata, a navigation tree, and a content-addressed
// ResourceStore. The JSON encoding of these types is a stability contract
// used for interchange between processes.
package book

import "github.com/google/uuid"

// Book is a complete parsed ebook.
type Book struct {
	ID        string
	Metadata  Metadata
	Chapters  []Chapter
	Toc       []TocEntry
	Resources *ResourceStore
}

// New creates an empty book with a fresh UUID, the given metadata, and a
// fresh resource store.
func New(metadata Metadata) *Book {
	return &Book{
		ID:        uuid.NewString(),
		Metadata:  metadata,
		Resources: NewResourceStore(),
	}
}

// AddChapter appends a chapter.
func (b *Book) AddChapter(c Chapter) {
	b.Chapters = append(b.Chapters, c)
}

// ChapterByID returns the chapter with the given ID, or nil.
func (b *Book) ChapterByID(id string) *Chapter {
	for i := range b.Chapters {
		if b.Chapters[i].ID == id {
			return &b.Chapters[i]
		}
	}
	return nil
}
