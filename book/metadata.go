package book

import "github.com/google/uuid"

// ReadingDirection is the page progression direction of a book.
type ReadingDirection string

const (
	// LeftToRight is the default progression for western scripts.
	LeftToRight ReadingDirection = "ltr"
	// RightToLeft is used for manga and RTL scripts.
	RightToLeft ReadingDirection = "rtl"
)

// SeriesInfo places a book within a series.
type SeriesInfo struct {
	Name  string
	Index float64
}

// Metadata holds book-level bibliographic information. Title, Language, and
// Identifier are always non-empty; everything else is optional.
type Metadata struct {
	Title            string
	Authors          []string
	Language         string
	Identifier       string
	Publisher        string
	Description      string
	Subjects         []string
	PublishedDate    string
	Rights           string
	Series           *SeriesInfo
	Direction        ReadingDirection
	CoverResourceKey string
}

// NewMetadata creates metadata with the required fields filled in. An empty
// title becomes "Unknown Title", an empty language "en", and an empty
// identifier a freshly generated UUID.
func NewMetadata(title, language, identifier string) Metadata {
	if title == "" {
		title = "Unknown Title"
	}
	if language == "" {
		language = "en"
	}
	if identifier == "" {
		identifier = uuid.NewString()
	}
	return Metadata{
		Title:      title,
		Language:   language,
		Identifier: identifier,
		Direction:  LeftToRight,
	}
}

// Author returns the first author, or the empty string when none is set.
func (m *Metadata) Author() string {
	if len(m.Authors) == 0 {
		return ""
	}
	return m.Authors[0]
}
