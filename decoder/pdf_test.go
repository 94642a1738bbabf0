package decoder

import (
	"testing"

	"github.com/kaitwalla/bookle/book"
)

func TestIsLikelyHeading(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Chapter 1", true},
		{"Part One: The Beginning", true},
		{"PROLOGUE", true},
		{"THE LONG NIGHT", true},
		{"IV. The Journey", true},
		{"12 Angry Men", true},
		{"It was a dark and stormy night.", false},
		{"A perfectly ordinary line of prose without an ending period", false},
		{"Chapter 1 ends with a period, so it reads as prose.", false},
	}
	for _, tt := range tests {
		if got := isLikelyHeading(tt.text); got != tt.want {
			t.Errorf("isLikelyHeading(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestDetectHeadingLevel(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Book Two", 1},
		{"Part One", 1},
		{"Chapter 5", 2},
		{"Prologue", 2},
		{"Epilogue", 2},
		{"Section 3.1", 3},
		{"THE END", 2},
	}
	for _, tt := range tests {
		if got := detectHeadingLevel(tt.text); got != tt.want {
			t.Errorf("detectHeadingLevel(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestTextToBlocks(t *testing.T) {
	text := "Chapter 1\n\nFirst line\nsecond line\n\nAnother paragraph.\n"

	blocks := textToBlocks(text)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}

	h, ok := blocks[0].(*book.Header)
	if !ok {
		t.Fatalf("block 0 is %T, want *book.Header", blocks[0])
	}
	if h.Level != 2 || book.PlainText(h.Content) != "Chapter 1" {
		t.Errorf("header = level %d %q", h.Level, book.PlainText(h.Content))
	}

	p, ok := blocks[1].(*book.Paragraph)
	if !ok {
		t.Fatalf("block 1 is %T, want *book.Paragraph", blocks[1])
	}
	if got := book.PlainText(p.Content); got != "First line second line" {
		t.Errorf("paragraph = %q, want lines joined with a space", got)
	}
}
