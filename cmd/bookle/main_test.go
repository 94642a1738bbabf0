package main

import "testing"

func TestFormatExtension(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"./books/sample.epub", "epub"},
		{"./books/sample.kepub.epub", "kepub.epub"},
		{"BOOK.EPUB", "epub"},
		{"notes.md", "md"},
		{"archive.azw3", "azw3"},
		{"noext", ""},
	}
	for _, tt := range tests {
		if got := formatExtension(tt.path); got != tt.want {
			t.Errorf("formatExtension(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
