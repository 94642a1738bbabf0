package decoder

import (
	"errors"
	"testing"

	"github.com/kaitwalla/bookle/book"
)

func TestLitDecodeRejectsShortInput(t *testing.T) {
	_, err := NewLit().Decode([]byte("ITO"))
	if !errors.Is(err, ErrMalformedContent) {
		t.Errorf("Decode() error = %v, want ErrMalformedContent", err)
	}
}

func TestLitDecodeRejectsBadSignature(t *testing.T) {
	_, err := NewLit().Decode([]byte("NOTVALID\x00\x00"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Decode() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLitDecodeProducesPlaceholder(t *testing.T) {
	data := append([]byte("ITOLITLS"), make([]byte, 100)...)

	b, err := NewLit().Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if b.Metadata.Title != "Unknown Title (LIT Format)" {
		t.Errorf("title = %q", b.Metadata.Title)
	}
	if len(b.Chapters) != 1 {
		t.Fatalf("got %d chapters, want 1", len(b.Chapters))
	}
	ch := b.Chapters[0]
	if ch.ID != "lit-info" || ch.Title != "LIT Format Information" {
		t.Errorf("chapter = %q/%q", ch.ID, ch.Title)
	}
	if len(ch.Content) == 0 {
		t.Error("placeholder chapter has no content")
	}
	h, ok := ch.Content[0].(*book.Header)
	if !ok || book.PlainText(h.Content) != "LIT Format Import" {
		t.Errorf("first block = %#v", ch.Content[0])
	}
}

func TestLitDecodeScavengesTitle(t *testing.T) {
	data := append([]byte("ITOLITLS"), make([]byte, 8)...)
	for _, c := range "My Great Novel" {
		data = append(data, byte(c), 0)
	}
	data = append(data, make([]byte, 16)...)

	b, err := NewLit().Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if b.Metadata.Title != "My Great Novel" {
		t.Errorf("title = %q, want %q", b.Metadata.Title, "My Great Novel")
	}
}

func TestFindUTF16LEString(t *testing.T) {
	var data []byte
	for _, c := range "Hello World" {
		data = append(data, byte(c), 0)
	}
	if got := findUTF16LEString(data, 5, 50); got != "Hello World" {
		t.Errorf("findUTF16LEString() = %q, want %q", got, "Hello World")
	}

	// Paths and URLs are not titles.
	var path []byte
	for _, c := range "C:\\books\\file.lit" {
		path = append(path, byte(c), 0)
	}
	if got := findUTF16LEString(path, 10, 50); got != "" {
		t.Errorf("findUTF16LEString(path) = %q, want empty", got)
	}
}
