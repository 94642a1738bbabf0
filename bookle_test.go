package bookle

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/kaitwalla/bookle/decoder"
)

const testMarkdown = "# My Book\n\nIntroduction.\n\n# Chapter 1\n\nContent here."

func TestConvertMarkdownToEpubRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Convert([]byte(testMarkdown), "md", "epub", &buf); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	b, err := Decode(buf.Bytes(), "epub")
	if err != nil {
		t.Fatalf("Decode(round trip) error = %v", err)
	}
	if b.Metadata.Title != "My Book" {
		t.Errorf("title = %q, want %q", b.Metadata.Title, "My Book")
	}
	if len(b.Chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(b.Chapters))
	}
	if b.Chapters[0].Title != "My Book" || b.Chapters[1].Title != "Chapter 1" {
		t.Errorf("chapter titles = %q, %q", b.Chapters[0].Title, b.Chapters[1].Title)
	}
}

func TestConvertMarkdownToTypst(t *testing.T) {
	var buf bytes.Buffer
	if err := Convert([]byte(testMarkdown), "md", "pdf", &buf); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"#set page(", "= My Book", "= Chapter 1", "Content here."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestConvertUnknownFormats(t *testing.T) {
	var buf bytes.Buffer
	if err := Convert([]byte("x"), "docx", "epub", &buf); !errors.Is(err, decoder.ErrUnsupportedFormat) {
		t.Errorf("unknown input format: error = %v, want ErrUnsupportedFormat", err)
	}
	if err := Convert([]byte(testMarkdown), "md", "docx", &buf); !errors.Is(err, decoder.ErrUnsupportedFormat) {
		t.Errorf("unknown output format: error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLookupHelpers(t *testing.T) {
	if DecoderForExtension("epub") == nil {
		t.Error("no decoder for epub")
	}
	if DecoderForMIMEType("application/epub+zip") == nil {
		t.Error("no decoder for application/epub+zip")
	}
	if EncoderForFormat("kepub") == nil {
		t.Error("no encoder for kepub")
	}
}
