package decoder

import (
	"testing"

	"github.com/kaitwalla/bookle/book"
)

func TestRemoveKoboSpans(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"adjacent spans",
			`<p><span class="koboSpan" id="kobo.1.1">Hello </span><span class="koboSpan" id="kobo.1.2">world</span></p>`,
			`<p>Hello world</p>`,
		},
		{
			"plain markup untouched",
			`<p>Hello <b>world</b></p>`,
			`<p>Hello <b>world</b></p>`,
		},
		{
			"nested regular span survives",
			`<span class="note">kept</span>`,
			`<span class="note">kept</span>`,
		},
		{
			"kobo id without class",
			`<span id="kobo.3.7">text</span>`,
			`text`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := removeKoboSpans(tt.in); got != tt.want {
				t.Errorf("removeKoboSpans() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKepubDecode(t *testing.T) {
	chapter1 := `<html><body>
<h1><span class="koboSpan" id="kobo.1.1">Chapter One</span></h1>
<p><span class="koboSpan" id="kobo.2.1">Hello </span><span class="koboSpan" id="kobo.2.2">world</span></p>
<img src="cover.jpg" alt="cover"/>
</body></html>`

	b, err := NewKepub().Decode(fixtureEPUB(t, chapter1))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if b.Metadata.Title != "Fixture Book" {
		t.Errorf("title = %q", b.Metadata.Title)
	}
	if len(b.Chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(b.Chapters))
	}

	para, ok := b.Chapters[0].Content[1].(*book.Paragraph)
	if !ok {
		t.Fatalf("block 1 is %T, want *book.Paragraph", b.Chapters[0].Content[1])
	}
	if got := book.PlainText(para.Content); got != "Hello world" {
		t.Errorf("paragraph = %q, want spans merged", got)
	}
}

func TestKepubDecodeInvalidArchive(t *testing.T) {
	if _, err := NewKepub().Decode([]byte("garbage")); err == nil {
		t.Error("Decode() accepted garbage input")
	}
}
