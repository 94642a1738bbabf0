package decoder

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/kaitwalla/bookle/book"
)

const fixtureContainerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const fixtureOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Fixture Book</dc:title>
    <dc:creator>Jane Doe</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="bookid">urn:uuid:fixture-1234</dc:identifier>
    <dc:rights>Public Domain</dc:rights>
  </metadata>
  <manifest>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
    <item id="chapter2" href="chapter2.xhtml" media-type="application/xhtml+xml"/>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="cover" href="cover.jpg" media-type="image/jpeg" properties="cover-image"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="chapter1"/>
    <itemref idref="chapter2"/>
  </spine>
</package>`

const fixtureNCX = `<?xml version="1.0"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="np1" playOrder="1">
      <navLabel><text>Chapter One</text></navLabel>
      <content src="chapter1.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

const fixtureChapter1 = `<html><body>
<h1>Chapter One</h1>
<p>Hello <b>world</b>.</p>
<img src="cover.jpg" alt="cover"/>
</body></html>`

const fixtureChapter2 = `<html><body>
<h2>Chapter Two</h2>
<p>More content.</p>
</body></html>`

type zipEntry struct {
	name string
	body string
}

// buildContainer assembles an EPUB container with a stored mimetype entry.
func buildContainer(t *testing.T, entries []zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("create mimetype: %v", err)
	}
	if _, err := w.Write([]byte("application/epub+zip")); err != nil {
		t.Fatalf("write mimetype: %v", err)
	}

	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("create %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatalf("write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// fixtureEPUB builds the standard test book with a custom first chapter.
func fixtureEPUB(t *testing.T, chapter1 string) []byte {
	t.Helper()
	return buildContainer(t, []zipEntry{
		{"META-INF/container.xml", fixtureContainerXML},
		{"OEBPS/content.opf", fixtureOPF},
		{"OEBPS/toc.ncx", fixtureNCX},
		{"OEBPS/chapter1.xhtml", chapter1},
		{"OEBPS/chapter2.xhtml", fixtureChapter2},
		{"OEBPS/cover.jpg", "\xff\xd8not-really-a-jpeg"},
	})
}

func TestEpubDecode(t *testing.T) {
	b, err := NewEpub().Decode(fixtureEPUB(t, fixtureChapter1))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if b.Metadata.Title != "Fixture Book" {
		t.Errorf("title = %q", b.Metadata.Title)
	}
	if b.Metadata.Author() != "Jane Doe" {
		t.Errorf("author = %q", b.Metadata.Author())
	}
	if b.Metadata.Identifier != "urn:uuid:fixture-1234" {
		t.Errorf("identifier = %q", b.Metadata.Identifier)
	}
	if b.Metadata.Rights != "Public Domain" {
		t.Errorf("rights = %q", b.Metadata.Rights)
	}

	if len(b.Chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(b.Chapters))
	}
	if b.Chapters[0].Title != "Chapter One" {
		t.Errorf("chapter 1 title = %q, want TOC label", b.Chapters[0].Title)
	}
	if b.Chapters[1].Title != "Chapter Two" {
		t.Errorf("chapter 2 title = %q, want first header text", b.Chapters[1].Title)
	}

	if len(b.Toc) != 1 || b.Toc[0].Title != "Chapter One" {
		t.Errorf("toc = %+v", b.Toc)
	}
}

func TestEpubDecodeResources(t *testing.T) {
	b, err := NewEpub().Decode(fixtureEPUB(t, fixtureChapter1))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if b.Resources.Len() != 1 {
		t.Fatalf("got %d resources, want 1", b.Resources.Len())
	}
	if b.Metadata.CoverResourceKey == "" {
		t.Fatal("cover resource key not set")
	}
	if !b.Resources.Has(b.Metadata.CoverResourceKey) {
		t.Error("cover resource key does not resolve in the store")
	}

	var img *book.Image
	for _, blk := range b.Chapters[0].Content {
		if i, ok := blk.(*book.Image); ok {
			img = i
		}
	}
	if img == nil {
		t.Fatal("no image block in chapter 1")
	}
	if img.ResourceKey != b.Metadata.CoverResourceKey {
		t.Errorf("image key = %q, want cover key %q", img.ResourceKey, b.Metadata.CoverResourceKey)
	}
}

func TestEpubDecodeInvalid(t *testing.T) {
	if _, err := NewEpub().Decode([]byte("not a zip")); err == nil {
		t.Error("Decode() accepted garbage input")
	}
}

func TestEpubDecodeMissingTitleFallsBack(t *testing.T) {
	opf := strings.Replace(fixtureOPF, "<dc:title>Fixture Book</dc:title>", "", 1)
	data := buildContainer(t, []zipEntry{
		{"META-INF/container.xml", fixtureContainerXML},
		{"OEBPS/content.opf", opf},
	})

	b, err := NewEpub().Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if b.Metadata.Title != "Unknown Title" {
		t.Errorf("title = %q, want fallback %q", b.Metadata.Title, "Unknown Title")
	}
}

func TestEpubDecodeSkipsBrokenSpineItem(t *testing.T) {
	// A spine item whose file is missing is skipped, not fatal.
	data := buildContainer(t, []zipEntry{
		{"META-INF/container.xml", fixtureContainerXML},
		{"OEBPS/content.opf", fixtureOPF},
		{"OEBPS/toc.ncx", fixtureNCX},
		{"OEBPS/chapter2.xhtml", fixtureChapter2},
		{"OEBPS/cover.jpg", "\xff\xd8"},
	})

	b, err := NewEpub().Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(b.Chapters) != 1 {
		t.Fatalf("got %d chapters, want 1", len(b.Chapters))
	}
	if b.Chapters[0].Title != "Chapter Two" {
		t.Errorf("chapter title = %q", b.Chapters[0].Title)
	}
}
