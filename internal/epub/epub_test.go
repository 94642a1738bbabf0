package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

// buildZip builds an in-memory ZIP from name -> content pairs, preserving
// insertion order of the names slice.
func buildZip(t *testing.T, names []string, contents map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(contents[name])); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const testContainerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

func minimalEPUB(t *testing.T, opf string) []byte {
	t.Helper()
	return buildZip(t,
		[]string{"mimetype", "META-INF/container.xml", "OEBPS/content.opf"},
		map[string]string{
			"mimetype":               "application/epub+zip",
			"META-INF/container.xml": testContainerXML,
			"OEBPS/content.opf":      opf,
		})
}

func TestNewReader(t *testing.T) {
	data := minimalEPUB(t, "<package/>")
	r, err := NewReader(data)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.OPFPath() != "OEBPS/content.opf" {
		t.Errorf("OPFPath = %q", r.OPFPath())
	}
	if !r.Has("OEBPS/content.opf") {
		t.Error("Has(OEBPS/content.opf) = false")
	}
}

func TestNewReaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"not a zip", []byte("garbage"), ErrNotZip},
		{"missing mimetype", buildZip(t,
			[]string{"META-INF/container.xml"},
			map[string]string{"META-INF/container.xml": testContainerXML}), ErrMimetypeNotFound},
		{"wrong mimetype", buildZip(t,
			[]string{"mimetype"},
			map[string]string{"mimetype": "text/plain"}), ErrInvalidMimetype},
		{"missing container", buildZip(t,
			[]string{"mimetype"},
			map[string]string{"mimetype": "application/epub+zip"}), ErrContainerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

const testOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="pub-id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Sample Book</dc:title>
    <dc:creator opf:role="aut">Jane Writer</dc:creator>
    <dc:language>ja</dc:language>
    <dc:identifier id="pub-id">urn:uuid:1234</dc:identifier>
    <dc:identifier>secondary</dc:identifier>
    <dc:publisher>Pub House</dc:publisher>
    <dc:subject>Fiction</dc:subject>
    <meta name="cover" content="cover-img"/>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="ch1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="cover-img" href="images/cover.jpg" media-type="image/jpeg"/>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
  </manifest>
  <spine toc="ncx" page-progression-direction="rtl">
    <itemref idref="ch1"/>
    <itemref idref="nav" linear="no"/>
  </spine>
</package>`

func TestParseOPF(t *testing.T) {
	opf, err := ParseOPF([]byte(testOPF), "OEBPS")
	if err != nil {
		t.Fatalf("ParseOPF: %v", err)
	}

	md := opf.Metadata
	if md.Title != "Sample Book" {
		t.Errorf("Title = %q", md.Title)
	}
	if len(md.Creators) != 1 || md.Creators[0].Name != "Jane Writer" || md.Creators[0].Role != "aut" {
		t.Errorf("Creators = %+v", md.Creators)
	}
	if md.Language != "ja" {
		t.Errorf("Language = %q", md.Language)
	}
	if md.Identifier != "urn:uuid:1234" {
		t.Errorf("Identifier = %q, want unique-identifier value", md.Identifier)
	}
	if md.Direction != "rtl" {
		t.Errorf("Direction = %q", md.Direction)
	}

	if got := opf.Manifest["ch1"].Href; got != "OEBPS/text/ch1.xhtml" {
		t.Errorf("ch1 href = %q", got)
	}
	if opf.NavPath != "OEBPS/nav.xhtml" {
		t.Errorf("NavPath = %q", opf.NavPath)
	}
	if opf.NCXPath != "OEBPS/toc.ncx" {
		t.Errorf("NCXPath = %q", opf.NCXPath)
	}

	if len(opf.Spine) != 2 {
		t.Fatalf("spine length = %d", len(opf.Spine))
	}
	if !opf.Spine[0].Linear || opf.Spine[1].Linear {
		t.Errorf("spine linear flags = %v %v", opf.Spine[0].Linear, opf.Spine[1].Linear)
	}

	cover, ok := opf.FindCoverImage()
	if !ok || cover != "OEBPS/images/cover.jpg" {
		t.Errorf("FindCoverImage = %q, %v", cover, ok)
	}
}

func TestFindCoverImagePrefersProperty(t *testing.T) {
	const src = `<package xmlns="http://www.idpf.org/2007/opf">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <meta name="cover" content="old"/>
  </metadata>
  <manifest>
    <item id="old" href="old.jpg" media-type="image/jpeg"/>
    <item id="new" href="new.jpg" media-type="image/jpeg" properties="cover-image"/>
  </manifest>
  <spine/>
</package>`
	opf, err := ParseOPF([]byte(src), "")
	if err != nil {
		t.Fatalf("ParseOPF: %v", err)
	}
	cover, ok := opf.FindCoverImage()
	if !ok || cover != "new.jpg" {
		t.Errorf("FindCoverImage = %q, %v, want new.jpg", cover, ok)
	}
}

const testNCX = `<?xml version="1.0"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="np1" playOrder="1">
      <navLabel><text>Chapter One</text></navLabel>
      <content src="text/ch1.xhtml"/>
      <navPoint id="np1a" playOrder="2">
        <navLabel><text>Section</text></navLabel>
        <content src="text/ch1.xhtml#sec1"/>
      </navPoint>
    </navPoint>
    <navPoint id="np2" playOrder="3">
      <navLabel><text>Chapter Two</text></navLabel>
      <content src="text/ch2.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

func TestParseNCX(t *testing.T) {
	points, err := ParseNCX([]byte(testNCX), "OEBPS")
	if err != nil {
		t.Fatalf("ParseNCX: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("navpoint count = %d, want 2", len(points))
	}
	if points[0].Label != "Chapter One" || points[0].ContentPath != "OEBPS/text/ch1.xhtml" {
		t.Errorf("point 0 = %+v", points[0])
	}
	if len(points[0].Children) != 1 {
		t.Fatalf("point 0 children = %d, want 1", len(points[0].Children))
	}
	child := points[0].Children[0]
	if child.Fragment != "sec1" || child.ContentPath != "OEBPS/text/ch1.xhtml" {
		t.Errorf("child = %+v", child)
	}
}

const testNav = `<?xml version="1.0"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<body>
  <nav epub:type="toc">
    <ol>
      <li><a href="ch1.xhtml">First</a>
        <ol><li><a href="ch1.xhtml#s1">Nested</a></li></ol>
      </li>
      <li><a href="ch2.xhtml">Second</a></li>
    </ol>
  </nav>
</body>
</html>`

func TestParseNav(t *testing.T) {
	points, err := ParseNav([]byte(testNav), "OEBPS")
	if err != nil {
		t.Fatalf("ParseNav: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("navpoint count = %d, want 2", len(points))
	}
	if points[0].Label != "First" || points[0].ContentPath != "OEBPS/ch1.xhtml" {
		t.Errorf("point 0 = %+v", points[0])
	}
	if len(points[0].Children) != 1 || points[0].Children[0].Fragment != "s1" {
		t.Errorf("children = %+v", points[0].Children)
	}
	if points[1].Label != "Second" {
		t.Errorf("point 1 = %+v", points[1])
	}
}

func TestSplitFragment(t *testing.T) {
	tests := []struct {
		src      string
		path     string
		fragment string
	}{
		{"ch1.xhtml", "ch1.xhtml", ""},
		{"ch1.xhtml#top", "ch1.xhtml", "top"},
		{"", "", ""},
		{"#only", "", "only"},
	}
	for _, tt := range tests {
		p, f := splitFragment(tt.src)
		if p != tt.path || f != tt.fragment {
			t.Errorf("splitFragment(%q) = %q, %q; want %q, %q", tt.src, p, f, tt.path, tt.fragment)
		}
	}
}
