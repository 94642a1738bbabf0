package mobi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// buildBook assembles a minimal uncompressed BOOKMOBI database with one
// text record and the given EXTH records.
func buildBook(t *testing.T, name, text string, exth []EXTHRecord) []byte {
	t.Helper()

	// Record 0: PalmDOC header + MOBI header (+ optional EXTH).
	rec0 := make([]byte, 248)
	binary.BigEndian.PutUint16(rec0[0:2], CompressionNone)
	binary.BigEndian.PutUint32(rec0[4:8], uint32(len(text)))
	binary.BigEndian.PutUint16(rec0[8:10], 1)     // text record count
	binary.BigEndian.PutUint16(rec0[10:12], 4096) // record size
	copy(rec0[16:20], "MOBI")
	binary.BigEndian.PutUint32(rec0[20:24], 232) // header length
	binary.BigEndian.PutUint32(rec0[28:32], EncodingUTF8)
	if len(exth) > 0 {
		binary.BigEndian.PutUint32(rec0[128:132], 0x40)
	}

	var exthBlock []byte
	if len(exth) > 0 {
		var recs bytes.Buffer
		for _, r := range exth {
			binary.Write(&recs, binary.BigEndian, r.Type)
			binary.Write(&recs, binary.BigEndian, uint32(8+len(r.Data)))
			recs.Write(r.Data)
		}
		var b bytes.Buffer
		b.WriteString("EXTH")
		binary.Write(&b, binary.BigEndian, uint32(12+recs.Len()))
		binary.Write(&b, binary.BigEndian, uint32(len(exth)))
		b.Write(recs.Bytes())
		exthBlock = b.Bytes()
	}
	rec0 = append(rec0, exthBlock...)

	records := [][]byte{rec0, []byte(text)}

	var out bytes.Buffer
	header := make([]byte, PDBHeaderSize)
	copy(header[0:32], name)
	copy(header[60:64], "BOOK")
	copy(header[64:68], "MOBI")
	binary.BigEndian.PutUint16(header[76:78], uint16(len(records)))
	out.Write(header)

	offset := uint32(PDBHeaderSize + len(records)*8 + 2)
	for i, rec := range records {
		binary.Write(&out, binary.BigEndian, offset)
		out.Write([]byte{0, 0, 0, byte(i)})
		offset += uint32(len(rec))
	}
	out.Write([]byte{0, 0}) // record list padding
	for _, rec := range records {
		out.Write(rec)
	}
	return out.Bytes()
}

func TestParseMinimalBook(t *testing.T) {
	html := "<html><body><h1>T</h1><p>hi</p></body></html>"
	data := buildBook(t, "dbname", html, []EXTHRecord{
		{Type: EXTHUpdatedTitle, Data: []byte("Real Title")},
		{Type: EXTHAuthor, Data: []byte("Author Name")},
		{Type: EXTHSubject, Data: []byte("SF")},
		{Type: EXTHSubject, Data: []byte("Horror")},
	})

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "Real Title" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Author != "Author Name" {
		t.Errorf("Author = %q", doc.Author)
	}
	if len(doc.Subjects) != 2 || doc.Subjects[1] != "Horror" {
		t.Errorf("Subjects = %v", doc.Subjects)
	}
	if string(doc.HTML) != html {
		t.Errorf("HTML = %q", doc.HTML)
	}
}

func TestParseTitleFallsBackToDatabaseName(t *testing.T) {
	data := buildBook(t, "fallback", "<p>x</p>", nil)
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "fallback" {
		t.Errorf("Title = %q, want %q", doc.Title, "fallback")
	}
}

func TestParsePDBErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"too short", []byte("BOOKMOBI"), ErrTooShort},
		{"wrong type", func() []byte {
			h := make([]byte, 80)
			copy(h[60:68], "TEXTJUNK")
			return h
		}(), ErrNotMobi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePDB(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseRecord0RejectsEncryption(t *testing.T) {
	rec0 := make([]byte, 16)
	binary.BigEndian.PutUint16(rec0[0:2], CompressionPalmDoc)
	binary.BigEndian.PutUint16(rec0[12:14], 2) // encryption type
	if _, err := ParseRecord0(rec0); !errors.Is(err, ErrEncrypted) {
		t.Fatalf("error = %v, want ErrEncrypted", err)
	}
}

func TestParseRecord0TruncatedMobiHeader(t *testing.T) {
	// "MOBI" magic present, but the record ends before the fixed header
	// fields. Must parse as a bare PalmDOC record, not read out of bounds.
	rec0 := make([]byte, 24)
	binary.BigEndian.PutUint16(rec0[0:2], CompressionNone)
	copy(rec0[16:20], "MOBI")

	r0, err := ParseRecord0(rec0)
	if err != nil {
		t.Fatalf("ParseRecord0: %v", err)
	}
	if r0.Mobi != nil {
		t.Error("truncated MOBI header was not treated as absent")
	}
}

func TestPalmDocDecompress(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"literals", []byte("hello"), "hello"},
		{"space char pair", []byte{'a', 0xC1}, "a A"},
		{"uncompressed block", []byte{0x02, 0xE3, 0x81}, "\xe3\x81"},
		{"back reference", []byte{'a', 'b', 'c', 0x80, 0x18}, "abcabc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PalmDocDecompress(tt.input)
			if err != nil {
				t.Fatalf("decompress: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPalmDocDecompressInvalidBackref(t *testing.T) {
	if _, err := PalmDocDecompress([]byte{0x80, 0x18}); err == nil {
		t.Fatal("expected error for back reference before any output")
	}
}

func TestStripTrailingEntries(t *testing.T) {
	// One flagged entry of 3 bytes: payload "abcdef" + entry "xy" + size
	// byte 0x83 (high bit set, value 3, counts itself).
	record := []byte("abcdefxy\x83")
	got := StripTrailingEntries(record, 0x2)
	if string(got) != "abcdef" {
		t.Errorf("got %q, want %q", got, "abcdef")
	}

	// Multibyte flag: low two bits of final byte give size minus one.
	record = []byte("abcd\x01")
	got = StripTrailingEntries(record, 0x1)
	if string(got) != "abc" {
		t.Errorf("multibyte strip got %q, want %q", got, "abc")
	}

	// No flags leaves the record alone.
	if got := StripTrailingEntries([]byte("abc"), 0); string(got) != "abc" {
		t.Errorf("no-flag strip got %q", got)
	}
}
