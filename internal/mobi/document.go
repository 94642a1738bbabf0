package mobi

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// Document is the metadata and recovered HTML of a parsed MOBI book.
type Document struct {
	Title       string
	Author      string
	Publisher   string
	Description string
	Subjects    []string
	HTML        []byte
}

// Parse reads a complete MOBI/AZW book from bytes: Palm Database shell,
// record zero headers, EXTH metadata, and the decompressed text records.
func Parse(data []byte) (*Document, error) {
	pdb, err := ParsePDB(data)
	if err != nil {
		return nil, err
	}
	if len(pdb.Records) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrTooShort)
	}

	rec0, err := pdb.Record(0)
	if err != nil {
		return nil, err
	}
	r0, err := ParseRecord0(rec0)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	doc.Title = r0.FullName()
	if title, ok := EXTHString(r0.EXTH, EXTHUpdatedTitle); ok {
		doc.Title = title
	}
	if doc.Title == "" {
		doc.Title = pdb.Name()
	}
	doc.Author, _ = EXTHString(r0.EXTH, EXTHAuthor)
	doc.Publisher, _ = EXTHString(r0.EXTH, EXTHPublisher)
	doc.Description, _ = EXTHString(r0.EXTH, EXTHDescription)
	doc.Subjects = EXTHStrings(r0.EXTH, EXTHSubject)

	text, err := readText(pdb, r0)
	if err != nil {
		return nil, err
	}
	doc.HTML = text

	return doc, nil
}

// readText decompresses and concatenates the text records.
func readText(pdb *PDB, r0 *Record0) ([]byte, error) {
	count := int(r0.PalmDoc.RecordCount)
	if count > len(pdb.Records)-1 {
		count = len(pdb.Records) - 1
	}

	var extraFlags uint16
	if r0.Mobi != nil {
		extraFlags = r0.Mobi.ExtraDataFlags
	}

	var text []byte
	for i := 1; i <= count; i++ {
		record, err := pdb.Record(i)
		if err != nil {
			return nil, err
		}
		record = StripTrailingEntries(record, extraFlags)

		switch r0.PalmDoc.Compression {
		case CompressionNone:
			text = append(text, record...)
		case CompressionPalmDoc:
			chunk, err := PalmDocDecompress(record)
			if err != nil {
				return nil, fmt.Errorf("text record %d: %w", i, err)
			}
			text = append(text, chunk...)
		}
	}

	if int(r0.PalmDoc.TextLength) < len(text) {
		text = text[:r0.PalmDoc.TextLength]
	}

	if r0.Mobi != nil && r0.Mobi.TextEncoding == EncodingCP1252 {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(text)
		if err != nil {
			return nil, fmt.Errorf("failed to decode cp1252 text: %w", err)
		}
		text = decoded
	}

	return text, nil
}
