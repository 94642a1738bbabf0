// Package mobi reads MOBI/AZW containers: the Palm Database shell, the
// PalmDOC and MOBI headers of record zero, EXTH metadata records, and the
// PalmDoc-compressed text records.
package mobi

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// PDBHeaderSize is the fixed size of the Palm Database header.
const PDBHeaderSize = 78

var (
	ErrTooShort    = errors.New("input too short for a Palm Database")
	ErrNotMobi     = errors.New("not a MOBI database (type/creator mismatch)")
	ErrBadRecord   = errors.New("record bounds outside input")
	ErrEncrypted   = errors.New("encrypted MOBI books are not supported")
	ErrCompression = errors.New("unsupported compression type")
)

// PDBHeader represents the fixed 78-byte Palm Database header.
// All fields are encoded in big-endian order.
type PDBHeader struct {
	Name       [32]byte // Database name (31 bytes max, NULL padded)
	Type       [4]byte  // "BOOK"
	Creator    [4]byte  // "MOBI"
	NumRecords uint16
}

// RecordEntry represents a single record entry in the record list.
type RecordEntry struct {
	Offset     uint32
	Attributes uint8
}

// PDB is a parsed Palm Database: header, record list, and the raw input the
// record offsets point into.
type PDB struct {
	Header  PDBHeader
	Records []RecordEntry

	data []byte
}

// ParsePDB parses the Palm Database header and record list. The type and
// creator fields must identify a MOBI book ("BOOK"/"MOBI") or a bare
// PalmDOC text ("TEXt"/"REAd").
func ParsePDB(data []byte) (*PDB, error) {
	if len(data) < PDBHeaderSize+2 {
		return nil, ErrTooShort
	}

	var h PDBHeader
	copy(h.Name[:], data[0:32])
	copy(h.Type[:], data[60:64])
	copy(h.Creator[:], data[64:68])
	h.NumRecords = binary.BigEndian.Uint16(data[76:78])

	typeCreator := string(h.Type[:]) + string(h.Creator[:])
	if typeCreator != "BOOKMOBI" && typeCreator != "TEXtREAd" {
		return nil, fmt.Errorf("%w: %q", ErrNotMobi, typeCreator)
	}

	listEnd := PDBHeaderSize + int(h.NumRecords)*8
	if len(data) < listEnd {
		return nil, fmt.Errorf("%w: record list truncated", ErrTooShort)
	}

	pdb := &PDB{Header: h, data: data}
	for i := 0; i < int(h.NumRecords); i++ {
		off := PDBHeaderSize + i*8
		pdb.Records = append(pdb.Records, RecordEntry{
			Offset:     binary.BigEndian.Uint32(data[off : off+4]),
			Attributes: data[off+4],
		})
	}
	return pdb, nil
}

// Name returns the database name with NULL padding stripped.
func (p *PDB) Name() string {
	for i, b := range p.Header.Name {
		if b == 0 {
			return string(p.Header.Name[:i])
		}
	}
	return string(p.Header.Name[:])
}

// Record returns the bytes of record index. A record runs from its offset
// to the next record's offset, or to the end of input for the last one.
func (p *PDB) Record(index int) ([]byte, error) {
	if index < 0 || index >= len(p.Records) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrBadRecord, index, len(p.Records))
	}
	start := int(p.Records[index].Offset)
	end := len(p.data)
	if index+1 < len(p.Records) {
		end = int(p.Records[index+1].Offset)
	}
	if start > end || end > len(p.data) {
		return nil, fmt.Errorf("%w: record %d spans [%d,%d) of %d bytes", ErrBadRecord, index, start, end, len(p.data))
	}
	return p.data[start:end], nil
}
