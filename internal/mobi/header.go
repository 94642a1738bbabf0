package mobi

import (
	"encoding/binary"
	"fmt"
)

const (
	// CompressionNone indicates no compression.
	CompressionNone uint16 = 1
	// CompressionPalmDoc indicates PalmDoc compression.
	CompressionPalmDoc uint16 = 2

	// EncodingCP1252 is the MOBI encoding code for Windows-1252.
	EncodingCP1252 uint32 = 1252
	// EncodingUTF8 is the MOBI encoding code for UTF-8.
	EncodingUTF8 uint32 = 65001

	// exthFlagPresent indicates that EXTH records follow the MOBI header.
	exthFlagPresent uint32 = 0x40

	palmDocHeaderSize = 16
)

// PalmDocHeader is the first 16 bytes of record zero.
type PalmDocHeader struct {
	Compression    uint16
	TextLength     uint32
	RecordCount    uint16
	RecordSize     uint16
	EncryptionType uint16
}

// MobiHeader is the "MOBI" header that follows the PalmDOC header in record
// zero of BOOKMOBI databases. Bare TEXtREAd databases have none.
type MobiHeader struct {
	HeaderLength   uint32
	MobiType       uint32
	TextEncoding   uint32
	FullNameOffset uint32
	FullNameLength uint32
	EXTHFlags      uint32
	ExtraDataFlags uint16
}

// Record0 is the fully parsed first record.
type Record0 struct {
	PalmDoc PalmDocHeader
	Mobi    *MobiHeader   // nil for bare PalmDOC databases
	EXTH    []EXTHRecord  // nil when no EXTH header is present
	raw     []byte
}

// ParseRecord0 parses the PalmDOC header, the optional MOBI header, and the
// optional EXTH block of record zero. Encrypted books are rejected.
func ParseRecord0(data []byte) (*Record0, error) {
	if len(data) < palmDocHeaderSize {
		return nil, fmt.Errorf("%w: record 0 is %d bytes", ErrTooShort, len(data))
	}

	r0 := &Record0{raw: data}
	r0.PalmDoc = PalmDocHeader{
		Compression:    binary.BigEndian.Uint16(data[0:2]),
		TextLength:     binary.BigEndian.Uint32(data[4:8]),
		RecordCount:    binary.BigEndian.Uint16(data[8:10]),
		RecordSize:     binary.BigEndian.Uint16(data[10:12]),
		EncryptionType: binary.BigEndian.Uint16(data[12:14]),
	}

	if r0.PalmDoc.EncryptionType != 0 {
		return nil, ErrEncrypted
	}
	switch r0.PalmDoc.Compression {
	case CompressionNone, CompressionPalmDoc:
	default:
		return nil, fmt.Errorf("%w: %d", ErrCompression, r0.PalmDoc.Compression)
	}

	// A MOBI header shorter than its fixed fields is treated as absent.
	if len(data) < 32 || string(data[16:20]) != "MOBI" {
		return r0, nil
	}

	m := &MobiHeader{
		HeaderLength: binary.BigEndian.Uint32(data[20:24]),
		MobiType:     binary.BigEndian.Uint32(data[24:28]),
		TextEncoding: binary.BigEndian.Uint32(data[28:32]),
	}
	if len(data) >= 92 {
		m.FullNameOffset = binary.BigEndian.Uint32(data[84:88])
		m.FullNameLength = binary.BigEndian.Uint32(data[88:92])
	}
	if len(data) >= 132 {
		m.EXTHFlags = binary.BigEndian.Uint32(data[128:132])
	}
	// The extra data flags field exists only in later header revisions.
	if m.HeaderLength >= 228 && len(data) >= 244 {
		m.ExtraDataFlags = binary.BigEndian.Uint16(data[242:244])
	}
	r0.Mobi = m

	if m.EXTHFlags&exthFlagPresent != 0 {
		exthStart := palmDocHeaderSize + int(m.HeaderLength)
		if exthStart < len(data) {
			records, err := ParseEXTH(data[exthStart:])
			if err != nil {
				return nil, err
			}
			r0.EXTH = records
		}
	}

	return r0, nil
}

// FullName returns the book's full name stored in record zero, or "" when
// the field is absent or out of bounds.
func (r *Record0) FullName() string {
	if r.Mobi == nil || r.Mobi.FullNameLength == 0 {
		return ""
	}
	start := int(r.Mobi.FullNameOffset)
	end := start + int(r.Mobi.FullNameLength)
	if start < 0 || end > len(r.raw) {
		return ""
	}
	return string(r.raw[start:end])
}
