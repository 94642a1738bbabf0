package mobi

import (
	"encoding/binary"
	"fmt"
)

// EXTH record types carrying book metadata.
const (
	EXTHAuthor       uint32 = 100
	EXTHPublisher    uint32 = 101
	EXTHDescription  uint32 = 103
	EXTHSubject      uint32 = 105
	EXTHUpdatedTitle uint32 = 503
)

// EXTHRecord represents a single EXTH metadata record.
type EXTHRecord struct {
	Type uint32
	Data []byte
}

// ParseEXTH parses an EXTH block.
// Format: "EXTH"(4) + headerLength(4) + recordCount(4) + records + padding.
func ParseEXTH(data []byte) ([]EXTHRecord, error) {
	if len(data) < 12 || string(data[0:4]) != "EXTH" {
		return nil, fmt.Errorf("invalid EXTH block")
	}

	count := binary.BigEndian.Uint32(data[8:12])
	records := make([]EXTHRecord, 0, count)

	offset := 12
	for i := uint32(0); i < count; i++ {
		if offset+8 > len(data) {
			return nil, fmt.Errorf("EXTH record %d truncated", i)
		}
		recType := binary.BigEndian.Uint32(data[offset : offset+4])
		recLen := int(binary.BigEndian.Uint32(data[offset+4 : offset+8]))
		if recLen < 8 || offset+recLen > len(data) {
			return nil, fmt.Errorf("EXTH record %d has invalid length %d", i, recLen)
		}
		records = append(records, EXTHRecord{
			Type: recType,
			Data: data[offset+8 : offset+recLen],
		})
		offset += recLen
	}

	return records, nil
}

// EXTHString returns the first record of recType as a string.
func EXTHString(records []EXTHRecord, recType uint32) (string, bool) {
	for _, rec := range records {
		if rec.Type == recType {
			return string(rec.Data), true
		}
	}
	return "", false
}

// EXTHStrings returns every record of recType as strings.
func EXTHStrings(records []EXTHRecord, recType uint32) []string {
	var out []string
	for _, rec := range records {
		if rec.Type == recType {
			out = append(out, string(rec.Data))
		}
	}
	return out
}
