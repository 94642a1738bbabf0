package mobi

import "fmt"

// PalmDocDecompress decompresses PalmDoc (LZ77-based) compressed data.
func PalmDocDecompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out := make([]byte, 0, len(data)*2)
	i := 0

	for i < len(data) {
		b := data[i]
		i++

		switch {
		case b == 0x00:
			// Literal NULL byte
			out = append(out, 0x00)

		case b >= 0x01 && b <= 0x08:
			// Uncompressed block: next N bytes are literal
			count := int(b)
			if i+count > len(data) {
				return nil, fmt.Errorf("palmDoc decompress: uncompressed block overflows at offset %d", i-1)
			}
			out = append(out, data[i:i+count]...)
			i += count

		case b >= 0x09 && b <= 0x7F:
			// Literal byte
			out = append(out, b)

		case b >= 0x80 && b <= 0xBF:
			// Back reference (2 bytes)
			if i >= len(data) {
				return nil, fmt.Errorf("palmDoc decompress: back reference missing second byte at offset %d", i-1)
			}
			low := data[i]
			i++

			distance := (int(b&0x3F) << 5) | int(low>>3)
			length := int(low&0x07) + 3

			if distance == 0 || distance > len(out) {
				return nil, fmt.Errorf("palmDoc decompress: invalid back reference distance %d at output offset %d", distance, len(out))
			}

			start := len(out) - distance
			for j := 0; j < length; j++ {
				out = append(out, out[start+j])
			}

		case b >= 0xC0:
			// Space + literal char
			out = append(out, 0x20, b^0x80)
		}
	}

	return out, nil
}

// trailingEntrySize decodes the backward-encoded size of one trailing data
// entry: up to four bytes read from the end of the record, seven value bits
// per byte, the high bit marking the first byte of the number.
func trailingEntrySize(record []byte) int {
	start := len(record) - 4
	if start < 0 {
		start = 0
	}
	num := 0
	for _, b := range record[start:] {
		if b&0x80 != 0 {
			num = 0
		}
		num = (num << 7) | int(b&0x7F)
	}
	return num
}

// StripTrailingEntries removes the trailing data entries appended to a text
// record, as announced by the extra data flags of the MOBI header. Bit 0
// marks the multibyte-overlap entry whose size lives in the low two bits of
// the final byte.
func StripTrailingEntries(record []byte, extraDataFlags uint16) []byte {
	for bit := 15; bit >= 1; bit-- {
		if extraDataFlags&(1<<bit) == 0 {
			continue
		}
		size := trailingEntrySize(record)
		if size >= len(record) {
			return record[:0]
		}
		record = record[:len(record)-size]
	}
	if extraDataFlags&1 != 0 && len(record) > 0 {
		size := int(record[len(record)-1]&0x03) + 1
		if size >= len(record) {
			return record[:0]
		}
		record = record[:len(record)-size]
	}
	return record
}
