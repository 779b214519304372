package id3

import "unicode/utf16"

// decodeText decodes frame text per the ID3v2 encoding byte. Unknown
// encodings fall back to ISO-8859-1, matching how lenient readers treat
// tags from broken writers.
func decodeText(data []byte, encoding byte) string {
	if len(data) == 0 {
		return ""
	}

	switch encoding {
	case 1: // UTF-16 with BOM
		return decodeUTF16(data)
	case 2: // UTF-16BE, v2.4
		return decodeUTF16BE(data)
	default: // ISO-8859-1, UTF-8, or unknown
		return string(data)
	}
}

func decodeUTF16(data []byte) string {
	if len(data) < 2 {
		return ""
	}
	if data[0] == 0xFF && data[1] == 0xFE {
		return decodeUTF16LE(data[2:])
	}
	if data[0] == 0xFE && data[1] == 0xFF {
		return decodeUTF16BE(data[2:])
	}
	// No BOM, assume big-endian.
	return decodeUTF16BE(data)
}

func decodeUTF16LE(data []byte) string {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	u16 := make([]uint16, len(data)/2)
	for i := range u16 {
		u16[i] = uint16(data[i*2]) | uint16(data[i*2+1])<<8
	}
	return string(utf16.Decode(u16))
}

func decodeUTF16BE(data []byte) string {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	u16 := make([]uint16, len(data)/2)
	for i := range u16 {
		u16[i] = uint16(data[i*2])<<8 | uint16(data[i*2+1])
	}
	return string(utf16.Decode(u16))
}
