// Package textenc normalizes configuration file content to plain UTF-8.
//
// Files edited on Windows are frequently saved as UTF-8 with a byte order
// mark or as UTF-16, neither of which the line-oriented parsers accept.
// Normalize detects the encoding from the BOM and returns clean UTF-8.
package textenc

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Normalize returns data as UTF-8 with any byte order mark removed.
// UTF-16 content (either endianness, identified by its BOM) is transcoded.
// Content without a recognized BOM is returned unchanged.
func Normalize(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], nil
	case bytes.HasPrefix(data, bomUTF16LE):
		return decodeUTF16(data, unicode.LittleEndian)
	case bytes.HasPrefix(data, bomUTF16BE):
		return decodeUTF16(data, unicode.BigEndian)
	default:
		return data, nil
	}
}

func decodeUTF16(data []byte, endian unicode.Endianness) ([]byte, error) {
	dec := unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder()
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return nil, err
	}
	return out, nil
}
