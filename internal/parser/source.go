package parser

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Bytes windows-1252 leaves undefined.
var cp1252Undefined = []byte{0x81, 0x8D, 0x8F, 0x90, 0x9D}

// ReadSource reads path and returns its contents as UTF-8. Files that are not
// valid UTF-8 are decoded as windows-1252 when possible, else as ISO-8859-1,
// which accepts every byte.
func ReadSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeSource(data)
}

func decodeSource(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		if bytes.HasPrefix(data, utf8BOM) {
			return unicode.UTF8BOM.NewDecoder().Bytes(data)
		}
		return data, nil
	}

	if !hasAnyByte(data, cp1252Undefined) {
		out, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err == nil {
			return out, nil
		}
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

func hasAnyByte(data, set []byte) bool {
	for _, b := range set {
		if bytes.IndexByte(data, b) >= 0 {
			return true
		}
	}
	return false
}

func stripBOM(src []byte) []byte {
	return bytes.TrimPrefix(src, utf8BOM)
}
