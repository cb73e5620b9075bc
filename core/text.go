package core

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var utf16BOM = []byte{0xFE, 0xFF}

// Text returns the string content as UTF-8 text. Strings stored as
// UTF-16BE with a byte order mark are decoded; all other strings are
// returned byte for byte.
func (s String) Text() string {
	if !bytes.HasPrefix([]byte(s), utf16BOM) {
		return string(s)
	}
	decoder := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
	decoded, err := decoder.Bytes([]byte(s))
	if err != nil {
		return string(s)
	}
	return string(decoded)
}

// needsUTF16 reports whether a string must be written in the UTF-16BE
// fallback form: it contains bytes above 127 that form valid UTF-8 text.
// Pure ASCII and raw binary both round-trip safely through the literal
// form and stay as they are.
func needsUTF16(s string) bool {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return false
	}
	return utf8.ValidString(s)
}

// encodeUTF16BE converts UTF-8 text to UTF-16BE prefixed with a byte
// order mark.
func encodeUTF16BE(s string) ([]byte, error) {
	encoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	return encoder.Bytes([]byte(s))
}
