package filters

import (
	"bytes"
	"fmt"
)

// ASCIIHexDecode decodes ASCII hexadecimal encoded data.
// Each pair of hexadecimal digits represents one byte. Whitespace is
// ignored and > marks end of data; an odd number of digits implies a
// trailing zero nibble.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	var result bytes.Buffer

	var pending byte
	havePending := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if isWhitespace(c) {
			continue
		}
		if c == '>' {
			break
		}
		v, ok := hexDigitValue(c)
		if !ok {
			return nil, codecError("ASCIIHexDecode", "invalid hex digit %q at index %d", c, i)
		}
		if havePending {
			result.WriteByte(pending<<4 | v)
			havePending = false
		} else {
			pending = v
			havePending = true
		}
	}
	if havePending {
		result.WriteByte(pending << 4)
	}

	return result.Bytes(), nil
}

// ASCIIHexEncode encodes data as ASCII hexadecimal followed by the >
// end-of-data marker.
func ASCIIHexEncode(data []byte) []byte {
	var result bytes.Buffer
	for _, b := range data {
		fmt.Fprintf(&result, "%02X", b)
	}
	result.WriteByte('>')
	return result.Bytes()
}

// ASCII85Decode decodes ASCII base-85 encoded data.
// Each group of 5 characters (! through u) represents 4 bytes; 'z'
// abbreviates four zero bytes, and ~> marks end of data.
func ASCII85Decode(data []byte) ([]byte, error) {
	var result bytes.Buffer

	i := 0
	for i < len(data) {
		if isWhitespace(data[i]) {
			i++
			continue
		}
		if i+1 < len(data) && data[i] == '~' && data[i+1] == '>' {
			break
		}
		if data[i] == 'z' {
			result.Write([]byte{0, 0, 0, 0})
			i++
			continue
		}

		digits := make([]byte, 0, 5)
		for len(digits) < 5 && i < len(data) {
			if isWhitespace(data[i]) {
				i++
				continue
			}
			if i+1 < len(data) && data[i] == '~' && data[i+1] == '>' {
				break
			}
			if data[i] < '!' || data[i] > 'u' {
				return nil, codecError("ASCII85Decode", "invalid character %q at index %d", data[i], i)
			}
			digits = append(digits, data[i]-'!')
			i++
		}
		if len(digits) == 0 {
			break
		}
		if len(digits) == 1 {
			return nil, codecError("ASCII85Decode", "truncated final group")
		}

		numBytes := len(digits) - 1
		if numBytes > 4 {
			numBytes = 4
		}
		// Pad with 'u' so the partial group decodes correctly.
		for len(digits) < 5 {
			digits = append(digits, 84)
		}

		value := uint32(0)
		for _, d := range digits {
			value = value*85 + uint32(d)
		}
		for j := 0; j < numBytes; j++ {
			result.WriteByte(byte(value >> (24 - j*8)))
		}
	}

	return result.Bytes(), nil
}

// ASCII85Encode encodes data as ASCII base-85 followed by the ~>
// end-of-data marker. Full zero groups are abbreviated as 'z'.
func ASCII85Encode(data []byte) []byte {
	var result bytes.Buffer

	for i := 0; i < len(data); i += 4 {
		n := len(data) - i
		if n > 4 {
			n = 4
		}
		var group [4]byte
		copy(group[:], data[i:i+n])

		value := uint32(group[0])<<24 | uint32(group[1])<<16 | uint32(group[2])<<8 | uint32(group[3])
		if value == 0 && n == 4 {
			result.WriteByte('z')
			continue
		}

		var digits [5]byte
		for j := 4; j >= 0; j-- {
			digits[j] = byte(value%85) + '!'
			value /= 85
		}
		result.Write(digits[:n+1])
	}

	result.WriteString("~>")
	return result.Bytes()
}
