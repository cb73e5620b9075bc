package filters

import "bytes"

// RunLengthDecode decodes run-length encoded data. A length byte L is
// followed either by L+1 literal bytes (L < 128) or by one byte repeated
// 257-L times (L > 128). The byte 128 marks end of data.
func RunLengthDecode(data []byte) ([]byte, error) {
	var result bytes.Buffer

	i := 0
	for i < len(data) {
		length := int(data[i])
		i++
		switch {
		case length == 128:
			return result.Bytes(), nil
		case length < 128:
			count := length + 1
			if i+count > len(data) {
				return nil, codecError("RunLengthDecode", "literal run of %d bytes exceeds remaining data", count)
			}
			result.Write(data[i : i+count])
			i += count
		default:
			if i >= len(data) {
				return nil, codecError("RunLengthDecode", "replicated run missing its byte")
			}
			count := 257 - length
			for j := 0; j < count; j++ {
				result.WriteByte(data[i])
			}
			i++
		}
	}

	// Missing EOD marker is tolerated; the runs themselves were complete.
	return result.Bytes(), nil
}

// RunLengthEncode encodes data using run-length encoding, terminated with
// the end-of-data byte 128.
func RunLengthEncode(data []byte) []byte {
	var result bytes.Buffer

	i := 0
	for i < len(data) {
		// Find the length of the run starting here.
		run := 1
		for i+run < len(data) && run < 128 && data[i+run] == data[i] {
			run++
		}
		if run > 1 {
			result.WriteByte(byte(257 - run))
			result.WriteByte(data[i])
			i += run
			continue
		}

		// Collect literals until the next run of 3+ repeated bytes.
		start := i
		for i < len(data) && i-start < 128 {
			if i+2 < len(data) && data[i] == data[i+1] && data[i] == data[i+2] {
				break
			}
			i++
		}
		result.WriteByte(byte(i - start - 1))
		result.Write(data[start:i])
	}

	result.WriteByte(128)
	return result.Bytes()
}
