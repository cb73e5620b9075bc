package core

import (
	"fmt"

	"github.com/tsawler/pdfkit/internal/filters"
)

// trailerFieldNames are the stream dictionary entries that double as the
// trailer of a cross-reference stream.
var trailerFieldNames = []string{"Size", "Root", "Info", "ID", "Encrypt", "Prev", "XRefStm"}

// DecodeXRefStream decodes a cross-reference stream object (/Type /XRef)
// into a section and its trailer-equivalent dictionary. Field widths come
// from /W, subsections from /Index (defaulting to [0 Size]), and each
// field is stored big-endian.
func DecodeXRefStream(stream *Stream) (*XRefSection, Dict, error) {
	if typeName, ok := stream.Dict.GetName("Type"); !ok || typeName != "XRef" {
		return nil, nil, NewMalformedError(-1, "not a cross-reference stream (got /Type %v)", stream.Dict.Get("Type"))
	}

	widths, err := xrefStreamWidths(stream.Dict)
	if err != nil {
		return nil, nil, err
	}

	size, ok := stream.Dict.GetInt("Size")
	if !ok {
		return nil, nil, NewMalformedError(-1, "cross-reference stream missing /Size")
	}

	index := []int{0, int(size)}
	if indexArr, ok := stream.Dict.GetArray("Index"); ok {
		if len(indexArr)%2 != 0 {
			return nil, nil, NewMalformedError(-1, "cross-reference stream /Index length is odd")
		}
		index = index[:0]
		for i, obj := range indexArr {
			v, ok := obj.(Int)
			if !ok {
				return nil, nil, NewMalformedError(-1, "cross-reference stream /Index element %d is not an integer", i)
			}
			index = append(index, int(v))
		}
	}

	data, err := stream.Decoded()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode cross-reference stream: %w", err)
	}

	entrySize := widths[0] + widths[1] + widths[2]
	section := NewXRefSection()
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		first, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+entrySize > len(data) {
				return nil, nil, NewMalformedError(-1, "cross-reference stream data too short: need %d bytes, have %d", pos+entrySize, len(data))
			}
			num := first + j

			// A zero-width type field defaults to type 1 (in use).
			entryType := int64(1)
			if widths[0] > 0 {
				entryType = beInt(data[pos : pos+widths[0]])
			}
			f2 := beInt(data[pos+widths[0] : pos+widths[0]+widths[1]])
			f3 := beInt(data[pos+widths[0]+widths[1] : pos+entrySize])
			pos += entrySize

			switch entryType {
			case 0:
				section.AddFreeEntryWithNext(num, int(f3), int(f2))
			case 1:
				section.AddInUseEntry(num, int(f3), f2)
			case 2:
				section.AddCompressedEntry(num, int(f2), int(f3))
			default:
				// Unknown types reference the null object; skip them.
			}
		}
	}

	trailer := make(Dict)
	for _, key := range trailerFieldNames {
		if v := stream.Dict.Get(key); v != nil {
			trailer[key] = v
		}
	}

	return section, trailer, nil
}

// xrefStreamWidths validates and extracts the three /W field widths.
func xrefStreamWidths(dict Dict) ([3]int, error) {
	var widths [3]int
	arr, ok := dict.GetArray("W")
	if !ok || len(arr) != 3 {
		return widths, NewMalformedError(-1, "cross-reference stream /W must be an array of three integers")
	}
	for i, obj := range arr {
		v, ok := obj.(Int)
		if !ok || v < 0 || v > 8 {
			return widths, NewMalformedError(-1, "cross-reference stream /W element %d is invalid: %v", i, obj)
		}
		widths[i] = int(v)
	}
	return widths, nil
}

// beInt reads a big-endian unsigned integer from up to 8 bytes.
func beInt(data []byte) int64 {
	var v int64
	for _, b := range data {
		v = v<<8 | int64(b)
	}
	return v
}

// EncodeXRefStream builds a cross-reference stream object from a section
// and the trailer fields to embed. The payload is Flate-compressed. The
// returned stream carries /Type, /W, /Index, /Size, /Filter, and /Length
// plus the given trailer fields.
func EncodeXRefStream(section *XRefSection, trailer Dict) (*Stream, error) {
	subsections := section.Subsections()

	// Field widths are sized to the largest value each field must hold.
	var maxType, maxF2, maxF3 int64
	for _, sub := range subsections {
		for _, entry := range sub {
			var t, f2, f3 int64
			switch entry.Type {
			case XRefFree:
				t, f2, f3 = 0, entry.Offset, int64(entry.Generation)
			case XRefInUse:
				t, f2, f3 = 1, entry.Offset, int64(entry.Generation)
			case XRefCompressed:
				t, f2, f3 = 2, int64(entry.Container), int64(entry.Index)
			default:
				return nil, NewUsageError("cannot encode xref entry of type %v", entry.Type)
			}
			if t > maxType {
				maxType = t
			}
			if f2 > maxF2 {
				maxF2 = f2
			}
			if f3 > maxF3 {
				maxF3 = f3
			}
		}
	}
	widths := [3]int{fieldWidth(maxType), fieldWidth(maxF2), fieldWidth(maxF3)}
	entrySize := widths[0] + widths[1] + widths[2]

	var payload []byte
	index := Array{}
	count := 0
	for _, sub := range subsections {
		index = append(index, Int(sub[0].Number), Int(len(sub)))
		for _, entry := range sub {
			var t, f2, f3 int64
			switch entry.Type {
			case XRefFree:
				t, f2, f3 = 0, entry.Offset, int64(entry.Generation)
			case XRefInUse:
				t, f2, f3 = 1, entry.Offset, int64(entry.Generation)
			case XRefCompressed:
				t, f2, f3 = 2, int64(entry.Container), int64(entry.Index)
			}
			row := make([]byte, entrySize)
			bePut(row[0:widths[0]], t)
			bePut(row[widths[0]:widths[0]+widths[1]], f2)
			bePut(row[widths[0]+widths[1]:], f3)
			payload = append(payload, row...)
			count++
		}
	}

	compressed, err := filters.FlateEncode(payload)
	if err != nil {
		return nil, err
	}

	dict := Dict{
		"Type":   Name("XRef"),
		"W":      Array{Int(widths[0]), Int(widths[1]), Int(widths[2])},
		"Index":  index,
		"Filter": Name("FlateDecode"),
		"Length": Int(len(compressed)),
	}
	size := section.MaxNumber() + 1
	dict["Size"] = Int(size)
	for key, value := range trailer {
		if key == "Type" || key == "W" || key == "Index" || key == "Filter" || key == "Length" {
			continue
		}
		dict[key] = value
	}

	return NewStreamFromBytes(dict, compressed), nil
}

// fieldWidth returns the byte width used for a cross-reference stream
// field whose largest value is max: the ceiling of the base-255 logarithm,
// bumped to 4 when the computation yields 3. Changing this boundary
// produces files other readers cannot parse.
func fieldWidth(max int64) int {
	if max <= 1 {
		return 1
	}
	width := 1
	limit := int64(255)
	for limit < max {
		width++
		limit *= 255
	}
	if width == 3 {
		width = 4
	}
	return width
}

// bePut writes v big-endian into buf, truncating to the buffer width.
func bePut(buf []byte, v int64) {
	for i := len(buf) - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
}
