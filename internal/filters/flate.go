package filters

import (
	"bytes"
	"compress/zlib"
	"io"
)

// FlateDecode decompresses Flate (zlib/deflate) compressed data.
// This is the most common compression filter in PDFs and the one used by
// cross-reference streams and object streams. It optionally applies a
// predictor algorithm before returning the data.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	decompressed, err := zlibDecompress(data)
	if err != nil {
		return nil, codecError("FlateDecode", "zlib decompression failed: %v", err)
	}

	predictor := getIntParam(params, "Predictor", 1)
	if predictor != 1 {
		decompressed, err = undoPredictor(decompressed, predictor, params)
		if err != nil {
			return nil, err
		}
	}

	return decompressed, nil
}

// FlateEncode compresses data with zlib at the default compression level.
// No predictor is applied; the engine writes predictor-free streams.
func FlateEncode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, codecError("FlateDecode", "zlib compression failed: %v", err)
	}
	if err := w.Close(); err != nil {
		return nil, codecError("FlateDecode", "zlib compression failed: %v", err)
	}
	return buf.Bytes(), nil
}

// zlibDecompress decompresses zlib-compressed data using the standard library.
func zlibDecompress(data []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err = io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// undoPredictor reverses the prediction applied before compression.
// Predictor 1 is identity, 2 is TIFF Predictor 2, and 10-15 are the PNG
// predictors (None, Sub, Up, Average, Paeth) chosen per row.
func undoPredictor(data []byte, predictor int, params Params) ([]byte, error) {
	switch {
	case predictor == 1:
		return data, nil
	case predictor == 2:
		return undoTIFFPredictor2(data, params)
	case predictor >= 10 && predictor <= 15:
		return undoPNGPredictor(data, params)
	default:
		return nil, codecError("FlateDecode", "unsupported predictor: %d", predictor)
	}
}

// undoTIFFPredictor2 reverses TIFF Predictor 2, which predicts each sample
// from the sample to its left. Rarely used in PDFs.
func undoTIFFPredictor2(data []byte, params Params) ([]byte, error) {
	columns := getIntParam(params, "Columns", 1)
	colors := getIntParam(params, "Colors", 1)
	bpc := getIntParam(params, "BitsPerComponent", 8)

	if bpc != 8 {
		return nil, codecError("FlateDecode", "TIFF predictor 2 only supports 8 bits per component, got %d", bpc)
	}

	rowSize := columns * colors
	if rowSize == 0 || len(data)%rowSize != 0 {
		return nil, codecError("FlateDecode", "data size %d is not a multiple of row size %d", len(data), rowSize)
	}

	result := make([]byte, len(data))
	for row := 0; row < len(data)/rowSize; row++ {
		rowStart := row * rowSize
		for col := 0; col < rowSize; col++ {
			idx := rowStart + col
			if col < colors {
				result[idx] = data[idx]
			} else {
				result[idx] = data[idx] + result[idx-colors]
			}
		}
	}
	return result, nil
}

// undoPNGPredictor reverses the PNG predictor algorithms. Each row starts
// with a predictor byte (0-4) selecting the algorithm for that row.
func undoPNGPredictor(data []byte, params Params) ([]byte, error) {
	columns := getIntParam(params, "Columns", 1)
	colors := getIntParam(params, "Colors", 1)
	bpc := getIntParam(params, "BitsPerComponent", 8)

	if bpc != 8 {
		return nil, codecError("FlateDecode", "PNG predictor only supports 8 bits per component, got %d", bpc)
	}

	bytesPerPixel := colors
	rowLength := columns * colors
	rowSize := rowLength + 1 // +1 for the per-row predictor byte

	if rowLength == 0 || len(data)%rowSize != 0 {
		return nil, codecError("FlateDecode", "data size %d is not a multiple of row size %d", len(data), rowSize)
	}

	numRows := len(data) / rowSize
	result := make([]byte, numRows*rowLength)

	for row := 0; row < numRows; row++ {
		rowStart := row * rowSize
		tag := data[rowStart]
		rowData := data[rowStart+1 : rowStart+rowSize]
		out := result[row*rowLength : (row+1)*rowLength]

		for i := 0; i < rowLength; i++ {
			var left, up, upLeft byte
			if i >= bytesPerPixel {
				left = out[i-bytesPerPixel]
			}
			if row > 0 {
				up = result[(row-1)*rowLength+i]
				if i >= bytesPerPixel {
					upLeft = result[(row-1)*rowLength+i-bytesPerPixel]
				}
			}

			var predicted byte
			switch tag {
			case 0: // None
			case 1: // Sub
				predicted = left
			case 2: // Up
				predicted = up
			case 3: // Average
				predicted = byte((int(left) + int(up)) / 2)
			case 4: // Paeth
				predicted = paethPredictor(left, up, upLeft)
			default:
				return nil, codecError("FlateDecode", "unknown PNG predictor tag %d in row %d", tag, row)
			}
			out[i] = rowData[i] + predicted
		}
	}

	return result, nil
}

// paethPredictor implements the Paeth predictor from the PNG specification.
// It selects the neighbor (left, above, or upper-left) closest to a linear
// prediction.
func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

// abs returns the absolute value of an integer.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
