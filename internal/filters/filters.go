package filters

// Decode applies the filter with the given PDF name (full or abbreviated
// form) to data. Unknown filter names yield an *Error.
func Decode(name string, data []byte, params Params) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		return FlateDecode(data, params)
	case "ASCIIHexDecode", "AHx":
		return ASCIIHexDecode(data)
	case "ASCII85Decode", "A85":
		return ASCII85Decode(data)
	case "RunLengthDecode", "RL":
		return RunLengthDecode(data)
	case "CCITTFaxDecode", "CCF":
		return CCITTFaxDecode(data, params)
	case "DCTDecode", "DCT", "JPXDecode":
		// Image codecs are handled downstream; pass the bytes through.
		return data, nil
	default:
		return nil, codecError(name, "unknown filter")
	}
}
