// Package filters implements the stream filter codecs used by the PDF
// engine: FlateDecode (with TIFF and PNG predictors), ASCIIHexDecode,
// ASCII85Decode, RunLengthDecode, and CCITTFaxDecode.
//
// Filters are applied by name through [Decode], which maps a PDF filter
// name (including its abbreviated form) to the matching codec. The encode
// direction is available for the filters the engine writes itself:
// [FlateEncode], [ASCIIHexEncode], [ASCII85Encode], and [RunLengthEncode].
//
// All codec failures are reported as [*Error] so callers can distinguish
// them from PDF syntax errors.
package filters
