// Package core provides low-level PDF parsing primitives and object types.
//
// This package implements the fundamental building blocks for working with PDF
// files: the object model, the tokenizer and parser, cross-reference tables and
// streams, object streams, the revision chain of incrementally updated files,
// and the serializer that turns objects back into PDF syntax.
//
// # Object Types
//
// All PDF object types are implemented as types satisfying the Object
// interface:
//
//   - [Null] - the PDF null object
//   - [Bool] - PDF boolean values (true/false)
//   - [Int] / [BigInt] - PDF integers, with arbitrary-precision fallback
//   - [Real] - PDF real numbers (floating point)
//   - [String] - PDF string objects (literal or hexadecimal)
//   - [Name] - PDF name objects (e.g., /Type, /Font)
//   - [Array] - PDF arrays
//   - [Dict] - PDF dictionaries
//
// Additionally, [Stream] represents a PDF stream (dictionary + lazy binary
// payload), [Reference] an indirect reference, and [IndirectObject] an object
// paired with the indirect slot it occupies.
//
// # Parsing
//
// The [Lexer] type tokenizes PDF syntax read from a [ByteSource]. The [Parser]
// type builds on it to parse indirect object definitions, classic
// cross-reference tables, cross-reference streams, and - when everything else
// fails - to reconstruct the cross-reference information by scanning the whole
// file for object definitions.
//
// How tolerant parsing is of damaged input is controlled by [Config]: every
// recoverable deviation is routed through the OnCorrectableError hook, so the
// same code serves both lenient viewing and strict validation.
//
// # Revisions
//
// A PDF file that was incrementally updated contains several generations of
// cross-reference information. [Revisions] loads the whole chain and resolves
// references from newest to oldest; each [Revision] loads its objects lazily.
//
// # Serialization
//
// The [Serializer] type writes objects back out, including stream payloads,
// and [EncodeXRefStream] / [ObjectStreamEncoder] produce the compressed
// cross-reference and object container forms used by PDF 1.5 and later.
package core
