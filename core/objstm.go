package core

import (
	"bytes"
	"fmt"

	"github.com/tsawler/pdfkit/internal/filters"
)

// objStmPair is one header entry of an object stream: an object number
// and the byte offset of its data relative to /First.
type objStmPair struct {
	Number int
	Offset int
}

// ObjectStreamData reads a decoded object stream (/Type /ObjStm): a
// container object bundling many small indirect objects in one
// compressed stream. The header of /N (number, offset) pairs is parsed
// once at construction; the member objects themselves are parsed on each
// access. Callers wanting memoization must cache externally.
type ObjectStreamData struct {
	cfg   Config
	data  []byte
	first int
	pairs []objStmPair
}

// NewObjectStreamData decodes the container stream and parses its header.
// The stream dictionary must declare /Type /ObjStm, /N, and /First.
func NewObjectStreamData(stream *Stream, cfg Config) (*ObjectStreamData, error) {
	if typeName, ok := stream.Dict.GetName("Type"); !ok || typeName != "ObjStm" {
		return nil, NewMalformedError(-1, "not an object stream (got /Type %v)", stream.Dict.Get("Type"))
	}
	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, NewMalformedError(-1, "object stream missing or invalid /N")
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, NewMalformedError(-1, "object stream missing or invalid /First")
	}

	data, err := stream.Decoded()
	if err != nil {
		return nil, fmt.Errorf("failed to decode object stream: %w", err)
	}
	if int(first) > len(data) {
		return nil, NewMalformedError(-1, "object stream /First (%d) exceeds data length (%d)", first, len(data))
	}

	osd := &ObjectStreamData{cfg: cfg, data: data, first: int(first)}

	lexer := NewLexer(NewBytesSource(data[:first]), 0, cfg)
	for i := 0; i < int(n); i++ {
		numObj, err := lexer.NextObject()
		if err != nil {
			return nil, fmt.Errorf("failed to parse object stream header pair %d: %w", i, err)
		}
		num, ok := numObj.(Int)
		if !ok {
			return nil, NewMalformedError(-1, "object stream header pair %d: object number is %s", i, numObj.Type())
		}
		offObj, err := lexer.NextObject()
		if err != nil {
			return nil, fmt.Errorf("failed to parse object stream header pair %d: %w", i, err)
		}
		off, ok := offObj.(Int)
		if !ok {
			return nil, NewMalformedError(-1, "object stream header pair %d: offset is %s", i, offObj.Type())
		}
		osd.pairs = append(osd.pairs, objStmPair{Number: int(num), Offset: int(off)})
	}

	return osd, nil
}

// Count returns the number of member objects.
func (o *ObjectStreamData) Count() int {
	return len(o.pairs)
}

// ObjectByIndex parses the member object at the given index and returns
// it together with its object number. Each call re-parses the member.
func (o *ObjectStreamData) ObjectByIndex(index int) (Object, int, error) {
	if index < 0 || index >= len(o.pairs) {
		return nil, 0, NewUsageError("object stream index %d out of range [0, %d)", index, len(o.pairs))
	}
	pair := o.pairs[index]
	offset := o.first + pair.Offset
	if offset > len(o.data) {
		return nil, 0, NewMalformedError(-1, "object stream member %d offset %d exceeds data length %d", index, offset, len(o.data))
	}

	lexer := NewLexer(NewBytesSource(o.data), int64(offset), o.cfg)
	obj, err := lexer.NextObject()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse object stream member %d: %w", index, err)
	}
	return obj, pair.Number, nil
}

// ObjectStreamEncodeOptions controls member filtering during encoding.
type ObjectStreamEncodeOptions struct {
	// EncryptionDict is the document's encryption dictionary reference, if
	// any; it must never live inside an object stream.
	EncryptionDict Reference
	// Encrypted reports whether the document is encrypted. When true the
	// root catalog is also kept out of the stream, a workaround for
	// readers that locate the catalog before decryption is set up.
	Encrypted bool
	// Root is the document's catalog reference.
	Root Reference
}

// ObjectStreamEncoder builds the contents of an object stream from a
// settable list of member references.
type ObjectStreamEncoder struct {
	members []Reference
}

// AddMember registers an object for inclusion. Duplicates are ignored.
func (e *ObjectStreamEncoder) AddMember(ref Reference) {
	for _, m := range e.members {
		if m == ref {
			return
		}
	}
	e.members = append(e.members, ref)
}

// DeleteMember removes an object from the member list.
func (e *ObjectStreamEncoder) DeleteMember(ref Reference) {
	for i, m := range e.members {
		if m == ref {
			e.members = append(e.members[:i], e.members[i+1:]...)
			return
		}
	}
}

// Members returns the current member list.
func (e *ObjectStreamEncoder) Members() []Reference {
	return e.members
}

// Encode fetches each member's live object through resolve, skips (and
// deregisters) members that cannot live in an object stream, and builds
// the container stream: the /N pairs header followed by the concatenated
// serialized bodies, Flate-compressed. It returns the stream and the
// member-to-index associations actually written, so the caller's writer
// can skip emitting those members as standalone indirect objects.
//
// A member is skipped when it resolves to nothing or null, has a
// non-zero generation, is itself a stream, is the encryption dictionary,
// or (only for encrypted documents) is the root catalog.
func (e *ObjectStreamEncoder) Encode(resolve func(Reference) Object, opts ObjectStreamEncodeOptions) (*Stream, map[Reference]int, error) {
	serializer := NewSerializer()

	var header, body bytes.Buffer
	written := make(map[Reference]int)
	kept := e.members[:0]

	for _, ref := range e.members {
		obj := resolve(ref)
		skip := obj == nil || obj.Type() == ObjNull ||
			ref.Generation != 0 ||
			obj != nil && obj.Type() == ObjStream ||
			ref == opts.EncryptionDict ||
			(opts.Encrypted && ref == opts.Root)
		if skip {
			continue
		}

		data, err := serializer.Serialize(obj)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to serialize object stream member %s: %w", ref, err)
		}
		fmt.Fprintf(&header, "%d %d ", ref.Number, body.Len())
		body.Write(data)
		body.WriteByte(' ')
		written[ref] = len(kept)
		kept = append(kept, ref)
	}
	e.members = kept

	payload := append(header.Bytes(), body.Bytes()...)
	compressed, err := filters.FlateEncode(payload)
	if err != nil {
		return nil, nil, err
	}

	dict := Dict{
		"Type":   Name("ObjStm"),
		"N":      Int(len(kept)),
		"First":  Int(header.Len()),
		"Filter": Name("FlateDecode"),
		"Length": Int(len(compressed)),
	}
	return NewStreamFromBytes(dict, compressed), written, nil
}
