package core

import (
	"testing"

	"github.com/tsawler/pdfkit/internal/filters"
)

func objStmFixture(t *testing.T, n, first int, payload string) *Stream {
	t.Helper()
	compressed, err := filters.FlateEncode([]byte(payload))
	if err != nil {
		t.Fatalf("FlateEncode: %v", err)
	}
	dict := Dict{
		"Type":   Name("ObjStm"),
		"N":      Int(n),
		"First":  Int(first),
		"Filter": Name("FlateDecode"),
		"Length": Int(len(compressed)),
	}
	return NewStreamFromBytes(dict, compressed)
}

// TestObjectStreamData tests header parsing and member access
func TestObjectStreamData(t *testing.T) {
	// Two members: object 5 at offset 0 ("[1 2]"), object 6 at
	// offset 6 ("<</A 1>>"). The header "5 0 6 6 " is 8 bytes.
	osd, err := NewObjectStreamData(objStmFixture(t, 2, 8, "5 0 6 6 [1 2] <</A 1>>"), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if osd.Count() != 2 {
		t.Fatalf("Count = %d, want 2", osd.Count())
	}

	obj, num, err := osd.ObjectByIndex(0)
	if err != nil {
		t.Fatalf("member 0: %v", err)
	}
	if num != 5 {
		t.Errorf("member 0 number = %d, want 5", num)
	}
	if !ObjectsEqual(obj, Array{Int(1), Int(2)}) {
		t.Errorf("member 0 = %v", obj)
	}

	obj, num, err = osd.ObjectByIndex(1)
	if err != nil {
		t.Fatalf("member 1: %v", err)
	}
	if num != 6 {
		t.Errorf("member 1 number = %d, want 6", num)
	}
	if !ObjectsEqual(obj, Dict{"A": Int(1)}) {
		t.Errorf("member 1 = %v", obj)
	}

	if _, _, err := osd.ObjectByIndex(2); err == nil {
		t.Error("out-of-range index should fail")
	}
	if _, _, err := osd.ObjectByIndex(-1); err == nil {
		t.Error("negative index should fail")
	}
}

func TestNewObjectStreamDataErrors(t *testing.T) {
	t.Run("wrong type", func(t *testing.T) {
		stream := NewStreamFromBytes(Dict{"Type": Name("XRef"), "N": Int(0), "First": Int(0)}, nil)
		if _, err := NewObjectStreamData(stream, DefaultConfig()); err == nil {
			t.Fatal("expected error, got none")
		}
	})
	t.Run("missing N", func(t *testing.T) {
		compressed, _ := filters.FlateEncode(nil)
		stream := NewStreamFromBytes(Dict{
			"Type": Name("ObjStm"), "First": Int(0),
			"Filter": Name("FlateDecode"), "Length": Int(len(compressed)),
		}, compressed)
		if _, err := NewObjectStreamData(stream, DefaultConfig()); err == nil {
			t.Fatal("expected error, got none")
		}
	})
	t.Run("First beyond data", func(t *testing.T) {
		if _, err := NewObjectStreamData(objStmFixture(t, 0, 100, "short"), DefaultConfig()); err == nil {
			t.Fatal("expected error, got none")
		}
	})
}

// TestObjectStreamEncoder tests member management and encoding
func TestObjectStreamEncoder(t *testing.T) {
	objects := map[Reference]Object{
		{Number: 1}:                Dict{"Type": Name("Catalog")},
		{Number: 2}:                Array{Int(1), Int(2)},
		{Number: 3}:                Null{},
		{Number: 4, Generation: 1}: Int(9),
		{Number: 5}:                NewStreamFromBytes(Dict{}, []byte("x")),
	}
	resolve := func(ref Reference) Object { return objects[ref] }

	encoder := &ObjectStreamEncoder{}
	for ref := range objects {
		encoder.AddMember(ref)
	}
	encoder.AddMember(Reference{Number: 1}) // duplicate, ignored

	stream, written, err := encoder.Encode(resolve, ObjectStreamEncodeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Only objects 1 and 2 qualify: 3 is null, 4 has a non-zero
	// generation, 5 is a stream.
	if len(written) != 2 {
		t.Fatalf("written = %v, want 2 members", written)
	}
	if _, ok := written[Reference{Number: 1}]; !ok {
		t.Error("object 1 not written")
	}
	if _, ok := written[Reference{Number: 2}]; !ok {
		t.Error("object 2 not written")
	}
	if len(encoder.Members()) != 2 {
		t.Errorf("members after encode = %v", encoder.Members())
	}

	// The result must decode as an object stream holding the same
	// values.
	osd, err := NewObjectStreamData(stream, DefaultConfig())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if osd.Count() != 2 {
		t.Fatalf("Count = %d, want 2", osd.Count())
	}
	for ref, idx := range written {
		obj, num, err := osd.ObjectByIndex(idx)
		if err != nil {
			t.Fatalf("member %d: %v", idx, err)
		}
		if num != ref.Number {
			t.Errorf("member %d number = %d, want %d", idx, num, ref.Number)
		}
		if !ObjectsEqual(obj, objects[ref]) {
			t.Errorf("member %d = %v, want %v", idx, obj, objects[ref])
		}
	}
}

func TestObjectStreamEncoderExcludesEncryptionDict(t *testing.T) {
	root := Reference{Number: 1}
	encDict := Reference{Number: 9}
	objects := map[Reference]Object{
		root:        Dict{"Type": Name("Catalog")},
		encDict:     Dict{"Filter": Name("Standard")},
		{Number: 2}: Int(5),
	}
	resolve := func(ref Reference) Object { return objects[ref] }

	encoder := &ObjectStreamEncoder{}
	for ref := range objects {
		encoder.AddMember(ref)
	}

	_, written, err := encoder.Encode(resolve, ObjectStreamEncodeOptions{
		EncryptionDict: encDict,
		Encrypted:      true,
		Root:           root,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(written) != 1 {
		t.Fatalf("written = %v, want only object 2", written)
	}
	if _, ok := written[Reference{Number: 2}]; !ok {
		t.Error("object 2 not written")
	}
}

func TestObjectStreamEncoderDeleteMember(t *testing.T) {
	encoder := &ObjectStreamEncoder{}
	encoder.AddMember(Reference{Number: 1})
	encoder.AddMember(Reference{Number: 2})
	encoder.DeleteMember(Reference{Number: 1})
	if members := encoder.Members(); len(members) != 1 || members[0] != (Reference{Number: 2}) {
		t.Errorf("members = %v", members)
	}
}
