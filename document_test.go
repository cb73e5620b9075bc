package pdfkit

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tsawler/pdfkit/core"
)

// buildDocument creates an in-memory document with a small page tree.
func buildDocument(t *testing.T) *Document {
	t.Helper()
	doc := New()
	pagesRef, err := doc.AddObject(core.Dict{
		"Type":  core.Name("Pages"),
		"Kids":  core.Array{},
		"Count": core.Int(0),
	})
	if err != nil {
		t.Fatalf("AddObject: %v", err)
	}
	catalog, err := doc.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	catalog.Set("Pages", pagesRef)
	return doc
}

// TestWriteLoadRoundTrip tests that a written document loads back with
// the same objects
func TestWriteLoadRoundTrip(t *testing.T) {
	doc := buildDocument(t)
	contentRef, err := doc.AddObject(core.NewStreamFromBytes(core.Dict{}, []byte("BT ET")))
	if err != nil {
		t.Fatalf("AddObject: %v", err)
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output does not start with a header: %q", buf.Bytes()[:16])
	}

	loaded, err := LoadBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	catalog, err := loaded.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if typeName, _ := catalog.GetName("Type"); typeName != "Catalog" {
		t.Errorf("catalog Type = %v", catalog.Get("Type"))
	}

	pages, err := loaded.Resolve(catalog.Get("Pages"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := core.Dict{
		"Type":  core.Name("Pages"),
		"Kids":  core.Array{},
		"Count": core.Int(0),
	}
	if diff := cmp.Diff(want, pages); diff != "" {
		t.Errorf("page tree mismatch (-want +got):\n%s", diff)
	}

	obj, err := loaded.Object(contentRef)
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	stream, ok := obj.(*core.Stream)
	if !ok {
		t.Fatalf("content object = %T", obj)
	}
	if data, err := stream.Bytes(); err != nil || string(data) != "BT ET" {
		t.Errorf("content = %q, %v", data, err)
	}
}

// TestWriteObjectStreams tests the compact PDF 1.5 output form: packed
// objects plus a cross-reference stream
func TestWriteObjectStreams(t *testing.T) {
	doc := buildDocument(t)
	streamRef, err := doc.AddObject(core.NewStreamFromBytes(core.Dict{}, []byte("raw")))
	if err != nil {
		t.Fatalf("AddObject: %v", err)
	}

	var buf bytes.Buffer
	if err := doc.WriteWithOptions(&buf, WriteOptions{UseObjectStreams: true}); err != nil {
		t.Fatalf("WriteWithOptions: %v", err)
	}
	if bytes.Contains(buf.Bytes(), []byte("\nxref\n")) {
		t.Error("object stream output still carries a classic table")
	}
	if !bytes.Contains(buf.Bytes(), []byte("/ObjStm")) {
		t.Error("output carries no object stream")
	}

	loaded, err := LoadBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}

	// The catalog was packed into the container; it must still resolve.
	catalog, err := loaded.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if typeName, _ := catalog.GetName("Type"); typeName != "Catalog" {
		t.Errorf("catalog Type = %v", catalog.Get("Type"))
	}

	// Streams cannot be packed and stay as top-level objects.
	obj, err := loaded.Object(streamRef)
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	if _, ok := obj.(*core.Stream); !ok {
		t.Errorf("stream object = %T", obj)
	}
}

// TestWriteFileOpen tests the file-backed entry points
func TestWriteFileOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	doc := buildDocument(t)
	if err := doc.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	loaded, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer loaded.Close()

	if _, err := loaded.Catalog(); err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if err := loaded.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

// TestDocumentVersion tests the header and catalog version precedence
func TestDocumentVersion(t *testing.T) {
	doc := buildDocument(t)
	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	loaded, err := LoadBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	headerVersion := loaded.Version()

	// A newer catalog /Version overrides the header.
	catalog, _ := loaded.Catalog()
	catalog.Set("Version", core.Name("1.9"))
	if got := loaded.Version(); got != "1.9" {
		t.Errorf("Version = %q, want 1.9", got)
	}

	// An older one does not.
	catalog.Set("Version", core.Name("1.0"))
	if got := loaded.Version(); got != headerVersion {
		t.Errorf("Version = %q, want %q", got, headerVersion)
	}
}

// TestUpdateAndDeleteObject tests object replacement and removal through
// the document surface
func TestUpdateAndDeleteObject(t *testing.T) {
	doc := buildDocument(t)
	ref, err := doc.AddObject(core.Int(1))
	if err != nil {
		t.Fatalf("AddObject: %v", err)
	}

	if err := doc.UpdateObject(ref, core.Int(2)); err != nil {
		t.Fatalf("UpdateObject: %v", err)
	}
	if obj, _ := doc.Object(ref); obj != core.Int(2) {
		t.Errorf("updated object = %v", obj)
	}

	doc.DeleteObject(ref, true)
	if obj, _ := doc.Object(ref); obj.Type() != core.ObjNull {
		t.Errorf("deleted object resolves to %v", obj)
	}

	// A written file keeps the freed number out of use.
	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	loaded, err := LoadBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if obj, _ := loaded.Object(ref); obj.Type() != core.ObjNull {
		t.Errorf("freed object after rewrite = %v", obj)
	}
}

// TestUpdateObjectFromOlderRevision tests that updating an object loaded
// from the file records it in the in-memory revision
func TestUpdateObjectFromOlderRevision(t *testing.T) {
	doc := buildDocument(t)
	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	loaded, err := LoadBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}

	rootRef, _ := loaded.Trailer().GetReference("Root")
	if err := loaded.UpdateObject(rootRef, core.Dict{
		"Type":  core.Name("Catalog"),
		"Names": core.Dict{},
	}); err != nil {
		t.Fatalf("UpdateObject: %v", err)
	}
	catalog, err := loaded.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if !catalog.Has("Names") {
		t.Error("updated catalog not visible")
	}
}
