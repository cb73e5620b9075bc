package core

import (
	"fmt"
	"testing"
)

// buildUpdatedPDF appends an incremental update to the simple file:
// object 2 is rewritten, object 3 added.
func buildUpdatedPDF() *pdfBuilder {
	b, xref1 := buildSimplePDF()
	off2 := int64(b.buf.Len())
	b.raw("2 0 obj\n<</Type/Pages/Kids[3 0 R]/Count 1>>\nendobj\n")
	b.addObject(3, "<</Type/Page/Parent 2 0 R>>")
	xref2 := int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "xref\n2 2\n%010d 00000 n \n%010d 00000 n \n", off2, b.offsets[3])
	fmt.Fprintf(&b.buf, "trailer\n<</Size 4/Root 1 0 R/Prev %d>>\nstartxref\n%d\n%%%%EOF\n", xref1, xref2)
	return b
}

// TestLoadRevisionsSimple tests loading a single-revision file
func TestLoadRevisionsSimple(t *testing.T) {
	b, _ := buildSimplePDF()
	revs, err := LoadRevisions(NewBytesSource(b.bytes()), StrictConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if revs.Count() != 1 {
		t.Fatalf("Count = %d, want 1", revs.Count())
	}
	if root, ok := revs.Current().Trailer.GetReference("Root"); !ok || root != (Reference{Number: 1}) {
		t.Errorf("trailer Root = %v", revs.Current().Trailer.Get("Root"))
	}

	obj, err := revs.Object(Reference{Number: 1})
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	catalog, ok := obj.(Dict)
	if !ok {
		t.Fatalf("object 1 = %T", obj)
	}
	if typeName, _ := catalog.GetName("Type"); typeName != "Catalog" {
		t.Errorf("object 1 Type = %v", catalog.Get("Type"))
	}

	// Dangling references resolve to null.
	obj, err = revs.Object(Reference{Number: 99})
	if err != nil {
		t.Fatalf("Object(99): %v", err)
	}
	if _, ok := obj.(Null); !ok {
		t.Errorf("dangling reference = %v, want null", obj)
	}
}

// TestLoadRevisionsIncremental tests the /Prev chain and newest-wins
// resolution
func TestLoadRevisionsIncremental(t *testing.T) {
	b := buildUpdatedPDF()
	revs, err := LoadRevisions(NewBytesSource(b.bytes()), StrictConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if revs.Count() != 2 {
		t.Fatalf("Count = %d, want 2", revs.Count())
	}

	// Object 2 resolves to the updated value.
	obj, err := revs.Object(Reference{Number: 2})
	if err != nil {
		t.Fatalf("Object(2): %v", err)
	}
	pages := obj.(Dict)
	if count, _ := pages.GetInt("Count"); count != 1 {
		t.Errorf("updated object 2 Count = %v", pages.Get("Count"))
	}

	// Object 1 still comes from the older revision.
	if obj, err := revs.Object(Reference{Number: 1}); err != nil {
		t.Fatalf("Object(1): %v", err)
	} else if _, ok := obj.(Dict); !ok {
		t.Errorf("object 1 = %T", obj)
	}

	// Object 3 exists only in the newer revision.
	if obj, err := revs.Object(Reference{Number: 3}); err != nil {
		t.Fatalf("Object(3): %v", err)
	} else if _, ok := obj.(Dict); !ok {
		t.Errorf("object 3 = %T", obj)
	}

	// The older revision alone knows nothing of object 3.
	if revs.Revision(0).Knows(3) {
		t.Error("oldest revision should not know object 3")
	}
}

// TestLoadRevisionsFreeShadowing tests that freeing an object in a
// newer revision hides the older definition
func TestLoadRevisionsFreeShadowing(t *testing.T) {
	b, xref1 := buildSimplePDF()
	xref2 := int64(b.buf.Len())
	b.raw("xref\n2 1\n0000000000 65535 f \n")
	fmt.Fprintf(&b.buf, "trailer\n<</Size 3/Root 1 0 R/Prev %d>>\nstartxref\n%d\n%%%%EOF\n", xref1, xref2)

	revs, err := LoadRevisions(NewBytesSource(b.bytes()), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obj, err := revs.Object(Reference{Number: 2})
	if err != nil {
		t.Fatalf("Object(2): %v", err)
	}
	if _, ok := obj.(Null); !ok {
		t.Errorf("freed object = %v, want null", obj)
	}
}

// TestLoadRevisionsReconstruction tests the fallback to a full-file
// scan
func TestLoadRevisionsReconstruction(t *testing.T) {
	b := newPDFBuilder("%PDF-1.4\n")
	b.addObject(1, "<</Type/Catalog>>")
	b.addObject(2, "(data)")
	b.raw("trailer\n<</Size 3/Root 1 0 R>>\nstartxref\nbroken\n%%EOF\n")
	data := b.bytes()

	revs, err := LoadRevisions(NewBytesSource(data), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if revs.Count() != 1 {
		t.Fatalf("Count = %d, want 1", revs.Count())
	}
	if obj, err := revs.Object(Reference{Number: 2}); err != nil || obj != String("data") {
		t.Errorf("Object(2) = %v, %v", obj, err)
	}

	cfg := DefaultConfig()
	cfg.TryXRefReconstruction = false
	if _, err := LoadRevisions(NewBytesSource(data), cfg); err == nil {
		t.Fatal("expected error with reconstruction disabled")
	}
}

func TestLoadRevisionsCircularChain(t *testing.T) {
	b, xref1 := buildSimplePDF()
	xref2 := int64(b.buf.Len())
	// The update's /Prev points at itself.
	b.raw("xref\n0 1\n0000000000 65535 f \n")
	fmt.Fprintf(&b.buf, "trailer\n<</Size 3/Root 1 0 R/Prev %d>>\nstartxref\n%d\n%%%%EOF\n", xref2, xref2)
	_ = xref1

	revs, err := LoadRevisions(NewBytesSource(b.bytes()), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if revs.Count() != 1 {
		t.Errorf("Count = %d, want 1", revs.Count())
	}
}

// TestRevisionObjectManagement tests in-memory add, update, and delete
func TestRevisionObjectManagement(t *testing.T) {
	revs := NewRevisions(DefaultConfig())
	rev := revs.Current()

	if err := rev.Add(&IndirectObject{Ref: Reference{Number: 1}, Object: Int(10)}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := rev.Add(&IndirectObject{Ref: Reference{Number: 1}, Object: Int(11)}); err == nil {
		t.Fatal("duplicate Add should fail")
	}
	if err := rev.Add(&IndirectObject{Object: Int(12)}); err == nil {
		t.Fatal("Add with number 0 should fail")
	}

	if err := rev.Update(&IndirectObject{Ref: Reference{Number: 1}, Object: Int(20)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if obj, _ := rev.Object(1); obj.Object != Int(20) {
		t.Errorf("updated object = %v", obj.Object)
	}
	if err := rev.Update(&IndirectObject{Ref: Reference{Number: 9}, Object: Int(1)}); err == nil {
		t.Fatal("Update of an unknown object should fail")
	}

	if got := rev.NextFreeNumber(); got != 2 {
		t.Errorf("NextFreeNumber = %d, want 2", got)
	}

	rev.Delete(1, true)
	if obj, _ := revs.Object(Reference{Number: 1}); obj.Type() != ObjNull {
		t.Errorf("freed object resolves to %v", obj)
	}

	rev.Delete(1, false)
	if rev.Knows(1) {
		t.Error("hard-deleted object still known")
	}
}

// TestRevisionFreeEntriesNeedNoLoader tests that free slots resolve to
// null in revisions that exist only in memory
func TestRevisionFreeEntriesNeedNoLoader(t *testing.T) {
	xref := NewXRefSection()
	xref.AddFreeEntryWithNext(0, 65535, 0)
	rev := NewRevision(nil, xref, nil)

	obj, err := rev.Object(0)
	if err != nil {
		t.Fatalf("Object(0): %v", err)
	}
	if obj == nil || obj.Object.Type() != ObjNull {
		t.Errorf("free entry resolved to %v, want null", obj)
	}

	// Each must visit the sentinel without a loader too.
	var seen []int
	err = rev.Each(func(obj *IndirectObject) error {
		seen = append(seen, obj.Ref.Number)
		return nil
	})
	if err != nil {
		t.Fatalf("Each: %v", err)
	}
	if len(seen) != 1 || seen[0] != 0 {
		t.Errorf("Each visited %v, want [0]", seen)
	}
}

// TestRevisionsAddDeleteMerge tests revision list management
func TestRevisionsAddDeleteMerge(t *testing.T) {
	b := buildUpdatedPDF()
	revs, err := LoadRevisions(NewBytesSource(b.bytes()), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rev := revs.Add()
	if revs.Count() != 3 {
		t.Fatalf("Count = %d, want 3", revs.Count())
	}
	if revs.Current() != rev {
		t.Error("Add did not make the new revision current")
	}
	if rev.Trailer.Has("Prev") {
		t.Error("new revision trailer carries /Prev")
	}
	if !rev.Trailer.Has("Root") {
		t.Error("new revision trailer lost /Root")
	}

	if err := revs.Delete(rev); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if revs.Count() != 2 {
		t.Fatalf("Count = %d, want 2", revs.Count())
	}
	if err := revs.Delete(rev); err == nil {
		t.Fatal("deleting a removed revision should fail")
	}

	if err := revs.Merge(); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if revs.Count() != 1 {
		t.Fatalf("Count after merge = %d, want 1", revs.Count())
	}
	// Merged state keeps the newest values.
	obj, err := revs.Object(Reference{Number: 2})
	if err != nil {
		t.Fatalf("Object(2): %v", err)
	}
	if count, _ := obj.(Dict).GetInt("Count"); count != 1 {
		t.Errorf("merged object 2 = %v", obj)
	}

	if err := revs.Delete(revs.Current()); err == nil {
		t.Fatal("deleting the only revision should fail")
	}
}

// TestRevisionsMergeRange tests collapsing part of the revision list
func TestRevisionsMergeRange(t *testing.T) {
	b := buildUpdatedPDF()
	revs, err := LoadRevisions(NewBytesSource(b.bytes()), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rev := revs.Add()
	if err := rev.Add(&IndirectObject{Ref: Reference{Number: 4}, Object: Int(7)}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Collapse the two file revisions; the in-memory one stays current.
	if err := revs.MergeRange(0, 1); err != nil {
		t.Fatalf("MergeRange: %v", err)
	}
	if revs.Count() != 2 {
		t.Fatalf("Count = %d, want 2", revs.Count())
	}
	if revs.Current() != rev {
		t.Error("current revision changed")
	}

	// The merged revision keeps the range's newest values.
	obj, err := revs.Object(Reference{Number: 2})
	if err != nil {
		t.Fatalf("Object(2): %v", err)
	}
	if count, _ := obj.(Dict).GetInt("Count"); count != 1 {
		t.Errorf("merged object 2 = %v", obj)
	}
	if obj, err := revs.Object(Reference{Number: 4}); err != nil || obj != Int(7) {
		t.Errorf("Object(4) = %v, %v", obj, err)
	}

	for _, bad := range [][2]int{{-1, 0}, {0, 2}, {1, 0}} {
		if err := revs.MergeRange(bad[0], bad[1]); err == nil {
			t.Errorf("MergeRange(%d, %d) should fail", bad[0], bad[1])
		}
	}
}

// TestRevisionEachModifiedObject tests change detection against the
// stored file
func TestRevisionEachModifiedObject(t *testing.T) {
	b, _ := buildSimplePDF()
	revs, err := LoadRevisions(NewBytesSource(b.bytes()), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rev := revs.Current()

	// Loading alone is not a modification.
	if _, err := rev.Object(1); err != nil {
		t.Fatalf("Object(1): %v", err)
	}
	var modified []int
	collect := func(obj *IndirectObject) error {
		modified = append(modified, obj.Ref.Number)
		return nil
	}
	if err := rev.EachModifiedObject(collect); err != nil {
		t.Fatalf("EachModifiedObject: %v", err)
	}
	if len(modified) != 0 {
		t.Fatalf("modified = %v, want none", modified)
	}

	// Mutating a loaded object and adding a new one both count.
	obj, _ := rev.Object(1)
	obj.Object.(Dict).Set("Marked", Bool(true))
	if err := rev.Add(&IndirectObject{Ref: Reference{Number: 5}, Object: Int(1)}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	modified = nil
	if err := rev.EachModifiedObject(collect); err != nil {
		t.Fatalf("EachModifiedObject: %v", err)
	}
	if len(modified) != 2 || modified[0] != 1 || modified[1] != 5 {
		t.Errorf("modified = %v, want [1 5]", modified)
	}
}

// TestRevisionEachModifiedObjectAfterFree tests that freeing a stored
// object counts as a modification
func TestRevisionEachModifiedObjectAfterFree(t *testing.T) {
	b, _ := buildSimplePDF()
	revs, err := LoadRevisions(NewBytesSource(b.bytes()), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rev := revs.Current()
	if _, err := rev.Object(2); err != nil {
		t.Fatalf("Object(2): %v", err)
	}

	rev.Delete(2, true)
	var modified []int
	err = rev.EachModifiedObject(func(obj *IndirectObject) error {
		modified = append(modified, obj.Ref.Number)
		return nil
	})
	if err != nil {
		t.Fatalf("EachModifiedObject: %v", err)
	}
	if len(modified) != 1 || modified[0] != 2 {
		t.Errorf("modified = %v, want [2]", modified)
	}
	if obj, err := revs.Object(Reference{Number: 2}); err != nil || obj.Type() != ObjNull {
		t.Errorf("freed object resolves to %v, %v", obj, err)
	}
}
