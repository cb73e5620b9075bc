package core

import "sort"

// ObjectLoader loads the object a cross-reference entry points at.
// Parser.LoadObject satisfies this; tests substitute simpler loaders.
type ObjectLoader func(entry XRefEntry) (*IndirectObject, error)

// Revision is one generation of a document: a cross-reference section,
// its trailer, and the objects reachable through them. Objects load
// lazily on first access and stay cached; objects added in memory live
// only in the cache until written.
type Revision struct {
	Trailer Dict

	xref    *XRefSection
	loader  ObjectLoader
	objects map[int]*IndirectObject
}

// NewRevision creates a revision over a cross-reference section. The
// loader may be nil for revisions that exist only in memory.
func NewRevision(trailer Dict, xref *XRefSection, loader ObjectLoader) *Revision {
	if trailer == nil {
		trailer = make(Dict)
	}
	if xref == nil {
		xref = NewXRefSection()
	}
	return &Revision{
		Trailer: trailer,
		xref:    xref,
		loader:  loader,
		objects: make(map[int]*IndirectObject),
	}
}

// XRefEntry returns the cross-reference entry for an object number.
func (r *Revision) XRefEntry(num int) (XRefEntry, bool) {
	return r.xref.Entry(num)
}

// Knows reports whether the revision holds any information about the
// object number, either a cross-reference entry or an in-memory object.
func (r *Revision) Knows(num int) bool {
	if _, ok := r.objects[num]; ok {
		return true
	}
	_, ok := r.xref.Entry(num)
	return ok
}

// Object returns the object with the given number, loading it through
// the cross-reference entry on first access. The result is nil when the
// revision knows nothing about the number.
func (r *Revision) Object(num int) (*IndirectObject, error) {
	if obj, ok := r.objects[num]; ok {
		return obj, nil
	}
	entry, ok := r.xref.Entry(num)
	if !ok {
		return nil, nil
	}
	// Free slots need no loader; they always resolve to null.
	if entry.Type == XRefFree {
		return &IndirectObject{Ref: entry.Reference(), Object: Null{}}, nil
	}
	if r.loader == nil {
		return nil, NewUsageError("revision has no loader for object %d", num)
	}
	obj, err := r.loader(entry)
	if err != nil {
		return nil, err
	}
	r.objects[num] = obj
	return obj, nil
}

// Add inserts a new object. The object must carry a non-zero number
// that the revision does not already know.
func (r *Revision) Add(obj *IndirectObject) error {
	if obj.Ref.Number == 0 {
		return NewUsageError("cannot add an object with number 0")
	}
	if r.Knows(obj.Ref.Number) {
		return NewUsageError("object number %d is already in use", obj.Ref.Number)
	}
	r.objects[obj.Ref.Number] = obj
	return nil
}

// Update replaces the value of an object the revision already holds.
// The identity must match exactly.
func (r *Revision) Update(obj *IndirectObject) error {
	existing, err := r.Object(obj.Ref.Number)
	if err != nil {
		return err
	}
	if existing == nil || existing.Ref != obj.Ref {
		return NewUsageError("cannot update object %s: not part of this revision", obj.Ref)
	}
	r.objects[obj.Ref.Number] = obj
	return nil
}

// Delete removes an object. With markAsFree the slot is kept and its
// value replaced by null, so the number shadows older definitions when
// the revision is written incrementally; otherwise every trace of the
// number is dropped.
func (r *Revision) Delete(num int, markAsFree bool) {
	if markAsFree {
		gen := 0
		if entry, ok := r.xref.Entry(num); ok {
			gen = entry.Generation
		} else if obj, ok := r.objects[num]; ok {
			gen = obj.Ref.Generation
		}
		// The cross-reference entry keeps its stored value: change
		// detection compares against what the file holds, and the
		// cached null alone carries the deletion.
		r.objects[num] = &IndirectObject{Ref: Reference{Number: num, Generation: gen}, Object: Null{}}
		return
	}
	delete(r.objects, num)
	delete(r.xref.entries, num)
}

// NextFreeNumber returns the lowest object number above everything the
// revision knows about.
func (r *Revision) NextFreeNumber() int {
	max := r.xref.MaxNumber()
	for num := range r.objects {
		if num > max {
			max = num
		}
	}
	return max + 1
}

// numbers returns every object number the revision knows, ascending.
func (r *Revision) numbers() []int {
	seen := make(map[int]bool, r.xref.Len()+len(r.objects))
	for _, num := range r.xref.Numbers() {
		seen[num] = true
	}
	for num := range r.objects {
		seen[num] = true
	}
	nums := make([]int, 0, len(seen))
	for num := range seen {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}

// Each loads every object of the revision in ascending number order and
// calls fn. Returning an error stops the iteration.
func (r *Revision) Each(fn func(*IndirectObject) error) error {
	for _, num := range r.numbers() {
		obj, err := r.Object(num)
		if err != nil {
			return err
		}
		if obj == nil {
			continue
		}
		if err := fn(obj); err != nil {
			return err
		}
	}
	return nil
}

// EachLoaded calls fn for the objects currently in memory, without
// triggering any loads.
func (r *Revision) EachLoaded(fn func(*IndirectObject) error) error {
	nums := make([]int, 0, len(r.objects))
	for num := range r.objects {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	for _, num := range nums {
		if err := fn(r.objects[num]); err != nil {
			return err
		}
	}
	return nil
}

// EachModifiedObject calls fn for every object whose current value
// differs from what the cross-reference information would load: objects
// added in memory, and loaded objects that were mutated afterwards.
// Signature dictionaries are skipped so their byte ranges stay valid.
func (r *Revision) EachModifiedObject(fn func(*IndirectObject) error) error {
	nums := make([]int, 0, len(r.objects))
	for num := range r.objects {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	for _, num := range nums {
		obj := r.objects[num]
		if isSignatureDict(obj.Object) {
			continue
		}

		entry, ok := r.xref.Entry(num)
		if ok && r.loader != nil {
			original, err := r.loader(entry)
			if err == nil && original.Ref == obj.Ref && ObjectsEqual(original.Object, obj.Object) {
				continue
			}
		}
		if err := fn(obj); err != nil {
			return err
		}
	}
	return nil
}

// isSignatureDict reports whether an object is a digital signature
// dictionary.
func isSignatureDict(obj Object) bool {
	dict, ok := obj.(Dict)
	if !ok {
		return false
	}
	typeName, ok := dict.GetName("Type")
	return ok && typeName == "Sig" && dict.Has("ByteRange") && dict.Has("Contents")
}
