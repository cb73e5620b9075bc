package core

import (
	"fmt"
	"sort"
)

// XRefEntryType distinguishes the three kinds of cross-reference entries.
type XRefEntryType int

const (
	// XRefFree marks an object slot on the free list.
	XRefFree XRefEntryType = iota
	// XRefInUse locates an object at a byte offset in the file.
	XRefInUse
	// XRefCompressed locates an object inside an object stream.
	XRefCompressed
)

func (t XRefEntryType) String() string {
	switch t {
	case XRefFree:
		return "Free"
	case XRefInUse:
		return "InUse"
	case XRefCompressed:
		return "Compressed"
	default:
		return "Unknown"
	}
}

// XRefEntry describes where to find the bytes of one indirect object.
// The meaning of the fields depends on the entry type:
//
//   - Free: Offset holds the next free object number, Generation the
//     generation to use if the slot is reused.
//   - InUse: Offset holds the byte offset of the object definition.
//   - Compressed: Container holds the object number of the object stream
//     and Index the position within it; the generation is always zero.
type XRefEntry struct {
	Type       XRefEntryType
	Number     int
	Generation int
	Offset     int64
	Container  int
	Index      int
}

// Reference returns the identity the entry describes.
func (e XRefEntry) Reference() Reference {
	return Reference{Number: e.Number, Generation: e.Generation}
}

func (e XRefEntry) String() string {
	switch e.Type {
	case XRefFree:
		return fmt.Sprintf("xref %d,%d free (next %d)", e.Number, e.Generation, e.Offset)
	case XRefInUse:
		return fmt.Sprintf("xref %d,%d at %d", e.Number, e.Generation, e.Offset)
	case XRefCompressed:
		return fmt.Sprintf("xref %d in objstm %d[%d]", e.Number, e.Container, e.Index)
	default:
		return fmt.Sprintf("xref %d,%d invalid", e.Number, e.Generation)
	}
}

// XRefSection maps object numbers to cross-reference entries. At most one
// entry exists per object number; in a well-formed section the entry for
// object 0 is free with generation 65535, the head of the free list.
type XRefSection struct {
	entries map[int]XRefEntry
}

// NewXRefSection creates an empty cross-reference section.
func NewXRefSection() *XRefSection {
	return &XRefSection{entries: make(map[int]XRefEntry)}
}

// AddFreeEntry inserts or overwrites a free entry.
func (s *XRefSection) AddFreeEntry(num, gen int) {
	s.entries[num] = XRefEntry{Type: XRefFree, Number: num, Generation: gen}
}

// AddFreeEntryWithNext inserts a free entry that records the next free
// object number, used when writing out a complete free list.
func (s *XRefSection) AddFreeEntryWithNext(num, gen, nextFree int) {
	s.entries[num] = XRefEntry{Type: XRefFree, Number: num, Generation: gen, Offset: int64(nextFree)}
}

// AddInUseEntry inserts or overwrites an in-use entry.
func (s *XRefSection) AddInUseEntry(num, gen int, offset int64) {
	s.entries[num] = XRefEntry{Type: XRefInUse, Number: num, Generation: gen, Offset: offset}
}

// AddCompressedEntry inserts or overwrites a compressed entry. Objects in
// object streams always have generation zero.
func (s *XRefSection) AddCompressedEntry(num, container, index int) {
	s.entries[num] = XRefEntry{Type: XRefCompressed, Number: num, Container: container, Index: index}
}

// Entry looks up the entry for an object number regardless of generation.
func (s *XRefSection) Entry(num int) (XRefEntry, bool) {
	entry, ok := s.entries[num]
	return entry, ok
}

// EntryForReference looks up the entry matching both object number and
// generation.
func (s *XRefSection) EntryForReference(ref Reference) (XRefEntry, bool) {
	entry, ok := s.entries[ref.Number]
	if !ok || entry.Generation != ref.Generation {
		return XRefEntry{}, false
	}
	return entry, true
}

// Len returns the number of entries.
func (s *XRefSection) Len() int {
	return len(s.entries)
}

// MaxNumber returns the highest object number present, or -1 when empty.
func (s *XRefSection) MaxNumber() int {
	max := -1
	for num := range s.entries {
		if num > max {
			max = num
		}
	}
	return max
}

// Merge overlays other onto s: entries from other replace entries with
// the same object number. Used when physically folding an older section
// beneath a newer one; revision resolution normally scans sections
// without merging.
func (s *XRefSection) Merge(other *XRefSection) {
	for num, entry := range other.entries {
		s.entries[num] = entry
	}
}

// Numbers returns all object numbers in ascending order.
func (s *XRefSection) Numbers() []int {
	nums := make([]int, 0, len(s.entries))
	for num := range s.entries {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}

// EachEntry calls fn for every entry in ascending object number order.
func (s *XRefSection) EachEntry(fn func(XRefEntry)) {
	for _, num := range s.Numbers() {
		fn(s.entries[num])
	}
}

// Subsections partitions the entries into maximal runs of consecutive
// object numbers, in ascending order. Classic xref tables and the /Index
// array of cross-reference streams are written from these runs.
func (s *XRefSection) Subsections() [][]XRefEntry {
	nums := s.Numbers()
	if len(nums) == 0 {
		return nil
	}

	var result [][]XRefEntry
	var run []XRefEntry
	for i, num := range nums {
		if i > 0 && num != nums[i-1]+1 {
			result = append(result, run)
			run = nil
		}
		run = append(run, s.entries[num])
	}
	return append(result, run)
}
