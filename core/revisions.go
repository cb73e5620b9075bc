package core

import "fmt"

// Revisions is the ordered list of a document's generations, oldest
// first. The last revision is the current one; object resolution walks
// the list from newest to oldest.
type Revisions struct {
	cfg    Config
	parser *Parser
	list   []*Revision
}

// NewRevisions creates the revision list of a fresh in-memory document:
// a single empty revision whose cross-reference section holds only the
// free list head.
func NewRevisions(cfg Config) *Revisions {
	xref := NewXRefSection()
	xref.AddFreeEntryWithNext(0, 65535, 0)
	rev := NewRevision(Dict{"Size": Int(1)}, xref, nil)
	return &Revisions{cfg: cfg, list: []*Revision{rev}}
}

// LoadRevisions reads the complete revision chain of an existing
// document: the section at startxref, then every /Prev section, with
// /XRefStm sections of hybrid-reference files folded in. When the
// recorded cross-reference information is unusable and reconstruction
// is enabled, the chain is discarded and replaced by a single revision
// rebuilt from a full-file scan.
func LoadRevisions(src ByteSource, cfg Config) (*Revisions, error) {
	parser := NewParser(src, cfg)
	revs := &Revisions{cfg: cfg, parser: parser}
	parser.SetResolver(func(ref Reference) (Object, error) {
		return revs.Object(ref)
	})

	if err := revs.loadChain(); err != nil {
		if !cfg.TryXRefReconstruction {
			return nil, err
		}
		section, trailer, rerr := parser.Reconstruct()
		if rerr != nil {
			return nil, fmt.Errorf("cross-reference reconstruction failed after %v: %w", err, rerr)
		}
		revs.list = []*Revision{NewRevision(trailer, section, parser.LoadObject)}
	}
	return revs, nil
}

// loadChain walks the cross-reference chain newest to oldest and fills
// the revision list oldest first.
func (r *Revisions) loadChain() error {
	offset, err := r.parser.StartXRefOffset()
	if err != nil {
		return err
	}

	seen := make(map[int64]bool)
	var chain []*Revision
	for {
		if seen[offset] {
			if cerr := r.cfg.correctable(NewMalformedError(offset, "circular cross-reference chain")); cerr != nil {
				return cerr
			}
			break
		}
		seen[offset] = true

		section, trailer, err := r.parser.LoadRevision(offset)
		if err != nil {
			return err
		}

		// Hybrid-reference files record additional entries in a
		// cross-reference stream named by /XRefStm; the classic table
		// wins where both define an object.
		if stmOffset, ok := trailer.GetInt("XRefStm"); ok {
			stmSection, _, err := r.parser.LoadRevision(int64(stmOffset))
			if err != nil {
				if cerr := r.cfg.correctable(NewMalformedError(int64(stmOffset), "unusable /XRefStm section: %v", err)); cerr != nil {
					return cerr
				}
			} else {
				stmSection.Merge(section)
				section = stmSection
			}
		}

		chain = append(chain, NewRevision(trailer, section, r.parser.LoadObject))

		prev, ok := trailer.GetInt("Prev")
		if !ok {
			break
		}
		offset = int64(prev)
	}

	// chain is newest first; the revision list runs oldest first.
	r.list = make([]*Revision, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		r.list = append(r.list, chain[i])
	}
	return nil
}

// Parser returns the parser backing loaded revisions, or nil for
// documents created in memory.
func (r *Revisions) Parser() *Parser {
	return r.parser
}

// Count returns the number of revisions.
func (r *Revisions) Count() int {
	return len(r.list)
}

// Revision returns the revision at the given index, oldest first.
func (r *Revisions) Revision(i int) *Revision {
	return r.list[i]
}

// Current returns the newest revision.
func (r *Revisions) Current() *Revision {
	return r.list[len(r.list)-1]
}

// Each calls fn for every revision from oldest to newest.
func (r *Revisions) Each(fn func(*Revision) error) error {
	for _, rev := range r.list {
		if err := fn(rev); err != nil {
			return err
		}
	}
	return nil
}

// Add appends a fresh empty revision on top of the current one and
// returns it. The new trailer carries over the document-level fields of
// the current trailer; chain bookkeeping fields stay out.
func (r *Revisions) Add() *Revision {
	trailer := make(Dict)
	for key, value := range r.Current().Trailer {
		switch key {
		case "Prev", "XRefStm", "Type", "W", "Index", "Filter", "Length", "DecodeParms":
		default:
			trailer[key] = value
		}
	}
	rev := NewRevision(trailer, NewXRefSection(), nil)
	r.list = append(r.list, rev)
	return rev
}

// Delete removes a revision. The last remaining revision cannot be
// deleted.
func (r *Revisions) Delete(rev *Revision) error {
	if len(r.list) == 1 {
		return NewUsageError("cannot delete the only revision")
	}
	for i, candidate := range r.list {
		if candidate == rev {
			r.list = append(r.list[:i], r.list[i+1:]...)
			return nil
		}
	}
	return NewUsageError("revision is not part of this document")
}

// Merge collapses all revisions into a single one carrying the current
// trailer and the current value of every object.
func (r *Revisions) Merge() error {
	return r.MergeRange(0, len(r.list)-1)
}

// MergeRange collapses the contiguous revisions from index from through
// to, inclusive and oldest first, into a single revision carrying the
// range's newest trailer and object values. Freed numbers stay freed, so
// revisions older than the range remain shadowed.
func (r *Revisions) MergeRange(from, to int) error {
	if from < 0 || to >= len(r.list) || from > to {
		return NewUsageError("invalid revision range %d..%d of %d", from, to, len(r.list))
	}
	if from == to {
		return nil
	}

	merged := NewRevision(r.list[to].Trailer, NewXRefSection(), nil)
	for _, rev := range r.list[from : to+1] {
		err := rev.Each(func(obj *IndirectObject) error {
			merged.objects[obj.Ref.Number] = obj
			return nil
		})
		if err != nil {
			return err
		}
	}
	delete(merged.objects, 0)

	list := make([]*Revision, 0, len(r.list)-(to-from))
	list = append(list, r.list[:from]...)
	list = append(list, merged)
	list = append(list, r.list[to+1:]...)
	r.list = list
	return nil
}

// Object resolves a reference to its current value, walking revisions
// from newest to oldest. Freed numbers shadow older definitions; a
// reference nothing defines resolves to null, matching how viewers
// treat dangling references.
func (r *Revisions) Object(ref Reference) (Object, error) {
	for i := len(r.list) - 1; i >= 0; i-- {
		rev := r.list[i]
		if !rev.Knows(ref.Number) {
			continue
		}
		if entry, ok := rev.XRefEntry(ref.Number); ok && entry.Type == XRefFree {
			if _, inMemory := rev.objects[ref.Number]; !inMemory {
				return Null{}, nil
			}
		}
		obj, err := rev.Object(ref.Number)
		if err != nil {
			return nil, err
		}
		if obj == nil {
			continue
		}
		if obj.Ref.Generation != ref.Generation {
			return Null{}, nil
		}
		return obj.Object, nil
	}
	return Null{}, nil
}

// NextFreeNumber returns the lowest object number unused across all
// revisions.
func (r *Revisions) NextFreeNumber() int {
	max := 0
	for _, rev := range r.list {
		if next := rev.NextFreeNumber(); next > max {
			max = next
		}
	}
	if max == 0 {
		max = 1
	}
	return max
}
