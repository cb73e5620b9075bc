package pdfkit

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/tsawler/pdfkit/core"
)

// WriteOptions controls how a document is written out.
type WriteOptions struct {
	// UseObjectStreams packs eligible objects into an object stream and
	// records the cross-reference information as a cross-reference
	// stream, the compact form introduced with PDF 1.5.
	UseObjectStreams bool
}

// Write writes the document as a single consolidated revision using a
// classic cross-reference table.
func (d *Document) Write(w io.Writer) error {
	return d.WriteWithOptions(w, WriteOptions{})
}

// WriteFile writes the document to a file.
func (d *Document) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := d.Write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteWithOptions writes the document as a single consolidated
// revision: the current value of every object, a fresh cross-reference
// section, and a trailer without chain bookkeeping fields.
func (d *Document) WriteWithOptions(w io.Writer, opts WriteOptions) error {
	objects, err := d.currentObjects()
	if err != nil {
		return err
	}

	version := d.Version()
	cw := &countingWriter{w: w}
	fmt.Fprintf(cw, "%%PDF-%s\n", version)
	// A comment with bytes above 127 marks the file as binary data for
	// transfer tools.
	cw.Write([]byte{'%', 0xBF, 0xF7, 0xA2, 0xFE, '\n'})

	ser := core.NewSerializer()
	ser.SetEncryptFuncs(d.encryptString, d.encryptStream)

	var inUse, free []int
	for num, obj := range objects {
		if obj.Object == nil || obj.Object.Type() == core.ObjNull {
			free = append(free, num)
		} else {
			inUse = append(inUse, num)
		}
	}
	sort.Ints(inUse)
	sort.Ints(free)

	section := core.NewXRefSection()
	d.addFreeList(section, objects, free)

	// With object streams enabled, everything that may live in one is
	// collected into a single container.
	var container *core.IndirectObject
	var packed map[core.Reference]int
	if opts.UseObjectStreams {
		container, packed, err = d.packObjects(objects, inUse)
		if err != nil {
			return err
		}
	}

	for _, num := range inUse {
		obj := objects[num]
		if idx, ok := packed[obj.Ref]; ok {
			section.AddCompressedEntry(num, container.Ref.Number, idx)
			continue
		}
		section.AddInUseEntry(num, obj.Ref.Generation, cw.n)
		if err := ser.SerializeIndirectObject(cw, obj); err != nil {
			return err
		}
	}
	if container != nil {
		section.AddInUseEntry(container.Ref.Number, 0, cw.n)
		if err := ser.SerializeIndirectObject(cw, container); err != nil {
			return err
		}
	}

	if opts.UseObjectStreams {
		err = d.writeXRefStream(cw, ser, section)
	} else {
		err = d.writeClassicXRef(cw, ser, section)
	}
	if err != nil {
		return err
	}
	return cw.err
}

// currentObjects collects the current value of every object number
// across all revisions, newest definition winning.
func (d *Document) currentObjects() (map[int]*core.IndirectObject, error) {
	objects := make(map[int]*core.IndirectObject)
	err := d.revisions.Each(func(rev *core.Revision) error {
		return rev.Each(func(obj *core.IndirectObject) error {
			objects[obj.Ref.Number] = obj
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	delete(objects, 0)
	return objects, nil
}

// addFreeList records the free entries as a linked list: object 0 is
// the head, each entry pointing at the next freed number.
func (d *Document) addFreeList(section *core.XRefSection, objects map[int]*core.IndirectObject, free []int) {
	next := 0
	if len(free) > 0 {
		next = free[0]
	}
	section.AddFreeEntryWithNext(0, 65535, next)
	for i, num := range free {
		next = 0
		if i+1 < len(free) {
			next = free[i+1]
		}
		gen := 0
		if obj, ok := objects[num]; ok {
			gen = obj.Ref.Generation
		}
		section.AddFreeEntryWithNext(num, gen, next)
	}
}

// packObjects builds the object stream container for every eligible
// object: generation zero and not itself a stream.
func (d *Document) packObjects(objects map[int]*core.IndirectObject, inUse []int) (*core.IndirectObject, map[core.Reference]int, error) {
	encoder := &core.ObjectStreamEncoder{}
	for _, num := range inUse {
		obj := objects[num]
		if obj.Ref.Generation != 0 {
			continue
		}
		if _, isStream := obj.Object.(*core.Stream); isStream {
			continue
		}
		encoder.AddMember(obj.Ref)
	}

	resolve := func(ref core.Reference) core.Object {
		if obj, ok := objects[ref.Number]; ok && obj.Ref == ref {
			return obj.Object
		}
		return nil
	}
	var encOpts core.ObjectStreamEncodeOptions
	if ref, ok := d.Trailer().GetReference("Encrypt"); ok {
		encOpts.EncryptionDict = ref
		encOpts.Encrypted = true
		if root, ok := d.Trailer().GetReference("Root"); ok {
			encOpts.Root = root
		}
	}

	stream, packed, err := encoder.Encode(resolve, encOpts)
	if err != nil {
		return nil, nil, err
	}
	if len(packed) == 0 {
		return nil, nil, nil
	}

	containerNum := 1
	for _, num := range inUse {
		if num >= containerNum {
			containerNum = num + 1
		}
	}
	container := &core.IndirectObject{Ref: core.Reference{Number: containerNum}, Object: stream}
	return container, packed, nil
}

// writeTrailer builds the trailer for a consolidated file: the current
// trailer without chain bookkeeping, with /Size covering every written
// object.
func (d *Document) writeTrailer(size int) core.Dict {
	trailer := make(core.Dict)
	for key, value := range d.Trailer() {
		switch key {
		case "Prev", "XRefStm", "Type", "W", "Index", "Filter", "DecodeParms", "Length":
		default:
			trailer[key] = value
		}
	}
	trailer.Set("Size", core.Int(size))
	return trailer
}

// writeClassicXRef writes the cross-reference table, trailer, and file
// end markers.
func (d *Document) writeClassicXRef(cw *countingWriter, ser *core.Serializer, section *core.XRefSection) error {
	xrefOffset := cw.n
	io.WriteString(cw, "xref\n")
	for _, sub := range section.Subsections() {
		fmt.Fprintf(cw, "%d %d\n", sub[0].Number, len(sub))
		for _, entry := range sub {
			typeByte := byte('n')
			if entry.Type == core.XRefFree {
				typeByte = 'f'
			}
			fmt.Fprintf(cw, "%010d %05d %c \n", entry.Offset, entry.Generation, typeByte)
		}
	}

	trailer := d.writeTrailer(section.MaxNumber() + 1)
	data, err := ser.Serialize(trailer)
	if err != nil {
		return err
	}
	io.WriteString(cw, "trailer\n")
	cw.Write(data)
	fmt.Fprintf(cw, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	return nil
}

// writeXRefStream writes the cross-reference information as a
// cross-reference stream object followed by the file end markers.
func (d *Document) writeXRefStream(cw *countingWriter, ser *core.Serializer, section *core.XRefSection) error {
	xrefNum := section.MaxNumber() + 1
	xrefOffset := cw.n
	section.AddInUseEntry(xrefNum, 0, xrefOffset)

	trailer := d.writeTrailer(xrefNum + 1)
	trailer.Delete("Size") // EncodeXRefStream computes it
	stream, err := core.EncodeXRefStream(section, trailer)
	if err != nil {
		return err
	}
	obj := &core.IndirectObject{Ref: core.Reference{Number: xrefNum}, Object: stream}
	if err := ser.SerializeIndirectObject(cw, obj); err != nil {
		return err
	}
	fmt.Fprintf(cw, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return nil
}

// countingWriter tracks the byte offset of everything written so the
// cross-reference entries can record object positions. Write errors are
// sticky; later writes are dropped and the first error is reported once
// at the end.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	if cw.err != nil {
		return len(p), nil
	}
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	cw.err = err
	return len(p), nil
}
