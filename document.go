package pdfkit

import (
	"fmt"
	"os"

	"github.com/tsawler/pdfkit/core"
)

// Document is a PDF document: its revision chain plus the configuration
// and hooks everything below it uses.
type Document struct {
	cfg       core.Config
	revisions *core.Revisions
	file      *os.File

	encryptString core.EncryptStringFunc
	encryptStream core.EncryptStreamFunc
}

// Load opens a document over a byte source. Objects load lazily; the
// source must stay readable for the lifetime of the document.
func Load(src core.ByteSource, cfg core.Config) (*Document, error) {
	revisions, err := core.LoadRevisions(src, cfg)
	if err != nil {
		return nil, err
	}
	return &Document{cfg: cfg, revisions: revisions}, nil
}

// LoadBytes opens a document held fully in memory, using the lenient
// default configuration.
func LoadBytes(data []byte) (*Document, error) {
	return Load(core.NewBytesSource(data), core.DefaultConfig())
}

// Open opens a PDF file with the lenient default configuration. The
// returned document must be closed when done.
func Open(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	src, err := core.NewFileSource(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	doc, err := Load(src, core.DefaultConfig())
	if err != nil {
		file.Close()
		return nil, err
	}
	doc.file = file
	return doc, nil
}

// New creates an empty in-memory document with a minimal catalog.
func New() *Document {
	cfg := core.DefaultConfig()
	revisions := core.NewRevisions(cfg)
	doc := &Document{cfg: cfg, revisions: revisions}

	catalog := core.Dict{"Type": core.Name("Catalog")}
	ref, _ := doc.AddObject(catalog)
	doc.Trailer().Set("Root", ref)
	return doc
}

// Close releases the underlying file, if the document was opened from
// one.
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// Revisions returns the document's revision chain.
func (d *Document) Revisions() *core.Revisions {
	return d.revisions
}

// Trailer returns the current revision's trailer dictionary.
func (d *Document) Trailer() core.Dict {
	return d.revisions.Current().Trailer
}

// Object resolves a reference to its current value. Dangling references
// resolve to null.
func (d *Document) Object(ref core.Reference) (core.Object, error) {
	return d.revisions.Object(ref)
}

// Resolve returns obj itself unless it is a reference, in which case
// the referenced value is returned.
func (d *Document) Resolve(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.Reference); ok {
		return d.Object(ref)
	}
	return obj, nil
}

// Catalog returns the document catalog, the dictionary the trailer's
// /Root entry points at.
func (d *Document) Catalog() (core.Dict, error) {
	obj, err := d.Resolve(d.Trailer().Get("Root"))
	if err != nil {
		return nil, err
	}
	catalog, ok := obj.(core.Dict)
	if !ok {
		return nil, core.NewMalformedError(-1, "document catalog is missing or not a dictionary")
	}
	return catalog, nil
}

// Version returns the PDF version: the catalog's /Version entry when it
// is newer than the file header, the header version otherwise.
func (d *Document) Version() string {
	version := "1.7"
	if parser := d.revisions.Parser(); parser != nil {
		if v, err := parser.FileHeaderVersion(); err == nil {
			version = v
		}
	}
	if catalog, err := d.Catalog(); err == nil {
		if v, ok := catalog.GetName("Version"); ok && string(v) > version {
			version = string(v)
		}
	}
	return version
}

// AddObject adds a value as a new indirect object in the current
// revision and returns the assigned reference.
func (d *Document) AddObject(obj core.Object) (core.Reference, error) {
	ref := core.Reference{Number: d.revisions.NextFreeNumber()}
	err := d.revisions.Current().Add(&core.IndirectObject{Ref: ref, Object: obj})
	if err != nil {
		return core.Reference{}, err
	}
	return ref, nil
}

// UpdateObject replaces the value of an existing indirect object in the
// current revision, pulling it up from an older revision if needed.
func (d *Document) UpdateObject(ref core.Reference, obj core.Object) error {
	current := d.revisions.Current()
	updated := &core.IndirectObject{Ref: ref, Object: obj}
	if current.Knows(ref.Number) {
		return current.Update(updated)
	}
	return current.Add(updated)
}

// DeleteObject deletes an indirect object from the current revision.
// With markAsFree the object number keeps a free slot that shadows any
// older definition; otherwise the number is dropped entirely.
func (d *Document) DeleteObject(ref core.Reference, markAsFree bool) {
	d.revisions.Current().Delete(ref.Number, markAsFree)
}

// SetDecryptFunc installs the hook that decrypts objects as they are
// parsed. The encryption dictionary itself is never passed through it.
func (d *Document) SetDecryptFunc(fn core.DecryptFunc) {
	parser := d.revisions.Parser()
	if parser == nil {
		return
	}
	var encryptionDict core.Reference
	if ref, ok := d.Trailer().GetReference("Encrypt"); ok {
		encryptionDict = ref
	}
	parser.SetDecryptFunc(fn, encryptionDict)
}

// SetEncryptFuncs installs the hooks applied to string and stream
// payloads while writing.
func (d *Document) SetEncryptFuncs(str core.EncryptStringFunc, stream core.EncryptStreamFunc) {
	d.encryptString = str
	d.encryptStream = stream
}
