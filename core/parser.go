package core

import (
	"bytes"
	"strconv"
)

// DecryptFunc decrypts a freshly parsed indirect object and returns the
// replacement value. The document layer installs one when the file
// carries an /Encrypt dictionary.
type DecryptFunc func(obj *IndirectObject) (Object, error)

// ResolveFunc resolves a reference to its current object value. The
// parser needs one to follow /Length references and to fetch object
// stream containers.
type ResolveFunc func(ref Reference) (Object, error)

// Parser reads indirect objects and cross-reference data from a byte
// source. All offsets passed in are file offsets as recorded in the
// cross-reference information; when junk bytes precede the %PDF header
// the parser shifts them automatically.
type Parser struct {
	src   ByteSource
	cfg   Config
	lexer *Lexer

	headerDone bool
	base       int64
	version    string

	startXRef      int64
	startXRefKnown bool

	resolve        ResolveFunc
	decrypt        DecryptFunc
	encryptionDict Reference

	objStmCache map[int]*ObjectStreamData
}

// NewParser creates a parser over the given byte source.
func NewParser(src ByteSource, cfg Config) *Parser {
	return &Parser{
		src:         src,
		cfg:         cfg,
		lexer:       NewLexer(src, 0, cfg),
		objStmCache: make(map[int]*ObjectStreamData),
	}
}

// SetResolver installs the callback used to resolve /Length references
// and object stream containers.
func (p *Parser) SetResolver(fn ResolveFunc) {
	p.resolve = fn
}

// SetDecryptFunc installs the decryption hook. It is applied to every
// object parsed from a byte offset except the encryption dictionary
// itself.
func (p *Parser) SetDecryptFunc(fn DecryptFunc, encryptionDict Reference) {
	p.decrypt = fn
	p.encryptionDict = encryptionDict
}

// ensureHeader locates the %PDF-M.N header within the first 1024 bytes.
// Junk bytes before the header shift all subsequently used offsets; a
// missing or garbled header falls back to version 1.0.
func (p *Parser) ensureHeader() error {
	if p.headerDone {
		return nil
	}

	data := readRange(p.src, 0, 1024)
	idx := bytes.Index(data, []byte("%PDF-"))
	if idx < 0 {
		if err := p.cfg.correctable(NewMalformedError(0, "missing PDF file header")); err != nil {
			return err
		}
		p.version = "1.0"
		p.headerDone = true
		return nil
	}
	if idx > 0 {
		if err := p.cfg.correctable(NewMalformedError(0, "%d junk bytes before PDF file header", idx)); err != nil {
			return err
		}
		p.base = int64(idx)
	}

	ver := data[idx+5:]
	if len(ver) >= 3 && isDigit(ver[0]) && ver[1] == '.' && isDigit(ver[2]) {
		p.version = string(ver[:3])
	} else {
		if err := p.cfg.correctable(NewMalformedError(int64(idx), "invalid version in PDF file header")); err != nil {
			return err
		}
		p.version = "1.0"
	}
	p.headerDone = true
	return nil
}

// FileHeaderVersion returns the version number from the %PDF header.
func (p *Parser) FileHeaderVersion() (string, error) {
	if err := p.ensureHeader(); err != nil {
		return "", err
	}
	return p.version, nil
}

// StartXRefOffset locates the last startxref marker and returns the
// offset it records. The final 1024 bytes are searched first; in
// lenient mode the search window grows towards the start of the file.
func (p *Parser) StartXRefOffset() (int64, error) {
	if p.startXRefKnown {
		return p.startXRef, nil
	}

	size := p.src.Size()
	step := int64(1024)
	marker := []byte("startxref")
	overlap := int64(len(marker) - 1)

	// Step backward one window at a time; consecutive windows overlap by
	// len(marker)-1 bytes so a marker split across the boundary is still
	// found. Every byte of the file is read at most twice.
	end := size
	for {
		from := end - step
		if from < 0 {
			from = 0
		}
		data := readRange(p.src, from, end-from)
		if idx := bytes.LastIndex(data, marker); idx >= 0 {
			return p.parseStartXRef(from + int64(idx))
		}
		if from == 0 {
			return 0, NewMalformedError(size, "startxref not found")
		}
		if end == size {
			if err := p.cfg.correctable(NewMalformedError(size, "startxref not in final %d bytes", step)); err != nil {
				return 0, err
			}
		}
		end = from + overlap
	}
}

func (p *Parser) parseStartXRef(pos int64) (int64, error) {
	l := p.lexer
	l.SetPos(pos)
	if tok, err := l.NextToken(); err != nil || !tok.IsKeyword("startxref") {
		return 0, NewMalformedError(pos, "invalid startxref marker")
	}
	tok, err := l.NextToken()
	if err != nil {
		return 0, err
	}
	if tok.Type != TokenInteger {
		return 0, NewMalformedError(tok.Pos, "startxref is not followed by an offset")
	}
	offset, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil {
		return 0, NewMalformedError(tok.Pos, "invalid startxref offset %q", tok.Value)
	}
	p.startXRef = offset
	p.startXRefKnown = true
	return offset, nil
}

// ParseIndirectObject parses the "N G obj ... endobj" definition at the
// given offset. Stream payloads are not read; the returned stream holds
// a window over the source bytes.
func (p *Parser) ParseIndirectObject(offset int64) (*IndirectObject, error) {
	if err := p.ensureHeader(); err != nil {
		return nil, err
	}
	if offset < 0 || offset+p.base >= p.src.Size() {
		return nil, NewMalformedError(offset, "object offset out of bounds")
	}

	l := p.lexer
	l.SetPos(offset + p.base)

	num, err := p.expectNonNegativeInt(l, "object number")
	if err != nil {
		return nil, err
	}
	gen, err := p.expectNonNegativeInt(l, "generation number")
	if err != nil {
		return nil, err
	}
	if tok, err := l.NextToken(); err != nil {
		return nil, err
	} else if !tok.IsKeyword("obj") {
		return nil, NewMalformedError(tok.Pos, "expected 'obj' keyword, got %q", tok.Value)
	}

	obj := &IndirectObject{Ref: Reference{Number: num, Generation: gen}}

	// An empty body between "obj" and "endobj" stands for null.
	tok, err := l.PeekToken()
	if err != nil {
		return nil, err
	}
	if tok.IsKeyword("endobj") || tok.IsKeyword("stream") {
		if cerr := p.cfg.correctable(NewMalformedError(tok.Pos, "object %s has no value", obj.Ref)); cerr != nil {
			return nil, cerr
		}
		obj.Object = Null{}
	} else {
		value, err := l.NextObject()
		if err != nil {
			return nil, err
		}
		obj.Object = value
	}

	tok, err = l.PeekToken()
	if err != nil {
		return nil, err
	}
	if tok.IsKeyword("stream") {
		if _, err := l.NextToken(); err != nil {
			return nil, err
		}
		stream, err := p.parseStreamPayload(l, obj)
		if err != nil {
			return nil, err
		}
		obj.Object = stream
		tok, err = l.PeekToken()
		if err != nil {
			return nil, err
		}
	}

	if tok.IsKeyword("endobj") {
		if _, err := l.NextToken(); err != nil {
			return nil, err
		}
	} else {
		if cerr := p.cfg.correctable(NewMalformedError(tok.Pos, "object %s is missing 'endobj'", obj.Ref)); cerr != nil {
			return nil, cerr
		}
	}

	if p.decrypt != nil && obj.Ref != p.encryptionDict {
		value, err := p.decrypt(obj)
		if err != nil {
			return nil, err
		}
		obj.Object = value
	}
	return obj, nil
}

// expectNonNegativeInt reads one token that must be a non-negative
// integer.
func (p *Parser) expectNonNegativeInt(l *Lexer, what string) (int, error) {
	tok, err := l.NextToken()
	if err != nil {
		return 0, err
	}
	if tok.Type != TokenInteger {
		return 0, NewMalformedError(tok.Pos, "expected %s, got %q", what, tok.Value)
	}
	v, err := strconv.Atoi(string(tok.Value))
	if err != nil || v < 0 {
		return 0, NewMalformedError(tok.Pos, "invalid %s %q", what, tok.Value)
	}
	return v, nil
}

// parseStreamPayload handles everything after the "stream" keyword: the
// end-of-line marker, the payload window sized by /Length, and the
// closing "endstream". A wrong /Length is corrected by locating the
// actual "endstream" keyword.
func (p *Parser) parseStreamPayload(l *Lexer, owner *IndirectObject) (*Stream, error) {
	dict, ok := owner.Object.(Dict)
	if !ok {
		return nil, NewMalformedError(l.Pos(), "stream in object %s has no dictionary", owner.Ref)
	}

	b, err := l.NextByte()
	if err != nil {
		return nil, NewMalformedError(l.Pos(), "unexpected end of file after 'stream' keyword")
	}
	switch b {
	case '\n':
	case '\r':
		if next, ok := l.peekByte(); ok && next == '\n' {
			l.SetPos(l.Pos() + 1)
		} else if cerr := p.cfg.correctable(NewMalformedError(l.Pos()-1, "stream keyword followed by CR without LF")); cerr != nil {
			return nil, cerr
		}
	default:
		if cerr := p.cfg.correctable(NewMalformedError(l.Pos()-1, "missing end-of-line after 'stream' keyword")); cerr != nil {
			return nil, cerr
		}
		l.SetPos(l.Pos() - 1)
	}

	length, lengthKnown := p.streamLength(dict)
	if !lengthKnown {
		if cerr := p.cfg.correctable(NewMalformedError(l.Pos(), "stream in object %s has missing or invalid /Length", owner.Ref)); cerr != nil {
			return nil, cerr
		}
		length = 0
	}

	dataStart := l.Pos()
	l.SetPos(dataStart + length)
	tok, err := l.NextToken()
	if err != nil || !tok.IsKeyword("endstream") {
		if cerr := p.cfg.correctable(NewMalformedError(dataStart, "stream in object %s is not followed by 'endstream' after %d bytes", owner.Ref, length)); cerr != nil {
			return nil, cerr
		}
		end := p.findNext([]byte("endstream"), dataStart)
		if end < 0 {
			return nil, NewMalformedError(dataStart, "stream in object %s has no 'endstream'", owner.Ref)
		}
		// Trim the end-of-line that separates data from the keyword.
		dataEnd := end
		if dataEnd > dataStart {
			if b := readRange(p.src, dataEnd-1, 1); len(b) == 1 && b[0] == '\n' {
				dataEnd--
			}
		}
		if dataEnd > dataStart {
			if b := readRange(p.src, dataEnd-1, 1); len(b) == 1 && b[0] == '\r' {
				dataEnd--
			}
		}
		length = dataEnd - dataStart
		l.SetPos(end + int64(len("endstream")))
	}

	dict.Set("Length", Int(length))
	provider := &WindowProvider{Source: p.src, Offset: dataStart, Length: length, ChunkSize: p.cfg.chunkSize()}
	return NewStream(dict, provider), nil
}

// streamLength extracts the declared /Length, following a reference
// through the resolver if one is installed.
func (p *Parser) streamLength(dict Dict) (int64, bool) {
	switch v := dict.Get("Length").(type) {
	case Int:
		if v >= 0 {
			return int64(v), true
		}
	case Reference:
		if p.resolve == nil {
			return 0, false
		}
		resolved, err := p.resolve(v)
		if err != nil {
			return 0, false
		}
		if length, ok := resolved.(Int); ok && length >= 0 {
			return int64(length), true
		}
	}
	return 0, false
}

// findNext locates the next occurrence of needle at or after from,
// searching in chunks. It returns -1 when the needle does not occur.
func (p *Parser) findNext(needle []byte, from int64) int64 {
	chunk := int64(p.cfg.chunkSize())
	overlap := int64(len(needle) - 1)
	for pos := from; pos < p.src.Size(); pos += chunk {
		data := readRange(p.src, pos, chunk+overlap)
		if idx := bytes.Index(data, needle); idx >= 0 {
			return pos + int64(idx)
		}
		if int64(len(data)) < chunk+overlap {
			break
		}
	}
	return -1
}

// IsXRefSection reports whether a classic "xref" table starts at the
// given offset. Cross-reference streams return false; they parse as
// ordinary indirect objects.
func (p *Parser) IsXRefSection(offset int64) bool {
	if err := p.ensureHeader(); err != nil {
		return false
	}
	l := p.lexer
	l.SetPos(offset + p.base)
	tok, err := l.PeekToken()
	return err == nil && tok.IsKeyword("xref")
}

// ParseXRefSectionAndTrailer parses the classic cross-reference table
// and trailer dictionary at the given offset.
func (p *Parser) ParseXRefSectionAndTrailer(offset int64) (*XRefSection, Dict, error) {
	if err := p.ensureHeader(); err != nil {
		return nil, nil, err
	}

	l := p.lexer
	l.SetPos(offset + p.base)
	tok, err := l.NextToken()
	if err != nil {
		return nil, nil, err
	}
	if !tok.IsKeyword("xref") {
		return nil, nil, NewMalformedError(tok.Pos, "expected 'xref' keyword, got %q", tok.Value)
	}

	section := NewXRefSection()
	for {
		tok, err := l.PeekToken()
		if err != nil {
			return nil, nil, err
		}
		if tok.IsKeyword("trailer") {
			if _, err := l.NextToken(); err != nil {
				return nil, nil, err
			}
			trailerObj, err := l.NextObject()
			if err != nil {
				return nil, nil, err
			}
			trailer, ok := trailerObj.(Dict)
			if !ok {
				return nil, nil, NewMalformedError(tok.Pos, "trailer is not a dictionary")
			}
			if err := p.verifySentinel(section, offset); err != nil {
				return nil, nil, err
			}
			if err := p.verifyNumbering(section); err != nil {
				return nil, nil, err
			}
			return section, trailer, nil
		}
		if tok.Type != TokenInteger {
			return nil, nil, NewMalformedError(tok.Pos, "missing trailer after cross-reference table")
		}
		if err := p.parseXRefSubsection(l, section); err != nil {
			return nil, nil, err
		}
	}
}

// verifySentinel checks that the section's entry for object 0, when
// present, is the free list head: free, generation 65535. Sections from
// incremental updates may omit object 0 entirely.
func (p *Parser) verifySentinel(section *XRefSection, offset int64) error {
	entry, ok := section.Entry(0)
	if !ok || (entry.Type == XRefFree && entry.Generation == 65535) {
		return nil
	}
	if cerr := p.cfg.correctable(NewMalformedError(offset, "cross-reference entry for object 0 is not the free list head")); cerr != nil {
		return cerr
	}
	next := 0
	if entry.Type == XRefFree {
		next = int(entry.Offset)
	}
	section.AddFreeEntryWithNext(0, 65535, next)
	return nil
}

// parseXRefSubsection reads one "first count" subsection header and its
// entry rows. A subsection that starts at 1 but begins with the free
// list head entry is renumbered from 0, a common off-by-one defect.
func (p *Parser) parseXRefSubsection(l *Lexer, section *XRefSection) error {
	first, err := p.expectNonNegativeInt(l, "subsection start")
	if err != nil {
		return err
	}
	count, err := p.expectNonNegativeInt(l, "subsection entry count")
	if err != nil {
		return err
	}

	rows := make([]XRefEntryRow, count)
	for i := 0; i < count; i++ {
		l.SkipWhitespace()
		row, err := l.NextXRefEntry()
		if err != nil {
			return err
		}
		rows[i] = row
	}

	if first == 1 && count > 0 && rows[0].EntryType == 'f' && rows[0].Generation == 65535 {
		if cerr := p.cfg.correctable(NewMalformedError(-1, "cross-reference subsection starts at 1 instead of 0")); cerr != nil {
			return cerr
		}
		first = 0
	}

	for i, row := range rows {
		num := first + i
		switch {
		case row.EntryType == 'f':
			section.AddFreeEntryWithNext(num, row.Generation, int(row.Offset))
		case row.Offset == 0:
			// An in-use entry cannot live at offset 0; the file header
			// is there.
			if cerr := p.cfg.correctable(NewMalformedError(-1, "in-use cross-reference entry for object %d has offset 0", num)); cerr != nil {
				return cerr
			}
			section.AddFreeEntry(num, row.Generation)
		default:
			section.AddInUseEntry(num, row.Generation, row.Offset)
		}
	}
	return nil
}

// verifyNumbering cross-checks the section against the file: the object
// definitions the in-use entries point at must carry the entries'
// object numbers. A constant difference across sampled entries means
// the whole table is misnumbered and is repaired by shifting;
// inconsistent differences are a hard error.
func (p *Parser) verifyNumbering(section *XRefSection) error {
	var sampled []XRefEntry
	section.EachEntry(func(entry XRefEntry) {
		if entry.Type == XRefInUse && len(sampled) < 2 {
			sampled = append(sampled, entry)
		}
	})
	if len(sampled) == 0 {
		return nil
	}

	shift := 0
	for i, entry := range sampled {
		actual, ok := p.objectNumberAt(entry.Offset)
		if !ok {
			return nil
		}
		diff := actual - entry.Number
		if i == 0 {
			shift = diff
		} else if diff != shift {
			return NewMalformedError(entry.Offset, "cross-reference table numbering is inconsistent")
		}
	}
	if shift == 0 {
		return nil
	}

	if cerr := p.cfg.correctable(NewMalformedError(-1, "cross-reference table object numbers are off by %d", shift)); cerr != nil {
		return cerr
	}
	shifted := NewXRefSection()
	section.EachEntry(func(entry XRefEntry) {
		entry.Number += shift
		if entry.Number >= 0 {
			shifted.entries[entry.Number] = entry
		}
	})
	section.entries = shifted.entries
	return nil
}

// objectNumberAt reads the object number of the definition at offset
// without parsing the full object.
func (p *Parser) objectNumberAt(offset int64) (int, bool) {
	l := NewLexer(p.src, offset+p.base, p.cfg)
	tok, ok := l.NextIntegerOrKeyword()
	if !ok || tok.Type != TokenInteger {
		return 0, false
	}
	num, err := strconv.Atoi(string(tok.Value))
	if err != nil {
		return 0, false
	}
	return num, true
}

// LoadRevision loads the cross-reference section and trailer at the
// given offset, dispatching between the classic table form and the
// cross-reference stream form.
func (p *Parser) LoadRevision(offset int64) (*XRefSection, Dict, error) {
	if err := p.ensureHeader(); err != nil {
		return nil, nil, err
	}
	if p.IsXRefSection(offset) {
		return p.ParseXRefSectionAndTrailer(offset)
	}

	obj, err := p.ParseIndirectObject(offset)
	if err != nil {
		return nil, nil, err
	}
	stream, ok := obj.Object.(*Stream)
	if !ok {
		return nil, nil, NewMalformedError(offset, "no cross-reference section at offset")
	}
	section, trailer, err := DecodeXRefStream(stream)
	if err != nil {
		return nil, nil, err
	}

	// The stream must be reachable through its own section, otherwise
	// an incremental update could not rewrite it.
	if entry, ok := section.Entry(obj.Ref.Number); !ok || entry.Type != XRefInUse {
		if cerr := p.cfg.correctable(NewMalformedError(offset, "cross-reference stream %s has no entry for itself", obj.Ref)); cerr != nil {
			return nil, nil, cerr
		}
		section.AddInUseEntry(obj.Ref.Number, obj.Ref.Generation, offset)
	}
	return section, trailer, nil
}

// LoadObject loads the object a cross-reference entry points at. Free
// entries load as null; in-use entries parse from their byte offset;
// compressed entries are extracted from their object stream container.
func (p *Parser) LoadObject(entry XRefEntry) (*IndirectObject, error) {
	switch entry.Type {
	case XRefFree:
		return &IndirectObject{Ref: entry.Reference(), Object: Null{}}, nil

	case XRefInUse:
		obj, err := p.ParseIndirectObject(entry.Offset)
		if err != nil {
			return nil, err
		}
		if obj.Ref.Number != entry.Number || obj.Ref.Generation != entry.Generation {
			return nil, NewMalformedError(entry.Offset, "expected object %s, found %s", entry.Reference(), obj.Ref)
		}
		return obj, nil

	case XRefCompressed:
		osd, err := p.objectStreamData(entry.Container)
		if err != nil {
			return nil, err
		}
		value, num, err := osd.ObjectByIndex(entry.Index)
		if err != nil {
			return nil, err
		}
		if num != entry.Number {
			if cerr := p.cfg.correctable(NewMalformedError(-1, "object stream %d member %d is numbered %d, expected %d", entry.Container, entry.Index, num, entry.Number)); cerr != nil {
				return nil, cerr
			}
		}
		// Compressed objects always have generation zero.
		return &IndirectObject{Ref: Reference{Number: entry.Number}, Object: value}, nil

	default:
		return nil, NewUsageError("cannot load xref entry of type %v", entry.Type)
	}
}

// objectStreamData returns the parsed header of an object stream
// container, caching it so repeated member loads decode the container
// only once.
func (p *Parser) objectStreamData(container int) (*ObjectStreamData, error) {
	if osd, ok := p.objStmCache[container]; ok {
		return osd, nil
	}
	if p.resolve == nil {
		return nil, NewUsageError("cannot load compressed object: no resolver installed")
	}
	obj, err := p.resolve(Reference{Number: container})
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*Stream)
	if !ok {
		return nil, NewMalformedError(-1, "object stream container %d is not a stream", container)
	}
	osd, err := NewObjectStreamData(stream, p.cfg)
	if err != nil {
		return nil, err
	}
	p.objStmCache[container] = osd
	return osd, nil
}

// Reconstruct scans the whole file for object definitions and rebuilds
// the cross-reference information from what it finds. When an object
// number is defined more than once the definition closest to the end of
// the file wins, matching how updated files shadow older definitions.
func (p *Parser) Reconstruct() (*XRefSection, Dict, error) {
	if err := p.ensureHeader(); err != nil {
		return nil, nil, err
	}

	data := readRange(p.src, 0, p.src.Size())
	section := NewXRefSection()
	lx := NewLexer(p.src, 0, p.cfg)

	var trailers []Dict
	var xrefStreamTrailer Dict
	var catalogRef Reference
	linearized := false

	for lineStart := 0; lineStart < len(data); {
		lineEnd := lineStart
		for lineEnd < len(data) && data[lineEnd] != '\n' && data[lineEnd] != '\r' {
			lineEnd++
		}

		lx.SetPos(int64(lineStart))
		if tok, ok := lx.NextIntegerOrKeyword(); ok && tok.Pos < int64(lineEnd) {
			switch {
			case tok.Type == TokenInteger:
				// "N G obj", tolerating the generation and keyword
				// spilling onto the following line.
				genTok, ok := lx.NextIntegerOrKeyword()
				if ok && genTok.Type == TokenInteger {
					if kw, ok := lx.NextIntegerOrKeyword(); ok && kw.IsKeyword("obj") {
						p.reconstructCandidate(tok, genTok, section, &xrefStreamTrailer, &catalogRef, &linearized)
					}
				}
			case tok.IsKeyword("trailer"):
				if trailerObj, err := lx.NextObject(); err == nil {
					if trailer, ok := trailerObj.(Dict); ok {
						trailers = append(trailers, trailer)
					}
				}
			}
		}

		lineStart = lineEnd + 1
		if lineEnd+1 < len(data) && data[lineEnd] == '\r' && data[lineEnd+1] == '\n' {
			lineStart = lineEnd + 2
		}
	}

	trailer := p.reconstructTrailer(trailers, xrefStreamTrailer, catalogRef, linearized)
	if trailer == nil {
		return nil, nil, NewMalformedError(-1, "could not reconstruct a trailer dictionary")
	}

	if _, ok := section.Entry(0); !ok {
		section.AddFreeEntryWithNext(0, 65535, 0)
	}
	size := section.MaxNumber() + 1
	if existing, ok := trailer.GetInt("Size"); !ok || int(existing) < size {
		trailer.Set("Size", Int(size))
	}
	return section, trailer, nil
}

// reconstructCandidate validates one "N G obj" match by parsing the
// full definition and records it in the section.
func (p *Parser) reconstructCandidate(numTok, genTok Token, section *XRefSection, xrefStreamTrailer *Dict, catalogRef *Reference, linearized *bool) {
	num, err := strconv.Atoi(string(numTok.Value))
	if err != nil || num <= 0 {
		return
	}
	gen, err := strconv.Atoi(string(genTok.Value))
	if err != nil || gen < 0 {
		return
	}

	offset := numTok.Pos - p.base
	obj, err := p.ParseIndirectObject(offset)
	if err != nil || obj.Ref.Number != num {
		return
	}
	section.AddInUseEntry(num, gen, offset)

	switch v := obj.Object.(type) {
	case Dict:
		if v.Has("Linearized") {
			*linearized = true
		}
		if typeName, ok := v.GetName("Type"); ok && typeName == "Catalog" && catalogRef.Number == 0 {
			*catalogRef = obj.Ref
		}
	case *Stream:
		if typeName, ok := v.Dict.GetName("Type"); ok && typeName == "XRef" {
			fields := make(Dict)
			for _, key := range trailerFieldNames {
				if value := v.Dict.Get(key); value != nil {
					fields[key] = value
				}
			}
			*xrefStreamTrailer = fields
		}
	}
}

// reconstructTrailer picks the trailer for a reconstructed revision.
// Preference order: the last trailer dictionary in the file (the first
// one for linearized files, whose real trailer comes first), the
// section recorded at startxref, the last cross-reference stream seen,
// and finally a minimal trailer synthesized from the document catalog.
func (p *Parser) reconstructTrailer(trailers []Dict, xrefStreamTrailer Dict, catalogRef Reference, linearized bool) Dict {
	if len(trailers) > 0 {
		if linearized {
			return trailers[0]
		}
		return trailers[len(trailers)-1]
	}
	if offset, err := p.StartXRefOffset(); err == nil {
		if _, trailer, err := p.LoadRevision(offset); err == nil {
			return trailer
		}
	}
	if xrefStreamTrailer != nil {
		return xrefStreamTrailer
	}
	if catalogRef.Number != 0 {
		return Dict{"Root": catalogRef}
	}
	return nil
}
