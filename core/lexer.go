package core

import (
	"bytes"
	"io"
	"strconv"
)

// Lexer performs lexical analysis of PDF content read from a seekable
// byte source. The position can be saved and restored at any time, which
// the parser uses for lookahead and for jumping between cross-reference
// offsets.
type Lexer struct {
	src ByteSource
	cfg Config
	pos int64

	buf      []byte
	bufStart int64
}

// NewLexer creates a lexer over src starting at the given position.
func NewLexer(src ByteSource, pos int64, cfg Config) *Lexer {
	return &Lexer{src: src, cfg: cfg, pos: pos, bufStart: -1}
}

// Pos returns the current byte position.
func (l *Lexer) Pos() int64 {
	return l.pos
}

// SetPos moves the lexer to an absolute byte position.
func (l *Lexer) SetPos(pos int64) {
	l.pos = pos
}

// byteAt returns the byte at an absolute position, buffering reads in
// chunks. The second result is false at end of source.
func (l *Lexer) byteAt(pos int64) (byte, bool) {
	if pos < 0 || pos >= l.src.Size() {
		return 0, false
	}
	if l.bufStart < 0 || pos < l.bufStart || pos >= l.bufStart+int64(len(l.buf)) {
		chunk := int64(l.cfg.chunkSize())
		buf := make([]byte, chunk)
		n, err := l.src.ReadAt(buf, pos)
		if n == 0 && err != nil {
			return 0, false
		}
		l.buf = buf[:n]
		l.bufStart = pos
	}
	return l.buf[pos-l.bufStart], true
}

// NextByte consumes and returns the next byte. io.EOF is returned at end
// of source.
func (l *Lexer) NextByte() (byte, error) {
	b, ok := l.byteAt(l.pos)
	if !ok {
		return 0, io.EOF
	}
	l.pos++
	return b, nil
}

// peekByte returns the next byte without consuming it.
func (l *Lexer) peekByte() (byte, bool) {
	return l.byteAt(l.pos)
}

// SkipWhitespace skips whitespace characters.
// PDF whitespace: space (0x20), tab (0x09), LF (0x0A), CR (0x0D), FF
// (0x0C), null (0x00).
func (l *Lexer) SkipWhitespace() {
	for {
		b, ok := l.peekByte()
		if !ok || !isWhitespace(b) {
			return
		}
		l.pos++
	}
}

// skipWhitespaceAndComments skips whitespace and % comments between tokens.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		l.SkipWhitespace()
		b, ok := l.peekByte()
		if !ok || b != '%' {
			return
		}
		for {
			b, ok = l.peekByte()
			if !ok || b == '\r' || b == '\n' {
				break
			}
			l.pos++
		}
	}
}

// NextToken returns the next token from the input. Whitespace and
// comments between tokens are skipped. At end of source a TokenEOF token
// is returned with a nil error.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespaceAndComments()

	b, ok := l.peekByte()
	if !ok {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	switch b {
	case '[':
		l.pos++
		return Token{Type: TokenArrayStart, Value: []byte{'['}, Pos: l.pos - 1}, nil
	case ']':
		l.pos++
		return Token{Type: TokenArrayEnd, Value: []byte{']'}, Pos: l.pos - 1}, nil
	case '{':
		l.pos++
		return Token{Type: TokenBraceStart, Value: []byte{'{'}, Pos: l.pos - 1}, nil
	case '}':
		l.pos++
		return Token{Type: TokenBraceEnd, Value: []byte{'}'}, Pos: l.pos - 1}, nil
	case '(':
		return l.readString()
	case '<':
		if next, ok := l.byteAt(l.pos + 1); ok && next == '<' {
			l.pos += 2
			return Token{Type: TokenDictStart, Value: []byte("<<"), Pos: l.pos - 2}, nil
		}
		return l.readHexString()
	case '>':
		if next, ok := l.byteAt(l.pos + 1); ok && next == '>' {
			l.pos += 2
			return Token{Type: TokenDictEnd, Value: []byte(">>"), Pos: l.pos - 2}, nil
		}
		return Token{}, NewMalformedError(l.pos, "unexpected '>'")
	case '/':
		return l.readName()
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		return l.readNumber()
	}
	if isRegular(b) {
		return l.readKeyword()
	}

	return Token{}, NewMalformedError(l.pos, "unexpected character %q", b)
}

// PeekToken returns the next token without consuming it.
func (l *Lexer) PeekToken() (Token, error) {
	saved := l.pos
	tok, err := l.NextToken()
	l.pos = saved
	return tok, err
}

// readString reads a literal string token "(...)". Balanced parentheses
// are tracked; an unmatched opening parenthesis is a hard parse error.
func (l *Lexer) readString() (Token, error) {
	startPos := l.pos
	l.pos++ // opening (

	var buf bytes.Buffer
	depth := 1
	for depth > 0 {
		b, err := l.NextByte()
		if err != nil {
			return Token{}, NewMalformedError(startPos, "unterminated literal string")
		}

		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth > 0 {
				buf.WriteByte(b)
			}
		case '\\':
			next, err := l.NextByte()
			if err != nil {
				return Token{}, NewMalformedError(startPos, "unterminated literal string")
			}
			switch next {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '(', ')', '\\':
				buf.WriteByte(next)
			case '\r', '\n':
				// Line continuation: the backslash and EOL are elided.
				if next == '\r' {
					if peek, ok := l.peekByte(); ok && peek == '\n' {
						l.pos++
					}
				}
			case '0', '1', '2', '3', '4', '5', '6', '7':
				octal := next - '0'
				for i := 0; i < 2; i++ {
					peek, ok := l.peekByte()
					if !ok || !isOctalDigit(peek) {
						break
					}
					octal = octal*8 + (peek - '0')
					l.pos++
				}
				buf.WriteByte(octal)
			default:
				// Unknown escape: the backslash is dropped.
				buf.WriteByte(next)
			}
		default:
			buf.WriteByte(b)
		}
	}

	return Token{Type: TokenString, Value: buf.Bytes(), Pos: startPos}, nil
}

// readHexString reads a hex string token "<...>" and decodes the nibble
// pairs to raw bytes. An odd nibble count pads the last byte with zero.
// A non-hex digit or a missing closing '>' is a hard parse error.
func (l *Lexer) readHexString() (Token, error) {
	startPos := l.pos
	l.pos++ // opening <

	var buf bytes.Buffer
	var pending byte
	havePending := false
	for {
		b, err := l.NextByte()
		if err != nil {
			return Token{}, NewMalformedError(startPos, "unterminated hex string")
		}
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		v, ok := hexDigitValue(b)
		if !ok {
			return Token{}, NewMalformedError(l.pos-1, "invalid character %q in hex string", b)
		}
		if havePending {
			buf.WriteByte(pending<<4 | v)
			havePending = false
		} else {
			pending = v
			havePending = true
		}
	}
	if havePending {
		buf.WriteByte(pending << 4)
	}

	return Token{Type: TokenHexString, Value: buf.Bytes(), Pos: startPos}, nil
}

// readName reads a name token "/..." and decodes #XY hex escapes to raw
// bytes.
func (l *Lexer) readName() (Token, error) {
	startPos := l.pos
	l.pos++ // the /

	var buf bytes.Buffer
	for {
		b, ok := l.peekByte()
		if !ok || isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++

		if b == '#' {
			hi, ok1 := l.peekByte()
			if ok1 {
				if v1, valid1 := hexDigitValue(hi); valid1 {
					lo, ok2 := l.byteAt(l.pos + 1)
					if ok2 {
						if v2, valid2 := hexDigitValue(lo); valid2 {
							buf.WriteByte(v1<<4 | v2)
							l.pos += 2
							continue
						}
					}
				}
			}
			if err := l.cfg.correctable(NewMalformedError(l.pos-1, "invalid #XY escape in name")); err != nil {
				return Token{}, err
			}
			buf.WriteByte('#')
			continue
		}
		buf.WriteByte(b)
	}

	return Token{Type: TokenName, Value: buf.Bytes(), Pos: startPos}, nil
}

// readNumber reads an integer or real token. The whole run of number-like
// characters is consumed; malformed runs are patched via the correctable
// error policy (the well-formed prefix is used, or zero if there is none).
func (l *Lexer) readNumber() (Token, error) {
	startPos := l.pos

	var run []byte
	for {
		b, ok := l.peekByte()
		if !ok || !isNumberChar(b) {
			break
		}
		run = append(run, b)
		l.pos++
	}

	// Extract the well-formed prefix: optional sign, digits, at most one
	// decimal point.
	i := 0
	if i < len(run) && (run[i] == '+' || run[i] == '-') {
		i++
	}
	digitsBefore := 0
	for i < len(run) && isDigit(run[i]) {
		i++
		digitsBefore++
	}
	hasDecimal := false
	digitsAfter := 0
	if i < len(run) && run[i] == '.' {
		hasDecimal = true
		i++
		for i < len(run) && isDigit(run[i]) {
			i++
			digitsAfter++
		}
	}

	if i < len(run) || digitsBefore+digitsAfter == 0 {
		if err := l.cfg.correctable(NewMalformedError(startPos, "invalid number %q", run)); err != nil {
			return Token{}, err
		}
		if digitsBefore+digitsAfter == 0 {
			return Token{Type: TokenInteger, Value: []byte("0"), Pos: startPos}, nil
		}
	}

	value := run[:i]
	tokenType := TokenInteger
	if hasDecimal {
		tokenType = TokenReal
	}
	return Token{Type: tokenType, Value: value, Pos: startPos}, nil
}

// readKeyword reads a bare keyword token (obj, endobj, stream, R,
// operator-like tokens such as f*).
func (l *Lexer) readKeyword() (Token, error) {
	startPos := l.pos

	var buf bytes.Buffer
	for {
		b, ok := l.peekByte()
		if !ok || !isRegular(b) {
			break
		}
		buf.WriteByte(b)
		l.pos++
	}

	return Token{Type: TokenKeyword, Value: buf.Bytes(), Pos: startPos}, nil
}

// NextObject parses the next complete object: a primitive token, a
// composite array or dictionary literal, or an "N G R" reference triple.
// The reference form needs two tokens of lookahead; a single-token parser
// would misread "1 0 R" as three separate tokens.
func (l *Lexer) NextObject() (Object, error) {
	tok, err := l.NextToken()
	if err != nil {
		return nil, err
	}
	return l.objectFromToken(tok)
}

// objectFromToken converts a consumed token into an object, reading
// further tokens for composites and reference triples.
func (l *Lexer) objectFromToken(tok Token) (Object, error) {
	switch tok.Type {
	case TokenEOF:
		return nil, NewMalformedError(tok.Pos, "unexpected end of input")

	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			return Null{}, nil
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		default:
			return nil, NewMalformedError(tok.Pos, "unexpected keyword %q", tok.Value)
		}

	case TokenInteger:
		return l.maybeReference(tok)

	case TokenReal:
		val, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			if cerr := l.cfg.correctable(NewMalformedError(tok.Pos, "invalid real number %q", tok.Value)); cerr != nil {
				return nil, cerr
			}
			val = 0
		}
		return Real(val), nil

	case TokenString:
		return String(tok.Value), nil

	case TokenHexString:
		return String(tok.Value), nil

	case TokenName:
		return Name(tok.Value), nil

	case TokenArrayStart:
		return l.readArray(tok.Pos)

	case TokenDictStart:
		return l.readDict(tok.Pos)

	default:
		return nil, NewMalformedError(tok.Pos, "unexpected token %q", tok.Value)
	}
}

// maybeReference resolves the two-token lookahead for "N G R": an integer
// followed by another integer followed by the keyword R collapses into a
// Reference. Anything else rewinds and yields the first integer.
func (l *Lexer) maybeReference(tok Token) (Object, error) {
	value, err := NewInteger(string(tok.Value))
	if err != nil {
		return nil, NewMalformedError(tok.Pos, "invalid integer %q", tok.Value)
	}

	num, isInt := value.(Int)
	if !isInt || num < 0 {
		return value, nil
	}

	saved := l.pos
	second, err := l.NextToken()
	if err != nil || second.Type != TokenInteger {
		l.pos = saved
		return value, nil
	}
	gen, err := strconv.ParseInt(string(second.Value), 10, 32)
	if err != nil || gen < 0 {
		l.pos = saved
		return value, nil
	}
	third, err := l.NextToken()
	if err != nil || !third.IsKeyword("R") {
		l.pos = saved
		return value, nil
	}

	return Reference{Number: int(num), Generation: int(gen)}, nil
}

// readArray parses "[...]" after the opening bracket has been consumed.
func (l *Lexer) readArray(startPos int64) (Object, error) {
	arr := Array{}
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenArrayEnd {
			return arr, nil
		}
		if tok.Type == TokenEOF {
			return nil, NewMalformedError(startPos, "unterminated array")
		}
		obj, err := l.objectFromToken(tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

// readDict parses "<<...>>" after the opening delimiter has been
// consumed. Every key must be a name token and must be followed by a
// value before the closing delimiter.
func (l *Lexer) readDict(startPos int64) (Object, error) {
	dict := make(Dict)
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenDictEnd {
			return dict, nil
		}
		if tok.Type == TokenEOF {
			return nil, NewMalformedError(startPos, "unterminated dictionary")
		}
		if tok.Type != TokenName {
			return nil, NewMalformedError(tok.Pos, "dictionary key is not a name (got %s)", tok.Type)
		}
		key := string(tok.Value)

		valueTok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if valueTok.Type == TokenEOF || valueTok.Type == TokenDictEnd {
			return nil, NewMalformedError(tok.Pos, "dictionary key /%s has no value", key)
		}
		value, err := l.objectFromToken(valueTok)
		if err != nil {
			return nil, err
		}
		dict[key] = value
	}
}

// NextIntegerOrKeyword returns the next token if it is an integer or a
// bare keyword, without attempting full object parsing. The second result
// is false for any other input. The reconstruction scan uses this to
// cheaply test whether a line starts with "N G obj"; it never descends
// into strings or composites, keeping the scan linear even on inputs
// full of unterminated literal strings.
func (l *Lexer) NextIntegerOrKeyword() (Token, bool) {
	saved := l.pos
	l.SkipWhitespace()

	b, ok := l.peekByte()
	if !ok {
		l.pos = saved
		return Token{}, false
	}
	switch {
	case isDigit(b):
		tok, err := l.readNumber()
		if err != nil || tok.Type != TokenInteger {
			l.pos = saved
			return Token{}, false
		}
		return tok, true
	case isRegular(b) && !isNumberChar(b):
		tok, err := l.readKeyword()
		if err != nil {
			l.pos = saved
			return Token{}, false
		}
		return tok, true
	default:
		l.pos = saved
		return Token{}, false
	}
}

// XRefEntryRow is one parsed row of a classic cross-reference table.
type XRefEntryRow struct {
	Offset     int64
	Generation int
	EntryType  byte // 'n' or 'f'
}

// NextXRefEntry parses one fixed-width classic xref table row: a 10-digit
// offset, a space, a 5-digit generation, a space, the type letter n or f,
// and a two-byte end-of-line. Deviations from the exact byte layout go
// through the correctable-error policy; an invalid type letter is fatal
// in every mode.
func (l *Lexer) NextXRefEntry() (XRefEntryRow, error) {
	startPos := l.pos

	row := readRange(l.src, l.pos, 20)
	if length, entry := parseStrictXRefRow(row); length > 0 {
		l.pos += int64(length)
		if entry.EntryType != 'n' && entry.EntryType != 'f' {
			return XRefEntryRow{}, NewMalformedError(startPos, "invalid xref entry type %q", entry.EntryType)
		}
		return entry, nil
	}

	if err := l.cfg.correctable(NewMalformedError(startPos, "invalid xref entry %q", row)); err != nil {
		return XRefEntryRow{}, err
	}

	// Lenient fallback: whitespace-separated fields.
	l.SkipWhitespace()
	offset, ok := l.readDigits()
	if !ok {
		return XRefEntryRow{}, NewMalformedError(startPos, "invalid xref entry %q", row)
	}
	l.SkipWhitespace()
	gen, ok := l.readDigits()
	if !ok {
		return XRefEntryRow{}, NewMalformedError(startPos, "invalid xref entry %q", row)
	}
	l.SkipWhitespace()
	typeByte, err := l.NextByte()
	if err != nil {
		return XRefEntryRow{}, NewMalformedError(startPos, "truncated xref entry")
	}
	if typeByte != 'n' && typeByte != 'f' {
		return XRefEntryRow{}, NewMalformedError(startPos, "invalid xref entry type %q", typeByte)
	}
	return XRefEntryRow{Offset: offset, Generation: int(gen), EntryType: typeByte}, nil
}

// parseStrictXRefRow checks the exact byte layout
// "nnnnnnnnnn ggggg t" followed by (SP|CR|LF) and an optional trailing
// LF, giving a 19- or 20-byte row. It returns the number of bytes the
// row occupies, or zero if the layout does not match.
func parseStrictXRefRow(row []byte) (int, XRefEntryRow) {
	if len(row) < 19 {
		return 0, XRefEntryRow{}
	}
	for i := 0; i < 10; i++ {
		if !isDigit(row[i]) {
			return 0, XRefEntryRow{}
		}
	}
	if row[10] != ' ' {
		return 0, XRefEntryRow{}
	}
	for i := 11; i < 16; i++ {
		if !isDigit(row[i]) {
			return 0, XRefEntryRow{}
		}
	}
	if row[16] != ' ' {
		return 0, XRefEntryRow{}
	}
	entryType := row[17]

	if row[18] != ' ' && row[18] != '\r' && row[18] != '\n' {
		return 0, XRefEntryRow{}
	}
	length := 19
	if row[18] != '\n' && len(row) >= 20 && row[19] == '\n' {
		length = 20
	}

	offset, err := strconv.ParseInt(string(row[0:10]), 10, 64)
	if err != nil {
		return 0, XRefEntryRow{}
	}
	gen, err := strconv.Atoi(string(row[11:16]))
	if err != nil {
		return 0, XRefEntryRow{}
	}
	return length, XRefEntryRow{Offset: offset, Generation: gen, EntryType: entryType}
}

// readDigits consumes a run of decimal digits.
func (l *Lexer) readDigits() (int64, bool) {
	var value int64
	seen := false
	for {
		b, ok := l.peekByte()
		if !ok || !isDigit(b) {
			break
		}
		value = value*10 + int64(b-'0')
		seen = true
		l.pos++
	}
	return value, seen
}

// Helper functions

func isWhitespace(b byte) bool {
	// PDF whitespace: space, tab, LF, CR, FF, null
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

// isRegular reports whether b can appear in a bare keyword token.
func isRegular(b byte) bool {
	return !isWhitespace(b) && !isDelimiter(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isNumberChar(b byte) bool {
	return isDigit(b) || b == '+' || b == '-' || b == '.'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func hexDigitValue(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}
