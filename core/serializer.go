package core

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// EncryptStringFunc encrypts an indirect string payload. It receives the
// raw bytes and the identity of the indirect object the string belongs to.
type EncryptStringFunc func(data []byte, owner Reference) ([]byte, error)

// EncryptStreamFunc wraps a stream payload for encryption. It returns a
// lazy producer of the encrypted bytes.
type EncryptStreamFunc func(obj *IndirectObject) (StreamSource, error)

// Serializer turns the in-memory object graph back into PDF object
// syntax. A single Serializer may be reused for many objects; it is not
// safe for concurrent use.
type Serializer struct {
	encryptString EncryptStringFunc
	encryptStream EncryptStreamFunc

	// inProgress guards against cyclic graphs: re-entry into an indirect
	// object that is still being serialized short-circuits to the
	// reference form.
	inProgress map[Reference]bool
	owner      Reference
}

// NewSerializer creates a serializer without encryption hooks.
func NewSerializer() *Serializer {
	return &Serializer{inProgress: make(map[Reference]bool)}
}

// SetEncryptFuncs installs the encryption hooks applied to indirect
// string payloads and stream payloads. Direct (un-addressed) strings are
// never encrypted.
func (s *Serializer) SetEncryptFuncs(str EncryptStringFunc, stream EncryptStreamFunc) {
	s.encryptString = str
	s.encryptStream = stream
}

// Serialize returns the serialized form of an object value.
func (s *Serializer) Serialize(obj Object) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.serializeValue(&buf, obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SerializeIndirectObject writes a complete "N G obj ... endobj" body to
// w. Stream payloads are copied chunk-wise from their source and /Length
// is recomputed to the actual emitted byte count.
func (s *Serializer) SerializeIndirectObject(w io.Writer, obj *IndirectObject) error {
	if obj.Ref.Number == 0 {
		return NewUsageError("cannot serialize an indirect object without an assigned object number")
	}
	if s.inProgress[obj.Ref] {
		return NewUsageError("re-entrant serialization of object %s", obj.Ref)
	}
	s.inProgress[obj.Ref] = true
	prevOwner := s.owner
	s.owner = obj.Ref
	defer func() {
		delete(s.inProgress, obj.Ref)
		s.owner = prevOwner
	}()

	if _, err := fmt.Fprintf(w, "%d %d obj\n", obj.Ref.Number, obj.Ref.Generation); err != nil {
		return err
	}

	if stream, ok := obj.Object.(*Stream); ok {
		if err := s.serializeStream(w, obj, stream); err != nil {
			return err
		}
	} else {
		var buf bytes.Buffer
		if err := s.serializeValue(&buf, obj.Object); err != nil {
			return err
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "\nendobj\n")
	return err
}

// serializeValue dispatches on the runtime variant of the object.
func (s *Serializer) serializeValue(buf *bytes.Buffer, obj Object) error {
	switch v := obj.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case Null:
		buf.WriteString("null")
		return nil
	case Bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case Int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
		return nil
	case BigInt:
		buf.WriteString(v.Value.String())
		return nil
	case Real:
		return serializeReal(buf, float64(v))
	case String:
		return s.serializeString(buf, string(v))
	case Name:
		serializeName(buf, string(v))
		return nil
	case Array:
		return s.serializeArray(buf, v)
	case Dict:
		return s.serializeDict(buf, v)
	case Reference:
		fmt.Fprintf(buf, "%d %d R", v.Number, v.Generation)
		return nil
	case Date:
		return s.serializeString(buf, formatDate(time.Time(v)))
	case *IndirectObject:
		// Nested identified objects serialize as the reference form so
		// their content is not duplicated; this also terminates cycles.
		fmt.Fprintf(buf, "%d %d R", v.Ref.Number, v.Ref.Generation)
		return nil
	case *Stream:
		return NewUsageError("cannot serialize a stream as a direct value; streams must be indirect objects")
	default:
		return NewUsageError("cannot serialize object of type %T", obj)
	}
}

// serializeReal writes a real number with six decimal places, trimming
// trailing zeros and a trailing point. NaN and infinities have no PDF
// representation.
func serializeReal(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NewUsageError("cannot serialize %v as a PDF real", f)
	}
	formatted := strconv.FormatFloat(f, 'f', 6, 64)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")
	if formatted == "" || formatted == "-" {
		formatted += "0"
	}
	buf.WriteString(formatted)
	return nil
}

// nameSafeByte reports whether a byte may appear unescaped in a name
// token: a printable regular character that is not '#'.
func nameSafeByte(b byte) bool {
	return b > 32 && b < 127 && !isDelimiter(b) && b != '#'
}

// serializeName writes a name token, escaping unsafe bytes as #XY. The
// empty name is written as a slash followed by a space so the token has
// a visible end.
func serializeName(buf *bytes.Buffer, name string) {
	buf.WriteByte('/')
	if len(name) == 0 {
		buf.WriteByte(' ')
		return
	}
	for i := 0; i < len(name); i++ {
		b := name[i]
		if nameSafeByte(b) {
			buf.WriteByte(b)
		} else {
			fmt.Fprintf(buf, "#%02X", b)
		}
	}
}

// serializeString writes a string value. Valid UTF-8 text containing
// non-ASCII characters is re-encoded as UTF-16BE with a byte order mark;
// everything else is written as a literal string with ( ) \ CR LF
// escaped. Indirect string payloads pass through the encrypt hook first.
func (s *Serializer) serializeString(buf *bytes.Buffer, value string) error {
	data := []byte(value)
	if needsUTF16(value) {
		encoded, err := encodeUTF16BE(value)
		if err != nil {
			return fmt.Errorf("failed to encode string as UTF-16BE: %w", err)
		}
		data = encoded
	}

	if s.encryptString != nil && s.owner.Number != 0 {
		encrypted, err := s.encryptString(data, s.owner)
		if err != nil {
			return fmt.Errorf("failed to encrypt string: %w", err)
		}
		data = encrypted
	}

	buf.WriteByte('(')
	for _, b := range data {
		switch b {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(b)
		case '\r':
			buf.WriteString(`\r`)
		case '\n':
			buf.WriteString(`\n`)
		default:
			buf.WriteByte(b)
		}
	}
	buf.WriteByte(')')
	return nil
}

// serializeArray writes "[...]" with space-joined elements.
func (s *Serializer) serializeArray(buf *bytes.Buffer, arr Array) error {
	buf.WriteByte('[')
	for i, obj := range arr {
		if i > 0 {
			buf.WriteByte(' ')
		}
		if err := s.serializeValue(buf, obj); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// serializeDict writes "<<...>>" with alternating name/value pairs and no
// separator beyond what the serialized tokens themselves require. Keys
// are emitted in sorted order for deterministic output.
func (s *Serializer) serializeDict(buf *bytes.Buffer, dict Dict) error {
	buf.WriteString("<<")
	for _, key := range dict.SortedKeys() {
		serializeName(buf, key)

		before := buf.Len()
		var valueBuf bytes.Buffer
		if err := s.serializeValue(&valueBuf, dict[key]); err != nil {
			return err
		}
		value := valueBuf.Bytes()
		if len(value) > 0 && !isDelimiter(value[0]) && before > 0 && !isDelimiter(buf.Bytes()[before-1]) {
			buf.WriteByte(' ')
		}
		buf.Write(value)
	}
	buf.WriteString(">>")
	return nil
}

// serializeStream writes the stream dictionary followed by
// "stream\n<bytes>\nendstream". The payload is copied incrementally from
// the stream's source; /Length is set to the actual byte count before the
// dictionary is emitted.
func (s *Serializer) serializeStream(w io.Writer, owner *IndirectObject, stream *Stream) error {
	var source StreamSource
	var length int64 = -1

	if s.encryptStream != nil {
		encrypted, err := s.encryptStream(owner)
		if err != nil {
			return fmt.Errorf("failed to encrypt stream: %w", err)
		}
		source = encrypted
	} else {
		switch p := stream.Provider().(type) {
		case *BytesProvider:
			length = int64(len(p.Data))
			source = p.Open()
		case *WindowProvider:
			length = p.Length
			source = p.Open()
		case nil:
			length = 0
		default:
			source = p.Open()
		}
	}

	// Without a known length the payload has to be buffered so /Length
	// can be written into the dictionary first.
	var buffered []byte
	if length < 0 {
		data, err := DrainSource(source)
		if err != nil {
			return fmt.Errorf("failed to read stream payload: %w", err)
		}
		buffered = data
		length = int64(len(data))
		source = nil
	}

	stream.Dict.Set("Length", Int(length))

	var dictBuf bytes.Buffer
	if err := s.serializeDict(&dictBuf, stream.Dict); err != nil {
		return err
	}
	if _, err := w.Write(dictBuf.Bytes()); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "stream\n"); err != nil {
		return err
	}

	if buffered != nil {
		if _, err := w.Write(buffered); err != nil {
			return err
		}
	} else if source != nil {
		for {
			chunk, err := source.NextChunk()
			if len(chunk) > 0 {
				if _, werr := w.Write(chunk); werr != nil {
					return werr
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to read stream payload: %w", err)
			}
		}
	}

	_, err := io.WriteString(w, "\nendstream")
	return err
}

// formatDate renders a time as a PDF date string
// "D:YYYYMMDDHHmmSSOHH'mm'". UTC times use the Z offset marker.
func formatDate(t time.Time) string {
	_, offset := t.Zone()
	sign := byte('+')
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	if offset == 0 {
		sign = 'Z'
	}
	return fmt.Sprintf("D:%s%c%02d'%02d'", t.Format("20060102150405"), sign, offset/3600, offset%3600/60)
}
