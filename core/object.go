package core

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Object represents a PDF object
type Object interface {
	Type() ObjectType
	String() string
}

// ObjectType represents the type of PDF object
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBool
	ObjInt
	ObjBigInt
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDict
	ObjStream
	ObjReference
	ObjDate
)

// String returns the string representation of the object type
func (t ObjectType) String() string {
	switch t {
	case ObjNull:
		return "Null"
	case ObjBool:
		return "Bool"
	case ObjInt:
		return "Int"
	case ObjBigInt:
		return "BigInt"
	case ObjReal:
		return "Real"
	case ObjString:
		return "String"
	case ObjName:
		return "Name"
	case ObjArray:
		return "Array"
	case ObjDict:
		return "Dict"
	case ObjStream:
		return "Stream"
	case ObjReference:
		return "Reference"
	case ObjDate:
		return "Date"
	default:
		return "Unknown"
	}
}

// Null represents a PDF null object
type Null struct{}

func (n Null) Type() ObjectType { return ObjNull }
func (n Null) String() string   { return "null" }

// Bool represents a PDF boolean
type Bool bool

func (b Bool) Type() ObjectType { return ObjBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Int represents a PDF integer that fits in 64 bits
type Int int64

func (i Int) Type() ObjectType { return ObjInt }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }

// BigInt represents a PDF integer too large for 64 bits. Integer literals
// of arbitrary length parse without overflow; values that fit in 64 bits
// are always returned as Int instead.
type BigInt struct {
	Value *big.Int
}

func (b BigInt) Type() ObjectType { return ObjBigInt }
func (b BigInt) String() string   { return b.Value.String() }

// NewInteger parses a decimal literal into the narrowest integer object:
// Int when the value fits in 64 bits, BigInt otherwise.
func NewInteger(literal string) (Object, error) {
	if v, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return Int(v), nil
	}
	value, ok := new(big.Int).SetString(literal, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer literal %q", literal)
	}
	return BigInt{Value: value}, nil
}

// Real represents a PDF real number
type Real float64

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String represents a PDF string. The value holds the raw bytes; literal
// and hexadecimal forms are a serialization detail only.
type String string

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string   { return string(s) }

// NameEncoding classifies the bytes of a decoded name token.
type NameEncoding int

const (
	// NameASCII means every byte of the name is below 128.
	NameASCII NameEncoding = iota
	// NameUTF8 means the name contains bytes above 127 forming valid UTF-8.
	NameUTF8
	// NameBinary means the name bytes are neither ASCII nor valid UTF-8.
	NameBinary
)

func (e NameEncoding) String() string {
	switch e {
	case NameASCII:
		return "ASCII"
	case NameUTF8:
		return "UTF-8"
	case NameBinary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// Name represents a PDF name. The value holds the raw decoded bytes with
// all #XY escapes already resolved.
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return "/" + string(n) }

// Encoding classifies the name bytes: ASCII if all bytes are below 128,
// UTF-8 if the bytes decode as valid UTF-8, raw binary otherwise.
func (n Name) Encoding() NameEncoding {
	ascii := true
	for i := 0; i < len(n); i++ {
		if n[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return NameASCII
	}
	if utf8.ValidString(string(n)) {
		return NameUTF8
	}
	return NameBinary
}

// Array represents a PDF array
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	var parts []string
	for _, obj := range a {
		parts = append(parts, obj.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Len returns the length of the array
func (a Array) Len() int {
	return len(a)
}

// Get retrieves an element at the given index
func (a Array) Get(index int) Object {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// GetInt retrieves an integer at the given index
func (a Array) GetInt(index int) (Int, bool) {
	i, ok := a.Get(index).(Int)
	return i, ok
}

// GetName retrieves a name at the given index
func (a Array) GetName(index int) (Name, bool) {
	n, ok := a.Get(index).(Name)
	return n, ok
}

// Dict represents a PDF dictionary
type Dict map[string]Object

func (d Dict) Type() ObjectType { return ObjDict }
func (d Dict) String() string {
	var parts []string
	for _, key := range d.SortedKeys() {
		parts = append(parts, fmt.Sprintf("/%s %s", key, d[key].String()))
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Get retrieves a value from the dictionary
func (d Dict) Get(key string) Object {
	return d[key]
}

// GetName retrieves a name value
func (d Dict) GetName(key string) (Name, bool) {
	n, ok := d[key].(Name)
	return n, ok
}

// GetInt retrieves an integer value
func (d Dict) GetInt(key string) (Int, bool) {
	i, ok := d[key].(Int)
	return i, ok
}

// GetDict retrieves a dictionary value
func (d Dict) GetDict(key string) (Dict, bool) {
	v, ok := d[key].(Dict)
	return v, ok
}

// GetArray retrieves an array value
func (d Dict) GetArray(key string) (Array, bool) {
	v, ok := d[key].(Array)
	return v, ok
}

// GetString retrieves a string value
func (d Dict) GetString(key string) (String, bool) {
	v, ok := d[key].(String)
	return v, ok
}

// GetBool retrieves a boolean value
func (d Dict) GetBool(key string) (Bool, bool) {
	v, ok := d[key].(Bool)
	return v, ok
}

// GetReference retrieves an indirect reference
func (d Dict) GetReference(key string) (Reference, bool) {
	v, ok := d[key].(Reference)
	return v, ok
}

// Has checks if a key exists in the dictionary
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Set sets a value in the dictionary
func (d Dict) Set(key string, value Object) {
	d[key] = value
}

// Delete removes a key from the dictionary
func (d Dict) Delete(key string) {
	delete(d, key)
}

// Keys returns all keys in the dictionary
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	return keys
}

// SortedKeys returns all keys in lexicographic order. Serialization uses
// this so output is deterministic.
func (d Dict) SortedKeys() []string {
	keys := d.Keys()
	sort.Strings(keys)
	return keys
}

// Date represents a date value, serialized in the PDF date string form
// "D:YYYYMMDDHHmmSSOHH'mm'".
type Date time.Time

func (d Date) Type() ObjectType { return ObjDate }
func (d Date) String() string {
	return time.Time(d).Format("2006-01-02 15:04:05 -0700")
}

// IndirectObject pairs an object value with the identity of the indirect
// slot it occupies. Objects that are not the direct value of a slot are
// plain Object values with no identity.
type IndirectObject struct {
	Ref    Reference
	Object Object
}

// Type and String delegate to the wrapped value, so an IndirectObject
// can appear wherever a plain object can; nested in another object it
// serializes as its reference.
func (o *IndirectObject) Type() ObjectType {
	if o.Object == nil {
		return ObjNull
	}
	return o.Object.Type()
}

func (o *IndirectObject) String() string {
	if o.Object == nil {
		return "null"
	}
	return o.Object.String()
}

// ObjectsEqual reports whether two object values are structurally equal.
// Streams compare by dictionary and raw payload bytes.
func ObjectsEqual(a, b Object) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case Int:
		return av == b.(Int)
	case BigInt:
		return av.Value.Cmp(b.(BigInt).Value) == 0
	case Real:
		return av == b.(Real)
	case String:
		return av == b.(String)
	case Name:
		return av == b.(Name)
	case Reference:
		return av == b.(Reference)
	case Date:
		return time.Time(av).Equal(time.Time(b.(Date)))
	case Array:
		bv := b.(Array)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !ObjectsEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Dict:
		bv := b.(Dict)
		if len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, ok := bv[k]
			if !ok || !ObjectsEqual(v, bval) {
				return false
			}
		}
		return true
	case *Stream:
		bv := b.(*Stream)
		if !ObjectsEqual(av.Dict, bv.Dict) {
			return false
		}
		ab, aerr := av.Bytes()
		bb, berr := bv.Bytes()
		if aerr != nil || berr != nil {
			return aerr == nil && berr == nil
		}
		return string(ab) == string(bb)
	default:
		return false
	}
}
