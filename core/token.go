package core

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenKeyword    // obj, endobj, stream, R, true, false, null, f*, ...
	TokenInteger    // 123
	TokenReal       // 3.14
	TokenString     // (hello), already unescaped
	TokenHexString  // <48656C6C6F>, already decoded to raw bytes
	TokenName       // /Type, already #XY-unescaped
	TokenArrayStart // [
	TokenArrayEnd   // ]
	TokenDictStart  // <<
	TokenDictEnd    // >>
	TokenBraceStart // {
	TokenBraceEnd   // }
)

// String returns the string representation of the token type
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenKeyword:
		return "Keyword"
	case TokenInteger:
		return "Integer"
	case TokenReal:
		return "Real"
	case TokenString:
		return "String"
	case TokenHexString:
		return "HexString"
	case TokenName:
		return "Name"
	case TokenArrayStart:
		return "ArrayStart"
	case TokenArrayEnd:
		return "ArrayEnd"
	case TokenDictStart:
		return "DictStart"
	case TokenDictEnd:
		return "DictEnd"
	case TokenBraceStart:
		return "BraceStart"
	case TokenBraceEnd:
		return "BraceEnd"
	default:
		return "Unknown"
	}
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64 // Byte offset in the source where the token starts
}

// IsKeyword reports whether the token is the given bare keyword.
func (t Token) IsKeyword(word string) bool {
	return t.Type == TokenKeyword && string(t.Value) == word
}
