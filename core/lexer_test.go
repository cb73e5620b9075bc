package core

import (
	"errors"
	"testing"
)

func lenientLexer(input string) *Lexer {
	return NewLexer(NewBytesSource([]byte(input)), 0, DefaultConfig())
}

func strictLexer(input string) *Lexer {
	return NewLexer(NewBytesSource([]byte(input)), 0, StrictConfig())
}

// TestLexerEOF tests EOF handling
func TestLexerEOF(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"whitespace only", "   \t\n\r  "},
		{"comment only", "% just a comment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := lenientLexer(tt.input).NextToken()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token.Type != TokenEOF {
				t.Errorf("expected TokenEOF, got %v", token.Type)
			}
		})
	}
}

// TestLexerTokens tests basic token recognition
func TestLexerTokens(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantType  TokenType
		wantValue string
	}{
		{"integer", "123", TokenInteger, "123"},
		{"negative integer", "-42", TokenInteger, "-42"},
		{"signed integer", "+17", TokenInteger, "+17"},
		{"real", "3.14", TokenReal, "3.14"},
		{"real without leading digit", ".5", TokenReal, ".5"},
		{"real without trailing digit", "4.", TokenReal, "4."},
		{"keyword", "obj", TokenKeyword, "obj"},
		{"starred keyword", "f*", TokenKeyword, "f*"},
		{"name", "/Type", TokenName, "Type"},
		{"empty name", "/ ", TokenName, ""},
		{"array start", "[1 2]", TokenArrayStart, "["},
		{"dict start", "<</A 1>>", TokenDictStart, "<<"},
		{"comment skipped", "% comment\n42", TokenInteger, "42"},
		{"brace start", "{", TokenBraceStart, "{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := lenientLexer(tt.input).NextToken()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token.Type != tt.wantType {
				t.Errorf("token type = %v, want %v", token.Type, tt.wantType)
			}
			if string(token.Value) != tt.wantValue {
				t.Errorf("token value = %q, want %q", token.Value, tt.wantValue)
			}
		})
	}
}

// TestLexerLiteralStrings tests literal string parsing including escapes
func TestLexerLiteralStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "(hello)", "hello"},
		{"empty", "()", ""},
		{"nested parens", "(a (b) c)", "a (b) c"},
		{"escapes", `(a\nb\rc\td)`, "a\nb\rc\td"},
		{"escaped parens", `(\(\))`, "()"},
		{"escaped backslash", `(a\\b)`, `a\b`},
		{"octal escape", `(\101)`, "A"},
		{"short octal escape", `(\7x)`, "\x07x"},
		{"unknown escape drops backslash", `(\q)`, "q"},
		{"line continuation LF", "(a\\\nb)", "ab"},
		{"line continuation CRLF", "(a\\\r\nb)", "ab"},
		{"raw newline kept", "(a\nb)", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := lenientLexer(tt.input).NextToken()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token.Type != TokenString {
				t.Fatalf("token type = %v, want TokenString", token.Type)
			}
			if string(token.Value) != tt.want {
				t.Errorf("value = %q, want %q", token.Value, tt.want)
			}
		})
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	_, err := lenientLexer("(never closed").NextToken()
	var merr *MalformedError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MalformedError, got %v", err)
	}
}

// TestLexerHexStrings tests hexadecimal string parsing
func TestLexerHexStrings(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"simple", "<48656C6C6F>", "Hello", false},
		{"empty", "<>", "", false},
		{"whitespace between digits", "<48 65\n6C>", "Hel", false},
		{"odd digit count pads zero", "<48656C6C6F7>", "Hello\x70", false},
		{"lowercase", "<4a4b>", "JK", false},
		{"invalid digit", "<48ZZ>", "", true},
		{"unterminated", "<4865", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := lenientLexer(tt.input).NextToken()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(token.Value) != tt.want {
				t.Errorf("value = %q, want %q", token.Value, tt.want)
			}
		})
	}
}

// TestLexerNames tests name parsing with #XY escapes
func TestLexerNames(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "/Type", "Type"},
		{"hex escape", "/A#20B", "A B"},
		{"utf8 from escapes", "/H#c3#b6#c3#9fgang", "H\xc3\xb6\xc3\x9fgang"},
		{"binary from escapes", "/H#E8lp", "H\xe8lp"},
		{"stops at delimiter", "/Name(str)", "Name"},
		{"stops at slash", "/A/B", "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := lenientLexer(tt.input).NextToken()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(token.Value) != tt.want {
				t.Errorf("value = %q, want %q", token.Value, tt.want)
			}
		})
	}
}

func TestLexerNameEncodingClassification(t *testing.T) {
	tests := []struct {
		input string
		want  NameEncoding
	}{
		{"/Type", NameASCII},
		{"/H#c3#b6#c3#9fgang", NameUTF8},
		{"/H#E8lp", NameBinary},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			obj, err := lenientLexer(tt.input).NextObject()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			name, ok := obj.(Name)
			if !ok {
				t.Fatalf("expected Name, got %T", obj)
			}
			if got := name.Encoding(); got != tt.want {
				t.Errorf("encoding = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestLexerInvalidNameEscape tests the lenient and strict handling of a
// broken #XY escape
func TestLexerInvalidNameEscape(t *testing.T) {
	t.Run("lenient keeps the hash", func(t *testing.T) {
		token, err := lenientLexer("/A#ZZ").NextToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(token.Value) != "A#ZZ" {
			t.Errorf("value = %q, want %q", token.Value, "A#ZZ")
		}
	})
	t.Run("strict fails", func(t *testing.T) {
		if _, err := strictLexer("/A#ZZ").NextToken(); err == nil {
			t.Fatal("expected error, got none")
		}
	})
}

// TestLexerMalformedNumbers tests the correctable handling of malformed
// number runs
func TestLexerMalformedNumbers(t *testing.T) {
	t.Run("lenient uses the well-formed prefix", func(t *testing.T) {
		token, err := lenientLexer("12-34").NextToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token.Type != TokenInteger || string(token.Value) != "12" {
			t.Errorf("got %v %q, want Integer \"12\"", token.Type, token.Value)
		}
	})
	t.Run("lenient degrades to zero", func(t *testing.T) {
		token, err := lenientLexer("--").NextToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(token.Value) != "0" {
			t.Errorf("value = %q, want \"0\"", token.Value)
		}
	})
	t.Run("strict fails", func(t *testing.T) {
		if _, err := strictLexer("12-34").NextToken(); err == nil {
			t.Fatal("expected error, got none")
		}
	})
}

// TestLexerNextObject tests object-level parsing
func TestLexerNextObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, obj Object)
	}{
		{"null", "null", func(t *testing.T, obj Object) {
			if _, ok := obj.(Null); !ok {
				t.Errorf("expected Null, got %T", obj)
			}
		}},
		{"true", "true", func(t *testing.T, obj Object) {
			if obj != Bool(true) {
				t.Errorf("expected true, got %v", obj)
			}
		}},
		{"integer", "42", func(t *testing.T, obj Object) {
			if obj != Int(42) {
				t.Errorf("expected 42, got %v", obj)
			}
		}},
		{"big integer", "123456789012345678901234567890", func(t *testing.T, obj Object) {
			big, ok := obj.(BigInt)
			if !ok {
				t.Fatalf("expected BigInt, got %T", obj)
			}
			if big.Value.String() != "123456789012345678901234567890" {
				t.Errorf("got %v", big.Value)
			}
		}},
		{"real", "-1.5", func(t *testing.T, obj Object) {
			if obj != Real(-1.5) {
				t.Errorf("expected -1.5, got %v", obj)
			}
		}},
		{"reference", "3 0 R", func(t *testing.T, obj Object) {
			if obj != (Reference{Number: 3}) {
				t.Errorf("expected 3 0 R, got %v", obj)
			}
		}},
		{"integer not followed by R", "3 0 4", func(t *testing.T, obj Object) {
			if obj != Int(3) {
				t.Errorf("expected 3, got %v", obj)
			}
		}},
		{"array", "[1 (two) /Three]", func(t *testing.T, obj Object) {
			arr, ok := obj.(Array)
			if !ok || len(arr) != 3 {
				t.Fatalf("expected 3-element array, got %v", obj)
			}
			if arr[0] != Int(1) || arr[1] != String("two") || arr[2] != Name("Three") {
				t.Errorf("unexpected elements: %v", arr)
			}
		}},
		{"nested dict", "<</A <</B 1 2 R>>>>", func(t *testing.T, obj Object) {
			dict, ok := obj.(Dict)
			if !ok {
				t.Fatalf("expected Dict, got %T", obj)
			}
			inner, ok := dict.GetDict("A")
			if !ok {
				t.Fatalf("missing /A")
			}
			if ref, ok := inner.GetReference("B"); !ok || ref != (Reference{Number: 1, Generation: 2}) {
				t.Errorf("inner /B = %v", inner.Get("B"))
			}
		}},
		{"array of references", "[1 0 R 2 0 R]", func(t *testing.T, obj Object) {
			arr := obj.(Array)
			if len(arr) != 2 {
				t.Fatalf("len = %d, want 2", len(arr))
			}
			if arr[0] != (Reference{Number: 1}) || arr[1] != (Reference{Number: 2}) {
				t.Errorf("unexpected elements: %v", arr)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := lenientLexer(tt.input).NextObject()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, obj)
		})
	}
}

func TestLexerDictErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"non-name key", "<<1 2>>"},
		{"key without value", "<</A>>"},
		{"unterminated", "<</A 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := lenientLexer(tt.input).NextObject(); err == nil {
				t.Fatal("expected error, got none")
			}
		})
	}
}

// TestNextXRefEntry tests classic cross-reference row parsing
func TestNextXRefEntry(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantOffset int64
		wantGen    int
		wantType   byte
	}{
		{"in-use row", "0000000017 00000 n \n", 17, 0, 'n'},
		{"free row", "0000000001 65535 f \n", 1, 65535, 'f'},
		{"CR LF terminated", "0000000001 00001 n\r\n", 1, 1, 'n'},
		{"19-byte LF row", "0000000009 00000 n\n", 9, 0, 'n'},
		{"lenient whitespace-separated", "17 0 n\n", 17, 0, 'n'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := lenientLexer(tt.input).NextXRefEntry()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if row.Offset != tt.wantOffset || row.Generation != tt.wantGen || row.EntryType != tt.wantType {
				t.Errorf("got (%d, %d, %c), want (%d, %d, %c)",
					row.Offset, row.Generation, row.EntryType,
					tt.wantOffset, tt.wantGen, tt.wantType)
			}
		})
	}

	t.Run("19-byte row leaves following row intact", func(t *testing.T) {
		l := lenientLexer("0000000001 00001 n \n0000000002 00000 n \n")
		if _, err := l.NextXRefEntry(); err != nil {
			t.Fatalf("first row: %v", err)
		}
		row, err := l.NextXRefEntry()
		if err != nil {
			t.Fatalf("second row: %v", err)
		}
		if row.Offset != 2 {
			t.Errorf("second offset = %d, want 2", row.Offset)
		}
	})

	t.Run("invalid type letter is fatal in both modes", func(t *testing.T) {
		for _, cfg := range []Config{DefaultConfig(), StrictConfig()} {
			l := NewLexer(NewBytesSource([]byte("0000000001 00000 g \n")), 0, cfg)
			if _, err := l.NextXRefEntry(); err == nil {
				t.Error("expected error, got none")
			}
		}
	})

	t.Run("strict rejects loose layout", func(t *testing.T) {
		if _, err := strictLexer("17 0 n\n").NextXRefEntry(); err == nil {
			t.Fatal("expected error, got none")
		}
	})
}

func TestNextIntegerOrKeyword(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   string
	}{
		{"integer", "12 0 obj", true, "12"},
		{"keyword", "trailer", true, "trailer"},
		{"string is rejected without reading it", "(giant unterminated", false, ""},
		{"name rejected", "/Type", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, ok := lenientLexer(tt.input).NextIntegerOrKeyword()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && string(tok.Value) != tt.want {
				t.Errorf("value = %q, want %q", tok.Value, tt.want)
			}
		})
	}
}
