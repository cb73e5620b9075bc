package core

import "fmt"

// MalformedError reports a syntax or structure problem in the parsed
// file. Offset is the byte position the problem was detected at, or -1
// when no position applies.
type MalformedError struct {
	Offset int64
	Msg    string
}

func (e *MalformedError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("malformed PDF: %s", e.Msg)
	}
	return fmt.Sprintf("malformed PDF at offset %d: %s", e.Offset, e.Msg)
}

// NewMalformedError creates a MalformedError at the given offset. Pass
// -1 when no byte position applies.
func NewMalformedError(offset int64, format string, args ...interface{}) *MalformedError {
	return &MalformedError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// UsageError reports incorrect use of the API rather than a problem
// with the input data.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

// NewUsageError creates a UsageError.
func NewUsageError(format string, args ...interface{}) *UsageError {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}
