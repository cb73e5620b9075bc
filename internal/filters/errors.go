package filters

import "fmt"

// Error reports a stream codec failure: insufficient data, corrupt
// compressed payload, or an unknown filter name. It is a distinct type so
// callers can separate codec failures from file syntax errors.
type Error struct {
	Filter string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Filter != "" {
		return fmt.Sprintf("filter %s: %s", e.Filter, e.Msg)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// codecError creates an Error for the named filter.
func codecError(filter, format string, args ...interface{}) *Error {
	var wrapped error
	for _, a := range args {
		if err, ok := a.(error); ok {
			wrapped = err
		}
	}
	return &Error{Filter: filter, Msg: fmt.Sprintf(format, args...), Err: wrapped}
}
