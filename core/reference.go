package core

import "fmt"

// Reference identifies an indirect object by object number and
// generation. It is itself an object value, appearing wherever a
// dictionary or array refers to an indirect object.
type Reference struct {
	Number     int
	Generation int
}

func (r Reference) Type() ObjectType { return ObjReference }

func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// Compare orders references by object number, then generation. It
// returns -1, 0, or 1.
func (r Reference) Compare(other Reference) int {
	switch {
	case r.Number < other.Number:
		return -1
	case r.Number > other.Number:
		return 1
	case r.Generation < other.Generation:
		return -1
	case r.Generation > other.Generation:
		return 1
	default:
		return 0
	}
}

// Less reports whether r orders before other.
func (r Reference) Less(other Reference) bool {
	return r.Compare(other) < 0
}
