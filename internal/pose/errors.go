package pose

import (
	"errors"
	"fmt"
)

// ErrDegeneratePose is the sentinel for any pose that cannot place a mesh:
// a zero-norm quaternion or a NaN/Inf rotation, translation or scale.
var ErrDegeneratePose = errors.New("degenerate pose")

// DegenerateError names the offending pose field.
type DegenerateError struct {
	Field  string
	Reason string
	Err    error
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("degenerate pose: %s %s", e.Field, e.Reason)
}

// Is matches ErrDegeneratePose.
func (e *DegenerateError) Is(target error) bool {
	return target == ErrDegeneratePose
}

func (e *DegenerateError) Unwrap() error { return e.Err }

// ShapeError reports an input array whose shape is not the expected one.
type ShapeError struct {
	Name string
	Want string
	Got  []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape: %s: expected %s, got %v", e.Name, e.Want, e.Got)
}
