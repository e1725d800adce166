package mathutil

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateQuaternion is returned when a quaternion has a zero, subnormal
// or non-finite norm and therefore resolves to no usable rotation.
var ErrDegenerateQuaternion = errors.New("degenerate quaternion")

// Quat represents a quaternion with the real part first: (w, x, y, z).
// It is not assumed to be unit length.
type Quat [4]float64

// QuatIdentity returns the identity rotation (1, 0, 0, 0).
func QuatIdentity() Quat {
	return Quat{1, 0, 0, 0}
}

// AxisAngleQuat returns the unit quaternion rotating by angle (radians) about axis.
func AxisAngleQuat(axis Vec3, angle float64) Quat {
	a := axis.Normalize()
	s, c := math.Sincos(angle / 2)
	return Quat{c, a[0] * s, a[1] * s, a[2] * s}
}

// NormSq returns w²+x²+y²+z².
func (q Quat) NormSq() float64 {
	return q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3]
}

// IsFinite reports whether every component is neither NaN nor ±Inf.
func (q Quat) IsFinite() bool {
	for _, c := range q {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// QuatToMat3 converts a quaternion to a 3×3 rotation matrix.
//
// The 2/|q|² factor makes the result a proper rotation for any non-zero q,
// so no separate normalization (and no square root) is needed.
func QuatToMat3(q Quat) (Mat3, error) {
	if !q.IsFinite() {
		return Mat3{}, ErrDegenerateQuaternion
	}
	n := q.NormSq()
	if n == 0 || math.IsInf(n, 0) {
		return Mat3{}, ErrDegenerateQuaternion
	}
	twoS := 2.0 / n
	if math.IsInf(twoS, 0) {
		// Subnormal norm: 2/n overflows and every entry would be NaN.
		return Mat3{}, ErrDegenerateQuaternion
	}

	w, x, y, z := q[0], q[1], q[2], q[3]
	return Mat3{
		1 - twoS*(y*y+z*z), twoS * (x*y - z*w), twoS * (x*z + y*w),
		twoS * (x*y + z*w), 1 - twoS*(x*x+z*z), twoS * (y*z - x*w),
		twoS * (x*z - y*w), twoS * (y*z + x*w), 1 - twoS*(x*x+y*y),
	}, nil
}

// QuatsToMat3s is the batched form of QuatToMat3. It fails on the first
// degenerate quaternion and reports its index.
func QuatsToMat3s(qs []Quat) ([]Mat3, error) {
	out := make([]Mat3, len(qs))
	for i, q := range qs {
		m, err := QuatToMat3(q)
		if err != nil {
			return nil, &BatchError{Index: i, Err: err}
		}
		out[i] = m
	}
	return out, nil
}

// BatchError locates a failure inside a batched operation.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch element %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
