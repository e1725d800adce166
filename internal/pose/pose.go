package pose

import (
	"math"

	"meshpose/internal/mathutil"
)

// Pose places a reconstructed mesh in the scene. It is produced once per mesh
// and consumed once; reapplying it is not idempotent.
type Pose struct {
	Rotation    mathutil.Quat // (w, x, y, z), not necessarily unit length
	Translation mathutil.Vec3
	Scale       mathutil.Vec3
}

// Identity returns the pose that leaves model-space vertices unchanged.
func Identity() Pose {
	return Pose{
		Rotation: mathutil.QuatIdentity(),
		Scale:    mathutil.Vec3{1, 1, 1},
	}
}

// New builds a Pose from flat component slices. scale may hold one value,
// which is broadcast to all three axes, or three.
func New(rotation, translation, scale []float64) (Pose, error) {
	if len(rotation) != 4 {
		return Pose{}, &ShapeError{Name: "rotation", Want: "(4,)", Got: []int{len(rotation)}}
	}
	if len(translation) != 3 {
		return Pose{}, &ShapeError{Name: "translation", Want: "(3,)", Got: []int{len(translation)}}
	}

	var p Pose
	copy(p.Rotation[:], rotation)
	copy(p.Translation[:], translation)

	switch len(scale) {
	case 1:
		p.Scale = mathutil.Vec3{scale[0], scale[0], scale[0]}
	case 3:
		copy(p.Scale[:], scale)
	default:
		return Pose{}, &ShapeError{Name: "scale", Want: "(1,) or (3,)", Got: []int{len(scale)}}
	}
	return p, nil
}

// Validate rejects poses that would silently corrupt geometry.
func (p Pose) Validate() error {
	if !p.Rotation.IsFinite() {
		return &DegenerateError{Field: "rotation", Reason: "is not finite"}
	}
	if n := p.Rotation.NormSq(); n == 0 || math.IsInf(n, 0) || math.IsInf(2/n, 0) {
		return &DegenerateError{Field: "rotation", Reason: "has zero, subnormal or overflowing norm", Err: mathutil.ErrDegenerateQuaternion}
	}
	if !p.Translation.IsFinite() {
		return &DegenerateError{Field: "translation", Reason: "is not finite"}
	}
	if !p.Scale.IsFinite() {
		return &DegenerateError{Field: "scale", Reason: "is not finite"}
	}
	return nil
}
