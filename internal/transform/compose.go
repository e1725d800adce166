// Package transform converts reconstructed mesh vertices from the model's
// output space into Z-up world space.
//
// The pipeline for every vertex is, in this exact order:
//
//	v × FlipZ × YUpToZUp                (PreChain)
//	S·R·(v + t)                         (pose, homogeneous)
//	v × PyTorch3DToCam × FlipY × FlipX  (PostChain)
package transform

import (
	"math"

	"meshpose/internal/mathutil"
	"meshpose/internal/pose"
)

// PoseMatrix validates p and builds its homogeneous transform S × R × T on a
// fresh identity accumulator.
func PoseMatrix(p pose.Pose) (*Affine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r, err := mathutil.QuatToMat3(p.Rotation)
	if err != nil {
		return nil, &pose.DegenerateError{Field: "rotation", Reason: "cannot be resolved", Err: err}
	}
	return composeMatrix(r, p.Translation, p.Scale)
}

func composeMatrix(r mathutil.Mat3, t, s mathutil.Vec3) (*Affine, error) {
	switch {
	case !r.IsFinite():
		return nil, &pose.DegenerateError{Field: "rotation", Reason: "is not finite"}
	case !t.IsFinite():
		return nil, &pose.DegenerateError{Field: "translation", Reason: "is not finite"}
	case !s.IsFinite():
		return nil, &pose.DegenerateError{Field: "scale", Reason: "is not finite"}
	}
	a := NewAffine().
		Scale(s).
		Rotate(r).
		Translate(t[0], t[1], t[2])
	if !isFinite(a.Matrix()) {
		return nil, &pose.DegenerateError{Field: "transform", Reason: "overflows"}
	}
	return a, nil
}

// Compose runs the full pipeline over verts with an already resolved rotation
// matrix and returns a new slice; the input is not modified.
func Compose(verts []mathutil.Vec3, r mathutil.Mat3, t, s mathutil.Vec3) ([]mathutil.Vec3, error) {
	a, err := composeMatrix(r, t, s)
	if err != nil {
		return nil, err
	}
	return apply(a, verts), nil
}

// TransformPoints resolves the pose rotation and runs the full pipeline over
// verts in float64.
func TransformPoints(verts []mathutil.Vec3, p pose.Pose) ([]mathutil.Vec3, error) {
	a, err := PoseMatrix(p)
	if err != nil {
		return nil, err
	}
	return apply(a, verts), nil
}

func apply(a *Affine, verts []mathutil.Vec3) []mathutil.Vec3 {
	// Batch of one for the homogeneous multiply.
	batch := [][]mathutil.Vec3{append([]mathutil.Vec3(nil), verts...)}
	PreChain.ApplyBatch(batch)
	batch = a.TransformPoints(batch)
	PostChain.ApplyBatch(batch)
	return batch[0]
}

// TransformVertices is TransformPoints for GLB float32 vertex data.
func TransformVertices(verts [][3]float32, p pose.Pose) ([][3]float32, error) {
	in := make([]mathutil.Vec3, len(verts))
	for i, v := range verts {
		in[i] = mathutil.Vec3From32(v)
	}
	world, err := TransformPoints(in, p)
	if err != nil {
		return nil, err
	}
	out := make([][3]float32, len(world))
	for i, v := range world {
		out[i] = v.Float32()
	}
	return out, nil
}

func isFinite(m mathutil.Mat4) bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
