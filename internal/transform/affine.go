package transform

import "meshpose/internal/mathutil"

// Affine accumulates a homogeneous 4×4 transform. Each call right-multiplies
// an elementary matrix onto the accumulator, so Scale().Rotate().Translate()
// yields M = S × R × T and a point p maps to S·R·(p + t).
type Affine struct {
	m mathutil.Mat4
}

// NewAffine returns an accumulator initialized to identity.
func NewAffine() *Affine {
	return &Affine{m: mathutil.Mat4Identity()}
}

func (a *Affine) Scale(s mathutil.Vec3) *Affine {
	a.m = mathutil.Mat4Mul(a.m, mathutil.Mat4Scale(s))
	return a
}

func (a *Affine) Rotate(r mathutil.Mat3) *Affine {
	a.m = mathutil.Mat4Mul(a.m, mathutil.FromMat3(r))
	return a
}

func (a *Affine) Translate(x, y, z float64) *Affine {
	a.m = mathutil.Mat4Mul(a.m, mathutil.Mat4Translation(mathutil.Vec3{x, y, z}))
	return a
}

// Matrix returns the accumulated transform.
func (a *Affine) Matrix() mathutil.Mat4 {
	return a.m
}

// TransformPoint lifts p to [x y z 1], multiplies by Mᵀ and drops the last coordinate.
func (a *Affine) TransformPoint(p mathutil.Vec3) mathutil.Vec3 {
	return a.m.MulPoint(p)
}

// TransformPoints applies the transform to a B×N batch of points and returns
// a new batch of the same shape.
func (a *Affine) TransformPoints(batch [][]mathutil.Vec3) [][]mathutil.Vec3 {
	out := make([][]mathutil.Vec3, len(batch))
	for b, pts := range batch {
		dst := make([]mathutil.Vec3, len(pts))
		for i, p := range pts {
			dst[i] = a.m.MulPoint(p)
		}
		out[b] = dst
	}
	return out
}
