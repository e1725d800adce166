package transform

import "meshpose/internal/mathutil"

// Chain is an ordered list of fixed basis matrices. Points are row vectors
// and are right-multiplied by each matrix in turn; order matters.
type Chain []mathutil.Mat3

var (
	// PreChain moves raw model-space vertices into the frame the pose is expressed in.
	PreChain = Chain{mathutil.FlipZ, mathutil.YUpToZUp}

	// PostChain moves posed vertices into the Z-up world frame.
	PostChain = Chain{mathutil.PyTorch3DToCam, mathutil.FlipY, mathutil.FlipX}
)

// Apply returns v × M₀ × M₁ × … evaluated one step at a time.
func (c Chain) Apply(v mathutil.Vec3) mathutil.Vec3 {
	for _, m := range c {
		v = m.RowMul(v)
	}
	return v
}

// ApplyBatch applies the chain to every point of a B×N batch in place.
func (c Chain) ApplyBatch(batch [][]mathutil.Vec3) {
	for _, pts := range batch {
		for i := range pts {
			pts[i] = c.Apply(pts[i])
		}
	}
}

// Matrix folds the chain into a single matrix: M₀ × M₁ × ….
func (c Chain) Matrix() mathutil.Mat3 {
	m := mathutil.Mat3Identity()
	for _, s := range c {
		m = mathutil.Mat3Mul(m, s)
	}
	return m
}
