package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowMulIsTransposedMulVec3(t *testing.T) {
	m := Mat3{1, 2, 3, 4, 5, 6, 7, 8, 10}
	v := Vec3{0.5, -2, 3}
	assert.Equal(t, m.Transpose().MulVec3(v), m.RowMul(v))
}

func TestBasisMatricesAreSignedPermutations(t *testing.T) {
	for name, m := range map[string]Mat3{
		"FlipZ":          FlipZ,
		"YUpToZUp":       YUpToZUp,
		"PyTorch3DToCam": PyTorch3DToCam,
		"FlipY":          FlipY,
		"FlipX":          FlipX,
	} {
		// Each is its own inverse.
		assert.Equal(t, Mat3Identity(), Mat3Mul(m, m), name)
	}
	assert.Equal(t, Mat3{-1, 0, 0, 0, 0, 1, 0, 1, 0}, YUpToZUp)
	assert.Equal(t, Mat3{1, 0, 0, 0, 1, 0, 0, 0, -1}, FlipZ)
	assert.Equal(t, Mat3{-1, 0, 0, 0, -1, 0, 0, 0, 1}, PyTorch3DToCam)
	assert.Equal(t, Mat3{1, 0, 0, 0, -1, 0, 0, 0, 1}, FlipY)
	assert.Equal(t, Mat3{-1, 0, 0, 0, 1, 0, 0, 0, 1}, FlipX)
}

func TestMat4Compose(t *testing.T) {
	m := Mat4Mul(Mat4Mul(Mat4Scale(Vec3{2, 2, 2}), FromMat3(Mat3Identity())), Mat4Translation(Vec3{1, 0, -1}))
	assert.Equal(t, Vec3{4, 2, 0}, m.MulPoint(Vec3{1, 1, 1}))
	assert.True(t, Mat4Identity().IsIdentity())
	assert.Equal(t, m, m.Transpose().Transpose())
}
