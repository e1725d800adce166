package mathutil

// Fixed basis-change and axis-correction matrices between the reconstruction
// model's output space and the Z-up world space. Vertices are row vectors and
// are right-multiplied: v' = v × M. Entries are exact (0, ±1), so composing
// them never introduces rounding.
var (
	// FlipZ negates the depth axis of raw model-space vertices.
	FlipZ = Mat3Diag(1, 1, -1)

	// YUpToZUp converts Y-up to Z-up: swaps Y and Z, negates X.
	YUpToZUp = Mat3{
		-1, 0, 0,
		0, 0, 1,
		0, 1, 0,
	}

	// PyTorch3DToCam converts the PyTorch3D camera convention to camera space: diag(-1, -1, 1)
	PyTorch3DToCam = Mat3Diag(-1, -1, 1)

	// FlipY corrects upside-down output: diag(1, -1, 1)
	FlipY = Mat3Diag(1, -1, 1)

	// FlipX corrects left-right mirroring: diag(-1, 1, 1)
	FlipX = Mat3Diag(-1, 1, 1)
)
