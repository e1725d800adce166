package preview

import (
	"math"

	"meshpose/internal/mathutil"
)

// light holds precomputed lighting parameters in view space.
type light struct {
	dir      mathutil.Vec3
	rimDir   mathutil.Vec3
	half     mathutil.Vec3 // Blinn-Phong half vector
	ambient  float64
	hemi     float64
	direct   float64
	rim      float64
	specInt  float64
	specPow  float64
	exposure float64
	invGamma float64
}

func defaultLight() light {
	dir := mathutil.Vec3{0.45, 0.65, 0.6}.Normalize()
	view := mathutil.Vec3{0, 0, 1}
	return light{
		dir:      dir,
		rimDir:   mathutil.Vec3{-0.4, 0.3, -0.5}.Normalize(),
		half:     dir.Add(view).Normalize(),
		ambient:  0.35,
		hemi:     0.35,
		direct:   1.2,
		rim:      0.4,
		specInt:  0.3,
		specPow:  16,
		exposure: 1.0,
		invGamma: 1 / 2.2,
	}
}

// shade returns the combined lighting scalar for a unit face normal.
func (l *light) shade(n mathutil.Vec3) float64 {
	// Lambertian (abs for double-sided)
	ndl := math.Abs(n.Dot(l.dir))
	ndlRim := math.Abs(n.Dot(l.rimDir))
	hemi := (1.0-math.Abs(n[1]))*0.5 + 0.5
	ndh := math.Abs(n.Dot(l.half))
	spec := math.Pow(ndh, l.specPow) * l.specInt
	return l.ambient + hemi*l.hemi + ndl*l.direct + ndlRim*l.rim + spec
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// acesTonemap applies ACES Filmic tone mapping to a linear value.
func acesTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
