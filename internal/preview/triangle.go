package preview

import (
	"math"

	"meshpose/internal/mathutil"
)

// rasterize fills one flat-shaded triangle with a z-buffer test.
// p holds screen x, screen y and view depth per vertex; n is the face normal.
func rasterize(fb *frameBuffer, p [3]mathutil.Vec3, n mathutil.Vec3, base [3]uint8, l *light) {
	x0, y0, z0 := p[0][0], p[0][1], p[0][2]
	x1, y1, z1 := p[1][0], p[1][1], p[1][2]
	x2, y2, z2 := p[2][0], p[2][1], p[2][2]

	size := fb.size
	minX := int(math.Min(math.Min(x0, x1), x2))
	maxX := int(math.Max(math.Max(x0, x1), x2)) + 1
	minY := int(math.Min(math.Min(y0, y1), y2))
	maxY := int(math.Max(math.Max(y0, y1), y2)) + 1
	if minX < 0 {
		minX = 0
	}
	if maxX >= size {
		maxX = size - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= size {
		maxY = size - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	// Per-face color: sRGB decode, shade, tone map, encode.
	s := l.shade(n) * l.exposure
	var rgb [3]uint8
	for c := 0; c < 3; c++ {
		lin := acesTonemap(srgbToLinear[base[c]] * s)
		rgb[c] = clamp255(math.Pow(lin, l.invGamma) * 255)
	}

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * size
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.zbuf[zIdx] {
				continue
			}
			fb.zbuf[zIdx] = z

			px := zIdx * 4
			fb.color[px] = rgb[0]
			fb.color[px+1] = rgb[1]
			fb.color[px+2] = rgb[2]
			fb.color[px+3] = 255
		}
	}
}
