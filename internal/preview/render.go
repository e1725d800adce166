// Package preview renders a flat-shaded orthographic snapshot of a mesh and
// encodes it as WebP. World space is Z-up; the default camera sits on -Y.
package preview

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-gl/mathgl/mgl64"

	"meshpose/internal/mathutil"
)

// Options controls the camera and output size.
type Options struct {
	Size        int     // output edge in pixels
	Supersample int     // render scale before downsampling
	Azimuth     float64 // degrees around +Z, 0 looks from -Y
	Elevation   float64 // degrees above the XY plane
	Margin      int     // border in output pixels
}

// DefaultOptions returns a 512px front view with 2x supersampling.
func DefaultOptions() Options {
	return Options{Size: 512, Supersample: 2, Elevation: 15, Margin: 16}
}

var baseColor = [3]uint8{160, 160, 170}

// ErrEmpty is returned when there is nothing to draw.
var ErrEmpty = errors.New("preview: mesh has no triangles")

// View builds the camera matrix looking at center from the given angles.
func (o Options) View(center mathutil.Vec3, dist float64) mgl64.Mat4 {
	az := mgl64.DegToRad(o.Azimuth)
	el := mgl64.DegToRad(o.Elevation)
	dir := mgl64.Vec3{
		math.Cos(el) * math.Sin(az),
		-math.Cos(el) * math.Cos(az),
		math.Sin(el),
	}
	c := mgl64.Vec3{center[0], center[1], center[2]}
	eye := c.Add(dir.Mul(dist))
	return mgl64.LookAtV(eye, c, mgl64.Vec3{0, 0, 1})
}

// Render rasterizes the triangles and returns an image of o.Size pixels.
func Render(verts [][3]float32, tris [][3]uint32, o Options) (*image.NRGBA, error) {
	if len(tris) == 0 || len(verts) == 0 {
		return nil, ErrEmpty
	}
	if o.Size <= 0 {
		return nil, fmt.Errorf("preview: invalid size %d", o.Size)
	}
	ss := o.Supersample
	if ss < 1 {
		ss = 1
	}
	for _, t := range tris {
		for _, i := range t {
			if int(i) >= len(verts) {
				return nil, fmt.Errorf("preview: triangle index %d out of range (%d vertices)", i, len(verts))
			}
		}
	}

	lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range verts {
		for k := 0; k < 3; k++ {
			f := float64(v[k])
			lo[k] = math.Min(lo[k], f)
			hi[k] = math.Max(hi[k], f)
		}
	}
	center := lo.Add(hi).Scale(0.5)
	radius := hi.Sub(lo).Len() / 2
	if radius < 1e-6 {
		radius = 1e-6
	}
	view := o.View(center, radius*3)

	// View space: x right, y up, camera looking down -z.
	pts := make([]mathutil.Vec3, len(verts))
	spanX, spanY := 0.0, 0.0
	for i, v := range verts {
		p := mgl64.TransformCoordinate(mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}, view)
		pts[i] = mathutil.Vec3{p[0], p[1], p[2]}
		spanX = math.Max(spanX, math.Abs(p[0]))
		spanY = math.Max(spanY, math.Abs(p[1]))
	}
	span := 2 * math.Max(spanX, spanY)
	if span < 1e-3 {
		span = 1e-3
	}

	size := o.Size * ss
	margin := o.Margin * ss
	if 2*margin >= size {
		margin = 0
	}
	scale := float64(size-2*margin) / span
	half := float64(size) / 2

	screen := make([]mathutil.Vec3, len(pts))
	for i, p := range pts {
		screen[i] = mathutil.Vec3{half + p[0]*scale, half - p[1]*scale, p[2]}
	}

	fb := newFrameBuffer(size)
	l := defaultLight()
	for _, t := range tris {
		a, b, c := pts[t[0]], pts[t[1]], pts[t[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Len() < 1e-12 {
			continue
		}
		rasterize(fb, [3]mathutil.Vec3{screen[t[0]], screen[t[1]], screen[t[2]]}, n.Normalize(), baseColor, &l)
	}

	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	copy(img.Pix, fb.color)
	return downsample(img, o.Size), nil
}

// WriteWebP encodes img losslessly to path, creating the parent directory.
func WriteWebP(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("preview: mkdir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preview: create %s: %w", path, err)
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("preview: encode %s: %w", path, err)
	}
	return f.Close()
}
