// Package mask loads binary segmentation masks. A mask may be stored as a
// NumPy .npy array (bool, integer or float) or as an image; either way every
// value greater than zero is foreground.
package mask

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"meshpose/internal/imageio"
)

// Mask is a row-major H×W boolean grid.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// New allocates an empty mask.
func New(w, h int) *Mask {
	return &Mask{Width: w, Height: h, Bits: make([]bool, w*h)}
}

// At reports whether pixel (x, y) is foreground.
func (m *Mask) At(x, y int) bool {
	return m.Bits[y*m.Width+x]
}

// Set marks pixel (x, y).
func (m *Mask) Set(x, y int, v bool) {
	m.Bits[y*m.Width+x] = v
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Bounds returns the mask rectangle anchored at the origin.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// CheckBounds verifies the mask covers exactly the image rectangle r.
func (m *Mask) CheckBounds(r image.Rectangle) error {
	if m.Width != r.Dx() || m.Height != r.Dy() {
		return fmt.Errorf("mask: shape (%d, %d) does not match image (%d, %d)", m.Height, m.Width, r.Dy(), r.Dx())
	}
	return nil
}

// Image renders the mask as an 8-bit gray image (255 foreground, 0 background).
func (m *Mask) Image() *image.Gray {
	g := image.NewGray(m.Bounds())
	for i, b := range m.Bits {
		if b {
			g.Pix[i] = 255
		}
	}
	return g
}

// Load reads a mask from .npy or from any image format imageio understands.
func Load(path string) (*Mask, error) {
	if strings.EqualFold(filepath.Ext(path), ".npy") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("mask: read %s: %w", path, err)
		}
		defer f.Close()
		m, err := ReadNPY(f)
		if err != nil {
			return nil, fmt.Errorf("mask: %s: %w", path, err)
		}
		return m, nil
	}

	img, _, err := imageio.Load(path)
	if err != nil {
		return nil, fmt.Errorf("mask: %w", err)
	}
	return FromImage(img), nil
}

// FromImage thresholds an image: a pixel is foreground when its gray level is above zero.
func FromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := New(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			m.Set(x-b.Min.X, y-b.Min.Y, g.Y > 0)
		}
	}
	return m
}
