package mask

import (
	"fmt"
	"io"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// ReadNPY decodes a 2-D array (or one with extra size-1 dimensions, such as
// H×W×1) and thresholds it at zero.
func ReadNPY(r io.Reader) (*Mask, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("npy: %w", err)
	}

	var dims []int
	for _, d := range nr.Header.Descr.Shape {
		if d != 1 {
			dims = append(dims, d)
		}
	}
	var h, w int
	switch len(dims) {
	case 0:
		h, w = 1, 1
	case 1:
		// A single row or column; keep the original orientation.
		h, w = 1, dims[0]
		if len(nr.Header.Descr.Shape) >= 2 && nr.Header.Descr.Shape[1] == 1 {
			h, w = dims[0], 1
		}
	case 2:
		h, w = dims[0], dims[1]
	default:
		return nil, fmt.Errorf("npy: expected a 2-D mask, got shape %v", nr.Header.Descr.Shape)
	}

	vals, err := readPositive(nr, h*w)
	if err != nil {
		return nil, err
	}

	m := New(w, h)
	for i, v := range vals {
		if nr.Header.Descr.Fortran {
			// Column-major: element i is (row i%h, col i/h).
			m.Set(i/h, i%h, v)
		} else {
			m.Bits[i] = v
		}
	}
	return m, nil
}

type number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

func positive[T number](nr *npyio.Reader, out []bool) error {
	var v []T
	if err := nr.Read(&v); err != nil {
		return err
	}
	if len(v) < len(out) {
		return fmt.Errorf("short data: %d of %d values", len(v), len(out))
	}
	var zero T
	for i := range out {
		out[i] = v[i] > zero
	}
	return nil
}

// readPositive reads n elements of any supported dtype as value > 0.
func readPositive(nr *npyio.Reader, n int) ([]bool, error) {
	out := make([]bool, n)
	var err error
	switch nr.Header.Descr.Type {
	case "|b1", "b1", "?":
		var v []bool
		if err = nr.Read(&v); err == nil {
			if len(v) < len(out) {
				err = fmt.Errorf("short data: %d of %d values", len(v), len(out))
			} else {
				copy(out, v)
			}
		}
	case "|u1", "u1":
		err = positive[uint8](nr, out)
	case "|i1", "i1":
		err = positive[int8](nr, out)
	case "<u2":
		err = positive[uint16](nr, out)
	case "<i2":
		err = positive[int16](nr, out)
	case "<u4":
		err = positive[uint32](nr, out)
	case "<i4":
		err = positive[int32](nr, out)
	case "<u8":
		err = positive[uint64](nr, out)
	case "<i8":
		err = positive[int64](nr, out)
	case "<f4":
		err = positive[float32](nr, out)
	case "<f8":
		err = positive[float64](nr, out)
	default:
		return nil, fmt.Errorf("npy: unsupported dtype %q", nr.Header.Descr.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("npy: read data: %w", err)
	}
	return out, nil
}

// WriteNPY writes the mask as an H×W float64 array of 0 and 1, the form the
// reconstruction model thresholds at zero.
func WriteNPY(w io.Writer, m *Mask) error {
	if m.Width == 0 || m.Height == 0 {
		return fmt.Errorf("npy: write: empty mask (%d, %d)", m.Height, m.Width)
	}
	data := make([]float64, len(m.Bits))
	for i, b := range m.Bits {
		if b {
			data[i] = 1
		}
	}
	if err := npyio.Write(w, mat.NewDense(m.Height, m.Width, data)); err != nil {
		return fmt.Errorf("npy: write: %w", err)
	}
	return nil
}
