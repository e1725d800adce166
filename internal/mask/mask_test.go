package mask

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshpose/internal/imageio"
)

// rawNPY assembles a version 1.0 .npy stream by hand.
func rawNPY(descr string, fortran bool, shape string, data []byte) []byte {
	order := "False"
	if fortran {
		order = "True"
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': %s, }", descr, order, shape)
	pad := 64 - (10+len(header)+1)%64
	header += strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	buf.Write(data)
	return buf.Bytes()
}

func TestWriteReadNPY_RoundTrip(t *testing.T) {
	m := New(3, 2)
	m.Set(0, 0, true)
	m.Set(2, 1, true)

	var buf bytes.Buffer
	require.NoError(t, WriteNPY(&buf, m))

	got, err := ReadNPY(&buf)
	require.NoError(t, err)
	assert.Equal(t, m, got)
	assert.Equal(t, 2, got.Count())
}

func TestReadNPY_TrailingChannel(t *testing.T) {
	data := rawNPY("|u1", false, "(2, 3, 1)", []byte{0, 7, 0, 0, 0, 255})
	m, err := ReadNPY(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 3, m.Width)
	assert.Equal(t, 2, m.Height)
	assert.Equal(t, []bool{false, true, false, false, false, true}, m.Bits)
}

func TestReadNPY_FortranOrder(t *testing.T) {
	// 2×3 column-major: columns (1,0), (0,0), (0,1)
	data := rawNPY("|u1", true, "(2, 3)", []byte{1, 0, 0, 0, 0, 1})
	m, err := ReadNPY(bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, m.At(0, 0))
	assert.True(t, m.At(2, 1))
	assert.Equal(t, 2, m.Count())
}

func TestReadNPY_FloatThresholdAtZero(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, npyio.Write(&buf, []float32{-1, 0, 0.25, 3}))
	m, err := ReadNPY(&buf)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true, true}, m.Bits)
}

func TestReadNPY_Rejects3D(t *testing.T) {
	data := rawNPY("|u1", false, "(2, 2, 2)", make([]byte, 8))
	_, err := ReadNPY(bytes.NewReader(data))
	assert.ErrorContains(t, err, "expected a 2-D mask")
}

func TestLoad_ImageMask(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 3))
	g.SetGray(1, 2, color.Gray{Y: 1})
	path := filepath.Join(t.TempDir(), "mask.png")
	require.NoError(t, imageio.SavePNG(path, g))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count())
	assert.True(t, m.At(1, 2))
	assert.NoError(t, m.CheckBounds(image.Rect(0, 0, 4, 3)))
	assert.ErrorContains(t, m.CheckBounds(image.Rect(0, 0, 3, 4)), "does not match image")
	assert.Equal(t, uint8(255), m.Image().GrayAt(1, 2).Y)
}

func TestLoad_NPYFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.npy")
	require.NoError(t, os.WriteFile(path, rawNPY("|b1", false, "(1, 2)", []byte{1, 0}), 0644))
	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, m.Bits)

	_, err = Load(filepath.Join(t.TempDir(), "gone.npy"))
	assert.ErrorContains(t, err, "gone.npy")
}

func TestWriteNPY_Empty(t *testing.T) {
	assert.Error(t, WriteNPY(&bytes.Buffer{}, New(0, 0)))
}

func TestRemoveSmallClusters(t *testing.T) {
	m := New(8, 8)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			m.Set(x, y, true)
		}
	}
	m.Set(7, 7, true)
	m.Set(6, 6, true) // diagonal neighbour joins the same island

	assert.Equal(t, 0, m.RemoveSmallClusters(0), "disabled")
	assert.Equal(t, 18, m.Count())

	assert.Equal(t, 2, m.RemoveSmallClusters(0.2))
	assert.Equal(t, 16, m.Count())
	assert.False(t, m.At(7, 7))
	assert.True(t, m.At(3, 3))

	assert.Equal(t, 0, m.RemoveSmallClusters(0.9), "single island is kept")
}

func TestReadNPY_Bool(t *testing.T) {
	data := rawNPY("|b1", false, "(2, 2)", []byte{1, 0, 0, 1})
	m, err := ReadNPY(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, true}, m.Bits)
}

func TestReadNPY_ShortData(t *testing.T) {
	for _, descr := range []string{"|b1", "|u1"} {
		data := rawNPY(descr, false, "(2, 3)", []byte{1, 0, 1})
		_, err := ReadNPY(bytes.NewReader(data))
		assert.Error(t, err, descr)
	}
}
