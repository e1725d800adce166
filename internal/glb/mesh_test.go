package glb

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quad = [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}

func TestNew_VerticesAndTriangles(t *testing.T) {
	m := New(quad, []uint32{0, 1, 2, 0, 2, 3})
	assert.Equal(t, 4, m.VertexCount())

	verts, err := m.Vertices()
	require.NoError(t, err)
	assert.Equal(t, quad, verts)

	tris, err := m.Triangles()
	require.NoError(t, err)
	assert.Equal(t, [][3]uint32{{0, 1, 2}, {0, 2, 3}}, tris)
}

func TestTriangles_NonIndexed(t *testing.T) {
	m := New(quad[:3], nil)
	tris, err := m.Triangles()
	require.NoError(t, err)
	assert.Equal(t, [][3]uint32{{0, 1, 2}}, tris)
}

func TestSetVertices(t *testing.T) {
	m := New(quad, []uint32{0, 1, 2, 0, 2, 3})
	moved := [][3]float32{{0, 0, 1}, {2, 0, 1}, {2, 2, 1}, {0, 2, 1}}
	require.NoError(t, m.SetVertices(moved))

	got, err := m.Vertices()
	require.NoError(t, err)
	assert.Equal(t, moved, got)

	err = m.SetVertices(moved[:3])
	assert.ErrorContains(t, err, "expected (4, 3), got (3, 3)")
}

func TestSetVertices_DropsNormals(t *testing.T) {
	m := New(quad, []uint32{0, 1, 2, 0, 2, 3})
	prim := m.Document().Meshes[0].Primitives[0]
	prim.Attributes[gltf.NORMAL] = prim.Attributes[gltf.POSITION]

	require.NoError(t, m.SetVertices(quad))
	_, ok := prim.Attributes[gltf.NORMAL]
	assert.False(t, ok)
}

func TestSharedAccessorCountedOnce(t *testing.T) {
	m := New(quad, []uint32{0, 1, 2})
	doc := m.Document()
	first := doc.Meshes[0].Primitives[0]
	second := &gltf.Primitive{
		Attributes: map[string]uint32{gltf.POSITION: first.Attributes[gltf.POSITION]},
		Indices:    first.Indices,
	}
	doc.Meshes[0].Primitives = append(doc.Meshes[0].Primitives, second)

	m2, err := fromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, 4, m2.VertexCount())

	require.NoError(t, m2.SetVertices(quad))
	assert.Equal(t, first.Attributes[gltf.POSITION], second.Attributes[gltf.POSITION])
}

func TestEncodeDecodeAndExport(t *testing.T) {
	m := New(quad, []uint32{0, 1, 2, 0, 2, 3})

	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))
	assert.Equal(t, "glTF", buf.String()[:4])

	back, err := Decode(&buf)
	require.NoError(t, err)
	verts, err := back.Vertices()
	require.NoError(t, err)
	assert.Equal(t, quad, verts)

	path := filepath.Join(t.TempDir(), "out", "mesh.glb")
	require.NoError(t, m.Export(path))
	loaded, err := Load(path)
	require.NoError(t, err)

	st, err := loaded.Stats()
	require.NoError(t, err)
	assert.Equal(t, 4, st.Vertices)
	assert.Equal(t, 2, st.Triangles)
	assert.Equal(t, 1, st.Primitives)
	assert.Equal(t, [3]float64{0, 0, 0}, st.Min)
	assert.Equal(t, [3]float64{1, 1, 0}, st.Max)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.glb"))
	assert.ErrorContains(t, err, "nope.glb")
}

func TestSetVertices_RewritesInPlace(t *testing.T) {
	m := New(quad, []uint32{0, 1, 2, 0, 2, 3})
	doc := m.Document()
	accessors := len(doc.Accessors)
	views := len(doc.BufferViews)
	size := len(doc.Buffers[0].Data)

	moved := [][3]float32{{-1, 0, 2}, {3, 0, 2}, {3, 5, 2}, {-1, 5, 2}}
	require.NoError(t, m.SetVertices(moved))
	assert.Len(t, doc.Accessors, accessors)
	assert.Len(t, doc.BufferViews, views)
	assert.Len(t, doc.Buffers[0].Data, size)

	acr := doc.Accessors[doc.Meshes[0].Primitives[0].Attributes[gltf.POSITION]]
	assert.Equal(t, []float32{-1, 0, 2}, acr.Min)
	assert.Equal(t, []float32{3, 5, 2}, acr.Max)

	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))
	back, err := Decode(&buf)
	require.NoError(t, err)
	got, err := back.Vertices()
	require.NoError(t, err)
	assert.Equal(t, moved, got)
}

func TestSetVertices_InterleavedKeepsOtherAttributes(t *testing.T) {
	doc := gltf.NewDocument()
	normals := [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	attrs, err := modeler.WriteAttributesInterleaved(doc, modeler.Attributes{Position: quad, Normal: normals})
	require.NoError(t, err)
	doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{{Attributes: attrs}}}}

	m, err := fromDocument(doc)
	require.NoError(t, err)
	normalIdx := attrs[gltf.NORMAL]
	size := len(doc.Buffers[0].Data)

	moved := [][3]float32{{9, 9, 9}, {8, 8, 8}, {7, 7, 7}, {6, 6, 6}}
	require.NoError(t, m.SetVertices(moved))
	assert.Len(t, doc.Buffers[0].Data, size)

	got, err := m.Vertices()
	require.NoError(t, err)
	assert.Equal(t, moved, got)

	// The normal bytes between positions are untouched.
	n, err := modeler.ReadNormal(doc, doc.Accessors[normalIdx], nil)
	require.NoError(t, err)
	assert.Equal(t, normals, n)
}
