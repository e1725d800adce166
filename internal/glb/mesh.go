// Package glb reads and writes binary glTF meshes and exposes their vertex
// positions as one flat, ordered vertex set.
package glb

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// span maps one POSITION accessor onto a range of the flat vertex set.
// Primitives that share an accessor share its span.
type span struct {
	accessor uint32
	offset   int
	count    int
}

// Mesh wraps a glTF document. Vertices are read from and written to every
// POSITION accessor referenced by a mesh primitive, in document order.
type Mesh struct {
	doc   *gltf.Document
	spans []span
	total int
}

// New builds a single-primitive triangle mesh from positions and indices.
// A nil indices slice means non-indexed triangles.
func New(verts [][3]float32, indices []uint32) *Mesh {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "meshpose"

	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION: modeler.WritePosition(doc, verts),
		},
	}
	if indices != nil {
		prim.Indices = gltf.Index(modeler.WriteIndices(doc, indices))
	}
	doc.Meshes = []*gltf.Mesh{{Name: "mesh", Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	m, _ := fromDocument(doc)
	return m
}

// Load opens a .glb or .gltf file.
func Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("glb: open %s: %w", path, err)
	}
	m, err := fromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("glb: %s: %w", path, err)
	}
	return m, nil
}

// Decode reads a self-contained glTF or GLB stream.
func Decode(r io.Reader) (*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("glb: decode: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc *gltf.Document) (*Mesh, error) {
	m := &Mesh{doc: doc}
	seen := make(map[uint32]bool)
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			idx, ok := prim.Attributes[gltf.POSITION]
			if !ok || seen[idx] {
				continue
			}
			if int(idx) >= len(doc.Accessors) {
				return nil, fmt.Errorf("POSITION accessor %d out of range", idx)
			}
			seen[idx] = true
			n := int(doc.Accessors[idx].Count)
			m.spans = append(m.spans, span{accessor: idx, offset: m.total, count: n})
			m.total += n
		}
	}
	return m, nil
}

// Document exposes the underlying glTF document.
func (m *Mesh) Document() *gltf.Document {
	return m.doc
}

// VertexCount returns N, the size of the flat vertex set.
func (m *Mesh) VertexCount() int {
	return m.total
}

// Vertices returns a copy of every vertex position.
func (m *Mesh) Vertices() ([][3]float32, error) {
	out := make([][3]float32, 0, m.total)
	for _, s := range m.spans {
		pos, err := modeler.ReadPosition(m.doc, m.doc.Accessors[s.accessor], nil)
		if err != nil {
			return nil, fmt.Errorf("glb: read positions (accessor %d): %w", s.accessor, err)
		}
		out = append(out, pos...)
	}
	return out, nil
}

// SetVertices replaces every vertex position. The count must equal
// VertexCount. Float positions are rewritten in place so no stale copy stays
// in the buffer; other layouts get a new accessor. Normals and tangents no
// longer match the new positions and are dropped from the affected primitives.
func (m *Mesh) SetVertices(verts [][3]float32) error {
	if len(verts) != m.total {
		return fmt.Errorf("glb: set vertices: expected (%d, 3), got (%d, 3)", m.total, len(verts))
	}

	remap := make(map[uint32]uint32, len(m.spans))
	for i, s := range m.spans {
		chunk := verts[s.offset : s.offset+s.count]
		if m.overwrite(s.accessor, chunk) {
			remap[s.accessor] = s.accessor
			continue
		}
		// Quantized or sparse storage cannot hold float positions in place.
		idx := modeler.WritePosition(m.doc, append([][3]float32(nil), chunk...))
		remap[s.accessor] = idx
		m.spans[i].accessor = idx
	}

	for _, mesh := range m.doc.Meshes {
		for _, prim := range mesh.Primitives {
			idx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			prim.Attributes[gltf.POSITION] = remap[idx]
			delete(prim.Attributes, gltf.NORMAL)
			delete(prim.Attributes, gltf.TANGENT)
		}
	}
	return nil
}

// overwrite stores verts in the existing bytes of a float32 VEC3 accessor,
// honouring the buffer view stride, and refreshes its bounds. It reports
// false when the accessor cannot be rewritten in place.
func (m *Mesh) overwrite(idx uint32, verts [][3]float32) bool {
	acr := m.doc.Accessors[idx]
	if acr.BufferView == nil || acr.Sparse != nil || acr.Normalized ||
		acr.ComponentType != gltf.ComponentFloat || acr.Type != gltf.AccessorVec3 ||
		int(acr.Count) != len(verts) || len(verts) == 0 {
		return false
	}
	if int(*acr.BufferView) >= len(m.doc.BufferViews) {
		return false
	}
	bv := m.doc.BufferViews[*acr.BufferView]
	if int(bv.Buffer) >= len(m.doc.Buffers) {
		return false
	}
	data := m.doc.Buffers[bv.Buffer].Data

	stride := int(bv.ByteStride)
	if stride == 0 {
		stride = 12
	}
	start := int(bv.ByteOffset) + int(acr.ByteOffset)
	end := start + (len(verts)-1)*stride + 12
	if stride < 12 || end > int(bv.ByteOffset)+int(bv.ByteLength) || end > len(data) {
		return false
	}

	lo := []float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi := []float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for i, v := range verts {
		off := start + i*stride
		for k := 0; k < 3; k++ {
			binary.LittleEndian.PutUint32(data[off+4*k:], math.Float32bits(v[k]))
			lo[k] = min(lo[k], v[k])
			hi[k] = max(hi[k], v[k])
		}
	}
	acr.Min, acr.Max = lo, hi
	return true
}

// Triangles returns every triangle as indices into the flat vertex set.
// Non-triangle primitives are skipped.
func (m *Mesh) Triangles() ([][3]uint32, error) {
	offsets := make(map[uint32]int, len(m.spans))
	for _, s := range m.spans {
		offsets[s.accessor] = s.offset
	}

	var tris [][3]uint32
	for _, mesh := range m.doc.Meshes {
		for _, prim := range mesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			base := uint32(offsets[posIdx])

			var indices []uint32
			if prim.Indices != nil {
				var err error
				indices, err = modeler.ReadIndices(m.doc, m.doc.Accessors[*prim.Indices], nil)
				if err != nil {
					return nil, fmt.Errorf("glb: read indices: %w", err)
				}
			} else {
				// If no indices are provided, generate linear indices (0, 1, 2, ...)
				indices = make([]uint32, m.doc.Accessors[posIdx].Count)
				for k := range indices {
					indices[k] = uint32(k)
				}
			}
			for i := 0; i+2 < len(indices); i += 3 {
				tris = append(tris, [3]uint32{base + indices[i], base + indices[i+1], base + indices[i+2]})
			}
		}
	}
	return tris, nil
}

// Export writes the mesh as binary glTF, creating the parent directory.
func (m *Mesh) Export(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("glb: mkdir for %s: %w", path, err)
		}
	}
	if err := gltf.SaveBinary(m.doc, path); err != nil {
		return fmt.Errorf("glb: save %s: %w", path, err)
	}
	return nil
}

// Encode writes the mesh as binary glTF to w.
func (m *Mesh) Encode(w io.Writer) error {
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return enc.Encode(m.doc)
}

// Stats summarizes a mesh for inspection.
type Stats struct {
	Meshes     int        `json:"meshes"`
	Primitives int        `json:"primitives"`
	Vertices   int        `json:"vertices"`
	Triangles  int        `json:"triangles"`
	Min        [3]float64 `json:"min"`
	Max        [3]float64 `json:"max"`
}

// Stats computes counts and the axis-aligned bounds of all vertices.
func (m *Mesh) Stats() (Stats, error) {
	verts, err := m.Vertices()
	if err != nil {
		return Stats{}, err
	}
	tris, err := m.Triangles()
	if err != nil {
		return Stats{}, err
	}

	st := Stats{Meshes: len(m.doc.Meshes), Vertices: len(verts), Triangles: len(tris)}
	for _, mesh := range m.doc.Meshes {
		st.Primitives += len(mesh.Primitives)
	}
	if len(verts) == 0 {
		return st, nil
	}
	st.Min = [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	st.Max = [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range verts {
		for k := 0; k < 3; k++ {
			f := float64(v[k])
			if f < st.Min[k] {
				st.Min[k] = f
			}
			if f > st.Max[k] {
				st.Max[k] = f
			}
		}
	}
	return st, nil
}
