package kernel

import (
	"github.com/chazu/rangeheap/pkg/rangeheap"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is a triangle mesh.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"`
}

// Part is a named tessellated solid.
type Part struct {
	Name string
	Mesh *Mesh
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) (v3.Vec, bool) {
	if i < 0 || i >= m.VertexCount() {
		return v3.Vec{}, false
	}
	return v3.Vec{
		X: float64(m.Vertices[3*i]),
		Y: float64(m.Vertices[3*i+1]),
		Z: float64(m.Vertices[3*i+2]),
	}, true
}

// Triangle returns the corners of triangle i. It fails for an out of range
// triangle or one referencing a missing vertex.
func (m *Mesh) Triangle(i int) ([3]v3.Vec, bool) {
	var tri [3]v3.Vec
	if i < 0 || i >= m.TriangleCount() {
		return tri, false
	}
	for k := 0; k < 3; k++ {
		v, ok := m.Vertex(int(m.Indices[3*i+k]))
		if !ok {
			return tri, false
		}
		tri[k] = v
	}
	return tri, true
}

// FacetBox returns the bounding box of triangle i, or the null box.
func (m *Mesh) FacetBox(i int) sdf.Box3 {
	tri, ok := m.Triangle(i)
	if !ok {
		return rangeheap.NullBox()
	}
	return sdf.Box3{
		Min: tri[0].Min(tri[1]).Min(tri[2]),
		Max: tri[0].Max(tri[1]).Max(tri[2]),
	}
}

// Bounds returns the bounding box of all vertices.
func (m *Mesh) Bounds() sdf.Box3 {
	b := rangeheap.NullBox()
	for i := 0; i < m.VertexCount(); i++ {
		v, _ := m.Vertex(i)
		b = b.Extend(sdf.Box3{Min: v, Max: v})
	}
	return b
}

// FacetBoxes returns the box of every triangle in order.
func (m *Mesh) FacetBoxes() rangeheap.BoxSource {
	boxes := make(rangeheap.BoxSource, m.TriangleCount())
	for i := range boxes {
		boxes[i] = m.FacetBox(i)
	}
	return boxes
}

// FacetSource exposes the triangles of a mesh, in their stored order, as a
// range source. It recomputes boxes on every call; build a BoxSource with
// FacetBoxes when the ranges are requested more than once.
type FacetSource struct {
	Mesh *Mesh
}

var _ rangeheap.RangeSource = FacetSource{}

// Range returns the union of the boxes of triangles i0..i1. A source without
// a mesh has only null ranges.
func (s FacetSource) Range(i0, i1 int) sdf.Box3 {
	b := rangeheap.NullBox()
	if s.Mesh == nil {
		return b
	}
	for i := max(i0, 0); i <= i1 && i < s.Mesh.TriangleCount(); i++ {
		b = b.Extend(s.Mesh.FacetBox(i))
	}
	return b
}
