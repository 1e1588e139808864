// Package mesh turns density sources into triangle meshes via sdfx
// marching cubes, with flat buffers suitable for rendering or export.
package mesh

import (
	"github.com/ahlgreen/isofield/pkg/volume"
	sdfbridge "github.com/ahlgreen/isofield/pkg/volume/sdfx"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultCells is the marching-cubes resolution along the longest axis.
const DefaultCells = 64

// Mesh is a triangle mesh of an isosurface.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	GridName string    `json:"gridName"` // which grid this surface came from
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

// FromSource meshes the isosurface of a density source over the given
// world-space region.
func FromSource(src volume.Source, min, max r3.Vec, cells int) *Mesh {
	return fromSDF(sdfbridge.ToSDF3(src, min, max), cells)
}

// FromGrid meshes a grid source over its full valid world extent.
func FromGrid(gs *volume.GridSource, cells int) *Mesh {
	return fromSDF(sdfbridge.FromGrid(gs), cells)
}

// fromSDF runs marching cubes and flattens the triangle soup.
func fromSDF(s sdf.SDF3, cells int) *Mesh {
	if cells <= 0 {
		cells = DefaultCells
	}

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Flat shading: every vertex carries the face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}
}
