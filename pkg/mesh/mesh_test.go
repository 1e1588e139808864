package mesh

import (
	"math"
	"testing"

	"github.com/ahlgreen/isofield/pkg/csg"
	"github.com/ahlgreen/isofield/pkg/volume"
	"gonum.org/v1/gonum/spatial/r3"
)

func checkBuffers(t *testing.T, m *Mesh) {
	t.Helper()
	if m.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if len(m.Vertices)%9 != 0 {
		t.Errorf("vertex buffer length %d is not a whole number of triangles", len(m.Vertices))
	}
	if len(m.Normals) != len(m.Vertices) {
		t.Errorf("normal buffer length %d != vertex buffer length %d", len(m.Normals), len(m.Vertices))
	}
	if len(m.Indices) != m.VertexCount() {
		t.Errorf("index count %d != vertex count %d", len(m.Indices), m.VertexCount())
	}
	if m.TriangleCount()*3 != m.VertexCount() {
		t.Errorf("triangle count %d inconsistent with vertex count %d", m.TriangleCount(), m.VertexCount())
	}
}

func TestFromSourceSphere(t *testing.T) {
	sphere := csg.NewSphere(r3.Vec{}, 2)
	m := FromSource(sphere, r3.Vec{X: -3, Y: -3, Z: -3}, r3.Vec{X: 3, Y: 3, Z: 3}, 16)
	checkBuffers(t, m)

	// Every vertex sits near the radius-2 isosurface.
	for i := 0; i < len(m.Vertices); i += 3 {
		x := float64(m.Vertices[i])
		y := float64(m.Vertices[i+1])
		z := float64(m.Vertices[i+2])
		r := math.Sqrt(x*x + y*y + z*z)
		if math.Abs(r-2) > 0.5 {
			t.Fatalf("vertex (%v,%v,%v) at radius %v, want near 2", x, y, z, r)
		}
	}

	// Face normals are unit length.
	nx := float64(m.Normals[0])
	ny := float64(m.Normals[1])
	nz := float64(m.Normals[2])
	if n := math.Sqrt(nx*nx + ny*ny + nz*nz); math.Abs(n-1) > 1e-6 {
		t.Errorf("normal length = %v, want 1", n)
	}
}

func TestFromGrid(t *testing.T) {
	grid := volume.NewGrid(8, 8, 8)
	center := r3.Vec{X: 3.5, Y: 3.5, Z: 3.5}
	for z := 0; z < 8; z++ {
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				d := r3.Norm(r3.Sub(r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)}, center))
				grid.Set(x, y, z, 2.5-d)
			}
		}
	}
	gs := volume.NewGridSource(grid, volume.UniformScale(1),
		volume.SamplingMode{TrilinearValue: true, TrilinearGradient: true})

	m := FromGrid(gs, 16)
	checkBuffers(t, m)

	// The surface stays inside the grid's world extent.
	for i := 0; i < len(m.Vertices); i++ {
		v := float64(m.Vertices[i])
		if v < -0.01 || v > 7.01 {
			t.Fatalf("vertex coordinate %v outside [0, 7]", v)
		}
	}
}

func TestFromSourceDefaultCells(t *testing.T) {
	sphere := csg.NewSphere(r3.Vec{}, 1)
	m := FromSource(sphere, r3.Vec{X: -2, Y: -2, Z: -2}, r3.Vec{X: 2, Y: 2, Z: 2}, 0)
	checkBuffers(t, m)
}

func TestMeshAccessorsEmpty(t *testing.T) {
	var m Mesh
	if !m.IsEmpty() {
		t.Error("zero mesh should be empty")
	}
	if m.VertexCount() != 0 || m.TriangleCount() != 0 {
		t.Error("zero mesh should have no vertices or triangles")
	}
}

func TestServiceEvaluate(t *testing.T) {
	svc := NewService(16)
	result := svc.Evaluate(`
		(grid :name "main" :width 8 :height 8 :depth 8)
		(combine (volume "main")
		         (union)
		         (sphere :center (vec3 3.5 3.5 3.5) :radius 2.5)
		         :center (vec3 3.5 3.5 3.5)
		         :radius 3)
	`)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(result.Meshes))
	}
	md := result.Meshes[0]
	if md.GridName != "main" {
		t.Errorf("GridName = %q, want \"main\"", md.GridName)
	}
	if md.Color != colorPalette[0] {
		t.Errorf("Color = %q, want first palette entry", md.Color)
	}
	checkBuffers(t, md.Mesh)
}

func TestServiceEvaluateError(t *testing.T) {
	svc := NewService(16)
	result := svc.Evaluate(`(grid :width 1)`)
	if len(result.Errors) == 0 {
		t.Fatal("expected errors for invalid grid dimensions")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("got %d meshes, want none on error", len(result.Meshes))
	}
}
