// Package sdfx bridges density sources with the github.com/deadsy/sdfx
// signed-distance CAD library, in both directions: an sdf.SDF3 can act
// as a density source (e.g. as input B of a CSG combine), and a density
// source can be wrapped for sdfx marching-cubes meshing.
//
// Signed distance is negative inside a solid while density is positive
// inside, so both adapters negate.
package sdfx

import (
	"github.com/ahlgreen/isofield/pkg/volume"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface checks.
var (
	_ volume.Source = (*SDFSource)(nil)
	_ sdf.SDF3      = (*sourceSDF)(nil)
)

// gradientStep is the offset used for numeric normals of wrapped SDFs.
const gradientStep = 1e-4

// SDFSource exposes an sdf.SDF3 as a density source.
type SDFSource struct {
	s sdf.SDF3
}

// FromSDF3 wraps a signed-distance solid as a density source.
func FromSDF3(s sdf.SDF3) *SDFSource {
	return &SDFSource{s: s}
}

// GetValue returns the negated signed distance at pos.
func (s *SDFSource) GetValue(pos r3.Vec) float64 {
	return -s.s.Evaluate(v3.Vec{X: pos.X, Y: pos.Y, Z: pos.Z})
}

// GetValueAndGradient estimates the outward normal by central
// differences over the distance field.
func (s *SDFSource) GetValueAndGradient(pos r3.Vec) (r3.Vec, float64) {
	h := gradientStep
	// The normal is the gradient of the distance field, which is the
	// negated density gradient; no extra sign flip needed.
	normal := r3.Vec{
		X: (s.GetValue(r3.Vec{X: pos.X - h, Y: pos.Y, Z: pos.Z}) - s.GetValue(r3.Vec{X: pos.X + h, Y: pos.Y, Z: pos.Z})) / (2 * h),
		Y: (s.GetValue(r3.Vec{X: pos.X, Y: pos.Y - h, Z: pos.Z}) - s.GetValue(r3.Vec{X: pos.X, Y: pos.Y + h, Z: pos.Z})) / (2 * h),
		Z: (s.GetValue(r3.Vec{X: pos.X, Y: pos.Y, Z: pos.Z - h}) - s.GetValue(r3.Vec{X: pos.X, Y: pos.Y, Z: pos.Z + h})) / (2 * h),
	}
	return normal, s.GetValue(pos)
}

// sourceSDF exposes a density source as an sdf.SDF3.
type sourceSDF struct {
	src    volume.Source
	bounds sdf.Box3
}

// ToSDF3 wraps a density source for use with sdfx renderers. The
// bounding box must enclose the region of interest and, for grid
// sources, stay inside the sampler's coordinate contract.
func ToSDF3(src volume.Source, min, max r3.Vec) sdf.SDF3 {
	return &sourceSDF{
		src: src,
		bounds: sdf.Box3{
			Min: v3.Vec{X: min.X, Y: min.Y, Z: min.Z},
			Max: v3.Vec{X: max.X, Y: max.Y, Z: max.Z},
		},
	}
}

// FromGrid wraps a grid source for meshing over its full valid world
// extent, [0, (dim-1)/scale] per axis.
func FromGrid(gs *volume.GridSource) sdf.SDF3 {
	scale := gs.Scale()
	max := r3.Vec{
		X: float64(gs.Width()-1) / scale.X,
		Y: float64(gs.Height()-1) / scale.Y,
		Z: float64(gs.Depth()-1) / scale.Z,
	}
	return ToSDF3(gs, r3.Vec{}, max)
}

// Evaluate returns the negated density at p.
func (s *sourceSDF) Evaluate(p v3.Vec) float64 {
	return -s.src.GetValue(r3.Vec{X: p.X, Y: p.Y, Z: p.Z})
}

// BoundingBox returns the wrapped region.
func (s *sourceSDF) BoundingBox() sdf.Box3 {
	return s.bounds
}
