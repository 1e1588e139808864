package csg

import (
	"github.com/ahlgreen/isofield/pkg/volume"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface checks.
var (
	_ volume.Source = (*Sphere)(nil)
	_ volume.Source = (*Plane)(nil)
	_ volume.Source = (*Scale)(nil)
	_ volume.Source = (*Negate)(nil)
)

// Sphere is a solid sphere: density = radius - |pos - center|.
type Sphere struct {
	center r3.Vec
	radius float64
}

// NewSphere returns a sphere source at center with the given radius,
// both in world space.
func NewSphere(center r3.Vec, radius float64) *Sphere {
	return &Sphere{center: center, radius: radius}
}

// GetValue returns the signed distance to the sphere surface, positive
// inside.
func (s *Sphere) GetValue(pos r3.Vec) float64 {
	return s.radius - r3.Norm(r3.Sub(pos, s.center))
}

// GetValueAndGradient returns the outward radial normal and the density.
// At the exact center the normal direction is undefined and zero is
// returned.
func (s *Sphere) GetValueAndGradient(pos r3.Vec) (r3.Vec, float64) {
	d := r3.Sub(pos, s.center)
	dist := r3.Norm(d)
	if dist == 0 {
		return r3.Vec{}, s.radius
	}
	return r3.Scale(1/dist, d), s.radius - dist
}

// Plane is a solid half-space below the plane dot(normal, p) = d,
// with density = d - dot(normal, pos).
type Plane struct {
	normal r3.Vec
	d      float64
}

// NewPlane returns a half-space source. The normal is normalized so
// the density is a true distance.
func NewPlane(normal r3.Vec, d float64) *Plane {
	return &Plane{normal: r3.Unit(normal), d: d}
}

// GetValue returns the signed distance below the plane.
func (p *Plane) GetValue(pos r3.Vec) float64 {
	return p.d - r3.Dot(p.normal, pos)
}

// GetValueAndGradient returns the plane normal and the density.
func (p *Plane) GetValueAndGradient(pos r3.Vec) (r3.Vec, float64) {
	return p.normal, p.GetValue(pos)
}

// Scale multiplies an inner source's density by a constant factor.
type Scale struct {
	src    volume.Source
	factor float64
}

// NewScale returns src scaled by factor.
func NewScale(src volume.Source, factor float64) *Scale {
	return &Scale{src: src, factor: factor}
}

// GetValue returns factor * src density.
func (s *Scale) GetValue(pos r3.Vec) float64 {
	return s.factor * s.src.GetValue(pos)
}

// GetValueAndGradient scales both the density and the normal.
func (s *Scale) GetValueAndGradient(pos r3.Vec) (r3.Vec, float64) {
	n, v := s.src.GetValueAndGradient(pos)
	return r3.Scale(s.factor, n), s.factor * v
}

// Negate inverts inside and outside of an inner source.
type Negate struct {
	src volume.Source
}

// NewNegate returns the inversion of src.
func NewNegate(src volume.Source) *Negate {
	return &Negate{src: src}
}

// GetValue returns the negated density.
func (n *Negate) GetValue(pos r3.Vec) float64 {
	return -n.src.GetValue(pos)
}

// GetValueAndGradient flips both the density and the normal.
func (n *Negate) GetValueAndGradient(pos r3.Vec) (r3.Vec, float64) {
	normal, v := n.src.GetValueAndGradient(pos)
	return r3.Scale(-1, normal), -v
}
