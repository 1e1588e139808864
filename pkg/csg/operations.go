package csg

import (
	"math"

	"github.com/ahlgreen/isofield/pkg/volume"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface checks.
var (
	_ volume.OperationSource = (*Union)(nil)
	_ volume.OperationSource = (*Intersection)(nil)
	_ volume.OperationSource = (*Difference)(nil)
	_ volume.OperationSource = (*Plus)(nil)
	_ volume.OperationSource = (*Minus)(nil)
)

// Union is the boolean union of two density fields: the maximum of
// both densities, so a point is inside if it is inside either input.
type Union struct {
	operands
}

// NewUnion returns a union of a and b. Either may be nil if the
// operation is bound later via SetSourceA/SetSourceB.
func NewUnion(a, b volume.Source) *Union {
	return &Union{operands{a: a, b: b}}
}

// GetValue returns the larger of the two input densities.
func (u *Union) GetValue(pos r3.Vec) float64 {
	return math.Max(u.a.GetValue(pos), u.b.GetValue(pos))
}

// GetValueAndGradient returns the normal and density of the denser input.
func (u *Union) GetValueAndGradient(pos r3.Vec) (r3.Vec, float64) {
	na, va := u.a.GetValueAndGradient(pos)
	nb, vb := u.b.GetValueAndGradient(pos)
	if va > vb {
		return na, va
	}
	return nb, vb
}

// Intersection is the boolean intersection of two density fields: the
// minimum of both densities.
type Intersection struct {
	operands
}

// NewIntersection returns an intersection of a and b.
func NewIntersection(a, b volume.Source) *Intersection {
	return &Intersection{operands{a: a, b: b}}
}

// GetValue returns the smaller of the two input densities.
func (i *Intersection) GetValue(pos r3.Vec) float64 {
	return math.Min(i.a.GetValue(pos), i.b.GetValue(pos))
}

// GetValueAndGradient returns the normal and density of the less dense input.
func (i *Intersection) GetValueAndGradient(pos r3.Vec) (r3.Vec, float64) {
	na, va := i.a.GetValueAndGradient(pos)
	nb, vb := i.b.GetValueAndGradient(pos)
	if va < vb {
		return na, va
	}
	return nb, vb
}

// Difference subtracts field B from field A: min(a, -b). Points inside
// B are carved out of A.
type Difference struct {
	operands
}

// NewDifference returns the difference a minus b.
func NewDifference(a, b volume.Source) *Difference {
	return &Difference{operands{a: a, b: b}}
}

// GetValue returns min(a, -b).
func (d *Difference) GetValue(pos r3.Vec) float64 {
	return math.Min(d.a.GetValue(pos), -d.b.GetValue(pos))
}

// GetValueAndGradient returns A's normal where A dominates, otherwise
// B's normal flipped (the carved surface faces the other way).
func (d *Difference) GetValueAndGradient(pos r3.Vec) (r3.Vec, float64) {
	na, va := d.a.GetValueAndGradient(pos)
	nb, vb := d.b.GetValueAndGradient(pos)
	if va < -vb {
		return na, va
	}
	return r3.Scale(-1, nb), -vb
}

// Plus is the algebraic sum of two density fields, useful for blending
// soft sources like noise into a solid.
type Plus struct {
	operands
}

// NewPlus returns the sum of a and b.
func NewPlus(a, b volume.Source) *Plus {
	return &Plus{operands{a: a, b: b}}
}

// GetValue returns a + b.
func (p *Plus) GetValue(pos r3.Vec) float64 {
	return p.a.GetValue(pos) + p.b.GetValue(pos)
}

// GetValueAndGradient sums densities and normals (normals are negated
// gradients, so the sum stays consistent).
func (p *Plus) GetValueAndGradient(pos r3.Vec) (r3.Vec, float64) {
	na, va := p.a.GetValueAndGradient(pos)
	nb, vb := p.b.GetValueAndGradient(pos)
	return r3.Add(na, nb), va + vb
}

// Minus is the algebraic difference of two density fields.
type Minus struct {
	operands
}

// NewMinus returns a minus b.
func NewMinus(a, b volume.Source) *Minus {
	return &Minus{operands{a: a, b: b}}
}

// GetValue returns a - b.
func (m *Minus) GetValue(pos r3.Vec) float64 {
	return m.a.GetValue(pos) - m.b.GetValue(pos)
}

// GetValueAndGradient subtracts densities and normals.
func (m *Minus) GetValueAndGradient(pos r3.Vec) (r3.Vec, float64) {
	na, va := m.a.GetValueAndGradient(pos)
	nb, vb := m.b.GetValueAndGradient(pos)
	return r3.Sub(na, nb), va - vb
}
