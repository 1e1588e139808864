// Package csg provides constructive-solid-geometry density sources:
// two-input combinators (union, difference, intersection, plus, minus)
// usable with volume.GridSource.CombineWithSource, and procedural leaf
// sources (sphere, plane, noise) plus unary modifiers (scale, negate).
//
// The density convention is positive inside, negative outside, with
// the isosurface at zero. GetValueAndGradient returns the outward
// surface-normal direction, consistent with package volume.
package csg

import "github.com/ahlgreen/isofield/pkg/volume"

// operands holds the two bound inputs of an operation source. The
// handles are borrowed; rebinding is cheap and done per combine call.
type operands struct {
	a, b volume.Source
}

// SetSourceA binds the first input.
func (o *operands) SetSourceA(a volume.Source) { o.a = a }

// SetSourceB binds the second input.
func (o *operands) SetSourceB(b volume.Source) { o.b = b }

// SourceA returns the currently bound first input.
func (o *operands) SourceA() volume.Source { return o.a }

// SourceB returns the currently bound second input.
func (o *operands) SourceB() volume.Source { return o.b }
