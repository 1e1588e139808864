// Package volume implements continuous density-field sampling over
// discrete 3D voxel grids, for driving isosurface extraction.
// It provides trilinear value and gradient reconstruction, ray entry
// and exit computation against a grid's bounding volume, and in-place
// CSG write-back of a second density source into the grid.
package volume

import "gonum.org/v1/gonum/spatial/r3"

// Source is a scalar density field over world space. The sign and
// magnitude convention of the density defines inside versus outside
// of a surface; the isosurface itself sits where callers place it
// (typically density == 0).
type Source interface {
	// GetValue returns the density at a world-space position.
	GetValue(pos r3.Vec) float64

	// GetValueAndGradient returns the outward surface-normal direction,
	// which is the negated density gradient since density grows toward
	// the inside, together with the density at a world-space position.
	GetValueAndGradient(pos r3.Vec) (r3.Vec, float64)
}

// OperationSource is a two-input density combinator. Implementations
// read their bound sources A and B inside GetValue; the bindings are
// set just before use and hold only for the duration of the operation.
// The handles are borrowed: an OperationSource never owns its inputs.
type OperationSource interface {
	Source

	// SetSourceA binds the first input.
	SetSourceA(a Source)

	// SetSourceB binds the second input.
	SetSourceB(b Source)
}
