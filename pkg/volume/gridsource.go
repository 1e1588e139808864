package volume

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ScaleTransform maps world-space coordinates into grid-index space by
// per-axis multiplication. VolumeToWorld converts a volume-space
// magnitude (a radius, a distance) back to world units. All factors
// must be strictly positive and are fixed once the transform is built.
type ScaleTransform struct {
	X, Y, Z       float64
	VolumeToWorld float64
}

// UniformScale returns a transform with the same factor on every axis
// and the matching volume-to-world factor.
func UniformScale(factor float64) ScaleTransform {
	return ScaleTransform{X: factor, Y: factor, Z: factor, VolumeToWorld: 1 / factor}
}

// SamplingMode selects how the grid reconstructs continuous values
// from discrete samples.
type SamplingMode struct {
	// TrilinearValue blends the 8 surrounding cells for value queries
	// instead of snapping to the nearest cell.
	TrilinearValue bool

	// TrilinearGradient blends the gradients of the 8 surrounding
	// cells instead of taking the nearest one.
	TrilinearGradient bool

	// SobelGradient selects the Sobel gradient estimator over plain
	// central differences.
	SobelGradient bool
}

// GridSource samples a Grid as a continuous density field. It is the
// grid-backed implementation of Source: world positions are mapped
// into grid-index space through a ScaleTransform and reconstructed
// per the active SamplingMode.
//
// Sampling performs no bounds clamping. Callers must keep the scaled
// position inside [0, dim-1] on every axis after ceiling, or the
// underlying storage access is out of contract.
//
// Reads may run in parallel with each other, but never concurrently
// with CombineWithSource on the same grid: the combine loop both
// mutates cells and toggles the value-interpolation flag.
type GridSource struct {
	grid  *Grid
	scale ScaleTransform

	trilinearValue    bool
	trilinearGradient bool
	sobelGradient     bool

	diff   GradientProvider
	sobel  GradientProvider
	custom GradientProvider
}

// NewGridSource wraps grid with the given transform and sampling mode.
// Gradient estimation defaults to the built-in central-difference and
// Sobel providers, selected by mode.SobelGradient.
func NewGridSource(grid *Grid, scale ScaleTransform, mode SamplingMode) *GridSource {
	return &GridSource{
		grid:              grid,
		scale:             scale,
		trilinearValue:    mode.TrilinearValue,
		trilinearGradient: mode.TrilinearGradient,
		sobelGradient:     mode.SobelGradient,
		diff:              NewCentralDifference(grid),
		sobel:             NewSobel(grid),
	}
}

// Grid returns the underlying storage.
func (s *GridSource) Grid() *Grid { return s.grid }

// Scale returns the world-to-grid transform.
func (s *GridSource) Scale() ScaleTransform { return s.scale }

// Width returns the grid extent along x.
func (s *GridSource) Width() int { return s.grid.Width() }

// Height returns the grid extent along y.
func (s *GridSource) Height() int { return s.grid.Height() }

// Depth returns the grid extent along z.
func (s *GridSource) Depth() int { return s.grid.Depth() }

// WorldScaleFactor returns the factor converting a volume-space scalar
// magnitude to world units.
func (s *GridSource) WorldScaleFactor() float64 { return s.scale.VolumeToWorld }

// TrilinearValue reports whether value queries interpolate.
func (s *GridSource) TrilinearValue() bool { return s.trilinearValue }

// SetTrilinearValue switches value queries between trilinear and
// nearest-neighbor reconstruction.
func (s *GridSource) SetTrilinearValue(on bool) { s.trilinearValue = on }

// TrilinearGradient reports whether gradient queries interpolate.
func (s *GridSource) TrilinearGradient() bool { return s.trilinearGradient }

// SetTrilinearGradient switches gradient queries between trilinear and
// nearest-neighbor reconstruction.
func (s *GridSource) SetTrilinearGradient(on bool) { s.trilinearGradient = on }

// SobelGradient reports whether the Sobel estimator is selected.
func (s *GridSource) SobelGradient() bool { return s.sobelGradient }

// SetSobelGradient selects between the Sobel and central-difference
// estimators. Ignored while a custom provider is installed.
func (s *GridSource) SetSobelGradient(on bool) { s.sobelGradient = on }

// SetGradientProvider installs a custom gradient estimator, overriding
// the built-in ones. Pass nil to restore the built-in selection.
func (s *GridSource) SetGradientProvider(p GradientProvider) { s.custom = p }

func (s *GridSource) gradientProvider() GradientProvider {
	if s.custom != nil {
		return s.custom
	}
	if s.sobelGradient {
		return s.sobel
	}
	return s.diff
}

// toGridSpace converts a world position to grid-index space.
func (s *GridSource) toGridSpace(pos r3.Vec) r3.Vec {
	return r3.Vec{X: pos.X * s.scale.X, Y: pos.Y * s.scale.Y, Z: pos.Z * s.scale.Z}
}

// GetValue returns the density at a world-space position, using
// nearest-neighbor or trilinear reconstruction per the sampling mode.
func (s *GridSource) GetValue(pos r3.Vec) float64 {
	sp := s.toGridSpace(pos)
	if !s.trilinearValue {
		return s.grid.Get(int(sp.X+0.5), int(sp.Y+0.5), int(sp.Z+0.5))
	}

	x0, y0, z0 := int(sp.X), int(sp.Y), int(sp.Z)
	x1 := int(math.Ceil(sp.X))
	y1 := int(math.Ceil(sp.Y))
	z1 := int(math.Ceil(sp.Z))

	dX := sp.X - float64(x0)
	dY := sp.Y - float64(y0)
	dZ := sp.Z - float64(z0)

	f000 := s.grid.Get(x0, y0, z0)
	f100 := s.grid.Get(x1, y0, z0)
	f010 := s.grid.Get(x0, y1, z0)
	f001 := s.grid.Get(x0, y0, z1)
	f101 := s.grid.Get(x1, y0, z1)
	f011 := s.grid.Get(x0, y1, z1)
	f110 := s.grid.Get(x1, y1, z0)
	f111 := s.grid.Get(x1, y1, z1)

	oneMinX := 1 - dX
	oneMinY := 1 - dY
	oneMinZ := 1 - dZ
	oneMinXoneMinY := oneMinX * oneMinY
	dXOneMinY := dX * oneMinY

	// When a coordinate lands exactly on an integer, ceil collapses
	// onto floor and the fractional weight degenerates to one side; no
	// special casing needed.
	return oneMinZ*(f000*oneMinXoneMinY+
		f100*dXOneMinY+
		f010*oneMinX*dY) +
		dZ*(f001*oneMinXoneMinY+
			f101*dXOneMinY+
			f011*oneMinX*dY) +
		dX*dY*(f110*oneMinZ+
			f111*dZ)
}

// GetValueAndGradient returns the outward surface-normal direction and
// the density at a world-space position. The normal is the negated
// density gradient, reconstructed from the gradient provider at the
// surrounding cells with the same blend as GetValue.
func (s *GridSource) GetValueAndGradient(pos r3.Vec) (r3.Vec, float64) {
	sp := s.toGridSpace(pos)
	grad := s.gradientProvider()
	var normal r3.Vec
	if s.trilinearGradient {
		x0, y0, z0 := int(sp.X), int(sp.Y), int(sp.Z)
		x1 := int(math.Ceil(sp.X))
		y1 := int(math.Ceil(sp.Y))
		z1 := int(math.Ceil(sp.Z))

		dX := sp.X - float64(x0)
		dY := sp.Y - float64(y0)
		dZ := sp.Z - float64(z0)

		f000 := grad.GradientAt(x0, y0, z0)
		f100 := grad.GradientAt(x1, y0, z0)
		f010 := grad.GradientAt(x0, y1, z0)
		f001 := grad.GradientAt(x0, y0, z1)
		f101 := grad.GradientAt(x1, y0, z1)
		f011 := grad.GradientAt(x0, y1, z1)
		f110 := grad.GradientAt(x1, y1, z0)
		f111 := grad.GradientAt(x1, y1, z1)

		oneMinX := 1 - dX
		oneMinY := 1 - dY
		oneMinZ := 1 - dZ
		oneMinXoneMinY := oneMinX * oneMinY
		dXOneMinY := dX * oneMinY

		lower := r3.Add(r3.Scale(oneMinXoneMinY, f000),
			r3.Add(r3.Scale(dXOneMinY, f100), r3.Scale(oneMinX*dY, f010)))
		upper := r3.Add(r3.Scale(oneMinXoneMinY, f001),
			r3.Add(r3.Scale(dXOneMinY, f101), r3.Scale(oneMinX*dY, f011)))
		far := r3.Add(r3.Scale(oneMinZ, f110), r3.Scale(dZ, f111))

		normal = r3.Add(r3.Scale(oneMinZ, lower),
			r3.Add(r3.Scale(dZ, upper), r3.Scale(dX*dY, far)))
		normal = r3.Scale(-1, normal)
	} else {
		normal = r3.Scale(-1, grad.GradientAt(int(sp.X+0.5), int(sp.Y+0.5), int(sp.Z+0.5)))
	}
	return normal, s.GetValue(pos)
}

// boundingBox is the grid's bounding volume in grid-index space.
func (s *GridSource) boundingBox() r3.Box {
	return r3.Box{
		Max: r3.Vec{
			X: float64(s.grid.Width()),
			Y: float64(s.grid.Height()),
			Z: float64(s.grid.Depth()),
		},
	}
}

// IntersectionStart returns the point where a ray enters the grid's
// bounding volume. An origin already inside the volume is returned
// unchanged, as is the origin of a ray that misses entirely; callers
// detect the latter by the returned point lying outside the volume.
func (s *GridSource) IntersectionStart(ray Ray, maxDistance float64) r3.Vec {
	box := s.boundingBox()

	if boxContains(box, ray.Origin) {
		return ray.Origin
	}

	dir := r3.Unit(ray.Dir)
	if t, ok := intersectBox(box, Ray{Origin: ray.Origin, Dir: dir}); ok {
		return r3.Add(ray.Origin, r3.Scale(t, dir))
	}

	return ray.Origin
}

// IntersectionEnd returns the point where a ray exits the grid's
// bounding volume. A point safely beyond the volume is computed along
// the ray and a reversed ray is cast from it back toward the origin;
// slab tests report the entry side, so reversing turns the exit into
// another entry. A ray that never meets the volume falls back to
// origin + direction*maxDistance.
func (s *GridSource) IntersectionEnd(ray Ray, maxDistance float64) r3.Vec {
	box := s.boundingBox()
	dir := r3.Unit(ray.Dir)
	beyond := r3.Add(ray.Origin, r3.Scale(r3.Norm(box.Max), dir))
	back := r3.Scale(-1, dir)

	if t, ok := intersectBox(box, Ray{Origin: beyond, Dir: back}); ok {
		return r3.Add(beyond, r3.Scale(t, back))
	}

	return r3.Add(ray.Origin, r3.Scale(maxDistance, dir))
}

// CombineWithSource merges another density source into the grid over
// the axis-aligned box bounding a sphere at center with the given
// radius (both in grid-index space, clamped to the grid). The
// operation is bound with this grid as source A and src as source B,
// then evaluated at every voxel of the region, converted to world
// space by the inverse scale, and the result written back in place.
//
// Value interpolation is forced to nearest-neighbor for the duration:
// the loop overwrites cells the trilinear path would read back,
// which would make results depend on iteration order. The previous
// flag is restored on every exit path, including a panicking
// operation source. Cells written before such a panic stay written;
// there is no rollback.
func (s *GridSource) CombineWithSource(op OperationSource, src Source, center r3.Vec, radius float64) {
	invX := 1 / s.scale.X
	invY := 1 / s.scale.Y
	invZ := 1 / s.scale.Z

	op.SetSourceA(s)
	op.SetSourceB(src)

	oldTrilinearValue := s.trilinearValue
	s.trilinearValue = false
	defer func() { s.trilinearValue = oldTrilinearValue }()

	xStart := clampInt(int(math.Floor(center.X-radius)), 0, s.grid.Width())
	xEnd := clampInt(int(math.Floor(center.X+radius)), 0, s.grid.Width())
	yStart := clampInt(int(math.Floor(center.Y-radius)), 0, s.grid.Height())
	yEnd := clampInt(int(math.Floor(center.Y+radius)), 0, s.grid.Height())
	zStart := clampInt(int(math.Floor(center.Z-radius)), 0, s.grid.Depth())
	zEnd := clampInt(int(math.Floor(center.Z+radius)), 0, s.grid.Depth())

	for z := zStart; z < zEnd; z++ {
		for y := yStart; y < yEnd; y++ {
			for x := xStart; x < xEnd; x++ {
				pos := r3.Vec{X: float64(x) * invX, Y: float64(y) * invY, Z: float64(z) * invZ}
				s.grid.Set(x, y, z, op.GetValue(pos))
			}
		}
	}
}
