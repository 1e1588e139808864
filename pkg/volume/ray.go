package volume

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Ray is a half-line in space, supplied per query and never stored.
// The direction does not need to be normalized but must be non-zero.
type Ray struct {
	Origin r3.Vec
	Dir    r3.Vec
}

// parallelEpsilon is the direction-component threshold below which a
// ray is treated as parallel to a slab.
const parallelEpsilon = 1e-12

// boxContains reports whether p lies inside box, boundary inclusive.
func boxContains(box r3.Box, p r3.Vec) bool {
	return p.X >= box.Min.X && p.X <= box.Max.X &&
		p.Y >= box.Min.Y && p.Y <= box.Max.Y &&
		p.Z >= box.Min.Z && p.Z <= box.Max.Z
}

// intersectBox computes the entry distance of a ray against an
// axis-aligned box using the slab method. The returned distance is
// signed: an origin inside the box yields the (negative) distance back
// to the entry plane, which lets a reversed ray recover the true exit
// point of the forward ray. The second result is false when the ray
// line misses the box or the box lies entirely behind the origin.
func intersectBox(box r3.Box, ray Ray) (float64, bool) {
	tNear := math.Inf(-1)
	tFar := math.Inf(1)

	origin := [3]float64{ray.Origin.X, ray.Origin.Y, ray.Origin.Z}
	dir := [3]float64{ray.Dir.X, ray.Dir.Y, ray.Dir.Z}
	lo := [3]float64{box.Min.X, box.Min.Y, box.Min.Z}
	hi := [3]float64{box.Max.X, box.Max.Y, box.Max.Z}

	for axis := 0; axis < 3; axis++ {
		if math.Abs(dir[axis]) < parallelEpsilon {
			// Parallel to this slab: inside it or a miss.
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		inv := 1.0 / dir[axis]
		t1 := (lo[axis] - origin[axis]) * inv
		t2 := (hi[axis] - origin[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tNear {
			tNear = t1
		}
		if t2 < tFar {
			tFar = t2
		}
		if tNear > tFar {
			return 0, false
		}
	}
	if tFar < 0 {
		return 0, false
	}
	return tNear, true
}
