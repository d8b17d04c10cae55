package lin

import "math"

// AABB is an axis-aligned bounding box, the one geometric object the
// collision core manipulates directly (everything else belongs to the
// geometry kernel, spec.md §1/§6). Min/Max are inclusive corners.
type AABB[R Scalar] struct {
	Min, Max Vec3[R]
}

// NewAABB builds an AABB from two corners in any order.
func NewAABB[R Scalar](a, b Vec3[R]) AABB[R] {
	return AABB[R]{
		Min: Vec3[R]{min(a.X, b.X), min(a.Y, b.Y), min(a.Z, b.Z)},
		Max: Vec3[R]{max(a.X, b.X), max(a.Y, b.Y), max(a.Z, b.Z)},
	}
}

func min[R Scalar](a, b R) R {
	if a < b {
		return a
	}
	return b
}

func max[R Scalar](a, b R) R {
	if a > b {
		return a
	}
	return b
}

// Union returns the smallest AABB containing both a and b — used by
// the DBVT to refit internal node bounds bottom-up (spec.md §4.1).
func (a AABB[R]) Union(b AABB[R]) AABB[R] {
	return AABB[R]{
		Min: Vec3[R]{min(a.Min.X, b.Min.X), min(a.Min.Y, b.Min.Y), min(a.Min.Z, b.Min.Z)},
		Max: Vec3[R]{max(a.Max.X, b.Max.X), max(a.Max.Y, b.Max.Y), max(a.Max.Z, b.Max.Z)},
	}
}

// Loosened enlarges the box by margin on every face. Negative margins
// shrink it; the broad phase never passes one (spec.md §4.2 "a
// loosening margin ≥ 0").
func (a AABB[R]) Loosened(margin R) AABB[R] {
	m := Vec3[R]{margin, margin, margin}
	return AABB[R]{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// Contains reports whether b is entirely inside a, faces touching
// counting as contained (spec.md §4.1 refit: "if new_aabb ⊆
// stored_aabb do nothing").
func (a AABB[R]) Contains(b AABB[R]) bool {
	return a.Min.X <= b.Min.X && a.Min.Y <= b.Min.Y && a.Min.Z <= b.Min.Z &&
		a.Max.X >= b.Max.X && a.Max.Y >= b.Max.Y && a.Max.Z >= b.Max.Z
}

// Intersects reports whether a and b overlap. Boxes touching exactly
// on a face count as intersecting (spec.md §8 boundary behavior).
func (a AABB[R]) Intersects(b AABB[R]) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

// ContainsPoint reports whether p lies within a, inclusive of the
// boundary.
func (a AABB[R]) ContainsPoint(p Vec3[R]) bool {
	return p.X >= a.Min.X && p.X <= a.Max.X &&
		p.Y >= a.Min.Y && p.Y <= a.Max.Y &&
		p.Z >= a.Min.Z && p.Z <= a.Max.Z
}

// SurfaceArea is twice the sum of the face areas. Used by the DBVT's
// insertion heuristic (spec.md §4.1, "smaller surface-area increase").
// Degenerate (zero-thickness, i.e. 2D) boxes still produce a finite,
// monotonic value because the heuristic only ever compares surface
// areas of same-dimensionality boxes.
func (a AABB[R]) SurfaceArea() R {
	d := a.Max.Sub(a.Min)
	return 2 * (d.X*d.Y + d.Y*d.Z + d.Z*d.X)
}

// Ray is a half-line used for ray queries (spec.md §4.1 query_ray,
// §4.6 interferences_with_ray).
type Ray[R Scalar] struct {
	Origin, Dir Vec3[R]
}

// IntersectsRay is a slab test against the box; maxT bounds the ray
// length (use +Inf for an unbounded ray). Returns whether the ray hits
// and, if so, the entry parameter t along Origin+t*Dir.
func (a AABB[R]) IntersectsRay(r Ray[R], maxT R) (bool, R) {
	tmin, tmax := R(0), maxT

	for axis := 0; axis < 3; axis++ {
		var origin, dir, lo, hi R
		switch axis {
		case 0:
			origin, dir, lo, hi = r.Origin.X, r.Dir.X, a.Min.X, a.Max.X
		case 1:
			origin, dir, lo, hi = r.Origin.Y, r.Dir.Y, a.Min.Y, a.Max.Y
		default:
			origin, dir, lo, hi = r.Origin.Z, r.Dir.Z, a.Min.Z, a.Max.Z
		}
		if dir == 0 {
			if origin < lo || origin > hi {
				return false, 0
			}
			continue
		}
		invD := 1 / dir
		t0 := (lo - origin) * invD
		t1 := (hi - origin) * invD
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
		if tmin > tmax {
			return false, 0
		}
	}
	return true, tmin
}

// IsFinite reports whether every component of the box is finite. The
// narrow phase uses this to detect NumericalFailure output from an
// algorithm (spec.md §7).
func (a AABB[R]) IsFinite() bool {
	vs := [...]R{a.Min.X, a.Min.Y, a.Min.Z, a.Max.X, a.Max.Y, a.Max.Z}
	for _, v := range vs {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
