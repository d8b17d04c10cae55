package kernel

import (
	"github.com/galvanizedlogic/collide/dispatch"
	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/manifold"
	"github.com/galvanizedlogic/collide/shape"
)

// manifoldPoints3D is how many contact points the one-shot wrapper
// around boxBox retains once seeded — spec.md §4.4's 3D limit.
const manifoldPoints3D = 4

// oneShotBoxBoxFactory wraps the single-witness-point boxBox algorithm
// in the manifold package's one-shot wrapper, per spec.md §4.3's
// "support-mapped convex / support-mapped convex: GJK+EPA... wrapped
// in a one-shot manifold generator".
func oneShotBoxBoxFactory[R lin.Scalar]() dispatch.ContactFactory[R] {
	return func(a, b *shape.Handle) dispatch.ContactGenerator[R] {
		return manifold.NewOneShotWrapper[R](newBoxBoxContact[R](a, b), manifoldPoints3D)
	}
}

// boxBox is the "support-mapped convex / support-mapped convex: GJK+EPA
// (delegated to the geometry kernel), wrapped in a one-shot manifold
// generator" entry of spec.md §4.3 — for this reference kernel,
// specialized to boxes. A real kernel's GJK+EPA would work on any
// support-mapped pair and hand back one witness point for the manifold
// package to wrap; this one runs a face-axis separating-axis test
// (the 6 face normals only, not the 9 edge-cross-product axes a full
// OBB SAT needs) and returns the axis of least penetration as that
// witness point. It is a deliberately simplified stand-in, not a
// general GJK+EPA implementation — see DESIGN.md.
//
// boxBox itself returns at most one Contact per Update, same as
// ballBall; the manifold package's OneShotWrapper is what turns that
// single witness point into a stable multi-point manifold over
// subsequent ticks (spec.md §4.4).
type boxBox[R lin.Scalar] struct{}

func newBoxBoxContact[R lin.Scalar](_, _ *shape.Handle) dispatch.ContactGenerator[R] {
	return boxBox[R]{}
}

// axisResult is a candidate separating axis together with which box it was
// derived from, for orienting the resulting normal consistently
// (pointing from A to B).
type axisResult[R lin.Scalar] struct {
	normal lin.Vec3[R]
	gap    R // negative means overlapping by -gap along this axis
}

func boxAxes[R lin.Scalar](pos lin.Isometry[R]) [3]lin.Vec3[R] {
	return [3]lin.Vec3[R]{
		pos.TransformVector(lin.Vec3[R]{1, 0, 0}),
		pos.TransformVector(lin.Vec3[R]{0, 1, 0}),
		pos.TransformVector(lin.Vec3[R]{0, 0, 1}),
	}
}

// projectedRadius returns the half-width of a box's projection onto
// unit axis.
func projectedRadius[R lin.Scalar](he lin.Vec3[R], localAxes [3]lin.Vec3[R], axis lin.Vec3[R]) R {
	return he.X*absR(localAxes[0].Dot(axis)) + he.Y*absR(localAxes[1].Dot(axis)) + he.Z*absR(localAxes[2].Dot(axis))
}

func absR[R lin.Scalar](v R) R {
	if v < 0 {
		return -v
	}
	return v
}

func boxBoxAxes[R lin.Scalar](boxA Box[R], posA lin.Isometry[R], boxB Box[R], posB lin.Isometry[R]) []axisResult[R] {
	axesA := boxAxes(posA)
	axesB := boxAxes(posB)
	center := posB.Trans.Sub(posA.Trans)

	candidates := append(append([]lin.Vec3[R]{}, axesA[:]...), axesB[:]...)
	results := make([]axisResult[R], 0, len(candidates))
	for _, raw := range candidates {
		axis := raw.Unit()
		if axis.LenSqr() == 0 {
			continue
		}
		dist := absR(center.Dot(axis))
		radiusA := projectedRadius[R](boxA.HalfExtent, axesA, axis)
		radiusB := projectedRadius[R](boxB.HalfExtent, axesB, axis)
		gap := dist - (radiusA + radiusB)
		if center.Dot(axis) < 0 {
			axis = axis.Neg()
		}
		results = append(results, axisResult[R]{normal: axis, gap: gap})
	}
	return results
}

func (boxBox[R]) Update(posA, posB lin.Isometry[R], shapeA, shapeB *shape.Handle, prediction R) []dispatch.Contact[R] {
	boxA, oka := shapeA.Geometry().(Box[R])
	boxB, okb := shapeB.Geometry().(Box[R])
	if !oka || !okb {
		return nil
	}
	axes := boxBoxAxes(boxA, posA, boxB, posB)
	if len(axes) == 0 {
		return nil
	}
	best := axes[0]
	for _, a := range axes[1:] {
		if a.gap > best.gap {
			best = a
		}
	}
	if best.gap > prediction {
		return nil
	}
	depth := -best.gap
	// Witness point: the midpoint between the two boxes' centers,
	// pushed out along the normal by each box's projected radius —
	// an approximation of the true contact point a full EPA pass
	// would return. WorldPoint1 sits on the A side (normal points
	// A->B), WorldPoint2 on the B side, so (WorldPoint1-WorldPoint2)
	// . Normal == Depth, matching ballBall and planeConvex.
	mid := posA.Trans.Add(posB.Trans).Scale(0.5)
	return []dispatch.Contact[R]{{
		WorldPoint1: mid.Add(best.normal.Scale(depth / 2)),
		WorldPoint2: mid.Add(best.normal.Scale(-depth / 2)),
		Normal:      best.normal,
		Depth:       depth,
	}}
}

// boxBoxProximity is the proximity-flavored twin of boxBox.
type boxBoxProximity[R lin.Scalar] struct{}

func newBoxBoxProximity[R lin.Scalar](_, _ *shape.Handle) dispatch.ProximityGenerator[R] {
	return boxBoxProximity[R]{}
}

func (boxBoxProximity[R]) Update(posA, posB lin.Isometry[R], shapeA, shapeB *shape.Handle, margin R) dispatch.ProximityStatus {
	boxA, oka := shapeA.Geometry().(Box[R])
	boxB, okb := shapeB.Geometry().(Box[R])
	if !oka || !okb {
		return dispatch.Disjoint
	}
	axes := boxBoxAxes(boxA, posA, boxB, posB)
	worstGap := axes[0].gap
	for _, a := range axes[1:] {
		if a.gap > worstGap {
			worstGap = a.gap
		}
	}
	return classify(worstGap, margin)
}
