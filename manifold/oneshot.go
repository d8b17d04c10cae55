package manifold

import (
	"github.com/galvanizedlogic/collide/dispatch"
	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/shape"
)

// perturbAngle is the small rotation OneShotWrapper applies on the
// tick a contact is first detected, to uncover the other contact
// points a single-shot algorithm like boxBox never reports (spec.md
// §4.4: "perturb orientation on first detection, union perturbation
// results"). Small enough not to meaningfully change the real
// manifold, large enough to push a second, previously-degenerate
// vertex past the single-witness-point threshold.
const perturbAngle = 0.08 // radians

// OneShotWrapper turns a single-witness-point algorithm (boxBox, or
// any future GJK+EPA implementation) into a multi-point manifold by
// perturbing one object's orientation the tick a contact first
// appears, collecting the union of witness points the perturbed poses
// report, and handing the result to an IncrementalWrapper to retain
// across subsequent ticks (spec.md §4.4's "One-shot" wrapper).
//
// Grounded on the same teacher source as IncrementalWrapper
// (other_examples/c88e8385_gazed-vu__physics-contact.go.go's
// contactPair), which likewise treats the first tick of a new overlap
// specially before settling into steady-state retention.
type OneShotWrapper[R lin.Scalar] struct {
	inner       dispatch.ContactGenerator[R]
	incremental *IncrementalWrapper[R]
	armed       bool // true once a manifold has been seeded and not yet fully separated.
}

// NewOneShotWrapper wraps inner, a single-point algorithm, retaining
// at most maxPoints contacts once seeded (2 for 2D, 4 for 3D).
func NewOneShotWrapper[R lin.Scalar](inner dispatch.ContactGenerator[R], maxPoints int) *OneShotWrapper[R] {
	return &OneShotWrapper[R]{
		inner:       inner,
		incremental: NewIncrementalWrapper(inner, maxPoints),
	}
}

func (w *OneShotWrapper[R]) Update(posA, posB lin.Isometry[R], shapeA, shapeB *shape.Handle, prediction R) []dispatch.Contact[R] {
	if !w.armed {
		seed := w.inner.Update(posA, posB, shapeA, shapeB, prediction)
		if len(seed) == 0 {
			return nil
		}
		w.armed = true
		for _, c := range seed {
			w.incremental.merge(posA, posB, c)
		}
		for _, perturbed := range perturbedPoses(posB, seed[0].Normal) {
			for _, c := range w.inner.Update(posA, perturbed, shapeA, shapeB, prediction) {
				w.incremental.merge(posA, posB, c)
			}
		}
		return w.incremental.refresh(posA, posB, prediction)
	}

	result := w.incremental.Update(posA, posB, shapeA, shapeB, prediction)
	if len(result) == 0 {
		w.armed = false // fully separated: re-arm so the next overlap perturbs again.
	}
	return result
}

// perturbedPoses returns posB rotated by ±perturbAngle about each of
// the two world-space axes orthogonal to normal — the four probe
// orientations spec.md §4.4 calls for. normal is world-space (every
// kernel contact algorithm reports Normal that way), so the rotation
// is left-multiplied onto posB's orientation (lin.Compose applies its
// second argument first); right-multiplying would instead rotate
// posB's local-frame coordinates before its own orientation applies.
// posB's translation is kept, so each probe rotates B about its own
// center rather than about the world origin.
func perturbedPoses[R lin.Scalar](posB lin.Isometry[R], normal lin.Vec3[R]) []lin.Isometry[R] {
	axis1, axis2 := orthogonalAxes(normal)
	angle := R(perturbAngle)
	axes := []lin.Vec3[R]{axis1, axis1.Neg(), axis2, axis2.Neg()}
	out := make([]lin.Isometry[R], len(axes))
	for i, axis := range axes {
		out[i] = lin.Compose(lin.RotationAxis[R](axis, angle), posB)
		out[i].Trans = posB.Trans
	}
	return out
}

// orthogonalAxes returns two unit vectors orthogonal to normal and to
// each other, picking an arbitrary basis when normal is degenerate.
func orthogonalAxes[R lin.Scalar](normal lin.Vec3[R]) (lin.Vec3[R], lin.Vec3[R]) {
	n := normal.Unit()
	ref := lin.Vec3[R]{X: 1, Y: 0, Z: 0}
	if abs(n.X) > 0.9 {
		ref = lin.Vec3[R]{X: 0, Y: 1, Z: 0}
	}
	axis1 := n.Cross(ref).Unit()
	axis2 := n.Cross(axis1).Unit()
	return axis1, axis2
}

func abs[R lin.Scalar](v R) R {
	if v < 0 {
		return -v
	}
	return v
}
