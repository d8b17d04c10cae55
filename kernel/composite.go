package kernel

import (
	"github.com/galvanizedlogic/collide/dispatch"
	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/shape"
)

// Child is one member of a Compound or Mesh: a shape plus its local
// transform relative to the compound's own isometry.
type Child[R lin.Scalar] struct {
	Local lin.Isometry[R]
	Shape *shape.Handle
}

// Compound is a reference stand-in for spec.md §4.3's "composite
// (mesh/compound)" category — a rigid grouping of sub-shapes. A real
// geometry kernel's compound/mesh types are out of scope (spec.md §1);
// this one exists so the dispatcher's recursive traversal has
// something concrete to recurse over in tests.
type Compound[R lin.Scalar] struct {
	Children []Child[R]
}

func (Compound[R]) ShapeType() shape.Type { return shape.Composite }

// Mesh is the concave counterpart of Compound, standing in for a
// triangle mesh's per-triangle BVH leaves (spec.md §4.3's "concave /
// concave: BVH × BVH traversal"). A production kernel would walk a
// real triangle BVH; this reference kernel reuses the same
// Children-list shape since it is not implementing mesh geometry,
// only the dispatch recursion spec.md §4.3 describes.
type Mesh[R lin.Scalar] struct {
	Children []Child[R]
}

func (Mesh[R]) ShapeType() shape.Type { return shape.TriMesh }

func compoundChildren[R lin.Scalar](h *shape.Handle) ([]Child[R], bool) {
	switch g := h.Geometry().(type) {
	case Compound[R]:
		return g.Children, true
	case Mesh[R]:
		return g.Children, true
	default:
		return nil, false
	}
}

// compositeContact implements spec.md §4.3's recursive traversal:
// "composite (mesh/compound) / any: recursive BVH traversal delegating
// sub-pairs back to the dispatcher" and "concave/concave: BVH × BVH
// traversal" (the latter is the case where both sides recurse).
//
// Sub-pair algorithm instances are looked up from the dispatcher fresh
// each Update rather than cached for the composite's lifetime. That is
// a deliberate simplification: the narrow phase already gives the
// *outer* (objectA, objectB) pair one persistent slot per spec.md
// §4.5, which is what the spec's statefulness guarantee is about; the
// sub-shape algorithms inside a compound are an implementation detail
// of this one slot, and re-deriving them per tick trades a small
// amount of warm-start state (e.g. a nested GJK simplex) for not
// having to key and garbage-collect a cache of per-child-pair state
// that would otherwise need to track compound mutation (children are
// immutable per object lifetime, so this only costs CPU, not
// correctness).
type compositeContact[R lin.Scalar] struct {
	dispatcher *dispatch.ContactDispatcher[R]
}

func newCompositeContactFactory[R lin.Scalar](d *dispatch.ContactDispatcher[R]) dispatch.ContactFactory[R] {
	return func(_, _ *shape.Handle) dispatch.ContactGenerator[R] {
		return &compositeContact[R]{dispatcher: d}
	}
}

func (c *compositeContact[R]) Update(posA, posB lin.Isometry[R], shapeA, shapeB *shape.Handle, prediction R) []dispatch.Contact[R] {
	childrenA, isCompoundA := compoundChildren[R](shapeA)
	childrenB, isCompoundB := compoundChildren[R](shapeB)

	var out []dispatch.Contact[R]
	switch {
	case isCompoundA && isCompoundB:
		for _, ca := range childrenA {
			worldA := lin.Compose(posA, ca.Local)
			for _, cb := range childrenB {
				worldB := lin.Compose(posB, cb.Local)
				out = append(out, c.subContacts(worldA, worldB, ca.Shape, cb.Shape, prediction)...)
			}
		}
	case isCompoundA:
		for _, ca := range childrenA {
			worldA := lin.Compose(posA, ca.Local)
			out = append(out, c.subContacts(worldA, posB, ca.Shape, shapeB, prediction)...)
		}
	case isCompoundB:
		for _, cb := range childrenB {
			worldB := lin.Compose(posB, cb.Local)
			out = append(out, c.subContacts(posA, worldB, shapeA, cb.Shape, prediction)...)
		}
	}
	return out
}

func (c *compositeContact[R]) subContacts(worldA, worldB lin.Isometry[R], a, b *shape.Handle, prediction R) []dispatch.Contact[R] {
	gen, ok := c.dispatcher.For(a, b)
	if !ok {
		return nil
	}
	return gen.Update(worldA, worldB, a, b, prediction)
}

// compositeProximity is the proximity-flavored twin: it reports the
// best (closest-to-intersecting) status among every sub-pair.
type compositeProximity[R lin.Scalar] struct {
	dispatcher *dispatch.ProximityDispatcher[R]
}

func newCompositeProximityFactory[R lin.Scalar](d *dispatch.ProximityDispatcher[R]) dispatch.ProximityFactory[R] {
	return func(_, _ *shape.Handle) dispatch.ProximityGenerator[R] {
		return &compositeProximity[R]{dispatcher: d}
	}
}

func (c *compositeProximity[R]) Update(posA, posB lin.Isometry[R], shapeA, shapeB *shape.Handle, margin R) dispatch.ProximityStatus {
	childrenA, isCompoundA := compoundChildren[R](shapeA)
	childrenB, isCompoundB := compoundChildren[R](shapeB)

	best := dispatch.Disjoint
	consider := func(worldA, worldB lin.Isometry[R], a, b *shape.Handle) {
		gen, ok := c.dispatcher.For(a, b)
		if !ok {
			return
		}
		if status := gen.Update(worldA, worldB, a, b, margin); status > best {
			best = status
		}
	}

	switch {
	case isCompoundA && isCompoundB:
		for _, ca := range childrenA {
			for _, cb := range childrenB {
				consider(lin.Compose(posA, ca.Local), lin.Compose(posB, cb.Local), ca.Shape, cb.Shape)
			}
		}
	case isCompoundA:
		for _, ca := range childrenA {
			consider(lin.Compose(posA, ca.Local), posB, ca.Shape, shapeB)
		}
	case isCompoundB:
		for _, cb := range childrenB {
			consider(posA, lin.Compose(posB, cb.Local), shapeA, cb.Shape)
		}
	}
	return best
}
