// Package dispatch selects and holds the persistent narrow-phase
// algorithm for a pair of shape types (spec.md §4.3). It defines the
// Contact/Proximity result types exposed to callers (§6), the
// ContactGenerator/ProximityGenerator interfaces algorithms implement,
// and a Dispatcher keyed by the unordered pair of shape type tags.
//
// The dispatcher itself never computes geometry — that is the geometry
// kernel's job (spec.md §1). It only owns the registry and the
// lookup/recursion logic for composite and concave shapes.
package dispatch

import (
	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/shape"
)

// Contact is a single point of a contact manifold, exposed to callers
// per spec.md §6: "Contact { world_point1, world_point2, normal,
// depth }".
type Contact[R lin.Scalar] struct {
	WorldPoint1 lin.Vec3[R]
	WorldPoint2 lin.Vec3[R]
	Normal      lin.Vec3[R]
	Depth       R
}

// ProximityStatus is the three-state proximity result spec.md §3
// names under QueryType.Proximity.
type ProximityStatus uint8

const (
	Disjoint ProximityStatus = iota
	WithinMargin
	Intersecting
)

func (s ProximityStatus) String() string {
	switch s {
	case Disjoint:
		return "Disjoint"
	case WithinMargin:
		return "WithinMargin"
	case Intersecting:
		return "Intersecting"
	default:
		return "Unknown"
	}
}

// ContactGenerator is a persistent, stateful contact algorithm
// instance matched to one pair of objects for its whole life (spec.md
// §4.3: "Algorithm instances are stateful... and MUST be matched to
// the same shape pair for their whole life"). Update is called once
// per narrow-phase tick and returns the current manifold — zero
// contacts means the pair is not presently in contact.
type ContactGenerator[R lin.Scalar] interface {
	Update(posA, posB lin.Isometry[R], shapeA, shapeB *shape.Handle, prediction R) []Contact[R]
}

// ProximityGenerator is the proximity-flavored counterpart of
// ContactGenerator, used when the pair's effective QueryType is
// Proximity (spec.md §3, §4.3).
type ProximityGenerator[R lin.Scalar] interface {
	Update(posA, posB lin.Isometry[R], shapeA, shapeB *shape.Handle, margin R) ProximityStatus
}

// ContactFactory builds a fresh, pair-specific ContactGenerator. The
// dispatcher calls this once per accepted pair (spec.md §4.3's
// registry entries) — never shares one instance across pairs, since
// algorithm instances retain per-pair state (simplex, witness cache).
type ContactFactory[R lin.Scalar] func(shapeA, shapeB *shape.Handle) ContactGenerator[R]

// ProximityFactory is the ProximityGenerator counterpart of
// ContactFactory.
type ProximityFactory[R lin.Scalar] func(shapeA, shapeB *shape.Handle) ProximityGenerator[R]

type pairKey struct {
	a, b shape.Type
}

func canon(a, b shape.Type) pairKey {
	if a <= b {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

// ContactDispatcher holds the fixed registry of contact algorithms,
// keyed by the unordered pair of shape type tags (spec.md §4.3, §9
// "canonicalize to (min(h1,h2), max(h1,h2)) before hashing" — the same
// canonicalization idea applied to shape types instead of handles).
type ContactDispatcher[R lin.Scalar] struct {
	table map[pairKey]ContactFactory[R]
}

// NewContactDispatcher returns an empty dispatcher; use Register to
// populate it, or kernel.BuildDispatchers for the default registry.
func NewContactDispatcher[R lin.Scalar]() *ContactDispatcher[R] {
	return &ContactDispatcher[R]{table: map[pairKey]ContactFactory[R]{}}
}

// Register installs f as the algorithm factory for the unordered pair
// (a, b). Registering the same pair twice overwrites the previous
// entry — used by composite/concave registration, which must close
// over the dispatcher itself for recursive sub-pair dispatch (spec.md
// §4.3: "composite... recursive BVH traversal delegating sub-pairs
// back to the dispatcher").
func (d *ContactDispatcher[R]) Register(a, b shape.Type, f ContactFactory[R]) {
	d.table[canon(a, b)] = f
}

// For returns the ContactGenerator for the pair (shapeA.Type(),
// shapeB.Type()), or ok=false if no algorithm is registered — spec.md
// §4.3's "Returns either an algorithm instance... or None". A false
// result is not an error; the narrow phase treats it as
// UnsupportedShapePair (spec.md §7) and silently ignores the pair.
func (d *ContactDispatcher[R]) For(shapeA, shapeB *shape.Handle) (ContactGenerator[R], bool) {
	f, ok := d.table[canon(shapeA.Type(), shapeB.Type())]
	if !ok {
		return nil, false
	}
	return f(shapeA, shapeB), true
}

// ProximityDispatcher is the ProximityGenerator counterpart of
// ContactDispatcher.
type ProximityDispatcher[R lin.Scalar] struct {
	table map[pairKey]ProximityFactory[R]
}

func NewProximityDispatcher[R lin.Scalar]() *ProximityDispatcher[R] {
	return &ProximityDispatcher[R]{table: map[pairKey]ProximityFactory[R]{}}
}

func (d *ProximityDispatcher[R]) Register(a, b shape.Type, f ProximityFactory[R]) {
	d.table[canon(a, b)] = f
}

func (d *ProximityDispatcher[R]) For(shapeA, shapeB *shape.Handle) (ProximityGenerator[R], bool) {
	f, ok := d.table[canon(shapeA.Type(), shapeB.Type())]
	if !ok {
		return nil, false
	}
	return f(shapeA, shapeB), true
}
