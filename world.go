// Package collide is a two-stage (broad phase / narrow phase)
// collision-detection core: it maintains, for a dynamic population of
// objects, the set of currently interacting pairs and the geometric
// details of those interactions, amortizing cost across ticks by
// exploiting temporal coherence (spec.md §1).
//
// World is the single entry point: allocate one with NewWorld, add
// objects with Add, move them with SetPosition, and call Update once
// per tick to atomically apply every deferred change and re-derive
// the pair set, manifolds, and proximity statuses.
package collide

import (
	"log"

	"github.com/galvanizedlogic/collide/broadphase"
	"github.com/galvanizedlogic/collide/dispatch"
	"github.com/galvanizedlogic/collide/kernel"
	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/narrowphase"
	"github.com/galvanizedlogic/collide/shape"
)

type opKind uint8

const (
	opAdd opKind = iota
	opRemove
	opMove
)

type deferredOp[R Scalar] struct {
	kind     opKind
	handle   ObjectHandle
	position lin.Isometry[R]
	shape    *shape.Handle
	groups   CollisionGroups
	query    QueryType[R]
	data     any
}

// Pair identifies two objects sharing a narrow-phase slot.
type Pair = narrowphase.Pair

// World owns the object registry, both dispatchers, the broad phase,
// the narrow phase, a deferred-operation queue, and the named filter
// and handler registries — spec.md §4.6.
type World[R Scalar] struct {
	margin     R
	nextHandle ObjectHandle
	objects    map[ObjectHandle]*CollisionObject[R]

	bp          *broadphase.BroadPhase[R, ObjectHandle]
	np          *narrowphase.NarrowPhase[R]
	contacts    *dispatch.ContactDispatcher[R]
	proximities *dispatch.ProximityDispatcher[R]

	deferred []deferredOp[R]

	filters     map[string]BroadPhasePairFilter[R]
	proxOrder   []string
	proxHandler map[string]ProximityHandler[R]
	conOrder    []string
	conHandler  map[string]ContactHandler[R]

	logger *log.Logger
}

// WorldOption tunes a World at construction, following the same
// optional-knob idiom the rest of this module's constructors use.
type WorldOption[R Scalar] func(*World[R])

// WithLogger stores l as the world's logger (default log.Default()),
// matching the teacher's pattern of a single overridable default
// (physics.go's package-level `margin` var). The narrow phase's
// warnings do not go through it: they are written with the standard
// library's package-level log functions.
func WithLogger[R Scalar](l *log.Logger) WorldOption[R] {
	return func(w *World[R]) { w.logger = l }
}

// NewWorld returns an empty world with the given broad-phase loosening
// margin (spec.md §4.2's "a loosening margin ≥ 0").
func NewWorld[R Scalar](margin R, opts ...WorldOption[R]) *World[R] {
	contacts, proximities := kernel.BuildDispatchers[R]()
	w := &World[R]{
		margin:      margin,
		objects:     make(map[ObjectHandle]*CollisionObject[R]),
		bp:          broadphase.New[R, ObjectHandle](margin),
		np:          narrowphase.New[R](contacts, proximities),
		contacts:    contacts,
		proximities: proximities,
		filters:     make(map[string]BroadPhasePairFilter[R]),
		proxHandler: make(map[string]ProximityHandler[R]),
		conHandler:  make(map[string]ContactHandler[R]),
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Add enqueues the creation of a new object; it is not visible to
// queries until the next Update (spec.md §4.6).
func (w *World[R]) Add(position lin.Isometry[R], shp *shape.Handle, groups CollisionGroups, query QueryType[R], data any) ObjectHandle {
	w.nextHandle++
	h := w.nextHandle
	w.deferred = append(w.deferred, deferredOp[R]{
		kind: opAdd, handle: h, position: position, shape: shp, groups: groups, query: query, data: data,
	})
	return h
}

// Remove enqueues destruction of the given objects.
func (w *World[R]) Remove(handles ...ObjectHandle) {
	for _, h := range handles {
		w.deferred = append(w.deferred, deferredOp[R]{kind: opRemove, handle: h})
	}
}

// SetPosition enqueues a position change, effective at the next
// Update.
func (w *World[R]) SetPosition(h ObjectHandle, position lin.Isometry[R]) {
	w.deferred = append(w.deferred, deferredOp[R]{kind: opMove, handle: h, position: position})
}

// RegisterBroadPhasePairFilter installs a named admission filter and
// forces a broad-phase recompute-all, since filter semantics just
// changed (spec.md §4.6).
func (w *World[R]) RegisterBroadPhasePairFilter(name string, f BroadPhasePairFilter[R]) {
	w.filters[name] = f
	w.bp.DeferredRecomputeAllProximities()
}

// UnregisterBroadPhasePairFilter removes a named filter and forces a
// recompute-all.
func (w *World[R]) UnregisterBroadPhasePairFilter(name string) {
	delete(w.filters, name)
	w.bp.DeferredRecomputeAllProximities()
}

// RegisterProximityHandler installs a named proximity event handler.
// Registration order determines delivery order (spec.md §9); a second
// registration under the same name replaces the handler in place.
func (w *World[R]) RegisterProximityHandler(name string, h ProximityHandler[R]) {
	if _, exists := w.proxHandler[name]; !exists {
		w.proxOrder = append(w.proxOrder, name)
	}
	w.proxHandler[name] = h
}

// UnregisterProximityHandler removes a named proximity event handler.
func (w *World[R]) UnregisterProximityHandler(name string) {
	delete(w.proxHandler, name)
	w.proxOrder = removeName(w.proxOrder, name)
}

// RegisterContactHandler installs a named contact event handler.
func (w *World[R]) RegisterContactHandler(name string, h ContactHandler[R]) {
	if _, exists := w.conHandler[name]; !exists {
		w.conOrder = append(w.conOrder, name)
	}
	w.conHandler[name] = h
}

// UnregisterContactHandler removes a named contact event handler.
func (w *World[R]) UnregisterContactHandler(name string) {
	delete(w.conHandler, name)
	w.conOrder = removeName(w.conOrder, name)
}

func removeName(names []string, target string) []string {
	for i, n := range names {
		if n == target {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}

// CollisionObject returns the live object for handle, consistent with
// the last completed Update.
func (w *World[R]) CollisionObject(h ObjectHandle) (*CollisionObject[R], bool) {
	co, ok := w.objects[h]
	return co, ok
}

// ContactPairs returns every pair currently reporting at least one
// contact.
func (w *World[R]) ContactPairs() []Pair { return w.np.ContactPairs() }

// ProximityPairs returns every pair whose current status is not
// Disjoint.
func (w *World[R]) ProximityPairs() []Pair { return w.np.ProximityPairs() }

// Contacts returns every live contact manifold, keyed by pair.
func (w *World[R]) Contacts() map[Pair][]Contact[R] { return w.np.Contacts() }

// NumInterferences reports the broad phase's current pair-set size.
func (w *World[R]) NumInterferences() int { return w.bp.NumInterferences() }

// Diagnostics reports the UnsupportedShapePair and NumericalFailure
// counters spec.md §7 calls for.
func (w *World[R]) Diagnostics() (unsupportedPairs, numericalFailures int) {
	return w.np.Diagnostics()
}

// InterferencesWithAABB appends every object whose loosened AABB
// intersects q and whose groups admit the given probe groups.
func (w *World[R]) InterferencesWithAABB(q lin.AABB[R], groups CollisionGroups) []*CollisionObject[R] {
	handles := w.bp.InterferencesWithAABB(q, nil)
	return w.filterByGroups(handles, groups)
}

// InterferencesWithPoint appends every object whose AABB contains p
// and whose groups admit the given probe groups.
func (w *World[R]) InterferencesWithPoint(p lin.Vec3[R], groups CollisionGroups) []*CollisionObject[R] {
	handles := w.bp.InterferencesWithPoint(p, nil)
	return w.filterByGroups(handles, groups)
}

// InterferencesWithRay appends every object whose AABB is hit by r
// within [0, maxT] and whose groups admit the given probe groups.
func (w *World[R]) InterferencesWithRay(r lin.Ray[R], maxT R, groups CollisionGroups) []*CollisionObject[R] {
	handles := w.bp.InterferencesWithRay(r, maxT, nil)
	return w.filterByGroups(handles, groups)
}

func (w *World[R]) filterByGroups(handles []ObjectHandle, groups CollisionGroups) []*CollisionObject[R] {
	out := make([]*CollisionObject[R], 0, len(handles))
	for _, h := range handles {
		co, ok := w.objects[h]
		if !ok {
			continue
		}
		if groupsAdmit(groups, co.groups, false) {
			out = append(out, co)
		}
	}
	return out
}
