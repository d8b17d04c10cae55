package collide

import (
	"github.com/galvanizedlogic/collide/broadphase"
	"github.com/galvanizedlogic/collide/kernel"
	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/narrowphase"
	"github.com/galvanizedlogic/collide/shape"
)

// worldAccessor adapts World's object registry to the narrow phase's
// ObjectAccessor, so package narrowphase never needs to know about
// CollisionObject.
type worldAccessor[R Scalar] struct{ w *World[R] }

func (a worldAccessor[R]) Position(h ObjectHandle) lin.Isometry[R] {
	co, ok := a.w.objects[h]
	assertHandle(ok, "unknown object handle passed to narrow phase")
	return co.position
}

func (a worldAccessor[R]) Shape(h ObjectHandle) *shape.Handle {
	co, ok := a.w.objects[h]
	assertHandle(ok, "unknown object handle passed to narrow phase")
	return co.shape
}

func (a worldAccessor[R]) Query(h ObjectHandle) narrowphase.Query[R] {
	co, ok := a.w.objects[h]
	assertHandle(ok, "unknown object handle passed to narrow phase")
	return co.query.toNarrowphase()
}

// Update is the atomic tick of spec.md §4.6: drain the deferred queue,
// build the composite admission filter, run the broad phase, then the
// narrow phase, dispatching every resulting event to registered
// handlers in registration order. It always runs to completion —
// spec.md §7: "update() itself has no failing outcome."
func (w *World[R]) Update() {
	w.drainDeferred()

	filter := func(a, b ObjectHandle) bool {
		oa, oka := w.objects[a]
		ob, okb := w.objects[b]
		if !oka || !okb {
			return false
		}
		if !groupsAdmit(oa.groups, ob.groups, a == b) {
			return false
		}
		for _, f := range w.filters {
			if !f.IsPairValid(oa, ob) {
				return false
			}
		}
		return true
	}

	onPairNew := func(a, b ObjectHandle, isNew bool) {
		w.np.HandleInteraction(worldAccessor[R]{w}, a, b, true, w.dispatchContactStopped, w.dispatchProximityChanged)
	}
	onPairRemoved := func(a, b ObjectHandle) {
		w.np.HandleInteraction(worldAccessor[R]{w}, a, b, false, w.dispatchContactStopped, w.dispatchProximityChanged)
	}

	w.bp.Update(filter, onPairNew, onPairRemoved)
	w.np.Update(worldAccessor[R]{w}, w.dispatchContactStarted, w.dispatchContactStopped, w.dispatchProximityChanged)
}

func (w *World[R]) drainDeferred() {
	ops := w.deferred
	w.deferred = nil
	for _, op := range ops {
		switch op.kind {
		case opAdd:
			co := &CollisionObject[R]{
				handle: op.handle, position: op.position, shape: op.shape,
				groups: op.groups, query: op.query, data: op.data,
			}
			w.objects[op.handle] = co
			exact := kernel.AABB[R](op.shape, op.position)
			co.proxy = w.bp.CreateProxy(exact, op.handle)
		case opRemove:
			co, ok := w.objects[op.handle]
			if !ok {
				continue
			}
			// Tear down the object's slots while it is still registered,
			// so the final Stopped/Disjoint events reach the handlers.
			for _, p := range w.np.PairsWith(op.handle) {
				w.np.HandleRemoval(p.A, p.B, w.dispatchContactStopped, w.dispatchProximityChanged)
			}
			w.bp.Remove([]broadphase.ProxyHandle{co.proxy}, func(a, b ObjectHandle) {
				w.np.HandleInteraction(worldAccessor[R]{w}, a, b, false, w.dispatchContactStopped, w.dispatchProximityChanged)
			})
			delete(w.objects, op.handle)
		case opMove:
			co, ok := w.objects[op.handle]
			if !ok {
				continue
			}
			co.position = op.position
			exact := kernel.AABB[R](co.shape, op.position)
			w.bp.DeferredSetBoundingVolume(co.proxy, exact)
		}
	}
}

func (w *World[R]) dispatchContactStarted(ev narrowphase.ContactStarted[R]) {
	a, b := w.objects[ev.A], w.objects[ev.B]
	if a == nil || b == nil {
		return
	}
	for _, name := range w.conOrder {
		w.conHandler[name].HandleContactStarted(a, b, ev.Algo)
	}
}

func (w *World[R]) dispatchContactStopped(ev narrowphase.ContactStopped) {
	a, b := w.objects[ev.A], w.objects[ev.B]
	if a == nil || b == nil {
		return
	}
	for _, name := range w.conOrder {
		w.conHandler[name].HandleContactStopped(a, b)
	}
}

func (w *World[R]) dispatchProximityChanged(ev narrowphase.ProximityChanged) {
	a, b := w.objects[ev.A], w.objects[ev.B]
	if a == nil || b == nil {
		return
	}
	for _, name := range w.proxOrder {
		w.proxHandler[name].HandleProximity(a, b, ev.Prev, ev.New)
	}
}

// Collide checks whether a and b are presently touching or
// overlapping, independent of the broad phase's pair set — a one-off
// check in the spirit of the teacher's Physics.Collide (physics.go).
// It runs the contact dispatcher fresh each call rather than reusing
// any persistent narrow-phase slot, so it has no effect on Update's
// bookkeeping.
func (w *World[R]) Collide(a, b ObjectHandle) bool {
	oa, oka := w.objects[a]
	ob, okb := w.objects[b]
	if !oka || !okb {
		return false
	}
	algo, ok := w.contacts.For(oa.shape, ob.shape)
	if !ok {
		return false
	}
	return len(algo.Update(oa.position, ob.position, oa.shape, ob.shape, 0)) > 0
}

// Raycast finds the nearest object hit by r within [0, maxT], in the
// spirit of the teacher's package-level Cast helper (physics.go). It
// is a broad-phase-only approximation (AABB hit, not exact shape
// intersection): the geometry kernel's exact ray/shape primitives are
// an external collaborator (spec.md §1) this module does not implement.
// Candidates come from the broad phase's loosened AABBs and are ranked
// by where r enters each object's exact AABB; a candidate whose exact
// AABB r misses ranks at maxT.
func (w *World[R]) Raycast(r lin.Ray[R], maxT R) (hit *CollisionObject[R], ok bool) {
	var hitT R
	for _, h := range w.bp.InterferencesWithRay(r, maxT, nil) {
		co, exists := w.objects[h]
		if !exists {
			continue
		}
		t := maxT
		if entered, te := kernel.AABB[R](co.shape, co.position).IntersectsRay(r, maxT); entered {
			t = te
		}
		if hit == nil || t < hitT {
			hit, hitT = co, t
		}
	}
	return hit, hit != nil
}
