// Package narrowphase implements spec.md §4.5: a persistent per-pair
// algorithm slot, diffed every tick into edge-triggered
// ContactStarted/ContactStopped/ProximityChanged events. It owns
// nothing about the broad phase or the object registry — it is handed
// an ObjectAccessor at Update time and otherwise only tracks its own
// map of slots, matching the teacher's separation of broadphase and
// narrowphase into independent functions over a shared Body/Abox
// surface (physics.go's narrowphase only ever calls
// px.col.algorithms[...] and collider.apply, never touching the
// broadphase's pair bookkeeping).
package narrowphase

import (
	"errors"
	"log"
	"math"

	"github.com/galvanizedlogic/collide/dispatch"
	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/shape"
)

// ErrUnsupportedShapePair names the condition counted by Diagnostics
// when the dispatcher has no algorithm registered for a pair's shape
// types (spec.md §7: "UnsupportedShapePair — dispatcher returned
// None; silently ignored, pair never emits events, exposed only via
// diagnostic counter"). It is never returned from HandleInteraction,
// which has no failing outcome, and it is not logged; it exists so the
// counted condition and the root package's re-exported alias have a
// named value to refer to instead of a bare string.
var ErrUnsupportedShapePair = errors.New("narrowphase: no algorithm registered for this shape pair")

// ErrNumericalFailure names the condition counted by Diagnostics when
// an algorithm produces non-finite output (spec.md §7). Like
// ErrUnsupportedShapePair it is never returned from Update.
var ErrNumericalFailure = errors.New("narrowphase: algorithm produced non-finite output")

// ObjectHandle identifies an object for narrow-phase purposes. It is
// ordered so pairs can be canonicalized to (min, max) per spec.md §9;
// the root package re-exports this type as its own ObjectHandle.
type ObjectHandle int32

type pairKey struct{ a, b ObjectHandle }

func canon(a, b ObjectHandle) pairKey {
	if a <= b {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

// Kind is the effective query discipline for a pair, after the
// Contacts/Proximity downgrade rule of spec.md §3 has been applied.
type Kind uint8

const (
	KindContacts Kind = iota
	KindProximity
)

// Query is one object's declared QueryType, reduced to the single
// scalar narrowphase needs: prediction for Contacts, margin for
// Proximity (spec.md §3).
type Query[R lin.Scalar] struct {
	Kind  Kind
	Value R
}

// Effective computes the pair-level query discipline from two
// per-object queries: any Proximity side forces the pair to proximity
// semantics (spec.md §3), and the two scalars always sum — the only
// combination rule the specification states explicitly is "mixed
// Contacts(p) x Proximity(m) produces effective margin p+m"; applying
// the same sum uniformly (including the both-Contacts and
// both-Proximity cases) is this module's resolution of the otherwise
// unspecified same-kind case.
func Effective[R lin.Scalar](a, b Query[R]) (Kind, R) {
	kind := KindContacts
	if a.Kind == KindProximity || b.Kind == KindProximity {
		kind = KindProximity
	}
	return kind, a.Value + b.Value
}

// ObjectAccessor gives the narrow phase the two things it needs about
// a live object: its current position/shape and its declared query.
type ObjectAccessor[R lin.Scalar] interface {
	Position(h ObjectHandle) lin.Isometry[R]
	Shape(h ObjectHandle) *shape.Handle
	Query(h ObjectHandle) Query[R]
}

// slot is the persistent per-pair state spec.md §4.5 describes: "the
// persistent algorithm, last-result summary, and a generation counter
// incremented by update."
type slot[R lin.Scalar] struct {
	kind Kind

	contactAlgo   dispatch.ContactGenerator[R]
	proximityAlgo dispatch.ProximityGenerator[R]
	unsupported   bool // dispatcher returned None; sentinel so we don't retry every tick.

	lastContactCount int
	lastManifold     []dispatch.Contact[R]
	lastStatus       dispatch.ProximityStatus
	generation       int

	pendingTeardown bool
}

// ContactStarted is emitted when a slot's reported contact count goes
// from 0 to >=1 — spec.md §4.5. Algo is the live algorithm instance,
// matching spec.md §6's `handle_contact_started(&co1,&co2,&algo)`.
type ContactStarted[R lin.Scalar] struct {
	A, B ObjectHandle
	Algo dispatch.ContactGenerator[R]
}

// ContactStopped is emitted when a slot's reported contact count goes
// from >=1 to 0.
type ContactStopped struct {
	A, B ObjectHandle
}

// ProximityChanged is emitted on any change among
// {Intersecting, WithinMargin, Disjoint}.
type ProximityChanged struct {
	A, B ObjectHandle
	Prev dispatch.ProximityStatus
	New  dispatch.ProximityStatus
}

// NarrowPhase is the narrow phase of spec.md §4.5.
type NarrowPhase[R lin.Scalar] struct {
	slots       map[pairKey]*slot[R]
	contacts    *dispatch.ContactDispatcher[R]
	proximities *dispatch.ProximityDispatcher[R]

	unsupportedCount  int
	numericalFailures int
}

// New returns an empty narrow phase dispatching algorithms from
// contacts/proximities.
func New[R lin.Scalar](contacts *dispatch.ContactDispatcher[R], proximities *dispatch.ProximityDispatcher[R]) *NarrowPhase[R] {
	return &NarrowPhase[R]{
		slots:       make(map[pairKey]*slot[R]),
		contacts:    contacts,
		proximities: proximities,
	}
}

// HandleInteraction implements spec.md §4.5's handle_interaction: on
// started=true it creates a slot (looking up the effective algorithm
// via the dispatchers, or recording an UnsupportedShapePair sentinel);
// on started=false it removes a live slot, emitting a final
// Stopped/Disjoint event if the pair's last-known state warranted one.
func (np *NarrowPhase[R]) HandleInteraction(objs ObjectAccessor[R], h1, h2 ObjectHandle, started bool,
	onStop func(ContactStopped), onProxChange func(ProximityChanged)) {
	key := canon(h1, h2)
	if started {
		np.startSlot(objs, key)
		return
	}
	np.teardown(key, onStop, onProxChange)
}

func (np *NarrowPhase[R]) startSlot(objs ObjectAccessor[R], key pairKey) {
	if _, exists := np.slots[key]; exists {
		return
	}
	shapeA, shapeB := objs.Shape(key.a), objs.Shape(key.b)
	kind, _ := Effective(objs.Query(key.a), objs.Query(key.b))

	s := &slot[R]{kind: kind, lastStatus: dispatch.Disjoint}
	switch kind {
	case KindContacts:
		algo, ok := np.contacts.For(shapeA, shapeB)
		if !ok {
			s.unsupported = true
			np.unsupportedCount++
		} else {
			s.contactAlgo = algo
		}
	case KindProximity:
		algo, ok := np.proximities.For(shapeA, shapeB)
		if !ok {
			s.unsupported = true
			np.unsupportedCount++
		} else {
			s.proximityAlgo = algo
		}
	}
	np.slots[key] = s
}

func (np *NarrowPhase[R]) teardown(key pairKey, onStop func(ContactStopped), onProxChange func(ProximityChanged)) {
	s, ok := np.slots[key]
	if !ok {
		return
	}
	if s.kind == KindContacts && s.lastContactCount > 0 && onStop != nil {
		onStop(ContactStopped{A: key.a, B: key.b})
	}
	if s.kind == KindProximity && s.lastStatus != dispatch.Disjoint && onProxChange != nil {
		onProxChange(ProximityChanged{A: key.a, B: key.b, Prev: s.lastStatus, New: dispatch.Disjoint})
	}
	delete(np.slots, key)
}

// HandleRemoval tears a slot down unconditionally — used when an
// object itself is removed, so the slot cannot dereference a stale
// payload on the next tick (spec.md §4.5). Behaves like
// HandleInteraction(started=false) but does not require the pair to
// still be known to the broad phase.
func (np *NarrowPhase[R]) HandleRemoval(h1, h2 ObjectHandle, onStop func(ContactStopped), onProxChange func(ProximityChanged)) {
	np.teardown(canon(h1, h2), onStop, onProxChange)
}

// PairsWith returns every live slot's key that references h, for
// callers (the world, on object removal) that need to tear down every
// pair a removed object participated in.
func (np *NarrowPhase[R]) PairsWith(h ObjectHandle) []Pair {
	var out []Pair
	for key := range np.slots {
		if key.a == h || key.b == h {
			out = append(out, Pair{key.a, key.b})
		}
	}
	return out
}

// Update runs every live slot's algorithm and diffs the result against
// its last-known status, emitting edge-triggered events (spec.md
// §4.5). An algorithm producing non-finite output is treated as a
// NumericalFailure (spec.md §7): the slot's last-known status is left
// unchanged for this tick, a diagnostic counter is incremented, and a
// warning is logged — it is never fatal.
func (np *NarrowPhase[R]) Update(objs ObjectAccessor[R],
	onContactStarted func(ContactStarted[R]), onContactStopped func(ContactStopped),
	onProximityChanged func(ProximityChanged)) {
	for key, s := range np.slots {
		if s.unsupported {
			continue
		}
		posA, posB := objs.Position(key.a), objs.Position(key.b)
		shapeA, shapeB := objs.Shape(key.a), objs.Shape(key.b)
		_, value := Effective(objs.Query(key.a), objs.Query(key.b))

		switch s.kind {
		case KindContacts:
			contacts := s.contactAlgo.Update(posA, posB, shapeA, shapeB, value)
			if !contactsFinite(contacts) {
				np.numericalFailures++
				log.Printf("narrowphase: pair (%d,%d): %v, ignoring this tick", key.a, key.b, ErrNumericalFailure)
				continue
			}
			count := len(contacts)
			if s.lastContactCount == 0 && count > 0 && onContactStarted != nil {
				onContactStarted(ContactStarted[R]{A: key.a, B: key.b, Algo: s.contactAlgo})
			} else if s.lastContactCount > 0 && count == 0 && onContactStopped != nil {
				onContactStopped(ContactStopped{A: key.a, B: key.b})
			}
			s.lastContactCount = count
			s.lastManifold = contacts
		case KindProximity:
			status := s.proximityAlgo.Update(posA, posB, shapeA, shapeB, value)
			if status != s.lastStatus && onProximityChanged != nil {
				onProximityChanged(ProximityChanged{A: key.a, B: key.b, Prev: s.lastStatus, New: status})
			}
			s.lastStatus = status
		}
		s.generation++
	}
}

func contactsFinite[R lin.Scalar](cs []dispatch.Contact[R]) bool {
	for _, c := range cs {
		if !finite(c.WorldPoint1) || !finite(c.WorldPoint2) || !finite(c.Normal) || !finiteScalar(c.Depth) {
			return false
		}
	}
	return true
}

func finite[R lin.Scalar](v lin.Vec3[R]) bool {
	return finiteScalar(v.X) && finiteScalar(v.Y) && finiteScalar(v.Z)
}

func finiteScalar[R lin.Scalar](v R) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}


// Pair identifies a narrow-phase slot by its two objects.
type Pair struct{ A, B ObjectHandle }

// ContactPairs returns every pair currently reporting at least one
// contact (spec.md §4.5).
func (np *NarrowPhase[R]) ContactPairs() []Pair {
	var out []Pair
	for key, s := range np.slots {
		if s.kind == KindContacts && s.lastContactCount > 0 {
			out = append(out, Pair{key.a, key.b})
		}
	}
	return out
}

// ProximityPairs returns every pair whose current status is not
// Disjoint (spec.md §4.5).
func (np *NarrowPhase[R]) ProximityPairs() []Pair {
	var out []Pair
	for key, s := range np.slots {
		if s.kind == KindProximity && s.lastStatus != dispatch.Disjoint {
			out = append(out, Pair{key.a, key.b})
		}
	}
	return out
}

// ContactCount returns the last-known contact count for a pair.
func (np *NarrowPhase[R]) ContactCount(a, b ObjectHandle) (count int, ok bool) {
	s, exists := np.slots[canon(a, b)]
	if !exists || s.kind != KindContacts {
		return 0, false
	}
	return s.lastContactCount, true
}

// Contacts returns every pair currently reporting at least one
// contact together with its last-computed manifold (spec.md §4.6's
// `contacts()` read-only query).
func (np *NarrowPhase[R]) Contacts() map[Pair][]dispatch.Contact[R] {
	out := make(map[Pair][]dispatch.Contact[R])
	for key, s := range np.slots {
		if s.kind == KindContacts && s.lastContactCount > 0 {
			out[Pair{key.a, key.b}] = s.lastManifold
		}
	}
	return out
}

// Diagnostics reports the UnsupportedShapePair and NumericalFailure
// counters spec.md §7 requires to be "exposed only via diagnostic
// counter".
func (np *NarrowPhase[R]) Diagnostics() (unsupportedPairs, numericalFailures int) {
	return np.unsupportedCount, np.numericalFailures
}
