// Package broadphase implements spec.md §4.2's DBVT-based broad
// phase: a loosened-AABB tree of proxies, a deferred mutation queue,
// and an incrementally maintained pair set with per-pair age
// (New/Persisting/Pending-Delete). It is built directly on package
// dbvt and knows nothing about shapes, objects, or algorithms — it
// only ever compares AABBs and carries an opaque payload per proxy,
// mirroring how the teacher's physics.go broadphase function only
// ever calls Abox.Overlaps and never inspects body internals.
package broadphase

import (
	"github.com/galvanizedlogic/collide/dbvt"
	"github.com/galvanizedlogic/collide/lin"
)

// ProxyHandle identifies an object in the broad phase, distinct from
// the world-level ObjectHandle (spec.md GLOSSARY: "Proxy").
type ProxyHandle int32

// PairAge tracks how long a pair has persisted in the pair set
// (spec.md §4.2).
type PairAge uint8

const (
	AgeNew PairAge = iota
	AgePersisting
	AgePendingDelete
)

func (a PairAge) String() string {
	switch a {
	case AgeNew:
		return "New"
	case AgePersisting:
		return "Persisting"
	case AgePendingDelete:
		return "PendingDelete"
	default:
		return "Unknown"
	}
}

// pairKey canonicalizes an unordered pair of proxies to (min, max)
// before hashing, per spec.md §9.
type pairKey struct{ a, b ProxyHandle }

func canon(a, b ProxyHandle) pairKey {
	if a <= b {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

type proxyState[R lin.Scalar, P any] struct {
	leaf         dbvt.LeafID
	exactAABB    lin.AABB[R]
	loosenedAABB lin.AABB[R]
	payload      P
	inserted     bool // leaf already exists in the tree.
}

type pendingRefit[R lin.Scalar] struct {
	handle ProxyHandle
	exact  lin.AABB[R]
}

type pendingRemoval[P any] struct {
	handle        ProxyHandle
	onPairRemoved func(a, b P)
}

// Filter decides whether a geometrically-candidate pair is admitted
// into the pair set — spec.md §4.2's "filter".
type Filter[P any] func(a, b P) bool

// OnPairNew is invoked once per pair birth (or re-acceptance after a
// recompute-all), spec.md §4.2's on_pair_new callback.
type OnPairNew[P any] func(a, b P, isNew bool)

// OnPairRemoved is invoked once per pair death, spec.md §4.2's
// on_pair_removed callback.
type OnPairRemoved[P any] func(a, b P)

// BroadPhase is the DBVT-based broad phase of spec.md §4.2.
type BroadPhase[R lin.Scalar, P any] struct {
	margin R
	tree   *dbvt.Tree[R, ProxyHandle]
	proxy  map[ProxyHandle]*proxyState[R, P]
	next   ProxyHandle

	pairs        map[pairKey]PairAge
	recomputeAll bool

	pendingCreate  []ProxyHandle
	pendingRefits  []pendingRefit[R]
	pendingRemoves []pendingRemoval[P]
}

// New returns an empty broad phase that loosens every inserted AABB by
// margin on every face.
func New[R lin.Scalar, P any](margin R) *BroadPhase[R, P] {
	return &BroadPhase[R, P]{
		margin: margin,
		tree:   dbvt.New[R, ProxyHandle](),
		proxy:  make(map[ProxyHandle]*proxyState[R, P]),
		pairs:  make(map[pairKey]PairAge),
	}
}

// CreateProxy allocates a handle and enqueues a start-tracking record;
// the leaf is inserted into the DBVT at the next Update (spec.md §4.2).
func (bp *BroadPhase[R, P]) CreateProxy(bv lin.AABB[R], data P) ProxyHandle {
	bp.next++
	h := bp.next
	bp.proxy[h] = &proxyState[R, P]{
		exactAABB:    bv,
		loosenedAABB: bv.Loosened(bp.margin),
		payload:      data,
	}
	bp.pendingCreate = append(bp.pendingCreate, h)
	return h
}

// Remove marks every handle for deletion; at the next Update its leaf
// is removed and onPairRemoved fires for every pair it was part of
// (spec.md §4.2).
func (bp *BroadPhase[R, P]) Remove(handles []ProxyHandle, onPairRemoved OnPairRemoved[P]) {
	for _, h := range handles {
		bp.pendingRemoves = append(bp.pendingRemoves, pendingRemoval[P]{handle: h, onPairRemoved: onPairRemoved})
	}
}

// DeferredSetBoundingVolume queues a refit request with the new exact
// AABB, effective at the next Update (spec.md §4.2).
func (bp *BroadPhase[R, P]) DeferredSetBoundingVolume(handle ProxyHandle, bv lin.AABB[R]) {
	bp.pendingRefits = append(bp.pendingRefits, pendingRefit[R]{handle: handle, exact: bv})
}

// DeferredRecomputeAllProximities sets a flag that forces the next
// Update to re-evaluate every candidate pair against the current
// filter and re-report acceptance transitions (spec.md §4.2).
func (bp *BroadPhase[R, P]) DeferredRecomputeAllProximities() {
	bp.recomputeAll = true
}

// NumInterferences reports |P|, the current pair-set size.
func (bp *BroadPhase[R, P]) NumInterferences() int { return len(bp.pairs) }

// InterferencesWithAABB appends the payload of every proxy whose
// stored (loosened) AABB intersects q.
func (bp *BroadPhase[R, P]) InterferencesWithAABB(q lin.AABB[R], out []P) []P {
	bp.tree.QueryAABB(q, func(_ dbvt.LeafID, h ProxyHandle) bool {
		out = append(out, bp.proxy[h].payload)
		return true
	})
	return out
}

// InterferencesWithPoint appends the payload of every proxy whose
// stored AABB contains p.
func (bp *BroadPhase[R, P]) InterferencesWithPoint(p lin.Vec3[R], out []P) []P {
	bp.tree.QueryPoint(p, func(_ dbvt.LeafID, h ProxyHandle) bool {
		out = append(out, bp.proxy[h].payload)
		return true
	})
	return out
}

// InterferencesWithRay appends the payload of every proxy whose
// stored AABB is hit by r within [0, maxT].
func (bp *BroadPhase[R, P]) InterferencesWithRay(r lin.Ray[R], maxT R, out []P) []P {
	bp.tree.QueryRay(r, maxT, func(_ dbvt.LeafID, h ProxyHandle) bool {
		out = append(out, bp.proxy[h].payload)
		return true
	})
	return out
}

// Update runs the six-step protocol of spec.md §4.2: drain removals,
// drain insertions, drain refits (discovering candidate pairs as it
// goes), admit new candidates through filter, optionally rebuild the
// whole pair set against filter if a recompute was requested, then
// promote all New pairs to Persisting.
//
// onPairRemoved here is used only during a recompute-all pass, for
// pairs a filter change rejects and for pairs whose loosened AABBs no
// longer overlap — spec.md §4.6 step 3 describes this
// callback as "pre-supplied at removal time and for removals
// synthesized by filter changes", i.e. the same handler Remove takes
// must also be reachable here for the filter-synthesized case.
func (bp *BroadPhase[R, P]) Update(filter Filter[P], onPairNew OnPairNew[P], onPairRemoved OnPairRemoved[P]) {
	bp.drainRemovals()
	bp.drainInsertions(filter, onPairNew)
	bp.drainRefits(filter, onPairNew)
	if bp.recomputeAll {
		bp.runRecomputeAll(filter, onPairNew, onPairRemoved)
		bp.recomputeAll = false
	}
	for k, age := range bp.pairs {
		if age == AgeNew {
			bp.pairs[k] = AgePersisting
		}
	}
}

func (bp *BroadPhase[R, P]) drainRemovals() {
	removals := bp.pendingRemoves
	bp.pendingRemoves = nil
	for _, rm := range removals {
		ps, ok := bp.proxy[rm.handle]
		if !ok {
			continue
		}
		for k := range bp.pairs {
			if k.a != rm.handle && k.b != rm.handle {
				continue
			}
			other := k.a
			if other == rm.handle {
				other = k.b
			}
			if rm.onPairRemoved != nil {
				otherPayload := bp.proxy[other].payload
				rm.onPairRemoved(ps.payload, otherPayload)
			}
			delete(bp.pairs, k)
		}
		if ps.inserted {
			bp.tree.Remove(ps.leaf)
		}
		delete(bp.proxy, rm.handle)
	}
}

func (bp *BroadPhase[R, P]) drainInsertions(filter Filter[P], onPairNew OnPairNew[P]) {
	created := bp.pendingCreate
	bp.pendingCreate = nil
	for _, h := range created {
		ps, ok := bp.proxy[h]
		if !ok {
			continue // removed before ever being inserted.
		}
		ps.leaf = bp.tree.Insert(ps.loosenedAABB, h)
		ps.inserted = true
		bp.discoverCandidates(h, ps.loosenedAABB, filter, onPairNew)
	}
}

func (bp *BroadPhase[R, P]) drainRefits(filter Filter[P], onPairNew OnPairNew[P]) {
	refits := bp.pendingRefits
	bp.pendingRefits = nil
	for _, rf := range refits {
		ps, ok := bp.proxy[rf.handle]
		if !ok || !ps.inserted {
			continue
		}
		ps.exactAABB = rf.exact
		if ps.loosenedAABB.Contains(rf.exact) {
			continue // temporal-coherence win: no refit needed.
		}
		newLoosened := rf.exact.Loosened(bp.margin)
		newLeaf, _ := bp.tree.Refit(ps.leaf, newLoosened)
		ps.leaf = newLeaf
		ps.loosenedAABB = newLoosened
		bp.discoverCandidates(rf.handle, newLoosened, filter, onPairNew)
	}
}

// discoverCandidates queries the tree for every other proxy overlapping
// bv and admits genuinely new candidate pairs through filter.
func (bp *BroadPhase[R, P]) discoverCandidates(h ProxyHandle, bv lin.AABB[R], filter Filter[P], onPairNew OnPairNew[P]) {
	bp.tree.QueryAABB(bv, func(_ dbvt.LeafID, other ProxyHandle) bool {
		if other == h {
			return true
		}
		key := canon(h, other)
		if _, exists := bp.pairs[key]; exists {
			return true
		}
		a, b := bp.proxy[key.a].payload, bp.proxy[key.b].payload
		if filter(a, b) {
			bp.pairs[key] = AgeNew
			onPairNew(a, b, true)
		}
		return true
	})
}

// runRecomputeAll rebuilds the candidate pair set from scratch by
// re-querying the DBVT for every proxy's current overlaps, then
// re-applies filter to every candidate (spec.md §4.2 step 5). This
// is what makes a previously filter-rejected — and therefore never
// stored — pair reappear once a filter change makes it acceptable
// again: the spec's own wording ("re-run filter on every entry in P")
// only accounts for the accept→reject direction, since a rejected
// candidate was never added to P in the first place; rebuilding from
// geometry instead of iterating the existing pair set is how this
// module resolves that gap, and matches spec.md §8's testable
// property that a recompute-all followed by one update produces
// exactly the pair set a from-scratch rebuild would.
func (bp *BroadPhase[R, P]) runRecomputeAll(filter Filter[P], onPairNew OnPairNew[P], onPairRemoved OnPairRemoved[P]) {
	candidates := make(map[pairKey]bool)
	for h, ps := range bp.proxy {
		if !ps.inserted {
			continue
		}
		bp.tree.QueryAABB(ps.loosenedAABB, func(_ dbvt.LeafID, other ProxyHandle) bool {
			if other != h {
				candidates[canon(h, other)] = true
			}
			return true
		})
	}

	for key := range bp.pairs {
		if !candidates[key] {
			if onPairRemoved != nil {
				onPairRemoved(bp.proxy[key.a].payload, bp.proxy[key.b].payload)
			}
			delete(bp.pairs, key) // no longer geometrically overlapping.
		}
	}

	for key := range candidates {
		a, b := bp.proxy[key.a].payload, bp.proxy[key.b].payload
		_, existed := bp.pairs[key]
		accept := filter(a, b)
		switch {
		case existed && !accept:
			if onPairRemoved != nil {
				onPairRemoved(a, b)
			}
			delete(bp.pairs, key)
		case !existed && accept:
			bp.pairs[key] = AgeNew
			onPairNew(a, b, true)
		}
	}
}
