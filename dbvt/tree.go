// Package dbvt implements a dynamic bounding-volume tree: a binary
// tree of AABBs supporting incremental insert/remove/refit and
// AABB/ray/point queries (spec.md §4.1). It is the data structure the
// broad phase (spec.md §4.2) is built on.
//
// The tree has no notion of "objects" or "pairs" — it only knows about
// leaves carrying an opaque payload and their bounding boxes. That
// separation mirrors the teacher's own layering: physics.go's
// broadphase function only ever calls Abox.Overlaps, never reaching
// into body internals, and this package keeps the same boundary one
// level lower (no object/pair concept leaks into the tree).
package dbvt

import "github.com/galvanizedlogic/collide/lin"

// LeafID identifies a leaf returned by Insert. It stays valid until
// that leaf is removed (directly, or via the remove-then-reinsert a
// Refit can trigger — Refit always returns the possibly-new id).
type LeafID int32

// Visitor is called once per leaf whose AABB overlaps a query. Return
// false to stop the traversal early (spec.md §4.1: "visitor may
// early-terminate").
type Visitor[P any] func(id LeafID, payload P) bool

// Tree is a dynamic bounding-volume tree over AABBs of type R, each
// leaf carrying a payload of type P (the broad phase uses
// broadphase.ProxyHandle).
type Tree[R lin.Scalar, P any] struct {
	arena *arena[R, P]
	root  int32
}

// New returns an empty tree.
func New[R lin.Scalar, P any]() *Tree[R, P] {
	return &Tree[R, P]{arena: newArena[R, P](), root: none}
}

// Len reports the number of leaves currently in the tree.
func (t *Tree[R, P]) Len() int {
	n := 0
	t.walkLeaves(func(LeafID, P) bool { n++; return true })
	return n
}

func (t *Tree[R, P]) walkLeaves(visit Visitor[P]) {
	if t.root == none {
		return
	}
	var walk func(id int32) bool
	walk = func(id int32) bool {
		n := t.arena.at(id)
		if n.isLeaf {
			return visit(LeafID(id), n.payload)
		}
		if !walk(n.children[0]) {
			return false
		}
		return walk(n.children[1])
	}
	walk(t.root)
}

// Insert adds a new leaf with the given AABB and payload, descending
// from the root and choosing at each step the child whose AABB-union
// with the new leaf has the smaller surface-area increase, ties broken
// by the smaller resulting surface area (spec.md §4.1's "SAH-lite
// heuristic"). Ancestor AABBs are refit bottom-up afterward. Any
// monotonic surface-area heuristic is conforming per spec.md §9's open
// question on the exact SAH coefficient; this is the simplest one.
func (t *Tree[R, P]) Insert(aabb lin.AABB[R], payload P) LeafID {
	leaf := t.arena.get()
	ln := t.arena.at(leaf)
	ln.isLeaf = true
	ln.aabb = aabb
	ln.payload = payload

	if t.root == none {
		t.root = leaf
		return LeafID(leaf)
	}

	sibling := t.bestSibling(aabb)
	t.insertAsSiblingOf(sibling, leaf)
	return LeafID(leaf)
}

// bestSibling descends from the root picking, at each internal node,
// the child that produces the smaller surface-area increase when
// unioned with aabb, until it reaches a leaf.
func (t *Tree[R, P]) bestSibling(aabb lin.AABB[R]) int32 {
	cur := t.root
	for {
		n := t.arena.at(cur)
		if n.isLeaf {
			return cur
		}
		left := t.arena.at(n.children[0])
		right := t.arena.at(n.children[1])
		unionLeft := left.aabb.Union(aabb).SurfaceArea()
		unionRight := right.aabb.Union(aabb).SurfaceArea()
		costLeft := unionLeft - left.aabb.SurfaceArea()
		costRight := unionRight - right.aabb.SurfaceArea()
		if costLeft < costRight {
			cur = n.children[0]
		} else if costRight < costLeft {
			cur = n.children[1]
		} else {
			// tie: break by smaller resulting surface area (spec.md §4.1).
			if unionLeft <= unionRight {
				cur = n.children[0]
			} else {
				cur = n.children[1]
			}
		}
	}
}

// insertAsSiblingOf creates a new internal node parenting sibling and
// leaf, replacing sibling's old slot in the tree, then refits ancestor
// AABBs bottom-up.
func (t *Tree[R, P]) insertAsSiblingOf(sibling, leaf int32) {
	oldParent := t.arena.at(sibling).parent
	newParent := t.arena.get()

	pn := t.arena.at(newParent)
	pn.isLeaf = false
	pn.parent = oldParent
	pn.children[0] = sibling
	pn.children[1] = leaf
	pn.aabb = t.arena.at(sibling).aabb.Union(t.arena.at(leaf).aabb)

	t.arena.at(sibling).parent = newParent
	t.arena.at(leaf).parent = newParent

	if oldParent == none {
		t.root = newParent
	} else {
		op := t.arena.at(oldParent)
		if op.children[0] == sibling {
			op.children[0] = newParent
		} else {
			op.children[1] = newParent
		}
	}

	t.refitAncestors(oldParent)
}

// refitAncestors recomputes AABBs from id up to the root by unioning
// each node's two children.
func (t *Tree[R, P]) refitAncestors(id int32) {
	for id != none {
		n := t.arena.at(id)
		left := t.arena.at(n.children[0])
		right := t.arena.at(n.children[1])
		n.aabb = left.aabb.Union(right.aabb)
		id = n.parent
	}
}

// Remove detaches the leaf: its parent is replaced by its sibling, and
// ancestor AABBs are refit from the grandparent upward (spec.md §4.1).
func (t *Tree[R, P]) Remove(id LeafID) {
	leaf := int32(id)
	mustHold(leaf >= 0 && int(leaf) < len(t.arena.nodes) && t.arena.at(leaf).isLeaf, "Remove called with unknown leaf id")
	parent := t.arena.at(leaf).parent

	if parent == none {
		// leaf was the root.
		t.root = none
		t.arena.put(leaf)
		return
	}

	grandparent := t.arena.at(parent).parent
	pn := t.arena.at(parent)
	var sibling int32
	if pn.children[0] == leaf {
		sibling = pn.children[1]
	} else {
		sibling = pn.children[0]
	}

	if grandparent == none {
		t.root = sibling
		t.arena.at(sibling).parent = none
	} else {
		gp := t.arena.at(grandparent)
		if gp.children[0] == parent {
			gp.children[0] = sibling
		} else {
			gp.children[1] = sibling
		}
		t.arena.at(sibling).parent = grandparent
		t.refitAncestors(grandparent)
	}

	t.arena.put(parent)
	t.arena.put(leaf)
}

// Refit updates a leaf's AABB. If the new AABB is already contained by
// the leaf's stored AABB, nothing happens — the temporal-coherence win
// spec.md §4.1 calls for. Otherwise the leaf is removed and reinserted
// with the new AABB, and the (possibly different) leaf id is returned.
// Callers must use the returned id afterward: the old one may have
// been recycled.
func (t *Tree[R, P]) Refit(id LeafID, newAABB lin.AABB[R]) (LeafID, bool) {
	leaf := int32(id)
	n := t.arena.at(leaf)
	if n.aabb.Contains(newAABB) {
		return id, false
	}
	payload := n.payload
	t.Remove(id)
	return t.Insert(newAABB, payload), true
}

// AABB returns the stored (loosened) AABB for a leaf.
func (t *Tree[R, P]) AABB(id LeafID) lin.AABB[R] {
	return t.arena.at(int32(id)).aabb
}

// Payload returns the payload stored at a leaf.
func (t *Tree[R, P]) Payload(id LeafID) P {
	return t.arena.at(int32(id)).payload
}

// QueryAABB visits every leaf whose stored AABB intersects aabb.
func (t *Tree[R, P]) QueryAABB(aabb lin.AABB[R], visit Visitor[P]) {
	if t.root == none {
		return
	}
	var walk func(id int32) bool
	walk = func(id int32) bool {
		n := t.arena.at(id)
		if !n.aabb.Intersects(aabb) {
			return true
		}
		if n.isLeaf {
			return visit(LeafID(id), n.payload)
		}
		if !walk(n.children[0]) {
			return false
		}
		return walk(n.children[1])
	}
	walk(t.root)
}

// QueryPoint visits every leaf whose stored AABB contains p.
func (t *Tree[R, P]) QueryPoint(p lin.Vec3[R], visit Visitor[P]) {
	if t.root == none {
		return
	}
	var walk func(id int32) bool
	walk = func(id int32) bool {
		n := t.arena.at(id)
		if !n.aabb.ContainsPoint(p) {
			return true
		}
		if n.isLeaf {
			return visit(LeafID(id), n.payload)
		}
		if !walk(n.children[0]) {
			return false
		}
		return walk(n.children[1])
	}
	walk(t.root)
}

// QueryRay visits every leaf whose stored AABB is hit by r within
// [0, maxT].
func (t *Tree[R, P]) QueryRay(r lin.Ray[R], maxT R, visit Visitor[P]) {
	if t.root == none {
		return
	}
	var walk func(id int32) bool
	walk = func(id int32) bool {
		n := t.arena.at(id)
		if hit, _ := n.aabb.IntersectsRay(r, maxT); !hit {
			return true
		}
		if n.isLeaf {
			return visit(LeafID(id), n.payload)
		}
		if !walk(n.children[0]) {
			return false
		}
		return walk(n.children[1])
	}
	walk(t.root)
}
