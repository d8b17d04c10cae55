package dbvt

import "github.com/galvanizedlogic/collide/lin"

// node is one element of the tree, stored in a flat arena and
// addressed by integer id rather than pointer — spec.md §9: "use an
// arena of nodes indexed by integer ids; parent/sibling links are ids,
// not owning references — no cycles in the ownership graph even though
// logical pointers go both ways."
type node[R lin.Scalar, P any] struct {
	aabb     lin.AABB[R]
	parent   int32 // -1 for the root
	children [2]int32 // -1, -1 for a leaf
	isLeaf   bool
	payload  P
}

func (n *node[R, P]) reset() {
	var zero P
	n.parent, n.children[0], n.children[1] = -1, -1, -1
	n.isLeaf = false
	n.payload = zero
}

const none = int32(-1)

// arena owns the node storage for a Tree. It reuses freed slots
// before growing, the way gaissmai-bart's pool.go reuses node memory
// instead of leaning on GC for every churn — here as a plain
// slice-backed free list rather than a sync.Pool, because a Tree is
// only ever touched from one goroutine at a time (spec.md §5: "the
// entire engine runs on one thread per world"), so the synchronization
// pool.go pays for would be pure overhead.
type arena[R lin.Scalar, P any] struct {
	nodes []node[R, P]
	free  []int32
}

func newArena[R lin.Scalar, P any]() *arena[R, P] {
	return &arena[R, P]{}
}

// get returns a zeroed node id, reusing a freed slot when available.
func (a *arena[R, P]) get() int32 {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		a.nodes[id].reset()
		return id
	}
	a.nodes = append(a.nodes, node[R, P]{parent: none, children: [2]int32{none, none}})
	return int32(len(a.nodes) - 1)
}

// put returns id to the free list for reuse by a later get.
func (a *arena[R, P]) put(id int32) {
	a.nodes[id].reset()
	a.free = append(a.free, id)
}

func (a *arena[R, P]) at(id int32) *node[R, P] {
	return &a.nodes[id]
}
