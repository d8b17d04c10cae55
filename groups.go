package collide

// CollisionGroups is the group-based admission filter of spec.md §3:
// three 30-bit masks (membership, whitelist, blacklist) plus a
// self-collision bit. Only the low 30 bits of each mask participate in
// the predicate, matching the specification's "three 30-bit masks"
// wording.
type CollisionGroups struct {
	Membership    uint32
	Whitelist     uint32
	Blacklist     uint32
	SelfCollision bool
}

// DefaultCollisionGroups whitelists and belongs to everything — the
// permissive default an object gets if no groups are specified.
func DefaultCollisionGroups() CollisionGroups {
	return CollisionGroups{Membership: ^uint32(0), Whitelist: ^uint32(0)}
}

// groupsAdmit implements spec.md §3's predicate exactly:
//
//	A.membership ∩ B.whitelist ≠ 0 ∧ B.membership ∩ A.whitelist ≠ 0 ∧
//	A.membership ∩ B.blacklist = 0 ∧ B.membership ∩ A.blacklist = 0
//
// and, when a and b are the same object, additionally requires the
// self-collision bit set on both.
func groupsAdmit(a, b CollisionGroups, sameObject bool) bool {
	if sameObject && !(a.SelfCollision && b.SelfCollision) {
		return false
	}
	const mask = uint32(1)<<30 - 1
	am, aw, ab := a.Membership&mask, a.Whitelist&mask, a.Blacklist&mask
	bm, bw, bb := b.Membership&mask, b.Whitelist&mask, b.Blacklist&mask
	if am&bw == 0 || bm&aw == 0 {
		return false
	}
	if am&bb != 0 || bm&ab != 0 {
		return false
	}
	return true
}
