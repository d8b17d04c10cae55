package collide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galvanizedlogic/collide/kernel"
	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/narrowphase"
	"github.com/galvanizedlogic/collide/shape"
)

func ball(r float64) *shape.Handle { return shape.New(kernel.Ball[float64]{Radius: r}) }
func cube(he float64) *shape.Handle {
	return shape.New(kernel.Box[float64]{HalfExtent: lin.Vec3[float64]{he, he, he}})
}

func TestAddIsNotVisibleUntilUpdate(t *testing.T) {
	w := NewWorld[float64](0)
	h := w.Add(lin.Identity[float64](), ball(1), DefaultCollisionGroups(), NewContacts[float64](0), nil)

	_, ok := w.CollisionObject(h)
	assert.False(t, ok, "object must not be visible before the next Update")

	w.Update()
	co, ok := w.CollisionObject(h)
	require.True(t, ok)
	assert.Equal(t, h, co.Handle())
}

func TestFourBallsGridEdgePairsTouch(t *testing.T) {
	w := NewWorld[float64](0.1)
	var handles []ObjectHandle
	positions := []lin.Vec3[float64]{{0, 0, 0}, {1.5, 0, 0}, {0, 1.5, 0}, {1.5, 1.5, 0}}
	for _, p := range positions {
		h := w.Add(lin.Translation(p), ball(1), DefaultCollisionGroups(), NewContacts[float64](0), nil)
		handles = append(handles, h)
	}
	w.Update()
	w.Update() // second tick: nothing moved, so the pair set and contacts found by the first tick stand.

	// Grid spacing 1.5 with radius-1 balls: the 4 edges of the square
	// overlap (distance 1.5 < sum of radii 2), the 2 diagonals don't
	// (distance ~2.12 > 2).
	assert.Equal(t, 4, len(w.ContactPairs()))
	_ = handles
}

func TestBoxOnPlaneProducesContactThenSeparation(t *testing.T) {
	w := NewWorld[float64](0.1)
	plane := shape.New(kernel.Plane[float64]{Normal: lin.Vec3[float64]{0, 1, 0}})
	floor := w.Add(lin.Identity[float64](), plane, DefaultCollisionGroups(), NewContacts[float64](0), "floor")
	boxH := w.Add(lin.Translation(lin.Vec3[float64]{0, 5, 0}), cube(1), DefaultCollisionGroups(), NewContacts[float64](0), "box")
	w.Update()
	assert.Empty(t, w.ContactPairs())

	w.SetPosition(boxH, lin.Translation(lin.Vec3[float64]{0, 1, 0})) // flush on the plane
	w.Update()
	assert.Equal(t, 1, len(w.ContactPairs()))

	w.SetPosition(boxH, lin.Translation(lin.Vec3[float64]{0, 5, 0}))
	w.Update()
	assert.Empty(t, w.ContactPairs())
	_ = floor
}

func TestProximityOnlySensorReportsStatusWithoutContacts(t *testing.T) {
	w := NewWorld[float64](0.1)
	a := w.Add(lin.Identity[float64](), ball(1), DefaultCollisionGroups(), NewProximity[float64](2), "sensor")
	b := w.Add(lin.Translation(lin.Vec3[float64]{1.5, 0, 0}), ball(1), DefaultCollisionGroups(), NewContacts[float64](0), "target")
	w.Update()
	w.Update()

	assert.Empty(t, w.ContactPairs(), "a Proximity-tagged object downgrades the whole pair")
	assert.Equal(t, []Pair{{a, b}}, w.ProximityPairs())
}

func TestGroupBlacklistPreventsPairFromEverForming(t *testing.T) {
	w := NewWorld[float64](0.1)
	groupA := CollisionGroups{Membership: 1 << 0, Whitelist: ^uint32(0)}
	groupB := CollisionGroups{Membership: 1 << 1, Whitelist: ^uint32(0), Blacklist: 1 << 0}
	w.Add(lin.Identity[float64](), ball(1), groupA, NewContacts[float64](0), nil)
	w.Add(lin.Translation(lin.Vec3[float64]{1.5, 0, 0}), ball(1), groupB, NewContacts[float64](0), nil)
	w.Update()
	w.Update()

	assert.Equal(t, 0, w.NumInterferences(), "blacklisted pair must never even enter the broad-phase pair set")
}

func TestFilterChangeRediscoversRejectedPair(t *testing.T) {
	w := NewWorld[float64](0.1)
	w.Add(lin.Identity[float64](), ball(1), DefaultCollisionGroups(), NewContacts[float64](0), "a")
	w.Add(lin.Translation(lin.Vec3[float64]{1.5, 0, 0}), ball(1), DefaultCollisionGroups(), NewContacts[float64](0), "b")

	blockAll := BroadPhasePairFilterFunc[float64](func(a, b *CollisionObject[float64]) bool { return false })
	w.RegisterBroadPhasePairFilter("block", blockAll)
	w.Update()
	require.Equal(t, 0, w.NumInterferences())

	w.UnregisterBroadPhasePairFilter("block")
	w.Update()
	assert.Equal(t, 1, w.NumInterferences())
}

func TestSlowObjectInFatAABBKeepsProxyHandle(t *testing.T) {
	w := NewWorld[float64](1) // generous margin
	h := w.Add(lin.Identity[float64](), ball(1), DefaultCollisionGroups(), NewContacts[float64](0), nil)
	w.Update()
	co, _ := w.CollisionObject(h)
	proxyBefore := co.Proxy()

	// Tiny move, well within the loosened AABB.
	w.SetPosition(h, lin.Translation(lin.Vec3[float64]{0.01, 0, 0}))
	w.Update()
	co, _ = w.CollisionObject(h)
	assert.Equal(t, proxyBefore, co.Proxy(), "proxy handle is stable across a small move inside the loosened AABB")
}

func TestRemoveTearsDownContactAndFiresStoppedEvent(t *testing.T) {
	w := NewWorld[float64](0.1)
	a := w.Add(lin.Identity[float64](), ball(1), DefaultCollisionGroups(), NewContacts[float64](0), nil)
	b := w.Add(lin.Translation(lin.Vec3[float64]{1.5, 0, 0}), ball(1), DefaultCollisionGroups(), NewContacts[float64](0), nil)
	w.Update()
	w.Update()
	require.Equal(t, 1, len(w.ContactPairs()))

	var stoppedCount int
	w.RegisterContactHandler("counter", ContactHandlerFuncs[float64]{
		Stopped: func(a, b *CollisionObject[float64]) { stoppedCount++ },
	})
	w.Remove(a)
	w.Update()

	assert.Equal(t, 1, stoppedCount)
	_, ok := w.CollisionObject(a)
	assert.False(t, ok)
	_, ok = w.CollisionObject(b)
	assert.True(t, ok)
}

func TestCollideIsAOneOffCheckIndependentOfUpdate(t *testing.T) {
	w := NewWorld[float64](0)
	a := w.Add(lin.Identity[float64](), ball(1), DefaultCollisionGroups(), NewContacts[float64](0), nil)
	b := w.Add(lin.Translation(lin.Vec3[float64]{1.5, 0, 0}), ball(1), DefaultCollisionGroups(), NewContacts[float64](0), nil)
	w.Update()

	assert.True(t, w.Collide(a, b))
	assert.Equal(t, []Pair{{a, b}}, w.ContactPairs(), "Collide must not touch the narrow-phase slot bookkeeping")
}

func TestRaycastHitsBroadPhaseAABB(t *testing.T) {
	w := NewWorld[float64](0)
	h := w.Add(lin.Identity[float64](), ball(1), DefaultCollisionGroups(), NewContacts[float64](0), "target")
	w.Update()

	r := lin.Ray[float64]{Origin: lin.Vec3[float64]{-10, 0, 0}, Dir: lin.Vec3[float64]{1, 0, 0}}
	hit, ok := w.Raycast(r, 100)
	require.True(t, ok)
	assert.Equal(t, h, hit.Handle())
}

func TestHandlerRegistrationOrderIsDeliveryOrder(t *testing.T) {
	w := NewWorld[float64](0.1)
	w.Add(lin.Identity[float64](), ball(1), DefaultCollisionGroups(), NewContacts[float64](0), nil)
	w.Add(lin.Translation(lin.Vec3[float64]{1.5, 0, 0}), ball(1), DefaultCollisionGroups(), NewContacts[float64](0), nil)

	var order []string
	w.RegisterContactHandler("first", ContactHandlerFuncs[float64]{
		Started: func(a, b *CollisionObject[float64], algo any) { order = append(order, "first") },
	})
	w.RegisterContactHandler("second", ContactHandlerFuncs[float64]{
		Started: func(a, b *CollisionObject[float64], algo any) { order = append(order, "second") },
	})
	w.Update()
	w.Update()

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDiagnosticsCountsUnsupportedShapePair(t *testing.T) {
	w := NewWorld[float64](0.1)
	plane := shape.New(kernel.Plane[float64]{Normal: lin.Vec3[float64]{0, 1, 0}})
	w.Add(lin.Identity[float64](), plane, DefaultCollisionGroups(), NewContacts[float64](0), nil)
	w.Add(lin.Translation(lin.Vec3[float64]{0.5, 0, 0}), plane, DefaultCollisionGroups(), NewContacts[float64](0), nil)
	w.Update()
	w.Update()

	unsupported, numerical := w.Diagnostics()
	assert.Equal(t, 1, unsupported, "plane/plane has no registered algorithm")
	assert.Equal(t, 0, numerical)
	assert.Equal(t, narrowphase.ErrUnsupportedShapePair, ErrUnsupportedShapePair,
		"the root package's sentinel must be the same value the narrow phase names its counted condition with")
}
