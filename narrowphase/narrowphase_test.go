package narrowphase

import (
	"bytes"
	"log"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galvanizedlogic/collide/dispatch"
	"github.com/galvanizedlogic/collide/kernel"
	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/shape"
)

// fakeObjects is a test-only ObjectAccessor backed by plain maps.
type fakeObjects struct {
	pos   map[ObjectHandle]lin.Isometry[float64]
	shape map[ObjectHandle]*shape.Handle
	query map[ObjectHandle]Query[float64]
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{
		pos:   map[ObjectHandle]lin.Isometry[float64]{},
		shape: map[ObjectHandle]*shape.Handle{},
		query: map[ObjectHandle]Query[float64]{},
	}
}

func (f *fakeObjects) Position(h ObjectHandle) lin.Isometry[float64] { return f.pos[h] }
func (f *fakeObjects) Shape(h ObjectHandle) *shape.Handle            { return f.shape[h] }
func (f *fakeObjects) Query(h ObjectHandle) Query[float64]           { return f.query[h] }

func ballWorld() (objs *fakeObjects, contacts *dispatch.ContactDispatcher[float64], proximities *dispatch.ProximityDispatcher[float64]) {
	contacts, proximities = kernel.BuildDispatchers[float64]()
	objs = newFakeObjects()
	a, b := shape.New(kernel.Ball[float64]{Radius: 1}), shape.New(kernel.Ball[float64]{Radius: 1})
	objs.shape[1] = a
	objs.shape[2] = b
	objs.pos[1] = lin.Identity[float64]()
	objs.pos[2] = lin.Translation(lin.Vec3[float64]{1.5, 0, 0})
	objs.query[1] = Query[float64]{Kind: KindContacts, Value: 0}
	objs.query[2] = Query[float64]{Kind: KindContacts, Value: 0}
	return objs, contacts, proximities
}

func TestHandleInteractionStartsAndReportsContactStarted(t *testing.T) {
	objs, contacts, proximities := ballWorld()
	np := New[float64](contacts, proximities)

	np.HandleInteraction(objs, 1, 2, true, nil, nil)

	var started []ContactStarted[float64]
	np.Update(objs, func(cs ContactStarted[float64]) { started = append(started, cs) }, nil, nil)

	require.Len(t, started, 1)
	assert.NotNil(t, started[0].Algo)
	pairs := np.ContactPairs()
	assert.Equal(t, []Pair{{1, 2}}, pairs)
}

func TestContactStoppedFiresWhenManifoldEmpties(t *testing.T) {
	objs, contacts, proximities := ballWorld()
	np := New[float64](contacts, proximities)
	np.HandleInteraction(objs, 1, 2, true, nil, nil)
	np.Update(objs, nil, nil, nil)
	require.Equal(t, 1, len(np.ContactPairs()))

	objs.pos[2] = lin.Translation(lin.Vec3[float64]{100, 0, 0})
	var stopped []ContactStopped
	np.Update(objs, nil, func(cs ContactStopped) { stopped = append(stopped, cs) }, nil)

	require.Len(t, stopped, 1)
	assert.Empty(t, np.ContactPairs())
}

func TestTeardownOnRemovalEmitsFinalStoppedEvent(t *testing.T) {
	objs, contacts, proximities := ballWorld()
	np := New[float64](contacts, proximities)
	np.HandleInteraction(objs, 1, 2, true, nil, nil)
	np.Update(objs, nil, nil, nil)

	var stopped []ContactStopped
	np.HandleRemoval(1, 2, func(cs ContactStopped) { stopped = append(stopped, cs) }, nil)

	require.Len(t, stopped, 1)
	assert.Equal(t, ObjectHandle(1), stopped[0].A)
}

func TestUnsupportedShapePairIsSilentlyIgnored(t *testing.T) {
	contacts, proximities := kernel.BuildDispatchers[float64]()
	objs := newFakeObjects()
	// A plane paired with a plane has no registered algorithm.
	p1, p2 := shape.New(kernel.Plane[float64]{Normal: lin.Vec3[float64]{0, 1, 0}}), shape.New(kernel.Plane[float64]{Normal: lin.Vec3[float64]{0, 1, 0}})
	objs.shape[1], objs.shape[2] = p1, p2
	objs.pos[1], objs.pos[2] = lin.Identity[float64](), lin.Identity[float64]()
	objs.query[1] = Query[float64]{Kind: KindContacts}
	objs.query[2] = Query[float64]{Kind: KindContacts}

	var logged bytes.Buffer
	log.SetOutput(&logged)
	defer log.SetOutput(os.Stderr)

	np := New[float64](contacts, proximities)
	np.HandleInteraction(objs, 1, 2, true, nil, nil)
	np.Update(objs, func(ContactStarted[float64]) { t.Fatal("unsupported pair must never start a contact") }, nil, nil)

	unsupported, numerical := np.Diagnostics()
	assert.Equal(t, 1, unsupported)
	assert.Equal(t, 0, numerical)
	assert.False(t, strings.Contains(logged.String(), ErrUnsupportedShapePair.Error()),
		"unsupported pair is counted, not logged")
}

// nonFiniteContactGen always reports a contact with an infinite
// coordinate, simulating an algorithm's NumericalFailure output.
type nonFiniteContactGen struct{}

func (nonFiniteContactGen) Update(posA, posB lin.Isometry[float64], shapeA, shapeB *shape.Handle, prediction float64) []dispatch.Contact[float64] {
	return []dispatch.Contact[float64]{{
		WorldPoint1: lin.Vec3[float64]{math.Inf(1), 0, 0},
		Normal:      lin.Vec3[float64]{0, 1, 0},
		Depth:       1,
	}}
}

func TestNumericalFailureIsCountedAndLogged(t *testing.T) {
	contacts := dispatch.NewContactDispatcher[float64]()
	contacts.Register(shape.Ball, shape.Ball, func(a, b *shape.Handle) dispatch.ContactGenerator[float64] {
		return nonFiniteContactGen{}
	})
	proximities := dispatch.NewProximityDispatcher[float64]()

	objs := newFakeObjects()
	a, b := shape.New(kernel.Ball[float64]{Radius: 1}), shape.New(kernel.Ball[float64]{Radius: 1})
	objs.shape[1], objs.shape[2] = a, b
	objs.pos[1], objs.pos[2] = lin.Identity[float64](), lin.Identity[float64]()
	objs.query[1] = Query[float64]{Kind: KindContacts}
	objs.query[2] = Query[float64]{Kind: KindContacts}

	var logged bytes.Buffer
	log.SetOutput(&logged)
	defer log.SetOutput(os.Stderr)

	np := New[float64](contacts, proximities)
	np.HandleInteraction(objs, 1, 2, true, nil, nil)
	np.Update(objs, func(ContactStarted[float64]) { t.Fatal("a non-finite result must never start a contact") }, nil, nil)

	unsupported, numerical := np.Diagnostics()
	assert.Equal(t, 0, unsupported)
	assert.Equal(t, 1, numerical)
	assert.True(t, strings.Contains(logged.String(), ErrNumericalFailure.Error()),
		"numerical-failure warning should reference ErrNumericalFailure")
}

func TestProximityChangedFiresOnStatusTransition(t *testing.T) {
	contacts, proximities := kernel.BuildDispatchers[float64]()
	objs := newFakeObjects()
	a, b := shape.New(kernel.Ball[float64]{Radius: 1}), shape.New(kernel.Ball[float64]{Radius: 1})
	objs.shape[1], objs.shape[2] = a, b
	objs.pos[1] = lin.Identity[float64]()
	objs.pos[2] = lin.Translation(lin.Vec3[float64]{10, 0, 0})
	objs.query[1] = Query[float64]{Kind: KindProximity, Value: 1}
	objs.query[2] = Query[float64]{Kind: KindProximity, Value: 1}

	np := New[float64](contacts, proximities)
	np.HandleInteraction(objs, 1, 2, true, nil, nil)
	np.Update(objs, nil, nil, nil)
	assert.Empty(t, np.ProximityPairs())

	objs.pos[2] = lin.Translation(lin.Vec3[float64]{1.5, 0, 0})
	var changed []ProximityChanged
	np.Update(objs, nil, nil, func(pc ProximityChanged) { changed = append(changed, pc) })

	require.Len(t, changed, 1)
	assert.Equal(t, dispatch.Intersecting, changed[0].New)
	assert.Equal(t, []Pair{{1, 2}}, np.ProximityPairs())
}

func TestEffectiveProximityDowngradesMixedPair(t *testing.T) {
	kind, value := Effective(Query[float64]{Kind: KindContacts, Value: 0.1}, Query[float64]{Kind: KindProximity, Value: 0.2})
	assert.Equal(t, KindProximity, kind)
	assert.InDelta(t, 0.3, value, 1e-9)
}

func TestPairsWithReturnsAllSlotsReferencingHandle(t *testing.T) {
	objs, contacts, proximities := ballWorld()
	objs.shape[3] = shape.New(kernel.Ball[float64]{Radius: 1})
	objs.pos[3] = lin.Translation(lin.Vec3[float64]{-1.5, 0, 0})
	objs.query[3] = Query[float64]{Kind: KindContacts}

	np := New[float64](contacts, proximities)
	np.HandleInteraction(objs, 1, 2, true, nil, nil)
	np.HandleInteraction(objs, 1, 3, true, nil, nil)

	pairs := np.PairsWith(1)
	assert.Len(t, pairs, 2)
}
