package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/shape"
)

type fakeGeom struct{ t shape.Type }

func (g fakeGeom) ShapeType() shape.Type { return g.t }

type stubContactGen struct{}

func (stubContactGen) Update(posA, posB lin.Isometry[float64], shapeA, shapeB *shape.Handle, prediction float64) []Contact[float64] {
	return nil
}

func TestContactDispatcherRegisterAndFor(t *testing.T) {
	d := NewContactDispatcher[float64]()
	called := false
	d.Register(shape.Ball, shape.Plane, func(a, b *shape.Handle) ContactGenerator[float64] {
		called = true
		return stubContactGen{}
	})

	ball := shape.New(fakeGeom{shape.Ball})
	plane := shape.New(fakeGeom{shape.Plane})

	gen, ok := d.For(ball, plane)
	require.True(t, ok)
	require.NotNil(t, gen)
	assert.True(t, called)

	// Order shouldn't matter: registry canonicalizes the pair.
	called = false
	_, ok = d.For(plane, ball)
	require.True(t, ok)
	assert.True(t, called)
}

func TestContactDispatcherUnregisteredPairReturnsNotOK(t *testing.T) {
	d := NewContactDispatcher[float64]()
	a := shape.New(fakeGeom{shape.Ball})
	b := shape.New(fakeGeom{shape.Cuboid})

	gen, ok := d.For(a, b)
	assert.False(t, ok)
	assert.Nil(t, gen)
}

func TestProximityStatusString(t *testing.T) {
	assert.Equal(t, "Disjoint", Disjoint.String())
	assert.Equal(t, "WithinMargin", WithinMargin.String())
	assert.Equal(t, "Intersecting", Intersecting.String())
}
