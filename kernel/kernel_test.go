package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/shape"
)

func TestAABBBall(t *testing.T) {
	h := shape.New(Ball[float64]{Radius: 2})
	pos := lin.Translation(lin.Vec3[float64]{1, 1, 1})
	box := AABB[float64](h, pos)
	assert.Equal(t, lin.Vec3[float64]{-1, -1, -1}, box.Min)
	assert.Equal(t, lin.Vec3[float64]{3, 3, 3}, box.Max)
}

func TestAABBBox(t *testing.T) {
	h := shape.New(Box[float64]{HalfExtent: lin.Vec3[float64]{1, 2, 3}})
	pos := lin.Translation(lin.Vec3[float64]{0, 0, 0})
	box := AABB[float64](h, pos)
	assert.Equal(t, lin.Vec3[float64]{-1, -2, -3}, box.Min)
	assert.Equal(t, lin.Vec3[float64]{1, 2, 3}, box.Max)
}

func TestBallBallContactOverlapping(t *testing.T) {
	contacts, proximities := BuildDispatchers[float64]()
	a := shape.New(Ball[float64]{Radius: 1})
	b := shape.New(Ball[float64]{Radius: 1})

	gen, ok := contacts.For(a, b)
	require.True(t, ok)

	posA := lin.Identity[float64]()
	posB := lin.Translation(lin.Vec3[float64]{1.5, 0, 0})
	got := gen.Update(posA, posB, a, b, 0)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.5, got[0].Depth, 1e-9)

	proxGen, ok := proximities.For(a, b)
	require.True(t, ok)
	assert.Equal(t, "Intersecting", proxGen.Update(posA, posB, a, b, 0).String())
}

func TestBallBallDisjointBeyondPrediction(t *testing.T) {
	contacts, _ := BuildDispatchers[float64]()
	a := shape.New(Ball[float64]{Radius: 1})
	b := shape.New(Ball[float64]{Radius: 1})
	gen, _ := contacts.For(a, b)

	posA := lin.Identity[float64]()
	posB := lin.Translation(lin.Vec3[float64]{10, 0, 0})
	got := gen.Update(posA, posB, a, b, 0.1)
	assert.Empty(t, got)
}

func TestPlaneConvexContactBoxRestingOnPlane(t *testing.T) {
	contacts, _ := BuildDispatchers[float64]()
	plane := shape.New(Plane[float64]{Normal: lin.Vec3[float64]{0, 1, 0}})
	box := shape.New(Box[float64]{HalfExtent: lin.Vec3[float64]{1, 1, 1}})

	gen, ok := contacts.For(plane, box)
	require.True(t, ok)

	planePos := lin.Identity[float64]()
	boxPos := lin.Translation(lin.Vec3[float64]{0, 1, 0}) // resting flush on the plane
	got := gen.Update(planePos, boxPos, plane, box, 0)
	assert.Len(t, got, 4, "box flush on a plane reports all four bottom-face vertices")
}

func TestBoxBoxContactOverlap(t *testing.T) {
	contacts, _ := BuildDispatchers[float64]()
	boxA := shape.New(Box[float64]{HalfExtent: lin.Vec3[float64]{1, 1, 1}})
	boxB := shape.New(Box[float64]{HalfExtent: lin.Vec3[float64]{1, 1, 1}})

	gen, ok := contacts.For(boxA, boxB)
	require.True(t, ok)

	posA := lin.Identity[float64]()
	posB := lin.Translation(lin.Vec3[float64]{1.5, 0, 0})
	got := gen.Update(posA, posB, boxA, boxB, 0)
	require.NotEmpty(t, got)
	assert.InDelta(t, 0.5, got[0].Depth, 1e-9)
}

func TestCompositeContactRecursesIntoChildren(t *testing.T) {
	contacts, _ := BuildDispatchers[float64]()
	ball := shape.New(Ball[float64]{Radius: 1})
	child := shape.New(Ball[float64]{Radius: 1})
	compound := shape.New(Compound[float64]{Children: []Child[float64]{
		{Local: lin.Translation(lin.Vec3[float64]{5, 0, 0}), Shape: child},
	}})

	gen, ok := contacts.For(compound, ball)
	require.True(t, ok)

	posCompound := lin.Identity[float64]()
	posBall := lin.Translation(lin.Vec3[float64]{5, 1.5, 0})
	got := gen.Update(posCompound, posBall, compound, ball, 0)
	require.NotEmpty(t, got, "child ball at world (5,0,0) should overlap the probe ball")
}
