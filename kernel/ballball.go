package kernel

import (
	"github.com/galvanizedlogic/collide/dispatch"
	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/shape"
)

const epsilon = 1e-9

// ballBall is the "ball/ball: analytical" entry of spec.md §4.3's
// dispatch registry. Two balls always produce at most one contact
// point, so unlike the convex/convex path it needs no manifold
// wrapper.
type ballBall[R lin.Scalar] struct{}

func newBallBallContact[R lin.Scalar](_, _ *shape.Handle) dispatch.ContactGenerator[R] {
	return ballBall[R]{}
}

func (ballBall[R]) Update(posA, posB lin.Isometry[R], shapeA, shapeB *shape.Handle, prediction R) []dispatch.Contact[R] {
	ga, oka := shapeA.Geometry().(Ball[R])
	gb, okb := shapeB.Geometry().(Ball[R])
	if !oka || !okb {
		return nil
	}
	delta := posB.Trans.Sub(posA.Trans)
	dist := delta.Len()
	depth := ga.Radius + gb.Radius - dist
	if depth < -prediction {
		return nil
	}
	normal := lin.Vec3[R]{0, 1, 0}
	if dist > epsilon {
		normal = delta.Scale(1 / dist)
	}
	return []dispatch.Contact[R]{{
		WorldPoint1: posA.Trans.Add(normal.Scale(ga.Radius)),
		WorldPoint2: posB.Trans.Sub(normal.Scale(gb.Radius)),
		Normal:      normal,
		Depth:       depth,
	}}
}

// ballBallProximity is the proximity-flavored twin of ballBall, used
// when the pair's effective QueryType is Proximity (spec.md §3, §4.3).
type ballBallProximity[R lin.Scalar] struct{}

func newBallBallProximity[R lin.Scalar](_, _ *shape.Handle) dispatch.ProximityGenerator[R] {
	return ballBallProximity[R]{}
}

func (ballBallProximity[R]) Update(posA, posB lin.Isometry[R], shapeA, shapeB *shape.Handle, margin R) dispatch.ProximityStatus {
	ga, oka := shapeA.Geometry().(Ball[R])
	gb, okb := shapeB.Geometry().(Ball[R])
	if !oka || !okb {
		return dispatch.Disjoint
	}
	separation := posB.Trans.Sub(posA.Trans).Len() - (ga.Radius + gb.Radius)
	return classify(separation, margin)
}

// classify turns a surface-to-surface separation distance into a
// ProximityStatus, per spec.md §8's boundary rules: exactly margin is
// WithinMargin, exactly zero is Intersecting.
func classify[R lin.Scalar](separation, margin R) dispatch.ProximityStatus {
	switch {
	case separation <= 0:
		return dispatch.Intersecting
	case separation <= margin:
		return dispatch.WithinMargin
	default:
		return dispatch.Disjoint
	}
}
