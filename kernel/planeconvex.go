package kernel

import (
	"github.com/galvanizedlogic/collide/dispatch"
	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/shape"
)

// supporter is the one primitive spec.md §9 asks of a "support-mapped
// convex" shape: its farthest point in a given direction, in local
// space. Box implements it; any concrete convex shape a real geometry
// kernel adds would too.
type supporter[R lin.Scalar] interface {
	Support(dir lin.Vec3[R]) lin.Vec3[R]
}

// planeConvex is the "plane/support-mapped convex: plane-support-map
// generator" entry of spec.md §4.3's registry. Unlike convex/convex it
// can report every penetrating vertex of the convex shape directly
// (a box resting flush on a plane has up to four contact points), so
// it is not wrapped by the manifold package — it natively produces a
// manifold, not a single point.
type planeConvex[R lin.Scalar] struct {
	// planeIsA records which side of the pair carries the Plane
	// geometry, since the dispatcher canonicalizes by type and a
	// given instance might see (plane, convex) or (convex, plane).
	planeIsA bool
}

func newPlaneConvexContact[R lin.Scalar](a, b *shape.Handle) dispatch.ContactGenerator[R] {
	_, aIsPlane := a.Geometry().(Plane[R])
	return &planeConvex[R]{planeIsA: aIsPlane}
}

func (p *planeConvex[R]) Update(posA, posB lin.Isometry[R], shapeA, shapeB *shape.Handle, prediction R) []dispatch.Contact[R] {
	planeHandle, planePos, convexHandle, convexPos := shapeA, posA, shapeB, posB
	if !p.planeIsA {
		planeHandle, planePos, convexHandle, convexPos = shapeB, posB, shapeA, posA
	}
	plane, ok := planeHandle.Geometry().(Plane[R])
	if !ok {
		return nil
	}
	conv, ok := convexHandle.Geometry().(supporter[R])
	if !ok {
		return nil
	}

	worldNormal := planePos.TransformVector(plane.Normal).Unit()
	// A point anywhere on the plane's face, in world space.
	planePoint := planePos.Trans

	contacts := convexVerticesInDirection[R](conv, convexPos, worldNormal.Neg())
	out := make([]dispatch.Contact[R], 0, len(contacts))
	for _, worldVertex := range contacts {
		depth := planePoint.Sub(worldVertex).Dot(worldNormal)
		if depth < -prediction {
			continue
		}
		out = append(out, dispatch.Contact[R]{
			WorldPoint1: worldVertex.Add(worldNormal.Scale(depth)),
			WorldPoint2: worldVertex,
			Normal:      worldNormal,
			Depth:       depth,
		})
	}
	if p.planeIsA {
		return out
	}
	// Keep World1/World2 and Normal oriented consistently with the
	// (shapeA, shapeB) order the caller passed in, regardless of
	// which side actually carried the Plane geometry.
	for i := range out {
		out[i].Normal = out[i].Normal.Neg()
		out[i].WorldPoint1, out[i].WorldPoint2 = out[i].WorldPoint2, out[i].WorldPoint1
	}
	return out
}

// convexVerticesInDirection returns, for a box, the corner(s) nearest
// to being the support point in dir — in the general case just the
// single support vertex, but for a face aligned with dir (the common
// "box resting on a plane" case) all vertices on that face, so the
// plane contact generator can report every one of them directly.
func convexVerticesInDirection[R lin.Scalar](conv supporter[R], pos lin.Isometry[R], dir lin.Vec3[R]) []lin.Vec3[R] {
	local := pos.InverseTransformVector(dir)
	box, isBox := any(conv).(Box[R])
	if !isBox {
		return []lin.Vec3[R]{pos.TransformPoint(conv.Support(local))}
	}
	const flat = 1e-6
	axisNear := func(v R) R {
		switch {
		case v > flat:
			return 1
		case v < -flat:
			return -1
		default:
			return 0
		}
	}
	sx, sy, sz := axisNear(local.X), axisNear(local.Y), axisNear(local.Z)
	xs, ys, zs := []R{sx}, []R{sy}, []R{sz}
	if sx == 0 {
		xs = []R{-1, 1}
	}
	if sy == 0 {
		ys = []R{-1, 1}
	}
	if sz == 0 {
		zs = []R{-1, 1}
	}
	var verts []lin.Vec3[R]
	for _, x := range xs {
		for _, y := range ys {
			for _, z := range zs {
				local := lin.Vec3[R]{X: x * box.HalfExtent.X, Y: y * box.HalfExtent.Y, Z: z * box.HalfExtent.Z}
				verts = append(verts, pos.TransformPoint(local))
			}
		}
	}
	return verts
}

// planeConvexProximity is the proximity-flavored twin: it only needs
// the single deepest (closest-to-plane) vertex.
type planeConvexProximity[R lin.Scalar] struct {
	planeIsA bool
}

func newPlaneConvexProximity[R lin.Scalar](a, b *shape.Handle) dispatch.ProximityGenerator[R] {
	_, aIsPlane := a.Geometry().(Plane[R])
	return &planeConvexProximity[R]{planeIsA: aIsPlane}
}

func (p *planeConvexProximity[R]) Update(posA, posB lin.Isometry[R], shapeA, shapeB *shape.Handle, margin R) dispatch.ProximityStatus {
	planeHandle, planePos, convexHandle, convexPos := shapeA, posA, shapeB, posB
	if !p.planeIsA {
		planeHandle, planePos, convexHandle, convexPos = shapeB, posB, shapeA, posA
	}
	plane, ok := planeHandle.Geometry().(Plane[R])
	if !ok {
		return dispatch.Disjoint
	}
	conv, ok := convexHandle.Geometry().(supporter[R])
	if !ok {
		return dispatch.Disjoint
	}
	worldNormal := planePos.TransformVector(plane.Normal).Unit()
	local := convexPos.InverseTransformVector(worldNormal.Neg())
	support := convexPos.TransformPoint(conv.Support(local))
	separation := support.Sub(planePos.Trans).Dot(worldNormal)
	return classify(separation, margin)
}
