// Package kernel is a minimal, reference stand-in for the geometry
// kernel spec.md §1 names as an external collaborator ("support
// functions, GJK/EPA, ray/AABB intersection, segment/triangle
// primitives, AABB computation... The core calls into it but does not
// define it"). A real engine would swap this package out entirely;
// this one exists so the rest of the module — dispatcher, narrow
// phase, world — has concrete geometry to drive through its tests and
// the end-to-end scenarios in spec.md §8.
//
// It implements exactly the shape/algorithm pairs spec.md §4.3's
// registry names: ball/ball (analytical), plane/convex
// (support-map based), and convex/convex (a simplified GJK+EPA stand-
// in, wrapped by the manifold package's one-shot generator). Composite
// and concave traversal are wired structurally (BuildDispatchers
// registers the recursive sub-pair dispatch spec.md §4.3 describes)
// over Compound and Mesh stand-ins that are plain lists of child
// shapes; this package does not ship a real triangle-mesh or
// BVH-of-shapes geometry type — that belongs to the concrete shape
// types spec.md §1 places out of scope.
package kernel

import (
	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/shape"
)

// Ball is a sphere (2D: a circle) of the given radius centered at its
// object's isometry.
type Ball[R lin.Scalar] struct {
	Radius R
}

func (Ball[R]) ShapeType() shape.Type { return shape.Ball }

// Plane is an infinite half-space; Normal points away from the solid
// side, in the shape's local frame (typically +Y or +Z).
type Plane[R lin.Scalar] struct {
	Normal lin.Vec3[R]
}

func (Plane[R]) ShapeType() shape.Type { return shape.Plane }

// Box is an axis-aligned (in its own local frame) cuboid given by its
// half-extents. It also stands in for spec.md's "support-mapped
// convex" category in this reference kernel.
type Box[R lin.Scalar] struct {
	HalfExtent lin.Vec3[R]
}

func (Box[R]) ShapeType() shape.Type { return shape.Cuboid }

// Support returns the farthest point of the box, in local space, in
// direction dir — the one primitive a "support-mapped convex" shape
// must provide (spec.md §1, §4.3).
func (b Box[R]) Support(dir lin.Vec3[R]) lin.Vec3[R] {
	sign := func(v R) R {
		if v < 0 {
			return -1
		}
		return 1
	}
	return lin.Vec3[R]{
		X: sign(dir.X) * b.HalfExtent.X,
		Y: sign(dir.Y) * b.HalfExtent.Y,
		Z: sign(dir.Z) * b.HalfExtent.Z,
	}
}

// AABB computes the exact, tight axis-aligned bounding box of a shape
// at the given world isometry — spec.md §6's "aabb(shape, isometry) →
// AABB" kernel entry point.
func AABB[R lin.Scalar](h *shape.Handle, pos lin.Isometry[R]) lin.AABB[R] {
	switch g := h.Geometry().(type) {
	case Ball[R]:
		c := pos.Trans
		r := lin.Vec3[R]{g.Radius, g.Radius, g.Radius}
		return lin.AABB[R]{Min: c.Sub(r), Max: c.Add(r)}
	case Plane[R]:
		// An infinite plane's exact AABB is unbounded in the two axes
		// along its face; the broad phase only ever loosens a finite
		// box, so a very large but finite box keeps every downstream
		// AABB op well-defined.
		big := R(1e6)
		n := pos.TransformVector(g.Normal).Unit()
		c := pos.Trans.Sub(n.Scale(big))
		ext := lin.Vec3[R]{big, big, big}
		return lin.AABB[R]{Min: c.Sub(ext), Max: c.Add(ext)}
	case Box[R]:
		return boxAABB(g, pos)
	default:
		panic("kernel: AABB called with unknown geometry type")
	}
}

// boxAABB computes a box's exact world AABB by transforming all eight
// corners — simple and correct; a production kernel would use the
// standard |R|*halfExtent shortcut, but this reference kernel favors
// the version that's obviously right over the version that's fast.
func boxAABB[R lin.Scalar](b Box[R], pos lin.Isometry[R]) lin.AABB[R] {
	he := b.HalfExtent
	corners := [8]lin.Vec3[R]{
		{he.X, he.Y, he.Z}, {he.X, he.Y, -he.Z}, {he.X, -he.Y, he.Z}, {he.X, -he.Y, -he.Z},
		{-he.X, he.Y, he.Z}, {-he.X, he.Y, -he.Z}, {-he.X, -he.Y, he.Z}, {-he.X, -he.Y, -he.Z},
	}
	world := pos.TransformPoint(corners[0])
	box := lin.AABB[R]{Min: world, Max: world}
	for _, c := range corners[1:] {
		w := pos.TransformPoint(c)
		box = box.Union(lin.AABB[R]{Min: w, Max: w})
	}
	return box
}
