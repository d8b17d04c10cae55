package kernel

import (
	"github.com/galvanizedlogic/collide/dispatch"
	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/shape"
)

// allTypes lists every shape.Type this reference kernel knows about,
// used only to wire the composite/concave "vs any" registrations
// below — it is not a statement about which geometries this kernel
// actually implements (only Ball, Plane, Cuboid, Compound and Mesh
// have concrete Geometry values; the rest are registered so a real
// geometry kernel's future Cone/Cylinder/Capsule/Convex types slot
// into the same recursive composite/concave handling without needing
// dispatcher changes).
var allTypes = []shape.Type{
	shape.Ball, shape.Plane, shape.Cuboid, shape.Cone, shape.Cylinder,
	shape.Capsule, shape.Convex, shape.TriMesh, shape.Composite,
}

// BuildDispatchers populates and returns the default contact and
// proximity dispatchers, wiring spec.md §4.3's fixed registry:
//
//   - ball/ball: analytical
//   - plane/support-mapped convex: plane-support-map generator
//   - support-mapped convex/support-mapped convex: GJK+EPA, wrapped in
//     a one-shot manifold generator
//   - composite (mesh/compound)/any: recursive traversal delegating
//     sub-pairs back to the dispatcher
//   - concave/concave: BVH×BVH traversal (modeled here, for lack of a
//     real mesh/BVH geometry type, as concave/any using the same
//     recursive traversal as composite)
func BuildDispatchers[R lin.Scalar]() (*dispatch.ContactDispatcher[R], *dispatch.ProximityDispatcher[R]) {
	contacts := dispatch.NewContactDispatcher[R]()
	proximities := dispatch.NewProximityDispatcher[R]()

	contacts.Register(shape.Ball, shape.Ball, newBallBallContact[R])
	proximities.Register(shape.Ball, shape.Ball, newBallBallProximity[R])

	contacts.Register(shape.Plane, shape.Cuboid, newPlaneConvexContact[R])
	proximities.Register(shape.Plane, shape.Cuboid, newPlaneConvexProximity[R])

	contacts.Register(shape.Cuboid, shape.Cuboid, oneShotBoxBoxFactory[R]())
	proximities.Register(shape.Cuboid, shape.Cuboid, newBoxBoxProximity[R])

	compositeContactFactory := newCompositeContactFactory(contacts)
	compositeProximityFactory := newCompositeProximityFactory(proximities)
	for _, t := range allTypes {
		contacts.Register(shape.Composite, t, compositeContactFactory)
		proximities.Register(shape.Composite, t, compositeProximityFactory)
		contacts.Register(shape.TriMesh, t, compositeContactFactory)
		proximities.Register(shape.TriMesh, t, compositeProximityFactory)
	}

	return contacts, proximities
}
