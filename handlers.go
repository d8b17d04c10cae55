package collide

// BroadPhasePairFilter is a user-supplied admission rule, consulted in
// addition to CollisionGroups when the world builds its composite
// filter each update (spec.md §4.6, §6). Registering or unregistering
// one forces a broad-phase recompute-all, since the filter semantics
// just changed.
type BroadPhasePairFilter[R Scalar] interface {
	IsPairValid(a, b *CollisionObject[R]) bool
}

// BroadPhasePairFilterFunc adapts a plain function to
// BroadPhasePairFilter.
type BroadPhasePairFilterFunc[R Scalar] func(a, b *CollisionObject[R]) bool

func (f BroadPhasePairFilterFunc[R]) IsPairValid(a, b *CollisionObject[R]) bool { return f(a, b) }

// ProximityHandler receives ProximityChanged events (spec.md §6).
type ProximityHandler[R Scalar] interface {
	HandleProximity(a, b *CollisionObject[R], prev, new ProximityStatus)
}

// ProximityHandlerFunc adapts a plain function to ProximityHandler.
type ProximityHandlerFunc[R Scalar] func(a, b *CollisionObject[R], prev, new ProximityStatus)

func (f ProximityHandlerFunc[R]) HandleProximity(a, b *CollisionObject[R], prev, new ProximityStatus) {
	f(a, b, prev, new)
}

// ContactHandler receives ContactStarted/ContactStopped events
// (spec.md §6).
type ContactHandler[R Scalar] interface {
	HandleContactStarted(a, b *CollisionObject[R], algo any)
	HandleContactStopped(a, b *CollisionObject[R])
}

// ContactHandlerFuncs adapts a pair of plain functions to
// ContactHandler.
type ContactHandlerFuncs[R Scalar] struct {
	Started func(a, b *CollisionObject[R], algo any)
	Stopped func(a, b *CollisionObject[R])
}

func (f ContactHandlerFuncs[R]) HandleContactStarted(a, b *CollisionObject[R], algo any) {
	if f.Started != nil {
		f.Started(a, b, algo)
	}
}

func (f ContactHandlerFuncs[R]) HandleContactStopped(a, b *CollisionObject[R]) {
	if f.Stopped != nil {
		f.Stopped(a, b)
	}
}
