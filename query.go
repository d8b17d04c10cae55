package collide

import "github.com/galvanizedlogic/collide/narrowphase"

// QueryKind distinguishes the two QueryType variants of spec.md §3.
type QueryKind = narrowphase.Kind

const (
	Contacts  QueryKind = narrowphase.KindContacts
	Proximity QueryKind = narrowphase.KindProximity
)

// QueryType is the tagged variant spec.md §3 describes: either
// Contacts(prediction) for a full contact manifold, or
// Proximity(margin) for a three-state proximity result. Construct one
// with NewContacts or NewProximity.
type QueryType[R Scalar] struct {
	Kind  QueryKind
	Value R // prediction for Contacts, margin for Proximity.
}

// NewContacts requests a full contact manifold while the pair's
// penetration distance is within prediction of touching.
func NewContacts[R Scalar](prediction R) QueryType[R] {
	return QueryType[R]{Kind: Contacts, Value: prediction}
}

// NewProximity requests only the three-state proximity result,
// relative to margin.
func NewProximity[R Scalar](margin R) QueryType[R] {
	return QueryType[R]{Kind: Proximity, Value: margin}
}

func (q QueryType[R]) toNarrowphase() narrowphase.Query[R] {
	return narrowphase.Query[R]{Kind: q.Kind, Value: q.Value}
}
