package collide

import (
	"github.com/galvanizedlogic/collide/broadphase"
	"github.com/galvanizedlogic/collide/dispatch"
	"github.com/galvanizedlogic/collide/lin"
	"github.com/galvanizedlogic/collide/narrowphase"
	"github.com/galvanizedlogic/collide/shape"
)

// Scalar is the abstract scalar type R spec.md uses throughout.
type Scalar = lin.Scalar

// ObjectHandle identifies a CollisionObject for the lifetime of the
// world (spec.md §3: "stable, opaque, invalidated only by removal").
type ObjectHandle = narrowphase.ObjectHandle

// ProxyHandle is the broad-phase-scoped handle for an object (spec.md
// GLOSSARY: "Proxy").
type ProxyHandle = broadphase.ProxyHandle

// Contact is a single point of a contact manifold (spec.md §6).
type Contact[R Scalar] = dispatch.Contact[R]

// ProximityStatus is the three-state proximity result (spec.md §3).
type ProximityStatus = dispatch.ProximityStatus

const (
	Disjoint     = dispatch.Disjoint
	WithinMargin = dispatch.WithinMargin
	Intersecting = dispatch.Intersecting
)

// CollisionObject is the world's record of one tracked object (spec.md
// §3). It exposes only accessors — mutation happens exclusively
// through World's deferred-operation methods, per spec.md §5's
// shared-resource policy.
type CollisionObject[R Scalar] struct {
	handle ObjectHandle
	proxy  ProxyHandle

	position lin.Isometry[R]
	shape    *shape.Handle
	groups   CollisionGroups
	query    QueryType[R]
	data     any
}

func (co *CollisionObject[R]) Handle() ObjectHandle      { return co.handle }
func (co *CollisionObject[R]) Proxy() ProxyHandle        { return co.proxy }
func (co *CollisionObject[R]) Position() lin.Isometry[R] { return co.position }
func (co *CollisionObject[R]) Shape() *shape.Handle      { return co.shape }
func (co *CollisionObject[R]) Groups() CollisionGroups   { return co.groups }
func (co *CollisionObject[R]) Query() QueryType[R]       { return co.query }

// Data returns the object's opaque user data.
func (co *CollisionObject[R]) Data() any { return co.data }

// SetData mutates the object's user data in place. Spec.md §5: "User
// data stored in collision objects is owned by the world but mutable
// via an explicit mutable-access method (the core never mutates it)."
func (co *CollisionObject[R]) SetData(data any) { co.data = data }
