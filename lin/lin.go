// Package lin provides the minimal linear-algebra types the collision
// core needs: vectors, isometries (rotation + translation), and axis
// aligned bounding boxes. It stands in for the "math layer" that
// spec.md (§6) names as an external collaborator — a real engine would
// plug in its own vector/quaternion library here. The types are kept
// deliberately small and are generic over the scalar type so the core
// is not nailed to float64.
//
// Package vu/physics (the teacher this module grew out of) kept the
// same kind of thing in its own math/lin package and never exposed it
// to callers beyond V3/T; this package follows that shape.
package lin

import "math"

// Scalar is the abstract scalar type R referenced throughout spec.md.
type Scalar interface {
	~float32 | ~float64
}

// Vec3 is a 3D vector. 2D users set Z to zero; the core never special
// cases dimensionality, matching spec.md §4.4's "2D/3D" framing.
type Vec3[R Scalar] struct {
	X, Y, Z R
}

func Vec[R Scalar](x, y, z R) Vec3[R] { return Vec3[R]{X: x, Y: y, Z: z} }

func (v Vec3[R]) Add(o Vec3[R]) Vec3[R] { return Vec3[R]{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3[R]) Sub(o Vec3[R]) Vec3[R] { return Vec3[R]{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3[R]) Scale(s R) Vec3[R]     { return Vec3[R]{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3[R]) Neg() Vec3[R]          { return Vec3[R]{-v.X, -v.Y, -v.Z} }
func (v Vec3[R]) Dot(o Vec3[R]) R       { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3[R]) Cross(o Vec3[R]) Vec3[R] {
	return Vec3[R]{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3[R]) LenSqr() R { return v.Dot(v) }

func (v Vec3[R]) Len() R {
	return R(math.Sqrt(float64(v.LenSqr())))
}

// Unit returns v scaled to unit length. The zero vector is returned
// unchanged rather than producing NaN — callers that need a contact
// normal from a degenerate separation handle that case themselves.
func (v Vec3[R]) Unit() Vec3[R] {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Isometry is a rigid transform: rotation (as a 3x3 matrix, stored row
// major) plus translation. No scale or shear, matching spec.md's
// "rigid isometry" position field (§3).
type Isometry[R Scalar] struct {
	Rot   [3][3]R
	Trans Vec3[R]
}

func Identity[R Scalar]() Isometry[R] {
	var m Isometry[R]
	m.Rot[0][0], m.Rot[1][1], m.Rot[2][2] = 1, 1, 1
	return m
}

func Translation[R Scalar](t Vec3[R]) Isometry[R] {
	m := Identity[R]()
	m.Trans = t
	return m
}

// TransformPoint applies rotation then translation.
func (m Isometry[R]) TransformPoint(p Vec3[R]) Vec3[R] {
	return Vec3[R]{
		m.Rot[0][0]*p.X + m.Rot[0][1]*p.Y + m.Rot[0][2]*p.Z + m.Trans.X,
		m.Rot[1][0]*p.X + m.Rot[1][1]*p.Y + m.Rot[1][2]*p.Z + m.Trans.Y,
		m.Rot[2][0]*p.X + m.Rot[2][1]*p.Y + m.Rot[2][2]*p.Z + m.Trans.Z,
	}
}

// TransformVector applies rotation only (no translation) — for normals
// and offsets rather than points.
func (m Isometry[R]) TransformVector(v Vec3[R]) Vec3[R] {
	return Vec3[R]{
		m.Rot[0][0]*v.X + m.Rot[0][1]*v.Y + m.Rot[0][2]*v.Z,
		m.Rot[1][0]*v.X + m.Rot[1][1]*v.Y + m.Rot[1][2]*v.Z,
		m.Rot[2][0]*v.X + m.Rot[2][1]*v.Y + m.Rot[2][2]*v.Z,
	}
}

// Inverse returns the inverse isometry. The rotation part is assumed
// orthonormal (its inverse is its transpose), which holds for every
// isometry this package constructs.
func (m Isometry[R]) Inverse() Isometry[R] {
	var inv Isometry[R]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			inv.Rot[i][j] = m.Rot[j][i]
		}
	}
	inv.Trans = inv.TransformVector(m.Trans).Neg()
	return inv
}

// InverseTransformPoint transforms p from world space into this
// isometry's local frame: Inverse().TransformPoint(p), without
// materializing the inverse isometry.
func (m Isometry[R]) InverseTransformPoint(p Vec3[R]) Vec3[R] {
	d := p.Sub(m.Trans)
	return Vec3[R]{
		m.Rot[0][0]*d.X + m.Rot[1][0]*d.Y + m.Rot[2][0]*d.Z,
		m.Rot[0][1]*d.X + m.Rot[1][1]*d.Y + m.Rot[2][1]*d.Z,
		m.Rot[0][2]*d.X + m.Rot[1][2]*d.Y + m.Rot[2][2]*d.Z,
	}
}

// InverseTransformVector rotates v by the inverse rotation (transpose),
// ignoring translation — used to bring a world-space direction into
// local space without materializing the inverse isometry.
func (m Isometry[R]) InverseTransformVector(v Vec3[R]) Vec3[R] {
	return Vec3[R]{
		m.Rot[0][0]*v.X + m.Rot[1][0]*v.Y + m.Rot[2][0]*v.Z,
		m.Rot[0][1]*v.X + m.Rot[1][1]*v.Y + m.Rot[2][1]*v.Z,
		m.Rot[0][2]*v.X + m.Rot[1][2]*v.Y + m.Rot[2][2]*v.Z,
	}
}

// RotationZ builds a rotation of angle radians about the Z axis,
// sufficient for the 2D scenarios in spec.md §8. The one-shot manifold
// wrapper (§4.4) perturbs orientation with RotationAxis instead.
func RotationZ[R Scalar](angle R) Isometry[R] {
	m := Identity[R]()
	c := R(math.Cos(float64(angle)))
	s := R(math.Sin(float64(angle)))
	m.Rot[0][0], m.Rot[0][1] = c, -s
	m.Rot[1][0], m.Rot[1][1] = s, c
	return m
}

// RotationAxis builds a rotation of angle radians about unit axis,
// used by the one-shot manifold wrapper (§4.4) to perturb orientation
// around axes orthogonal to the contact normal in 3D.
func RotationAxis[R Scalar](axis Vec3[R], angle R) Isometry[R] {
	a := axis.Unit()
	c := R(math.Cos(float64(angle)))
	s := R(math.Sin(float64(angle)))
	t := 1 - c
	m := Identity[R]()
	m.Rot[0][0] = t*a.X*a.X + c
	m.Rot[0][1] = t*a.X*a.Y - s*a.Z
	m.Rot[0][2] = t*a.X*a.Z + s*a.Y
	m.Rot[1][0] = t*a.X*a.Y + s*a.Z
	m.Rot[1][1] = t*a.Y*a.Y + c
	m.Rot[1][2] = t*a.Y*a.Z - s*a.X
	m.Rot[2][0] = t*a.X*a.Z - s*a.Y
	m.Rot[2][1] = t*a.Y*a.Z + s*a.X
	m.Rot[2][2] = t*a.Z*a.Z + c
	return m
}

// Compose returns the isometry equivalent to applying m first, then o
// (o.TransformPoint(m.TransformPoint(p))).
func Compose[R Scalar](o, m Isometry[R]) Isometry[R] {
	var r Isometry[R]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum R
			for k := 0; k < 3; k++ {
				sum += o.Rot[i][k] * m.Rot[k][j]
			}
			r.Rot[i][j] = sum
		}
	}
	r.Trans = o.TransformPoint(m.Trans)
	return r
}
