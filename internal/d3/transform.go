package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is a rigid 3D transformation: a rotation followed by a translation.
// The zero value of Transform is the identity transform.
type Transform struct {
	// The rotation block is stored with the identity subtracted from the
	// diagonal so the zero value is the identity:
	//  d00 = x00-1, d11 = x11-1, d22 = x22-1
	d00, x01, x02, x03 float64
	x10, d11, x12, x13 float64
	x20, x21, d22, x23 float64
}

// ComposeTransform creates a transform that rotates by q and then translates
// by position. The zero Rotation is treated as the identity rotation.
func ComposeTransform(position r3.Vec, q r3.Rotation) Transform {
	x2 := q.Imag + q.Imag
	y2 := q.Jmag + q.Jmag
	z2 := q.Kmag + q.Kmag
	xx := q.Imag * x2
	yy := q.Jmag * y2
	zz := q.Kmag * z2
	xy := q.Imag * y2
	xz := q.Imag * z2
	yz := q.Jmag * z2
	wx := q.Real * x2
	wy := q.Real * y2
	wz := q.Real * z2

	var t Transform
	t.d00 = -(yy + zz)
	t.x10 = xy + wz
	t.x20 = xz - wy

	t.x01 = xy - wz
	t.d11 = -(xx + zz)
	t.x21 = yz + wx

	t.x02 = xz + wy
	t.x12 = yz - wx
	t.d22 = -(xx + yy)

	t.x03 = position.X
	t.x13 = position.Y
	t.x23 = position.Z
	return t
}

// Transform applies the Transform to the argument position.
func (t Transform) Transform(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: (t.d00+1)*v.X + t.x01*v.Y + t.x02*v.Z + t.x03,
		Y: t.x10*v.X + (t.d11+1)*v.Y + t.x12*v.Z + t.x13,
		Z: t.x20*v.X + t.x21*v.Y + (t.d22+1)*v.Z + t.x23,
	}
}

// Rotate applies only the rotation part of the Transform to a direction.
func (t Transform) Rotate(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: (t.d00+1)*v.X + t.x01*v.Y + t.x02*v.Z,
		Y: t.x10*v.X + (t.d11+1)*v.Y + t.x12*v.Z,
		Z: t.x20*v.X + t.x21*v.Y + (t.d22+1)*v.Z,
	}
}

// Translate adds v to the positional part of the Transform.
func (t Transform) Translate(v r3.Vec) Transform {
	t.x03 += v.X
	t.x13 += v.Y
	t.x23 += v.Z
	return t
}

// Mul returns the transform equivalent to applying b and then t.
func (t Transform) Mul(b Transform) Transform {
	if t == (Transform{}) {
		return b
	}
	if b == (Transform{}) {
		return t
	}
	x00, x11, x22 := t.d00+1, t.d11+1, t.d22+1
	y00, y11, y22 := b.d00+1, b.d11+1, b.d22+1
	var m Transform
	m.d00 = x00*y00 + t.x01*b.x10 + t.x02*b.x20 - 1
	m.x01 = x00*b.x01 + t.x01*y11 + t.x02*b.x21
	m.x02 = x00*b.x02 + t.x01*b.x12 + t.x02*y22
	m.x03 = x00*b.x03 + t.x01*b.x13 + t.x02*b.x23 + t.x03

	m.x10 = t.x10*y00 + x11*b.x10 + t.x12*b.x20
	m.d11 = t.x10*b.x01 + x11*y11 + t.x12*b.x21 - 1
	m.x12 = t.x10*b.x02 + x11*b.x12 + t.x12*y22
	m.x13 = t.x10*b.x03 + x11*b.x13 + t.x12*b.x23 + t.x13

	m.x20 = t.x20*y00 + t.x21*b.x10 + x22*b.x20
	m.x21 = t.x20*b.x01 + t.x21*y11 + x22*b.x21
	m.d22 = t.x20*b.x02 + t.x21*b.x12 + x22*y22 - 1
	m.x23 = t.x20*b.x03 + t.x21*b.x13 + x22*b.x23 + t.x23
	return m
}

// Inv returns the inverse of a rigid transform such that
// t.Inv().Mul(t) is the identity Transform.
func (t Transform) Inv() Transform {
	if t == (Transform{}) {
		return t
	}
	// Rotation inverse is its transpose.
	m := Transform{
		d00: t.d00, x01: t.x10, x02: t.x20,
		x10: t.x01, d11: t.d11, x12: t.x21,
		x20: t.x02, x21: t.x12, d22: t.d22,
	}
	p := m.Rotate(r3.Vec{X: t.x03, Y: t.x13, Z: t.x23})
	m.x03, m.x13, m.x23 = -p.X, -p.Y, -p.Z
	return m
}

// ApplyBox returns the axis aligned box containing the transformed corners of a.
func (t Transform) ApplyBox(a Box) Box {
	v := a.Vertices()
	out := Box{Min: t.Transform(v[0]), Max: t.Transform(v[0])}
	for _, p := range v[1:] {
		out = out.Include(t.Transform(p))
	}
	return out
}

// Equals tests the equality of the Transforms to within a tolerance.
func (t Transform) Equals(b Transform, tol float64) bool {
	return math.Abs(t.d00-b.d00) < tol && math.Abs(t.x01-b.x01) < tol &&
		math.Abs(t.x02-b.x02) < tol && math.Abs(t.x03-b.x03) < tol &&
		math.Abs(t.x10-b.x10) < tol && math.Abs(t.d11-b.d11) < tol &&
		math.Abs(t.x12-b.x12) < tol && math.Abs(t.x13-b.x13) < tol &&
		math.Abs(t.x20-b.x20) < tol && math.Abs(t.x21-b.x21) < tol &&
		math.Abs(t.d22-b.d22) < tol && math.Abs(t.x23-b.x23) < tol
}
