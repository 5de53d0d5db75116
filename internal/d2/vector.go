package d2

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Set is a set of 2D points.
type Set []r2.Vec

func EqualWithin(a, b r2.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// MinElem return a vector with the minimum components of two vectors.
func MinElem(a, b r2.Vec) r2.Vec {
	return r2.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)}
}

// MaxElem return a vector with the maximum components of two vectors.
func MaxElem(a, b r2.Vec) r2.Vec {
	return r2.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)}
}

// Min return the minimum components of a set of vectors.
func (a Set) Min() r2.Vec {
	vmin := a[0]
	for _, v := range a {
		vmin = MinElem(vmin, v)
	}
	return vmin
}

// Max return the maximum components of a set of vectors.
func (a Set) Max() r2.Vec {
	vmax := a[0]
	for _, v := range a {
		vmax = MaxElem(vmax, v)
	}
	return vmax
}

// Area returns the signed area of the closed polygon described by the set.
// Counter-clockwise polygons have positive area.
func (a Set) Area() float64 {
	var sum float64
	for i := range a {
		j := (i + 1) % len(a)
		sum += a[i].X*a[j].Y - a[j].X*a[i].Y
	}
	return sum / 2
}
