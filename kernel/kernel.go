// Package kernel defines the contract between thread generation and the
// geometry kernel that owns solids and curves. Handles returned by a Kernel
// are opaque: callers compose them through the Kernel and hand them back,
// they never look inside.
package kernel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Solid is an opaque handle to a closed volume owned by a Kernel.
type Solid interface {
	// Bounds returns a box containing the solid.
	Bounds() r3.Box
}

// Curve is an opaque handle to a smooth parametric curve owned by a Kernel.
type Curve interface {
	Bounds() r3.Box
	// Start and End return the curve's endpoints.
	Start() r3.Vec
	End() r3.Vec
}

// Continuity is the order of geometric continuity requested from a curve fit.
type Continuity int

const (
	C0 Continuity = iota
	C1
	C2
)

func (c Continuity) String() string {
	switch c {
	case C0:
		return "C0"
	case C1:
		return "C1"
	case C2:
		return "C2"
	}
	return fmt.Sprintf("Continuity(%d)", int(c))
}

// FitOptions configures FitSmoothCurve.
type FitOptions struct {
	Degree     int
	Continuity Continuity
	// Tolerance is the maximum distance between the fitted curve and any
	// of the input points.
	Tolerance float64
}

// Kernel is the set of geometry operations thread generation relies on.
// Implementations must be safe for concurrent use when every call operates
// on handles it exclusively owns.
type Kernel interface {
	// MakeCylinder returns a Z aligned cylinder with its base on z=0.
	MakeCylinder(radius, height float64) (Solid, error)
	// MakeBox returns the axis aligned box spanning min to max.
	MakeBox(min, max r3.Vec) (Solid, error)
	// MakeRevolved returns the solid of revolution about the Z axis of a
	// closed polygon in the (radius, z) half plane.
	MakeRevolved(section []r2.Vec) (Solid, error)
	// FitSmoothCurve fits a smooth curve through the ordered points.
	FitSmoothCurve(points []r3.Vec, opts FitOptions) (Curve, error)
	// SweepAlongPath sweeps a closed planar polygon along path using
	// path-following (Frenet) orientation.
	SweepAlongPath(path Curve, section Polygon) (Solid, error)
	Union(a, b Solid) (Solid, error)
	Intersect(a, b Solid) (Solid, error)
	// Difference returns a with b removed.
	Difference(a, b Solid) (Solid, error)
	Transform(s Solid, p Placement) (Solid, error)
}

// Placement is a rigid motion: a rotation followed by a translation.
// The zero value is the identity.
type Placement struct {
	Rotation    r3.Rotation
	Translation r3.Vec
}

// Rotated returns a Placement rotating by angle radians about axis.
func Rotated(angle float64, axis r3.Vec) Placement {
	return Placement{Rotation: r3.NewRotation(angle, axis)}
}

// Translated returns a Placement that translates by v.
func Translated(v r3.Vec) Placement {
	return Placement{Translation: v}
}

// Then returns a Placement that applies p and then q.
func (p Placement) Then(q Placement) Placement {
	rot := q.rotation()
	pr := p.rotation()
	return Placement{
		Rotation:    quatMul(rot, pr),
		Translation: r3.Add(rot.Rotate(p.Translation), q.Translation),
	}
}

// Apply moves v by the placement.
func (p Placement) Apply(v r3.Vec) r3.Vec {
	return r3.Add(p.rotation().Rotate(v), p.Translation)
}

func (p Placement) rotation() r3.Rotation {
	if p.Rotation == (r3.Rotation{}) {
		return r3.Rotation{Real: 1}
	}
	return p.Rotation
}

// Polygon is a closed planar wire given in world coordinates. The closing
// edge from the last vertex back to the first is implicit.
type Polygon []r3.Vec

// Transform returns a copy of the polygon moved by p.
func (pg Polygon) Transform(p Placement) Polygon {
	out := make(Polygon, len(pg))
	for i, v := range pg {
		out[i] = p.Apply(v)
	}
	return out
}

// Centroid returns the vertex average of the polygon.
func (pg Polygon) Centroid() r3.Vec {
	var c r3.Vec
	for _, v := range pg {
		c = r3.Add(c, v)
	}
	return r3.Scale(1/float64(len(pg)), c)
}

// Normal returns the area weighted normal of the polygon (Newell's method).
// Its length is twice the polygon's area.
func (pg Polygon) Normal() r3.Vec {
	var n r3.Vec
	for i := range pg {
		a, b := pg[i], pg[(i+1)%len(pg)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// Validate checks the polygon has at least three finite vertices, non-zero
// area and lies on a plane.
func (pg Polygon) Validate() error {
	if len(pg) < 3 {
		return errors.New("polygon needs at least 3 vertices")
	}
	for _, v := range pg {
		if math.IsNaN(v.X+v.Y+v.Z) || math.IsInf(v.X+v.Y+v.Z, 0) {
			return errors.New("polygon vertex not finite")
		}
	}
	n := pg.Normal()
	area := r3.Norm(n) / 2
	if area < 1e-12 {
		return errors.New("polygon has zero area")
	}
	n = r3.Unit(n)
	c := pg.Centroid()
	for _, v := range pg {
		d := r3.Sub(v, c)
		if math.Abs(r3.Dot(d, n)) > 1e-6*(1+r3.Norm(d)) {
			return errors.New("polygon is not planar")
		}
	}
	return nil
}

// Error is a failure inside a Kernel operation.
type Error struct {
	// Op is the kernel operation that failed, i.e. "sweep".
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "kernel: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func quatMul(a, b r3.Rotation) r3.Rotation {
	return r3.Rotation{
		Real: a.Real*b.Real - a.Imag*b.Imag - a.Jmag*b.Jmag - a.Kmag*b.Kmag,
		Imag: a.Real*b.Imag + a.Imag*b.Real + a.Jmag*b.Kmag - a.Kmag*b.Jmag,
		Jmag: a.Real*b.Jmag - a.Imag*b.Kmag + a.Jmag*b.Real + a.Kmag*b.Imag,
		Kmag: a.Real*b.Kmag + a.Imag*b.Jmag - a.Jmag*b.Imag + a.Kmag*b.Real,
	}
}
