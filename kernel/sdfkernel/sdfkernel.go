// Package sdfkernel implements kernel.Kernel with signed distance functions.
// Solids are sdf.SDF3 values and curves are cubic splines. Every handle is
// immutable once returned so it may be evaluated from many goroutines.
package sdfkernel

import (
	"errors"
	"fmt"
	"math"
	"runtime/debug"

	"github.com/soypat/threadcad/internal/d3"
	"github.com/soypat/threadcad/kernel"
	"github.com/soypat/threadcad/sdf"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Kernel is a stateless geometry kernel over signed distance functions.
// The zero value is ready to use.
type Kernel struct {
	// FramesPerSpan is the number of sweep frames generated for each span of
	// a fitted curve. Zero means 2.
	FramesPerSpan int
}

var _ kernel.Kernel = (*Kernel)(nil)

// New returns a Kernel with default settings.
func New() *Kernel { return &Kernel{} }

// SDF returns the distance function behind a solid created by this package.
func SDF(s kernel.Solid) (sdf.SDF3, error) {
	f, ok := s.(sdf.SDF3)
	if !ok || f == nil {
		return nil, fmt.Errorf("foreign solid handle %T", s)
	}
	return f, nil
}

func (k *Kernel) MakeCylinder(radius, height float64) (s kernel.Solid, err error) {
	const op = "cylinder"
	if !(radius > 0) || !(height > 0) || math.IsInf(radius+height, 0) {
		return nil, &kernel.Error{Op: op, Err: fmt.Errorf("bad dimensions r=%g h=%g", radius, height)}
	}
	defer recoverShape(op, &s, &err)
	return sdf.Translate3D(sdf.Cylinder(height, radius), r3.Vec{Z: height / 2}), nil
}

func (k *Kernel) MakeBox(min, max r3.Vec) (s kernel.Solid, err error) {
	const op = "box"
	size := r3.Sub(max, min)
	if !d3.IsFinite(size) || d3.LTEZero(size) {
		return nil, &kernel.Error{Op: op, Err: fmt.Errorf("bad corners %v %v", min, max)}
	}
	defer recoverShape(op, &s, &err)
	center := d3.Box{Min: min, Max: max}.Center()
	return sdf.Translate3D(sdf.Box(size), center), nil
}

func (k *Kernel) MakeRevolved(section []r2.Vec) (s kernel.Solid, err error) {
	const op = "revolve"
	if len(section) < 3 {
		return nil, &kernel.Error{Op: op, Err: errors.New("section needs at least 3 vertices")}
	}
	for _, v := range section {
		if v.X < 0 || math.IsNaN(v.X+v.Y) || math.IsInf(v.X+v.Y, 0) {
			return nil, &kernel.Error{Op: op, Err: fmt.Errorf("vertex %v outside the r >= 0 half plane", v)}
		}
	}
	defer recoverShape(op, &s, &err)
	return sdf.Revolve3D(sdf.Polygon(section)), nil
}

func (k *Kernel) FitSmoothCurve(points []r3.Vec, opts kernel.FitOptions) (kernel.Curve, error) {
	c, err := fitCurve(points, opts)
	if err != nil {
		return nil, &kernel.Error{Op: "fit", Err: err}
	}
	return c, nil
}

// SweepAlongPath sweeps section along a curve returned by FitSmoothCurve.
// The section is carried rigidly by the curve's Frenet frame starting from
// its position at the curve start.
func (k *Kernel) SweepAlongPath(path kernel.Curve, section kernel.Polygon) (s kernel.Solid, err error) {
	const op = "sweep"
	c, ok := path.(*Curve)
	if !ok || c == nil {
		return nil, &kernel.Error{Op: op, Err: fmt.Errorf("foreign curve handle %T", path)}
	}
	if err := section.Validate(); err != nil {
		return nil, &kernel.Error{Op: op, Err: err}
	}
	frames, err := c.Frames(k.framesPerSpan()*c.Spans() + 1)
	if err != nil {
		return nil, &kernel.Error{Op: op, Err: err}
	}
	defer recoverShape(op, &s, &err)
	return sdf.Sweep3D(frames, section), nil
}

func (k *Kernel) Union(a, b kernel.Solid) (kernel.Solid, error) {
	return k.combine("union", a, b, func(a, b sdf.SDF3) sdf.SDF3 { return sdf.Union3D(a, b) })
}

func (k *Kernel) Intersect(a, b kernel.Solid) (kernel.Solid, error) {
	return k.combine("intersect", a, b, sdf.Intersect3D)
}

func (k *Kernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	return k.combine("difference", a, b, sdf.Difference3D)
}

func (k *Kernel) Transform(s kernel.Solid, p kernel.Placement) (out kernel.Solid, err error) {
	const op = "transform"
	f, err := SDF(s)
	if err != nil {
		return nil, &kernel.Error{Op: op, Err: err}
	}
	if !d3.IsFinite(p.Translation) {
		return nil, &kernel.Error{Op: op, Err: errors.New("translation not finite")}
	}
	defer recoverShape(op, &out, &err)
	return sdf.Transform3D(f, d3.ComposeTransform(p.Translation, p.Rotation)), nil
}

func (k *Kernel) combine(op string, a, b kernel.Solid, fn func(a, b sdf.SDF3) sdf.SDF3) (s kernel.Solid, err error) {
	fa, err := SDF(a)
	if err != nil {
		return nil, &kernel.Error{Op: op, Err: err}
	}
	fb, err := SDF(b)
	if err != nil {
		return nil, &kernel.Error{Op: op, Err: err}
	}
	defer recoverShape(op, &s, &err)
	return fn(fa, fb), nil
}

func (k *Kernel) framesPerSpan() int {
	if k.FramesPerSpan <= 0 {
		return 2
	}
	return k.FramesPerSpan
}

// shapeErr is a panic raised while constructing a distance function.
type shapeErr struct {
	panicObj interface{}
	stack    string
}

func (e *shapeErr) Error() string {
	return fmt.Sprintf("%v", e.panicObj)
}

// recoverShape converts a panic into a kernel error. It must be deferred.
func recoverShape(op string, s *kernel.Solid, err *error) {
	if a := recover(); a != nil {
		*s = nil
		*err = &kernel.Error{Op: op, Err: &shapeErr{
			panicObj: a,
			stack:    string(debug.Stack()),
		}}
	}
}
