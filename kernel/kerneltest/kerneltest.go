// Package kerneltest provides a recording kernel.Kernel for testing code
// that composes geometry without evaluating it.
package kerneltest

import (
	"fmt"
	"sync"

	"github.com/soypat/threadcad/kernel"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Operation names recorded in Call.Op and accepted as FailOn keys.
const (
	OpCylinder   = "MakeCylinder"
	OpBox        = "MakeBox"
	OpRevolved   = "MakeRevolved"
	OpFit        = "FitSmoothCurve"
	OpSweep      = "SweepAlongPath"
	OpUnion      = "Union"
	OpIntersect  = "Intersect"
	OpDifference = "Difference"
	OpTransform  = "Transform"
)

// Call is one recorded kernel invocation.
type Call struct {
	Op   string
	Args []interface{}
}

// Solid is the handle returned for every solid. It carries the inputs that
// produced it.
type Solid struct {
	Op      string
	ID      int
	Box     r3.Box
	Section kernel.Polygon // set for sweeps
	Path    *Curve         // set for sweeps
	Operand []*Solid       // set for booleans and transforms
	Place   kernel.Placement
	Profile []r2.Vec // set for revolved solids
}

func (s *Solid) Bounds() r3.Box { return s.Box }

// Curve is the handle returned by FitSmoothCurve.
type Curve struct {
	ID     int
	Points []r3.Vec
	Opts   kernel.FitOptions
}

func (c *Curve) Bounds() r3.Box {
	var bb r3.Box
	for i, p := range c.Points {
		if i == 0 {
			bb = r3.Box{Min: p, Max: p}
			continue
		}
		bb.Min = r3.Vec{X: min(bb.Min.X, p.X), Y: min(bb.Min.Y, p.Y), Z: min(bb.Min.Z, p.Z)}
		bb.Max = r3.Vec{X: max(bb.Max.X, p.X), Y: max(bb.Max.Y, p.Y), Z: max(bb.Max.Z, p.Z)}
	}
	return bb
}

func (c *Curve) Start() r3.Vec { return c.Points[0] }
func (c *Curve) End() r3.Vec   { return c.Points[len(c.Points)-1] }

// Kernel records every call and returns canned handles. Operations named in
// FailOn return the configured error instead. A Kernel must not be copied
// after first use.
type Kernel struct {
	FailOn map[string]error

	mu    sync.Mutex
	calls []Call
	next  int
}

var _ kernel.Kernel = (*Kernel)(nil)

// Calls returns a copy of the recorded calls in order.
func (k *Kernel) Calls() []Call {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]Call(nil), k.calls...)
}

// Ops returns the names of the recorded calls in order.
func (k *Kernel) Ops() []string {
	calls := k.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was called.
func (k *Kernel) Count(op string) (n int) {
	for _, c := range k.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (k *Kernel) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.calls = nil
}

func (k *Kernel) record(op string, args ...interface{}) (id int, err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.calls = append(k.calls, Call{Op: op, Args: args})
	if err := k.FailOn[op]; err != nil {
		return 0, err
	}
	k.next++
	return k.next, nil
}

func (k *Kernel) MakeCylinder(radius, height float64) (kernel.Solid, error) {
	id, err := k.record(OpCylinder, radius, height)
	if err != nil {
		return nil, err
	}
	return &Solid{Op: OpCylinder, ID: id, Box: r3.Box{
		Min: r3.Vec{X: -radius, Y: -radius},
		Max: r3.Vec{X: radius, Y: radius, Z: height},
	}}, nil
}

func (k *Kernel) MakeBox(min, max r3.Vec) (kernel.Solid, error) {
	id, err := k.record(OpBox, min, max)
	if err != nil {
		return nil, err
	}
	return &Solid{Op: OpBox, ID: id, Box: r3.Box{Min: min, Max: max}}, nil
}

func (k *Kernel) MakeRevolved(section []r2.Vec) (kernel.Solid, error) {
	id, err := k.record(OpRevolved, section)
	if err != nil {
		return nil, err
	}
	var r, z0, z1 float64
	for i, v := range section {
		r = max(r, v.X)
		if i == 0 || v.Y < z0 {
			z0 = v.Y
		}
		if i == 0 || v.Y > z1 {
			z1 = v.Y
		}
	}
	return &Solid{Op: OpRevolved, ID: id, Profile: append([]r2.Vec(nil), section...), Box: r3.Box{
		Min: r3.Vec{X: -r, Y: -r, Z: z0},
		Max: r3.Vec{X: r, Y: r, Z: z1},
	}}, nil
}

func (k *Kernel) FitSmoothCurve(points []r3.Vec, opts kernel.FitOptions) (kernel.Curve, error) {
	id, err := k.record(OpFit, len(points), opts)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("kerneltest: no points")
	}
	return &Curve{ID: id, Points: append([]r3.Vec(nil), points...), Opts: opts}, nil
}

func (k *Kernel) SweepAlongPath(path kernel.Curve, section kernel.Polygon) (kernel.Solid, error) {
	id, err := k.record(OpSweep, path, section)
	if err != nil {
		return nil, err
	}
	c, ok := path.(*Curve)
	if !ok {
		return nil, fmt.Errorf("kerneltest: foreign curve %T", path)
	}
	bb := c.Bounds()
	return &Solid{Op: OpSweep, ID: id, Path: c, Section: append(kernel.Polygon(nil), section...), Box: bb}, nil
}

func (k *Kernel) Union(a, b kernel.Solid) (kernel.Solid, error) {
	return k.boolean(OpUnion, a, b)
}

func (k *Kernel) Intersect(a, b kernel.Solid) (kernel.Solid, error) {
	return k.boolean(OpIntersect, a, b)
}

func (k *Kernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	return k.boolean(OpDifference, a, b)
}

func (k *Kernel) Transform(s kernel.Solid, p kernel.Placement) (kernel.Solid, error) {
	id, err := k.record(OpTransform, s, p)
	if err != nil {
		return nil, err
	}
	in, ok := s.(*Solid)
	if !ok {
		return nil, fmt.Errorf("kerneltest: foreign solid %T", s)
	}
	return &Solid{Op: OpTransform, ID: id, Operand: []*Solid{in}, Place: p, Box: in.Box}, nil
}

func (k *Kernel) boolean(op string, a, b kernel.Solid) (kernel.Solid, error) {
	id, err := k.record(op, a, b)
	if err != nil {
		return nil, err
	}
	sa, ok1 := a.(*Solid)
	sb, ok2 := b.(*Solid)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("kerneltest: foreign solid %T %T", a, b)
	}
	return &Solid{Op: op, ID: id, Operand: []*Solid{sa, sb}, Box: sa.Box}, nil
}
