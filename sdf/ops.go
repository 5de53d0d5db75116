package sdf

import (
	"math"
	"strconv"

	"github.com/soypat/threadcad/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// union3 is a union of SDF3s.
type union3 struct {
	sdf []SDF3
	min MinFunc
	bb  r3.Box
}

// Union3D returns the union of multiple SDF3 objects.
// Union3D will panic if arguments list is empty or if
// an argument SDF3 is nil.
func Union3D(sdf ...SDF3) SDF3 {
	if len(sdf) < 2 {
		panic("union require at least 2 sdfs")
	}
	s := union3{sdf: sdf, min: math.Min}
	for i, x := range s.sdf {
		if x == nil {
			panic("nil sdf argument (" + strconv.Itoa(i) + ") to Union3D")
		}
	}
	bb := d3.Box(s.sdf[0].Bounds())
	for _, x := range s.sdf[1:] {
		bb = bb.Extend(d3.Box(x.Bounds()))
	}
	s.bb = r3.Box(bb)
	return &s
}

// Evaluate returns the minimum distance to an SDF3 union.
func (s *union3) Evaluate(p r3.Vec) float64 {
	d := s.sdf[0].Evaluate(p)
	for _, x := range s.sdf[1:] {
		d = s.min(d, x.Evaluate(p))
	}
	return d
}

// Bounds returns the bounding box of an SDF3 union.
func (s *union3) Bounds() r3.Box {
	return s.bb
}

// diff3 is the difference of two SDF3s, s0 - s1.
type diff3 struct {
	s0  SDF3
	s1  SDF3
	max MaxFunc
	bb  r3.Box
}

// Difference3D returns the difference of two SDF3s, s0 - s1.
// Difference3D will panic if one any of the arguments is nil.
func Difference3D(s0, s1 SDF3) SDF3 {
	if s1 == nil || s0 == nil {
		panic("nil argument to Difference3D")
	}
	return &diff3{s0: s0, s1: s1, max: math.Max, bb: s0.Bounds()}
}

// Evaluate returns the minimum distance to the SDF3 difference.
func (s *diff3) Evaluate(p r3.Vec) float64 {
	return s.max(s.s0.Evaluate(p), -s.s1.Evaluate(p))
}

// Bounds returns the bounding box of the SDF3 difference.
func (s *diff3) Bounds() r3.Box {
	return s.bb
}

// intersection3 is the intersection of two SDF3s.
type intersection3 struct {
	s0  SDF3
	s1  SDF3
	max MaxFunc
	bb  r3.Box
}

// Intersect3D returns the intersection of two SDF3s.
// Intersect3D will panic if any of the arguments are nil.
func Intersect3D(s0, s1 SDF3) SDF3 {
	if s0 == nil || s1 == nil {
		panic("nil argument to Intersect3D")
	}
	bb := d3.Box(s0.Bounds()).Intersect(d3.Box(s1.Bounds()))
	return &intersection3{s0: s0, s1: s1, max: math.Max, bb: r3.Box(bb)}
}

// Evaluate returns the minimum distance to the SDF3 intersection.
func (s *intersection3) Evaluate(p r3.Vec) float64 {
	return s.max(s.s0.Evaluate(p), s.s1.Evaluate(p))
}

// Bounds returns the bounding box of an SDF3 intersection.
func (s *intersection3) Bounds() r3.Box {
	return s.bb
}

// transform3 is an SDF3 moved by a rigid transform. Distance is preserved.
type transform3 struct {
	sdf     SDF3
	inverse d3.Transform
	bb      r3.Box
}

// Transform3D applies a rigid transform to an SDF3.
func Transform3D(sdf SDF3, t d3.Transform) SDF3 {
	if sdf == nil {
		panic("nil SDF3 argument")
	}
	return &transform3{
		sdf:     sdf,
		inverse: t.Inv(),
		bb:      r3.Box(t.ApplyBox(d3.Box(sdf.Bounds()))),
	}
}

// Evaluate returns the minimum distance to a transformed SDF3.
func (s *transform3) Evaluate(p r3.Vec) float64 {
	return s.sdf.Evaluate(s.inverse.Transform(p))
}

// Bounds returns the bounding box of a transformed SDF3.
func (s *transform3) Bounds() r3.Box {
	return s.bb
}

// Translate3D moves an SDF3 by v.
func Translate3D(sdf SDF3, v r3.Vec) SDF3 {
	return Transform3D(sdf, d3.Transform{}.Translate(v))
}
