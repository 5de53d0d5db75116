package sdf

import (
	"math"

	"github.com/soypat/threadcad/internal/d3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// box is a 3d box centered at the origin.
type box struct {
	size r3.Vec
	bb   r3.Box
}

// Box returns an SDF3 for an origin centered box with the given size.
func Box(size r3.Vec) SDF3 {
	if d3.LTEZero(size) {
		panic("size <= 0")
	}
	half := r3.Scale(0.5, size)
	return &box{
		size: half,
		bb:   r3.Box{Min: r3.Scale(-1, half), Max: half},
	}
}

// Evaluate returns the minimum distance to a 3d box.
func (s *box) Evaluate(p r3.Vec) float64 {
	return sdfBox3d(p, s.size)
}

// Bounds returns the bounding box for a 3d box.
func (s *box) Bounds() r3.Box {
	return s.bb
}

// cylinder is a Z aligned cylinder centered at the origin.
type cylinder struct {
	height float64 // half height
	radius float64
	bb     r3.Box
}

// Cylinder returns an SDF3 for a Z aligned cylinder centered at the origin.
// The distance field is exact.
func Cylinder(height, radius float64) SDF3 {
	if radius <= 0 {
		panic("radius <= 0")
	}
	if height <= 0 {
		panic("height <= 0")
	}
	d := r3.Vec{X: radius, Y: radius, Z: height / 2}
	return &cylinder{
		height: height / 2,
		radius: radius,
		bb:     r3.Box{Min: r3.Scale(-1, d), Max: d},
	}
}

// Evaluate returns the minimum distance to a cylinder.
func (s *cylinder) Evaluate(p r3.Vec) float64 {
	return sdfBox2d(r2.Vec{X: math.Hypot(p.X, p.Y), Y: p.Z}, r2.Vec{X: s.radius, Y: s.height})
}

// Bounds returns the bounding box for a cylinder.
func (s *cylinder) Bounds() r3.Box {
	return s.bb
}

// revolution3 is a full solid of revolution of an SDF2 about the Z axis.
type revolution3 struct {
	sdf SDF2
	bb  r3.Box
}

// Revolve3D returns the solid of revolution of s about the Z axis. The X
// coordinate of s is the radial distance and its Y coordinate maps to Z.
func Revolve3D(s SDF2) SDF3 {
	if s == nil {
		panic("nil SDF2 argument")
	}
	bb := s.Bounds()
	l := math.Max(math.Abs(bb.Min.X), math.Abs(bb.Max.X))
	return &revolution3{
		sdf: s,
		bb: r3.Box{
			Min: r3.Vec{X: -l, Y: -l, Z: bb.Min.Y},
			Max: r3.Vec{X: l, Y: l, Z: bb.Max.Y},
		},
	}
}

// Evaluate returns the minimum distance to a solid of revolution.
func (s *revolution3) Evaluate(p r3.Vec) float64 {
	return s.sdf.Evaluate(r2.Vec{X: math.Hypot(p.X, p.Y), Y: p.Z})
}

// Bounds returns the bounding box for a solid of revolution.
func (s *revolution3) Bounds() r3.Box {
	return s.bb
}
