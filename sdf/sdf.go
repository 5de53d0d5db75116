// Package sdf implements the signed distance functions used to represent
// solids: a small set of primitives, boolean combinators, rigid transforms
// and a path sweep.
//
// Constructors panic on invalid input. Callers that need errors should
// validate arguments first or recover, as the kernel package does.
package sdf

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// SDF3 is the interface to a 3d signed distance function object.
type SDF3 interface {
	// Evaluate takes a point in 3D space as input and returns
	// the minimum distance of the SDF3 to the point. The distance
	// is negative if the point is contained within the SDF3.
	Evaluate(p r3.Vec) float64
	// Bounds returns the bounding box that completely contains
	// the SDF3.
	Bounds() r3.Box
}

// SDF2 is the interface to a 2d signed distance function object.
type SDF2 interface {
	Evaluate(p r2.Vec) float64
	Bounds() r2.Box
}

// MinFunc is a minimum functions for SDF blending.
type MinFunc func(a, b float64) float64

// MaxFunc is a maximum function for SDF blending.
type MaxFunc func(a, b float64) float64

const tolerance = 1e-9

// sdfBox2d returns the signed distance of p to an origin centered box of half size s.
func sdfBox2d(p, s r2.Vec) float64 {
	p = r2.Vec{X: math.Abs(p.X), Y: math.Abs(p.Y)}
	d := r2.Sub(p, s)
	k := s.Y - s.X
	if d.X > 0 && d.Y > 0 {
		return r2.Norm(d)
	}
	if p.Y-p.X > k {
		return d.Y
	}
	return d.X
}

// sdfBox3d returns the signed distance of p to an origin centered box of half size s.
func sdfBox3d(p, s r3.Vec) float64 {
	d := r3.Sub(r3.Vec{X: math.Abs(p.X), Y: math.Abs(p.Y), Z: math.Abs(p.Z)}, s)
	if d.X > 0 && d.Y > 0 && d.Z > 0 {
		return r3.Norm(d)
	}
	if d.X > 0 && d.Y > 0 {
		return math.Hypot(d.X, d.Y)
	}
	if d.X > 0 && d.Z > 0 {
		return math.Hypot(d.X, d.Z)
	}
	if d.Y > 0 && d.Z > 0 {
		return math.Hypot(d.Y, d.Z)
	}
	if d.X > 0 {
		return d.X
	}
	if d.Y > 0 {
		return d.Y
	}
	if d.Z > 0 {
		return d.Z
	}
	return math.Max(d.X, math.Max(d.Y, d.Z))
}
