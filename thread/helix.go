package thread

import (
	"fmt"
	"math"

	"github.com/soypat/threadcad/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	minHelixSamples = 32
	helixTolerance  = 1e-6
)

// Helix describes a helical centerline about the Z axis starting at
// (Radius, 0, 0).
type Helix struct {
	Radius          float64
	Pitch           float64
	Length          float64
	Handedness      Handedness
	SegmentsPerTurn int
}

// Turns returns the number of revolutions of the helix.
func (h Helix) Turns() float64 { return h.Length / h.Pitch }

// SampleCount returns the number of points Samples generates,
// max(32, ceil(SegmentsPerTurn*turns)).
func (h Helix) SampleCount() int {
	n := math.Ceil(float64(h.SegmentsPerTurn) * h.Turns())
	if !(n > minHelixSamples) {
		return minHelixSamples
	}
	return int(n)
}

// Samples returns points evenly spaced in angle from z=0 to z=±Length.
func (h Helix) Samples() []r3.Vec {
	n := h.SampleCount()
	span := 2 * math.Pi * h.Turns()
	lead := h.Handedness.Sign() * h.Pitch / (2 * math.Pi)
	pts := make([]r3.Vec, n)
	for i := range pts {
		t := float64(i) * span / float64(n-1)
		sin, cos := math.Sincos(t)
		pts[i] = r3.Vec{X: h.Radius * cos, Y: h.Radius * sin, Z: lead * t}
	}
	return pts
}

func (h Helix) validate() error {
	for _, v := range []struct {
		name string
		v    float64
	}{{"radius", h.Radius}, {"pitch", h.Pitch}, {"length", h.Length}} {
		if !(v.v > 0) || math.IsInf(v.v, 1) {
			return fmt.Errorf("%w: helix %s %g", ErrInvalidArgument, v.name, v.v)
		}
	}
	return nil
}

// Build fits a smooth C2 cubic curve through the helix samples. A fit that
// does not converge is returned as is.
func (h Helix) Build(k kernel.Kernel) (kernel.Curve, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	return k.FitSmoothCurve(h.Samples(), kernel.FitOptions{
		Degree:     3,
		Continuity: kernel.C2,
		Tolerance:  helixTolerance,
	})
}
