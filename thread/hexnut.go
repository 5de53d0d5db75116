package thread

import (
	"math"

	"github.com/sirupsen/logrus"
	"github.com/soypat/threadcad/kernel"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// hexCornerChamfer is the angle of the cone trimming hex nut corners
// measured from the nut faces [deg].
const hexCornerChamfer = 30

// HexNut returns a hex nut of the given flat to flat size and height,
// standing on z=0 with flats parallel to the Y axis. Corners are trimmed by
// a 30 degree cone on both faces starting at 95% of the flat radius. The
// bore is threaded like Nut's.
func (o *Ops) HexNut(spec Spec, flatToFlat, height float64, chamfer Chamfer) (kernel.Solid, float64, error) {
	const op = "hex nut"
	s := spec.Normalized()
	if !(height > 0) || !finite(height) {
		return nil, 0, lengthsErr(op, "height %g", height)
	}
	flat := flatToFlat / 2
	if !(flat > s.FitDiameter/2+s.Depth) || !finite(flat) {
		return nil, 0, lengthsErr(op, "flat to flat %g leaves no wall around fit diameter %g", flatToFlat, s.FitDiameter)
	}
	corner := HexRadius(flatToFlat)
	start := 0.95 * flat
	slope := math.Tan(hexCornerChamfer * math.Pi / 180)
	rise := (corner - start) * slope
	e := chamferOverlap * math.Max(1, corner)
	if 2*(rise+e*slope) >= height {
		return nil, 0, lengthsErr(op, "height %g too short for corner chamfers of %g", height, rise)
	}
	k := o.Kernel
	st := o.stager(op, logrus.Fields{"flat_to_flat": flatToFlat, "height": height})
	blank, err := o.hexPrism(st, flat, height)
	if err != nil {
		return nil, 0, err
	}
	// Revolved section keeping the nut within the corner cones.
	trim, err := st.solid(StageCore, func() (kernel.Solid, error) {
		return k.MakeRevolved([]r2.Vec{
			{X: 0, Y: -e},
			{X: start, Y: -e},
			{X: start, Y: 0},
			{X: corner + e, Y: rise + e*slope},
			{X: corner + e, Y: height - rise - e*slope},
			{X: start, Y: height},
			{X: start, Y: height + e},
			{X: 0, Y: height + e},
		})
	})
	if err != nil {
		return nil, 0, err
	}
	blank, err = st.solid(StageCore, func() (kernel.Solid, error) { return k.Intersect(blank, trim) })
	if err != nil {
		return nil, 0, err
	}
	return o.tap(st, s, blank, height, chamfer)
}

// hexPrism intersects three slabs of width 2*flat turned 60 degrees apart.
func (o *Ops) hexPrism(st stager, flat, height float64) (kernel.Solid, error) {
	k := o.Kernel
	slab, err := st.solid(StageCore, func() (kernel.Solid, error) {
		return k.MakeBox(r3.Vec{X: -flat, Y: -2 * flat}, r3.Vec{X: flat, Y: 2 * flat, Z: height})
	})
	if err != nil {
		return nil, err
	}
	prism := slab
	for _, angle := range []float64{math.Pi / 3, 2 * math.Pi / 3} {
		turn := kernel.Rotated(angle, r3.Vec{Z: 1})
		turned, err := st.solid(StageCore, func() (kernel.Solid, error) { return k.Transform(slab, turn) })
		if err != nil {
			return nil, err
		}
		prism, err = st.solid(StageCore, func() (kernel.Solid, error) { return k.Intersect(prism, turned) })
		if err != nil {
			return nil, err
		}
	}
	return prism, nil
}
