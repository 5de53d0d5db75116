package thread

import (
	"math"

	"github.com/sirupsen/logrus"
	"github.com/soypat/threadcad/kernel"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Chamfer is a conical bevel cut into the ends of a threaded part.
type Chamfer struct {
	// Length is the axial extent of the bevel [mm].
	Length float64 `toml:"length"`
	// AngleDeg is measured from the part axis. It is clamped to [1, 89].
	AngleDeg float64 `toml:"angle_deg"`
	// Start and End select the z=0 and z=totalLength ends.
	Start bool `toml:"start"`
	End   bool `toml:"end"`
}

func (c Chamfer) active() bool {
	return c.Length > 0 && c.AngleDeg > 0 && (c.Start || c.End) && finite(c.Length)
}

// depth returns the radial extent of the bevel.
func (c Chamfer) depth() float64 {
	angle := math.Min(89, math.Max(1, c.AngleDeg))
	return math.Tan(angle*math.Pi/180) * c.Length
}

// chamferOverlap pushes cutter faces past the surfaces they trim.
const chamferOverlap = 0.01

// ChamferExternal bevels the outer edge of a Z aligned part of radius
// outerRadius spanning z in [0, totalLength]. An inactive chamfer returns
// solid unchanged.
func (o *Ops) ChamferExternal(solid kernel.Solid, outerRadius, totalLength float64, c Chamfer) (kernel.Solid, error) {
	if !c.active() {
		return solid, nil
	}
	const op = "external chamfer"
	if !(outerRadius > 0) || !(totalLength > 0) {
		return nil, lengthsErr(op, "radius %g, length %g", outerRadius, totalLength)
	}
	e := chamferOverlap * math.Max(1, outerRadius)
	dr := c.depth()
	lz := c.Length
	cone := []r2.Vec{
		{X: math.Max(0, outerRadius-dr-e*dr/lz), Y: -e},
		{X: outerRadius + e, Y: -e},
		{X: outerRadius + e, Y: lz + e*lz/dr},
	}
	return o.chamferEnds(op, solid, cone, totalLength, c)
}

// ChamferInternal bevels the edge of a bore of radius innerRadius running
// through a part that spans z in [0, totalLength].
func (o *Ops) ChamferInternal(solid kernel.Solid, innerRadius, totalLength float64, c Chamfer) (kernel.Solid, error) {
	if !c.active() {
		return solid, nil
	}
	const op = "internal chamfer"
	if !(innerRadius > 0) || !(totalLength > 0) {
		return nil, lengthsErr(op, "radius %g, length %g", innerRadius, totalLength)
	}
	e := chamferOverlap * math.Max(1, innerRadius)
	dr := c.depth()
	lz := c.Length
	cone := []r2.Vec{
		{X: 0, Y: -e},
		{X: innerRadius + dr + e*dr/lz, Y: -e},
		{X: innerRadius, Y: lz},
		{X: 0, Y: lz},
	}
	return o.chamferEnds(op, solid, cone, totalLength, c)
}

// chamferEnds subtracts the revolved cone section at the requested ends.
// The end cutter is the start cutter turned over about X.
func (o *Ops) chamferEnds(op string, solid kernel.Solid, cone []r2.Vec, totalLength float64, c Chamfer) (kernel.Solid, error) {
	k := o.Kernel
	st := o.stager(op, logrus.Fields{"length": c.Length, "angle": c.AngleDeg})
	cutter, err := st.solid(StageChamfer, func() (kernel.Solid, error) { return k.MakeRevolved(cone) })
	if err != nil {
		return nil, err
	}
	if c.Start {
		solid, err = st.solid(StageChamfer, func() (kernel.Solid, error) { return k.Difference(solid, cutter) })
		if err != nil {
			return nil, err
		}
	}
	if c.End {
		flip := kernel.Rotated(math.Pi, r3.Vec{X: 1}).Then(kernel.Translated(r3.Vec{Z: totalLength}))
		end, err := st.solid(StageChamfer, func() (kernel.Solid, error) { return k.Transform(cutter, flip) })
		if err != nil {
			return nil, err
		}
		solid, err = st.solid(StageChamfer, func() (kernel.Solid, error) { return k.Difference(solid, end) })
		if err != nil {
			return nil, err
		}
	}
	return solid, nil
}
