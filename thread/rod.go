package thread

import (
	"github.com/sirupsen/logrus"
	"github.com/soypat/threadcad/kernel"
)

// RodSpec holds the optional end treatment of a rod.
type RodSpec struct {
	ChamferBottom Chamfer `toml:"chamfer_bottom"`
	ChamferTop    Chamfer `toml:"chamfer_top"`
}

func (r RodSpec) bottom() Chamfer {
	c := r.ChamferBottom
	c.Start, c.End = true, false
	return c
}

func (r RodSpec) top() Chamfer {
	c := r.ChamferTop
	c.Start, c.End = false, true
	return c
}

// Rod returns a plain Z aligned rod standing on z=0.
func (o *Ops) Rod(diameter, length float64, rs RodSpec) (kernel.Solid, error) {
	const op = "rod"
	if !(diameter > 0) || !(length > 0) || !finite(diameter+length) {
		return nil, lengthsErr(op, "diameter %g, length %g", diameter, length)
	}
	st := o.stager(op, logrus.Fields{"diameter": diameter, "length": length})
	rod, err := st.solid(StageCore, func() (kernel.Solid, error) {
		return o.Kernel.MakeCylinder(diameter/2, length)
	})
	if err != nil {
		return nil, err
	}
	return o.chamferRod(rod, diameter/2, length, rs)
}

// ThreadedRod returns a rod of totalLength threaded over its first
// threadLength, chamfered against its major diameter. The major diameter is
// returned with the rod.
func (o *Ops) ThreadedRod(spec Spec, totalLength, threadLength float64, rs RodSpec) (kernel.Solid, float64, error) {
	rod, major, err := o.ExternalRod(spec, totalLength, threadLength)
	if err != nil {
		return nil, 0, err
	}
	rod, err = o.chamferRod(rod, major/2, totalLength, rs)
	if err != nil {
		return nil, 0, err
	}
	return rod, major, nil
}

func (o *Ops) chamferRod(rod kernel.Solid, radius, length float64, rs RodSpec) (kernel.Solid, error) {
	rod, err := o.ChamferExternal(rod, radius, length, rs.bottom())
	if err != nil {
		return nil, err
	}
	return o.ChamferExternal(rod, radius, length, rs.top())
}
