package thread

import (
	"github.com/sirupsen/logrus"
	"github.com/soypat/threadcad/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// PairSpec describes a bolt and the nut that screws onto it.
type PairSpec struct {
	Thread Spec `toml:"thread"`
	// BoltLength is the total bolt length and BoltThreadLength its threaded
	// part, measured from z=0.
	BoltLength       float64 `toml:"bolt_length"`
	BoltThreadLength float64 `toml:"bolt_thread_length"`
	BoltEnds         RodSpec `toml:"bolt_ends"`
	// NutRadius and NutHeight size the round nut blank.
	NutRadius float64 `toml:"nut_radius"`
	NutHeight float64 `toml:"nut_height"`
	// NutChamfer bevels the nut bore. Its Start and End fields are ignored,
	// both ends are chamfered.
	NutChamfer Chamfer `toml:"nut_chamfer"`
}

// DefaultPairSpec returns an M8x1.25 bolt of 30mm and a 17mm round nut.
func DefaultPairSpec() PairSpec {
	s, _ := MetricSpec(8, 0)
	return PairSpec{
		Thread:           s,
		BoltLength:       30,
		BoltThreadLength: 30,
		NutRadius:        8.5,
		NutHeight:        10,
		NutChamfer:       Chamfer{Length: 1, AngleDeg: 45},
	}
}

// Pair is a bolt and nut built from one PairSpec.
type Pair struct {
	Bolt kernel.Solid
	Nut  kernel.Solid
	// Major is the bolt's major diameter and Bore the nut's bore diameter.
	Major float64
	Bore  float64
}

// Pair builds both parts of ps. The nut is built upright on z=0.
func (o *Ops) Pair(ps PairSpec) (Pair, error) {
	bolt, major, err := o.ThreadedRod(ps.Thread, ps.BoltLength, ps.BoltThreadLength, ps.BoltEnds)
	if err != nil {
		return Pair{}, err
	}
	nut, bore, err := o.Nut(ps.Thread, ps.NutRadius, ps.NutHeight, ps.NutChamfer)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Bolt: bolt, Nut: nut, Major: major, Bore: bore}, nil
}

// Nut returns a round nut blank of the given radius and height with an
// internal thread through its full height. The thread cutter is built a
// pitch longer at each end so the groove runs out of both faces.
func (o *Ops) Nut(spec Spec, radius, height float64, chamfer Chamfer) (kernel.Solid, float64, error) {
	const op = "nut"
	s := spec.Normalized()
	if !(height > 0) || !finite(height) {
		return nil, 0, lengthsErr(op, "height %g", height)
	}
	if !(radius > s.FitDiameter/2+s.Depth) || !finite(radius) {
		return nil, 0, lengthsErr(op, "radius %g leaves no wall around fit diameter %g", radius, s.FitDiameter)
	}
	k := o.Kernel
	st := o.stager(op, logrus.Fields{"radius": radius, "height": height})
	blank, err := st.solid(StageCore, func() (kernel.Solid, error) { return k.MakeCylinder(radius, height) })
	if err != nil {
		return nil, 0, err
	}
	return o.tap(st, s, blank, height, chamfer)
}

// tap threads a bore through a blank spanning z in [0, height] and
// chamfers both mouths of the bore.
func (o *Ops) tap(st stager, s Spec, blank kernel.Solid, height float64, chamfer Chamfer) (kernel.Solid, float64, error) {
	cutter, bore, err := o.InternalCutter(s, height+2*s.Pitch)
	if err != nil {
		return nil, 0, err
	}
	nut, err := o.bore(st, blank, bore/2, height+2*s.Pitch, -s.Pitch)
	if err != nil {
		return nil, 0, err
	}
	nut, err = o.cut(st, nut, cutter, -s.Pitch)
	if err != nil {
		return nil, 0, err
	}
	chamfer.Start, chamfer.End = true, true
	nut, err = o.ChamferInternal(nut, s.FitDiameter/2, height, chamfer)
	if err != nil {
		return nil, 0, err
	}
	return nut, bore, nil
}

// bore removes a cylinder of radius r and length h starting at z from blank.
func (o *Ops) bore(st stager, blank kernel.Solid, r, h, z float64) (kernel.Solid, error) {
	k := o.Kernel
	hole, err := st.solid(StageBore, func() (kernel.Solid, error) { return k.MakeCylinder(r, h) })
	if err != nil {
		return nil, err
	}
	if z != 0 {
		hole, err = st.solid(StageBore, func() (kernel.Solid, error) {
			return k.Transform(hole, kernel.Translated(r3.Vec{Z: z}))
		})
		if err != nil {
			return nil, err
		}
	}
	return st.solid(StageBore, func() (kernel.Solid, error) { return k.Difference(blank, hole) })
}

// cut moves cutter to z and removes it from blank.
func (o *Ops) cut(st stager, blank, cutter kernel.Solid, z float64) (kernel.Solid, error) {
	k := o.Kernel
	var err error
	if z != 0 {
		cutter, err = st.solid(StagePlace, func() (kernel.Solid, error) {
			return k.Transform(cutter, kernel.Translated(r3.Vec{Z: z}))
		})
		if err != nil {
			return nil, err
		}
	}
	return st.solid(StageCut, func() (kernel.Solid, error) { return k.Difference(blank, cutter) })
}

// CanSpec describes a screw top container: a can open at z=0 with an
// internal thread at its mouth, and a lid carrying the external thread.
type CanSpec struct {
	Thread       Spec    `toml:"thread"`
	Diameter     float64 `toml:"diameter"`
	Height       float64 `toml:"height"`
	Wall         float64 `toml:"wall"`
	ThreadLength float64 `toml:"thread_length"`
	LidThread    float64 `toml:"lid_thread_length"`
	LidHandle    float64 `toml:"lid_handle_height"`
}

// DefaultCanSpec returns a 62mm can with a coarse 8mm pitch print friendly
// thread.
func DefaultCanSpec() CanSpec {
	const diameter, wall = 62.0, 4.0
	return CanSpec{
		Thread: Spec{
			FitDiameter:     diameter - 2*wall,
			Pitch:           8,
			Depth:           3,
			FlankAngleDeg:   60,
			Clearance:       0.2,
			Handedness:      RightHand,
			Tip:             TipCut,
			TipCutRatio:     0.4,
			SegmentsPerTurn: 96,
		},
		Diameter:     diameter,
		Height:       25,
		Wall:         wall,
		ThreadLength: 16,
		LidThread:    10,
		LidHandle:    5,
	}
}

// Can is the two part container built from a CanSpec.
type Can struct {
	Body kernel.Solid
	Lid  kernel.Solid
}

// Can builds the container body and lid. The body's bottom wall is at its
// top, z in [Height-Wall, Height]. The lid's handle sits below z=0 and its
// hollow threaded ring above.
func (o *Ops) Can(cs CanSpec) (Can, error) {
	const op = "can"
	s := cs.Thread.Normalized()
	if !(cs.Height > cs.Wall) || !(cs.Wall > 0) || !(cs.ThreadLength > 0) || cs.ThreadLength > cs.Height-cs.Wall {
		return Can{}, lengthsErr(op, "height %g, wall %g, thread length %g", cs.Height, cs.Wall, cs.ThreadLength)
	}
	if !(cs.Diameter/2 > s.FitDiameter/2+s.Depth) {
		return Can{}, lengthsErr(op, "diameter %g leaves no wall around fit diameter %g", cs.Diameter, s.FitDiameter)
	}
	if !(cs.LidThread > 0) || !(cs.LidHandle > 0) || !(s.FitDiameter > cs.Wall) {
		return Can{}, lengthsErr(op, "lid thread %g, lid handle %g", cs.LidThread, cs.LidHandle)
	}
	k := o.Kernel
	st := o.stager(op, logrus.Fields{"diameter": cs.Diameter, "height": cs.Height})

	cutter, bore, err := o.InternalCutter(s, cs.ThreadLength)
	if err != nil {
		return Can{}, err
	}
	body, err := st.solid(StageCore, func() (kernel.Solid, error) { return k.MakeCylinder(cs.Diameter/2, cs.Height) })
	if err != nil {
		return Can{}, err
	}
	body, err = o.bore(st, body, bore/2, cs.Height, -cs.Wall)
	if err != nil {
		return Can{}, err
	}
	body, err = o.cut(st, body, cutter, 0)
	if err != nil {
		return Can{}, err
	}

	lid, _, err := o.ExternalRod(s, cs.LidThread, cs.LidThread)
	if err != nil {
		return Can{}, err
	}
	handle, err := st.solid(StageCore, func() (kernel.Solid, error) { return k.MakeCylinder(cs.Diameter/2, cs.LidHandle) })
	if err != nil {
		return Can{}, err
	}
	handle, err = st.solid(StagePlace, func() (kernel.Solid, error) {
		return k.Transform(handle, kernel.Translated(r3.Vec{Z: -cs.LidHandle}))
	})
	if err != nil {
		return Can{}, err
	}
	lid, err = st.solid(StageUnion, func() (kernel.Solid, error) { return k.Union(lid, handle) })
	if err != nil {
		return Can{}, err
	}
	lid, err = o.bore(st, lid, (s.FitDiameter-cs.Wall)/2, cs.LidThread, 0)
	if err != nil {
		return Can{}, err
	}
	return Can{Body: body, Lid: lid}, nil
}
