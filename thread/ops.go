package thread

import (
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/soypat/threadcad/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Ops builds thread geometry with a kernel. Ops holds configuration only and
// is safe for concurrent use if its Kernel is.
type Ops struct {
	Kernel kernel.Kernel
	// Log receives stage progress at debug level. Nil discards it.
	Log logrus.FieldLogger
	// KeepOverhang skips clipping the swept ridge of external rods to
	// the threaded length.
	KeepOverhang bool
}

// New returns Ops using k and discarding logs.
func New(k kernel.Kernel) *Ops {
	return &Ops{Kernel: k}
}

var discard = func() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}()

func (o *Ops) logger() logrus.FieldLogger {
	if o.Log == nil {
		return discard
	}
	return o.Log
}

// stager runs the kernel calls of one operation, tagging failures with the
// stage they happened in and logging progress.
type stager struct {
	op  string
	log logrus.FieldLogger
}

func (o *Ops) stager(op string, fields logrus.Fields) stager {
	return stager{op: op, log: o.logger().WithField("op", op).WithFields(fields)}
}

func (s stager) solid(stage Stage, fn func() (kernel.Solid, error)) (kernel.Solid, error) {
	s.log.WithField("stage", stage.String()).Debug("kernel call")
	solid, err := fn()
	if err != nil {
		s.log.WithField("stage", stage.String()).WithError(err).Debug("kernel call failed")
		return nil, &StageError{Op: s.op, Stage: stage, Err: err}
	}
	return solid, nil
}

func lengthsErr(op string, format string, args ...interface{}) error {
	return fmt.Errorf("thread: %s: %w: "+format, append([]interface{}{op, ErrInvalidArgument}, args...)...)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// ExternalRod builds a rod of rodLength whose first threadLength carries an
// external thread. It returns the rod and its reported major diameter,
// 2*(fit/2 - clearance + embedding + depth).
func (o *Ops) ExternalRod(spec Spec, rodLength, threadLength float64) (kernel.Solid, float64, error) {
	const op = "external rod"
	if !(rodLength > 0) || !(threadLength > 0) || threadLength > rodLength || !finite(rodLength) {
		return nil, 0, lengthsErr(op, "rod length %g, thread length %g", rodLength, threadLength)
	}
	s := spec.Normalized()
	if !(s.FitDiameter > 0) || !finite(s.FitDiameter) {
		return nil, 0, lengthsErr(op, "fit diameter %g", s.FitDiameter)
	}
	if !(s.FitDiameter/2 > s.Clearance) {
		return nil, 0, lengthsErr(op, "clearance %g leaves no core for fit diameter %g", s.Clearance, s.FitDiameter)
	}
	eps := s.Embedding()
	rPitch := s.FitDiameter/2 + s.Depth/2 - s.Clearance
	rMinor := s.FitDiameter/2 - s.Clearance + eps
	major := (rMinor + s.Depth) * 2
	k := o.Kernel
	st := o.stager(op, logrus.Fields{"length": threadLength, "pitch": s.Pitch, "major": major})

	core, err := st.solid(StageCore, func() (kernel.Solid, error) {
		return k.MakeCylinder(rMinor, rodLength)
	})
	if err != nil {
		return nil, 0, err
	}
	profile := VProfile(s.Depth, s.FlankAngleDeg, s.Tip, s.TipCutRatio)
	// Up axis points outward along +X, root on the minor side of the pitch
	// radius, centered half a base width below the helix start.
	section := profile.Place(kernel.Rotated(-math.Pi/2, r3.Vec{Z: 1}).Then(
		kernel.Translated(r3.Vec{X: rPitch - s.Depth/2, Z: -profile.Base() / 2})))
	ridge, err := o.sweep(st, Helix{
		Radius:          rPitch,
		Pitch:           s.Pitch,
		Length:          threadLength,
		Handedness:      s.Handedness,
		SegmentsPerTurn: s.SegmentsPerTurn,
	}, section)
	if err != nil {
		return nil, 0, err
	}
	if !o.KeepOverhang {
		big := math.Max(rMinor, s.Depth)*4 + 10
		clip, err := st.solid(StageClip, func() (kernel.Solid, error) {
			return k.MakeBox(r3.Vec{X: -big, Y: -big}, r3.Vec{X: big, Y: big, Z: threadLength})
		})
		if err != nil {
			return nil, 0, err
		}
		ridge, err = st.solid(StageClip, func() (kernel.Solid, error) { return k.Intersect(ridge, clip) })
		if err != nil {
			return nil, 0, err
		}
	}
	rod, err := st.solid(StageUnion, func() (kernel.Solid, error) { return k.Union(core, ridge) })
	if err != nil {
		return nil, 0, err
	}
	st.log.Debug("external rod done")
	return rod, major, nil
}

// InternalCutter builds the volume to subtract from a housing, bored to the
// returned diameter, to cut an internal thread of threadLength starting at
// z=0. The bore diameter is fit + 2*embedding, widened by 2*ratio*depth for
// cut tips, so the rod from ExternalRod clears it.
func (o *Ops) InternalCutter(spec Spec, threadLength float64) (kernel.Solid, float64, error) {
	const op = "internal cutter"
	if !(threadLength > 0) || !finite(threadLength) {
		return nil, 0, lengthsErr(op, "thread length %g", threadLength)
	}
	s := spec.Normalized()
	if !(s.FitDiameter > 0) || !finite(s.FitDiameter) {
		return nil, 0, lengthsErr(op, "fit diameter %g", s.FitDiameter)
	}
	eps := s.Embedding()
	rPitch := s.FitDiameter/2 + s.Depth/2
	bore := s.FitDiameter + 2*eps
	if s.Tip == TipCut {
		bore += 2 * s.TipCutRatio * s.Depth
	}
	st := o.stager(op, logrus.Fields{"length": threadLength, "pitch": s.Pitch, "bore": bore})

	profile := VProfile(s.Depth, s.FlankAngleDeg, s.Tip, s.TipCutRatio)
	// Up axis points along -X on the far side of the axis, half a turn
	// ahead of the helix start, so the groove runs where ExternalRod puts
	// its ridge.
	shift := s.Handedness.Sign()*s.Pitch/2 - profile.Base()/2
	section := profile.Place(kernel.Rotated(math.Pi/2, r3.Vec{Z: 1}).Then(
		kernel.Translated(r3.Vec{X: -(rPitch - s.Depth/2), Z: shift})))
	cutter, err := o.sweep(st, Helix{
		Radius:          rPitch,
		Pitch:           s.Pitch,
		Length:          threadLength,
		Handedness:      s.Handedness,
		SegmentsPerTurn: s.SegmentsPerTurn,
	}, section)
	if err != nil {
		return nil, 0, err
	}
	st.log.Debug("internal cutter done")
	return cutter, bore, nil
}

func (o *Ops) sweep(st stager, h Helix, section kernel.Polygon) (kernel.Solid, error) {
	st.log.WithFields(logrus.Fields{"stage": StageHelix.String(), "samples": h.SampleCount()}).Debug("fitting helix")
	path, err := h.Build(o.Kernel)
	if err != nil {
		return nil, &StageError{Op: st.op, Stage: StageHelix, Err: err}
	}
	swept, err := st.solid(StageSweep, func() (kernel.Solid, error) {
		return o.Kernel.SweepAlongPath(path, section)
	})
	if err != nil || h.Handedness != LeftHand {
		return swept, err
	}
	// A left hand helix descends from z=0. Screwing it up by its length
	// keeps it on the same helical surface and spans z in [0, Length].
	screw := kernel.Rotated(-2*math.Pi*h.Turns(), r3.Vec{Z: 1}).Then(kernel.Translated(r3.Vec{Z: h.Length}))
	return st.solid(StageSweep, func() (kernel.Solid, error) {
		return o.Kernel.Transform(swept, screw)
	})
}
