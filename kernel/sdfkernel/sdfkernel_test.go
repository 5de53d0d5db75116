package sdfkernel

import (
	"errors"
	"math"
	"testing"

	"github.com/soypat/threadcad/kernel"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

var fit3 = kernel.FitOptions{Degree: 3, Continuity: kernel.C2, Tolerance: 1e-6}

func helixPoints(radius, pitch, turns float64, n int) []r3.Vec {
	pts := make([]r3.Vec, n)
	for i := range pts {
		t := float64(i) * 2 * math.Pi * turns / float64(n-1)
		pts[i] = r3.Vec{X: radius * math.Cos(t), Y: radius * math.Sin(t), Z: pitch / (2 * math.Pi) * t}
	}
	return pts
}

// onHelix moves p by the screw motion of a right hand helix of the given
// pitch through angle a.
func onHelix(p r3.Vec, pitch, a float64) r3.Vec {
	s, c := math.Sincos(a)
	return r3.Vec{X: c*p.X - s*p.Y, Y: s*p.X + c*p.Y, Z: p.Z + pitch*a/(2*math.Pi)}
}

func mustSDF(t *testing.T, s kernel.Solid) interface{ Evaluate(r3.Vec) float64 } {
	t.Helper()
	f, err := SDF(s)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestPrimitives(t *testing.T) {
	k := New()
	cyl, err := k.MakeCylinder(2, 5)
	if err != nil {
		t.Fatal(err)
	}
	f := mustSDF(t, cyl)
	for _, test := range []struct {
		p    r3.Vec
		want float64
	}{
		{p: r3.Vec{Z: 2.5}, want: -2},
		{p: r3.Vec{Z: -1}, want: 1},
		{p: r3.Vec{X: 3, Z: 4}, want: 1},
	} {
		if got := f.Evaluate(test.p); math.Abs(got-test.want) > 1e-12 {
			t.Errorf("cylinder(%v) = %g, want %g", test.p, got, test.want)
		}
	}
	if bb := cyl.Bounds(); bb.Min.Z != 0 || bb.Max.Z != 5 {
		t.Errorf("cylinder bounds %v not based on z=0", bb)
	}

	box, err := k.MakeBox(r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 3, Y: 2, Z: 5})
	if err != nil {
		t.Fatal(err)
	}
	if got := mustSDF(t, box).Evaluate(r3.Vec{X: 2, Y: 1.5, Z: 3}); math.Abs(got+0.5) > 1e-12 {
		t.Errorf("box center distance %g, want -0.5", got)
	}

	for name, fn := range map[string]func() (kernel.Solid, error){
		"zero radius":   func() (kernel.Solid, error) { return k.MakeCylinder(0, 1) },
		"nan height":    func() (kernel.Solid, error) { return k.MakeCylinder(1, math.NaN()) },
		"flat box":      func() (kernel.Solid, error) { return k.MakeBox(r3.Vec{}, r3.Vec{X: 1, Y: 1}) },
		"negative r":    func() (kernel.Solid, error) { return k.MakeRevolved([]r2.Vec{{X: -1}, {X: 1}, {X: 1, Y: 1}}) },
		"short section": func() (kernel.Solid, error) { return k.MakeRevolved([]r2.Vec{{X: 1}, {X: 2}}) },
		"repeated vert": func() (kernel.Solid, error) { return k.MakeRevolved([]r2.Vec{{X: 1}, {X: 1}, {X: 2, Y: 1}}) },
		"foreign union": func() (kernel.Solid, error) { return k.Union(cyl, foreign{}) },
		"nil transform": func() (kernel.Solid, error) { return k.Transform(nil, kernel.Placement{}) },
	} {
		s, err := fn()
		var kerr *kernel.Error
		if !errors.As(err, &kerr) {
			t.Errorf("%s: expected kernel error, got %v", name, err)
		}
		if s != nil {
			t.Errorf("%s: got non-nil solid with error", name)
		}
	}
}

type foreign struct{}

func (foreign) Bounds() r3.Box { return r3.Box{} }

func TestBooleanOps(t *testing.T) {
	k := New()
	a, _ := k.MakeCylinder(2, 4)
	b, _ := k.MakeBox(r3.Vec{X: -1, Y: -1, Z: 2}, r3.Vec{X: 1, Y: 1, Z: 6})
	u, err := k.Union(a, b)
	if err != nil {
		t.Fatal(err)
	}
	i, err := k.Intersect(a, b)
	if err != nil {
		t.Fatal(err)
	}
	d, err := k.Difference(a, b)
	if err != nil {
		t.Fatal(err)
	}
	top := r3.Vec{Z: 5}
	mid := r3.Vec{Z: 3}
	if mustSDF(t, u).Evaluate(top) >= 0 {
		t.Error("union lost the box")
	}
	if mustSDF(t, i).Evaluate(top) <= 0 || mustSDF(t, i).Evaluate(mid) >= 0 {
		t.Error("intersection wrong")
	}
	if mustSDF(t, d).Evaluate(mid) <= 0 || mustSDF(t, d).Evaluate(r3.Vec{X: 1.5, Z: 3}) >= 0 {
		t.Error("difference wrong")
	}
	if got := i.Bounds(); got.Min.Z != 2 || got.Max.Z != 4 {
		t.Errorf("intersection bounds %v", got)
	}
}

func TestTransform(t *testing.T) {
	k := New()
	c, _ := k.MakeCylinder(1, 2)
	// Flip the cylinder upside down and lift it by 10.
	moved, err := k.Transform(c, kernel.Placement{
		Rotation:    r3.NewRotation(math.Pi, r3.Vec{X: 1}),
		Translation: r3.Vec{Z: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	f := mustSDF(t, moved)
	if d := f.Evaluate(r3.Vec{Z: 9}); d >= 0 {
		t.Errorf("moved cylinder should contain z=9, got %g", d)
	}
	if d := f.Evaluate(r3.Vec{Z: 1}); d <= 0 {
		t.Errorf("moved cylinder should not contain z=1, got %g", d)
	}
	bb := moved.Bounds()
	if math.Abs(bb.Min.Z-8) > 1e-9 || math.Abs(bb.Max.Z-10) > 1e-9 {
		t.Errorf("moved bounds %v", bb)
	}
}

func TestFitSmoothCurve(t *testing.T) {
	k := New()
	pts := helixPoints(5, 2, 3, 3*96+1)
	c, err := k.FitSmoothCurve(pts, fit3)
	if err != nil {
		t.Fatal(err)
	}
	if c.Start() != pts[0] || c.End() != pts[len(pts)-1] {
		t.Errorf("endpoints %v %v", c.Start(), c.End())
	}
	bb := c.Bounds()
	if bb.Max.X < 5-1e-6 || bb.Max.Z < 6-1e-9 || bb.Min.Z > 1e-9 {
		t.Errorf("bounds %v do not cover helix", bb)
	}
	curve := c.(*Curve)
	frames, err := curve.Frames(2*curve.Spans() + 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, i := range []int{0, len(frames) / 3, len(frames) - 1} {
		f := frames[i]
		radial := r3.Unit(r3.Vec{X: -f.Origin.X, Y: -f.Origin.Y})
		if r3.Dot(f.N, radial) < 0.999 {
			t.Errorf("frame %d normal %v does not point to the axis", i, f.N)
		}
		if math.Abs(r3.Norm(f.B)-1) > 1e-9 || math.Abs(r3.Dot(f.T, f.N)) > 1e-9 {
			t.Errorf("frame %d not orthonormal: %+v", i, f)
		}
	}
}

func TestFitSmoothCurveLong(t *testing.T) {
	k := New()
	for _, n := range []int{640, 1536, 2305} {
		const radius, pitch, turns = 4.375, 1.25, 24
		c, err := k.FitSmoothCurve(helixPoints(radius, pitch, turns, n), fit3)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		curve := c.(*Curve)
		// Between knots the spline stays on the helix cylinder.
		for _, i := range []int{0, n / 2, n - 2} {
			tm := (curve.knots[i] + curve.knots[i+1]) / 2
			p := curve.Point(tm)
			if r := math.Hypot(p.X, p.Y); math.Abs(r-radius) > 1e-3 {
				t.Errorf("n=%d: radius %g between knots %d and %d", n, r, i, i+1)
			}
		}
		frames, err := curve.Frames(curve.Spans() + 1)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		for _, i := range []int{0, len(frames) - 1} {
			f := frames[i]
			radial := r3.Unit(r3.Vec{X: -f.Origin.X, Y: -f.Origin.Y})
			if r3.Dot(f.N, radial) < 0.99 {
				t.Errorf("n=%d: end frame %d normal %v does not point to the axis", n, i, f.N)
			}
		}
	}
}

func TestEndSlope(t *testing.T) {
	// Exact for cubics, in either direction.
	cubic := func(x float64) float64 { return 2*x*x*x - x*x + 3*x - 1 }
	slope := func(x float64) float64 { return 6*x*x - 2*x + 3 }
	for _, ts := range [][]float64{{0, 0.5, 1.5, 2}, {2, 1.5, 0.5, 0}, {1, 1.1, 1.3, 1.4}} {
		ys := make([]float64, len(ts))
		for i, x := range ts {
			ys[i] = cubic(x)
		}
		if got, want := endSlope(ts, ys), slope(ts[0]); math.Abs(got-want) > 1e-9 {
			t.Errorf("endSlope(%v) = %g, want %g", ts, got, want)
		}
	}
}

func TestFitSmoothCurveErrors(t *testing.T) {
	k := New()
	pts := helixPoints(5, 2, 1, 40)
	dup := append([]r3.Vec{pts[0]}, pts...)
	nan := append([]r3.Vec{{X: math.NaN()}}, pts...)
	for name, test := range map[string]struct {
		pts  []r3.Vec
		opts kernel.FitOptions
	}{
		"degree":    {pts: pts, opts: kernel.FitOptions{Degree: 2, Continuity: kernel.C2, Tolerance: 1e-6}},
		"tolerance": {pts: pts, opts: kernel.FitOptions{Degree: 3, Continuity: kernel.C2}},
		"few":       {pts: pts[:3], opts: fit3},
		"duplicate": {pts: dup, opts: fit3},
		"nan":       {pts: nan, opts: fit3},
	} {
		c, err := k.FitSmoothCurve(test.pts, test.opts)
		var kerr *kernel.Error
		if !errors.As(err, &kerr) || kerr.Op != "fit" {
			t.Errorf("%s: expected fit error, got %v", name, err)
		}
		if c != nil {
			t.Errorf("%s: got curve with error", name)
		}
	}
}

func TestSweepAlongHelix(t *testing.T) {
	const radius, pitch = 5.0, 2.0
	k := New()
	path, err := k.FitSmoothCurve(helixPoints(radius, pitch, 3, 3*96+1), fit3)
	if err != nil {
		t.Fatal(err)
	}
	half := math.Tan(math.Pi / 6) // base half width of a 60 degree V of depth 1
	section := kernel.Polygon{
		{X: radius - 0.5, Z: -half},
		{X: radius - 0.5, Z: half},
		{X: radius + 0.5},
	}
	ridge, err := k.SweepAlongPath(path, section)
	if err != nil {
		t.Fatal(err)
	}
	f := mustSDF(t, ridge)
	centroid := section.Centroid()
	for _, a := range []float64{math.Pi / 2, math.Pi, 2.5 * math.Pi, 5 * math.Pi} {
		if d := f.Evaluate(onHelix(centroid, pitch, a)); d >= 0 {
			t.Errorf("centroid at angle %g outside ridge: %g", a, d)
		}
		between := onHelix(r3.Add(centroid, r3.Vec{Z: pitch / 2}), pitch, a)
		if d := f.Evaluate(between); d <= 0 {
			t.Errorf("gap at angle %g inside ridge: %g", a, d)
		}
	}
	if d := f.Evaluate(r3.Vec{Z: 3}); d <= 0 {
		t.Errorf("axis point inside ridge: %g", d)
	}
	if d := f.Evaluate(r3.Vec{X: 40}); d <= 0 {
		t.Errorf("far point inside ridge: %g", d)
	}
}

func TestSweepErrors(t *testing.T) {
	k := New()
	path, err := k.FitSmoothCurve(helixPoints(5, 2, 1, 97), fit3)
	if err != nil {
		t.Fatal(err)
	}
	good := kernel.Polygon{{X: 4.5, Z: -0.5}, {X: 4.5, Z: 0.5}, {X: 5.5}}
	for name, test := range map[string]struct {
		path    kernel.Curve
		section kernel.Polygon
	}{
		"collinear": {path: path, section: kernel.Polygon{{X: 4}, {X: 5}, {X: 6}}},
		"folding":   {path: path, section: kernel.Polygon{{X: -2, Z: -0.5}, {X: 6, Z: -0.5}, {X: 6, Z: 0.5}, {X: -2, Z: 0.5}}},
		"foreign":   {path: nil, section: good},
	} {
		s, err := k.SweepAlongPath(test.path, test.section)
		var kerr *kernel.Error
		if !errors.As(err, &kerr) || kerr.Op != "sweep" {
			t.Errorf("%s: expected sweep error, got %v", name, err)
		}
		if s != nil {
			t.Errorf("%s: got solid with error", name)
		}
	}
}

func BenchmarkSweepEvaluate(b *testing.B) {
	k := New()
	path, _ := k.FitSmoothCurve(helixPoints(5, 2, 10, 10*96+1), fit3)
	s, err := k.SweepAlongPath(path, kernel.Polygon{{X: 4.5, Z: -0.5}, {X: 4.5, Z: 0.5}, {X: 5.5}})
	if err != nil {
		b.Fatal(err)
	}
	f, _ := SDF(s)
	p := r3.Vec{X: 3, Y: 3, Z: 7}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Evaluate(p)
	}
}
