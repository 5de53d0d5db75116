package sdf

import (
	"math"
	"testing"

	"github.com/soypat/threadcad/internal/d3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestPolygonSquare(t *testing.T) {
	sq := Polygon([]r2.Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}})
	for _, test := range []struct {
		p    r2.Vec
		want float64
	}{
		{p: r2.Vec{}, want: -1},
		{p: r2.Vec{X: 0.5}, want: -0.5},
		{p: r2.Vec{X: 2}, want: 1},
		{p: r2.Vec{X: 2, Y: 2}, want: math.Sqrt2},
		{p: r2.Vec{Y: -3}, want: 2},
	} {
		got := sq.Evaluate(test.p)
		if math.Abs(got-test.want) > 1e-12 {
			t.Errorf("Evaluate(%v) = %g, want %g", test.p, got, test.want)
		}
	}
	bb := sq.Bounds()
	if bb.Min != (r2.Vec{X: -1, Y: -1}) || bb.Max != (r2.Vec{X: 1, Y: 1}) {
		t.Errorf("unexpected bounds %v", bb)
	}
}

func TestPolygonWindingIndependent(t *testing.T) {
	cw := Polygon([]r2.Vec{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}})
	ccw := Polygon([]r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}})
	for _, p := range []r2.Vec{{X: 0.2, Y: 0.2}, {X: 2, Y: 2}, {X: -1, Y: 0.5}} {
		if a, b := cw.Evaluate(p), ccw.Evaluate(p); math.Abs(a-b) > 1e-12 {
			t.Errorf("winding changes distance at %v: %g != %g", p, a, b)
		}
	}
}

func TestCylinder(t *testing.T) {
	c := Cylinder(4, 2)
	for _, test := range []struct {
		p    r3.Vec
		want float64
	}{
		{p: r3.Vec{}, want: -2},
		{p: r3.Vec{X: 3}, want: 1},
		{p: r3.Vec{Z: 3}, want: 1},
		{p: r3.Vec{X: 1.5, Z: 1.9}, want: -0.1},
		{p: r3.Vec{X: 3, Z: 3}, want: math.Sqrt2},
	} {
		got := c.Evaluate(test.p)
		if math.Abs(got-test.want) > 1e-12 {
			t.Errorf("Evaluate(%v) = %g, want %g", test.p, got, test.want)
		}
	}
}

func TestBooleans(t *testing.T) {
	a := Box(r3.Vec{X: 2, Y: 2, Z: 2})
	b := Translate3D(Box(r3.Vec{X: 2, Y: 2, Z: 2}), r3.Vec{X: 1})
	u := Union3D(a, b)
	i := Intersect3D(a, b)
	d := Difference3D(a, b)

	p := r3.Vec{X: 1.5}
	if u.Evaluate(p) >= 0 {
		t.Error("union should contain point of second box")
	}
	if i.Evaluate(p) <= 0 {
		t.Error("intersection should not contain point outside first box")
	}
	if d.Evaluate(r3.Vec{X: 0.5}) <= 0 {
		t.Error("difference should not contain shared point")
	}
	if d.Evaluate(r3.Vec{X: -0.5}) >= 0 {
		t.Error("difference should keep point only in first box")
	}
	want := d3.Box{Min: r3.Vec{X: 0, Y: -1, Z: -1}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}
	if !d3.Box(i.Bounds()).Equals(want, 1e-12) {
		t.Errorf("intersection bounds %v, want %v", i.Bounds(), want)
	}
}

func TestTransformPreservesDistance(t *testing.T) {
	c := Cylinder(2, 1)
	q := r3.NewRotation(math.Pi/2, r3.Vec{X: 1})
	tc := Transform3D(c, d3.ComposeTransform(r3.Vec{Z: 5}, q))
	// The cylinder axis now lies along Y through (0,0,5).
	for _, test := range []struct {
		p    r3.Vec
		want float64
	}{
		{p: r3.Vec{Z: 5}, want: -1},
		{p: r3.Vec{Z: 7}, want: 1},
		{p: r3.Vec{Y: 3, Z: 5}, want: 2},
	} {
		got := tc.Evaluate(test.p)
		if math.Abs(got-test.want) > 1e-9 {
			t.Errorf("Evaluate(%v) = %g, want %g", test.p, got, test.want)
		}
	}
}

func TestRevolve(t *testing.T) {
	// Triangle in the (r, z) plane revolved into a cone of base radius 2.
	s := Revolve3D(Polygon([]r2.Vec{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 2}}))
	if s.Evaluate(r3.Vec{X: 0.5, Y: 0.5, Z: 0.2}) >= 0 {
		t.Error("point should be inside cone")
	}
	if s.Evaluate(r3.Vec{X: 0, Y: 2.5, Z: 0.2}) <= 0 {
		t.Error("point should be outside cone")
	}
	bb := s.Bounds()
	if bb.Max.X != 2 || bb.Min.Y != -2 || bb.Max.Z != 2 {
		t.Errorf("unexpected bounds %v", bb)
	}
}

// straightFrames returns frames along the Z axis.
func straightFrames(n int, length float64) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{
			Origin: r3.Vec{Z: length * float64(i) / float64(n-1)},
			T:      r3.Vec{Z: 1},
			N:      r3.Vec{X: 1},
			B:      r3.Vec{Y: 1},
		}
	}
	return frames
}

func TestSweepStraight(t *testing.T) {
	// Unit square section swept along Z forms a box.
	sq := []r3.Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}
	s := Sweep3D(straightFrames(11, 10), sq)
	ref := Translate3D(Box(r3.Vec{X: 2, Y: 2, Z: 10}), r3.Vec{Z: 5})
	for _, p := range []r3.Vec{
		{Z: 5},
		{X: 0.5, Y: -0.5, Z: 2.2},
		{X: 1.5, Z: 5},
		{Z: -0.5},
		{Z: 10.5},
		{X: 2, Y: 2, Z: 11},
	} {
		got, want := s.Evaluate(p), ref.Evaluate(p)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("Evaluate(%v) = %g, want %g", p, got, want)
		}
	}
	// Far away the value is only a lower bound.
	far := r3.Vec{X: 100}
	if got := s.Evaluate(far); got <= 0 || got > ref.Evaluate(far) {
		t.Errorf("far field %g not a positive lower bound of %g", got, ref.Evaluate(far))
	}
}

func TestSweepOffsetSection(t *testing.T) {
	// Section offset from a circular path sweeps a ring segment.
	const n, radius = 64, 5.0
	frames := make([]Frame, n)
	for i := range frames {
		a := math.Pi * float64(i) / float64(n-1)
		c, s := math.Cos(a), math.Sin(a)
		frames[i] = Frame{
			Origin: r3.Vec{X: radius * c, Y: radius * s},
			T:      r3.Vec{X: -s, Y: c},
			N:      r3.Vec{X: -c, Y: -s},
			B:      r3.Vec{Z: 1},
		}
	}
	// Small square section centered 1 unit outward of the path start.
	sec := []r3.Vec{
		{X: radius + 0.5, Z: -0.5}, {X: radius + 1.5, Z: -0.5},
		{X: radius + 1.5, Z: 0.5}, {X: radius + 0.5, Z: 0.5},
	}
	s := Sweep3D(frames, sec)
	if d := s.Evaluate(r3.Vec{Y: radius + 1}); d >= 0 {
		t.Errorf("quarter way point should be inside, got %g", d)
	}
	if d := s.Evaluate(r3.Vec{X: -(radius + 1) / math.Sqrt2, Y: (radius + 1) / math.Sqrt2}); d >= 0 {
		t.Errorf("three quarter way point should be inside, got %g", d)
	}
	if d := s.Evaluate(r3.Vec{Y: radius}); d <= 0 {
		t.Errorf("path point should be outside the offset section, got %g", d)
	}
	if d := s.Evaluate(r3.Vec{Y: -(radius + 1)}); d <= 0 {
		t.Errorf("unswept half should be outside, got %g", d)
	}
}

func TestSweepPanics(t *testing.T) {
	for name, fn := range map[string]func(){
		"one frame": func() {
			Sweep3D(straightFrames(2, 1)[:1], []r3.Vec{{X: 1}, {Y: 1}, {X: -1}})
		},
		"parallel": func() {
			Sweep3D(straightFrames(4, 1), []r3.Vec{{X: -1}, {X: 1}, {X: 1, Z: 1}})
		},
		"degenerate": func() {
			Sweep3D(straightFrames(4, 1), []r3.Vec{{X: -1}, {X: 0}, {X: 1}})
		},
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected panic", name)
				}
			}()
			fn()
		}()
	}
}

func BenchmarkSweepEvaluate(b *testing.B) {
	sq := []r3.Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}
	s := Sweep3D(straightFrames(512, 100), sq)
	p := r3.Vec{X: 0.3, Y: 0.2, Z: 47}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Evaluate(p)
	}
}
