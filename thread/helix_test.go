package thread

import (
	"errors"
	"math"
	"testing"

	"github.com/soypat/threadcad/kernel"
	"github.com/soypat/threadcad/kernel/kerneltest"
)

func TestHelixSampleCount(t *testing.T) {
	for _, test := range []struct {
		h    Helix
		want int
	}{
		{h: Helix{Radius: 4, Pitch: 1.25, Length: 30, SegmentsPerTurn: 64}, want: 1536},
		{h: Helix{Radius: 4, Pitch: 1.25, Length: 1, SegmentsPerTurn: 16}, want: 32},
		{h: Helix{Radius: 4, Pitch: 2.5, Length: 10, SegmentsPerTurn: 96}, want: 384},
		{h: Helix{Radius: 4, Pitch: 0.7, Length: 10, SegmentsPerTurn: 16}, want: 229},
	} {
		got := test.h.SampleCount()
		if got != test.want {
			t.Errorf("%+v: SampleCount = %d, want %d", test.h, got, test.want)
		}
		lower := math.Max(32, float64(test.h.SegmentsPerTurn)*test.h.Turns())
		if float64(got) < lower {
			t.Errorf("%+v: %d samples below %g", test.h, got, lower)
		}
		if n := len(test.h.Samples()); n != got {
			t.Errorf("%+v: %d samples, SampleCount %d", test.h, n, got)
		}
	}
}

func TestHelixSamples(t *testing.T) {
	for _, hand := range []Handedness{RightHand, LeftHand} {
		h := Helix{Radius: 3, Pitch: 2, Length: 7, Handedness: hand, SegmentsPerTurn: 40}
		pts := h.Samples()
		first, last := pts[0], pts[len(pts)-1]
		if first.X != 3 || first.Y != 0 || first.Z != 0 {
			t.Errorf("%v: first sample %v", hand, first)
		}
		if math.Abs(last.Z-hand.Sign()*7) > 1e-9 {
			t.Errorf("%v: last sample z = %g, want %g", hand, last.Z, hand.Sign()*7)
		}
		for i, p := range pts {
			if r := math.Hypot(p.X, p.Y); math.Abs(r-3) > 1e-12 {
				t.Fatalf("%v: sample %d off radius: %g", hand, i, r)
			}
		}
		// Samples turn counter-clockwise seen from +Z, left hand ones descend.
		if pts[1].Y <= 0 {
			t.Errorf("%v: second sample %v turns the wrong way", hand, pts[1])
		}
	}
}

func TestHelixBuild(t *testing.T) {
	k := &kerneltest.Kernel{}
	h := Helix{Radius: 4.375, Pitch: 1.25, Length: 30, SegmentsPerTurn: 64}
	c, err := h.Build(k)
	if err != nil {
		t.Fatal(err)
	}
	curve := c.(*kerneltest.Curve)
	if len(curve.Points) != h.SampleCount() {
		t.Errorf("fit got %d points, want %d", len(curve.Points), h.SampleCount())
	}
	want := kernel.FitOptions{Degree: 3, Continuity: kernel.C2, Tolerance: 1e-6}
	if curve.Opts != want {
		t.Errorf("fit options %+v, want %+v", curve.Opts, want)
	}

	for _, bad := range []Helix{
		{Radius: 0, Pitch: 1, Length: 1},
		{Radius: 1, Pitch: -1, Length: 1},
		{Radius: 1, Pitch: 1, Length: math.NaN()},
		{Radius: 1, Pitch: 1, Length: math.Inf(1)},
	} {
		k.Reset()
		_, err := bad.Build(k)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%+v: got %v, want invalid argument", bad, err)
		}
		if n := len(k.Calls()); n != 0 {
			t.Errorf("%+v: %d kernel calls on invalid helix", bad, n)
		}
	}

	fitErr := errors.New("no convergence")
	k = &kerneltest.Kernel{FailOn: map[string]error{kerneltest.OpFit: fitErr}}
	if _, err := h.Build(k); !errors.Is(err, fitErr) {
		t.Errorf("fit failure returned %v", err)
	}
	if n := k.Count(kerneltest.OpFit); n != 1 {
		t.Errorf("fit attempted %d times, want exactly once", n)
	}
}
