package thread

import (
	"math"
	"testing"

	"github.com/soypat/threadcad/kernel"
	"github.com/soypat/threadcad/kernel/sdfkernel"
	"gonum.org/v1/gonum/spatial/r3"
)

type point struct {
	name   string
	p      r3.Vec
	inside bool
}

func checkPoints(t *testing.T, what string, s kernel.Solid, points []point) {
	t.Helper()
	f, err := sdfkernel.SDF(s)
	if err != nil {
		t.Fatal(err)
	}
	for _, pt := range points {
		d := f.Evaluate(pt.p)
		if pt.inside && !(d < 0) {
			t.Errorf("%s: %s %v evaluates to %g, want inside", what, pt.name, pt.p, d)
		}
		if !pt.inside && !(d > 0) {
			t.Errorf("%s: %s %v evaluates to %g, want outside", what, pt.name, pt.p, d)
		}
	}
}

// Points sit on the y=0 half plane with x>0, where both the ridge and the
// groove of labM8 occupy z in [k*pitch - base, k*pitch].
func TestExternalRodGeometry(t *testing.T) {
	spec := labM8()
	rod, major, err := New(sdfkernel.New()).ExternalRod(spec, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	center := 4*spec.Pitch - spec.BaseWidth()/2
	checkPoints(t, "rod", rod, []point{
		{"axis", r3.Vec{Z: 5}, true},
		{"core", r3.Vec{X: 3.9, Z: 5}, true},
		{"beyond major", r3.Vec{X: major/2 + 0.5, Z: 5}, false},
		{"ridge", r3.Vec{X: 4.2, Z: center}, true},
		{"between ridges", r3.Vec{X: 4.3, Z: center - spec.Pitch/2}, false},
		{"below rod", r3.Vec{X: 1, Z: -0.5}, false},
		{"above rod", r3.Vec{X: 1, Z: 10.5}, false},
	})
	if bb := rod.Bounds(); bb.Max.X < 4.4 || bb.Min.Z > 0 || bb.Max.Z < 10 {
		t.Errorf("rod bounds %v do not cover the rod", bb)
	}
}

func TestNutGeometry(t *testing.T) {
	spec := labM8()
	nut, bore, err := New(sdfkernel.New()).Nut(spec, 8.5, 10, Chamfer{Length: 1, AngleDeg: 45})
	if err != nil {
		t.Fatal(err)
	}
	if bore/2 > 4.4 {
		t.Fatalf("bore radius %g swallows the sample points", bore/2)
	}
	center := 4*spec.Pitch - spec.BaseWidth()/2
	checkPoints(t, "nut", nut, []point{
		{"wall", r3.Vec{X: 7, Z: 5}, true},
		{"outside", r3.Vec{X: 9, Z: 5}, false},
		{"axis", r3.Vec{Z: 5}, false},
		{"bore", r3.Vec{X: bore/2 - 0.1, Z: 5}, false},
		{"groove", r3.Vec{X: 4.4, Z: center}, false},
		{"between grooves", r3.Vec{X: 4.4, Z: center - spec.Pitch/2}, true},
		{"bottom chamfer", r3.Vec{X: 4.6, Z: 0.2}, false},
		{"top chamfer", r3.Vec{X: 4.6, Z: 9.8}, false},
	})
}

func TestChamferedRodGeometry(t *testing.T) {
	ops := New(sdfkernel.New())
	plain, err := ops.Rod(8, 10, RodSpec{})
	if err != nil {
		t.Fatal(err)
	}
	bevel := Chamfer{Length: 1, AngleDeg: 45}
	chamfered, err := ops.Rod(8, 10, RodSpec{ChamferBottom: bevel, ChamferTop: bevel})
	if err != nil {
		t.Fatal(err)
	}
	corners := []r3.Vec{{X: 3.5, Z: 0.2}, {Y: -3.5, Z: 9.8}}
	var pp, cp []point
	for _, c := range corners {
		pp = append(pp, point{"corner", c, true})
		cp = append(cp, point{"corner", c, false})
	}
	checkPoints(t, "plain rod", plain, pp)
	checkPoints(t, "chamfered rod", chamfered, append(cp,
		point{"axis near end", r3.Vec{Z: 0.2}, true},
		point{"mid wall", r3.Vec{X: 3.5, Z: 5}, true},
	))
}

func TestHexNutGeometry(t *testing.T) {
	nut, bore, err := New(sdfkernel.New()).HexNut(labM8(), 13, 6.5, Chamfer{Length: 0.5, AngleDeg: 45})
	if err != nil {
		t.Fatal(err)
	}
	// Corners point along 30 degrees.
	corner := r3.Vec{X: math.Cos(math.Pi / 6), Y: math.Sin(math.Pi / 6)}
	checkPoints(t, "hex nut", nut, []point{
		{"inside flat", r3.Vec{X: 6.3, Z: 3.25}, true},
		{"beyond flat", r3.Vec{X: 6.7, Z: 3.25}, false},
		{"near corner", r3.Add(r3.Scale(7.3, corner), r3.Vec{Z: 3.25}), true},
		{"trimmed corner", r3.Add(r3.Scale(7.3, corner), r3.Vec{Z: 0.1}), false},
		{"beyond corner", r3.Add(r3.Scale(7.7, corner), r3.Vec{Z: 3.25}), false},
		{"bore", r3.Vec{X: bore/2 - 0.1, Z: 3.25}, false},
		{"axis", r3.Vec{Z: 3.25}, false},
	})
}

func TestExternalRodScenarioGeometry(t *testing.T) {
	if testing.Short() {
		t.Skip("sweeps a 24 turn helix")
	}
	spec := labM8()
	rod, major, err := New(sdfkernel.New()).ExternalRod(spec, 30, 30)
	if err != nil {
		t.Fatal(err)
	}
	if !near(major, 9.575, 1e-9) {
		t.Errorf("major diameter %g, want 9.575", major)
	}
	if bb := rod.Bounds(); bb.Min.Z > 0 || bb.Max.Z < 30 {
		t.Errorf("rod bounds %v do not cover the rod", bb)
	}
	center := 20*spec.Pitch - spec.BaseWidth()/2
	checkPoints(t, "M8 rod", rod, []point{
		{"axis", r3.Vec{Z: 15}, true},
		{"core", r3.Vec{X: 3.9, Z: 28}, true},
		{"beyond major", r3.Vec{X: major/2 + 0.5, Z: 15}, false},
		{"ridge", r3.Vec{X: 4.2, Z: center}, true},
		{"ridge near start", r3.Vec{X: 4.2, Z: 2*spec.Pitch - spec.BaseWidth()/2}, true},
		{"between ridges", r3.Vec{X: 4.3, Z: center - spec.Pitch/2}, false},
		{"above rod", r3.Vec{X: 1, Z: 30.5}, false},
	})
}

func TestDefaultSpecRodGeometry(t *testing.T) {
	if testing.Short() {
		t.Skip("sweeps a 15 turn helix")
	}
	spec := DefaultSpec()
	rod, major, err := New(sdfkernel.New()).ExternalRod(spec, 30, 30)
	if err != nil {
		t.Fatal(err)
	}
	minor := major/2 - spec.Depth
	center := 10*spec.Pitch - spec.BaseWidth()/2
	checkPoints(t, "default rod", rod, []point{
		{"core", r3.Vec{X: minor - 0.1, Z: 15}, true},
		{"ridge", r3.Vec{X: minor + 0.3, Z: center}, true},
		{"between ridges", r3.Vec{X: minor + 0.4, Z: center - spec.Pitch/2}, false},
		{"beyond major", r3.Vec{X: major/2 + 0.5, Z: 15}, false},
	})
}

// ridgeInside counts the points deep inside the ridge of rod, just beyond
// the bore of the nut, that fall inside the nut material.
func ridgeInside(t *testing.T, rod, nut kernel.Solid, bore float64) (ridge, inside int) {
	t.Helper()
	fr, err := sdfkernel.SDF(rod)
	if err != nil {
		t.Fatal(err)
	}
	fn, err := sdfkernel.SDF(nut)
	if err != nil {
		t.Fatal(err)
	}
	r := bore/2 + 0.02
	for i := 0; i < 24; i++ {
		s, c := math.Sincos(2 * math.Pi * float64(i) / 24)
		for z := 2.0; z <= 8; z += 0.05 {
			p := r3.Vec{X: r * c, Y: r * s, Z: z}
			if fr.Evaluate(p) > -0.02 {
				continue
			}
			ridge++
			if fn.Evaluate(p) < 0 {
				inside++
			}
		}
	}
	return ridge, inside
}

func TestLeftHandMating(t *testing.T) {
	left := labM8()
	left.Handedness = LeftHand
	right := labM8()
	ops := New(sdfkernel.New())
	rod, _, err := ops.ExternalRod(left, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	bevel := Chamfer{Length: 1, AngleDeg: 45}
	nut, bore, err := ops.Nut(left, 8.5, 10, bevel)
	if err != nil {
		t.Fatal(err)
	}
	ridge, inside := ridgeInside(t, rod, nut, bore)
	if ridge < 100 {
		t.Fatalf("only %d ridge samples beyond the bore", ridge)
	}
	if inside != 0 {
		t.Errorf("%d of %d ridge samples inside the left hand nut", inside, ridge)
	}

	wrong, bore, err := ops.Nut(right, 8.5, 10, bevel)
	if err != nil {
		t.Fatal(err)
	}
	ridge, inside = ridgeInside(t, rod, wrong, bore)
	if inside < ridge/4 {
		t.Errorf("left hand rod fits a right hand nut: %d of %d ridge samples collide", inside, ridge)
	}
}
