package thread

import (
	"fmt"
	"math"
	"sort"
)

// isoPitches lists ISO 261 metric pitches by nominal diameter [mm].
// The first pitch of each entry is the coarse pitch.
var isoPitches = map[float64][]float64{
	1.0:  {0.25},
	1.2:  {0.25},
	1.6:  {0.35},
	2.0:  {0.4, 0.25},
	2.5:  {0.45, 0.35},
	3.0:  {0.5, 0.35},
	4.0:  {0.7, 0.5},
	5.0:  {0.8, 0.5},
	6.0:  {1.0, 0.75, 0.5},
	8.0:  {1.25, 1.0, 0.75},
	10.0: {1.5, 1.25, 1.0, 0.75},
	12.0: {1.75, 1.5, 1.25, 1.0},
	16.0: {2.0, 1.5, 1.0},
	20.0: {2.5, 2.0, 1.5, 1.0},
	24.0: {3.0, 2.5, 2.0, 1.5},
	30.0: {3.5, 3.0, 2.0, 1.5},
	36.0: {4.0, 3.0, 2.0, 1.5},
	42.0: {4.5, 4.0, 3.0, 2.0},
	48.0: {5.0, 4.0, 3.0, 2.0},
	56.0: {5.5, 4.0, 3.0, 2.0},
	64.0: {6.0, 4.0, 3.0, 2.0},
}

// MetricDiameters returns the nominal diameters with tabulated pitches in
// increasing order.
func MetricDiameters() []float64 {
	d := make([]float64, 0, len(isoPitches))
	for k := range isoPitches {
		d = append(d, k)
	}
	sort.Float64s(d)
	return d
}

func isoEntry(diameter float64) ([]float64, bool) {
	for k, v := range isoPitches {
		if math.Abs(k-diameter) < 1e-6 {
			return v, true
		}
	}
	return nil, false
}

// CoarsePitch returns the ISO coarse pitch for a nominal diameter. Sizes
// missing from the table get a pitch from the nearest standard size band.
func CoarsePitch(diameter float64) float64 {
	if p, ok := isoEntry(diameter); ok {
		return p[0]
	}
	switch {
	case diameter <= 2:
		return 0.4
	case diameter <= 3:
		return 0.5
	case diameter <= 5:
		return 0.8
	case diameter <= 8:
		return 1.25
	case diameter <= 12:
		return 1.75
	case diameter <= 18:
		return 2.5
	case diameter <= 24:
		return 3.0
	}
	return 3.5
}

// FinePitches returns the tabulated fine pitches for a nominal diameter,
// largest first. It returns nil for sizes without fine pitches.
func FinePitches(diameter float64) []float64 {
	p, ok := isoEntry(diameter)
	if !ok || len(p) < 2 {
		return nil
	}
	return append([]float64(nil), p[1:]...)
}

// FundamentalHeight returns the height of the ISO fundamental triangle,
// sqrt(3)/2*pitch.
func FundamentalHeight(pitch float64) float64 {
	return math.Sqrt(3) / 2 * pitch
}

// MetricSpec returns a 60 degree cut tip Spec for an M<diameter> thread. A
// pitch of zero selects the coarse pitch. The depth is 0.6*pitch.
func MetricSpec(diameter, pitch float64) (Spec, error) {
	if !(diameter > 0) || math.IsInf(diameter, 1) {
		return Spec{}, fmt.Errorf("%w: metric diameter %g", ErrInvalidArgument, diameter)
	}
	if pitch == 0 {
		pitch = CoarsePitch(diameter)
	}
	if !(pitch > 0) || math.IsInf(pitch, 1) {
		return Spec{}, fmt.Errorf("%w: metric pitch %g", ErrInvalidArgument, pitch)
	}
	s := DefaultSpec()
	s.FitDiameter = diameter
	s.Pitch = pitch
	s.Depth = 0.6 * pitch
	s.TipCutRatio = 0.4
	s.SegmentsPerTurn = 64
	return s, nil
}

// Metric hex flat to flat sizes [mm].
var metricF2F = []float64{1.75, 2, 3.2, 4, 5, 6, 7, 8, 10, 13, 17, 19, 24, 30, 36, 46, 55, 65, 75, 85, 95}

// HexFlatToFlat returns a wrench size for a nut or bolt head of the
// given nominal diameter.
func HexFlatToFlat(diameter float64) float64 {
	radius := diameter / 2
	var est float64
	switch {
	case radius < 1.2/2:
		est = 3.2 * radius
	case radius < 3.8/2:
		est = 4.5 * radius
	case radius < 4.2/2:
		est = 4 * radius
	default:
		est = 3.5 * radius
	}
	if math.Abs(radius-56/2) < 1 {
		est = 86
	}
	for i := len(metricF2F) - 1; i >= 0; i-- {
		if est-1e-2 > metricF2F[i] {
			return metricF2F[i]
		}
	}
	return metricF2F[0]
}

// HexRadius returns the corner radius of a hexagon with flat to flat size f2f.
func HexRadius(f2f float64) float64 {
	return f2f / (2 * math.Cos(math.Pi/6))
}
