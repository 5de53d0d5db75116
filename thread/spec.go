// Package thread generates mating screw threads as kernel solids: external
// threaded rods, internal thread cutters and the parts built from them.
//
// A bolt and the nut that fits it are produced by two independent calls fed
// the same Spec. Every operation normalizes its own copy of the Spec first,
// so both sides derive the same radii, base width and embedding offset.
package thread

import (
	"fmt"
	"math"
	"strings"
)

// Handedness is the direction of helical advance.
type Handedness int

const (
	RightHand Handedness = iota
	LeftHand
)

// Sign returns +1 for right hand threads and -1 for left hand threads.
func (h Handedness) Sign() float64 {
	if h == LeftHand {
		return -1
	}
	return 1
}

func (h Handedness) String() string {
	switch h {
	case RightHand:
		return "right"
	case LeftHand:
		return "left"
	}
	return fmt.Sprintf("Handedness(%d)", int(h))
}

// MarshalText implements encoding.TextMarshaler.
func (h Handedness) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Handedness) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "right", "r", "rh":
		*h = RightHand
	case "left", "l", "lh":
		*h = LeftHand
	default:
		return fmt.Errorf("unknown handedness %q", b)
	}
	return nil
}

// TipStyle selects whether the ridge crest is a point or a flat.
type TipStyle int

const (
	TipSharp TipStyle = iota
	TipCut
)

func (t TipStyle) String() string {
	switch t {
	case TipSharp:
		return "sharp"
	case TipCut:
		return "cut"
	}
	return fmt.Sprintf("TipStyle(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t TipStyle) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TipStyle) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "sharp":
		*t = TipSharp
	case "cut", "flat":
		*t = TipCut
	default:
		return fmt.Errorf("unknown tip style %q", b)
	}
	return nil
}

// Spec holds every parameter of a thread pair. Lengths are in millimeters
// and angles in degrees.
type Spec struct {
	// FitDiameter is the nominal diameter a smooth mating bore or rod would use.
	FitDiameter float64 `toml:"fit_diameter"`
	// Pitch is the axial distance between successive ridge crests.
	Pitch float64 `toml:"pitch"`
	// Depth is the radial ridge height, crest to root.
	Depth float64 `toml:"depth"`
	// FlankAngleDeg is the included angle of the V cross section.
	FlankAngleDeg float64 `toml:"flank_angle_deg"`
	// Clearance is subtracted from the external rod radii.
	Clearance  float64    `toml:"clearance"`
	Handedness Handedness `toml:"handedness"`
	Tip        TipStyle   `toml:"tip"`
	// TipCutRatio is the fraction of Depth removed as a flat when Tip is TipCut.
	TipCutRatio float64 `toml:"tip_cut_ratio"`
	// SegmentsPerTurn is the helix sampling density per revolution.
	SegmentsPerTurn int `toml:"segments_per_turn"`
}

// Limits enforced by Normalized.
const (
	minFlankAngle      = 10.0
	maxFlankAngle      = 120.0
	minSegmentsPerTurn = 16
	fallbackSize       = 0.1
)

// DefaultSpec returns an M20-like 2mm pitch thread with a cut tip.
func DefaultSpec() Spec {
	return Spec{
		FitDiameter:     20,
		Pitch:           2,
		Depth:           1,
		FlankAngleDeg:   60,
		Clearance:       0,
		Handedness:      RightHand,
		Tip:             TipCut,
		TipCutRatio:     0.5,
		SegmentsPerTurn: 96,
	}
}

// Normalized returns a copy of s with out of range fields replaced by safe
// values. It never fails and Normalized(Normalized(s)) == Normalized(s).
func (s Spec) Normalized() Spec {
	def := DefaultSpec()
	if !(s.Pitch > 0) || math.IsInf(s.Pitch, 1) {
		s.Pitch = fallbackSize
	}
	if !(s.Depth > 0) || math.IsInf(s.Depth, 1) {
		s.Depth = fallbackSize
	}
	switch {
	case math.IsNaN(s.FlankAngleDeg):
		s.FlankAngleDeg = def.FlankAngleDeg
	case s.FlankAngleDeg < minFlankAngle:
		s.FlankAngleDeg = minFlankAngle
	case s.FlankAngleDeg > maxFlankAngle:
		s.FlankAngleDeg = maxFlankAngle
	}
	if s.SegmentsPerTurn < minSegmentsPerTurn {
		s.SegmentsPerTurn = minSegmentsPerTurn
	}
	switch {
	case math.IsNaN(s.TipCutRatio):
		s.TipCutRatio = def.TipCutRatio
	case s.TipCutRatio < 0:
		s.TipCutRatio = 0
	case s.TipCutRatio > 1:
		s.TipCutRatio = 1
	}
	if !(s.Clearance >= 0) || math.IsInf(s.Clearance, 1) {
		s.Clearance = 0
	}
	if s.Handedness != LeftHand {
		s.Handedness = RightHand
	}
	if s.Tip != TipSharp {
		s.Tip = TipCut
	}
	return s
}

// BaseWidth returns the axial width of the ridge at its root,
// 2*depth*tan(flank/2).
func (s Spec) BaseWidth() float64 {
	return 2 * s.Depth * math.Tan(s.FlankAngleDeg*math.Pi/360)
}

// Turns returns the number of revolutions in length.
func (s Spec) Turns(length float64) float64 {
	return length / s.Pitch
}

// Embedding returns the radial overlap between swept ridges and the solids
// they are joined to.
func (s Spec) Embedding() float64 {
	return math.Max(1e-3, math.Max(0.002*s.Pitch, 0.05*s.Depth))
}

// CrestHeight returns the radial height of the ridge after tip truncation.
func (s Spec) CrestHeight() float64 {
	if s.Tip == TipCut {
		return math.Max(minFlatHeight, s.Depth-s.TipCutRatio*s.Depth)
	}
	return s.Depth
}
