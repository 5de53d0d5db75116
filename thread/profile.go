package thread

import (
	"math"

	"github.com/soypat/threadcad/internal/d2"
	"github.com/soypat/threadcad/kernel"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// minFlatHeight keeps a fully truncated profile from collapsing.
const minFlatHeight = 1e-6

// Profile is a closed V shaped ridge cross section. Vertices are given
// counter-clockwise in a local frame where X is "up" (radially outward) and
// Y is "across" (along the thread axis). The base lies on X=0 centered on
// Y=0.
type Profile struct {
	Vertices []r2.Vec
	base     float64
	height   float64
}

// VProfile builds the ridge cross section for a V thread. A sharp tip ends
// in an apex at (depth, 0). A cut tip ends in a flat at
// max(1e-6, depth-ratio*depth) with half width base/2*(1-ratio).
func VProfile(depth, flankAngleDeg float64, tip TipStyle, tipCutRatio float64) Profile {
	base := 2 * depth * math.Tan(flankAngleDeg*math.Pi/360)
	half := base / 2
	bottom, top := r2.Vec{Y: -half}, r2.Vec{Y: half}
	if tip != TipCut {
		return Profile{
			Vertices: []r2.Vec{bottom, {X: depth}, top},
			base:     base,
			height:   depth,
		}
	}
	ratio := math.Min(1, math.Max(0, tipCutRatio))
	if math.IsNaN(tipCutRatio) {
		ratio = 0
	}
	flat := math.Max(minFlatHeight, depth-ratio*depth)
	w := half * (1 - ratio)
	if w < minFlatHeight {
		// Flat degenerates to a point.
		return Profile{
			Vertices: []r2.Vec{bottom, {X: flat}, top},
			base:     base,
			height:   flat,
		}
	}
	return Profile{
		Vertices: []r2.Vec{bottom, {X: flat, Y: -w}, {X: flat, Y: w}, top},
		base:     base,
		height:   flat,
	}
}

// Base returns the axial width of the profile at its root.
func (p Profile) Base() float64 { return p.base }

// Height returns the radial extent of the profile.
func (p Profile) Height() float64 { return p.height }

// Area returns the signed area of the profile, positive for the
// counter-clockwise vertex order VProfile produces.
func (p Profile) Area() float64 { return d2.Set(p.Vertices).Area() }

// Place lays the profile in the world YZ plane, up along +Y and across
// along +Z, and then moves it by pl.
func (p Profile) Place(pl kernel.Placement) kernel.Polygon {
	poly := make(kernel.Polygon, len(p.Vertices))
	for i, v := range p.Vertices {
		poly[i] = pl.Apply(r3.Vec{Y: v.X, Z: v.Y})
	}
	return poly
}
