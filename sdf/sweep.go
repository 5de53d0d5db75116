package sdf

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/soypat/threadcad/internal/d2"
	"github.com/soypat/threadcad/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Frame is a point on a path together with its orthonormal moving frame:
// tangent T, principal normal N and binormal B = T x N.
type Frame struct {
	Origin  r3.Vec
	T, N, B r3.Vec
}

// local returns the coordinates of v relative to the frame's origin.
func (f Frame) local(v r3.Vec) r3.Vec {
	return f.localDir(r3.Sub(v, f.Origin))
}

// localDir returns the frame coordinates of direction v.
func (f Frame) localDir(v r3.Vec) r3.Vec {
	return r3.Vec{X: r3.Dot(v, f.T), Y: r3.Dot(v, f.N), Z: r3.Dot(v, f.B)}
}

// world is the inverse of local.
func (f Frame) world(l r3.Vec) r3.Vec {
	return r3.Add(f.Origin, f.worldDir(l))
}

func (f Frame) worldDir(l r3.Vec) r3.Vec {
	return r3.Add(r3.Add(r3.Scale(l.X, f.T), r3.Scale(l.Y, f.N)), r3.Scale(l.Z, f.B))
}

// section is the cross section placed at one frame of the sweep.
type section struct {
	c    r3.Vec // centroid
	u, w r3.Vec // in-plane axes
	m    r3.Vec // plane normal, points along the direction of travel
}

func (s section) project(p r3.Vec) (q r2.Vec, h float64) {
	d := r3.Sub(p, s.c)
	return r2.Vec{X: r3.Dot(d, s.u), Y: r3.Dot(d, s.w)}, r3.Dot(d, s.m)
}

// segment is the volume swept between two consecutive sections.
type segment struct {
	i    int
	rect rtreego.Rect
}

func (s *segment) Bounds() rtreego.Rect { return s.rect }

// sweep3 is a planar polygon swept along a sequence of frames.
type sweep3 struct {
	poly     SDF2
	sections []section
	tree     *rtreego.Rtree
	centers  *kdtree.Tree
	reach    float64 // R-tree query half size
	slack    float64 // centroid lower bound slack
	bb       r3.Box
}

// Sweep3D sweeps the closed planar polygon section along frames. The
// polygon is given in world coordinates at the first frame and keeps its
// position relative to the moving frame, so it need not touch the path.
// Sweep3D panics if the polygon is not planar, if it is parallel to the
// direction of travel or if consecutive sections fold over each other.
func Sweep3D(frames []Frame, polygon []r3.Vec) SDF3 {
	if len(frames) < 2 {
		panic("sweep requires at least 2 frames")
	}
	if len(polygon) < 3 {
		panic("number of vertices < 3")
	}
	c, m := planeOf(polygon)
	u := r3.Unit(r3.Sub(polygon[0], c))
	w := r3.Cross(m, u)
	flat := make([]r2.Vec, len(polygon))
	var radius float64
	for i, v := range polygon {
		d := r3.Sub(v, c)
		if math.Abs(r3.Dot(d, m)) > 1e-6*(1+r3.Norm(d)) {
			panic("sweep section is not planar")
		}
		flat[i] = r2.Vec{X: r3.Dot(d, u), Y: r3.Dot(d, w)}
		radius = math.Max(radius, r3.Norm(d))
	}
	if math.Abs(d2.Set(flat).Area()) < tolerance {
		panic("sweep section has zero area")
	}

	f0 := frames[0]
	lc, lu, lw, lm := f0.local(c), f0.localDir(u), f0.localDir(w), f0.localDir(m)
	lverts := make([]r3.Vec, len(polygon))
	for i, v := range polygon {
		lverts[i] = f0.local(v)
	}

	s := sweep3{
		poly:     Polygon(flat),
		sections: make([]section, len(frames)),
		reach:    radius,
	}
	verts := make([][]r3.Vec, len(frames))
	for i, f := range frames {
		s.sections[i] = section{c: f.world(lc), u: f.worldDir(lu), w: f.worldDir(lw), m: f.worldDir(lm)}
		verts[i] = make([]r3.Vec, len(lverts))
		for j, lv := range lverts {
			verts[i][j] = f.world(lv)
		}
	}
	travel := r3.Sub(s.sections[1].c, s.sections[0].c)
	along := r3.Dot(travel, s.sections[0].m)
	if math.Abs(along) < 1e-3*r3.Norm(travel) {
		panic("sweep section is parallel to the path")
	}
	if along < 0 {
		for i := range s.sections {
			s.sections[i].m = r3.Scale(-1, s.sections[i].m)
		}
	}

	spatials := make([]rtreego.Spatial, len(frames)-1)
	centroids := make(kdtree.Points, len(frames))
	var maxStep float64
	for i := range s.sections {
		sc := s.sections[i].c
		centroids[i] = kdtree.Point{sc.X, sc.Y, sc.Z}
		if i == len(frames)-1 {
			break
		}
		next := s.sections[i+1]
		for _, v := range verts[i+1] {
			if r3.Dot(r3.Sub(v, sc), s.sections[i].m) <= 0 {
				panic("sweep section folds over itself")
			}
		}
		step := r3.Norm(r3.Sub(next.c, sc))
		maxStep = math.Max(maxStep, step)
		bb := append(d3.Set(nil), verts[i]...).Bounds()
		for _, v := range verts[i+1] {
			bb = bb.Include(v)
		}
		bb = bb.Enlarge(d3.Elem(step))
		rect, err := rtreego.NewRectFromPoints(
			rtreego.Point{bb.Min.X, bb.Min.Y, bb.Min.Z},
			rtreego.Point{bb.Max.X, bb.Max.Y, bb.Max.Z},
		)
		if err != nil {
			panic(err.Error())
		}
		spatials[i] = &segment{i: i, rect: rect}
		if i == 0 {
			s.bb = r3.Box(bb)
		} else {
			s.bb = r3.Box(d3.Box(s.bb).Extend(bb))
		}
	}
	s.slack = radius + maxStep
	s.tree = rtreego.NewTree(3, 25, 50, spatials...)
	s.centers = kdtree.New(centroids, false)
	return &s
}

// Evaluate returns an approximate distance to the swept solid. Far from the
// solid the value is a lower bound of the true distance.
func (s *sweep3) Evaluate(p r3.Vec) float64 {
	near := s.tree.SearchIntersect(rtreego.Point{p.X, p.Y, p.Z}.ToRect(s.reach))
	if len(near) == 0 {
		_, dd := s.centers.Nearest(kdtree.Point{p.X, p.Y, p.Z})
		return math.Max(s.reach, math.Sqrt(dd)-s.slack)
	}
	last := len(s.sections) - 2
	best := math.Inf(1)
	fallback := math.Inf(1)
	for _, sp := range near {
		i := sp.(*segment).i
		a, b := s.sections[i], s.sections[i+1]
		qa, ha := a.project(p)
		qb, hb := b.project(p)
		switch {
		case ha >= 0 && hb <= 0:
			f := 0.0
			if ha != hb {
				f = ha / (ha - hb)
			}
			best = math.Min(best, s.poly.Evaluate(lerpSection(a, b, f, p)))
		case i == 0 && ha < 0:
			best = math.Min(best, capDist(s.poly.Evaluate(qa), -ha))
		case i == last && hb > 0:
			best = math.Min(best, capDist(s.poly.Evaluate(qb), hb))
		default:
			// Not between this segment's planes: distance to the nearest
			// end section still bounds the result from above.
			if ha < 0 {
				fallback = math.Min(fallback, capDist(s.poly.Evaluate(qa), -ha))
			} else {
				fallback = math.Min(fallback, capDist(s.poly.Evaluate(qb), hb))
			}
		}
	}
	if math.IsInf(best, 1) {
		return fallback
	}
	return best
}

// Bounds returns the bounding box of the swept solid.
func (s *sweep3) Bounds() r3.Box {
	return s.bb
}

// lerpSection returns the in-plane coordinates of p on the section
// interpolated a fraction f of the way from a to b.
func lerpSection(a, b section, f float64, p r3.Vec) r2.Vec {
	c := d3.Lerp(a.c, b.c, f)
	u := r3.Unit(d3.Lerp(a.u, b.u, f))
	w := d3.Lerp(a.w, b.w, f)
	w = r3.Unit(r3.Sub(w, r3.Scale(r3.Dot(w, u), u)))
	d := r3.Sub(p, c)
	return r2.Vec{X: r3.Dot(d, u), Y: r3.Dot(d, w)}
}

// capDist is the distance to a flat end cap given the in-plane signed
// distance d and the distance h > 0 beyond the cap plane.
func capDist(d, h float64) float64 {
	if d <= 0 {
		return h
	}
	return math.Hypot(d, h)
}

// planeOf returns the centroid and unit normal of a planar polygon using
// Newell's method.
func planeOf(v []r3.Vec) (centroid, normal r3.Vec) {
	for i := range v {
		a, b := v[i], v[(i+1)%len(v)]
		normal.X += (a.Y - b.Y) * (a.Z + b.Z)
		normal.Y += (a.Z - b.Z) * (a.X + b.X)
		normal.Z += (a.X - b.X) * (a.Y + b.Y)
		centroid = r3.Add(centroid, a)
	}
	if r3.Norm(normal) < tolerance {
		panic("degenerate sweep section")
	}
	return r3.Scale(1/float64(len(v)), centroid), r3.Unit(normal)
}
