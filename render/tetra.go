package render

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// maxTetraTriangles is the largest number of triangles a single cell can
// produce: two per tetrahedron.
const maxTetraTriangles = 2 * len(cellTetrahedra)

// cornerOffsets are the lattice offsets of a level 1 cube's corners.
var cornerOffsets = [8]index{
	{0, 0, 0}, {2, 0, 0}, {2, 2, 0}, {0, 2, 0},
	{0, 0, 2}, {2, 0, 2}, {2, 2, 2}, {0, 2, 2},
}

// cellTetrahedra splits a cube into six tetrahedra sharing the 0-6 diagonal.
// Every cube face is cut along a diagonal parallel to the one used by its
// neighbour so the surface has no cracks between cells.
var cellTetrahedra = [6][4]int{
	{0, 5, 1, 6},
	{0, 1, 2, 6},
	{0, 2, 3, 6},
	{0, 3, 7, 6},
	{0, 7, 4, 6},
	{0, 4, 5, 6},
}

// tetraCell holds the sampled corners of one cube.
type tetraCell struct {
	idx [8]index
	p   [8]r3.Vec
	v   [8]float64
}

// triangles polygonizes the zero isosurface inside the cell and writes the
// triangles to dst, which must hold maxTetraTriangles. Triangles are wound
// counter clockwise seen from outside the solid.
func (c *tetraCell) triangles(dst []r3.Triangle) int {
	n := 0
	for _, tet := range cellTetrahedra {
		var in, out [4]int
		var nin, nout int
		for _, k := range tet {
			if c.v[k] < 0 {
				in[nin] = k
				nin++
			} else {
				out[nout] = k
				nout++
			}
		}
		switch nin {
		case 1:
			n += c.emit(dst[n:], in[:1], out[:3], r3.Triangle{
				c.edge(in[0], out[0]), c.edge(in[0], out[1]), c.edge(in[0], out[2]),
			})
		case 3:
			n += c.emit(dst[n:], in[:3], out[:1], r3.Triangle{
				c.edge(out[0], in[0]), c.edge(out[0], in[1]), c.edge(out[0], in[2]),
			})
		case 2:
			// The crossing is a quad around the tetrahedron.
			ac := c.edge(in[0], out[0])
			ad := c.edge(in[0], out[1])
			bd := c.edge(in[1], out[1])
			bc := c.edge(in[1], out[0])
			n += c.emit(dst[n:], in[:2], out[:2], r3.Triangle{ac, ad, bd})
			n += c.emit(dst[n:], in[:2], out[:2], r3.Triangle{ac, bd, bc})
		}
	}
	return n
}

// emit writes t to dst oriented away from the inside corners. Collinear
// triangles are dropped.
func (c *tetraCell) emit(dst []r3.Triangle, in, out []int, t r3.Triangle) int {
	if t.IsDegenerate(0) {
		return 0
	}
	var cin, cout r3.Vec
	for _, k := range in {
		cin = r3.Add(cin, c.p[k])
	}
	for _, k := range out {
		cout = r3.Add(cout, c.p[k])
	}
	outward := r3.Sub(r3.Scale(1/float64(len(out)), cout), r3.Scale(1/float64(len(in)), cin))
	if r3.Dot(t.Normal(), outward) < 0 {
		t[1], t[2] = t[2], t[1]
	}
	dst[0] = t
	return 1
}

// edge returns the zero crossing on the edge between corners i and j by
// linear interpolation. The endpoints are ordered by lattice index so the
// cells sharing an edge compute the same point.
func (c *tetraCell) edge(i, j int) r3.Vec {
	if c.idx[j].less(c.idx[i]) {
		i, j = j, i
	}
	vi, vj := c.v[i], c.v[j]
	t := vi / (vi - vj)
	return r3.Add(c.p[i], r3.Scale(t, r3.Sub(c.p[j], c.p[i])))
}
