package render

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/soypat/threadcad/internal/d3"
	"github.com/soypat/threadcad/sdf"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// cubesPerStep is the number of octree cubes taken from the work queue on
// each refill of the triangle buffer.
const cubesPerStep = 1 << 11

// Octree renders an SDF3 with marching tetrahedra over an octree sampling of
// its bounding box. Empty octree cells are discarded before being split, so
// the number of distance evaluations grows with the surface area of the
// solid rather than its volume.
type Octree struct {
	// Concurrent is the number of goroutines used to process octree cells.
	// Values of 0 or 1 process cells on the calling goroutine.
	Concurrent int

	dc        *dc3
	todo      []cube
	unwritten triangleBuffer
	err       error
	leaves    int
	emitted   int
}

type index [3]int

func (a index) add(b index) index { return index{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }

func (a index) less(b index) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	if a[1] != b[1] {
		return a[1] < b[1]
	}
	return a[2] < b[2]
}

type cube struct {
	index      // origin of cube as integers
	n     uint // level of cube, size = 1 << n
}

// NewOctreeRenderer returns an octree renderer that divides the longest axis
// of s's bounding box into meshCells cells. It panics if meshCells < 2.
func NewOctreeRenderer(s sdf.SDF3, meshCells int) *Octree {
	if meshCells < 2 {
		panic("meshCells must be 2 or larger")
	}
	// Scale the bounding box about the center to make sure the boundaries
	// aren't on the object surface.
	bb := d3.Box(s.Bounds()).ScaleAboutCenter(1.01)
	longAxis := d3.Max(bb.Size())
	// The smallest cube tested for emptiness (side == resolution) is the
	// level 0 cube, at half the cell size.
	resolution := 0.5 * longAxis / float64(meshCells)
	levels := uint(math.Ceil(math.Log2(longAxis/resolution))) + 1

	divisions := r3.Scale(1/resolution, bb.Size())
	maxCubes := int(divisions.X) * int(divisions.Y) * int(divisions.Z)
	cubes := make([]cube, 1, max(1, maxCubes/64))
	cubes[0] = cube{n: levels - 1} // start at the top level
	return &Octree{
		dc:        newDc3(s, bb.Min, resolution, levels),
		unwritten: triangleBuffer{buf: make([]r3.Triangle, 0, 1024)},
		todo:      cubes,
	}
}

// CellsForSize returns the number of mesh cells along the longest axis of
// bounds needed for cells no larger than cellSize.
func CellsForSize(bounds r3.Box, cellSize float64) int {
	longAxis := 1.01 * d3.Max(d3.Box(bounds).Size())
	return max(2, int(math.Ceil(longAxis/cellSize)))
}

// ReadTriangles writes triangles rendered from the model into dst. It
// returns io.EOF once every cell has been processed and no triangles remain.
func (oc *Octree) ReadTriangles(dst []r3.Triangle) (n int, err error) {
	if len(dst) == 0 {
		panic("cannot write to empty triangle slice")
	}
	for n < len(dst) {
		if oc.unwritten.Len() > 0 {
			n += oc.unwritten.Read(dst[n:])
			continue
		}
		if oc.err != nil {
			return n, oc.err
		}
		if len(oc.todo) == 0 {
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		}
		oc.err = oc.step()
	}
	return n, nil
}

// Leaves returns the number of finest level cells polygonized so far.
func (oc *Octree) Leaves() int { return oc.leaves }

// Triangles returns the number of triangles generated so far.
func (oc *Octree) Triangles() int { return oc.emitted }

// step processes one batch of cubes from the work queue, buffering the
// resulting triangles and queueing non-empty subcubes.
func (oc *Octree) step() error {
	batch := oc.todo[:min(len(oc.todo), cubesPerStep)]
	oc.todo = oc.todo[len(batch):]
	shards := max(1, min(oc.Concurrent, len(batch)))
	results := make([]shardResult, shards)
	if shards == 1 {
		results[0] = oc.processShard(batch)
	} else {
		var g errgroup.Group
		per := (len(batch) + shards - 1) / shards
		for i := range results {
			i := i
			lo := min(i*per, len(batch))
			hi := min(lo+per, len(batch))
			g.Go(func() error {
				results[i] = oc.processShard(batch[lo:hi])
				return results[i].err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	// Merge in shard order so output does not depend on scheduling.
	for _, r := range results {
		if r.err != nil {
			return r.err
		}
		oc.unwritten.Write(r.triangles)
		oc.todo = append(oc.todo, r.cubes...)
		oc.leaves += r.leaves
		oc.emitted += len(r.triangles)
	}
	return nil
}

type shardResult struct {
	triangles []r3.Triangle
	cubes     []cube
	leaves    int
	err       error
}

func (oc *Octree) processShard(cubes []cube) (res shardResult) {
	defer func() {
		if a := recover(); a != nil {
			res = shardResult{err: fmt.Errorf("render: evaluating distance field: %v", a)}
		}
	}()
	var tmp [maxTetraTriangles]r3.Triangle
	for _, c := range cubes {
		if c.n > 1 {
			res.cubes = oc.subdivide(res.cubes, c)
			continue
		}
		res.leaves++
		nt := oc.polygonize(tmp[:], c)
		res.triangles = append(res.triangles, tmp[:nt]...)
	}
	return res
}

// subdivide appends the non-empty subcubes of c to dst.
func (oc *Octree) subdivide(dst []cube, c cube) []cube {
	n := c.n - 1
	s := 1 << n
	for _, off := range [8]index{
		{0, 0, 0}, {s, 0, 0}, {s, s, 0}, {0, s, 0},
		{0, 0, s}, {s, 0, s}, {s, s, s}, {0, s, s},
	} {
		candidate := cube{c.index.add(off), n}
		if !oc.dc.IsEmpty(candidate) {
			dst = append(dst, candidate)
		}
	}
	return dst
}

// polygonize writes the triangles of a level 1 cube to dst.
func (oc *Octree) polygonize(dst []r3.Triangle, c cube) int {
	var cell tetraCell
	for i, off := range cornerOffsets {
		cell.idx[i] = c.index.add(off)
		cell.p[i], cell.v[i] = oc.dc.Evaluate(cell.idx[i])
	}
	return cell.triangles(dst)
}

// dc3 is a distance cache. It evaluates the SDF3 at lattice points, reusing
// values shared by neighbouring cells.
type dc3 struct {
	mu         sync.Mutex
	cache      map[index]float64
	origin     r3.Vec    // origin of the overall bounding cube
	resolution float64   // size of smallest octree cube
	hdiag      []float64 // lookup table of cube half diagonals
	s          sdf.SDF3
}

func newDc3(s sdf.SDF3, origin r3.Vec, resolution float64, n uint) *dc3 {
	if n >= 64 {
		panic("size of n must be less than size of word for hdiag generation")
	}
	dc := &dc3{
		origin:     origin,
		resolution: resolution,
		hdiag:      make([]float64, n),
		s:          s,
		cache:      make(map[index]float64),
	}
	for i := range dc.hdiag {
		side := float64(int(1)<<uint(i)) * dc.resolution
		dc.hdiag[i] = 0.5 * math.Sqrt(3*side*side)
	}
	return dc
}

// Evaluate returns the position of lattice point vi and the distance there.
func (dc *dc3) Evaluate(vi index) (r3.Vec, float64) {
	v := r3.Add(dc.origin, r3.Scale(dc.resolution, r3.Vec{X: float64(vi[0]), Y: float64(vi[1]), Z: float64(vi[2])}))
	dc.mu.Lock()
	dist, found := dc.cache[vi]
	dc.mu.Unlock()
	if found {
		return v, dist
	}
	dist = dc.s.Evaluate(v)
	dc.mu.Lock()
	dc.cache[vi] = dist
	dc.mu.Unlock()
	return v, dist
}

// IsEmpty returns true if the cube contains no SDF surface.
func (dc *dc3) IsEmpty(c cube) bool {
	half := 1 << (c.n - 1)
	_, d := dc.Evaluate(c.index.add(index{half, half, half}))
	return math.Abs(d) >= dc.hdiag[c.n]
}
