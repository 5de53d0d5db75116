package render

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	stlHeaderSize   = 84
	stlTriangleSize = 50
)

// CreateSTL streams the triangles of r into a binary STL file at path.
func CreateSTL(path string, r Renderer) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	// Header is written last, once the triangle count is known.
	if _, err = file.Seek(stlHeaderSize, io.SeekStart); err != nil {
		return err
	}
	rd := &stlReader{r: r}
	n, err := io.CopyBuffer(file, rd, make([]byte, stlTriangleSize*trianglesInBuffer))
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("render: no triangles to write")
	}
	if _, err = file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	header := stlHeader{Count: uint32(n / stlTriangleSize)}
	return binary.Write(file, binary.LittleEndian, &header)
}

// WriteSTL writes model triangles to w in binary STL format.
func WriteSTL(w io.Writer, model []r3.Triangle) error {
	if len(model) == 0 {
		return errors.New("render: empty triangle slice")
	}
	bw := bufio.NewWriter(w)
	header := stlHeader{Count: uint32(len(model))}
	if err := binary.Write(bw, binary.LittleEndian, &header); err != nil {
		return err
	}
	var b [stlTriangleSize]byte
	for _, t := range model {
		fromTriangle(t).put(b[:])
		if _, err := bw.Write(b[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8 // Header
	Count uint32    // Number of triangles
}

const trianglesInBuffer = 1 << 10

// stlReader adapts a Renderer to an io.Reader of STL triangle records.
type stlReader struct {
	r   Renderer
	buf [trianglesInBuffer]r3.Triangle
}

func (w *stlReader) Read(b []byte) (int, error) {
	ntMax := min(len(b)/stlTriangleSize, len(w.buf))
	if ntMax == 0 {
		return 0, errors.New("render: STL read needs room for one 50 byte triangle")
	}
	nt, err := w.r.ReadTriangles(w.buf[:ntMax])
	for i, t := range w.buf[:nt] {
		fromTriangle(t).put(b[i*stlTriangleSize:])
	}
	return nt * stlTriangleSize, err
}

// ReadSTL reads a binary STL stream. Degenerate triangles and triangles whose
// stored normal disagrees with their vertex winding are kept. They are
// reported after the whole file is read with an error wrapping ErrDegenerate
// or ErrNormalMismatch.
func ReadSTL(r io.Reader) ([]r3.Triangle, error) {
	br := bufio.NewReader(r)
	var header stlHeader
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, errors.New("render: EOF while reading STL header")
		}
		return nil, fmt.Errorf("render: reading STL header: %w", err)
	}
	if header.Count == 0 {
		return nil, errors.New("render: STL header indicates 0 triangles present")
	}
	var (
		buf                    [stlTriangleSize]byte
		d                      stlTriangle
		mismatches, degenerate int
	)
	output := make([]r3.Triangle, 0, min(int(header.Count), 1<<20))
	for i := 0; i < int(header.Count); i++ {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			return nil, fmt.Errorf("render: %d/%d STL triangles read: %w", i, header.Count, err)
		}
		d.get(buf[:])
		switch err := d.validate(); {
		case err == nil:
		case errors.Is(err, ErrDegenerate):
			degenerate++
		case errors.Is(err, ErrNormalMismatch):
			mismatches++
		default:
			return nil, fmt.Errorf("render: STL triangle %d: %w", i, err)
		}
		output = append(output, d.toTriangle())
	}
	var errs []error
	if degenerate > 0 {
		errs = append(errs, fmt.Errorf("render: %d triangles: %w", degenerate, ErrDegenerate))
	}
	if mismatches > 0 {
		errs = append(errs, fmt.Errorf("render: %d triangles: %w", mismatches, ErrNormalMismatch))
	}
	return output, errors.Join(errs...)
}

// stlTriangle defines the triangle data within an STL file.
type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	_       uint16 // Attribute byte count
}

func fromTriangle(t r3.Triangle) stlTriangle {
	var d stlTriangle
	n := t.Normal()
	if norm := r3.Norm(n); norm > 0 {
		n = r3.Scale(1/norm, n)
	}
	d.Normal = to3F32(n)
	d.Vertex1 = to3F32(t[0])
	d.Vertex2 = to3F32(t[1])
	d.Vertex3 = to3F32(t[2])
	return d
}

func to3F32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func (t stlTriangle) put(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to marshal stlTriangle")
	}
	put3F32(b, t.Normal)
	put3F32(b[12:], t.Vertex1)
	put3F32(b[24:], t.Vertex2)
	put3F32(b[36:], t.Vertex3)
	binary.LittleEndian.PutUint16(b[48:], 0)
}

func (t *stlTriangle) get(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to unmarshal stlTriangle")
	}
	get3F32(b, &t.Normal)
	get3F32(b[12:], &t.Vertex1)
	get3F32(b[24:], &t.Vertex2)
	get3F32(b[36:], &t.Vertex3)
}

func put3F32(b []byte, f [3]float32) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(f[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f[2]))
}

func get3F32(b []byte, f *[3]float32) {
	_ = b[11] // early bounds check
	f[0] = math.Float32frombits(binary.LittleEndian.Uint32(b))
	f[1] = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	f[2] = math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

// ErrNormalMismatch is reported by ReadSTL when stored normals disagree with
// the normals computed from triangle vertices. Fine meshes written in single
// precision may trigger it while still being valid.
var ErrNormalMismatch = errors.New("triangle normal not approximately equal to calculated normal from vertices")

// ErrDegenerate is reported by ReadSTL for triangles with coincident vertices.
var ErrDegenerate = errors.New("triangle is degenerate")

func (t stlTriangle) validate() error {
	const epsilon = 1e-12
	const normTol = 5e-2
	if bad3F32(t.Normal) {
		return errors.New("inf/NaN STL triangle normal")
	}
	if bad3F32(t.Vertex1) || bad3F32(t.Vertex2) || bad3F32(t.Vertex3) {
		return errors.New("inf/NaN STL triangle vertex")
	}
	if t.degenerate(epsilon) {
		return ErrDegenerate
	}
	calc := to3F32(r3.Unit(t.toTriangle().Normal()))
	if !equalWithin3F32(calc, t.Normal, normTol) {
		return ErrNormalMismatch
	}
	return nil
}

// degenerate returns true if two of the triangle's vertices coincide.
func (t stlTriangle) degenerate(tol float32) bool {
	return equalWithin3F32(t.Vertex1, t.Vertex2, tol) ||
		equalWithin3F32(t.Vertex2, t.Vertex3, tol) ||
		equalWithin3F32(t.Vertex3, t.Vertex1, tol)
}

func equalWithin3F32(a, b [3]float32, tol float32) bool {
	return math32.Abs(a[0]-b[0]) <= tol &&
		math32.Abs(a[1]-b[1]) <= tol &&
		math32.Abs(a[2]-b[2]) <= tol
}

func r3From3F32(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}

func (t stlTriangle) toTriangle() r3.Triangle {
	return r3.Triangle{r3From3F32(t.Vertex1), r3From3F32(t.Vertex2), r3From3F32(t.Vertex3)}
}
