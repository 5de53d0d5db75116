// Package render turns distance functions into triangle meshes and writes
// them as binary STL.
package render

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Renderer streams the triangles of a mesh. ReadTriangles fills dst and
// returns io.EOF once the mesh is exhausted.
type Renderer interface {
	ReadTriangles(dst []r3.Triangle) (int, error)
}
