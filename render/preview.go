package render

import (
	"errors"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/spatial/r3"
)

// View configures the camera of a shaded preview. The mesh is scaled to
// fit a bi-unit cube centered at the origin before drawing, so Eye and
// LookAt are given in that normalized space.
type View struct {
	Eye    r3.Vec // camera position
	LookAt r3.Vec // view center position
	Up     r3.Vec
	Near   float64
	Far    float64
	// Width and Height of the output image in pixels.
	Width, Height int
	// Supersampling factor used for antialiasing.
	Scale int
}

// DefaultView returns an isometric view at 768x432 pixels.
func DefaultView() View {
	return View{
		Eye:    r3.Vec{X: 2.4, Y: 2.4, Z: 2.4},
		Up:     r3.Vec{Z: 1},
		Near:   1,
		Far:    10,
		Width:  768,
		Height: 432,
		Scale:  2,
	}
}

// SavePreview renders a Phong shaded image of the STL file at stlPath and
// saves it as a PNG at pngPath.
func SavePreview(stlPath, pngPath string, view View) error {
	if view.Width <= 0 || view.Height <= 0 {
		return errors.New("render: preview image size must be positive")
	}
	if !(view.Near > 0 && view.Far > view.Near) {
		return errors.New("render: preview needs 0 < near < far")
	}
	mesh, err := fauxgl.LoadSTL(stlPath)
	if err != nil {
		return err
	}
	const fovy = 30 // vertical field of view in degrees
	scale := max(1, view.Scale)
	var (
		eye    = fauxgl.V(view.Eye.X, view.Eye.Y, view.Eye.Z)
		center = fauxgl.V(view.LookAt.X, view.LookAt.Y, view.LookAt.Z)
		up     = fauxgl.V(view.Up.X, view.Up.Y, view.Up.Z)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
		color  = fauxgl.HexColor("#468966")
	)
	mesh.BiUnitCube()
	context := fauxgl.NewContext(view.Width*scale, view.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(view.Width) / float64(view.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(mesh)
	// downsample image for antialiasing
	image := context.Image()
	image = resize.Resize(uint(view.Width), uint(view.Height), image, resize.Bilinear)
	return fauxgl.SavePNG(pngPath, image)
}
