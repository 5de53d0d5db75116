package render_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/threadcad/render"
	"github.com/soypat/threadcad/sdf"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSTLCreateWriteRead(t *testing.T) {
	const quality = 20
	box := sdf.Box(r3.Vec{X: 3, Y: 2, Z: 1})
	name := filepath.Join(t.TempDir(), "box.stl")
	if err := render.CreateSTL(name, render.NewOctreeRenderer(box, quality)); err != nil {
		t.Fatal(err)
	}
	bfile, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	model, err := render.RenderAll(render.NewOctreeRenderer(box, quality))
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if err = render.WriteSTL(&b, model); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b.Bytes(), bfile) {
		t.Fatalf("WriteSTL and CreateSTL output mismatch: %d vs %d bytes", b.Len(), len(bfile))
	}
	if want := 84 + 50*len(model); len(bfile) != want {
		t.Errorf("file size %d, want %d", len(bfile), want)
	}

	got, err := render.ReadSTL(bytes.NewReader(bfile))
	if err != nil && !errors.Is(err, render.ErrNormalMismatch) && !errors.Is(err, render.ErrDegenerate) {
		t.Fatal(err)
	}
	if len(got) != len(model) {
		t.Fatalf("read %d triangles, wrote %d", len(got), len(model))
	}
	for i := range got {
		for j := range got[i] {
			if d := r3.Norm(r3.Sub(got[i][j], model[i][j])); d > 1e-6 {
				t.Fatalf("triangle %d vertex %d moved %g", i, j, d)
			}
		}
	}
}

func TestReadSTLErrors(t *testing.T) {
	var zeroCount [84]byte
	var oneTriangle [84 + 20]byte
	binary.LittleEndian.PutUint32(oneTriangle[80:], 1)
	nan := make([]byte, 84+50)
	binary.LittleEndian.PutUint32(nan[80:], 1)
	binary.LittleEndian.PutUint32(nan[84:], math.Float32bits(float32(math.NaN())))
	for name, data := range map[string][]byte{
		"empty":     nil,
		"short":     make([]byte, 40),
		"zeroCount": zeroCount[:],
		"truncated": oneTriangle[:],
		"nan":       nan,
	} {
		if _, err := render.ReadSTL(bytes.NewReader(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if err := render.WriteSTL(&bytes.Buffer{}, nil); err == nil {
		t.Error("expected error writing empty model")
	}
}

func TestSavePreview(t *testing.T) {
	dir := t.TempDir()
	stlName := filepath.Join(dir, "cyl.stl")
	pngName := filepath.Join(dir, "cyl.png")
	if err := render.CreateSTL(stlName, render.NewOctreeRenderer(sdf.Cylinder(2, 1), 16)); err != nil {
		t.Fatal(err)
	}
	view := render.DefaultView()
	view.Width, view.Height = 64, 48
	if err := render.SavePreview(stlName, pngName, view); err != nil {
		t.Fatal(err)
	}
	fp, err := os.Open(pngName)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	cfg, err := png.DecodeConfig(fp)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 64 || cfg.Height != 48 {
		t.Errorf("preview is %dx%d", cfg.Width, cfg.Height)
	}

	view.Far = view.Near
	if err := render.SavePreview(stlName, pngName, view); err == nil {
		t.Error("expected error for empty depth range")
	}
}
