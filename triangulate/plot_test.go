package triangulate_test

import (
	"bytes"
	"image/color"
	"testing"

	gibbon "github.com/lyq911/GIBBON"
	"github.com/lyq911/GIBBON/triangulate"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/cmpimg"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

func translate(c []r2.Vec, by r2.Vec) []r2.Vec {
	out := make([]r2.Vec, len(c))
	for i, p := range c {
		out[i] = r2.Add(p, by)
	}
	return out
}

// renderAssembly draws every face outline colored by region and
// returns the encoded PNG.
func renderAssembly(t *testing.T, a *gibbon.Assembly) []byte {
	t.Helper()
	palette := []color.Color{
		color.RGBA{R: 0x46, G: 0x89, B: 0x66, A: 0xff},
		color.RGBA{R: 0x8f, G: 0x3b, B: 0x2c, A: 0xff},
	}
	p := plot.New()
	p.HideAxes()
	for i, f := range a.Faces {
		xys := make(plotter.XYs, 4)
		for k := range xys {
			v := a.Vertices[f[k%3]]
			xys[k].X, xys[k].Y = v.X, v.Y
		}
		ln, err := plotter.NewLine(xys)
		if err != nil {
			t.Fatal(err)
		}
		ln.Color = palette[a.RegionID[i]%len(palette)]
		p.Add(ln)
	}
	w, err := p.WriterTo(12*vg.Centimeter, 6*vg.Centimeter, "png")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// Meshing two plates welded along x=2, both serially and with the
// worker pool, must paint pixel-identical figures.
func TestAssemblyPlotsIdenticallyAcrossWorkers(t *testing.T) {
	regions := []gibbon.Region{
		{
			Outer: sq(0, 0, 2),
			Holes: [][]r2.Vec{translate(gibbon.Nagon(12, 0.5), r2.Vec{X: 1, Y: 1})},
		},
		{Outer: sq(2, 0, 2)},
	}
	var m triangulate.Mesher
	serial, err := gibbon.AssembleRegions(regions, 0.25, m, gibbon.WithResampling(true), gibbon.WithWorkers(1))
	assert.NoError(t, err)
	pooled, err := gibbon.AssembleRegions(regions, 0.25, m, gibbon.WithResampling(true), gibbon.WithWorkers(4))
	assert.NoError(t, err)
	assert.Equal(t, serial.Vertices, pooled.Vertices)

	eq, err := cmpimg.Equal("png", renderAssembly(t, serial), renderAssembly(t, pooled))
	assert.NoError(t, err)
	assert.True(t, eq, "figures differ between worker counts")
}
