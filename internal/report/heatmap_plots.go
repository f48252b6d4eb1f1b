package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/analysis"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/kernel"
)

// cellGrid exposes one (size, mr) slice of a scalar quantity as a
// plotter.GridXYZ. Columns are size indices, rows real refractive indices.
type cellGrid struct {
	x, y []float64
	z    func(c, r int) float64
}

func (g cellGrid) Dims() (c, r int)   { return len(g.x), len(g.y) }
func (g cellGrid) Z(c, r int) float64 { return g.z(c, r) }
func (g cellGrid) X(c int) float64    { return g.x[c] }
func (g cellGrid) Y(r int) float64    { return g.y[r] }

// CreateAsymmetryHeatmap maps the asymmetry parameter over size parameter and
// real refractive index for one aspect ratio and imaginary index.
func CreateAsymmetryHeatmap(k *kernel.Kernel, d *analysis.Derived, ratioIdx, miIdx int) ([]byte, error) {
	if ratioIdx < 0 || ratioIdx >= len(k.Ratios) {
		return nil, fmt.Errorf("ratio index %d outside %d ratios", ratioIdx, len(k.Ratios))
	}
	if miIdx < 0 || miIdx >= len(k.MI) {
		return nil, fmt.Errorf("imaginary index %d outside %d values", miIdx, len(k.MI))
	}
	if len(k.X) < 2 || len(k.MR) < 2 {
		// HeatMap needs at least two coordinates per axis to size its cells.
		return nil, fmt.Errorf("asymmetry heatmap needs at least 2 sizes and 2 real indices, have %d and %d", len(k.X), len(k.MR))
	}

	grid := cellGrid{
		x: k.X,
		y: k.MR,
		z: func(c, r int) float64 { return d.G.Get(ratioIdx, r, miIdx, c) },
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for r := range k.MR {
		for c := range k.X {
			v := grid.Z(c, r)
			if math.IsNaN(v) {
				continue
			}
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) {
		lo, hi = -1, 1
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Asymmetry parameter, ratio %g, mi = %g", k.Ratios[ratioIdx], k.MI[miIdx])
	p.X.Label.Text = "Size parameter x"
	p.Y.Label.Text = "Real refractive index"

	hm := plotter.NewHeatMap(grid, palette.Heat(16, 1))
	hm.Min, hm.Max = lo, hi
	hm.NaN = color.Gray{Y: 200}
	p.Add(hm)

	return render(p, 800, 500)
}
