package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/analysis"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/kernel"
)

var plotColors = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 255},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 255},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 255},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 255},
	color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 255},
	color.RGBA{R: 0x8c, G: 0x56, B: 0x4b, A: 255},
}

// Cell selects one refractive index of a kernel.
type Cell struct {
	MR, MI int
}

func (c Cell) check(k *kernel.Kernel) error {
	if c.MR < 0 || c.MR >= len(k.MR) || c.MI < 0 || c.MI >= len(k.MI) {
		return fmt.Errorf("refractive index cell (%d, %d) outside %dx%d grid", c.MR, c.MI, len(k.MR), len(k.MI))
	}
	return nil
}

// CreateEfficiencyPlot draws qext (solid) and qsca (dashed) against the size
// parameter, one colour per aspect ratio.
func CreateEfficiencyPlot(k *kernel.Kernel, d *analysis.Derived, c Cell) ([]byte, error) {
	if err := c.check(k); err != nil {
		return nil, err
	}
	if len(k.X) == 0 {
		return nil, fmt.Errorf("no sizes to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Efficiencies, m = %g + %gi", k.MR[c.MR], k.MI[c.MI])
	p.X.Label.Text = "Size parameter x"
	p.Y.Label.Text = "Q"
	p.Add(plotter.NewGrid())

	for ri, ratio := range k.Ratios {
		col := plotColors[ri%len(plotColors)]
		for _, q := range []struct {
			name   string
			values func(xi int) float64
			dashed bool
		}{
			{"qext", func(xi int) float64 { return d.QExt.Get(ri, c.MR, c.MI, xi) }, false},
			{"qsca", func(xi int) float64 { return d.QSca.Get(ri, c.MR, c.MI, xi) }, true},
		} {
			pts := make(plotter.XYs, 0, len(k.X))
			for xi, x := range k.X {
				if v := q.values(xi); !math.IsNaN(v) && !math.IsInf(v, 0) {
					pts = append(pts, plotter.XY{X: x, Y: v})
				}
			}
			if len(pts) == 0 {
				continue
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return nil, fmt.Errorf("failed to create %s line for ratio %g: %w", q.name, ratio, err)
			}
			line.Color = col
			line.LineStyle.Width = vg.Points(1.5)
			if q.dashed {
				line.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
			}
			p.Add(line)
			p.Legend.Add(fmt.Sprintf("%s ratio %g", q.name, ratio), line)
		}
	}
	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(-10)
	return render(p, 800, 400)
}

// CreatePhaseFunctionPlot draws the first scattering matrix element against
// angle for every aspect ratio at one refractive index and size.
func CreatePhaseFunctionPlot(k *kernel.Kernel, c Cell, sizeIdx int) ([]byte, error) {
	if err := c.check(k); err != nil {
		return nil, err
	}
	if sizeIdx < 0 || sizeIdx >= len(k.X) {
		return nil, fmt.Errorf("size index %d outside %d sizes", sizeIdx, len(k.X))
	}
	if len(k.Elements) == 0 || len(k.Angles) == 0 {
		return nil, fmt.Errorf("no scattering matrix to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s element, x = %.3g", k.Elements[0], k.X[sizeIdx])
	p.X.Label.Text = "Scattering angle (deg)"
	p.Y.Label.Text = k.Elements[0]
	p.X.Min, p.X.Max = k.Angles[0], k.Angles[len(k.Angles)-1]
	p.Add(plotter.NewGrid())

	positive := true
	for ri, ratio := range k.Ratios {
		pts := make(plotter.XYs, len(k.Angles))
		for ai, a := range k.Angles {
			v := k.Scama.Get(ri, c.MR, c.MI, sizeIdx, 0, ai)
			if !(v > 0) {
				positive = false
			}
			pts[ai] = plotter.XY{X: a, Y: v}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to create phase function line for ratio %g: %w", ratio, err)
		}
		line.Color = plotColors[ri%len(plotColors)]
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("ratio %g", ratio), line)
	}
	if positive {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	p.Legend.Top = true
	return render(p, 800, 400)
}

func render(p *plot.Plot, w, h float64) ([]byte, error) {
	writer, err := p.WriterTo(vg.Points(w), vg.Points(h), "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %w", err)
	}
	return buf.Bytes(), nil
}
