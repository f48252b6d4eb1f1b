package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/config"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/parser"
)

var gridSource = parser.Source{File: "size grid"}

// GridBinScale returns mean(1/ln(x[n+1]/x[n])) over consecutive size bins.
func GridBinScale(x []float64) (float64, error) {
	if len(x) < 2 {
		return 0, parser.Inconsistent(gridSource, "bin scale needs at least two sizes, grid has %d", len(x))
	}
	inv := make([]float64, len(x)-1)
	for i := range inv {
		r := x[i+1] / x[i]
		if !(r > 0) || r == 1 {
			return 0, parser.Inconsistent(gridSource, "sizes %g and %g do not form a logarithmic bin", x[i], x[i+1])
		}
		inv[i] = 1 / math.Log(r)
	}
	return stat.Mean(inv, nil), nil
}

// ResolveBinScale checks the configured bin scale against the size
// parameters x and returns the value to use.
func ResolveBinScale(cfg config.BinScale, x []float64) (float64, error) {
	if cfg.ExpectedSizes > 0 && len(x) != cfg.ExpectedSizes {
		return 0, parser.Inconsistent(gridSource, "bin scale was set up for %d sizes, grid has %d", cfg.ExpectedSizes, len(x))
	}
	if cfg.FromGrid {
		return GridBinScale(x)
	}
	if cfg.Tolerance > 0 {
		fromGrid, err := GridBinScale(x)
		if err != nil {
			return 0, err
		}
		if rel := math.Abs(cfg.Value-fromGrid) / math.Abs(fromGrid); rel > cfg.Tolerance {
			return 0, parser.Inconsistent(gridSource, "bin scale %g differs from grid value %g by %.3g (tolerance %g)",
				cfg.Value, fromGrid, rel, cfg.Tolerance)
		}
	}
	return cfg.Value, nil
}

// CheckBackscatterAngles requires a strictly increasing angle grid ending at
// the backscatter angle, in degrees.
func CheckBackscatterAngles(angles []float64, backscatter float64) error {
	src := parser.Source{Element: parser.AngleElement}
	if len(angles) == 0 {
		return parser.Inconsistent(src, "angle grid is empty")
	}
	for i := 1; i < len(angles); i++ {
		if !(angles[i] > angles[i-1]) {
			return parser.Inconsistent(src, "angles not increasing at index %d (%g after %g)", i, angles[i], angles[i-1])
		}
	}
	if last := angles[len(angles)-1]; math.Abs(last-backscatter) > 1e-9 {
		return parser.Inconsistent(src, "last angle is %g, backscatter needs %g", last, backscatter)
	}
	return nil
}
