package report

import (
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/analysis"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/kernel"
)

// Summary describes the finite values of one quantity.
type Summary struct {
	Name         string
	Count, NaN   int
	Min, Max     float64
	Mean, StdDev float64
}

// Summarize returns statistics for every scalar quantity of a converted kernel.
func Summarize(k *kernel.Kernel, d *analysis.Derived) []Summary {
	quantities := []struct {
		name string
		arr  *sparse.DenseArray
	}{
		{"ext", k.Ext}, {"abs", k.Abs}, {"sca", d.Sca},
		{"qext", d.QExt}, {"qabs", d.QAbs}, {"qsca", d.QSca},
		{"cext", d.CExt}, {"cabs", d.CAbs}, {"csca", d.CSca},
		{"qb", d.QB}, {"g", d.G}, {"lidar_ratio", d.LidarRatio},
	}
	out := make([]Summary, 0, len(quantities))
	for _, q := range quantities {
		if q.arr == nil {
			continue
		}
		out = append(out, SummarizeValues(q.name, q.arr.Elements))
	}
	return out
}

// SummarizeValues describes values, counting NaN and infinite entries apart.
func SummarizeValues(name string, values []float64) Summary {
	s := Summary{Name: name}
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			s.NaN++
			continue
		}
		finite = append(finite, v)
	}
	s.Count = len(finite)
	if s.Count == 0 {
		s.Min, s.Max, s.Mean, s.StdDev = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Min, s.Max = floats.Min(finite), floats.Max(finite)
	if s.Count == 1 {
		s.Mean = finite[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(finite, nil)
	return s
}
