package analysis

import (
	"math"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/config"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/kernel"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/parser"
)

// newKernel builds a one ratio, 1x1 refractive index kernel with one
// scattering element.
func newKernel(sizes, ext, abs, angles []float64, f11 func(x, a int) float64) *kernel.Kernel {
	k := &kernel.Kernel{
		Name:     "unit",
		RatioIDs: []string{"100"},
		Ratios:   []float64{1},
		MR:       []float64{1.5},
		MI:       []float64{0.001},
		Sizes:    sizes,
		X:        sizes,
		Angles:   angles,
		Elements: []string{"11"},
	}
	s := k.Shape()
	k.Ext = s.NewScalar()
	k.Abs = s.NewScalar()
	k.Scama = s.NewMatrix()
	for xi := range sizes {
		k.Ext.Set(ext[xi], 0, 0, 0, xi)
		k.Abs.Set(abs[xi], 0, 0, 0, xi)
		for ai := range angles {
			k.Scama.Set(f11(xi, ai), 0, 0, 0, xi, 0, ai)
		}
	}
	return k
}

func flat(a *sparse.DenseArray) []float64 { return a.Elements }

func TestDeriveScattering(t *testing.T) {
	k := newKernel([]float64{1, 2}, []float64{1.0, 2.0}, []float64{0.1, 0.2}, []float64{0, 90, 180},
		func(x, a int) float64 { return 1 })
	d, err := Derive(k, Options{BinScale: config.DefaultBinScale, BackscatterAngle: 180})
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.9, 1.8}, flat(d.Sca), 1e-15)
	for i := range d.Sca.Elements {
		assert.Equal(t, k.Ext.Elements[i]-k.Abs.Elements[i], d.Sca.Elements[i])
	}
}

func TestDeriveEfficienciesAndCrossSections(t *testing.T) {
	sizes := []float64{0.5, 2}
	ext := []float64{3, 5}
	abs := []float64{1, 0.5}
	k := newKernel(sizes, ext, abs, []float64{0, 90, 180}, func(x, a int) float64 { return float64(1 + a + x) })
	const scale = 2.5
	d, err := Derive(k, Options{BinScale: scale, BackscatterAngle: 180})
	require.NoError(t, err)

	for xi, size := range sizes {
		vol := 4. / 3. * size
		area := math.Pi * (size * size)
		sca := ext[xi] - abs[xi]
		qsca := sca * vol * scale
		qext := ext[xi] * vol * scale
		qabs := abs[xi] * vol * scale

		assert.Equal(t, qsca, d.QSca.Get(0, 0, 0, xi))
		assert.Equal(t, qext, d.QExt.Get(0, 0, 0, xi))
		assert.Equal(t, qabs, d.QAbs.Get(0, 0, 0, xi))
		assert.Equal(t, qsca*area, d.CSca.Get(0, 0, 0, xi))
		assert.Equal(t, qext*area, d.CExt.Get(0, 0, 0, xi))
		assert.Equal(t, qabs*area, d.CAbs.Get(0, 0, 0, xi))

		f11back := float64(1 + 2 + xi)
		assert.Equal(t, f11back/sca*qsca, d.QB.Get(0, 0, 0, xi))
		assert.True(t, math.IsNaN(d.LidarRatio.Get(0, 0, 0, xi)))
	}
	assert.Equal(t, scale, d.BinScale)
}

func TestDeriveCrossSectionSquaresSizeFirst(t *testing.T) {
	// At these sizes (π·s)·s and π·(s·s) round differently.
	sizes := []float64{0.01, 0.03}
	k := newKernel(sizes, []float64{1, 1}, []float64{0.25, 0.25}, []float64{0, 180}, func(x, a int) float64 { return 1 })
	d, err := Derive(k, Options{BinScale: 1, BackscatterAngle: 180})
	require.NoError(t, err)

	s := sizes[0]
	require.NotEqual(t, math.Pi*s*s, math.Pi*(s*s))
	for xi, size := range sizes {
		area := math.Pi * (size * size)
		assert.Equal(t, d.QExt.Get(0, 0, 0, xi)*area, d.CExt.Get(0, 0, 0, xi))
		assert.Equal(t, d.QAbs.Get(0, 0, 0, xi)*area, d.CAbs.Get(0, 0, 0, xi))
		assert.Equal(t, d.QSca.Get(0, 0, 0, xi)*area, d.CSca.Get(0, 0, 0, xi))
	}
}

func TestDeriveAsymmetry(t *testing.T) {
	angles := make([]float64, 181)
	for i := range angles {
		angles[i] = float64(i)
	}
	hg := func(g float64) func(x, a int) float64 {
		return func(x, a int) float64 {
			mu := math.Cos(angles[a] * math.Pi / 180)
			return (1 - g*g) / math.Pow(1+g*g-2*g*mu, 1.5)
		}
	}

	t.Run("isotropic", func(t *testing.T) {
		k := newKernel([]float64{1}, []float64{1}, []float64{0}, angles, func(x, a int) float64 { return 1 })
		d, err := Derive(k, Options{BinScale: 1, BackscatterAngle: 180})
		require.NoError(t, err)
		assert.InDelta(t, 0, d.G.Get(0, 0, 0, 0), 1e-12)
	})

	for _, g := range []float64{-0.5, 0.3, 0.7, 0.9} {
		k := newKernel([]float64{1}, []float64{1}, []float64{0}, angles, hg(g))
		d, err := Derive(k, Options{BinScale: 1, BackscatterAngle: 180})
		require.NoError(t, err)
		got := d.G.Get(0, 0, 0, 0)
		assert.GreaterOrEqual(t, got, -1.0)
		assert.LessOrEqual(t, got, 1.0)
		assert.InDelta(t, g, got, 0.05, "Henyey-Greenstein g=%g", g)
	}
}

func TestDeriveAsymmetryIgnoresScale(t *testing.T) {
	angles := []float64{0, 60, 120, 180}
	base := newKernel([]float64{1}, []float64{1}, []float64{0}, angles, func(x, a int) float64 { return float64(4 - a) })
	scaled := newKernel([]float64{1}, []float64{1}, []float64{0}, angles, func(x, a int) float64 { return 8 * float64(4-a) })
	d1, err := Derive(base, Options{BinScale: 1, BackscatterAngle: 180})
	require.NoError(t, err)
	d2, err := Derive(scaled, Options{BinScale: 1, BackscatterAngle: 180})
	require.NoError(t, err)
	assert.InDelta(t, d1.G.Get(0, 0, 0, 0), d2.G.Get(0, 0, 0, 0), 1e-14)
}

func TestDeriveRejects(t *testing.T) {
	one := func(x, a int) float64 { return 1 }

	t.Run("backscatter angle", func(t *testing.T) {
		k := newKernel([]float64{1}, []float64{1}, []float64{0}, []float64{0, 90, 170}, one)
		_, err := Derive(k, Options{BinScale: 1, BackscatterAngle: 180})
		var ie *parser.InconsistencyError
		require.ErrorAs(t, err, &ie)
	})
	t.Run("reversed angles", func(t *testing.T) {
		k := newKernel([]float64{1}, []float64{1}, []float64{0}, []float64{180, 90, 0}, one)
		_, err := Derive(k, Options{BinScale: 1, BackscatterAngle: 0})
		var ie *parser.InconsistencyError
		require.ErrorAs(t, err, &ie)
	})
	t.Run("bin scale", func(t *testing.T) {
		k := newKernel([]float64{1}, []float64{1}, []float64{0}, []float64{0, 180}, one)
		_, err := Derive(k, Options{BinScale: 0, BackscatterAngle: 180})
		require.Error(t, err)
	})
	t.Run("shape", func(t *testing.T) {
		k := newKernel([]float64{1}, []float64{1}, []float64{0}, []float64{0, 180}, one)
		k.Ext = sparse.ZerosDense(1, 1, 1, 2)
		_, err := Derive(k, Options{BinScale: 1, BackscatterAngle: 180})
		require.Error(t, err)
	})
}
