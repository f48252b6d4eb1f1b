package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/kernel"
)

// Derive computes the bulk optical properties of k.
//
// The q quantities scale the kernel values by (4/3)·size and the bin scale;
// the c quantities multiply those by π·size². Backscatter uses the first
// scattering matrix element at the last angle. The asymmetry parameter
// normalises that element by Σ f11·sinθ and sums cosθ·sinθ·f11n; dθ is left
// out of both sums since it cancels.
func Derive(k *kernel.Kernel, opts Options) (*Derived, error) {
	s := k.Shape()
	if err := kernel.CheckShape("ext", k.Ext, s.Scalar()); err != nil {
		return nil, err
	}
	if err := kernel.CheckShape("abs", k.Abs, s.Scalar()); err != nil {
		return nil, err
	}
	if err := kernel.CheckShape("scama", k.Scama, s.Matrix()); err != nil {
		return nil, err
	}
	if s.Elements == 0 {
		return nil, fmt.Errorf("derive: no scattering matrix elements")
	}
	if err := CheckBackscatterAngles(k.Angles, opts.BackscatterAngle); err != nil {
		return nil, err
	}
	if !(opts.BinScale > 0) {
		return nil, fmt.Errorf("derive: bin scale %g must be > 0", opts.BinScale)
	}

	d := &Derived{
		Sca:        s.NewScalar(),
		QExt:       s.NewScalar(),
		QAbs:       s.NewScalar(),
		QSca:       s.NewScalar(),
		CExt:       s.NewScalar(),
		CAbs:       s.NewScalar(),
		CSca:       s.NewScalar(),
		QB:         s.NewScalar(),
		G:          s.NewScalar(),
		LidarRatio: s.NewScalar(),
		BinScale:   opts.BinScale,
	}
	floats.SubTo(d.Sca.Elements, k.Ext.Elements, k.Abs.Elements)
	for i := range d.LidarRatio.Elements {
		d.LidarRatio.Elements[i] = math.NaN()
	}

	volconv := make([]float64, s.Sizes)
	areaconv := make([]float64, s.Sizes)
	for i, size := range k.Sizes {
		volconv[i] = 4. / 3. * size
		areaconv[i] = math.Pi * (size * size)
	}

	rad := make([]float64, s.Angles)
	sin := make([]float64, s.Angles)
	cosSin := make([]float64, s.Angles)
	for i, a := range k.Angles {
		rad[i] = a * (math.Pi / 180)
		sin[i] = math.Sin(rad[i])
		cosSin[i] = math.Cos(rad[i]) * sin[i]
	}
	back := s.Angles - 1
	f11 := make([]float64, s.Angles)

	for ri := 0; ri < s.Ratios; ri++ {
		for mri := 0; mri < s.MR; mri++ {
			for mii := 0; mii < s.MI; mii++ {
				for xi := 0; xi < s.Sizes; xi++ {
					ext := k.Ext.Get(ri, mri, mii, xi)
					abs := k.Abs.Get(ri, mri, mii, xi)
					sca := d.Sca.Get(ri, mri, mii, xi)

					qsca := sca * volconv[xi] * opts.BinScale
					qext := ext * volconv[xi] * opts.BinScale
					qabs := abs * volconv[xi] * opts.BinScale
					d.QSca.Set(qsca, ri, mri, mii, xi)
					d.QExt.Set(qext, ri, mri, mii, xi)
					d.QAbs.Set(qabs, ri, mri, mii, xi)
					d.CSca.Set(qsca*areaconv[xi], ri, mri, mii, xi)
					d.CExt.Set(qext*areaconv[xi], ri, mri, mii, xi)
					d.CAbs.Set(qabs*areaconv[xi], ri, mri, mii, xi)

					for ai := range f11 {
						f11[ai] = k.Scama.Get(ri, mri, mii, xi, 0, ai)
					}
					pBck := f11[back] / sca
					d.QB.Set(pBck*qsca, ri, mri, mii, xi)
					d.G.Set(asymmetry(f11, sin, cosSin), ri, mri, mii, xi)
				}
			}
		}
	}
	return d, nil
}

// asymmetry returns Σ cosθ·sinθ·f11/norm with norm = Σ f11·sinθ.
func asymmetry(f11, sin, cosSin []float64) float64 {
	var norm float64
	for i, v := range f11 {
		norm += v * sin[i]
	}
	var g float64
	for i, v := range f11 {
		g += cosSin[i] * (v / norm)
	}
	return g
}
