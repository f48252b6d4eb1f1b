package output

import (
	"fmt"
	"strings"

	"github.com/ctessum/sparse"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/analysis"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/kernel"
)

// Dimension names of a kernel file.
const (
	DimRatio   = "ratio"
	DimMR      = "mr"
	DimMI      = "mi"
	DimSize    = "size"
	DimAngle   = "angle"
	DimElement = "scattering_element"
)

var (
	scalarDims = []string{DimRatio, DimMR, DimMI, DimSize}
	matrixDims = []string{DimRatio, DimMR, DimMI, DimSize, DimElement, DimAngle}
)

// Meta is run provenance stored as global attributes.
type Meta struct {
	ConversionID string
}

type scalarVar struct {
	name, long, units string
	get               func(k *kernel.Kernel, d *analysis.Derived) *sparse.DenseArray
}

// scalarVars lists the (ratio, mr, mi, size) variables in file order.
var scalarVars = []scalarVar{
	{"ext", "extinction kernel", "", func(k *kernel.Kernel, d *analysis.Derived) *sparse.DenseArray { return k.Ext }},
	{"abs", "absorption kernel", "", func(k *kernel.Kernel, d *analysis.Derived) *sparse.DenseArray { return k.Abs }},
	{"sca", "scattering kernel", "", func(k *kernel.Kernel, d *analysis.Derived) *sparse.DenseArray { return d.Sca }},
	{"qext", "extinction efficiency", "1", func(k *kernel.Kernel, d *analysis.Derived) *sparse.DenseArray { return d.QExt }},
	{"qabs", "absorption efficiency", "1", func(k *kernel.Kernel, d *analysis.Derived) *sparse.DenseArray { return d.QAbs }},
	{"qsca", "scattering efficiency", "1", func(k *kernel.Kernel, d *analysis.Derived) *sparse.DenseArray { return d.QSca }},
	{"cext", "extinction cross section", "size^2", func(k *kernel.Kernel, d *analysis.Derived) *sparse.DenseArray { return d.CExt }},
	{"cabs", "absorption cross section", "size^2", func(k *kernel.Kernel, d *analysis.Derived) *sparse.DenseArray { return d.CAbs }},
	{"csca", "scattering cross section", "size^2", func(k *kernel.Kernel, d *analysis.Derived) *sparse.DenseArray { return d.CSca }},
	{"qb", "backscatter efficiency", "1", func(k *kernel.Kernel, d *analysis.Derived) *sparse.DenseArray { return d.QB }},
	{"lidar_ratio", "lidar ratio", "sr", func(k *kernel.Kernel, d *analysis.Derived) *sparse.DenseArray { return d.LidarRatio }},
	{"g", "asymmetry parameter", "1", func(k *kernel.Kernel, d *analysis.Derived) *sparse.DenseArray { return d.G }},
}

// FromKernel lays out a merged kernel and its derived quantities as a Dataset.
func FromKernel(k *kernel.Kernel, d *analysis.Derived, meta Meta) (*Dataset, error) {
	s := k.Shape()
	ds := NewDataset()
	for _, dim := range []Dimension{
		{DimRatio, s.Ratios}, {DimMR, s.MR}, {DimMI, s.MI},
		{DimSize, s.Sizes}, {DimAngle, s.Angles}, {DimElement, s.Elements},
	} {
		if err := ds.AddDim(dim.Name, dim.Len); err != nil {
			return nil, err
		}
	}

	coords := []struct {
		name, dim, long, units string
		data                   []float64
	}{
		{"ratio", DimRatio, "spheroid aspect ratio", "1", k.Ratios},
		{"mr", DimMR, "real refractive index", "1", k.MR},
		{"mi", DimMI, "imaginary refractive index", "1", k.MI},
		{"x", DimSize, "size parameter", "1", k.X},
		{"size", DimSize, "particle size", "", k.Sizes},
		{"angle", DimAngle, "scattering angle", "degree", k.Angles},
	}
	for _, c := range coords {
		if _, err := ds.AddVar(c.name, []string{c.dim}, c.data, varAttrs(c.long, c.units)); err != nil {
			return nil, err
		}
	}

	for _, sv := range scalarVars {
		arr := sv.get(k, d)
		if err := kernel.CheckShape(sv.name, arr, s.Scalar()); err != nil {
			return nil, fmt.Errorf("output: %w", err)
		}
		v, err := ds.AddVar(sv.name, scalarDims, arr.Elements, varAttrs(sv.long, sv.units))
		if err != nil {
			return nil, err
		}
		if sv.name == "lidar_ratio" {
			v.Attrs["comment"] = "not populated"
		}
	}
	if err := kernel.CheckShape("scama", k.Scama, s.Matrix()); err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	if _, err := ds.AddVar("scama", matrixDims, k.Scama.Elements, varAttrs("scattering matrix elements", "")); err != nil {
		return nil, err
	}

	ds.Attrs["title"] = "light scattering kernel"
	ds.Attrs["kernel_name"] = k.Name
	ds.Attrs["ratio_ids"] = strings.Join(k.RatioIDs, ",")
	ds.Attrs["scattering_elements"] = strings.Join(k.Elements, ",")
	ds.Attrs["wavelength"] = []float64{k.Wavelength}
	ds.Attrs["bin_scale"] = []float64{d.BinScale}
	if k.Digest != "" {
		ds.Attrs["source_blake3"] = k.Digest
	}
	if meta.ConversionID != "" {
		ds.Attrs["conversion_id"] = meta.ConversionID
	}
	return ds, nil
}

func varAttrs(long, units string) map[string]any {
	attrs := map[string]any{"long_name": long}
	if units != "" {
		attrs["units"] = units
	}
	return attrs
}

// ToKernel rebuilds the kernel and derived quantities from a Dataset written
// by FromKernel.
func ToKernel(ds *Dataset) (*kernel.Kernel, *analysis.Derived, error) {
	k := &kernel.Kernel{
		Name:     ds.StringAttr("kernel_name"),
		RatioIDs: splitList(ds.StringAttr("ratio_ids")),
		Elements: splitList(ds.StringAttr("scattering_elements")),
		Digest:   ds.StringAttr("source_blake3"),
	}
	k.Wavelength, _ = ds.FloatAttr("wavelength")

	coords := []struct {
		name string
		dst  *[]float64
	}{
		{"ratio", &k.Ratios}, {"mr", &k.MR}, {"mi", &k.MI},
		{"x", &k.X}, {"size", &k.Sizes}, {"angle", &k.Angles},
	}
	for _, c := range coords {
		v := ds.Var(c.name)
		if v == nil {
			return nil, nil, fmt.Errorf("output: variable %q missing", c.name)
		}
		*c.dst = v.Data
	}
	if el, ok := ds.Dim(DimElement); ok && len(k.Elements) != el.Len {
		k.Elements = make([]string, el.Len)
		for i := range k.Elements {
			k.Elements[i] = fmt.Sprintf("%d", i)
		}
	}

	s := k.Shape()
	d := &analysis.Derived{}
	d.BinScale, _ = ds.FloatAttr("bin_scale")
	targets := map[string]**sparse.DenseArray{
		"ext": &k.Ext, "abs": &k.Abs, "sca": &d.Sca,
		"qext": &d.QExt, "qabs": &d.QAbs, "qsca": &d.QSca,
		"cext": &d.CExt, "cabs": &d.CAbs, "csca": &d.CSca,
		"qb": &d.QB, "lidar_ratio": &d.LidarRatio, "g": &d.G,
	}
	for _, sv := range scalarVars {
		arr, err := dense(ds, sv.name, s.Scalar())
		if err != nil {
			return nil, nil, err
		}
		*targets[sv.name] = arr
	}
	scama, err := dense(ds, "scama", s.Matrix())
	if err != nil {
		return nil, nil, err
	}
	k.Scama = scama
	return k, d, nil
}

func dense(ds *Dataset, name string, shape []int) (*sparse.DenseArray, error) {
	v := ds.Var(name)
	if v == nil {
		return nil, fmt.Errorf("output: variable %q missing", name)
	}
	arr := sparse.ZerosDense(shape...)
	if len(arr.Elements) != len(v.Data) {
		return nil, fmt.Errorf("output: variable %q has %d values, want %d", name, len(v.Data), len(arr.Elements))
	}
	copy(arr.Elements, v.Data)
	return arr, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
