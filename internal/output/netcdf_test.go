package output

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/analysis"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/kernel"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/kerneltest"
)

func buildKernel(t *testing.T) (*kernel.Kernel, *analysis.Derived) {
	t.Helper()
	dir := t.TempDir()
	run := kerneltest.Default()
	require.NoError(t, run.Write(dir))
	cfg := run.Config(dir)

	k, err := kernel.NewAggregator(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	d, err := analysis.Derive(k, analysis.Options{BinScale: cfg.BinScale.Value, BackscatterAngle: cfg.BackscatterAngle})
	require.NoError(t, err)
	return k, d
}

func sameBits(t *testing.T, name string, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want), name)
	for i := range want {
		if math.Float64bits(want[i]) != math.Float64bits(got[i]) {
			t.Fatalf("%s[%d]: want %v, got %v", name, i, want[i], got[i])
		}
	}
}

func TestFromKernelLayout(t *testing.T) {
	k, d := buildKernel(t)
	ds, err := FromKernel(k, d, Meta{ConversionID: "abc"})
	require.NoError(t, err)

	var names []string
	for _, dim := range ds.Dims {
		names = append(names, dim.Name)
	}
	assert.Equal(t, []string{DimRatio, DimMR, DimMI, DimSize, DimAngle, DimElement}, names)

	scama := ds.Var("scama")
	require.NotNil(t, scama)
	assert.Equal(t, matrixDims, scama.Dims)
	for _, name := range []string{"ext", "abs", "sca", "qext", "qabs", "qsca", "cext", "cabs", "csca", "qb", "lidar_ratio", "g"} {
		v := ds.Var(name)
		require.NotNil(t, v, name)
		assert.Equal(t, scalarDims, v.Dims, name)
	}
	assert.Equal(t, []float64{1, 1.5}, ds.Var("ratio").Data)
	assert.Equal(t, k.Sizes, ds.Var("size").Data)
	assert.Equal(t, "test", ds.StringAttr("kernel_name"))
	assert.Equal(t, "11,12", ds.StringAttr("scattering_elements"))
	assert.Equal(t, "abc", ds.StringAttr("conversion_id"))
	assert.Len(t, ds.StringAttr("source_blake3"), 64)
}

func TestDatasetRejectsBadShapes(t *testing.T) {
	ds := NewDataset()
	require.NoError(t, ds.AddDim("a", 2))
	assert.Error(t, ds.AddDim("a", 3))
	assert.Error(t, ds.AddDim("b", 0))

	_, err := ds.AddVar("v", []string{"a"}, []float64{1}, nil)
	assert.Error(t, err)
	_, err = ds.AddVar("v", []string{"missing"}, []float64{1}, nil)
	assert.Error(t, err)
	_, err = ds.AddVar("v", []string{"a"}, []float64{1, 2}, nil)
	require.NoError(t, err)
	_, err = ds.AddVar("v", []string{"a"}, []float64{1, 2}, nil)
	assert.Error(t, err)
}

func TestNetCDFRoundTrip(t *testing.T) {
	k, d := buildKernel(t)
	ds, err := FromKernel(k, d, Meta{ConversionID: "run-1"})
	require.NoError(t, err)

	dir := t.TempDir()
	sink := &NetCDF{Dir: dir, Name: k.Name, Compress: true}
	path, err := sink.Write(ds)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "kernel-test.nc"), path)

	for _, p := range []string{path, path + ".xz"} {
		t.Run(filepath.Base(p), func(t *testing.T) {
			got, err := ReadFile(p)
			require.NoError(t, err)

			assert.Equal(t, ds.Dims, got.Dims)
			require.Len(t, got.Vars, len(ds.Vars))
			for i, v := range ds.Vars {
				assert.Equal(t, v.Name, got.Vars[i].Name)
				assert.Equal(t, v.Dims, got.Vars[i].Dims)
				assert.Equal(t, v.Attrs, got.Vars[i].Attrs, v.Name)
				sameBits(t, v.Name, v.Data, got.Vars[i].Data)
			}
			assert.Equal(t, ds.Attrs, got.Attrs)
		})
	}
}

func TestToKernel(t *testing.T) {
	k, d := buildKernel(t)
	ds, err := FromKernel(k, d, Meta{})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "k.nc")
	require.NoError(t, WriteFile(path, ds))

	read, err := ReadFile(path)
	require.NoError(t, err)
	k2, d2, err := ToKernel(read)
	require.NoError(t, err)

	assert.Equal(t, k.Name, k2.Name)
	assert.Equal(t, k.RatioIDs, k2.RatioIDs)
	assert.Equal(t, k.Elements, k2.Elements)
	assert.Equal(t, k.Wavelength, k2.Wavelength)
	assert.Equal(t, k.Digest, k2.Digest)
	assert.Equal(t, k.Angles, k2.Angles)
	assert.Equal(t, k.X, k2.X)
	sameBits(t, "scama", k.Scama.Elements, k2.Scama.Elements)
	sameBits(t, "g", d.G.Elements, d2.G.Elements)
	sameBits(t, "lidar_ratio", d.LidarRatio.Elements, d2.LidarRatio.Elements)
	assert.Equal(t, d.BinScale, d2.BinScale)
}

func TestReadOnlyBuffer(t *testing.T) {
	var rw cdf.ReaderWriterAt = readOnlyBuffer{bytes.NewReader([]byte("CDF\x01"))}
	buf := make([]byte, 3)
	n, err := rw.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "CDF", string(buf[:n]))

	_, err = rw.WriteAt([]byte("x"), 0)
	require.ErrorIs(t, err, errReadOnly)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.nc"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteFileRejectsAttrType(t *testing.T) {
	ds := NewDataset()
	require.NoError(t, ds.AddDim("a", 1))
	ds.Attrs["bad"] = 3
	err := WriteFile(filepath.Join(t.TempDir(), "bad.nc"), ds)
	assert.Error(t, err)
}
