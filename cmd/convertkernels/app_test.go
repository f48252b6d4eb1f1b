package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/config"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/kerneltest"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/output"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/parser"
)

func fixture(t *testing.T) (kerneltest.Run, config.RunConfig) {
	t.Helper()
	dir := t.TempDir()
	run := kerneltest.Default()
	require.NoError(t, run.Write(dir))
	return run, run.Config(dir)
}

func TestConvertEndToEnd(t *testing.T) {
	run, cfg := fixture(t)
	dest := t.TempDir()
	app := NewApp(zaptest.NewLogger(t))

	res, err := app.Convert(context.Background(), cfg, ConvertOptions{Dest: dest, Workers: 2, Compress: true, Report: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "kernel-test.nc"), res.Path)
	assert.NotEmpty(t, res.ConversionID)
	assert.FileExists(t, res.Path+".xz")
	assert.FileExists(t, res.ReportPath)

	ds, err := output.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, res.ConversionID, ds.StringAttr("conversion_id"))
	scale, ok := ds.FloatAttr("bin_scale")
	require.True(t, ok)
	assert.Equal(t, config.DefaultBinScale, scale)

	ext := ds.Var("ext")
	require.NotNil(t, ext)
	shape, err := ds.Shape(ext.Dims)
	require.NoError(t, err)
	assert.Equal(t, []int{len(run.Ratios), len(run.MR), len(run.MI), len(run.Sizes)}, shape)
	// ratio 1, mr 0, mi 1, size 2
	idx := ((1*len(run.MR)+0)*len(run.MI)+1)*len(run.Sizes) + 2
	assert.Equal(t, run.ExtAt(1, 0, 1, 2), ext.Data[idx])
}

func TestConvertFiles(t *testing.T) {
	_, cfg := fixture(t)
	runFile := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, config.Save(runFile, cfg))

	dest := t.TempDir()
	results, err := NewApp(nil).ConvertFiles(context.Background(), []string{runFile}, ConvertOptions{Dest: dest})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NoFileExists(t, results[0].Path+".xz")

	_, err = NewApp(nil).ConvertFiles(context.Background(), []string{filepath.Join(dest, "missing.yaml")}, ConvertOptions{Dest: dest})
	require.Error(t, err)
}

func TestConvertReportsInvalidInput(t *testing.T) {
	_, cfg := fixture(t)
	app := NewApp(nil)

	bad := cfg
	bad.Ratios = nil
	_, err := app.Convert(context.Background(), bad, ConvertOptions{Dest: t.TempDir()})
	require.Error(t, err)

	missing := cfg
	missing.Ratios = append(missing.Ratios, "300")
	_, err = app.Convert(context.Background(), missing, ConvertOptions{Dest: t.TempDir()})
	var de *parser.DiscoveryError
	require.ErrorAs(t, err, &de)
}

func TestInspectAndReport(t *testing.T) {
	_, cfg := fixture(t)
	dest := t.TempDir()
	app := NewApp(nil)
	res, err := app.Convert(context.Background(), cfg, ConvertOptions{Dest: dest, Compress: true})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, app.Inspect(&buf, res.Path+".xz"))
	out := buf.String()
	assert.Contains(t, out, "scattering_element")
	assert.Contains(t, out, "scama")
	assert.Contains(t, out, "kernel_name: test")
	assert.Contains(t, out, res.ConversionID)

	require.NoError(t, app.Report(res.Path, ""))
	info, err := os.Stat(filepath.Join(dest, "kernel-test.pdf"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
