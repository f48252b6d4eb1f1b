package report

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/analysis"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/kernel"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/kerneltest"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func converted(t *testing.T) (*kernel.Kernel, *analysis.Derived) {
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

func TestPlots(t *testing.T) {
	k, d := converted(t)

	img, err := CreateEfficiencyPlot(k, d, Cell{MR: 1, MI: 0})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	img, err = CreatePhaseFunctionPlot(k, Cell{}, 1)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	img, err = CreateAsymmetryHeatmap(k, d, 1, 1)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
}

func TestPlotsRejectIndices(t *testing.T) {
	k, d := converted(t)

	_, err := CreateEfficiencyPlot(k, d, Cell{MR: 5})
	assert.Error(t, err)
	_, err = CreatePhaseFunctionPlot(k, Cell{}, len(k.X))
	assert.Error(t, err)
	_, err = CreateAsymmetryHeatmap(k, d, len(k.Ratios), 0)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	s := SummarizeValues("v", []float64{1, 2, 3, math.NaN(), math.Inf(1)})
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 2, s.NaN)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
	assert.InDelta(t, 2.0, s.Mean, 1e-15)
	assert.InDelta(t, 1.0, s.StdDev, 1e-15)

	empty := SummarizeValues("lidar_ratio", []float64{math.NaN()})
	assert.Zero(t, empty.Count)
	assert.True(t, math.IsNaN(empty.Mean))

	k, d := converted(t)
	var names []string
	for _, q := range Summarize(k, d) {
		names = append(names, q.Name)
	}
	assert.Contains(t, names, "qext")
	assert.Contains(t, names, "g")
}

func TestGenerate(t *testing.T) {
	k, d := converted(t)
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, Generate(path, k, d, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestBuildPDFReportWithoutPlots(t *testing.T) {
	k, d := converted(t)
	path := filepath.Join(t.TempDir(), "bare.pdf")
	require.NoError(t, BuildPDFReport(path, k, d, nil))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
