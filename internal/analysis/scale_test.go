package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/config"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/parser"
)

func geometric(n int, first, ratio float64) []float64 {
	x := make([]float64, n)
	x[0] = first
	for i := 1; i < n; i++ {
		x[i] = x[i-1] * ratio
	}
	return x
}

func TestGridBinScale(t *testing.T) {
	// A grid with ratio e^(1/3.68176736) reproduces the legacy constant.
	r := math.Exp(1 / config.DefaultBinScale)
	got, err := GridBinScale(geometric(22, 0.05, r))
	require.NoError(t, err)
	assert.InDelta(t, config.DefaultBinScale, got, 1e-9)

	_, err = GridBinScale([]float64{1})
	var ie *parser.InconsistencyError
	require.ErrorAs(t, err, &ie)

	_, err = GridBinScale([]float64{1, 1})
	require.ErrorAs(t, err, &ie)
}

func TestResolveBinScale(t *testing.T) {
	legacy := geometric(22, 0.05, math.Exp(1/config.DefaultBinScale))
	coarse := geometric(10, 0.05, 2)

	tests := []struct {
		name    string
		cfg     config.BinScale
		x       []float64
		want    float64
		wantErr bool
	}{
		{"fixed", config.BinScale{Value: 3}, coarse, 3, false},
		{"from grid", config.BinScale{Value: 3, FromGrid: true}, coarse, 1 / math.Ln2, false},
		{"expected sizes ok", config.BinScale{Value: config.DefaultBinScale, ExpectedSizes: 22}, legacy, config.DefaultBinScale, false},
		{"expected sizes changed", config.BinScale{Value: config.DefaultBinScale, ExpectedSizes: 22}, coarse, 0, true},
		{"within tolerance", config.BinScale{Value: config.DefaultBinScale, Tolerance: 1e-6}, legacy, config.DefaultBinScale, false},
		{"outside tolerance", config.BinScale{Value: config.DefaultBinScale, Tolerance: 1e-3}, coarse, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBinScale(tt.cfg, tt.x)
			if tt.wantErr {
				var ie *parser.InconsistencyError
				require.ErrorAs(t, err, &ie)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCheckBackscatterAngles(t *testing.T) {
	assert.NoError(t, CheckBackscatterAngles([]float64{0, 90, 180}, 180))
	assert.Error(t, CheckBackscatterAngles(nil, 180))
	assert.Error(t, CheckBackscatterAngles([]float64{0, 90, 90, 180}, 180))
	assert.Error(t, CheckBackscatterAngles([]float64{0, 90, 179}, 180))
}
