package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultBinScale is the log bin-width correction of the size grid the
// legacy kernels were produced on: mean(1/ln(x[n+1]/x[n])).
const DefaultBinScale = 3.68176736

// RunConfig describes one conversion run. Keys follow the legacy JSON run files.
type RunConfig struct {
	Path   string   `yaml:"path"`   // directory holding the kernel text files
	Prefix string   `yaml:"fnpre"`  // file name prefix
	Ratios []string `yaml:"ratios"` // aspect ratio ids, percent scaled ("150" is 1.50)

	ContLen int `yaml:"contlen"` // lines per block in "00" files
	MRLen   int `yaml:"mrlen"`
	MILen   int `yaml:"milen"`

	ScatHdrLen  int      `yaml:"scathdrlen"`  // header lines of scattering element files
	ScatContLen int      `yaml:"scatcontlen"` // lines per block in scattering element files
	ScatElemLen int      `yaml:"scatelemlen"` // lines per angle row chunk
	Elements    []string `yaml:"elems"`

	Name string `yaml:"name"`

	GridPattern      string   `yaml:"gridpattern"`
	BinScale         BinScale `yaml:"binscale"`
	BackscatterAngle float64  `yaml:"backscatterangle"`
	StrictAngles     bool     `yaml:"strictangles"`
	Workers          int      `yaml:"workers"`
	Compress         bool     `yaml:"compress"`
}

// BinScale configures the constant turning kernel values into volume
// normalised efficiencies.
type BinScale struct {
	Value         float64 `yaml:"value"`
	FromGrid      bool    `yaml:"fromgrid"`      // derive the value from the size grid
	ExpectedSizes int     `yaml:"expectedsizes"` // required grid length, 0 disables the check
	Tolerance     float64 `yaml:"tolerance"`     // max relative gap to the grid value, 0 disables
}

// Defaults returns the values used for keys absent from a run file.
func Defaults() RunConfig {
	return RunConfig{
		GridPattern:      "grid1",
		BinScale:         BinScale{Value: DefaultBinScale},
		BackscatterAngle: 180,
		StrictAngles:     true,
		Workers:          1,
	}
}

// RatioValue converts a ratio id into its aspect ratio.
func RatioValue(id string) (float64, error) {
	v, err := strconv.ParseFloat(id, 64)
	if err != nil {
		return 0, fmt.Errorf("config: ratio %q is not numeric: %w", id, err)
	}
	return v / 100, nil
}

// Load reads a YAML (or JSON) run file on top of Defaults and validates it.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a run file document on top of Defaults and validates it.
func Parse(data []byte) (*RunConfig, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg RunConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
