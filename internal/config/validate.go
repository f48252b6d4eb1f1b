package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the static bounds of a run configuration.
func Validate(cfg RunConfig) error {
	if strings.TrimSpace(cfg.Path) == "" {
		return errors.New("config: path not set")
	}
	if cfg.Prefix == "" {
		return errors.New("config: fnpre not set")
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return errors.New("config: name not set")
	}
	if len(cfg.Ratios) == 0 {
		return errors.New("config: ratios empty")
	}
	seen := make(map[string]bool, len(cfg.Ratios))
	for _, r := range cfg.Ratios {
		if _, err := RatioValue(r); err != nil {
			return err
		}
		if seen[r] {
			return fmt.Errorf("config: ratio %q listed twice", r)
		}
		seen[r] = true
	}
	if cfg.MRLen < 1 || cfg.MILen < 1 {
		return fmt.Errorf("config: mrlen (%d) and milen (%d) must be >= 1", cfg.MRLen, cfg.MILen)
	}
	// Two header lines, then two labelled halves of equal length.
	if cfg.ContLen < 6 || (cfg.ContLen-2)%2 != 0 {
		return fmt.Errorf("config: contlen (%d) must be >= 6 with an even number of data lines", cfg.ContLen)
	}
	if cfg.ScatHdrLen < 1 {
		return errors.New("config: scathdrlen must be >= 1")
	}
	if cfg.ScatElemLen < 1 {
		return errors.New("config: scatelemlen must be >= 1")
	}
	if cfg.ScatContLen < 2+cfg.ScatElemLen {
		return fmt.Errorf("config: scatcontlen (%d) holds no %d-line chunk after the block header", cfg.ScatContLen, cfg.ScatElemLen)
	}
	if len(cfg.Elements) == 0 {
		return errors.New("config: elems empty")
	}
	for _, e := range cfg.Elements {
		if strings.TrimSpace(e) == "" {
			return errors.New("config: element name cannot be empty")
		}
	}
	if cfg.GridPattern == "" {
		return errors.New("config: gridpattern not set")
	}
	if !cfg.BinScale.FromGrid && cfg.BinScale.Value <= 0 {
		return fmt.Errorf("config: binscale.value (%g) must be > 0", cfg.BinScale.Value)
	}
	if cfg.BinScale.ExpectedSizes < 0 {
		return errors.New("config: binscale.expectedsizes must be >= 0")
	}
	if cfg.BinScale.Tolerance < 0 {
		return errors.New("config: binscale.tolerance must be >= 0")
	}
	if cfg.Workers < 1 {
		return errors.New("config: workers must be >= 1")
	}
	return nil
}
