// Package kerneltest writes synthetic kernel runs in the legacy text layout
// for use in tests.
package kerneltest

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/config"
)

// Run describes a synthetic kernel run.
type Run struct {
	Prefix     string
	Name       string
	Ratios     []string
	MR, MI     []float64
	Wavelength float64
	Sizes      []float64
	Angles     []float64
	Elements   []string

	PerLine   int // values per line in every numeric section, default 4
	ExtraRows int // surplus lines appended to each scattering block

	// Value functions; nil selects the defaults below.
	Ext   func(r, mr, mi, x int) float64
	Abs   func(r, mr, mi, x int) float64
	Scama func(r, mr, mi, x, e, a int) float64

	// Pairs overrides the (mr, mi) header pair of a "00" block per ratio.
	Pairs func(r, block int) (float64, float64)
}

// Default returns a small run: two ratios, 2x2 refractive indices, three
// sizes, five angles and two scattering elements.
func Default() Run {
	return Run{
		Prefix:     "kern",
		Name:       "test",
		Ratios:     []string{"100", "150"},
		MR:         []float64{1.33, 1.5},
		MI:         []float64{0.0005, 0.01},
		Wavelength: 0.55,
		Sizes:      []float64{0.1, 0.2, 0.4},
		Angles:     []float64{0, 45, 90, 135, 180},
		Elements:   []string{"11", "12"},
		PerLine:    4,
	}
}

// DefaultExt is the extinction written when Run.Ext is nil.
func DefaultExt(r, mr, mi, x int) float64 {
	return 1 + float64(r) + 0.5*float64(mr) + 0.25*float64(mi) + 0.125*float64(x)
}

// DefaultAbs is the absorption written when Run.Abs is nil.
func DefaultAbs(r, mr, mi, x int) float64 {
	return 0.1 * DefaultExt(r, mr, mi, x) * float64(mi+1) / 2
}

// DefaultScama is a forward peaked, strictly positive scattering matrix row.
func DefaultScama(r, mr, mi, x, e, a int) float64 {
	return float64(e+1) * (2 + float64(x) + float64(r)) / float64(1+a+mr+mi)
}

// ContLen is the "00" record length for the run.
func (k Run) ContLen() int { return 2 + 2*(1+k.lines(len(k.Sizes))) }

// ScatElemLen is the number of lines holding one row of angle values.
func (k Run) ScatElemLen() int { return k.lines(len(k.Angles)) }

// ScatContLen is the scattering element record length for the run.
func (k Run) ScatContLen() int { return 2 + len(k.Sizes)*k.ScatElemLen() + k.ExtraRows }

// ScatHdrLen is the header length of the scattering element files.
func (k Run) ScatHdrLen() int { return 3 + k.lines(len(k.Angles)) }

// Config returns the run configuration pointing at dir.
func (k Run) Config(dir string) config.RunConfig {
	cfg := config.Defaults()
	cfg.Path = dir
	cfg.Prefix = k.Prefix
	cfg.Name = k.Name
	cfg.Ratios = append([]string(nil), k.Ratios...)
	cfg.ContLen = k.ContLen()
	cfg.MRLen = len(k.MR)
	cfg.MILen = len(k.MI)
	cfg.ScatHdrLen = k.ScatHdrLen()
	cfg.ScatContLen = k.ScatContLen()
	cfg.ScatElemLen = k.ScatElemLen()
	cfg.Elements = append([]string(nil), k.Elements...)
	return cfg
}

// Write writes the size grid and every element file of the run into dir.
func (k Run) Write(dir string) error {
	if err := writeFile(filepath.Join(dir, "grid1.dat"), k.sizeGrid()); err != nil {
		return err
	}
	for ri, ratio := range k.Ratios {
		if err := writeFile(k.path(dir, ratio, "00"), k.extAbs(ri, ratio)); err != nil {
			return err
		}
		for ei, elem := range k.Elements {
			if err := writeFile(k.path(dir, ratio, elem), k.scattering(ri, ratio, ei, elem)); err != nil {
				return err
			}
		}
		if !contains(k.Elements, "11") {
			if err := writeFile(k.path(dir, ratio, "11"), k.scattering(ri, ratio, 0, "11")); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExtAt returns the extinction written for the given cell.
func (k Run) ExtAt(r, mr, mi, x int) float64 {
	if k.Ext != nil {
		return k.Ext(r, mr, mi, x)
	}
	return DefaultExt(r, mr, mi, x)
}

// AbsAt returns the absorption written for the given cell.
func (k Run) AbsAt(r, mr, mi, x int) float64 {
	if k.Abs != nil {
		return k.Abs(r, mr, mi, x)
	}
	return DefaultAbs(r, mr, mi, x)
}

// ScamaAt returns the scattering matrix value written for the given cell.
func (k Run) ScamaAt(r, mr, mi, x, e, a int) float64 {
	if k.Scama != nil {
		return k.Scama(r, mr, mi, x, e, a)
	}
	return DefaultScama(r, mr, mi, x, e, a)
}

func (k Run) path(dir, ratio, elem string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.txt", k.Prefix, ratio, elem))
}

func (k Run) perLine() int {
	if k.PerLine < 1 {
		return 4
	}
	return k.PerLine
}

func (k Run) lines(n int) int { return (n + k.perLine() - 1) / k.perLine() }

func (k Run) countLine() string {
	return fmt.Sprintf("  %d  %d   refractive index grid", len(k.MR), -len(k.MI))
}

func (k Run) sizeGrid() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %g\n", len(k.Sizes), k.Wavelength)
	for _, s := range k.Sizes {
		fmt.Fprintf(&b, "%g\n", s)
	}
	return b.String()
}

func (k Run) extAbs(ri int, ratio string) string {
	var b strings.Builder
	b.WriteString(" extinction and absorption kernels\n")
	fmt.Fprintf(&b, " ratio %s\n", ratio)
	fmt.Fprintf(&b, " %g  wavelength\n", k.Wavelength)
	fmt.Fprintf(&b, " %d  sizes\n", len(k.Sizes))
	b.WriteString(k.countLine() + "\n")
	block := 0
	for mri := range k.MR {
		for mii := range k.MI {
			mr, mi := k.MR[mri], k.MI[mii]
			if k.Pairs != nil {
				mr, mi = k.Pairs(ri, block)
			}
			fmt.Fprintf(&b, "  00  %s\n", ratio)
			fmt.Fprintf(&b, " %g  %g  %g\n", k.Wavelength, mr, mi)
			b.WriteString("EXTINCTION\n")
			k.values(&b, len(k.Sizes), func(i int) float64 { return k.ExtAt(ri, mri, mii, i) })
			b.WriteString("ABSORPTION\n")
			k.values(&b, len(k.Sizes), func(i int) float64 { return k.AbsAt(ri, mri, mii, i) })
			block++
		}
	}
	return b.String()
}

func (k Run) scattering(ri int, ratio string, ei int, elem string) string {
	var b strings.Builder
	fmt.Fprintf(&b, " scattering matrix element %s, ratio %s\n", elem, ratio)
	fmt.Fprintf(&b, " %d   number of scattering angles\n", len(k.Angles))
	k.values(&b, len(k.Angles), func(i int) float64 { return k.Angles[i] })
	b.WriteString(k.countLine() + "\n")
	for mri := range k.MR {
		for mii := range k.MI {
			fmt.Fprintf(&b, "  %s  %s\n", elem, ratio)
			fmt.Fprintf(&b, " %g  %g  %g\n", k.Wavelength, k.MR[mri], k.MI[mii])
			for xi := range k.Sizes {
				k.values(&b, len(k.Angles), func(a int) float64 { return k.ScamaAt(ri, mri, mii, xi, ei, a) })
			}
			for i := 0; i < k.ExtraRows; i++ {
				b.WriteString(" 9.99 9.99\n")
			}
		}
	}
	return b.String()
}

// values writes n values, perLine per line, in a round-trippable format.
func (k Run) values(b *strings.Builder, n int, at func(int) float64) {
	for i := 0; i < n; i++ {
		if i > 0 && i%k.perLine() == 0 {
			b.WriteString("\n")
		}
		v := at(i)
		if math.IsNaN(v) {
			b.WriteString(" NaN")
			continue
		}
		fmt.Fprintf(b, " %v", v)
	}
	b.WriteString("\n")
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("kerneltest: %w", err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
