package kernel

import "github.com/ctessum/sparse"

// Kernel is the merged content of every ratio of a run.
type Kernel struct {
	Name       string
	RatioIDs   []string
	Ratios     []float64 // aspect ratios, id / 100
	MR, MI     []float64
	Wavelength float64
	Sizes      []float64 // physical sizes
	X          []float64 // size parameters
	Angles     []float64 // degrees
	Elements   []string

	Ext   *sparse.DenseArray // (ratio, mr, mi, size)
	Abs   *sparse.DenseArray // (ratio, mr, mi, size)
	Scama *sparse.DenseArray // (ratio, mr, mi, size, element, angle)

	// Digest is the hex BLAKE3 of the size grid file's digest followed by one
	// digest per ratio, in configured ratio order. A ratio's digest covers its
	// "00" file, the "11" file read for the angle grid, then each scattering
	// element file in configured order.
	Digest string
}

// Shape returns the axis extents of k.
func (k *Kernel) Shape() Shape {
	return Shape{
		Ratios:   len(k.Ratios),
		MR:       len(k.MR),
		MI:       len(k.MI),
		Sizes:    len(k.Sizes),
		Elements: len(k.Elements),
		Angles:   len(k.Angles),
	}
}
