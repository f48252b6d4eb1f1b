package analysis

import "github.com/ctessum/sparse"

// Derived holds the quantities computed from a kernel. Every array is
// dimensioned (ratio, mr, mi, size).
type Derived struct {
	Sca  *sparse.DenseArray // ext - abs
	QExt *sparse.DenseArray
	QAbs *sparse.DenseArray
	QSca *sparse.DenseArray
	CExt *sparse.DenseArray
	CAbs *sparse.DenseArray
	CSca *sparse.DenseArray
	QB   *sparse.DenseArray // backscatter efficiency
	G    *sparse.DenseArray // asymmetry parameter

	// LidarRatio is declared in the output but has no agreed definition for
	// these kernels; it is NaN throughout.
	LidarRatio *sparse.DenseArray

	BinScale float64
}

// Options configures the derivation.
type Options struct {
	BinScale         float64 // volume normalisation constant
	BackscatterAngle float64 // degrees, must be the last angle
}
