package kernel

import (
	"fmt"

	"github.com/ctessum/sparse"
)

// RefractiveIndex returns the position of the (mr, mi) combination among the
// blocks of an element file. Blocks run over mi fastest.
func RefractiveIndex(mrIdx, miIdx, miLen int) int {
	return mrIdx*miLen + miIdx
}

// SplitRefractiveIndex is the inverse of RefractiveIndex.
func SplitRefractiveIndex(block, miLen int) (mrIdx, miIdx int) {
	return block / miLen, block % miLen
}

// Scalar axes: (ratio, mr, mi, size).
const (
	AxisRatio = iota
	AxisMR
	AxisMI
	AxisSize
	// Scattering matrix only: (..., element, angle).
	AxisElement
	AxisAngle
)

// Shape is the extent of every kernel axis.
type Shape struct {
	Ratios, MR, MI, Sizes, Elements, Angles int
}

// Scalar returns the dimensions of a (ratio, mr, mi, size) array.
func (s Shape) Scalar() []int {
	return []int{s.Ratios, s.MR, s.MI, s.Sizes}
}

// Matrix returns the dimensions of a (ratio, mr, mi, size, element, angle) array.
func (s Shape) Matrix() []int {
	return []int{s.Ratios, s.MR, s.MI, s.Sizes, s.Elements, s.Angles}
}

// NewScalar allocates a zeroed (ratio, mr, mi, size) array.
func (s Shape) NewScalar() *sparse.DenseArray {
	return sparse.ZerosDense(s.Scalar()...)
}

// NewMatrix allocates a zeroed (ratio, mr, mi, size, element, angle) array.
func (s Shape) NewMatrix() *sparse.DenseArray {
	return sparse.ZerosDense(s.Matrix()...)
}

// CheckShape reports whether a has exactly the dimensions dims.
func CheckShape(name string, a *sparse.DenseArray, dims []int) error {
	if a == nil {
		return fmt.Errorf("%s: array is nil", name)
	}
	if len(a.Shape) != len(dims) {
		return fmt.Errorf("%s: rank %d, want %d", name, len(a.Shape), len(dims))
	}
	for i := range dims {
		if a.Shape[i] != dims[i] {
			return fmt.Errorf("%s: shape %v, want %v", name, a.Shape, dims)
		}
	}
	return nil
}
