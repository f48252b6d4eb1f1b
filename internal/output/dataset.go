// Package output holds the named multidimensional array model handed to
// persistence, and its NetCDF implementation.
package output

import (
	"fmt"
	"sort"
)

// Dimension is a named axis.
type Dimension struct {
	Name string
	Len  int
}

// Variable is a named float64 array laid out row-major over Dims.
type Variable struct {
	Name  string
	Dims  []string
	Data  []float64
	Attrs map[string]any // string or []float64 values
}

// Dataset is an ordered set of dimensions and variables plus global attributes.
type Dataset struct {
	Dims  []Dimension
	Vars  []*Variable
	Attrs map[string]any // string or []float64 values
}

// Sink persists a dataset and returns where it went.
type Sink interface {
	Write(ds *Dataset) (string, error)
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{Attrs: make(map[string]any)}
}

// AddDim declares a dimension. Names must be unique and lengths positive.
func (d *Dataset) AddDim(name string, n int) error {
	if n < 1 {
		return fmt.Errorf("output: dimension %q has length %d", name, n)
	}
	if _, ok := d.Dim(name); ok {
		return fmt.Errorf("output: dimension %q declared twice", name)
	}
	d.Dims = append(d.Dims, Dimension{Name: name, Len: n})
	return nil
}

// Dim returns the dimension called name.
func (d *Dataset) Dim(name string) (Dimension, bool) {
	for _, dim := range d.Dims {
		if dim.Name == name {
			return dim, true
		}
	}
	return Dimension{}, false
}

// AddVar declares a variable over existing dimensions. len(data) must equal
// the product of the dimension lengths.
func (d *Dataset) AddVar(name string, dims []string, data []float64, attrs map[string]any) (*Variable, error) {
	if d.Var(name) != nil {
		return nil, fmt.Errorf("output: variable %q declared twice", name)
	}
	shape, err := d.Shape(dims)
	if err != nil {
		return nil, fmt.Errorf("output: variable %q: %w", name, err)
	}
	n := 1
	for _, l := range shape {
		n *= l
	}
	if len(data) != n {
		return nil, fmt.Errorf("output: variable %q has %d values, dimensions %v need %d", name, len(data), dims, n)
	}
	if attrs == nil {
		attrs = make(map[string]any)
	}
	v := &Variable{Name: name, Dims: append([]string(nil), dims...), Data: data, Attrs: attrs}
	d.Vars = append(d.Vars, v)
	return v, nil
}

// Var returns the variable called name, or nil.
func (d *Dataset) Var(name string) *Variable {
	for _, v := range d.Vars {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Shape returns the lengths of the named dimensions.
func (d *Dataset) Shape(dims []string) ([]int, error) {
	shape := make([]int, len(dims))
	for i, name := range dims {
		dim, ok := d.Dim(name)
		if !ok {
			return nil, fmt.Errorf("unknown dimension %q", name)
		}
		shape[i] = dim.Len
	}
	return shape, nil
}

// StringAttr returns a string valued global attribute.
func (d *Dataset) StringAttr(name string) string {
	s, _ := d.Attrs[name].(string)
	return s
}

// FloatAttr returns the first value of a numeric global attribute.
func (d *Dataset) FloatAttr(name string) (float64, bool) {
	v, ok := d.Attrs[name].([]float64)
	if !ok || len(v) == 0 {
		return 0, false
	}
	return v[0], true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func checkAttr(owner, name string, v any) error {
	switch v.(type) {
	case string, []float64:
		return nil
	default:
		return fmt.Errorf("output: attribute %s:%s has unsupported type %T", owner, name, v)
	}
}
