// Package activation reads and writes DNN activation files (*.act.h5).
//
// An activation file is an HDF5 container with one top-level dataset per
// network layer. Each dataset holds the layer's activation array and carries
// a raw_shape attribute: the int64 shape of the tensor before it was
// flattened.
package activation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	dnnerrors "github.com/Lesliefans0-0/dnnbrain/pkg/errors"
)

// RawShapeAttr is the dataset attribute holding a layer's original shape.
const RawShapeAttr = "raw_shape"

// DType names an array element type.
type DType string

const (
	Float32 DType = "float32"
	Float64 DType = "float64"
	Int32   DType = "int32"
	Int64   DType = "int64"
)

// Element is the set of Go types an Array can hold.
type Element interface {
	float32 | float64 | int32 | int64
}

// Array is an n-dimensional array stored row-major in a flat slice.
// Values is one of []float32, []float64, []int32 or []int64.
type Array struct {
	Shape  []int
	Values interface{}
}

// NewArray builds an Array from values. With no shape the array is 1-D.
func NewArray[T Element](values []T, shape ...int) Array {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	return Array{Shape: shape, Values: values}
}

// DType returns the element type, or "" if Values is not a supported slice.
func (a Array) DType() DType {
	switch a.Values.(type) {
	case []float32:
		return Float32
	case []float64:
		return Float64
	case []int32:
		return Int32
	case []int64:
		return Int64
	default:
		return ""
	}
}

// Len returns the number of stored values, or -1 for an unsupported type.
func (a Array) Len() int {
	switch v := a.Values.(type) {
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	case []int32:
		return len(v)
	case []int64:
		return len(v)
	default:
		return -1
	}
}

// Float64s returns the values converted to float64.
func (a Array) Float64s() []float64 {
	switch v := a.Values.(type) {
	case []float64:
		return v
	case []float32:
		return convert(v)
	case []int32:
		return convert(v)
	case []int64:
		return convert(v)
	default:
		return nil
	}
}

func convert[T Element](in []T) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = float64(x)
	}
	return out
}

// Equal reports whether both arrays have the same shape, type and values.
func (a Array) Equal(b Array) bool {
	return equalInts(a.Shape, b.Shape) && reflect.DeepEqual(a.Values, b.Values)
}

// Layer is one layer's activation and the shape of the tensor it came from.
type Layer struct {
	Data     Array
	RawShape []int
}

// Collection maps layer names to their activations. Order is not meaningful.
type Collection map[string]Layer

// Names returns the layer names in sorted order.
func (c Collection) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every layer: a usable name, a supported element type,
// values matching the data shape, and a raw shape of the same total size.
func (c Collection) Validate() error {
	for _, name := range c.Names() {
		if err := validateLayer(name, c[name]); err != nil {
			return err
		}
	}
	return nil
}

func validateLayer(name string, l Layer) error {
	if name == "" || name == "." || strings.Contains(name, "/") {
		return dnnerrors.Newf(dnnerrors.ErrActInvalidLayerName, "invalid layer name %q", name).
			WithContext("layer", name)
	}
	if l.Data.DType() == "" {
		return dnnerrors.ActUnsupportedDType(name, l.Data.Values)
	}

	n := l.Data.Len()
	size, err := product(l.Data.Shape)
	if err != nil || size != n {
		return shapeMismatch(name, "data shape %v does not hold %d values", l.Data.Shape, n)
	}
	if l.RawShape != nil {
		raw, err := product(l.RawShape)
		if err != nil || raw != n {
			return shapeMismatch(name, "raw shape %v does not match %d values", l.RawShape, n)
		}
	}
	return nil
}

func shapeMismatch(layer, format string, args ...interface{}) error {
	return dnnerrors.Newf(dnnerrors.ErrActShapeMismatch, "layer %q: %s", layer, fmt.Sprintf(format, args...)).
		WithContext("layer", layer)
}

// product returns the number of elements a shape describes.
func product(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, fmt.Errorf("empty shape")
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("negative dimension %d", d)
		}
		n *= d
	}
	return n, nil
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
