package activation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dnnerrors "github.com/Lesliefans0-0/dnnbrain/pkg/errors"
)

func TestNewArray(t *testing.T) {
	a := NewArray([]float32{1, 2, 3})
	assert.Equal(t, []int{3}, a.Shape)
	assert.Equal(t, Float32, a.DType())
	assert.Equal(t, 3, a.Len())

	b := NewArray([]int64{1, 2, 3, 4, 5, 6}, 2, 3)
	assert.Equal(t, []int{2, 3}, b.Shape)
	assert.Equal(t, Int64, b.DType())
}

func TestArray_Unsupported(t *testing.T) {
	a := Array{Shape: []int{2}, Values: []string{"a", "b"}}
	assert.Equal(t, DType(""), a.DType())
	assert.Equal(t, -1, a.Len())
	assert.Nil(t, a.Float64s())
}

func TestArray_Float64s(t *testing.T) {
	assert.Equal(t, []float64{1, 2}, NewArray([]int32{1, 2}).Float64s())
	assert.Equal(t, []float64{0.5}, NewArray([]float32{0.5}).Float64s())
	assert.Equal(t, []float64{7}, NewArray([]int64{7}).Float64s())
}

func TestArray_Equal(t *testing.T) {
	a := NewArray([]float64{1, 2, 3, 4}, 2, 2)

	assert.True(t, a.Equal(NewArray([]float64{1, 2, 3, 4}, 2, 2)))
	assert.False(t, a.Equal(NewArray([]float64{1, 2, 3, 4}, 4)))
	assert.False(t, a.Equal(NewArray([]float32{1, 2, 3, 4}, 2, 2)))
	assert.False(t, a.Equal(NewArray([]float64{1, 2, 3, 5}, 2, 2)))
}

func TestCollection_Names(t *testing.T) {
	c := Collection{
		"fc2":   {Data: NewArray([]float64{1})},
		"conv4": {Data: NewArray([]float64{1})},
		"conv1": {Data: NewArray([]float64{1})},
	}
	assert.Equal(t, []string{"conv1", "conv4", "fc2"}, c.Names())
	assert.Empty(t, Collection{}.Names())
}

func TestCollection_Validate(t *testing.T) {
	tests := []struct {
		name  string
		coll  Collection
		code  string
		isTyp bool
	}{
		{
			name: "valid with raw shape",
			coll: Collection{"conv5": {Data: NewArray(make([]float32, 24), 2, 12), RawShape: []int{2, 3, 2, 2}}},
		},
		{
			name: "valid without raw shape",
			coll: Collection{"fc1": {Data: NewArray(make([]float64, 4))}},
		},
		{
			name: "zero sized",
			coll: Collection{"fc1": {Data: NewArray([]float64{}, 0, 3), RawShape: []int{0, 3}}},
		},
		{
			name:  "unsupported element type",
			coll:  Collection{"fc1": {Data: Array{Shape: []int{1}, Values: []uint8{1}}}},
			code:  dnnerrors.ErrActUnsupportedDType,
			isTyp: true,
		},
		{
			name: "data shape mismatch",
			coll: Collection{"fc1": {Data: NewArray(make([]float64, 5), 2, 3)}},
			code: dnnerrors.ErrActShapeMismatch,
		},
		{
			name: "raw shape mismatch",
			coll: Collection{"fc1": {Data: NewArray(make([]float64, 6), 2, 3), RawShape: []int{2, 4}}},
			code: dnnerrors.ErrActShapeMismatch,
		},
		{
			name: "empty shape",
			coll: Collection{"fc1": {Data: Array{Shape: []int{}, Values: []float64{1}}}},
			code: dnnerrors.ErrActShapeMismatch,
		},
		{
			name: "negative dimension",
			coll: Collection{"fc1": {Data: NewArray([]float64{}, -1, 0)}},
			code: dnnerrors.ErrActShapeMismatch,
		},
		{
			name: "slash in layer name",
			coll: Collection{"conv/1": {Data: NewArray([]float64{1})}},
			code: dnnerrors.ErrActInvalidLayerName,
		},
		{
			name: "empty layer name",
			coll: Collection{"": {Data: NewArray([]float64{1})}},
			code: dnnerrors.ErrActInvalidLayerName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coll.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dnnerrors.IsCode(err, tt.code), "got %v", err)
			if tt.isTyp {
				assert.True(t, dnnerrors.IsType(err))
			} else {
				assert.True(t, dnnerrors.IsFormat(err))
			}
		})
	}
}
