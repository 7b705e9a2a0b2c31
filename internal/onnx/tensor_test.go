package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImageTensor(t *testing.T) {
	data := make([]float32, 3*4*5)
	tensor, err := NewImageTensor(data, 3, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 4, 5}, tensor.Shape)
	assert.NoError(t, VerifyImageTensor(tensor))
}

func TestNewImageTensor_LengthMismatch(t *testing.T) {
	_, err := NewImageTensor(make([]float32, 10), 3, 4, 5)
	assert.Error(t, err)
}

func TestNewImageTensor_NilData(t *testing.T) {
	_, err := NewImageTensor(nil, 3, 4, 5)
	assert.Error(t, err)
}

func TestVerifyImageTensor_BadShapes(t *testing.T) {
	assert.Error(t, VerifyImageTensor(Tensor{Data: make([]float32, 4), Shape: []int64{2, 2}}))
	assert.Error(t, VerifyImageTensor(Tensor{Data: make([]float32, 4), Shape: []int64{1, 0, 2, 2}}))
	assert.Error(t, VerifyImageTensor(Tensor{Data: make([]float32, 3), Shape: []int64{1, 1, 2, 2}}))
}
