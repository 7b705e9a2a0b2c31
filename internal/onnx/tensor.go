package onnx

import (
	"errors"
	"fmt"
)

// Tensor represents a float32 tensor prepared for ONNX input. Data layout is
// row-major, NCHW for images.
type Tensor struct {
	Data  []float32
	Shape []int64 // e.g., [N, C, H, W]
}

// NewImageTensor builds a single-image tensor with shape [1, C, H, W].
// data must be length C*H*W in NCHW order.
func NewImageTensor(data []float32, c, h, w int) (Tensor, error) {
	if data == nil {
		return Tensor{}, errors.New("nil data")
	}
	expected := c * h * w
	if len(data) != expected {
		return Tensor{}, fmt.Errorf("unexpected data length: got %d, want %d", len(data), expected)
	}
	return Tensor{Data: data, Shape: []int64{1, int64(c), int64(h), int64(w)}}, nil
}

// VerifyImageTensor ensures a tensor has a [N, C, H, W] shape with positive
// dimensions and matching data length.
func VerifyImageTensor(t Tensor) error {
	if len(t.Shape) != 4 {
		return fmt.Errorf("shape rank %d != 4", len(t.Shape))
	}
	var n int64 = 1
	for i, v := range t.Shape {
		if v <= 0 {
			return fmt.Errorf("dimension %d must be > 0, got %d", i, v)
		}
		n *= v
	}
	if int64(len(t.Data)) != n {
		return fmt.Errorf("data length %d does not match shape product %d", len(t.Data), n)
	}
	return nil
}
