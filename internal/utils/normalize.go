package utils

import (
	"errors"
	"fmt"

	"image"

	"github.com/MeKo-Tech/labelscan/internal/mempool"
	"github.com/disintegration/imaging"
)

// ImageConstraints defines size limits for model input preparation.
type ImageConstraints struct {
	MaxWidth  int
	MaxHeight int
	MinWidth  int
	MinHeight int
}

// DefaultImageConstraints returns the default constraints for inference.
func DefaultImageConstraints() ImageConstraints {
	return ImageConstraints{
		MaxWidth:  1024,
		MaxHeight: 1024,
		MinWidth:  32,
		MinHeight: 32,
	}
}

// ResizeForInference scales an image down to fit the constraints while
// preserving aspect ratio, snapping dimensions to multiples of 32 for model
// compatibility. Images are never scaled up.
func ResizeForInference(img image.Image, c ImageConstraints) (image.Image, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}

	scaleX := float64(c.MaxWidth) / float64(width)
	scaleY := float64(c.MaxHeight) / float64(height)
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}
	if scale >= 1.0 {
		scale = 1.0
	}

	newWidth := (int(float64(width)*scale) / 32) * 32
	newHeight := (int(float64(height)*scale) / 32) * 32
	if newWidth < c.MinWidth {
		newWidth = c.MinWidth
	}
	if newHeight < c.MinHeight {
		newHeight = c.MinHeight
	}

	return imaging.Resize(img, newWidth, newHeight, imaging.Lanczos), nil
}

// NormalizeImage converts an image to a float32 NCHW tensor with values in
// [0, 1]. The returned slice comes from the shared pool; callers release it
// with mempool.PutFloat32.
func NormalizeImage(img image.Image) ([]float32, int, int, error) {
	if img == nil {
		return nil, 0, 0, errors.New("input image is nil")
	}
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, 0, 0, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}

	tensor := mempool.GetFloat32(3 * height * width)
	plane := height * width
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := nrgba.PixOffset(x+bounds.Min.X, y+bounds.Min.Y)
			tensor[0*plane+y*width+x] = float32(nrgba.Pix[i+0]) / 255.0
			tensor[1*plane+y*width+x] = float32(nrgba.Pix[i+1]) / 255.0
			tensor[2*plane+y*width+x] = float32(nrgba.Pix[i+2]) / 255.0
		}
	}
	return tensor, width, height, nil
}
