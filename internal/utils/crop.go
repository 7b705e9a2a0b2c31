package utils

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// CropImageRect crops an image to the given rectangle, clamped to the image
// bounds. If the clamped rectangle is empty, a 1x1 placeholder is returned so
// downstream stages never receive a zero-sized patch.
func CropImageRect(img image.Image, r Rect) image.Image {
	clamped := r.Clamp(img.Bounds())
	if clamped.Empty() {
		return imaging.New(1, 1, color.Black)
	}
	return imaging.Crop(img, clamped.ToImageRect())
}

// ScaleRect maps a rectangle from one coordinate space to another, e.g. from
// model input dimensions back to the original image.
func ScaleRect(r Rect, sx, sy float64) Rect {
	return NewRect(
		int(float64(r.X)*sx),
		int(float64(r.Y)*sy),
		int(float64(r.Width)*sx),
		int(float64(r.Height)*sy),
	)
}

// Rotate90 rotates the image 90 degrees counter-clockwise.
func Rotate90(img image.Image) image.Image { return imaging.Rotate90(img) }

// Rotate180 rotates the image 180 degrees.
func Rotate180(img image.Image) image.Image { return imaging.Rotate180(img) }

// Rotate270 rotates the image 270 degrees counter-clockwise.
func Rotate270(img image.Image) image.Image { return imaging.Rotate270(img) }
