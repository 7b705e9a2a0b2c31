package testutil

import (
	"image"

	"github.com/MeKo-Tech/labelscan/internal/frame"
)

// RGBBufferFromImage packs an image into a sensor buffer.
func RGBBufferFromImage(img image.Image) *frame.Buffer {
	return frame.BufferFromImage(img)
}

// GrayRGBBuffer creates a packed RGB buffer where every pixel has the same
// luma value.
func GrayRGBBuffer(width, height int, value byte) *frame.Buffer {
	data := make([]byte, width*height*3)
	for i := range data {
		data[i] = value
	}
	return frame.NewRGBBuffer(data, width, height)
}

// YUV420PlanarBuffer builds an I420-style buffer with uniform luma and
// chroma values. Chroma planes are quarter size.
func YUV420PlanarBuffer(width, height int, luma, u, v byte) *frame.Buffer {
	cw, ch := (width+1)/2, (height+1)/2

	yData := make([]byte, width*height)
	for i := range yData {
		yData[i] = luma
	}
	uData := make([]byte, cw*ch)
	vData := make([]byte, cw*ch)
	for i := range uData {
		uData[i] = u
		vData[i] = v
	}

	return &frame.Buffer{
		Width:  width,
		Height: height,
		Layout: frame.LayoutYUV420Planar,
		Y:      frame.Plane{Data: yData, RowStride: width, PixelStride: 1},
		U:      frame.Plane{Data: uData, RowStride: cw, PixelStride: 1},
		V:      frame.Plane{Data: vData, RowStride: cw, PixelStride: 1},
	}
}

// YUV420SemiPlanarBuffer builds an NV12-style buffer with uniform luma and
// chroma values. U and V share one interleaved plane with pixel stride 2.
func YUV420SemiPlanarBuffer(width, height int, luma, u, v byte) *frame.Buffer {
	cw, ch := (width+1)/2, (height+1)/2

	yData := make([]byte, width*height)
	for i := range yData {
		yData[i] = luma
	}
	uv := make([]byte, cw*ch*2)
	for i := 0; i < len(uv); i += 2 {
		uv[i] = u
		uv[i+1] = v
	}

	return &frame.Buffer{
		Width:  width,
		Height: height,
		Layout: frame.LayoutYUV420SemiPlanar,
		Y:      frame.Plane{Data: yData, RowStride: width, PixelStride: 1},
		U:      frame.Plane{Data: uv, RowStride: cw * 2, PixelStride: 2},
		V:      frame.Plane{Data: uv[1:], RowStride: cw * 2, PixelStride: 2},
	}
}
