package frame

import (
	"errors"
	"image"
)

// Layout identifies the pixel layout of a sensor buffer.
type Layout int

const (
	// LayoutRGB is packed RGB, 3 bytes per pixel, row-major.
	LayoutRGB Layout = iota
	// LayoutYUV420Planar has a full-resolution luma plane followed by
	// separate subsampled U and V planes (I420-style).
	LayoutYUV420Planar
	// LayoutYUV420SemiPlanar has a full-resolution luma plane and a single
	// interleaved chroma plane (NV12/NV21-style, pixel stride 2).
	LayoutYUV420SemiPlanar
)

// ErrUnsupportedLayout is returned when a buffer's layout tag is not one of
// the layouts the converter understands.
var ErrUnsupportedLayout = errors.New("unsupported pixel layout")

// Plane holds one plane of a luma-chroma buffer. RowStride is the number of
// bytes between vertically adjacent samples; PixelStride the number of bytes
// between horizontally adjacent samples (1 for planar, 2 for interleaved
// chroma).
type Plane struct {
	Data        []byte
	RowStride   int
	PixelStride int
}

// Buffer owns one captured frame. A buffer is exclusively owned by the
// pipeline run processing it; stages produce new buffers rather than
// mutating one in place.
type Buffer struct {
	Width  int
	Height int
	Layout Layout

	// RGB holds packed RGB data for LayoutRGB buffers.
	RGB []byte

	// Y, U, V hold the planes for luma-chroma layouts. Semi-planar buffers
	// carry the interleaved chroma in both U and V with offset data slices.
	Y Plane
	U Plane
	V Plane
}

// NewRGBBuffer constructs a packed RGB buffer over the given data.
func NewRGBBuffer(data []byte, width, height int) *Buffer {
	return &Buffer{Width: width, Height: height, Layout: LayoutRGB, RGB: data}
}

// placeholderBuffer is the 1x1 stand-in returned when a sensor buffer cannot
// be read. Downstream stages treat it as "no usable frame".
func placeholderBuffer() *Buffer {
	return &Buffer{Width: 1, Height: 1, Layout: LayoutRGB, RGB: []byte{0, 0, 0}}
}

// Usable reports whether the buffer is large enough to be worth processing.
func (b *Buffer) Usable(minWidth, minHeight int) bool {
	if b == nil {
		return false
	}
	return b.Width >= minWidth && b.Height >= minHeight
}

// Image materializes the RGB buffer as an image for the detection and
// extraction stages. Non-RGB buffers and undersized data return a 1x1 image.
func (b *Buffer) Image() *image.NRGBA {
	if b == nil || b.Layout != LayoutRGB || b.Width <= 0 || b.Height <= 0 ||
		len(b.RGB) < b.Width*b.Height*3 {
		return image.NewNRGBA(image.Rect(0, 0, 1, 1))
	}
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		src := y * b.Width * 3
		dst := y * img.Stride
		for x := 0; x < b.Width; x++ {
			img.Pix[dst+x*4+0] = b.RGB[src+x*3+0]
			img.Pix[dst+x*4+1] = b.RGB[src+x*3+1]
			img.Pix[dst+x*4+2] = b.RGB[src+x*3+2]
			img.Pix[dst+x*4+3] = 0xff
		}
	}
	return img
}

// BufferFromImage packs an image into an RGB buffer, e.g. for callers that
// receive decoded images rather than raw sensor planes.
func BufferFromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	data := make([]byte, w*h*3)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			data[i+0] = byte(r >> 8)
			data[i+1] = byte(g >> 8)
			data[i+2] = byte(bl >> 8)
			i += 3
		}
	}
	return NewRGBBuffer(data, w, h)
}
