package frame

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_Usable(t *testing.T) {
	var nilBuf *Buffer
	assert.False(t, nilBuf.Usable(32, 32))
	assert.False(t, placeholderBuffer().Usable(32, 32))
	assert.True(t, NewRGBBuffer(make([]byte, 32*32*3), 32, 32).Usable(32, 32))
}

func TestBuffer_ImageRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.Set(2, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	buf := BufferFromImage(src)
	require.Equal(t, 3, buf.Width)
	require.Equal(t, 2, buf.Height)

	out := buf.Image()
	assert.Equal(t, src.NRGBAAt(0, 0), out.NRGBAAt(0, 0))
	assert.Equal(t, src.NRGBAAt(2, 1), out.NRGBAAt(2, 1))
}

func TestBuffer_ImageOnNonRGBIsPlaceholder(t *testing.T) {
	buf := &Buffer{Width: 4, Height: 4, Layout: LayoutYUV420Planar}
	img := buf.Image()
	assert.Equal(t, 1, img.Bounds().Dx())
	assert.Equal(t, 1, img.Bounds().Dy())
}
