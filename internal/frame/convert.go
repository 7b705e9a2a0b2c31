package frame

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/labelscan/internal/mempool"
	"github.com/disintegration/imaging"
)

// ErrUnsupportedRotation is returned for rotations that are not a multiple
// of 90 degrees.
var ErrUnsupportedRotation = errors.New("rotation must be a multiple of 90 degrees")

// Config holds conversion and enhancement settings for the frame converter.
type Config struct {
	// Contrast curve parameters, see Curve.
	ContrastLow   uint8   `mapstructure:"contrast_low" yaml:"contrast_low" json:"contrast_low"`
	ContrastHigh  uint8   `mapstructure:"contrast_high" yaml:"contrast_high" json:"contrast_high"`
	ContrastGamma float64 `mapstructure:"contrast_gamma" yaml:"contrast_gamma" json:"contrast_gamma"`
	// EnhanceContrast toggles the contrast step entirely.
	EnhanceContrast bool `mapstructure:"enhance_contrast" yaml:"enhance_contrast" json:"enhance_contrast"`
}

// DefaultConfig returns default frame conversion settings.
func DefaultConfig() Config {
	return Config{
		ContrastLow:     16,
		ContrastHigh:    235,
		ContrastGamma:   0.9,
		EnhanceContrast: true,
	}
}

// Converter turns raw sensor buffers into contrast-enhanced RGB rasters.
type Converter struct {
	config Config
	curve  *Curve
}

// NewConverter creates a converter with the given configuration.
func NewConverter(config Config) *Converter {
	return &Converter{
		config: config,
		curve:  NewCurve(config.ContrastLow, config.ContrastHigh, config.ContrastGamma),
	}
}

// Convert produces a packed RGB buffer from a sensor buffer, applying the
// requested clockwise rotation and the contrast curve. Buffers whose data
// cannot be read yield a 1x1 placeholder rather than an error; an unknown
// layout yields ErrUnsupportedLayout.
func (c *Converter) Convert(buf *Buffer, rotationDegrees int) (*Buffer, error) {
	if buf == nil {
		return nil, errors.New("input buffer is nil")
	}
	if buf.Width < 0 || buf.Height < 0 {
		return nil, fmt.Errorf("invalid buffer dimensions %dx%d", buf.Width, buf.Height)
	}

	var out *Buffer
	switch buf.Layout {
	case LayoutRGB:
		if len(buf.RGB) < buf.Width*buf.Height*3 {
			slog.Warn("RGB buffer shorter than expected, dropping frame",
				"have", len(buf.RGB), "want", buf.Width*buf.Height*3)
			return placeholderBuffer(), nil
		}
		out = buf
	case LayoutYUV420Planar, LayoutYUV420SemiPlanar:
		converted, ok := c.convertYUV(buf)
		if !ok {
			return placeholderBuffer(), nil
		}
		out = converted
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedLayout, buf.Layout)
	}

	out, err := rotateBuffer(out, rotationDegrees)
	if err != nil {
		return nil, err
	}

	if c.config.EnhanceContrast {
		if out == buf {
			// The caller still owns the input raster; enhance a copy.
			n := out.Width * out.Height * 3
			rgb := mempool.GetBytes(n)
			copy(rgb, out.RGB[:n])
			out = NewRGBBuffer(rgb, out.Width, out.Height)
		}
		c.curve.Apply(out.RGB)
	}
	return out, nil
}

// convertYUV converts a planar or semi-planar luma-chroma buffer to RGB.
// Pixels whose chroma samples fall outside the chroma planes degrade to
// grayscale individually; only an unreadable luma plane drops the frame.
func (c *Converter) convertYUV(buf *Buffer) (*Buffer, bool) {
	y := buf.Y
	if y.Data == nil || y.RowStride <= 0 || y.PixelStride <= 0 {
		slog.Warn("luma plane unreadable, dropping frame")
		return nil, false
	}
	lastLuma := (buf.Height-1)*y.RowStride + (buf.Width-1)*y.PixelStride
	if buf.Width <= 0 || buf.Height <= 0 || lastLuma >= len(y.Data) {
		slog.Warn("luma plane shorter than expected, dropping frame",
			"have", len(y.Data), "need", lastLuma+1)
		return nil, false
	}

	rgb := mempool.GetBytes(buf.Width * buf.Height * 3)
	for row := 0; row < buf.Height; row++ {
		for col := 0; col < buf.Width; col++ {
			luma := y.Data[row*y.RowStride+col*y.PixelStride]
			u, v, ok := chromaAt(buf, col, row)

			i := (row*buf.Width + col) * 3
			if !ok {
				// Chroma out of range: grayscale for this pixel only.
				rgb[i+0], rgb[i+1], rgb[i+2] = luma, luma, luma
				continue
			}
			fy := float64(luma)
			fu := float64(u) - 128
			fv := float64(v) - 128
			rgb[i+0] = clampByte(fy + 1.402*fv)
			rgb[i+1] = clampByte(fy - 0.344*fu - 0.714*fv)
			rgb[i+2] = clampByte(fy + 1.772*fu)
		}
	}
	return NewRGBBuffer(rgb, buf.Width, buf.Height), true
}

// chromaAt reads the 2x2-subsampled U and V samples for pixel (x, y).
func chromaAt(buf *Buffer, x, y int) (byte, byte, bool) {
	cx, cy := x/2, y/2
	u, ok := planeSample(buf.U, cx, cy)
	if !ok {
		return 0, 0, false
	}
	v, ok := planeSample(buf.V, cx, cy)
	if !ok {
		return 0, 0, false
	}
	return u, v, true
}

func planeSample(p Plane, x, y int) (byte, bool) {
	if p.Data == nil || p.RowStride <= 0 || p.PixelStride <= 0 {
		return 0, false
	}
	idx := y*p.RowStride + x*p.PixelStride
	if idx < 0 || idx >= len(p.Data) {
		return 0, false
	}
	return p.Data[idx], true
}

// rotateBuffer rotates a packed RGB raster clockwise by a multiple of 90
// degrees. Output dimensions swap for 90 and 270.
func rotateBuffer(buf *Buffer, degrees int) (*Buffer, error) {
	degrees = ((degrees % 360) + 360) % 360
	if degrees == 0 {
		return buf, nil
	}
	if degrees%90 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedRotation, degrees)
	}

	img := buf.Image()
	var rotated image.Image
	switch degrees {
	case 90:
		// imaging rotates counter-clockwise; sensor rotation is clockwise.
		rotated = imaging.Rotate270(img)
	case 180:
		rotated = imaging.Rotate180(img)
	case 270:
		rotated = imaging.Rotate90(img)
	}
	return BufferFromImage(rotated), nil
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}
