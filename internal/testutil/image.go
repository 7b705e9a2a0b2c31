// Package testutil generates synthetic label images and sensor buffers for
// tests. Rendering uses a fixed bitmap font so output is deterministic.
package testutil

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LabelConfig holds configuration for a generated label image.
type LabelConfig struct {
	Lines      []string
	Width      int
	Height     int
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
}

// DefaultLabelConfig returns a router-sticker style label configuration.
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{
		Lines: []string{
			"Network Name (SSID): MyWiFi_5G",
			"Network Key (Password): SecurePass123!",
		},
		Width:      480,
		Height:     160,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
	}
}

// GenerateLabelImage renders the configured text lines onto a blank label.
func GenerateLabelImage(config LabelConfig) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, config.Width, config.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{config.Background}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{config.Foreground},
		Face: config.FontFace,
	}

	lineHeight := config.FontFace.Metrics().Height.Ceil() + 4
	startY := (config.Height - len(config.Lines)*lineHeight) / 2
	for i, line := range config.Lines {
		y := startY + (i+1)*lineHeight
		textWidth := font.MeasureString(config.FontFace, line).Ceil()
		x := (config.Width - textWidth) / 2
		if x < 0 {
			x = 0
		}
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(line)
	}
	return img
}

// CreateTestImage creates a uniformly colored image.
func CreateTestImage(width, height int, backgroundColor color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{backgroundColor}, image.Point{}, draw.Src)
	return img
}

// CreateLabelImage renders the given lines with default colors and size.
func CreateLabelImage(lines ...string) *image.RGBA {
	config := DefaultLabelConfig()
	config.Lines = lines
	return GenerateLabelImage(config)
}
