package utils

import "image"

// Rect is an axis-aligned rectangle in pixel units. Width and Height are
// always non-negative after construction via NewRect.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRect constructs a Rect, normalizing negative extents to zero.
func NewRect(x, y, w, h int) Rect {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// RectFromImage converts an image.Rectangle to a Rect.
func RectFromImage(r image.Rectangle) Rect {
	r = r.Canon()
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// ToImageRect converts the Rect to an image.Rectangle.
func (r Rect) ToImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Area returns the rectangle area in pixels.
func (r Rect) Area() int { return r.Width * r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Clamp clips the rectangle to the given bounds. The result may be empty.
func (r Rect) Clamp(bounds image.Rectangle) Rect {
	return RectFromImage(r.ToImageRect().Intersect(bounds))
}

// Intersect returns the overlapping rectangle of r and o, which may be empty.
func (r Rect) Intersect(o Rect) Rect {
	return RectFromImage(r.ToImageRect().Intersect(o.ToImageRect()))
}

// IoU computes intersection-over-union of two rectangles. Disjoint
// rectangles yield exactly 0; identical non-empty rectangles yield 1.
func IoU(a, b Rect) float64 {
	inter := a.Intersect(b).Area()
	if inter <= 0 {
		return 0.0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}
