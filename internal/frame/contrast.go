package frame

import "math"

// curveBandWidth bounds how far the mid-range gamma lift can move a value.
// Outputs are pinned inside the band of their input, which makes every
// output a fixed point of the table.
const curveBandWidth = 8

// Curve is a three-piece contrast transfer function applied per channel:
// values below Low are clipped to black, values above High are clipped to
// white, and mid-range values receive a mild gamma lift (gamma < 1
// brightens). Every table output is a fixed point, so re-applying the curve
// at the same thresholds is a no-op; frames that pass through the converter
// more than once do not drift.
type Curve struct {
	Low   uint8
	High  uint8
	Gamma float64
	lut   [256]byte
}

// NewCurve builds a curve for the given thresholds. Degenerate thresholds
// (low >= high) fall back to an identity curve. A gamma outside (0, 1] is
// clamped to 1 (no lift).
func NewCurve(low, high uint8, gamma float64) *Curve {
	c := &Curve{Low: low, High: high, Gamma: gamma}
	if gamma <= 0 || gamma > 1 {
		gamma = 1.0
	}
	if low >= high {
		for i := range c.lut {
			c.lut[i] = byte(i)
		}
		return c
	}

	lo, hi := int(low), int(high)
	for i := range c.lut {
		switch {
		case i < lo:
			c.lut[i] = 0
		case i > hi:
			c.lut[i] = 255
		default:
			c.lut[i] = midLift(i, lo, hi, gamma)
		}
	}
	return c
}

// midLift maps a mid-range value to its band's representative: the gamma
// lift of the band center, constrained to the band and to [lo, hi]. All
// values in a band share one output that lies in the same band, so the
// output maps back to itself.
func midLift(v, lo, hi int, gamma float64) byte {
	band := v / curveBandWidth
	bandLo := band * curveBandWidth
	bandHi := bandLo + curveBandWidth - 1
	center := bandLo + curveBandWidth/2

	lifted := int(math.Round(255 * math.Pow(float64(center)/255, gamma)))
	if min := maxInt(bandLo, lo); lifted < min {
		lifted = min
	}
	if max := minInt(bandHi, hi); lifted > max {
		lifted = max
	}
	return byte(lifted)
}

// Apply transforms a packed RGB raster in place.
func (c *Curve) Apply(rgb []byte) {
	for i, v := range rgb {
		rgb[i] = c.lut[v]
	}
}

// At returns the curve output for a single channel value.
func (c *Curve) At(v uint8) uint8 { return c.lut[v] }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
