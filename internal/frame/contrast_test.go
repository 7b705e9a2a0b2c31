package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCurve_ClipsBelowAndAbove(t *testing.T) {
	c := NewCurve(16, 235, 0.9)
	assert.Equal(t, uint8(0), c.At(0))
	assert.Equal(t, uint8(0), c.At(15))
	assert.Equal(t, uint8(255), c.At(236))
	assert.Equal(t, uint8(255), c.At(255))
}

func TestNewCurve_MidRangeLifts(t *testing.T) {
	c := NewCurve(16, 235, 0.9)
	// Gamma < 1 brightens: a mid-range value never gets darker.
	for v := 16; v <= 235; v++ {
		got := c.At(uint8(v))
		assert.GreaterOrEqual(t, int(got)+curveBandWidth, v,
			"value %d moved outside its band to %d", v, got)
	}
}

func TestNewCurve_DegenerateThresholdsAreIdentity(t *testing.T) {
	c := NewCurve(200, 100, 0.9)
	for v := 0; v < 256; v++ {
		assert.Equal(t, uint8(v), c.At(uint8(v)))
	}
}

func TestNewCurve_InvalidGammaMeansNoLift(t *testing.T) {
	c := NewCurve(16, 235, -2.0)
	assert.Equal(t, uint8(0), c.At(10))
	assert.Equal(t, uint8(255), c.At(250))
}

func TestCurve_Apply(t *testing.T) {
	c := NewCurve(16, 235, 0.9)
	data := []byte{0, 15, 128, 240, 255}
	c.Apply(data)
	assert.Equal(t, byte(0), data[0])
	assert.Equal(t, byte(0), data[1])
	assert.Equal(t, c.At(128), data[2])
	assert.Equal(t, byte(255), data[3])
	assert.Equal(t, byte(255), data[4])
}
