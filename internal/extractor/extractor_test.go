package extractor

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/labelscan/internal/detector"
	"github.com/MeKo-Tech/labelscan/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProposer is a scripted text-region proposal backend.
type fakeProposer struct {
	initErr   error
	proposals []detector.Candidate
	closed    bool
}

func (f *fakeProposer) Init() error { return f.initErr }

func (f *fakeProposer) Infer(img image.Image) ([]detector.Candidate, error) {
	return f.proposals, nil
}

func (f *fakeProposer) Close() error {
	f.closed = true
	return nil
}

// fakeRecognizer returns a fixed text and confidence for every crop.
type fakeRecognizer struct {
	initErr    error
	text       string
	confidence float64
	closed     bool
}

func (f *fakeRecognizer) Init() error { return f.initErr }

func (f *fakeRecognizer) Recognize(crop image.Image) (string, float64, error) {
	return f.text, f.confidence, nil
}

func (f *fakeRecognizer) Close() error {
	f.closed = true
	return nil
}

func whiteImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func TestModel_ExtractBeforeInitializeIsEmpty(t *testing.T) {
	m := NewModelWithBackends(DefaultConfig(),
		&fakeProposer{proposals: []detector.Candidate{{Rect: utils.NewRect(0, 0, 10, 10), Score: 0.9}}},
		&fakeRecognizer{text: "hello", confidence: 0.9})
	assert.Empty(t, m.Extract(whiteImage(64, 64), nil))
}

func TestModel_FailedInitLeavesInert(t *testing.T) {
	proposer := &fakeProposer{}
	m := NewModelWithBackends(DefaultConfig(), proposer,
		&fakeRecognizer{initErr: errors.New("missing model")})

	assert.False(t, m.Initialize())
	assert.False(t, m.Initialize())
	// The already-opened proposal backend is released on the failed attempt.
	assert.True(t, proposer.closed)
	assert.Empty(t, m.Extract(whiteImage(64, 64), nil))
}

func TestModel_ExtractReportsFullImageCoordinates(t *testing.T) {
	m := NewModelWithBackends(DefaultConfig(),
		&fakeProposer{proposals: []detector.Candidate{
			{Rect: utils.NewRect(2, 3, 20, 8), Score: 0.9},
		}},
		&fakeRecognizer{text: "SSID: Home", confidence: 0.8})
	require.True(t, m.Initialize())

	region := utils.NewRect(10, 10, 50, 20)
	fragments := m.Extract(whiteImage(100, 100), &region)
	require.Len(t, fragments, 1)
	assert.Equal(t, utils.NewRect(12, 13, 20, 8), fragments[0].Rect)
	assert.Equal(t, "SSID: Home", fragments[0].Text)
	assert.InDelta(t, 0.8, fragments[0].Confidence, 1e-9)
}

func TestModel_NilRegionMeansWholeImage(t *testing.T) {
	m := NewModelWithBackends(DefaultConfig(),
		&fakeProposer{proposals: []detector.Candidate{
			{Rect: utils.NewRect(5, 5, 10, 10), Score: 0.9},
		}},
		&fakeRecognizer{text: "text", confidence: 0.9})
	require.True(t, m.Initialize())

	fragments := m.Extract(whiteImage(40, 40), nil)
	require.Len(t, fragments, 1)
	assert.Equal(t, utils.NewRect(5, 5, 10, 10), fragments[0].Rect)
}

func TestModel_LowConfidenceFragmentsDropped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = 0.5
	m := NewModelWithBackends(cfg,
		&fakeProposer{proposals: []detector.Candidate{
			{Rect: utils.NewRect(0, 0, 10, 10), Score: 0.9},
		}},
		&fakeRecognizer{text: "noise", confidence: 0.2})
	require.True(t, m.Initialize())

	assert.Empty(t, m.Extract(whiteImage(40, 40), nil))
}

func TestModel_ReleaseClosesBackends(t *testing.T) {
	proposer := &fakeProposer{}
	recognizer := &fakeRecognizer{text: "x", confidence: 1}
	m := NewModelWithBackends(DefaultConfig(), proposer, recognizer)
	require.True(t, m.Initialize())

	m.Release()
	assert.True(t, proposer.closed)
	assert.True(t, recognizer.closed)
	assert.Empty(t, m.Extract(whiteImage(40, 40), nil))

	// Safe to call again.
	m.Release()
}

func TestCropRegion_ClampsOrigin(t *testing.T) {
	region := utils.NewRect(-10, -10, 30, 30)
	patch, origin := cropRegion(whiteImage(50, 50), &region)
	assert.Equal(t, utils.NewRect(0, 0, 20, 20), origin)
	assert.Equal(t, 20, patch.Bounds().Dx())
}

func TestFilterFragments(t *testing.T) {
	fragments := []TextFragment{
		{Text: "keep", Confidence: 0.8},
		{Text: "drop", Confidence: 0.1},
	}
	kept := filterFragments(fragments, 0.3)
	require.Len(t, kept, 1)
	assert.Equal(t, "keep", kept[0].Text)
}
