package extractor

import (
	"image"
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/labelscan/internal/detector"
	"github.com/MeKo-Tech/labelscan/internal/utils"
)

// Model is the on-device-model-backed extractor: an ONNX text-region
// proposal model for the detect phase and an ONNX recognition model for the
// recognize phase.
type Model struct {
	config     Config
	proposer   detector.Backend
	recognizer Recognizer

	mu          sync.Mutex
	initialized bool
	initTried   bool
}

// NewModel creates a model extractor from the configured model paths.
func NewModel(config Config) *Model {
	return &Model{
		config:     config,
		proposer:   detector.NewONNXBackend(config.DetectModelPath, config.NumThreads),
		recognizer: NewONNXRecognizer(config.RecognizeModelPath, config.NumThreads),
	}
}

// NewModelWithBackends creates a model extractor over explicit backends.
func NewModelWithBackends(config Config, proposer detector.Backend, recognizer Recognizer) *Model {
	return &Model{config: config, proposer: proposer, recognizer: recognizer}
}

// Initialize prepares both backends. Any setup failure leaves the extractor
// inert and returns false; it never panics. Repeated calls are no-ops.
func (m *Model) Initialize() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initTried {
		return m.initialized
	}
	m.initTried = true
	if m.proposer == nil || m.recognizer == nil {
		slog.Warn("model extractor missing backends")
		return false
	}
	if err := m.proposer.Init(); err != nil {
		slog.Warn("text proposal backend unavailable", "error", err)
		return false
	}
	if err := m.recognizer.Init(); err != nil {
		slog.Warn("text recognition backend unavailable", "error", err)
		_ = m.proposer.Close()
		return false
	}
	m.initialized = true
	slog.Debug("model extractor initialized",
		"detect_model", m.config.DetectModelPath, "recognize_model", m.config.RecognizeModelPath)
	return true
}

// Extract proposes text rectangles within the region (or the whole image
// when region is nil) and recognizes each proposed crop. An inert extractor
// returns an empty list. Fragments are reported in full-image coordinates
// and filtered by the configured minimum confidence.
func (m *Model) Extract(img image.Image, region *utils.Rect) []TextFragment {
	m.mu.Lock()
	ready := m.initialized
	m.mu.Unlock()
	if !ready || img == nil {
		return nil
	}

	patch, origin := cropRegion(img, region)
	proposals, err := m.proposer.Infer(patch)
	if err != nil {
		slog.Warn("text proposal inference failed, treating as no text", "error", err)
		return nil
	}
	if len(proposals) == 0 {
		return nil
	}

	fragments := make([]TextFragment, 0, len(proposals))
	for _, p := range proposals {
		crop := utils.CropImageRect(patch, p.Rect)
		text, confidence, err := m.recognizer.Recognize(crop)
		if err != nil {
			slog.Warn("text recognition failed for proposal", "error", err)
			continue
		}
		if text == "" {
			continue
		}
		fragments = append(fragments, TextFragment{
			Rect: utils.NewRect(
				origin.X+p.Rect.X,
				origin.Y+p.Rect.Y,
				p.Rect.Width,
				p.Rect.Height,
			),
			Text:       text,
			Confidence: confidence,
		})
	}
	return filterFragments(fragments, m.config.MinConfidence)
}

// Release frees both backends. Safe to call more than once and in any order
// relative to other extractors.
func (m *Model) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return
	}
	m.initialized = false
	if err := m.proposer.Close(); err != nil {
		slog.Warn("failed to close text proposal backend", "error", err)
	}
	if err := m.recognizer.Close(); err != nil {
		slog.Warn("failed to close text recognition backend", "error", err)
	}
}
