// Package pipeline wires frame conversion, region detection, text
// extraction and credential parsing into a single-flight, throttled run
// loop.
package pipeline

import (
	"errors"
	"time"

	"github.com/MeKo-Tech/labelscan/internal/detector"
	"github.com/MeKo-Tech/labelscan/internal/extractor"
	"github.com/MeKo-Tech/labelscan/internal/frame"
	"github.com/MeKo-Tech/labelscan/internal/parser"
)

// Minimum converted-frame dimensions worth processing; anything smaller
// (including the converter's 1x1 placeholder) skips the run.
const (
	minFrameWidth  = 32
	minFrameHeight = 32
)

// Config holds configuration for the pipeline and its components.
type Config struct {
	Frame     frame.Config     `mapstructure:"frame" yaml:"frame" json:"frame"`
	Detector  detector.Config  `mapstructure:"detector" yaml:"detector" json:"detector"`
	Extractor extractor.Config `mapstructure:"extractor" yaml:"extractor" json:"extractor"`

	// MinInterval is the minimum time between run starts; earlier ticks
	// end in StateSkipped.
	MinInterval time.Duration `mapstructure:"min_interval" yaml:"min_interval" json:"min_interval"`
	// WholeFrameFallback runs extraction over the full converted frame
	// when detection yields zero regions.
	WholeFrameFallback bool `mapstructure:"whole_frame_fallback" yaml:"whole_frame_fallback" json:"whole_frame_fallback"`
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Frame:              frame.DefaultConfig(),
		Detector:           detector.DefaultConfig(),
		Extractor:          extractor.DefaultConfig(),
		MinInterval:        500 * time.Millisecond,
		WholeFrameFallback: true,
	}
}

// Builder constructs an Orchestrator with fluent configuration.
type Builder struct {
	cfg       Config
	backend   detector.Backend
	extractor extractor.Extractor
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithDetectorModelPath sets the localization model path.
func (b *Builder) WithDetectorModelPath(path string) *Builder {
	if path != "" {
		b.cfg.Detector.ModelPath = path
	}
	return b
}

// WithExtractorModelPaths sets the text proposal and recognition model paths.
func (b *Builder) WithExtractorModelPaths(detectPath, recognizePath string) *Builder {
	if detectPath != "" {
		b.cfg.Extractor.DetectModelPath = detectPath
	}
	if recognizePath != "" {
		b.cfg.Extractor.RecognizeModelPath = recognizePath
	}
	return b
}

// WithDetectorThresholds sets the detection confidence and NMS IoU
// thresholds (values <= 0 keep the defaults).
func (b *Builder) WithDetectorThresholds(confidence, iou float64) *Builder {
	if confidence > 0 {
		b.cfg.Detector.ConfidenceThreshold = confidence
	}
	if iou > 0 {
		b.cfg.Detector.IoUThreshold = iou
	}
	return b
}

// WithMinInterval sets the inter-run throttle interval.
func (b *Builder) WithMinInterval(d time.Duration) *Builder {
	if d >= 0 {
		b.cfg.MinInterval = d
	}
	return b
}

// WithWholeFrameFallback toggles whole-frame extraction on zero regions.
func (b *Builder) WithWholeFrameFallback(enabled bool) *Builder {
	b.cfg.WholeFrameFallback = enabled
	return b
}

// WithDetectorBackend injects a localization backend, replacing the
// ONNX-backed default. Used by tests and alternative runtimes.
func (b *Builder) WithDetectorBackend(backend detector.Backend) *Builder {
	b.backend = backend
	return b
}

// WithExtractor injects a text extractor, replacing the configured kind.
func (b *Builder) WithExtractor(ex extractor.Extractor) *Builder {
	b.extractor = ex
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks configuration invariants.
func (b *Builder) Validate() error {
	if b.cfg.Detector.ConfidenceThreshold < 0 || b.cfg.Detector.ConfidenceThreshold > 1 {
		return errors.New("detector confidence threshold must be in [0, 1]")
	}
	if b.cfg.Detector.IoUThreshold <= 0 || b.cfg.Detector.IoUThreshold > 1 {
		return errors.New("detector IoU threshold must be in (0, 1]")
	}
	if b.cfg.Extractor.MinConfidence < 0 || b.cfg.Extractor.MinConfidence > 1 {
		return errors.New("extractor minimum confidence must be in [0, 1]")
	}
	if b.cfg.MinInterval < 0 {
		return errors.New("minimum inter-run interval must be >= 0")
	}
	return nil
}

// Build initializes the pipeline components. Backend initialization
// failures are absorbed: the orchestrator runs in degraded mode and
// produces empty results for the affected stages.
func (b *Builder) Build() (*Orchestrator, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	backend := b.backend
	if backend == nil {
		backend = detector.NewONNXBackend(b.cfg.Detector.ModelPath, b.cfg.Detector.NumThreads)
	}
	ex := b.extractor
	if ex == nil {
		ex = extractor.New(b.cfg.Extractor)
	}

	o := &Orchestrator{
		cfg:       b.cfg,
		converter: frame.NewConverter(b.cfg.Frame),
		detector:  detector.New(b.cfg.Detector, backend),
		extractor: ex,
		parser:    parser.New(),
	}
	o.detector.Initialize()
	o.extractor.Initialize()
	return o, nil
}
