package detector

import (
	"image"
	"log/slog"
	"sync"
)

// Config holds configuration for region detection.
type Config struct {
	ModelPath           string  `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold" json:"confidence_threshold"`
	IoUThreshold        float64 `mapstructure:"iou_threshold" yaml:"iou_threshold" json:"iou_threshold"`
	NumThreads          int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// DefaultConfig returns default detection settings.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.5,
		IoUThreshold:        0.45,
		NumThreads:          0,
	}
}

// Detector finds candidate regions of interest in a frame. It delegates raw
// candidate generation to a localization backend and applies confidence
// filtering and greedy NMS on top. A detector whose backend could not be
// initialized stays usable and reports no regions.
type Detector struct {
	config  Config
	backend Backend

	mu          sync.Mutex
	initialized bool
	initTried   bool
}

// New creates a detector over the given backend.
func New(config Config, backend Backend) *Detector {
	return &Detector{config: config, backend: backend}
}

// Initialize prepares the backend. It is idempotent and never panics;
// an unreachable backend yields false. A failed attempt is not retried.
func (d *Detector) Initialize() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initTried {
		return d.initialized
	}
	d.initTried = true
	if d.backend == nil {
		slog.Warn("region detector has no backend configured")
		return false
	}
	if err := d.backend.Init(); err != nil {
		slog.Warn("region detector backend unavailable", "error", err)
		return false
	}
	d.initialized = true
	slog.Debug("region detector initialized", "model_path", d.config.ModelPath)
	return true
}

// Ready reports whether the backend initialized successfully.
func (d *Detector) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

// Detect returns confidence-filtered, NMS-reduced regions for the image.
// An uninitialized or failing backend yields an empty list, never an error;
// the orchestrator may still fall back to whole-frame extraction.
func (d *Detector) Detect(img image.Image) []Region {
	if !d.Ready() || img == nil {
		return nil
	}

	candidates, err := d.backend.Infer(img)
	if err != nil {
		slog.Warn("localization inference failed, treating as zero candidates", "error", err)
		return nil
	}

	regions := make([]Region, 0, len(candidates))
	for _, c := range candidates {
		if c.Score < d.config.ConfidenceThreshold {
			continue
		}
		regions = append(regions, Region{
			Rect:  c.Rect,
			Score: c.Score,
			Label: ClassLabel(c.ClassID),
		})
	}

	kept := NonMaxSuppression(regions, d.config.IoUThreshold)
	slog.Debug("region detection completed",
		"candidates", len(candidates), "filtered", len(regions), "kept", len(kept))
	return kept
}

// Close releases backend resources. Safe to call more than once.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.backend == nil || !d.initialized {
		return nil
	}
	d.initialized = false
	return d.backend.Close()
}
