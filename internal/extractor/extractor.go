// Package extractor provides the pluggable two-phase text extraction
// capability: a detect phase proposing rectangles likely to contain text,
// followed by a recognize phase decoding each cropped rectangle. Every
// implementation degrades to an empty result when its backend is
// unavailable; extraction never returns an error to the pipeline.
package extractor

import (
	"image"

	"github.com/MeKo-Tech/labelscan/internal/utils"
)

// TextFragment is one recognized piece of text with its source rectangle in
// full-image coordinates.
type TextFragment struct {
	Rect       utils.Rect `json:"rect"`
	Text       string     `json:"text"`
	Confidence float64    `json:"confidence"`
}

// Extractor is the text extraction capability. Initialize never panics and
// returns false on any setup failure, leaving the extractor in a ready but
// inert state: Extract on an inert extractor deterministically returns an
// empty list. Release frees backend resources and may be called in any
// order relative to other extractors.
type Extractor interface {
	Initialize() bool
	Extract(img image.Image, region *utils.Rect) []TextFragment
	Release()
}

// Config holds configuration shared by extractor implementations.
type Config struct {
	// Kind selects the active implementation: "model" or "heuristic".
	Kind string `mapstructure:"kind" yaml:"kind" json:"kind"`
	// DetectModelPath is the text-region proposal model (model extractor).
	DetectModelPath string `mapstructure:"detect_model_path" yaml:"detect_model_path" json:"detect_model_path"`
	// RecognizeModelPath is the per-crop text decoding model.
	RecognizeModelPath string `mapstructure:"recognize_model_path" yaml:"recognize_model_path" json:"recognize_model_path"`
	// MinConfidence drops fragments below this confidence before returning.
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
	NumThreads    int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// DefaultConfig returns default extraction settings.
func DefaultConfig() Config {
	return Config{
		Kind:          "model",
		MinConfidence: 0.3,
		NumThreads:    0,
	}
}

// New constructs the configured extractor implementation.
func New(config Config) Extractor {
	switch config.Kind {
	case "heuristic":
		return NewHeuristic(config, NewONNXRecognizer(config.RecognizeModelPath, config.NumThreads))
	default:
		return NewModel(config)
	}
}

// cropRegion clamps the crop to image bounds; an empty intersection yields a
// minimal 1x1 placeholder so recognition never sees a zero-sized patch.
// A nil region means the whole image.
func cropRegion(img image.Image, region *utils.Rect) (image.Image, utils.Rect) {
	if region == nil {
		return img, utils.RectFromImage(img.Bounds())
	}
	clamped := region.Clamp(img.Bounds())
	return utils.CropImageRect(img, *region), clamped
}

// filterFragments drops fragments below the confidence floor.
func filterFragments(fragments []TextFragment, minConfidence float64) []TextFragment {
	kept := fragments[:0]
	for _, f := range fragments {
		if f.Confidence >= minConfidence {
			kept = append(kept, f)
		}
	}
	return kept
}
