// Package config loads and validates the labelscan configuration from
// files, environment variables, and defaults.
package config

import (
	"fmt"
	"time"

	"github.com/MeKo-Tech/labelscan/internal/pipeline"
)

// Config is the complete application configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
}

// PipelineConfig mirrors pipeline.Config in file-friendly form.
type PipelineConfig struct {
	Frame     FrameConfig     `mapstructure:"frame" yaml:"frame" json:"frame"`
	Detector  DetectorConfig  `mapstructure:"detector" yaml:"detector" json:"detector"`
	Extractor ExtractorConfig `mapstructure:"extractor" yaml:"extractor" json:"extractor"`

	MinIntervalMs      int  `mapstructure:"min_interval_ms" yaml:"min_interval_ms" json:"min_interval_ms"`
	WholeFrameFallback bool `mapstructure:"whole_frame_fallback" yaml:"whole_frame_fallback" json:"whole_frame_fallback"`
}

// FrameConfig contains frame conversion settings.
type FrameConfig struct {
	ContrastLow     int     `mapstructure:"contrast_low" yaml:"contrast_low" json:"contrast_low"`
	ContrastHigh    int     `mapstructure:"contrast_high" yaml:"contrast_high" json:"contrast_high"`
	ContrastGamma   float64 `mapstructure:"contrast_gamma" yaml:"contrast_gamma" json:"contrast_gamma"`
	EnhanceContrast bool    `mapstructure:"enhance_contrast" yaml:"enhance_contrast" json:"enhance_contrast"`
}

// DetectorConfig contains region detection settings.
type DetectorConfig struct {
	ModelPath           string  `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold" json:"confidence_threshold"`
	IoUThreshold        float64 `mapstructure:"iou_threshold" yaml:"iou_threshold" json:"iou_threshold"`
	NumThreads          int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// ExtractorConfig contains text extraction settings.
type ExtractorConfig struct {
	Kind               string  `mapstructure:"kind" yaml:"kind" json:"kind"`
	DetectModelPath    string  `mapstructure:"detect_model_path" yaml:"detect_model_path" json:"detect_model_path"`
	RecognizeModelPath string  `mapstructure:"recognize_model_path" yaml:"recognize_model_path" json:"recognize_model_path"`
	MinConfidence      float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
	NumThreads         int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string `mapstructure:"host" yaml:"host" json:"host"`
	Port        int    `mapstructure:"port" yaml:"port" json:"port"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec  int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if t := c.Pipeline.Detector.ConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("detector confidence threshold %v out of [0, 1]", t)
	}
	if t := c.Pipeline.Detector.IoUThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("detector IoU threshold %v out of (0, 1]", t)
	}
	if t := c.Pipeline.Extractor.MinConfidence; t < 0 || t > 1 {
		return fmt.Errorf("extractor min confidence %v out of [0, 1]", t)
	}
	switch c.Pipeline.Extractor.Kind {
	case "", "model", "heuristic":
	default:
		return fmt.Errorf("invalid extractor kind: %s", c.Pipeline.Extractor.Kind)
	}
	if c.Pipeline.MinIntervalMs < 0 {
		return fmt.Errorf("min interval %d must be >= 0", c.Pipeline.MinIntervalMs)
	}
	if lo, hi := c.Pipeline.Frame.ContrastLow, c.Pipeline.Frame.ContrastHigh; lo < 0 || hi > 255 || lo > hi {
		return fmt.Errorf("contrast thresholds %d..%d out of range", lo, hi)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

// ToPipelineConfig converts the file-level configuration into the runtime
// pipeline configuration.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Frame.ContrastLow = uint8(c.Pipeline.Frame.ContrastLow)
	cfg.Frame.ContrastHigh = uint8(c.Pipeline.Frame.ContrastHigh)
	cfg.Frame.ContrastGamma = c.Pipeline.Frame.ContrastGamma
	cfg.Frame.EnhanceContrast = c.Pipeline.Frame.EnhanceContrast

	cfg.Detector.ModelPath = c.Pipeline.Detector.ModelPath
	cfg.Detector.ConfidenceThreshold = c.Pipeline.Detector.ConfidenceThreshold
	cfg.Detector.IoUThreshold = c.Pipeline.Detector.IoUThreshold
	cfg.Detector.NumThreads = c.Pipeline.Detector.NumThreads

	cfg.Extractor.Kind = c.Pipeline.Extractor.Kind
	cfg.Extractor.DetectModelPath = c.Pipeline.Extractor.DetectModelPath
	cfg.Extractor.RecognizeModelPath = c.Pipeline.Extractor.RecognizeModelPath
	cfg.Extractor.MinConfidence = c.Pipeline.Extractor.MinConfidence
	cfg.Extractor.NumThreads = c.Pipeline.Extractor.NumThreads

	cfg.MinInterval = time.Duration(c.Pipeline.MinIntervalMs) * time.Millisecond
	cfg.WholeFrameFallback = c.Pipeline.WholeFrameFallback
	return cfg
}
