package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files.
	ConfigFileName = "labelscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "LABELSCAN"
)

// Loader handles loading configuration from files, environment variables,
// and defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a configuration loader over the global viper instance
// so cobra flag bindings apply.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads configuration and validates it. A missing config file is fine;
// defaults and environment variables apply.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// SetConfigFile points the loader at an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	if path != "" {
		l.v.SetConfigFile(path)
	}
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
		l.v.AddConfigPath(filepath.Join(home, ".config", "labelscan"))
	}
	l.v.AddConfigPath("/etc/labelscan")
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log_level", "info")
	l.v.SetDefault("verbose", false)

	l.v.SetDefault("pipeline.frame.contrast_low", 16)
	l.v.SetDefault("pipeline.frame.contrast_high", 235)
	l.v.SetDefault("pipeline.frame.contrast_gamma", 0.9)
	l.v.SetDefault("pipeline.frame.enhance_contrast", true)

	l.v.SetDefault("pipeline.detector.confidence_threshold", 0.5)
	l.v.SetDefault("pipeline.detector.iou_threshold", 0.45)
	l.v.SetDefault("pipeline.detector.num_threads", 0)

	l.v.SetDefault("pipeline.extractor.kind", "model")
	l.v.SetDefault("pipeline.extractor.min_confidence", 0.3)
	l.v.SetDefault("pipeline.extractor.num_threads", 0)

	l.v.SetDefault("pipeline.min_interval_ms", 500)
	l.v.SetDefault("pipeline.whole_frame_fallback", true)

	l.v.SetDefault("server.host", "127.0.0.1")
	l.v.SetDefault("server.port", 8080)
	l.v.SetDefault("server.max_upload_mb", 16)
	l.v.SetDefault("server.timeout_sec", 30)
}
