// Package config loads the optional defaults file of the pit command.
//
// The file is YAML and is looked up at, in order:
//   - the path given with --config, which must exist, or
//   - $XDG_CONFIG_HOME/pit/config.yaml (~/.config/pit/config.yaml), which
//     is used only when present.
//
// Command line flags always override values from the file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cedricshih/pit/pkg/param"
)

// Progress display modes.
const (
	ProgressAuto  = "auto"  // bar on a terminal, lines otherwise
	ProgressBar   = "bar"   // always a bar
	ProgressLines = "lines" // always one line per frame
	ProgressNone  = "none"
)

// Config holds the defaults that flags fall back to.
type Config struct {
	// LogLevel is the logrus level before -v adjustments.
	// Default: warn
	LogLevel string `yaml:"log_level"`

	// Quality is the JPEG quality for MJPEG frames and stills.
	// Default: 95
	Quality int `yaml:"quality"`

	// FPS is the frame rate of time-lapse videos, "num" or "num/den".
	// Default: 24
	FPS string `yaml:"fps"`

	// Codec is the time-lapse video codec, "mjpeg" or "h264".
	// Default: mjpeg
	Codec string `yaml:"codec"`

	// FFmpeg is the ffmpeg binary used by the h264 codec.
	// Default: ffmpeg (looked up in PATH)
	FFmpeg string `yaml:"ffmpeg"`

	// Progress selects how per-frame progress is shown.
	// Default: auto
	Progress string `yaml:"progress"`

	// LabelColor is the default colour of --label text, "#rrggbb[aa]".
	// Default: #ffffff
	LabelColor string `yaml:"label_color"`

	// LabelFont is a TrueType font for labels. Empty selects Go Regular.
	LabelFont string `yaml:"label_font"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		LogLevel:   "warn",
		Quality:    95,
		FPS:        "24",
		Codec:      "mjpeg",
		FFmpeg:     "ffmpeg",
		Progress:   ProgressAuto,
		LabelColor: "#ffffff",
	}
}

// DefaultPath returns the per-user location of the defaults file.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pit", "config.yaml")
}

// Load returns the defaults merged with the file at path. An empty path
// selects DefaultPath, which may be absent.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}

	path = DefaultPath()
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads the file at path on top of the defaults and validates the
// result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Quality < 1 || c.Quality > 100 {
		return errors.Errorf("quality %d out of range 1..100", c.Quality)
	}
	if _, err := param.ParseRational(c.FPS); err != nil {
		return errors.Wrap(err, "fps")
	}
	switch strings.ToLower(c.Codec) {
	case "mjpeg", "h264":
	default:
		return errors.Errorf("codec must be one of: mjpeg, h264")
	}
	switch c.Progress {
	case ProgressAuto, ProgressBar, ProgressLines, ProgressNone:
	default:
		return errors.Errorf("progress must be one of: %s, %s, %s, %s",
			ProgressAuto, ProgressBar, ProgressLines, ProgressNone)
	}
	return nil
}
