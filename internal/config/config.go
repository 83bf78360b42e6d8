// Package config loads playground settings from YAML.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Theme names accepted in the theme key.
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

// Config holds all playground settings.
type Config struct {
	Window WindowConfig `yaml:"window"`
	Editor EditorConfig `yaml:"editor"`
	Render RenderConfig `yaml:"render"`
	Theme  string       `yaml:"theme"`
	Log    LogConfig    `yaml:"log"`
}

// WindowConfig holds main window settings.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// EditorConfig holds editor pane layout.
type EditorConfig struct {
	Split        float64 `yaml:"split"`         // editor share of the window width
	StatusHeight int     `yaml:"status_height"` // status panel height in points
}

// RenderConfig holds output canvas settings.
type RenderConfig struct {
	FPS         int    `yaml:"fps"`
	GLSLVersion string `yaml:"glsl_version"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only keys present in the file overwrite the defaults.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Editor.Split <= 0 || c.Editor.Split >= 1 {
		errs = append(errs, fmt.Errorf("editor.split must be in (0, 1), got %v", c.Editor.Split))
	}
	if c.Editor.StatusHeight < 0 {
		errs = append(errs, fmt.Errorf("editor.status_height must not be negative, got %d", c.Editor.StatusHeight))
	}
	if c.Render.FPS <= 0 {
		errs = append(errs, fmt.Errorf("render.fps must be positive, got %d", c.Render.FPS))
	}
	if strings.TrimSpace(c.Render.GLSLVersion) == "" {
		errs = append(errs, errors.New("render.glsl_version must be set"))
	}
	switch c.Theme {
	case ThemeSystem, ThemeLight, ThemeDark:
	default:
		errs = append(errs, fmt.Errorf("unknown theme %q", c.Theme))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// SlogLevel maps log.level to a slog level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
