package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Errorf("window = %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Editor.Split != 0.6 {
		t.Errorf("split = %v, want 0.6", cfg.Editor.Split)
	}
	if cfg.Render.GLSLVersion != "330 core" || cfg.Render.FPS != 60 {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Theme != ThemeSystem {
		t.Errorf("theme = %q", cfg.Theme)
	}
}

func TestLoad_OverlayKeepsOtherDefaults(t *testing.T) {
	path := writeFile(t, "theme: dark\nrender:\n  fps: 30\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Theme != ThemeDark || cfg.Render.FPS != 30 {
		t.Errorf("overrides not applied: theme=%q fps=%d", cfg.Theme, cfg.Render.FPS)
	}
	if cfg.Render.GLSLVersion != "330 core" || cfg.Window.Width != 1280 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"split", "editor:\n  split: 1.5\n", "editor.split"},
		{"fps", "render:\n  fps: 0\n", "render.fps"},
		{"theme", "theme: neon\n", "unknown theme"},
		{"level", "log:\n  level: loud\n", "log.level"},
		{"window", "window:\n  width: -1\n", "window size"},
		{"version", "render:\n  glsl_version: \"\"\n", "glsl_version"},
		{"yaml", "window: [", "parsing config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSlogLevel(t *testing.T) {
	level, err := LogConfig{Level: "debug"}.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Fatalf("SlogLevel = %v, %v", level, err)
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Theme = ThemeLight
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *back != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, cfg)
	}
}
