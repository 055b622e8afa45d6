package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/volchara/engine/core"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 600 {
		t.Errorf("window %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Renderer.MaxTextures != 64 || cfg.Renderer.MaxLights != 32 || cfg.Renderer.FramesInFlight != 2 {
		t.Errorf("renderer %+v", cfg.Renderer)
	}
	if cfg.Renderer.InitialBufferSize != 8*1024*1024 {
		t.Errorf("initial buffer size %d", cfg.Renderer.InitialBufferSize)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *Default() {
		t.Error("empty path did not return defaults")
	}
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"engine.toml", "[window]\ntitle = \"solar\"\nwidth = 1280\n\n[camera]\nspeed = 2.5\n"},
		{"engine.yaml", "window:\n  title: solar\n  width: 1280\ncamera:\n  speed: 2.5\n"},
		{"engine.yml", "window:\n  title: solar\n  width: 1280\ncamera:\n  speed: 2.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.name, tt.contents))
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Window.Title != "solar" || cfg.Window.Width != 1280 || cfg.Camera.Speed != 2.5 {
				t.Errorf("overrides not applied: %+v %+v", cfg.Window, cfg.Camera)
			}
			// Keys missing from the file keep their defaults.
			if cfg.Window.Height != 600 || cfg.Renderer.FramesInFlight != 2 {
				t.Errorf("defaults lost: %+v %+v", cfg.Window, cfg.Renderer)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(writeFile(t, "engine.ini", "width=1")); !errors.Is(err, core.ErrUnknownExtension) {
		t.Errorf("ini: got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file accepted")
	}
	if _, err := Load(writeFile(t, "bad.toml", "[renderer]\nframes_in_flight = 4\n")); err == nil {
		t.Error("invalid frames in flight accepted")
	}
	if _, err := Load(writeFile(t, "typo.yaml", "windwo:\n  width: 10\n")); err == nil {
		t.Error("unknown key accepted")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"no frames in flight", func(c *Config) { c.Renderer.FramesInFlight = 0 }},
		{"no textures", func(c *Config) { c.Renderer.MaxTextures = 0 }},
		{"no buffer", func(c *Config) { c.Renderer.InitialBufferSize = 0 }},
		{"no resources", func(c *Config) { c.Paths.Resources = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("accepted")
			}
		})
	}
}
