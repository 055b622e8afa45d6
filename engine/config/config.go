package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/volchara/engine/core"
	"gopkg.in/yaml.v3"
)

type Window struct {
	Title          string `toml:"title" yaml:"title"`
	Width          uint32 `toml:"width" yaml:"width"`
	Height         uint32 `toml:"height" yaml:"height"`
	CursorDisabled bool   `toml:"cursor_disabled" yaml:"cursor_disabled"`
}

type Renderer struct {
	MaxTextures    int  `toml:"max_textures" yaml:"max_textures"`
	MaxLights      int  `toml:"max_lights" yaml:"max_lights"`
	FramesInFlight int  `toml:"frames_in_flight" yaml:"frames_in_flight"`
	MaxFramerate   int  `toml:"max_framerate" yaml:"max_framerate"`
	Validation     bool `toml:"validation" yaml:"validation"`
	// Initial size of the device local vertex and index buffers.
	InitialBufferSize uint64 `toml:"initial_buffer_size" yaml:"initial_buffer_size"`
	// RGBA, used to clear the swapchain image.
	ClearColor [4]float32 `toml:"clear_color" yaml:"clear_color"`
}

type Camera struct {
	Speed       float32 `toml:"speed" yaml:"speed"`
	Sensitivity float32 `toml:"sensitivity" yaml:"sensitivity"`
}

type Paths struct {
	Resources      string `toml:"resources" yaml:"resources"`
	DefaultTexture string `toml:"default_texture" yaml:"default_texture"`
}

type Log struct {
	Level      string `toml:"level" yaml:"level"`
	File       string `toml:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `toml:"compress" yaml:"compress"`
}

type Assets struct {
	HotReload bool `toml:"hot_reload" yaml:"hot_reload"`
}

type Config struct {
	Window   Window   `toml:"window" yaml:"window"`
	Renderer Renderer `toml:"renderer" yaml:"renderer"`
	Camera   Camera   `toml:"camera" yaml:"camera"`
	Paths    Paths    `toml:"paths" yaml:"paths"`
	Log      Log      `toml:"log" yaml:"log"`
	Assets   Assets   `toml:"assets" yaml:"assets"`
}

func Default() *Config {
	return &Config{
		Window: Window{
			Title:          "volchara",
			Width:          800,
			Height:         600,
			CursorDisabled: true,
		},
		Renderer: Renderer{
			MaxTextures:       64,
			MaxLights:         32,
			FramesInFlight:    2,
			MaxFramerate:      60,
			InitialBufferSize: 8 << 20,
			ClearColor:        [4]float32{0, 0, 0, 1},
		},
		Camera: Camera{
			Speed:       1.0,
			Sensitivity: 1.0,
		},
		Paths: Paths{
			Resources:      "resources",
			DefaultTexture: "textures/uv.png",
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Assets: Assets{
			HotReload: true,
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document is not an error, it just keeps the defaults.
		if err = dec.Decode(cfg); errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return nil, fmt.Errorf("config %s: %w", path, core.ErrUnknownExtension)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width == 0 || c.Window.Height == 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Renderer.FramesInFlight < 1 || c.Renderer.FramesInFlight > 3 {
		errs = append(errs, fmt.Errorf("frames in flight %d must be between 1 and 3", c.Renderer.FramesInFlight))
	}
	if c.Renderer.MaxTextures <= 0 {
		errs = append(errs, fmt.Errorf("max textures %d must be positive", c.Renderer.MaxTextures))
	}
	if c.Renderer.MaxLights <= 0 {
		errs = append(errs, fmt.Errorf("max lights %d must be positive", c.Renderer.MaxLights))
	}
	if c.Renderer.MaxFramerate < 0 {
		errs = append(errs, fmt.Errorf("max framerate %d must not be negative", c.Renderer.MaxFramerate))
	}
	if c.Renderer.InitialBufferSize == 0 {
		errs = append(errs, errors.New("initial buffer size must be positive"))
	}
	if c.Paths.Resources == "" {
		errs = append(errs, errors.New("resource directory is empty"))
	}
	return errors.Join(errs...)
}

// LogOptions maps the log section onto the logger options.
func (c *Config) LogOptions() core.LogOptions {
	return core.LogOptions{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}
