package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration. Its values form the
// built-in defaults layer that preset files and command-line flags
// override.
type Config struct {
	Analyze AnalyzeConfig `yaml:"analyze"`
	Render  RenderConfig  `yaml:"render"`
	Engine  EngineConfig  `yaml:"engine"`
	FFmpeg  FFmpegConfig  `yaml:"ffmpeg"`
}

type AnalyzeConfig struct {
	FPS int `yaml:"fps"`
}

type RenderConfig struct {
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	Visualizer      string  `yaml:"visualizer"`
	Seed            int64   `yaml:"seed"`
	OverlaySize     float64 `yaml:"overlay_size"` // percent of canvas width
	OverlayPosition string  `yaml:"overlay_position"`

	// Settle delays stand in for a completion acknowledgment from the
	// render target. Captures can race an unfinished draw if they are too
	// short for the engine in use.
	NavigateSettle time.Duration `yaml:"navigate_settle"`
	OverlaySettle  time.Duration `yaml:"overlay_settle"`
	RedrawSettle   time.Duration `yaml:"redraw_settle"`

	ProgressEvery int `yaml:"progress_every"`
}

// EngineConfig names an external render engine. An empty command selects
// the built-in visualizer.
type EngineConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type FFmpegConfig struct {
	BinaryPath  string `yaml:"binary_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Analyze: AnalyzeConfig{
			FPS: 60,
		},
		Render: RenderConfig{
			Width:           1920,
			Height:          1080,
			Visualizer:      "vertical-pulse",
			Seed:            42,
			OverlaySize:     20,
			OverlayPosition: "bottom-right",
			NavigateSettle:  500 * time.Millisecond,
			OverlaySettle:   500 * time.Millisecond,
			RedrawSettle:    16 * time.Millisecond,
			ProgressEvery:   10,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath:  "ffmpeg",
			FFprobePath: "ffprobe",
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./spectracast.yaml",
		"./spectracast.yml",
		filepath.Join(os.Getenv("HOME"), ".spectracast", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
