package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Analyze.FPS != 60 {
		t.Errorf("expected default fps 60, got %d", cfg.Analyze.FPS)
	}
	if cfg.Render.Width != 1920 || cfg.Render.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.Render.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Render.Seed)
	}
	if cfg.Render.OverlaySize != 20 {
		t.Errorf("expected overlay size 20, got %f", cfg.Render.OverlaySize)
	}
	if cfg.Render.RedrawSettle != 16*time.Millisecond {
		t.Errorf("expected 16ms redraw settle, got %v", cfg.Render.RedrawSettle)
	}
	if cfg.Engine.Command != "" {
		t.Errorf("expected built-in engine by default, got %q", cfg.Engine.Command)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Render.Visualizer != "vertical-pulse" {
		t.Fatalf("expected default visualizer, got %q", cfg.Render.Visualizer)
	}
}

func TestLoadOverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectracast.yaml")
	data := []byte("render:\n  redraw_settle: 40ms\n  seed: 9\nengine:\n  command: spectracast\n  args: [engine]\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Render.RedrawSettle != 40*time.Millisecond {
		t.Errorf("expected 40ms, got %v", cfg.Render.RedrawSettle)
	}
	if cfg.Render.Seed != 9 {
		t.Errorf("expected seed 9, got %d", cfg.Render.Seed)
	}
	if cfg.Render.Width != 1920 {
		t.Errorf("expected untouched width 1920, got %d", cfg.Render.Width)
	}
	if cfg.Engine.Command != "spectracast" || len(cfg.Engine.Args) != 1 {
		t.Errorf("unexpected engine config %+v", cfg.Engine)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("render: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Render.OverlayPosition = "top-left"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Render.OverlayPosition != "top-left" {
		t.Fatalf("expected top-left, got %q", got.Render.OverlayPosition)
	}
	if got.Render.OverlaySettle != 500*time.Millisecond {
		t.Fatalf("expected 500ms overlay settle, got %v", got.Render.OverlaySettle)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if cfg := FromContext(context.Background()); cfg.Analyze.FPS != 60 {
		t.Fatalf("expected default config, got %+v", cfg)
	}
	custom := Default()
	custom.Analyze.FPS = 24
	ctx := WithConfig(context.Background(), custom)
	if got := FromContext(ctx); got.Analyze.FPS != 24 {
		t.Fatalf("expected stored config, got fps %d", got.Analyze.FPS)
	}
}
