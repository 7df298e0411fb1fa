package visualizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math/rand"

	"github.com/olivier-w/spectracast/internal/logging"
	"github.com/olivier-w/spectracast/internal/report"
	"github.com/olivier-w/spectracast/internal/target"
	"github.com/rs/zerolog"
)

var (
	errClosed        = errors.New("engine closed")
	errNotNavigated  = errors.New("no visualizer loaded")
	errNotConfigured = errors.New("engine not initialised")
)

// Engine is an in-process render target backed by a Scene.
type Engine struct {
	logger zerolog.Logger

	scene      Scene
	vp         target.Viewport
	canvas     *image.RGBA
	cfg        target.Config
	configured bool

	overlaySrc image.Image // decoded, unscaled
	overlay    image.Image // scaled for the current config

	frame  report.Frame
	closed bool
}

// NewEngine creates an engine with no scene loaded.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logging.WithComponent(logger, "visualizer")}
}

// Launcher starts in-process engines.
type Launcher struct {
	Logger zerolog.Logger
}

func (l Launcher) Launch(ctx context.Context) (target.Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewEngine(l.Logger), nil
}

func (e *Engine) Navigate(ctx context.Context, source string, vp target.Viewport) error {
	if e.closed {
		return errClosed
	}
	if vp.Width <= 0 || vp.Height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", vp.Width, vp.Height)
	}
	scene, ok := Lookup(source)
	if !ok {
		return fmt.Errorf("unknown built-in visualizer %q (available: %v); external visualizers need an engine command", source, Names())
	}
	e.scene = scene
	e.vp = vp
	e.canvas = image.NewRGBA(image.Rect(0, 0, vp.Width, vp.Height))
	e.configured = false
	e.logger.Debug().Str("scene", scene.Name()).Int("width", vp.Width).Int("height", vp.Height).Msg("scene loaded")
	return nil
}

func (e *Engine) Reinitialize(ctx context.Context, cfg target.Config) error {
	if e.closed {
		return errClosed
	}
	if e.scene == nil {
		return errNotNavigated
	}
	e.cfg = cfg
	e.scene.Reset(e.vp, cfg, rand.New(rand.NewSource(cfg.Seed)))
	e.frame = report.Frame{}
	e.configured = true
	if e.overlaySrc != nil {
		e.overlay = scaleOverlay(e.overlaySrc, e.vp, cfg.OverlaySize)
	}
	return nil
}

func (e *Engine) LoadOverlay(ctx context.Context, ov target.Overlay) error {
	if e.closed {
		return errClosed
	}
	if !e.configured {
		return errNotConfigured
	}
	img, err := decodeOverlay(ov)
	if err != nil {
		return err
	}
	e.overlaySrc = img
	e.overlay = scaleOverlay(img, e.vp, e.cfg.OverlaySize)
	return nil
}

func (e *Engine) InjectFrame(ctx context.Context, f report.Frame) error {
	if e.closed {
		return errClosed
	}
	e.frame = f
	return nil
}

func (e *Engine) Redraw(ctx context.Context) error {
	if e.closed {
		return errClosed
	}
	if !e.configured {
		return errNotConfigured
	}
	e.scene.Draw(e.canvas, e.frame)
	compositeOverlay(e.canvas, e.overlay, e.vp, e.cfg.OverlayPosition)
	return nil
}

func (e *Engine) Capture(ctx context.Context) ([]byte, error) {
	if e.closed {
		return nil, errClosed
	}
	if e.canvas == nil {
		return nil, errNotNavigated
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, e.canvas); err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases the canvas. It is safe to call more than once.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.canvas = nil
	e.overlay = nil
	e.overlaySrc = nil
	return nil
}
