// Package target defines the contract between the frame render
// orchestrator and a visual engine instance.
package target

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/olivier-w/spectracast/internal/report"
)

// Viewport is the drawable surface size in pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Overlay positions accepted by engines.
const (
	PositionCenter      = "center"
	PositionBottomRight = "bottom-right"
	PositionBottomLeft  = "bottom-left"
	PositionTopRight    = "top-right"
	PositionTopLeft     = "top-left"
)

// ValidPosition reports whether pos is a known overlay position.
func ValidPosition(pos string) bool {
	switch pos {
	case PositionCenter, PositionBottomRight, PositionBottomLeft, PositionTopRight, PositionTopLeft:
		return true
	}
	return false
}

// Config is the explicit engine configuration applied by Reinitialize.
// Params carries preset values the engine understands; the typed fields
// win over same-named params.
type Config struct {
	Seed            int64
	OverlaySize     float64 // fraction of the canvas width
	OverlayPosition string
	Params          map[string]any
}

// Flatten merges Params with the typed fields into a single object, the
// shape external engines receive.
func (c Config) Flatten() map[string]any {
	out := make(map[string]any, len(c.Params)+3)
	for k, v := range c.Params {
		out[k] = v
	}
	out["seed"] = c.Seed
	out["overlaySize"] = c.OverlaySize
	out["overlayPosition"] = c.OverlayPosition
	return out
}

// Float returns the numeric param key, or def when absent or not a number.
func (c Config) Float(key string, def float64) float64 {
	switch v := c.Params[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// String returns the string param key, or def.
func (c Config) String(key, def string) string {
	if v, ok := c.Params[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Overlay is an image embedded in memory and handed to the engine once.
type Overlay struct {
	Name string
	MIME string
	Data []byte
}

// NewOverlay builds an overlay from a file name and its contents.
func NewOverlay(name string, data []byte) Overlay {
	ext := strings.ToLower(filepath.Ext(name))
	typ := mime.TypeByExtension(ext)
	if typ == "" || !strings.HasPrefix(typ, "image/") {
		typ = "image/" + strings.TrimPrefix(ext, ".")
	}
	return Overlay{Name: filepath.Base(name), MIME: typ, Data: data}
}

// DataURL encodes the overlay as a data: URL.
func (o Overlay) DataURL() string {
	return "data:" + o.MIME + ";base64," + base64.StdEncoding.EncodeToString(o.Data)
}

// ParseDataURL is the inverse of DataURL.
func ParseDataURL(u string) (Overlay, error) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return Overlay{}, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Overlay{}, fmt.Errorf("malformed data URL")
	}
	typ, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return Overlay{}, fmt.Errorf("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Overlay{}, fmt.Errorf("decoding data URL: %w", err)
	}
	return Overlay{MIME: typ, Data: data}, nil
}

// Target is one visual engine instance. Calls are made by a single
// goroutine in a fixed order; implementations need not be safe for
// concurrent use.
type Target interface {
	// Navigate loads the visualizer source into a surface of the given size.
	Navigate(ctx context.Context, source string, vp Viewport) error
	// Reinitialize resets engine state with cfg.
	Reinitialize(ctx context.Context, cfg Config) error
	// LoadOverlay hands the engine an image to composite over each frame.
	LoadOverlay(ctx context.Context, ov Overlay) error
	// InjectFrame sets the spectral data the next redraw observes.
	InjectFrame(ctx context.Context, f report.Frame) error
	// Redraw draws exactly one frame.
	Redraw(ctx context.Context) error
	// Capture returns the drawable surface as PNG bytes.
	Capture(ctx context.Context) ([]byte, error)
	// Close releases the engine.
	Close() error
}

// Launcher starts engine instances.
type Launcher interface {
	Launch(ctx context.Context) (Target, error)
}
