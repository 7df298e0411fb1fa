// Package engine speaks the line-delimited JSON protocol used to drive a
// render target living in another process.
//
// Each request and response is one JSON object on its own line. Requests
// carry an increasing id; the engine answers every request in order with
// the same id.
package engine

import (
	"encoding/json"
	"fmt"

	"github.com/olivier-w/spectracast/internal/target"
)

// Protocol methods.
const (
	MethodNavigate  = "navigate"
	MethodConfigure = "configure"
	MethodOverlay   = "overlay"
	MethodInject    = "inject"
	MethodRedraw    = "redraw"
	MethodCapture   = "capture"
)

// Request is one call from the orchestrator to the engine.
type Request struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers a Request. Image holds a base64 PNG for capture calls.
type Response struct {
	ID    int64  `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Image string `json:"image,omitempty"`
}

type navigateParams struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type overlayParams struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RemoteError is an error reported by the engine.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("engine %s: %s", e.Method, e.Message)
}

// configFromParams rebuilds a target.Config from the flattened object sent
// with a configure request.
func configFromParams(m map[string]any) target.Config {
	cfg := target.Config{Params: make(map[string]any, len(m))}
	for k, v := range m {
		switch k {
		case "seed":
			if f, ok := v.(float64); ok {
				cfg.Seed = int64(f)
			}
		case "overlaySize":
			if f, ok := v.(float64); ok {
				cfg.OverlaySize = f
			}
		case "overlayPosition":
			if s, ok := v.(string); ok {
				cfg.OverlayPosition = s
			}
		default:
			cfg.Params[k] = v
		}
	}
	return cfg
}
