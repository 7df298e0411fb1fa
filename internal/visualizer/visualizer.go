// Package visualizer is the built-in render engine: it draws spectral
// frames onto an RGBA canvas and captures them as PNG.
package visualizer

import (
	"image"
	"math/rand"
	"strings"

	"github.com/olivier-w/spectracast/internal/report"
	"github.com/olivier-w/spectracast/internal/target"
)

// DefaultScene is drawn when no visualizer is named.
const DefaultScene = "vertical-pulse"

// Scene draws one spectral frame. Scenes may keep state between frames
// and rely on being drawn in frame order.
type Scene interface {
	Name() string
	Reset(vp target.Viewport, cfg target.Config, rng *rand.Rand)
	Draw(dst *image.RGBA, f report.Frame)
}

// Modes returns all available scenes.
func Modes() []Scene {
	return []Scene{
		NewPulse(),
		NewSpectrum(),
		NewWaterfall(),
	}
}

// Lookup returns the scene registered under name. An empty name, or the
// "builtin:" prefix, selects from the built-in set.
func Lookup(name string) (Scene, bool) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "builtin:")
	if name == "" {
		name = DefaultScene
	}
	for _, s := range Modes() {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Names lists the built-in scene names.
func Names() []string {
	modes := Modes()
	names := make([]string, len(modes))
	for i, s := range modes {
		names[i] = s.Name()
	}
	return names
}

// groupBins averages spectrum into n bars over its lower coverage
// fraction, where most musical energy sits.
func groupBins(spectrum []float64, n int, coverage float64) []float64 {
	out := make([]float64, n)
	if len(spectrum) == 0 || n <= 0 {
		return out
	}
	usable := int(float64(len(spectrum)) * coverage)
	if usable < n {
		usable = min(n, len(spectrum))
	}
	for b := range out {
		lo := b * usable / n
		hi := (b + 1) * usable / n
		if hi <= lo {
			hi = lo + 1
		}
		if hi > len(spectrum) {
			hi = len(spectrum)
		}
		if lo >= hi {
			continue
		}
		var sum float64
		for i := lo; i < hi; i++ {
			sum += spectrum[i]
		}
		out[b] = sum / float64(hi-lo)
	}
	return out
}
