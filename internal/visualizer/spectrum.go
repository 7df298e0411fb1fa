package visualizer

import (
	"image"
	"math"
	"math/rand"

	"github.com/olivier-w/spectracast/internal/report"
	"github.com/olivier-w/spectracast/internal/target"
)

const defaultSpectrumBands = 32

// Spectrum renders the frequency spectrum as vertical bars rising from the
// bottom edge, grouped into logarithmic bands with exponential smoothing.
type Spectrum struct {
	vp    target.Viewport
	bands []float64
	decay float64
}

// NewSpectrum creates a new spectrum scene.
func NewSpectrum() *Spectrum {
	return &Spectrum{}
}

func (s *Spectrum) Name() string { return "spectrum" }

func (s *Spectrum) Reset(vp target.Viewport, cfg target.Config, _ *rand.Rand) {
	s.vp = vp
	n := int(cfg.Float("bands", defaultSpectrumBands))
	if n < 2 {
		n = 2
	}
	s.bands = make([]float64, n)
	s.decay = clamp01(cfg.Float("decay", 0.3))
}

func (s *Spectrum) Draw(dst *image.RGBA, f report.Frame) {
	fill(dst, heatColor(0))

	n := len(s.bands)
	maxBin := len(f.Spectrum)
	for b := range n {
		// Logarithmic band boundaries
		lo := int(math.Pow(float64(maxBin), float64(b)/float64(n)))
		hi := int(math.Pow(float64(maxBin), float64(b+1)/float64(n)))
		if lo < 1 {
			lo = 1
		}
		if hi <= lo {
			hi = lo + 1
		}
		if hi > maxBin {
			hi = maxBin
		}

		var mag float64
		if lo < hi {
			sum := 0.0
			for i := lo; i < hi; i++ {
				sum += f.Spectrum[i]
			}
			mag = sum / float64(hi-lo)
		}
		s.bands[b] = s.bands[b]*s.decay + mag*(1-s.decay)
	}

	w, h := s.vp.Width, s.vp.Height
	colW := w / n
	gap := max(colW/6, 1)
	for b, level := range s.bands {
		bh := int(clamp01(level) * float64(h) * 0.9)
		x := b * colW
		fillRect(dst, image.Rect(x+gap, h-bh, x+colW-gap, h), heatColor(level))
	}
}
