package visualizer

import (
	"image"
	"math/rand"

	"github.com/olivier-w/spectracast/internal/report"
	"github.com/olivier-w/spectracast/internal/target"
)

const defaultWaterfallRows = 120

// Waterfall renders a scrolling spectrogram heatmap, newest row at the top.
type Waterfall struct {
	vp      target.Viewport
	cols    int
	smooth  springField
	history [][]float64
}

func NewWaterfall() *Waterfall {
	return &Waterfall{}
}

func (w *Waterfall) Name() string { return "waterfall" }

func (w *Waterfall) Reset(vp target.Viewport, cfg target.Config, _ *rand.Rand) {
	w.vp = vp
	w.cols = max(int(cfg.Float("columns", 96)), 8)
	rows := max(int(cfg.Float("rows", defaultWaterfallRows)), 1)
	w.smooth = newSpringField(int(cfg.Float("fps", 60)), 8.5, 0.72)
	w.smooth.resize(w.cols)
	w.history = make([][]float64, rows)
	for r := range w.history {
		w.history[r] = make([]float64, w.cols)
	}
}

func (w *Waterfall) Draw(dst *image.RGBA, f report.Frame) {
	line := groupBins(f.Spectrum, w.cols, 0.85)
	for c, goal := range line {
		line[c] = clamp01(w.smooth.step(c, goal))
	}

	rows := len(w.history)
	last := w.history[rows-1]
	copy(w.history[1:], w.history[:rows-1])
	w.history[0] = last
	copy(w.history[0], line)

	fill(dst, heatColor(0))
	width, height := w.vp.Width, w.vp.Height
	for r, row := range w.history {
		y0 := r * height / rows
		y1 := (r + 1) * height / rows
		age := 1 - 0.6*float64(r)/float64(rows)
		for c, v := range row {
			if v <= 0 {
				continue
			}
			x0 := c * width / w.cols
			x1 := (c + 1) * width / w.cols
			fillRect(dst, image.Rect(x0, y0, x1, y1), heatColor(v*age))
		}
	}
}
