package ui

import (
	"fmt"
	"strings"

	"github.com/olivier-w/spectracast/internal/render"
	"github.com/olivier-w/spectracast/internal/util"
)

func renderProgressBar(done, total float64, width int) string {
	if width < 10 {
		width = 10
	}
	barWidth := width - 2 // leave some margin

	var ratio float64
	if total > 0 {
		ratio = done / total
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	filled := int(ratio * float64(barWidth))
	return strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
}

// FrameLine is the one-line throughput summary for a render snapshot.
func FrameLine(p render.Progress) string {
	return fmt.Sprintf("Frame %d/%d | %s | ETA: %s", p.Frame, p.End, util.FormatRate(p.FPS), util.FormatDuration(p.ETA))
}

func ratio(p render.Progress) float64 {
	if p.Total() <= 0 {
		return 0
	}
	return float64(p.Rendered) / float64(p.Total())
}
