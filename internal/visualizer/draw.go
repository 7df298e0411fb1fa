package visualizer

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

func fill(dst *image.RGBA, c color.RGBA) {
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	op := draw.Src
	if c.A < 255 {
		op = draw.Over
	}
	draw.Draw(dst, r, &image.Uniform{C: c}, image.Point{}, op)
}

// fillCircle blends a disc of radius r centred on (cx, cy), one row span
// at a time.
func fillCircle(dst *image.RGBA, cx, cy, r int, c color.RGBA) {
	if r <= 0 {
		return
	}
	for dy := -r; dy <= r; dy++ {
		half := int(math.Sqrt(float64(r*r - dy*dy)))
		fillRect(dst, image.Rect(cx-half, cy+dy, cx+half+1, cy+dy+1), c)
	}
}
