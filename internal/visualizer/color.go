package visualizer

import (
	"image/color"
	"math"
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	t = clamp01(t)
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: 255,
	}
}

func rgbFromHSV(h, s, v float64) color.RGBA {
	h = math.Mod(h, 1)
	if h < 0 {
		h += 1
	}
	s = clamp01(s)
	v = clamp01(v)

	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}

func heatColor(t float64) color.RGBA {
	t = clamp01(t)
	switch {
	case t < 0.25:
		return lerpColor(color.RGBA{R: 16, G: 25, B: 70}, color.RGBA{R: 0, G: 174, B: 255}, t/0.25)
	case t < 0.5:
		return lerpColor(color.RGBA{R: 0, G: 174, B: 255}, color.RGBA{R: 20, G: 255, B: 161}, (t-0.25)/0.25)
	case t < 0.75:
		return lerpColor(color.RGBA{R: 20, G: 255, B: 161}, color.RGBA{R: 255, G: 230, B: 92}, (t-0.5)/0.25)
	default:
		return lerpColor(color.RGBA{R: 255, G: 230, B: 92}, color.RGBA{R: 255, G: 80, B: 60}, (t-0.75)/0.25)
	}
}

// withAlpha returns c scaled to premultiplied alpha a.
func withAlpha(c color.RGBA, a float64) color.RGBA {
	a = clamp01(a)
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(255 * a),
	}
}
