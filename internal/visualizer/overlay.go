package visualizer

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/nfnt/resize"
	"github.com/olivier-w/spectracast/internal/target"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// decodeOverlay decodes any registered image format.
func decodeOverlay(ov target.Overlay) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(ov.Data))
	if err != nil {
		return nil, fmt.Errorf("decoding overlay %s: %w", ov.Name, err)
	}
	return img, nil
}

// scaleOverlay resizes img to sizeFraction of the viewport width, keeping
// its aspect ratio.
func scaleOverlay(img image.Image, vp target.Viewport, sizeFraction float64) image.Image {
	if sizeFraction <= 0 {
		return nil
	}
	w := uint(math.Round(float64(vp.Width) * sizeFraction))
	if w == 0 {
		w = 1
	}
	return resize.Resize(w, 0, img, resize.Lanczos3)
}

// overlayOrigin returns the top-left corner for an overlay of size sz at
// position pos, inset by a margin proportional to the short edge.
func overlayOrigin(vp target.Viewport, sz image.Point, pos string) image.Point {
	margin := int(math.Round(float64(min(vp.Width, vp.Height)) * 0.03))
	left := margin
	right := vp.Width - sz.X - margin
	top := margin
	bottom := vp.Height - sz.Y - margin

	switch pos {
	case target.PositionCenter:
		return image.Pt((vp.Width-sz.X)/2, (vp.Height-sz.Y)/2)
	case target.PositionBottomLeft:
		return image.Pt(left, bottom)
	case target.PositionTopRight:
		return image.Pt(right, top)
	case target.PositionTopLeft:
		return image.Pt(left, top)
	default:
		return image.Pt(right, bottom)
	}
}

func compositeOverlay(dst *image.RGBA, img image.Image, vp target.Viewport, pos string) {
	if img == nil {
		return
	}
	b := img.Bounds()
	at := overlayOrigin(vp, b.Size(), pos)
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(b.Size())}, img, b.Min, draw.Over)
}
