package visualizer

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/olivier-w/spectracast/internal/report"
	"github.com/olivier-w/spectracast/internal/target"
)

const (
	defaultPulseBars = 64
	pulseParticles   = 90
)

type particle struct {
	x, y   float64
	vx, vy float64
	size   int
}

// Pulse draws bars mirrored around the horizontal centre line, a disc that
// swells with the bass band and a seeded particle field driven by treble.
type Pulse struct {
	vp        target.Viewport
	bars      int
	hue       float64
	speed     float64
	springs   springField
	particles []particle
	rng       *rand.Rand
}

// NewPulse creates the vertical pulse scene.
func NewPulse() *Pulse {
	return &Pulse{}
}

func (p *Pulse) Name() string { return "vertical-pulse" }

func (p *Pulse) Reset(vp target.Viewport, cfg target.Config, rng *rand.Rand) {
	p.vp = vp
	p.rng = rng
	p.bars = int(cfg.Float("bars", defaultPulseBars))
	if p.bars < 4 {
		p.bars = 4
	}
	p.hue = cfg.Float("hue", 0.55)
	p.speed = cfg.Float("speed", 1)
	if p.speed <= 0 {
		p.speed = 1
	}
	fps := int(cfg.Float("fps", 60))
	p.springs = newSpringField(fps, 6*p.speed, cfg.Float("damping", 0.6))
	p.springs.resize(p.bars)

	p.particles = make([]particle, pulseParticles)
	for i := range p.particles {
		p.particles[i] = particle{
			x:    rng.Float64() * float64(vp.Width),
			y:    rng.Float64() * float64(vp.Height),
			vx:   (rng.Float64() - 0.5) * 2,
			vy:   -0.5 - rng.Float64()*1.5,
			size: 2 + rng.Intn(4),
		}
	}
}

func (p *Pulse) Draw(dst *image.RGBA, f report.Frame) {
	w, h := p.vp.Width, p.vp.Height
	fill(dst, rgbFromHSV(p.hue, 0.6, 0.06+0.06*f.RMS))

	// centre disc
	minDim := min(w, h)
	radius := int(float64(minDim) * (0.08 + 0.14*f.Bass))
	fillCircle(dst, w/2, h/2, radius, withAlpha(rgbFromHSV(p.hue+0.08, 0.5, 0.9), 0.25+0.5*f.Bass))

	// particles
	drift := p.speed * (1 + 3*f.Treble)
	for i := range p.particles {
		pt := &p.particles[i]
		pt.x += pt.vx * drift
		pt.y += pt.vy * drift
		if pt.y < 0 || pt.x < 0 || pt.x >= float64(w) {
			pt.x = p.rng.Float64() * float64(w)
			pt.y = float64(h)
		}
		c := withAlpha(color.RGBA{R: 255, G: 255, B: 255, A: 255}, 0.2+0.6*f.Mid)
		x, y := int(pt.x), int(pt.y)
		fillRect(dst, image.Rect(x, y, x+pt.size, y+pt.size), c)
	}

	// mirrored bars
	levels := groupBins(f.Spectrum, p.bars, 0.75)
	slot := float64(w) / float64(p.bars)
	barW := max(int(slot*0.7), 1)
	maxH := float64(h) * 0.42
	for i, goal := range levels {
		level := clamp01(p.springs.step(i, goal))
		bh := int(level * maxH)
		if bh < 1 {
			continue
		}
		x := int(float64(i)*slot + (slot-float64(barW))/2)
		c := rgbFromHSV(p.hue+0.25*float64(i)/float64(p.bars), 0.75, 0.45+0.55*level)
		fillRect(dst, image.Rect(x, h/2-bh, x+barW, h/2+bh), c)
	}
}
