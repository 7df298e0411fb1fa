package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// FFTSize is the analysis window length in samples.
	FFTSize = 256
	// BinCount is the number of amplitude bins kept per window.
	BinCount = FFTSize / 2

	// normFloor bounds the normalisation divisor away from zero so a silent
	// window yields an all-zero spectrum.
	normFloor = 0.001
)

// ErrWindow reports that one window's features could not be computed. The
// extractor substitutes a zero frame and continues.
var ErrWindow = errors.New("window feature computation failed")

// windowFeatures is the unrounded analysis of one window.
type windowFeatures struct {
	spectrum []float64 // normalised, len BinCount
	rms      float64
}

// analyzer holds the reusable FFT plan and scratch buffers for one
// extraction run.
type analyzer struct {
	fft    *fourier.FFT
	hann   []float64
	buf    []float64
	coeffs []complex128
}

func newAnalyzer() *analyzer {
	hann := make([]float64, FFTSize)
	for i := range hann {
		hann[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(FFTSize-1)))
	}
	return &analyzer{
		fft:  fourier.NewFFT(FFTSize),
		hann: hann,
		buf:  make([]float64, FFTSize),
	}
}

// window copies FFTSize samples of mono starting at start into the scratch
// buffer, zero-padding past the end.
func (a *analyzer) window(mono []float64, start int) []float64 {
	for i := range a.buf {
		idx := start + i
		if idx >= 0 && idx < len(mono) {
			a.buf[i] = mono[idx]
		} else {
			a.buf[i] = 0
		}
	}
	return a.buf
}

// analyze computes the normalised amplitude spectrum and rms of a window.
func (a *analyzer) analyze(win []float64) (features windowFeatures, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrWindow, r)
		}
	}()

	var sumSq float64
	for i, v := range win {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return windowFeatures{}, fmt.Errorf("%w: non-finite sample at offset %d", ErrWindow, i)
		}
		w := v * a.hann[i]
		a.buf[i] = w
		sumSq += w * w
	}

	a.coeffs = a.fft.Coefficients(a.coeffs, a.buf)

	spectrum := make([]float64, BinCount)
	maxAmp := normFloor
	for k := range spectrum {
		amp := math.Hypot(real(a.coeffs[k]), imag(a.coeffs[k]))
		spectrum[k] = amp
		if amp > maxAmp {
			maxAmp = amp
		}
	}
	for k, v := range spectrum {
		spectrum[k] = math.Min(v/maxAmp, 1)
	}

	rms := math.Sqrt(sumSq / float64(len(win)))
	return windowFeatures{spectrum: spectrum, rms: clamp01(rms)}, nil
}

// bands averages the normalised spectrum over the bass, mid and treble
// ranges [0,bassEnd), [bassEnd,midEnd), [midEnd,binCount).
func bands(spectrum []float64) (bass, mid, treble float64) {
	n := len(spectrum)
	bassEnd := n / 10
	midEnd := n / 2
	return mean(spectrum[:bassEnd]), mean(spectrum[bassEnd:midEnd]), mean(spectrum[midEnd:])
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
