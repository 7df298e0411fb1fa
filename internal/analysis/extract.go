// Package analysis turns decoded audio into a per-frame feature report.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/olivier-w/spectracast/internal/audio"
	"github.com/olivier-w/spectracast/internal/logging"
	"github.com/olivier-w/spectracast/internal/report"
	"github.com/rs/zerolog"
)

// ErrInvalidFPS reports a non-positive frame rate.
var ErrInvalidFPS = errors.New("fps must be a positive integer")

const progressEvery = 100

// ProgressFunc observes extraction progress. frame increases strictly.
type ProgressFunc func(frame, total int)

// Options control an extraction run.
type Options struct {
	FPS      int
	Source   string // recorded as meta.source (base name only)
	Metadata audio.Metadata
	Progress ProgressFunc
}

// Extractor produces feature reports.
type Extractor struct {
	logger zerolog.Logger
}

// New creates an extractor.
func New(logger zerolog.Logger) *Extractor {
	return &Extractor{logger: logging.WithComponent(logger, "extractor")}
}

// ExtractBytes decodes data and extracts its features. name is used for
// container detection fallback and as meta.source.
func (e *Extractor) ExtractBytes(data []byte, name string, opts Options) (*report.Report, error) {
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFPS, opts.FPS)
	}
	buf, err := audio.Decode(data, name)
	if err != nil {
		return nil, err
	}
	if opts.Source == "" {
		opts.Source = name
	}
	if opts.Metadata == (audio.Metadata{}) {
		opts.Metadata = audio.ReadMetadata(data)
	}
	return e.Extract(context.Background(), buf, opts)
}

// Extract slides a fixed window over the downmixed buffer, one window per
// output frame, and returns the ordered report. Window failures are
// replaced by zero frames; only a cancelled context aborts the run.
func (e *Extractor) Extract(ctx context.Context, buf *audio.Buffer, opts Options) (*report.Report, error) {
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFPS, opts.FPS)
	}
	fps := opts.FPS

	length := buf.Length()
	totalFrames := frameCount(length, buf.SampleRate, fps)
	samplesPerFrame := buf.SampleRate / fps
	mono := buf.Mono()

	e.logger.Info().
		Float64("duration", buf.Duration()).
		Int("sample_rate", buf.SampleRate).
		Int("channels", buf.NumberOfChannels()).
		Int("total_frames", totalFrames).
		Msg("analysing audio")

	a := newAnalyzer()
	frames := make([]report.Frame, totalFrames)
	substituted := 0

	for f := 0; f < totalFrames; f++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		win := a.window(mono, f*samplesPerFrame)
		features, err := a.analyze(win)
		if err != nil {
			e.logger.Debug().Err(err).Int("frame", f).Msg("substituting zero frame")
			features = windowFeatures{spectrum: make([]float64, BinCount)}
			substituted++
		}
		frames[f] = buildFrame(f, fps, features)

		if opts.Progress != nil && (f%progressEvery == 0 || f == totalFrames-1) {
			opts.Progress(f+1, totalFrames)
		}
	}

	if substituted > 0 {
		e.logger.Debug().Int("frames", substituted).Msg("zero frames substituted")
	}

	return &report.Report{
		Meta: report.Meta{
			Source:      filepath.Base(opts.Source),
			Title:       opts.Metadata.Title,
			Artist:      opts.Metadata.Artist,
			Duration:    buf.Duration(),
			FPS:         fps,
			TotalFrames: totalFrames,
			SampleRate:  buf.SampleRate,
			FFTSize:     FFTSize,
			BinCount:    BinCount,
		},
		Frames: frames,
	}, nil
}

// frameCount returns ceil(duration*fps) computed on integers, so that
// rounding in length/sampleRate never adds a frame.
func frameCount(length, sampleRate, fps int) int {
	if length <= 0 || sampleRate <= 0 {
		return 0
	}
	n := int64(length) * int64(fps)
	sr := int64(sampleRate)
	return int((n + sr - 1) / sr)
}

func buildFrame(index, fps int, w windowFeatures) report.Frame {
	bass, mid, treble := bands(w.spectrum)
	spectrum := make([]float64, len(w.spectrum))
	for i, v := range w.spectrum {
		spectrum[i] = round(v, 3)
	}
	return report.Frame{
		Frame:    index,
		Time:     float64(index) / float64(fps),
		Bass:     round(bass, 4),
		Mid:      round(mid, 4),
		Treble:   round(treble, 4),
		RMS:      round(w.rms, 4),
		Spectrum: spectrum,
	}
}
