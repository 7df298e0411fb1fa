// Package report defines the feature report exchanged between the analyze
// and render stages.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrInvalid reports a report file that does not satisfy the frame
// ordering or shape invariants.
var ErrInvalid = errors.New("invalid feature report")

// Meta describes the source audio and the analysis parameters.
type Meta struct {
	Source      string  `json:"source"`
	Title       string  `json:"title,omitempty"`
	Artist      string  `json:"artist,omitempty"`
	Duration    float64 `json:"duration"`
	FPS         int     `json:"fps"`
	TotalFrames int     `json:"totalFrames"`
	SampleRate  int     `json:"sampleRate"`
	FFTSize     int     `json:"fftSize"`
	BinCount    int     `json:"binCount"`
}

// Frame is the spectral description of one output video frame. All band,
// rms and spectrum values lie in [0, 1].
type Frame struct {
	Frame    int       `json:"frame"`
	Time     float64   `json:"time"`
	Bass     float64   `json:"bass"`
	Mid      float64   `json:"mid"`
	Treble   float64   `json:"treble"`
	RMS      float64   `json:"rms"`
	Spectrum []float64 `json:"spectrum"`
}

// Report is an ordered, contiguous sequence of frames.
type Report struct {
	Meta   Meta    `json:"meta"`
	Frames []Frame `json:"frames"`
}

// Validate checks that frames are indexed 0..totalFrames-1 without gaps and
// that every spectrum has binCount values.
func (r *Report) Validate() error {
	if r.Meta.FPS <= 0 {
		return fmt.Errorf("%w: fps %d", ErrInvalid, r.Meta.FPS)
	}
	if len(r.Frames) != r.Meta.TotalFrames {
		return fmt.Errorf("%w: meta.totalFrames is %d but %d frames present", ErrInvalid, r.Meta.TotalFrames, len(r.Frames))
	}
	for i, f := range r.Frames {
		if f.Frame != i {
			return fmt.Errorf("%w: frame at position %d has index %d", ErrInvalid, i, f.Frame)
		}
		if len(f.Spectrum) != r.Meta.BinCount {
			return fmt.Errorf("%w: frame %d has %d bins, want %d", ErrInvalid, i, len(f.Spectrum), r.Meta.BinCount)
		}
	}
	return nil
}

// Marshal encodes the report as indented JSON. The output is a pure
// function of the report value.
func (r *Report) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write stores the report at path.
func (r *Report) Write(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads and validates a report file.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}
