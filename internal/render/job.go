// Package render drives a render target through a feature report, one
// captured raster per frame.
package render

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/olivier-w/spectracast/internal/config"
	"github.com/olivier-w/spectracast/internal/preset"
	"github.com/olivier-w/spectracast/internal/target"
)

// Resolution is an output size in pixels.
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string { return fmt.Sprintf("%dx%d", r.Width, r.Height) }

var resolutions = map[string]Resolution{
	"youtube":   {1920, 1080},
	"hd":        {1920, 1080},
	"youtube2k": {2560, 1440},
	"2k":        {2560, 1440},
	"youtube4k": {3840, 2160},
	"4k":        {3840, 2160},
	"tiktok":    {1080, 1920},
	"reels":     {1080, 1920},
	"shorts":    {1080, 1920},
	"instagram": {1080, 1080},
	"square":    {1080, 1080},
	"portrait":  {1080, 1350},
}

// LookupResolution returns the named resolution preset.
func LookupResolution(name string) (Resolution, bool) {
	r, ok := resolutions[name]
	return r, ok
}

// ResolutionNames lists the resolution preset names in sorted order.
func ResolutionNames() []string {
	return slices.Sorted(maps.Keys(resolutions))
}

// Overlay is an image composited over every frame. Data is read once
// during resolution.
type Overlay struct {
	Path     string
	Data     []byte
	Size     float64 // fraction of the canvas width
	Position string
}

// Job is a fully resolved render request. It does not change once Resolve
// returns it.
type Job struct {
	Resolution Resolution
	Visualizer string
	Preset     string
	Params     map[string]any
	Seed       int64
	Start      int
	End        int // exclusive; -1 renders to the last frame
	Overlay    Overlay
}

// TargetConfig is the engine configuration for this job.
func (j *Job) TargetConfig() target.Config {
	return target.Config{
		Seed:            j.Seed,
		OverlaySize:     j.Overlay.Size,
		OverlayPosition: j.Overlay.Position,
		Params:          maps.Clone(j.Params),
	}
}

// frameRange clamps the job's range to a report with total frames.
func (j *Job) frameRange(total int) (int, int, error) {
	end := j.End
	if end < 0 || end > total {
		end = total
	}
	if j.Start > end {
		return 0, 0, fmt.Errorf("%w: start frame %d is past end %d", ErrConfig, j.Start, end)
	}
	return j.Start, end, nil
}

// Flags are command-line overrides. Pointer fields are nil unless the user
// set them explicitly.
type Flags struct {
	Res         string
	Width       *int
	Height      *int
	Visualizer  *string
	Preset      string
	Seed        *int64
	Start       int
	End         int
	Overlay     string
	OverlaySize *float64 // percent of the canvas width
	OverlayPos  *string
}

// Resolve merges the configuration layers into a Job. Precedence, lowest
// first: cfg, preset params, explicit flags. A resolution preset wins over
// explicit width and height.
func Resolve(cfg config.RenderConfig, fl Flags) (*Job, error) {
	job := &Job{
		Resolution: Resolution{Width: cfg.Width, Height: cfg.Height},
		Visualizer: cfg.Visualizer,
		Params:     map[string]any{},
		Seed:       cfg.Seed,
		Start:      fl.Start,
		End:        fl.End,
		Overlay: Overlay{
			Size:     cfg.OverlaySize / 100,
			Position: cfg.OverlayPosition,
		},
	}

	if fl.Preset != "" {
		p, err := preset.Load(fl.Preset)
		if err != nil {
			return nil, fmt.Errorf("%w: loading preset: %v", ErrConfig, err)
		}
		job.Preset = p.Name
		applyPreset(job, p.Params)
	}

	switch {
	case fl.Res != "":
		r, ok := LookupResolution(fl.Res)
		if !ok {
			return nil, fmt.Errorf("%w: unknown resolution %q (known: %v)", ErrConfig, fl.Res, ResolutionNames())
		}
		job.Resolution = r
	default:
		if fl.Width != nil {
			job.Resolution.Width = *fl.Width
		}
		if fl.Height != nil {
			job.Resolution.Height = *fl.Height
		}
	}
	if job.Resolution.Width <= 0 || job.Resolution.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid resolution %s", ErrConfig, job.Resolution)
	}

	if fl.Visualizer != nil {
		job.Visualizer = *fl.Visualizer
	}
	if fl.Seed != nil {
		job.Seed = *fl.Seed
	}
	if fl.OverlaySize != nil {
		job.Overlay.Size = *fl.OverlaySize / 100
	}
	if fl.OverlayPos != nil {
		job.Overlay.Position = *fl.OverlayPos
	}

	if job.Start < 0 {
		return nil, fmt.Errorf("%w: start frame %d is negative", ErrConfig, job.Start)
	}
	if job.End >= 0 && job.Start > job.End {
		return nil, fmt.Errorf("%w: start frame %d is past end %d", ErrConfig, job.Start, job.End)
	}
	if !target.ValidPosition(job.Overlay.Position) {
		return nil, fmt.Errorf("%w: unknown overlay position %q", ErrConfig, job.Overlay.Position)
	}
	if job.Overlay.Size <= 0 || job.Overlay.Size > 1 {
		return nil, fmt.Errorf("%w: overlay size must be in (0, 100] percent", ErrConfig)
	}

	if fl.Overlay != "" {
		data, err := os.ReadFile(fl.Overlay)
		if err != nil {
			return nil, fmt.Errorf("%w: reading overlay: %v", ErrConfig, err)
		}
		job.Overlay.Path = fl.Overlay
		job.Overlay.Data = data
	}

	return job, nil
}

// applyPreset copies preset params into the job. seed, overlaySize and
// overlayPosition also replace the typed defaults. overlaySize is a fraction
// of the canvas width; values above 1 are taken as percent, matching
// --overlay-size.
func applyPreset(job *Job, params map[string]any) {
	for k, v := range params {
		job.Params[k] = v
	}
	if v, ok := number(params["seed"]); ok {
		job.Seed = int64(v)
	}
	if v, ok := number(params["overlaySize"]); ok {
		if v > 1 {
			v /= 100
		}
		job.Overlay.Size = v
	}
	if v, ok := params["overlayPosition"].(string); ok && v != "" {
		job.Overlay.Position = v
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
