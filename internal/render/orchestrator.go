package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olivier-w/spectracast/internal/logging"
	"github.com/olivier-w/spectracast/internal/report"
	"github.com/olivier-w/spectracast/internal/target"
	"github.com/rs/zerolog"
)

// State is a step of a render run.
type State int32

const (
	StateInit State = iota
	StateLoadReport
	StateLaunchTarget
	StateNavigate
	StateConfigure
	StateInject
	StateRedraw
	StateWait
	StateCapture
	StateTeardown
	StateDone
	StateFailed
)

var stateNames = [...]string{
	"INIT", "LOAD_REPORT", "LAUNCH_TARGET", "NAVIGATE", "CONFIGURE",
	"INJECT", "REDRAW", "WAIT", "CAPTURE", "TEARDOWN", "DONE", "FAILED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int32(s))
	}
	return stateNames[s]
}

// Settle delays between target calls. The target gives no completion
// acknowledgment, so these are the only guard against capturing a frame
// that is still being drawn.
type Settle struct {
	Navigate time.Duration
	Overlay  time.Duration
	Redraw   time.Duration
}

// Progress is a throughput snapshot. Frame is the index just written.
type Progress struct {
	Frame    int
	Start    int
	End      int
	Rendered int
	Elapsed  time.Duration
	FPS      float64
	ETA      time.Duration
}

// Total is the number of frames in the run.
func (p Progress) Total() int { return p.End - p.Start }

// Result summarises a completed run.
type Result struct {
	Frames    int
	Elapsed   time.Duration
	FPS       float64
	OutputDir string
	MuxHint   string
}

// Orchestrator renders one job. Use it for a single Run.
type Orchestrator struct {
	ReportPath string
	OutputDir  string
	Job        *Job
	Launcher   target.Launcher
	Settle     Settle

	// ProgressEvery sets the reporting interval in frame indices.
	ProgressEvery int
	Progress      func(Progress)
	// Meta, when set, observes the loaded report before launch.
	Meta func(report.Meta)

	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time

	logger zerolog.Logger
	state  atomic.Int32
}

// NewOrchestrator returns an orchestrator with the default settle delays
// and a real clock.
func NewOrchestrator(reportPath, outputDir string, job *Job, launcher target.Launcher, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		ReportPath: reportPath,
		OutputDir:  outputDir,
		Job:        job,
		Launcher:   launcher,
		Settle: Settle{
			Navigate: 500 * time.Millisecond,
			Overlay:  500 * time.Millisecond,
			Redraw:   16 * time.Millisecond,
		},
		ProgressEvery: 10,
		Sleep:         sleepContext,
		Now:           time.Now,
		logger:        logging.WithComponent(logger, "render"),
	}
}

// State returns the current step. It is safe to call from any goroutine.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) enter(s State) {
	o.state.Store(int32(s))
	o.logger.Debug().Stringer("state", s).Msg("state")
}

// Run executes the job. The target is launched once and closed once,
// whether the run succeeds or fails.
func (o *Orchestrator) Run(ctx context.Context) (res *Result, err error) {
	o.enter(StateInit)
	defer func() {
		if err != nil {
			o.enter(StateFailed)
			o.logger.Debug().Err(err).Msg("render failed")
		}
	}()

	o.enter(StateLoadReport)
	rep, err := report.Load(o.ReportPath)
	if err != nil {
		return nil, fmt.Errorf("%w: loading report: %w", ErrConfig, err)
	}
	start, end, err := o.Job.frameRange(len(rep.Frames))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(o.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating output directory: %v", ErrConfig, err)
	}
	if o.Meta != nil {
		o.Meta(rep.Meta)
	}
	o.logger.Info().
		Int("frames", rep.Meta.TotalFrames).
		Int("fps", rep.Meta.FPS).
		Int("start", start).
		Int("end", end).
		Stringer("size", o.Job.Resolution).
		Str("output", o.OutputDir).
		Msg("report loaded")

	o.enter(StateLaunchTarget)
	t, err := o.Launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}
	var closeOnce sync.Once
	teardown := func() {
		closeOnce.Do(func() {
			o.enter(StateTeardown)
			if cerr := t.Close(); cerr != nil {
				o.logger.Warn().Err(cerr).Msg("closing render target")
			}
		})
	}
	defer teardown()

	if err := o.prepare(ctx, t, rep.Meta); err != nil {
		return nil, err
	}

	startTime := o.Now()
	every := max(o.ProgressEvery, 1)
	for f := start; f < end; f++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := o.renderFrame(ctx, t, rep.Frames[f]); err != nil {
			return nil, err
		}
		if o.Progress != nil && (f%every == 0 || f == end-1) {
			o.Progress(o.snapshot(f, start, end, startTime))
		}
	}
	elapsed := o.Now().Sub(startTime)

	teardown()
	o.enter(StateDone)

	res = &Result{
		Frames:    end - start,
		Elapsed:   elapsed,
		FPS:       rate(end-start, elapsed),
		OutputDir: o.OutputDir,
		MuxHint:   MuxHint(rep.Meta.FPS, o.OutputDir),
	}
	o.logger.Info().Int("frames", res.Frames).Dur("elapsed", elapsed).Float64("fps", res.FPS).Msg("render complete")
	return res, nil
}

func (o *Orchestrator) prepare(ctx context.Context, t target.Target, meta report.Meta) error {
	o.enter(StateNavigate)
	vp := target.Viewport{Width: o.Job.Resolution.Width, Height: o.Job.Resolution.Height}
	if err := t.Navigate(ctx, o.Job.Visualizer, vp); err != nil {
		return fmt.Errorf("%w: %w", ErrNavigation, err)
	}
	if err := o.Sleep(ctx, o.Settle.Navigate); err != nil {
		return err
	}

	o.enter(StateConfigure)
	cfg := o.Job.TargetConfig()
	if cfg.Params == nil {
		cfg.Params = map[string]any{}
	}
	if _, ok := cfg.Params["fps"]; !ok {
		cfg.Params["fps"] = meta.FPS
	}
	if err := t.Reinitialize(ctx, cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigure, err)
	}

	if ov := o.Job.Overlay; len(ov.Data) > 0 {
		if err := t.LoadOverlay(ctx, target.NewOverlay(ov.Path, ov.Data)); err != nil {
			return fmt.Errorf("%w: loading overlay: %w", ErrConfigure, err)
		}
		o.logger.Debug().Str("overlay", ov.Path).Msg("overlay delivered")
		if err := o.Sleep(ctx, o.Settle.Overlay); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) renderFrame(ctx context.Context, t target.Target, f report.Frame) error {
	o.enter(StateInject)
	if err := t.InjectFrame(ctx, f); err != nil {
		return fmt.Errorf("%w: injecting frame %d: %w", ErrFrame, f.Frame, err)
	}

	o.enter(StateRedraw)
	if err := t.Redraw(ctx); err != nil {
		return fmt.Errorf("%w: redrawing frame %d: %w", ErrFrame, f.Frame, err)
	}

	o.enter(StateWait)
	if err := o.Sleep(ctx, o.Settle.Redraw); err != nil {
		return err
	}

	o.enter(StateCapture)
	img, err := t.Capture(ctx)
	if err != nil {
		return fmt.Errorf("%w: capturing frame %d: %w", ErrCapture, f.Frame, err)
	}
	path := filepath.Join(o.OutputDir, FrameName(f.Frame))
	if err := os.WriteFile(path, img, 0644); err != nil {
		return fmt.Errorf("%w: writing frame %d: %w", ErrCapture, f.Frame, err)
	}
	return nil
}

func (o *Orchestrator) snapshot(f, start, end int, startTime time.Time) Progress {
	elapsed := o.Now().Sub(startTime)
	rendered := f - start + 1
	fps := rate(rendered, elapsed)
	var eta time.Duration
	if fps > 0 {
		eta = time.Duration(float64(end-f-1) / fps * float64(time.Second))
	}
	return Progress{
		Frame:    f,
		Start:    start,
		End:      end,
		Rendered: rendered,
		Elapsed:  elapsed,
		FPS:      fps,
		ETA:      eta,
	}
}

func rate(frames int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(frames) / elapsed.Seconds()
}

// FrameName is the file name of the raster for frame index i.
func FrameName(i int) string {
	return fmt.Sprintf("frame_%06d.png", i)
}

// MuxHint is a suggested ffmpeg command that muxes the frames in dir with
// the source audio.
func MuxHint(fps int, dir string) string {
	return fmt.Sprintf("ffmpeg -framerate %d -i %s -i AUDIO -c:v libx264 -crf 18 -pix_fmt yuv420p -c:a aac -b:a 320k output.mp4",
		fps, filepath.Join(dir, "frame_%06d.png"))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
