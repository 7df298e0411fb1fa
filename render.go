package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/spectracast/internal/config"
	"github.com/olivier-w/spectracast/internal/engine"
	"github.com/olivier-w/spectracast/internal/logging"
	"github.com/olivier-w/spectracast/internal/render"
	"github.com/olivier-w/spectracast/internal/target"
	"github.com/olivier-w/spectracast/internal/ui"
	"github.com/olivier-w/spectracast/internal/visualizer"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var renderFlags struct {
	res         string
	width       int
	height      int
	visualizer  string
	preset      string
	seed        int64
	start       int
	end         int
	overlay     string
	overlaySize float64
	overlayPos  string
	engine      string
	tui         bool
}

var renderCmd = &cobra.Command{
	Use:   "render <report.json> <output-dir>",
	Short: "Render one PNG per report frame",
	Long: fmt.Sprintf(`Drive a visual engine through a feature report, capturing one frame_NNNNNN.png
per frame into output-dir.

Resolution presets: %s.
Built-in visualizers: %s. Any other --visualizer value is passed to the
external engine named by --engine or engine.command.`,
		strings.Join(render.ResolutionNames(), ", "), strings.Join(visualizer.Names(), ", ")),
	Args: cobra.ExactArgs(2),
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderFlags.res, "res", "", "resolution preset (youtube, tiktok, square, 4k, ...)")
	f.IntVar(&renderFlags.width, "width", 1920, "canvas width")
	f.IntVar(&renderFlags.height, "height", 1080, "canvas height")
	f.StringVar(&renderFlags.visualizer, "visualizer", "", "built-in visualizer name or engine source")
	f.StringVar(&renderFlags.preset, "preset", "", "preset file (JSON or YAML)")
	f.Int64Var(&renderFlags.seed, "seed", 42, "random seed (overrides preset)")
	f.IntVar(&renderFlags.start, "start", 0, "first frame")
	f.IntVar(&renderFlags.end, "end", -1, "end frame, exclusive (-1 = all)")
	f.StringVar(&renderFlags.overlay, "overlay", "", "overlay image (logo, etc.)")
	f.Float64Var(&renderFlags.overlaySize, "overlay-size", 20, "overlay width as percent of the canvas")
	f.StringVar(&renderFlags.overlayPos, "overlay-pos", "bottom-right", "center, bottom-right, bottom-left, top-right, top-left")
	f.StringVar(&renderFlags.engine, "engine", "", "external engine command (default: engine.command or built-in)")
	f.BoolVar(&renderFlags.tui, "tui", false, "full-screen progress view")
}

// renderOverrides collects the flags the user actually set.
func renderOverrides(cmd *cobra.Command) render.Flags {
	changed := cmd.Flags().Changed
	fl := render.Flags{
		Res:     renderFlags.res,
		Preset:  renderFlags.preset,
		Start:   renderFlags.start,
		End:     renderFlags.end,
		Overlay: renderFlags.overlay,
	}
	if changed("width") {
		fl.Width = &renderFlags.width
	}
	if changed("height") {
		fl.Height = &renderFlags.height
	}
	if changed("visualizer") {
		fl.Visualizer = &renderFlags.visualizer
	}
	if changed("seed") {
		fl.Seed = &renderFlags.seed
	}
	if changed("overlay-size") {
		fl.OverlaySize = &renderFlags.overlaySize
	}
	if changed("overlay-pos") {
		fl.OverlayPos = &renderFlags.overlayPos
	}
	return fl
}

func launcherFor(cfg *config.Config) target.Launcher {
	command, args := cfg.Engine.Command, cfg.Engine.Args
	if fields := strings.Fields(renderFlags.engine); len(fields) > 0 {
		command, args = fields[0], fields[1:]
	}
	if command == "" {
		return visualizer.Launcher{Logger: log.Logger}
	}
	return engine.Launcher{Command: command, Args: args, Logger: log.Logger}
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := config.FromContext(cmd.Context())
	reportPath, outDir := args[0], args[1]

	if _, err := os.Stat(reportPath); err != nil {
		return fmt.Errorf("%w: report: %v", render.ErrConfig, err)
	}

	job, err := render.Resolve(cfg.Render, renderOverrides(cmd))
	if err != nil {
		return err
	}
	if job.Preset != "" {
		log.Info().Str("preset", job.Preset).Msg("loaded preset")
	}

	orch := render.NewOrchestrator(reportPath, outDir, job, launcherFor(cfg), log.Logger)
	orch.Settle = render.Settle{
		Navigate: cfg.Render.NavigateSettle,
		Overlay:  cfg.Render.OverlaySettle,
		Redraw:   cfg.Render.RedrawSettle,
	}
	if cfg.Render.ProgressEvery > 0 {
		orch.ProgressEvery = cfg.Render.ProgressEvery
	}

	var res *render.Result
	if renderFlags.tui {
		res, err = renderWithTUI(cmd.Context(), orch, filepath.Base(reportPath))
	} else {
		printer := ui.NewPrinter(os.Stdout)
		orch.Progress = printer.Render
		res, err = orch.Run(cmd.Context())
		printer.Done()
	}
	if err != nil {
		return err
	}

	fmt.Print(ui.RenderSummary(res))
	return nil
}

func renderWithTUI(ctx context.Context, orch *render.Orchestrator, title string) (*render.Result, error) {
	// lifecycle logs would tear the full-screen view
	logging.Init(verbose, true)

	m := ui.NewRender(ctx, title, func(ctx context.Context, progress func(render.Progress)) (*render.Result, error) {
		orch.Progress = progress
		return orch.Run(ctx)
	})
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	rm, ok := final.(ui.RenderModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type from render view")
	}
	rm.Wait()
	out := rm.Result()
	return out.Result, out.Err
}
