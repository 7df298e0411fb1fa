package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olivier-w/spectracast/internal/analysis"
	"github.com/olivier-w/spectracast/internal/audio"
	"github.com/olivier-w/spectracast/internal/config"
	"github.com/olivier-w/spectracast/internal/downloader"
	"github.com/olivier-w/spectracast/internal/media"
	"github.com/olivier-w/spectracast/internal/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <input|url> <output> [fps]",
	Short: "Extract a per-frame spectral report from an audio file",
	Long: fmt.Sprintf(`Decode an audio file and write a JSON feature report with one spectral
frame per video frame. fps defaults to analyze.fps from the config (60).

Supported inputs: %s.
input may also be an http(s) URL of a finite audio file.`, media.SupportedExtsList()),
	Args: cobra.RangeArgs(2, 3),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := config.FromContext(cmd.Context())
	input, output := args[0], args[1]

	fps := cfg.Analyze.FPS
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("%w: %q", analysis.ErrInvalidFPS, args[2])
		}
		fps = n
	}
	if fps <= 0 {
		return fmt.Errorf("%w: got %d", analysis.ErrInvalidFPS, fps)
	}

	source := filepath.Base(input)
	if downloader.IsURL(input) {
		path, name, cleanup, err := downloader.Download(cmd.Context(), input, func(phase string) {
			log.Info().Str("url", input).Msg(phase)
		})
		if err != nil {
			return err
		}
		defer cleanup()
		input, source = path, name
	}

	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", input)
	}

	ff := audio.FFmpeg{BinaryPath: cfg.FFmpeg.BinaryPath, FFprobePath: cfg.FFmpeg.FFprobePath}
	buf, data, err := audio.DecodeFile(cmd.Context(), input, ff)
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(os.Stdout)
	rep, err := analysis.New(log.Logger).Extract(cmd.Context(), buf, analysis.Options{
		FPS:      fps,
		Source:   source,
		Metadata: audio.ReadMetadata(data),
		Progress: printer.Analyze,
	})
	printer.Done()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := rep.Write(output); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	fmt.Print(ui.ReportSummary(output, rep.Meta))
	return nil
}
