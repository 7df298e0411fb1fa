package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/olivier-w/spectracast/internal/config"
	"github.com/olivier-w/spectracast/internal/logging"
	"github.com/olivier-w/spectracast/internal/ui"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorLine(err))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "spectracast",
	Short: "Render audio-reactive video frames",
	Long: `spectracast turns an audio file into a per-frame spectral report and
drives a visual engine through that report, writing one PNG per frame.

  spectracast analyze song.mp3 song.json 30
  spectracast render song.json frames/ --res tiktok --seed 7`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose, quiet)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./spectracast.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(engineCmd)
	rootCmd.AddCommand(depsCmd)
}
