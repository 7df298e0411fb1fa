package main

import (
	"fmt"

	"github.com/olivier-w/spectracast/internal/config"
	"github.com/olivier-w/spectracast/internal/deps"
	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Check for external programs",
	Long:  `Check whether ffmpeg, ffprobe and the configured engine command are installed.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		results := deps.CheckAll(deps.List(cfg))

		fmt.Println()
		fmt.Print(deps.FormatAll(results))
		fmt.Println()

		if missing := deps.MissingRequired(results); len(missing) > 0 {
			return fmt.Errorf("%d required program(s) missing", len(missing))
		}
		return nil
	},
}
