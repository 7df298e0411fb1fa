package main

import (
	"context"
	"os"

	"github.com/olivier-w/spectracast/internal/engine"
	"github.com/olivier-w/spectracast/internal/target"
	"github.com/olivier-w/spectracast/internal/visualizer"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var engineScene string

var engineCmd = &cobra.Command{
	Use:   "engine",
	Short: "Serve the built-in visualizer over the engine protocol",
	Long: `Read engine requests from stdin and write responses to stdout, one JSON
object per line. Logs go to stderr. Lets the external engine path be driven
with spectracast itself:

  spectracast render song.json frames/ --engine "spectracast engine"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var t target.Target = visualizer.NewEngine(log.Logger)
		if engineScene != "" {
			t = fixedScene{Target: t, name: engineScene}
		}
		defer t.Close()
		return engine.Serve(cmd.Context(), os.Stdin, os.Stdout, t, log.Logger)
	},
}

func init() {
	engineCmd.Flags().StringVar(&engineScene, "visualizer", "", "draw this built-in scene whatever source is requested")
}

// fixedScene ignores the requested source and always loads name.
type fixedScene struct {
	target.Target
	name string
}

func (f fixedScene) Navigate(ctx context.Context, source string, vp target.Viewport) error {
	if source != f.name {
		log.Debug().Str("requested", source).Str("scene", f.name).Msg("overriding visualizer source")
	}
	return f.Target.Navigate(ctx, f.name, vp)
}
