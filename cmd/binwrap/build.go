package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmarkovtsev/bin-wrapper/internal/binary"
)

var buildCmd = &cobra.Command{
	Use:   "build <name> <command...>",
	Short: "Build a binary from its source archive",
	Long: `Download the declared source archive for a binary, run the given
shell command inside the extracted tree, and clean the workspace up.
The temporary build tree is removed whether the command succeeds or not.`,
	Example: `  binwrap build gifsicle "./configure && make && make install"
  binwrap build jpegtran make`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		buildCommand := strings.Join(args[1:], " ")

		defs, err := loadSpec(cmd, name)
		if err != nil {
			return err
		}

		ctl := newController(defs[0])

		var buildFailure error
		for ev := range ctl.Build(cmd.Context(), buildCommand) {
			switch ev.Kind {
			case binary.EventError:
				logger.Error().Str("binary", name).Err(ev.Err).Msg("build failed")
				buildFailure = ev.Err
			case binary.EventFinish:
				logger.Info().Str("binary", name).Msg("build finished")
			}
		}

		if buildFailure != nil {
			return fmt.Errorf("build %s: %w", name, buildFailure)
		}
		return nil
	},
}
