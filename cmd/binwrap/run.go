package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmarkovtsev/bin-wrapper/internal/binary"
)

var runCmd = &cobra.Command{
	Use:   "run <name> [args...]",
	Short: "Execute a declared binary",
	Long: `Execute a declared binary with the given arguments, resolving it the
same way check does: the first executable match on the search paths, or
the managed copy at the destination.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defs, err := loadSpec(cmd, args[0])
		if err != nil {
			return err
		}

		ctl := newController(defs[0])
		err = ctl.Run(cmd.Context(), args[1:], os.Stdout, os.Stderr)

		var verr *binary.VerificationError
		if errors.As(err, &verr) {
			os.Exit(verr.ExitCode)
		}
		return err
	},
}
