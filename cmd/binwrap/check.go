package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmarkovtsev/bin-wrapper/internal/binary"
	"github.com/vmarkovtsev/bin-wrapper/internal/spec"
)

var checkCmd = &cobra.Command{
	Use:   "check [name] [-- test args...]",
	Short: "Ensure binaries are present and working",
	Long: `Ensure each declared binary (or just the named one) is present and
working. A binary found on the search paths is verified in place; a
missing one is downloaded from the URL matching the current platform
before verification. Test arguments after "--" override the spec's test
command.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		testArgs := args
		if cmd.ArgsLenAtDash() != 0 && len(args) > 0 {
			name = args[0]
			testArgs = args[1:]
		}

		defs, err := loadSpec(cmd, name)
		if err != nil {
			return err
		}

		failed := false
		for _, def := range defs {
			if !checkOne(cmd, def, testArgs) {
				failed = true
			}
		}
		if failed {
			return fmt.Errorf("some binaries are not usable")
		}
		return nil
	},
}

// checkOne runs the check lifecycle for one binary and reports the
// terminal event. Returns false on fail or error.
func checkOne(cmd *cobra.Command, def spec.Definition, testArgs []string) bool {
	ctl := newController(def)

	if len(testArgs) == 0 {
		testArgs = def.TestArgs
	}

	ok := true
	for ev := range ctl.Check(cmd.Context(), testArgs) {
		switch ev.Kind {
		case binary.EventSuccess:
			logger.Info().Str("binary", def.Name).Str("path", ev.Path).Msg("binary ready")
		case binary.EventFail:
			logger.Error().Str("binary", def.Name).Err(ev.Err).Msg("binary failed verification")
			ok = false
		case binary.EventError:
			logger.Error().Str("binary", def.Name).Err(ev.Err).Msg("check failed")
			ok = false
		}
	}
	return ok
}

// newController builds a controller for a definition with the CLI's
// logger and a debug-level progress reporter attached.
func newController(def spec.Definition) *binary.Controller {
	opts := []binary.Option{
		binary.WithLogger(logger),
		binary.WithDetector(detector()),
		binary.WithProgress(reportProgress),
		binary.WithBuildOutput(os.Stdout, os.Stderr),
	}
	if destDir != "" {
		opts = append(opts, binary.WithDestination(destDir))
	}
	return def.Controller(opts...)
}

// reportProgress logs transfer progress. Total is -1 when the server
// sends no content-length.
func reportProgress(transferred, total int64) {
	if total > 0 {
		logger.Debug().Int64("bytes", transferred).Int64("total", total).Msg("downloading")
	} else {
		logger.Debug().Int64("bytes", transferred).Msg("downloading")
	}
}
