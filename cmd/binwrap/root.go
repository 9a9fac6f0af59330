package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vmarkovtsev/bin-wrapper/internal/spec"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	specFile string
	destDir  string
	verbose  bool

	logger zerolog.Logger

	rootCmd = &cobra.Command{
		Use:   "binwrap",
		Short: "Resolve, download, and verify project binaries",
		Long: `binwrap provisions platform-specific executable binaries for a project.

Binaries are declared in a Lua spec file (binwrap.lua by default) with
download URLs keyed by platform and architecture. binwrap finds an
existing install on the search paths, or downloads the right variant for
the current machine, then verifies the result actually runs.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = initLogger(verbose)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&specFile, "spec", "s", "binwrap.lua", "Lua spec file declaring the binaries")
	rootCmd.PersistentFlags().StringVarP(&destDir, "dest", "d", "", "override the install destination for every binary")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(platformCmd)
}

// initLogger builds the console logger. Debug level only with --verbose.
func initLogger(verbose bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// loadSpec parses the spec file and optionally narrows it to one binary.
func loadSpec(cmd *cobra.Command, name string) ([]spec.Definition, error) {
	parser := spec.NewParser(detector())
	parsed, err := parser.ParseFile(cmd.Context(), specFile)
	if err != nil {
		return nil, fmt.Errorf("%s", spec.FormatError(err, verbose))
	}

	if name == "" {
		if len(parsed.Bins) == 0 {
			return nil, fmt.Errorf("spec %s declares no binaries", specFile)
		}
		return parsed.Bins, nil
	}

	for _, def := range parsed.Bins {
		if def.Name == name {
			return []spec.Definition{def}, nil
		}
	}
	return nil, fmt.Errorf("binary %q not declared in %s", name, specFile)
}
