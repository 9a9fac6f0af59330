package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmarkovtsev/bin-wrapper/internal/platform"
)

// detector returns the platform detector used by every command.
func detector() platform.Detector {
	return platform.NewDetector()
}

var platformCmd = &cobra.Command{
	Use:   "platform",
	Short: "Show the detected platform and architecture",
	Long: `Show the platform identifiers binwrap uses to pick download URLs:
the operating system, the normalized architecture bucket, and (on Linux)
the detected distribution.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := detector().Detect(cmd.Context())
		if err != nil {
			return fmt.Errorf("detect platform: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "os:    %s\n", info.OS)
		fmt.Fprintf(out, "arch:  %s (raw: %s)\n", info.Arch, info.ArchRaw)
		if distro := info.GetDistro(); distro != nil {
			fmt.Fprintf(out, "distro: %s %s (%s family)\n", distro.ID, distro.Version, distro.Family)
		}
		return nil
	},
}
