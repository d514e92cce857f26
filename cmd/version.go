package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/kweiss/resticpilot/internal/logger"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the resticpilot and engine versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		l := logger.FromContext(cmd.Context())
		l.Info("resticpilot",
			"version", Version,
			"commit", Commit,
			"built_at", BuildDate,
			"go_version", runtime.Version(),
			"os", runtime.GOOS,
			"arch", runtime.GOARCH,
		)

		svc, _, err := newService(l)
		if err != nil {
			l.Warn("engine not available", "error", err)
			return nil
		}
		banner, err := svc.Version(cmd.Context())
		if err != nil {
			l.Warn("engine version check failed", "error", err)
			return nil
		}
		l.Info("engine", "version", banner)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("resticpilot version {{ .Version }}\n")
}
