package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kweiss/resticpilot/internal/config"
	"github.com/kweiss/resticpilot/internal/logger"
)

var (
	cfgFile string
	LogJSON bool
	NoColor bool
)

var rootCmd = &cobra.Command{
	Use:   "resticpilot",
	Short: "resticpilot drives the restic backup engine from a friendly CLI",
	Long: `resticpilot wraps the restic backup engine with managed repository
profiles, streamed progress, scheduled backups and restore-to-original-location
support. Repository passwords are stored encrypted on disk and handed to the
engine via environment variables only.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(cfgFile); err != nil {
			return err
		}
		cfg := config.GetConfig()

		if !cmd.Flags().Changed("log-json") {
			LogJSON = cfg.LogJSON
		}
		if !cmd.Flags().Changed("no-color") {
			NoColor = cfg.NoColor
		}

		l := logger.New(logger.Config{JSON: LogJSON, NoColor: NoColor, Writer: os.Stderr})
		cmd.SetContext(logger.WithContext(cmd.Context(), l))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.resticpilot/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&LogJSON, "log-json", false, "emit logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&NoColor, "no-color", false, "disable colored log output")
}

func Execute() error {
	return rootCmd.Execute()
}
