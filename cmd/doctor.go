package cmd

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/kweiss/resticpilot/internal/engine"
	"github.com/kweiss/resticpilot/internal/logger"
	"github.com/kweiss/resticpilot/internal/probe"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the engine installation and repository reachability",
	Long: `Verify that the restic engine binary can be found and executed, and
probe every stored repository target for basic reachability.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		l := logger.FromContext(cmd.Context())
		l.Info("resticpilot doctor - environment check", "os", runtime.GOOS, "arch", runtime.GOARCH)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "[Engine]")

		path, err := engine.Locate()
		if err != nil {
			fmt.Fprintf(out, "  [ ] %-12s: NOT FOUND\n", "restic")
			fmt.Fprintf(out, "      %v\n", err)
			return nil
		}
		fmt.Fprintf(out, "  [x] %-12s: %s\n", "restic", path)

		svc, _, err := newService(l)
		if err != nil {
			return err
		}
		if banner, err := svc.Version(cmd.Context()); err != nil {
			fmt.Fprintf(out, "  [ ] %-12s: FAILED (%v)\n", "version", err)
		} else {
			fmt.Fprintf(out, "  [x] %-12s: %s\n", "version", banner)
		}

		dir, err := openDirectory()
		if err != nil {
			return err
		}
		profiles := dir.List()
		if len(profiles) == 0 {
			fmt.Fprintln(out, "\nNo repositories configured.")
			return nil
		}

		fmt.Fprintln(out, "\n[Repository Target Checks]")
		for _, p := range profiles {
			start := time.Now()
			err := probe.Check(cmd.Context(), p.URI)
			latency := time.Since(start).Truncate(time.Millisecond)
			if err != nil {
				fmt.Fprintf(out, "  [ ] %-20s: FAILED (%v)\n", p.Name, err)
				continue
			}
			fmt.Fprintf(out, "  [x] %-20s: reachable (%s)\n", p.Name, latency)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
