package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kweiss/resticpilot/internal/logger"
)

var snapshotsCmd = &cobra.Command{
	Use:           "snapshots [repository]",
	Short:         "List snapshots in a repository",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		l := logger.FromContext(cmd.Context())

		dir, err := openDirectory()
		if err != nil {
			return err
		}
		profile, err := findProfile(dir, args[0])
		if err != nil {
			return err
		}

		svc, _, err := newService(l)
		if err != nil {
			return err
		}
		snaps, err := svc.Snapshots(cmd.Context(), profile)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(snaps) == 0 {
			fmt.Fprintln(out, "No snapshots yet.")
			return nil
		}

		fmt.Fprintf(out, "%-10s  %-19s  %-12s  %-20s  %s\n", "ID", "Time", "Host", "Tags", "Paths")
		for _, s := range snaps {
			when := s.Time
			if ts, err := time.Parse(time.RFC3339Nano, s.Time); err == nil {
				when = ts.Local().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(out, "%-10s  %-19s  %-12s  %-20s  %s\n",
				s.ShortID, when, s.Hostname,
				strings.Join(s.Tags, ","), strings.Join(s.Paths, ", "))
		}
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:           "forget [repository] [snapshot]",
	Short:         "Delete a snapshot and prune its data",
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		l := logger.FromContext(cmd.Context())

		dir, err := openDirectory()
		if err != nil {
			return err
		}
		profile, err := findProfile(dir, args[0])
		if err != nil {
			return err
		}

		svc, _, err := newService(l)
		if err != nil {
			return err
		}
		if err := svc.DeleteSnapshot(cmd.Context(), profile, args[1]); err != nil {
			return err
		}
		l.Info("snapshot deleted", "repository", profile.Name, "snapshot", args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(forgetCmd)
}
