package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kweiss/resticpilot/internal/logger"
)

var lsCmd = &cobra.Command{
	Use:           "ls [repository] [snapshot]",
	Short:         "List files and folders inside a snapshot",
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
		nodes, err := svc.ListSnapshot(cmd.Context(), profile, args[1])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, n := range nodes {
			if n.Type == "dir" {
				fmt.Fprintf(out, "%-4s  %10s  %s/\n", n.Type, "", n.Path)
			} else {
				fmt.Fprintf(out, "%-4s  %10d  %s\n", n.Type, n.Size, n.Path)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
