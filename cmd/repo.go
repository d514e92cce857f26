package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kweiss/resticpilot/internal/logger"
	"github.com/kweiss/resticpilot/internal/repodir"
)

var (
	repoName     string
	repoURI      string
	repoPassword string
	passwordFile string
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage repository profiles",
}

// readSecret resolves the repository password from --password,
// --password-file, the RESTICPILOT_PASSWORD variable, or stdin, in that
// order.
func readSecret(cmd *cobra.Command) (string, error) {
	if repoPassword != "" {
		return repoPassword, nil
	}
	if passwordFile != "" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	if env := os.Getenv("RESTICPILOT_PASSWORD"); env != "" {
		return env, nil
	}

	fmt.Fprint(cmd.OutOrStdout(), "Repository password: ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var repoAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a repository profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		l := logger.FromContext(cmd.Context())

		secret, err := readSecret(cmd)
		if err != nil {
			return err
		}

		dir, err := openDirectory()
		if err != nil {
			return err
		}

		profile, err := dir.Add(repodir.Profile{
			Name:   repoName,
			URI:    repoURI,
			Secret: secret,
		})
		if err != nil {
			return err
		}

		l.Info("repository added", "name", profile.Name, "id", profile.ID)
		return nil
	},
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List repository profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := openDirectory()
		if err != nil {
			return err
		}

		profiles := dir.List()
		if len(profiles) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No repositories configured. Add one with 'resticpilot repo add'.")
			return nil
		}
		for _, p := range profiles {
			fmt.Fprintf(cmd.OutOrStdout(), "%-36s  %-20s  %s\n", p.ID, p.Name, p.URI)
		}
		return nil
	},
}

var repoRemoveCmd = &cobra.Command{
	Use:   "remove [repository]",
	Short: "Remove a repository profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l := logger.FromContext(cmd.Context())

		dir, err := openDirectory()
		if err != nil {
			return err
		}
		if err := dir.Remove(args[0]); err != nil {
			return err
		}
		l.Info("repository removed", "repository", args[0])
		return nil
	},
}

var repoInitCmd = &cobra.Command{
	Use:   "init [repository]",
	Short: "Initialize the repository behind a profile",
	Args:  cobra.ExactArgs(1),
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
		if err := svc.InitRepository(cmd.Context(), profile); err != nil {
			return err
		}
		l.Info("repository initialized", "repository", profile.Name)
		return nil
	},
}

var repoTestCmd = &cobra.Command{
	Use:   "test [repository]",
	Short: "Test connectivity and credentials of a profile",
	Args:  cobra.ExactArgs(1),
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
		if err := svc.TestRepository(cmd.Context(), profile); err != nil {
			return err
		}
		l.Info("repository reachable", "repository", profile.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(repoCmd)
	repoCmd.AddCommand(repoAddCmd)
	repoCmd.AddCommand(repoListCmd)
	repoCmd.AddCommand(repoRemoveCmd)
	repoCmd.AddCommand(repoInitCmd)
	repoCmd.AddCommand(repoTestCmd)

	repoAddCmd.Flags().StringVar(&repoName, "name", "", "display name for the repository")
	repoAddCmd.Flags().StringVar(&repoURI, "uri", "", "repository location (path, sftp:, s3:, rest:)")
	repoAddCmd.Flags().StringVar(&repoPassword, "password", "", "repository password (prefer --password-file or stdin)")
	repoAddCmd.Flags().StringVar(&passwordFile, "password-file", "", "file containing the repository password")
	repoAddCmd.MarkFlagRequired("name")
	repoAddCmd.MarkFlagRequired("uri")
}
