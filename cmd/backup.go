package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kweiss/resticpilot/internal/config"
	"github.com/kweiss/resticpilot/internal/logger"
	"github.com/kweiss/resticpilot/internal/notify"
	"github.com/kweiss/resticpilot/internal/orchestrator"
)

var (
	backupPaths    []string
	backupExcludes []string
	backupTags     []string
	noProgressBar  bool
)

var backupCmd = &cobra.Command{
	Use:   "backup [repository]",
	Short: "Back up folders into a repository",
	Long: `Back up one or more folders into the given repository profile. Progress
streams live from the engine; Ctrl-C cancels the run cleanly. Paths default
to the profile's configured source paths.`,
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

		job := orchestrator.BackupJob{
			SourcePaths: backupPaths,
			Excludes:    backupExcludes,
			Tags:        backupTags,
		}
		if len(job.SourcePaths) == 0 {
			job.SourcePaths = profile.SourcePaths
		}
		if len(job.Excludes) == 0 {
			job.Excludes = profile.Excludes
		}
		if len(job.SourcePaths) == 0 {
			return fmt.Errorf("no paths to back up; pass --path or configure source paths on the profile")
		}

		svc, sink, err := newService(l)
		if err != nil {
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			for range sigCh {
				l.Warn("cancelling backup")
				svc.CancelBackup()
			}
		}()

		start := time.Now()
		if err := svc.StartBackup(profile, job); err != nil {
			return err
		}

		progress := newProgressContainer()
		bar := addTransferBar(progress, profile.Name)
		stats := notify.Stats{Operation: "Backup", Repository: profile.Name}

		var outcome error
	loop:
		for e := range sink.C {
			switch e.Type {
			case orchestrator.EventProgress:
				if e.Backup == nil {
					continue
				}
				if e.Backup.IsSummary() {
					stats.Snapshot = e.Backup.SnapshotID
					stats.Files = e.Backup.TotalFilesProc
					stats.Bytes = e.Backup.TotalBytesProc
				} else if !noProgressBar {
					updateBackupBar(bar, e.Backup)
				}
			case orchestrator.EventDone:
				stats.Status = notify.StatusSuccess
				break loop
			case orchestrator.EventFailed:
				stats.Status = notify.StatusError
				outcome = errors.New(e.Message)
				break loop
			case orchestrator.EventCancelled:
				stats.Status = notify.StatusCancelled
				break loop
			}
		}
		finishBar(bar)
		progress.Wait()

		stats.Duration = time.Since(start)
		stats.Error = outcome
		if n := notify.BuildNotifier(config.GetConfig()); n != nil {
			if err := n.Notify(cmd.Context(), stats); err != nil {
				l.Warn("notification failed", "error", err)
			}
		}

		switch stats.Status {
		case notify.StatusSuccess:
			l.Info("backup finished",
				"repository", profile.Name,
				"snapshot", stats.Snapshot,
				"files", stats.Files,
				"bytes", stats.Bytes,
				"duration", stats.Duration.Truncate(time.Millisecond),
			)
		case notify.StatusCancelled:
			l.Warn("backup cancelled", "repository", profile.Name)
		}
		return outcome
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().StringArrayVar(&backupPaths, "path", nil, "folder to back up (repeatable)")
	backupCmd.Flags().StringArrayVar(&backupExcludes, "exclude", nil, "exclude pattern (repeatable)")
	backupCmd.Flags().StringArrayVar(&backupTags, "tag", nil, "tag for the snapshot (repeatable)")
	backupCmd.Flags().BoolVar(&noProgressBar, "no-progress", false, "disable the progress bar")
}
