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
	restoreTarget   string
	restoreOriginal bool
	restoreIncludes []string
)

var restoreCmd = &cobra.Command{
	Use:   "restore [repository] [snapshot]",
	Short: "Restore a snapshot, fully or selectively",
	Long: `Restore a snapshot into a target folder, or restore selected paths back
to their original location. The original-location mode stages the restore on
the destination volume and finishes with an atomic move, so a cancelled or
failed restore never leaves partial files at the destination.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		l := logger.FromContext(cmd.Context())

		if restoreOriginal && restoreTarget != "" {
			return fmt.Errorf("--original and --target are mutually exclusive")
		}
		if restoreOriginal && len(restoreIncludes) == 0 {
			return fmt.Errorf("--original needs at least one --include path")
		}

		dir, err := openDirectory()
		if err != nil {
			return err
		}
		profile, err := findProfile(dir, args[0])
		if err != nil {
			return err
		}
		snapshotID := args[1]

		svc, sink, err := newService(l)
		if err != nil {
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			for range sigCh {
				l.Warn("cancelling restore")
				svc.CancelRestore()
			}
		}()

		start := time.Now()
		switch {
		case len(restoreIncludes) == 0:
			err = svc.StartRestore(profile, snapshotID, restoreTarget)
		default:
			err = svc.StartSelectiveRestore(profile, snapshotID, orchestrator.RestoreSelection{
				Paths:      restoreIncludes,
				ToOriginal: restoreOriginal,
				TargetDir:  restoreTarget,
			})
		}
		if err != nil {
			return err
		}

		progress := newProgressContainer()
		bar := addTransferBar(progress, snapshotID)
		stats := notify.Stats{Operation: "Restore", Repository: profile.Name, Snapshot: snapshotID}

		var outcome error
	loop:
		for e := range sink.C {
			switch e.Type {
			case orchestrator.EventProgress:
				if e.Restore != nil {
					stats.Files = e.Restore.FilesRestored
					stats.Bytes = e.Restore.BytesRestored
					updateRestoreBar(bar, e.Restore)
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
			l.Info("restore finished",
				"repository", profile.Name,
				"snapshot", snapshotID,
				"files", stats.Files,
				"duration", stats.Duration.Truncate(time.Millisecond),
			)
		case notify.StatusCancelled:
			l.Warn("restore cancelled", "repository", profile.Name, "snapshot", snapshotID)
		}
		return outcome
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().StringVar(&restoreTarget, "target", "", "folder to restore into")
	restoreCmd.Flags().BoolVar(&restoreOriginal, "original", false, "restore selected paths to their original location")
	restoreCmd.Flags().StringArrayVar(&restoreIncludes, "include", nil, "snapshot path to restore (repeatable)")
}
