package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kweiss/resticpilot/internal/config"
	"github.com/kweiss/resticpilot/internal/logger"
	"github.com/kweiss/resticpilot/internal/notify"
	"github.com/kweiss/resticpilot/internal/orchestrator"
	"github.com/kweiss/resticpilot/internal/scheduler"
)

var (
	cronSpec string
	interval string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage recurring backups",
}

func buildScheduler(l *logger.Logger) (*scheduler.Scheduler, error) {
	dataDir, err := config.GetConfig().ResolveDataDir()
	if err != nil {
		return nil, err
	}

	notifier := notify.BuildNotifier(config.GetConfig())
	s, err := scheduler.New(dataDir, l, notifier, scheduledBackup(l))
	if err != nil {
		return nil, err
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// scheduledBackup runs one task's backup to completion and distills the
// event stream into notification stats.
func scheduledBackup(l *logger.Logger) scheduler.RunFunc {
	return func(ctx context.Context, task scheduler.ScheduledTask) (notify.Stats, error) {
		dir, err := openDirectory()
		if err != nil {
			return notify.Stats{}, err
		}
		profile, err := findProfile(dir, task.Repository)
		if err != nil {
			return notify.Stats{}, err
		}

		svc, sink, err := newService(l)
		if err != nil {
			return notify.Stats{}, err
		}

		job := orchestrator.BackupJob{
			SourcePaths: task.SourcePaths,
			Excludes:    task.Excludes,
			Tags:        task.Tags,
		}
		if len(job.SourcePaths) == 0 {
			job.SourcePaths = profile.SourcePaths
		}

		stats := notify.Stats{Repository: profile.Name}
		if err := svc.StartBackup(profile, job); err != nil {
			return stats, err
		}

		for e := range sink.C {
			if e.Type == orchestrator.EventProgress && e.Backup != nil && e.Backup.IsSummary() {
				stats.Snapshot = e.Backup.SnapshotID
				stats.Files = e.Backup.TotalFilesProc
				stats.Bytes = e.Backup.TotalBytesProc
			}
			switch e.Type {
			case orchestrator.EventDone:
				return stats, nil
			case orchestrator.EventFailed:
				return stats, errors.New(e.Message)
			case orchestrator.EventCancelled:
				return stats, errors.New("backup cancelled")
			}
		}
		return stats, nil
	}
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add [repository]",
	Short: "Schedule a recurring backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l := logger.FromContext(cmd.Context())

		sched := cronSpec
		if interval != "" {
			sched = interval
		}
		if sched == "" {
			return fmt.Errorf("either --cron or --interval is required")
		}

		s, err := buildScheduler(l)
		if err != nil {
			return err
		}
		defer func() { <-s.Stop().Done() }()

		task := &scheduler.ScheduledTask{
			ID:          uuid.New().String(),
			Repository:  args[0],
			SourcePaths: backupPaths,
			Excludes:    backupExcludes,
			Tags:        backupTags,
			Schedule:    sched,
		}
		if err := s.AddTask(task); err != nil {
			return err
		}

		l.Info("scheduled backup added", "id", task.ID, "repository", task.Repository, "schedule", sched)
		l.Info("run 'resticpilot schedule start' to execute schedules")
		return nil
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		l := logger.FromContext(cmd.Context())

		s, err := buildScheduler(l)
		if err != nil {
			return err
		}
		defer func() { <-s.Stop().Done() }()

		tasks := s.ListTasks()
		if len(tasks) == 0 {
			l.Info("no schedules configured")
			return nil
		}
		for _, t := range tasks {
			next := "N/A"
			if t.NextRun != nil {
				next = t.NextRun.Format("2006-01-02 15:04:05")
			}
			l.Info("scheduled backup",
				"id", t.ID,
				"repository", t.Repository,
				"status", t.Status,
				"schedule", t.Schedule,
				"next_run", next,
			)
		}
		return nil
	},
}

var scheduleRemoveCmd = &cobra.Command{
	Use:   "remove [ID]",
	Short: "Remove a scheduled backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l := logger.FromContext(cmd.Context())

		s, err := buildScheduler(l)
		if err != nil {
			return err
		}
		defer func() { <-s.Stop().Done() }()

		if err := s.RemoveTask(args[0]); err != nil {
			return err
		}
		l.Info("schedule removed", "id", args[0])
		return nil
	},
}

var scheduleStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the scheduler in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		l := logger.FromContext(cmd.Context())

		s, err := buildScheduler(l)
		if err != nil {
			return err
		}

		// Pick up backups declared directly in the config file.
		if err := s.SyncConfig(config.GetConfig().Backups); err != nil {
			return err
		}

		tasks := s.ListTasks()
		l.Info("starting scheduler", "task_count", len(tasks))

		s.Start()
		defer func() { <-s.Stop().Done() }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		l.Info("shutting down scheduler")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleAddCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleRemoveCmd)
	scheduleCmd.AddCommand(scheduleStartCmd)

	scheduleAddCmd.Flags().StringVar(&cronSpec, "cron", "", "cron schedule (e.g. \"0 2 * * *\")")
	scheduleAddCmd.Flags().StringVar(&interval, "interval", "", "interval schedule (e.g. \"24h\", \"30m\")")
	scheduleAddCmd.Flags().StringArrayVar(&backupPaths, "path", nil, "folder to back up (repeatable)")
	scheduleAddCmd.Flags().StringArrayVar(&backupExcludes, "exclude", nil, "exclude pattern (repeatable)")
	scheduleAddCmd.Flags().StringArrayVar(&backupTags, "tag", nil, "tag for the snapshot (repeatable)")
}
