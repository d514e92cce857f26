package orchestrator

import (
	"context"

	"github.com/kweiss/resticpilot/internal/engine"
	apperrors "github.com/kweiss/resticpilot/internal/errors"
	"github.com/kweiss/resticpilot/internal/repodir"
)

// BackupJob describes one backup operation.
type BackupJob struct {
	SourcePaths []string
	Excludes    []string
	Tags        []string
}

// StartBackup launches a backup in the background. Progress and the
// terminal outcome are delivered through the sink; the call returns as
// soon as the engine process is running.
func (s *Service) StartBackup(profile repodir.Profile, job BackupJob) error {
	if len(job.SourcePaths) == 0 {
		return apperrors.New(apperrors.KindConfig, "no source paths specified for backup", "")
	}

	args := []string{"backup", "--json"}
	for _, ex := range job.Excludes {
		args = append(args, "--exclude", ex)
	}
	for _, tag := range job.Tags {
		args = append(args, "--tag", tag)
	}
	args = append(args, job.SourcePaths...)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.ops.begin(OpBackup, cancel); err != nil {
		cancel()
		return err
	}

	lines, wait, err := s.runner.RunStreaming(ctx, profile.URI, profile.Secret, args)
	if err != nil {
		s.ops.end(OpBackup)
		cancel()
		return err
	}

	s.logger.Info("backup started", "repository", profile.Name, "paths", len(job.SourcePaths))

	go func() {
		defer cancel()

		for rec := range engine.BackupRecords(lines) {
			rec := rec
			s.sink.Emit(Event{Op: OpBackup, Type: EventProgress, Backup: &rec})
		}

		err := wait()
		cancelled := s.ops.cancelRequested(OpBackup)
		s.ops.end(OpBackup)

		switch {
		case cancelled:
			s.logger.Info("backup cancelled", "repository", profile.Name)
			s.sink.Emit(Event{Op: OpBackup, Type: EventCancelled})
		case err != nil:
			s.logger.Error("backup failed", "repository", profile.Name, "error", err)
			s.sink.Emit(Event{Op: OpBackup, Type: EventFailed, Message: err.Error()})
		default:
			s.logger.Info("backup finished", "repository", profile.Name)
			s.sink.Emit(Event{Op: OpBackup, Type: EventDone})
		}
	}()

	return nil
}

// CancelBackup requests termination of the active backup, if any.
func (s *Service) CancelBackup() {
	s.ops.requestCancel(OpBackup)
}
