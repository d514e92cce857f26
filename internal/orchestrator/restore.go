package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/kweiss/resticpilot/internal/engine"
	apperrors "github.com/kweiss/resticpilot/internal/errors"
	"github.com/kweiss/resticpilot/internal/repodir"
)

// RestoreSelection is a set of snapshot paths to restore (engine-native
// separators, as reported by the listing) plus the target mode.
type RestoreSelection struct {
	Paths      []string
	ToOriginal bool
	TargetDir  string // required when ToOriginal is false
}

// StartRestore launches a full restore of a snapshot into targetDir.
func (s *Service) StartRestore(profile repodir.Profile, snapshotID, targetDir string) error {
	if targetDir == "" {
		return apperrors.New(apperrors.KindConfig, "no restore target folder selected", "")
	}

	args := []string{"restore", snapshotID, "--target", targetDir, "--json"}
	return s.startRestoreStream(profile, args, nil, nil)
}

// StartSelectiveRestore restores the selected paths, either into a custom
// folder or back to their original location.
//
// The original-location strategy stages the restore on the same volume as
// the destination and finishes with an atomic move, so large files are not
// written twice across volumes. The volume is derived from the first
// selected path; selections spanning multiple volumes are not supported
// and entries from other volumes would land in the wrong staging subtree.
func (s *Service) StartSelectiveRestore(profile repodir.Profile, snapshotID string, sel RestoreSelection) error {
	if len(sel.Paths) == 0 {
		return apperrors.New(apperrors.KindConfig, "no paths selected", "")
	}

	if !sel.ToOriginal {
		if sel.TargetDir == "" {
			return apperrors.New(apperrors.KindConfig, "no restore target folder selected", "")
		}
		args := []string{"restore", snapshotID, "--target", sel.TargetDir, "--json"}
		for _, p := range sel.Paths {
			args = append(args, "--include", p)
		}
		return s.startRestoreStream(profile, args, nil, nil)
	}

	vol, err := volumeFromPath(sel.Paths[0])
	if err != nil {
		return err
	}

	root := s.volumeRoot(vol)
	staging := filepath.Join(root, stagingPrefix+stagingToken())
	if err := os.MkdirAll(staging, 0755); err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "failed to create staging directory", "")
	}

	args := []string{"restore", snapshotID, "--target", staging, "--json"}
	for _, p := range sel.Paths {
		args = append(args, "--include", p)
	}

	s.logger.Info("staged restore started", "snapshot", snapshotID, "volume", vol, "staging", staging)

	cleanup := func() {
		// Best-effort: a leftover staging directory must not mask the
		// operation's real outcome.
		if err := os.RemoveAll(staging); err != nil {
			s.logger.Warn("failed to remove staging directory", "path", staging, "error", err)
		}
	}
	finish := func() error {
		defer cleanup()
		return moveContents(filepath.Join(staging, vol), root)
	}

	if err := s.startRestoreStream(profile, args, finish, cleanup); err != nil {
		cleanup()
		return err
	}
	return nil
}

// CancelRestore requests termination of the active restore, if any.
func (s *Service) CancelRestore() {
	s.ops.requestCancel(OpRestore)
}

// startRestoreStream runs the restore invocation in the background,
// forwarding progress records and emitting exactly one terminal event.
// finish runs after a clean engine exit and must succeed before Done is
// reported; cleanup runs on failure or cancellation.
func (s *Service) startRestoreStream(profile repodir.Profile, args []string, finish func() error, cleanup func()) error {
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.ops.begin(OpRestore, cancel); err != nil {
		cancel()
		return err
	}

	lines, wait, err := s.runner.RunStreaming(ctx, profile.URI, profile.Secret, args)
	if err != nil {
		s.ops.end(OpRestore)
		cancel()
		return err
	}

	go func() {
		defer cancel()

		for rec := range engine.RestoreRecords(lines) {
			rec := rec
			s.sink.Emit(Event{Op: OpRestore, Type: EventProgress, Restore: &rec})
		}

		err := wait()
		cancelled := s.ops.cancelRequested(OpRestore)
		s.ops.end(OpRestore)

		switch {
		case cancelled:
			if cleanup != nil {
				cleanup()
			}
			s.logger.Info("restore cancelled")
			s.sink.Emit(Event{Op: OpRestore, Type: EventCancelled})
		case err != nil:
			if cleanup != nil {
				cleanup()
			}
			s.logger.Error("restore failed", "error", err)
			s.sink.Emit(Event{Op: OpRestore, Type: EventFailed, Message: err.Error()})
		default:
			if finish != nil {
				if err := finish(); err != nil {
					s.logger.Error("restore move phase failed", "error", err)
					s.sink.Emit(Event{Op: OpRestore, Type: EventFailed, Message: "Move failed: " + err.Error()})
					return
				}
			}
			s.logger.Info("restore finished")
			s.sink.Emit(Event{Op: OpRestore, Type: EventDone})
		}
	}()

	return nil
}

// volumeFromPath derives the volume identifier from an engine path. The
// engine encodes volume-addressed filesystems with the volume letter as
// the first path segment, e.g. "/G/docs/report.pdf" -> "G".
func volumeFromPath(path string) (string, error) {
	norm := strings.ReplaceAll(path, `\`, "/")
	norm = strings.TrimPrefix(norm, "/")

	seg, _, _ := strings.Cut(norm, "/")
	if len(seg) != 1 {
		return "", apperrors.New(apperrors.KindPathResolution,
			"could not determine the volume from the selected path",
			"Restoring to the original location needs paths addressed by a single-letter volume. Restore to a custom folder instead.")
	}
	return strings.ToUpper(seg), nil
}
