// Package orchestrator coordinates engine invocations into user-level
// workflows: synchronous repository calls, streamed backup and restore
// operations with cancellation, and the staged restore-to-original-location
// strategy.
package orchestrator

import (
	"context"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/kweiss/resticpilot/internal/engine"
	"github.com/kweiss/resticpilot/internal/logger"
	"github.com/kweiss/resticpilot/internal/repodir"
)

const stagingPrefix = "restic-gui-temp-"

type Service struct {
	runner *engine.Runner
	logger *logger.Logger
	sink   Sink
	ops    *handles

	// volumeRoot maps a single-character volume identifier to the directory
	// restored entries are moved into. The default targets drive roots on
	// Windows; tests swap it for a temp directory mapping.
	volumeRoot func(vol string) string
}

func New(runner *engine.Runner, l *logger.Logger, sink Sink) *Service {
	return &Service{
		runner:     runner,
		logger:     l.With("component", "orchestrator"),
		sink:       sink,
		ops:        newHandles(),
		volumeRoot: defaultVolumeRoot,
	}
}

func defaultVolumeRoot(vol string) string {
	if runtime.GOOS == "windows" {
		return vol + `:\`
	}
	return `/` + vol
}

// stagingToken is the collision-resistant suffix for staging directories.
func stagingToken() string {
	return uuid.New().String()[:8]
}

// Version returns the engine's version banner. No repository context.
func (s *Service) Version(ctx context.Context) (string, error) {
	out, err := s.runner.RunSync(ctx, "", "", []string{"version"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// InitRepository initializes a new repository for the profile.
func (s *Service) InitRepository(ctx context.Context, profile repodir.Profile) error {
	_, err := s.runner.RunSync(ctx, profile.URI, profile.Secret, []string{"init"})
	return err
}

// TestRepository probes connectivity and credentials by reading the
// repository config object.
func (s *Service) TestRepository(ctx context.Context, profile repodir.Profile) error {
	_, err := s.runner.RunSync(ctx, profile.URI, profile.Secret, []string{"cat", "config"})
	return err
}

// Snapshots lists all snapshots in the repository.
func (s *Service) Snapshots(ctx context.Context, profile repodir.Profile) ([]engine.Snapshot, error) {
	out, err := s.runner.RunSync(ctx, profile.URI, profile.Secret, []string{"snapshots", "--json"})
	if err != nil {
		return nil, err
	}
	return engine.ParseSnapshots(out)
}

// DeleteSnapshot forgets a snapshot and prunes its unreferenced data.
func (s *Service) DeleteSnapshot(ctx context.Context, profile repodir.Profile, snapshotID string) error {
	_, err := s.runner.RunSync(ctx, profile.URI, profile.Secret, []string{"forget", snapshotID, "--prune"})
	return err
}

// ListSnapshot lists the files and directories inside a snapshot. The
// listing's snapshot header line and any non-JSON noise are skipped.
func (s *Service) ListSnapshot(ctx context.Context, profile repodir.Profile, snapshotID string) ([]engine.FileNode, error) {
	out, err := s.runner.RunSync(ctx, profile.URI, profile.Secret, []string{"ls", "--json", snapshotID})
	if err != nil {
		return nil, err
	}
	return engine.ParseNodes(out), nil
}
