package cmd

import (
	"fmt"

	"github.com/kweiss/resticpilot/internal/config"
	"github.com/kweiss/resticpilot/internal/engine"
	"github.com/kweiss/resticpilot/internal/logger"
	"github.com/kweiss/resticpilot/internal/orchestrator"
	"github.com/kweiss/resticpilot/internal/repodir"
)

// openDirectory opens the profile store under the configured data dir.
func openDirectory() (*repodir.Directory, error) {
	dataDir, err := config.GetConfig().ResolveDataDir()
	if err != nil {
		return nil, err
	}
	return repodir.Open(dataDir)
}

// newRunner builds an engine runner, honoring an engine_path override from
// the config before falling back to the binary search.
func newRunner(l *logger.Logger) (*engine.Runner, error) {
	if path := config.GetConfig().EnginePath; path != "" {
		return engine.NewRunnerWithBinary(path, l), nil
	}
	return engine.NewRunner(l)
}

// newService wires a runner and a buffered event sink into an orchestrator
// service for one command invocation.
func newService(l *logger.Logger) (*orchestrator.Service, *orchestrator.ChannelSink, error) {
	runner, err := newRunner(l)
	if err != nil {
		return nil, nil, err
	}
	sink := orchestrator.NewChannelSink(64)
	return orchestrator.New(runner, l, sink), sink, nil
}

// findProfile resolves a repository argument against the profile store.
func findProfile(dir *repodir.Directory, idOrName string) (repodir.Profile, error) {
	profile, ok := dir.Get(idOrName)
	if !ok {
		return repodir.Profile{}, fmt.Errorf("repository %q not found; run 'resticpilot repo list'", idOrName)
	}
	return profile, nil
}
