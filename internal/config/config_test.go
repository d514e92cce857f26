package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
log_json: true
engine_path: /opt/restic/restic
notifications:
  slack:
    webhook_url: https://hooks.slack.com/services/T000/B000/XXX
backups:
  - id: nightly-docs
    repository: home-nas
    source_paths:
      - /home/user/docs
    excludes:
      - "*.tmp"
    tags:
      - nightly
    schedule: "@daily"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	require.NoError(t, Initialize(path))
	cfg := GetConfig()

	assert.True(t, cfg.LogJSON)
	assert.Equal(t, "/opt/restic/restic", cfg.EnginePath)
	assert.Equal(t, "https://hooks.slack.com/services/T000/B000/XXX", cfg.Notifications.Slack.WebhookURL)
	require.Len(t, cfg.Backups, 1)
	assert.Equal(t, "home-nas", cfg.Backups[0].Repository)
	assert.Equal(t, []string{"/home/user/docs"}, cfg.Backups[0].SourcePaths)
	assert.Equal(t, "@daily", cfg.Backups[0].Schedule)
}

func TestInitialize_MissingExplicitFile(t *testing.T) {
	err := Initialize(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGetConfig_Uninitialized(t *testing.T) {
	saved := globalConfig
	globalConfig = nil
	defer func() { globalConfig = saved }()

	cfg := GetConfig()
	assert.NotNil(t, cfg)
	assert.False(t, cfg.LogJSON)
}

func TestResolveDataDir_Explicit(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/resticpilot"}
	dir, err := cfg.ResolveDataDir()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/resticpilot", dir)
}
