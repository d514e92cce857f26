package orchestrator

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kweiss/resticpilot/internal/engine"
	apperrors "github.com/kweiss/resticpilot/internal/errors"
	"github.com/kweiss/resticpilot/internal/logger"
	"github.com/kweiss/resticpilot/internal/repodir"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Writer: io.Discard})
}

// fakeEngine installs a shell script standing in for the engine binary.
func fakeEngine(t *testing.T, script string) *engine.Runner {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine scripts need /bin/sh")
	}

	path := filepath.Join(t.TempDir(), "restic")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return engine.NewRunnerWithBinary(path, testLogger())
}

func newTestService(t *testing.T, script string) (*Service, *ChannelSink) {
	t.Helper()
	sink := NewChannelSink(64)
	return New(fakeEngine(t, script), testLogger(), sink), sink
}

func testProfile() repodir.Profile {
	return repodir.Profile{Name: "work", URI: "/tmp/repo", Secret: "hunter2"}
}

func nextEvent(t *testing.T, sink *ChannelSink) Event {
	t.Helper()
	select {
	case e := <-sink.C:
		return e
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

// awaitTerminal drains the sink until the terminal event arrives, returning
// the progress events seen on the way.
func awaitTerminal(t *testing.T, sink *ChannelSink) ([]Event, Event) {
	t.Helper()
	var progress []Event
	for {
		e := nextEvent(t, sink)
		if e.Terminal() {
			return progress, e
		}
		progress = append(progress, e)
	}
}

func TestStartBackupStreamsProgressThenDone(t *testing.T) {
	svc, sink := newTestService(t, `
echo '{"message_type":"status","percent_done":0.25,"files_done":1}'
echo '{"message_type":"status","percent_done":0.75,"files_done":3}'
echo '{"message_type":"summary","files_new":3,"snapshot_id":"abc123"}'
exit 0
`)

	require.NoError(t, svc.StartBackup(testProfile(), BackupJob{SourcePaths: []string{"/home/kim/docs"}}))

	progress, term := awaitTerminal(t, sink)
	require.Len(t, progress, 3)
	assert.Equal(t, 0.25, progress[0].Backup.PercentDone)
	assert.Equal(t, 0.75, progress[1].Backup.PercentDone)
	assert.True(t, progress[2].Backup.IsSummary())
	assert.Equal(t, "abc123", progress[2].Backup.SnapshotID)

	assert.Equal(t, EventDone, term.Type)
	assert.Equal(t, OpBackup, term.Op)
}

func TestStartBackupPassesJobArguments(t *testing.T) {
	record := filepath.Join(t.TempDir(), "args")
	svc, sink := newTestService(t, `echo "$@" > `+record+`
exit 0
`)

	job := BackupJob{
		SourcePaths: []string{"/home/kim/docs", "/home/kim/music"},
		Excludes:    []string{"*.tmp"},
		Tags:        []string{"nightly"},
	}
	require.NoError(t, svc.StartBackup(testProfile(), job))
	_, term := awaitTerminal(t, sink)
	require.Equal(t, EventDone, term.Type)

	raw, err := os.ReadFile(record)
	require.NoError(t, err)
	args := strings.TrimSpace(string(raw))
	assert.Equal(t, "backup --json --exclude *.tmp --tag nightly /home/kim/docs /home/kim/music", args)
}

func TestStartBackupFailureTranslated(t *testing.T) {
	svc, sink := newTestService(t, `
echo 'Fatal: wrong password or no key found' >&2
exit 1
`)

	require.NoError(t, svc.StartBackup(testProfile(), BackupJob{SourcePaths: []string{"/data"}}))

	_, term := awaitTerminal(t, sink)
	assert.Equal(t, EventFailed, term.Type)
	assert.Contains(t, term.Message, "password")
}

func TestStartBackupCancelled(t *testing.T) {
	svc, sink := newTestService(t, `
echo '{"message_type":"status","percent_done":0.1}'
sleep 30
exit 0
`)

	require.NoError(t, svc.StartBackup(testProfile(), BackupJob{SourcePaths: []string{"/data"}}))

	first := nextEvent(t, sink)
	require.Equal(t, EventProgress, first.Type)

	svc.CancelBackup()

	_, term := awaitTerminal(t, sink)
	assert.Equal(t, EventCancelled, term.Type)
	assert.Empty(t, term.Message)
}

// Cancellation wins even when the engine exits non-zero in response.
func TestStartBackupCancelBeatsExitCode(t *testing.T) {
	svc, sink := newTestService(t, `
trap 'exit 3' TERM
echo '{"message_type":"status","percent_done":0.1}'
sleep 30
exit 0
`)

	require.NoError(t, svc.StartBackup(testProfile(), BackupJob{SourcePaths: []string{"/data"}}))
	nextEvent(t, sink)

	svc.CancelBackup()

	_, term := awaitTerminal(t, sink)
	assert.Equal(t, EventCancelled, term.Type)
}

func TestStartBackupRejectsEmptyJob(t *testing.T) {
	svc, _ := newTestService(t, "exit 0\n")

	err := svc.StartBackup(testProfile(), BackupJob{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConfig))
}

func TestStartBackupRejectsConcurrentBackup(t *testing.T) {
	svc, sink := newTestService(t, `
echo '{"message_type":"status","percent_done":0.1}'
sleep 30
`)

	require.NoError(t, svc.StartBackup(testProfile(), BackupJob{SourcePaths: []string{"/data"}}))
	nextEvent(t, sink)

	err := svc.StartBackup(testProfile(), BackupJob{SourcePaths: []string{"/data"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInternal))

	svc.CancelBackup()
	_, term := awaitTerminal(t, sink)
	require.Equal(t, EventCancelled, term.Type)

	// After the terminal event the slot is free again.
	require.NoError(t, svc.StartBackup(testProfile(), BackupJob{SourcePaths: []string{"/data"}}))
	svc.CancelBackup()
	_, term = awaitTerminal(t, sink)
	assert.Equal(t, EventCancelled, term.Type)
}
