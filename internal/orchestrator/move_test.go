package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestMoveContentsMovesFilesAndDirs(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeFile(t, filepath.Join(src, "notes.txt"), "notes")
	writeFile(t, filepath.Join(src, "docs", "report.pdf"), "report")

	require.NoError(t, moveContents(src, dst))

	raw, err := os.ReadFile(filepath.Join(dst, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "notes", string(raw))

	raw, err = os.ReadFile(filepath.Join(dst, "docs", "report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "report", string(raw))

	entries, err := os.ReadDir(src)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMoveContentsMergesIntoExistingDir(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	// dst already has a non-empty "docs" directory, so the rename fails
	// and the copy fallback has to merge.
	writeFile(t, filepath.Join(dst, "docs", "existing.txt"), "existing")
	writeFile(t, filepath.Join(src, "docs", "report.pdf"), "report")

	require.NoError(t, moveContents(src, dst))

	_, err := os.Stat(filepath.Join(dst, "docs", "existing.txt"))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dst, "docs", "report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "report", string(raw))
}

func TestMoveContentsMissingSourceIsNoop(t *testing.T) {
	dst := t.TempDir()
	require.NoError(t, moveContents(filepath.Join(t.TempDir(), "gone"), dst))
}

func TestCopyPathPreservesTree(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "copy")

	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, filepath.Join(src, "sub", "b.txt"), "b")

	require.NoError(t, copyPath(src, dst))

	raw, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(raw))

	raw, err = os.ReadFile(filepath.Join(dst, "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(raw))
}
