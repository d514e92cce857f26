package engine

import (
	"encoding/json"
	"strings"

	apperrors "github.com/kweiss/resticpilot/internal/errors"
)

// BackupProgress is one line of restic backup --json output. Running status
// lines carry message_type "status", the final line carries "summary" with
// the summary fields populated.
type BackupProgress struct {
	MessageType      string   `json:"message_type"`
	SecondsElapsed   float64  `json:"seconds_elapsed"`
	SecondsRemaining float64  `json:"seconds_remaining"`
	PercentDone      float64  `json:"percent_done"`
	TotalFiles       uint64   `json:"total_files"`
	FilesDone        uint64   `json:"files_done"`
	TotalBytes       uint64   `json:"total_bytes"`
	BytesDone        uint64   `json:"bytes_done"`
	ErrorCount       int      `json:"error_count"`
	CurrentFiles     []string `json:"current_files"`
	// Summary fields
	FilesNew        uint64  `json:"files_new"`
	FilesChanged    uint64  `json:"files_changed"`
	FilesUnmodified uint64  `json:"files_unmodified"`
	DirsNew         uint64  `json:"dirs_new"`
	DirsChanged     uint64  `json:"dirs_changed"`
	DirsUnmodified  uint64  `json:"dirs_unmodified"`
	DataBlobs       int     `json:"data_blobs"`
	TreeBlobs       int     `json:"tree_blobs"`
	DataAdded       uint64  `json:"data_added"`
	TotalFilesProc  uint64  `json:"total_files_processed"`
	TotalBytesProc  uint64  `json:"total_bytes_processed"`
	TotalDuration   float64 `json:"total_duration"`
	SnapshotID      string  `json:"snapshot_id"`
}

// IsSummary reports whether the record is the terminal backup summary.
func (p BackupProgress) IsSummary() bool {
	return p.MessageType == "summary"
}

// RestoreProgress is one line of restic restore --json output.
type RestoreProgress struct {
	MessageType      string  `json:"message_type"`
	SecondsElapsed   float64 `json:"seconds_elapsed"`
	SecondsRemaining float64 `json:"seconds_remaining"`
	PercentDone      float64 `json:"percent_done"`
	TotalFiles       uint64  `json:"total_files"`
	FilesRestored    uint64  `json:"files_restored"`
	FilesSkipped     uint64  `json:"files_skipped"`
	TotalBytes       uint64  `json:"total_bytes"`
	BytesRestored    uint64  `json:"bytes_restored"`
	BytesSkipped     uint64  `json:"bytes_skipped"`
}

// Snapshot is one entry of restic snapshots --json.
type Snapshot struct {
	ID       string   `json:"id"`
	ShortID  string   `json:"short_id"`
	Time     string   `json:"time"`
	Hostname string   `json:"hostname"`
	Username string   `json:"username"`
	Paths    []string `json:"paths"`
	Tags     []string `json:"tags"`
}

// FileNode is a file or directory entry from restic ls --json. The first
// line of the listing describes the snapshot itself and has a different
// struct_type; entries carry struct_type "node".
type FileNode struct {
	StructType string `json:"struct_type"`
	Name       string `json:"name"`
	Type       string `json:"type"` // "file" or "dir"
	Path       string `json:"path"` // engine-native separators
	Size       uint64 `json:"size"`
	MTime      string `json:"mtime"`
}

// ParseSnapshots decodes the output of restic snapshots --json.
func ParseSnapshots(out string) ([]Snapshot, error) {
	var snapshots []Snapshot
	if err := json.Unmarshal([]byte(out), &snapshots); err != nil {
		return nil, apperrors.New(apperrors.KindParse, "failed to parse snapshot data", "")
	}
	return snapshots, nil
}

// ParseNodes decodes the line-oriented output of restic ls --json, keeping
// only entry nodes. Unparseable lines are skipped; the engine mixes a
// snapshot header line and occasional diagnostics into the stream.
func ParseNodes(out string) []FileNode {
	var nodes []FileNode
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		var node FileNode
		if err := json.Unmarshal([]byte(line), &node); err != nil {
			continue
		}
		if node.StructType == "node" {
			nodes = append(nodes, node)
		}
	}
	return nodes
}
