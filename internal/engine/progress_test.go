package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(lines ...string) <-chan string {
	ch := make(chan string, len(lines))
	for _, l := range lines {
		ch <- l
	}
	close(ch)
	return ch
}

func TestBackupRecords_OrderPreservedMalformedDropped(t *testing.T) {
	records := BackupRecords(feed(
		`{"message_type":"status","percent_done":0.1,"files_done":1}`,
		`unable to open repository cache`, // engine diagnostic noise
		`{"message_type":"status","percent_done":0.6,"files_done":9}`,
		`{broken json`,
		`{"some_other_field":true}`, // valid JSON, no discriminator
		`{"message_type":"summary","files_new":3,"snapshot_id":"ab12cd34"}`,
	))

	var got []BackupProgress
	for rec := range records {
		got = append(got, rec)
	}

	require.Len(t, got, 3)
	assert.Equal(t, 0.1, got[0].PercentDone)
	assert.Equal(t, 0.6, got[1].PercentDone)
	assert.True(t, got[2].IsSummary())
	assert.Equal(t, uint64(3), got[2].FilesNew)
	assert.Equal(t, "ab12cd34", got[2].SnapshotID)
}

func TestBackupRecords_OneRecordPerValidLine(t *testing.T) {
	records := BackupRecords(feed(
		`{"message_type":"status","percent_done":0.5}`,
	))

	count := 0
	for range records {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestBackupRecords_EmptyInput(t *testing.T) {
	records := BackupRecords(feed())
	_, open := <-records
	assert.False(t, open)
}

func TestRestoreRecords(t *testing.T) {
	records := RestoreRecords(feed(
		`{"message_type":"status","percent_done":0.25,"files_restored":2,"bytes_restored":2048}`,
		`garbage`,
		`{"message_type":"status","percent_done":1,"files_restored":8,"bytes_restored":8192}`,
	))

	var got []RestoreProgress
	for rec := range records {
		got = append(got, rec)
	}

	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].FilesRestored)
	assert.Equal(t, uint64(8192), got[1].BytesRestored)
	assert.Equal(t, float64(1), got[1].PercentDone)
}
