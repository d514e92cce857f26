package engine

import "encoding/json"

// BackupRecords decodes a stream of stdout lines into backup progress
// records. Lines that are not valid JSON or lack the message_type
// discriminator are dropped: the engine emits occasional unstructured
// diagnostic lines that are not progress data and must not abort the
// stream. Record order follows line order; the returned channel closes
// when lines closes.
func BackupRecords(lines <-chan string) <-chan BackupProgress {
	out := make(chan BackupProgress)
	go func() {
		defer close(out)
		for line := range lines {
			var p BackupProgress
			if err := json.Unmarshal([]byte(line), &p); err != nil {
				continue
			}
			if p.MessageType == "" {
				continue
			}
			out <- p
		}
	}()
	return out
}

// RestoreRecords is the restore analogue of BackupRecords.
func RestoreRecords(lines <-chan string) <-chan RestoreProgress {
	out := make(chan RestoreProgress)
	go func() {
		defer close(out)
		for line := range lines {
			var p RestoreProgress
			if err := json.Unmarshal([]byte(line), &p); err != nil {
				continue
			}
			if p.MessageType == "" {
				continue
			}
			out <- p
		}
	}()
	return out
}
