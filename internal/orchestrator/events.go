package orchestrator

import "github.com/kweiss/resticpilot/internal/engine"

type OpKind string

const (
	OpBackup  OpKind = "backup"
	OpRestore OpKind = "restore"
)

type EventType string

const (
	EventProgress  EventType = "progress"
	EventDone      EventType = "done"
	EventFailed    EventType = "failed"
	EventCancelled EventType = "cancelled"
)

// Event is what the UI layer consumes. Progress events arrive in subprocess
// output order; exactly one terminal event (done, failed or cancelled)
// follows all progress events for an operation.
type Event struct {
	Op      OpKind
	Type    EventType
	Backup  *engine.BackupProgress  // set on backup progress events
	Restore *engine.RestoreProgress // set on restore progress events
	Message string                  // failure message on EventFailed
}

// Terminal reports whether the event ends its operation.
func (e Event) Terminal() bool {
	return e.Type != EventProgress
}

// Sink receives events from running operations.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// ChannelSink buffers events on a channel, for CLI rendering and tests.
type ChannelSink struct {
	C chan Event
}

func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{C: make(chan Event, size)}
}

func (s *ChannelSink) Emit(e Event) { s.C <- e }
