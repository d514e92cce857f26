package orchestrator

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/kweiss/resticpilot/internal/errors"
)

// operation is the handle for one in-flight long-running operation.
type operation struct {
	cancel          context.CancelFunc
	cancelRequested bool
}

// handles tracks at most one active operation per kind. A single mutex
// guards the registry so a cancel arriving concurrently with operation
// start or exit observes a consistent state.
type handles struct {
	mu     sync.Mutex
	active map[OpKind]*operation
}

func newHandles() *handles {
	return &handles{active: make(map[OpKind]*operation)}
}

// begin registers a new operation of the given kind. It fails if one is
// already active; the UI disables the relevant controls while running, so
// hitting this is a caller bug.
func (h *handles) begin(kind OpKind, cancel context.CancelFunc) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.active[kind]; ok {
		return apperrors.New(apperrors.KindInternal, fmt.Sprintf("a %s operation is already active", kind), "")
	}
	h.active[kind] = &operation{cancel: cancel}
	return nil
}

// end clears the handle once the operation has terminated.
func (h *handles) end(kind OpKind) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.active, kind)
}

// requestCancel asks the active operation of the given kind to stop.
// No-op when none is active.
func (h *handles) requestCancel(kind OpKind) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if op, ok := h.active[kind]; ok {
		op.cancelRequested = true
		op.cancel()
	}
}

// cancelRequested reports whether a cancel was requested for the active
// operation of the given kind. Read before end() when classifying the
// outcome: cancellation takes precedence over exit-code classification.
func (h *handles) cancelRequested(kind OpKind) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if op, ok := h.active[kind]; ok {
		return op.cancelRequested
	}
	return false
}
