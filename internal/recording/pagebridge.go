package recording

import (
	"context"
	"encoding/json"

	"github.com/pagetap/pagetap/internal/bridge"
)

// PageBridge is the per-operation surface a recording session drives.
// Each method corresponds to one discrete page-script evaluation; errors
// are transport failures (the evaluation itself could not run), while
// recorder-level outcomes travel as status values.
type PageBridge interface {
	// InjectLoader arms the recorder loader for the current and all
	// future documents of the page.
	InjectLoader(ctx context.Context) error

	// AwaitReady suspends until the loader resolves, or short-circuits
	// with not_injected when the loader never ran.
	AwaitReady(ctx context.Context) (bridge.ReadyResult, error)

	// StartRecording begins a fresh capture on the current page.
	StartRecording(ctx context.Context) (bridge.Status, error)

	// ResumeRecording restarts capture on a freshly loaded page after
	// navigation, without touching the persistence flag.
	ResumeRecording(ctx context.Context) (bridge.Status, error)

	// StatusProbe reports the start status vocabulary without side
	// effects.
	StatusProbe(ctx context.Context) (bridge.Status, error)

	// DrainEvents drains buffered events while capture continues.
	DrainEvents(ctx context.Context) ([]json.RawMessage, error)

	// StopAndDump halts capture, clears the persistence flag, and
	// drains the buffer.
	StopAndDump(ctx context.Context) ([]json.RawMessage, error)

	// SetShouldRecord writes the page-visible persistence flag.
	SetShouldRecord(ctx context.Context, v bool) error
}

// EventSink receives drained event batches. Persisting them beyond the
// page's lifetime is the host's concern, not the bridge's.
type EventSink interface {
	WriteEvents(events []json.RawMessage) error
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(events []json.RawMessage) error

func (f SinkFunc) WriteEvents(events []json.RawMessage) error {
	return f(events)
}
