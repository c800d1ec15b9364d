package bridge

import (
	"context"
	"encoding/json"
	"sync"
)

// Recorder is the third-party recording library as seen by the bridge.
// The bridge never inspects event payloads; they pass through opaque.
type Recorder interface {
	// Record begins capture and invokes emit for each produced event,
	// in emission order. The returned stop func halts capture; it is
	// the stop-handle and is safe to call exactly once.
	Record(emit func(json.RawMessage)) (stop func())
}

// LoadFunc fetches the recorder library. It is invoked at most once per
// page load by the loader; a nil Recorder with a non-nil error marks the
// load as failed for the page's lifetime.
type LoadFunc func(ctx context.Context) (Recorder, error)

// FlagStore is the host-visible persistence flag. It is the one piece of
// state that survives a navigation: a fresh PageContext reads it to
// decide whether to auto-resume recording.
type FlagStore interface {
	ShouldRecord() bool
	SetShouldRecord(v bool)
}

// MemoryFlag is an in-process FlagStore.
type MemoryFlag struct {
	mu  sync.Mutex
	set bool
}

func (f *MemoryFlag) ShouldRecord() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.set
}

func (f *MemoryFlag) SetShouldRecord(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set = v
}
