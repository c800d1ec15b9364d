package bridge

import (
	"context"
	"encoding/json"
)

// The bridge operations below are the external surface the host driver
// invokes, one call at a time, against a single PageContext. Every
// failure path is a structured result value; none of these return errors
// to the caller.

// Start begins recording. It is idempotent while a handle is held and
// never queues: calling it before the library finished loading is a
// precondition violation reported as not_loaded.
func (p *PageContext) Start() StartResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		return StartResult{Status: StatusAlreadyRecording}
	}

	switch p.state {
	case StateLoadFailed:
		return StartResult{Status: StatusLoadFailed}
	case StateIdle, StateLoading:
		return StartResult{Status: StatusNotLoaded}
	}

	p.startLocked()
	return StartResult{Status: StatusStarted}
}

// StatusProbe reports the status an immediate Start call would return,
// without side effects.
func (p *PageContext) StatusProbe() StartResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		return StartResult{Status: StatusAlreadyRecording}
	}

	switch p.state {
	case StateLoadFailed:
		return StartResult{Status: StatusLoadFailed}
	case StateIdle, StateLoading:
		return StartResult{Status: StatusNotLoaded}
	}

	return StartResult{Status: StatusStarted}
}

// AwaitReady blocks until the loader resolves, replaying the cached
// result to late callers. When the loader never ran on this page it
// short-circuits with not_injected instead of suspending forever.
func (p *PageContext) AwaitReady(ctx context.Context) (ReadyResult, error) {
	p.mu.Lock()
	injected := p.injected
	p.mu.Unlock()

	if !injected {
		return ReadyResult{Success: false, Error: ErrorNotInjected}, nil
	}
	return p.ready.Await(ctx)
}

// StopAndDump halts recording if active, clears the persistence flag,
// and drains the event buffer. Calling it with no active recording is
// defined behavior and yields an empty event list.
func (p *PageContext) StopAndDump() []json.RawMessage {
	p.mu.Lock()
	if p.stop != nil {
		p.stop()
		p.stop = nil
		p.state = StateStopped
	}
	p.flags.SetShouldRecord(false)
	p.mu.Unlock()

	return p.drainBuffer()
}

// DrainEvents drains the buffered events without stopping the recording.
// The host's periodic flush uses this to bound in-page memory growth.
func (p *PageContext) DrainEvents() []json.RawMessage {
	return p.drainBuffer()
}

// Dump is the serialized form of StopAndDump: a JSON object with an
// events array, never null.
type Dump struct {
	Events []json.RawMessage `json:"events"`
}

// StopAndDumpJSON runs StopAndDump and serializes the drained buffer.
func (p *PageContext) StopAndDumpJSON() (string, error) {
	events := p.StopAndDump()
	if events == nil {
		events = []json.RawMessage{}
	}
	out, err := json.Marshal(Dump{Events: events})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
