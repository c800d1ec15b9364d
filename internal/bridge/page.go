package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// PageContext is the explicit page-scoped state object behind the bridge.
// One PageContext exists per page load; navigating away discards it, the
// same way the browser discards a page's script context. Only the
// FlagStore outlives it.
//
// mu serializes loader completion against bridge calls, so a start racing
// an in-flight load-failure transition observes either the pre-failure or
// post-failure state, never a torn one. The event buffer has its own lock
// because recorders may emit synchronously from inside Record (rrweb
// emits a full snapshot at start); lock order is always mu before bufMu.
type PageContext struct {
	mu sync.Mutex

	state    State
	injected bool

	recorder Recorder
	stop     func()

	bufMu  sync.Mutex
	buffer []json.RawMessage

	ready *ReadySignal
	flags FlagStore

	logger *slog.Logger
}

// NewPageContext creates the state object for a fresh page load. flags is
// the host-visible persistence flag store shared across navigations.
func NewPageContext(flags FlagStore) *PageContext {
	return &PageContext{
		state:  StateIdle,
		ready:  NewReadySignal(),
		flags:  flags,
		logger: slog.Default().With("component", "bridge"),
	}
}

// InjectLoader performs the page's single injection attempt. A second
// call on the same PageContext is a no-op. The load runs asynchronously;
// completion resolves the ready signal and, when the persistence flag is
// set and no handle is held, auto-starts recording.
func (p *PageContext) InjectLoader(ctx context.Context, load LoadFunc) {
	p.mu.Lock()
	if p.injected {
		p.mu.Unlock()
		return
	}
	p.injected = true
	p.state = StateLoading
	p.mu.Unlock()

	go p.runLoad(ctx, load)
}

func (p *PageContext) runLoad(ctx context.Context, load LoadFunc) {
	rec, err := load(ctx)

	p.mu.Lock()
	if err != nil || rec == nil {
		p.state = StateLoadFailed
		p.mu.Unlock()
		p.ready.Resolve(ReadyResult{Success: false, Error: ErrorLoadFailed})
		p.logger.Debug("recorder load failed", "err", err)
		return
	}

	p.recorder = rec
	p.state = StateReady
	resume := p.flags.ShouldRecord() && p.stop == nil
	if resume {
		p.startLocked()
	}
	p.mu.Unlock()

	p.ready.Resolve(ReadyResult{Success: true})
	if resume {
		p.logger.Debug("recording auto-resumed after load")
	}
}

// startLocked clears the buffer, registers the emit callback, and takes
// the stop-handle. Caller holds p.mu and has verified state is Ready.
func (p *PageContext) startLocked() {
	p.bufMu.Lock()
	p.buffer = nil
	p.bufMu.Unlock()

	p.stop = p.recorder.Record(func(ev json.RawMessage) {
		p.bufMu.Lock()
		p.buffer = append(p.buffer, ev)
		p.bufMu.Unlock()
	})
	p.flags.SetShouldRecord(true)
	p.state = StateRecording
}

// drainBuffer returns the buffered events in capture order and clears
// the buffer.
func (p *PageContext) drainBuffer() []json.RawMessage {
	p.bufMu.Lock()
	defer p.bufMu.Unlock()
	events := p.buffer
	p.buffer = nil
	return events
}

// State returns the current lifecycle state.
func (p *PageContext) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
