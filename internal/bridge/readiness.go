package bridge

import (
	"context"
	"sync"
)

// ReadySignal is a single-resolution future over a ReadyResult.
//
// Resolve is idempotent: the first call wins and every later call is a
// no-op. Await blocks until resolution and replays the cached result
// immediately to callers that arrive late.
type ReadySignal struct {
	once   sync.Once
	done   chan struct{}
	result ReadyResult
}

// NewReadySignal creates an unresolved signal.
func NewReadySignal() *ReadySignal {
	return &ReadySignal{done: make(chan struct{})}
}

// Resolve publishes the result. Only the first call has any effect.
func (s *ReadySignal) Resolve(r ReadyResult) {
	s.once.Do(func() {
		s.result = r
		close(s.done)
	})
}

// Resolved reports whether the signal has been resolved.
func (s *ReadySignal) Resolved() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Await blocks until the signal resolves or ctx is done. On context
// cancellation it returns the zero result and the context error. An
// already-resolved signal replays its result even when ctx is done.
func (s *ReadySignal) Await(ctx context.Context) (ReadyResult, error) {
	select {
	case <-s.done:
		return s.result, nil
	default:
	}

	select {
	case <-s.done:
		return s.result, nil
	case <-ctx.Done():
		return ReadyResult{}, ctx.Err()
	}
}
