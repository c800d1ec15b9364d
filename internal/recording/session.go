package recording

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pagetap/pagetap/internal/bridge"
)

// Recording is a secondary feature that must never block primary browser
// automation. User-facing operations (Start, Stop) return descriptive
// errors; background operations (periodic flush, resume after
// navigation) log at debug level and continue. A warning fires after
// three consecutive flush failures so a persistent problem stays visible.

// ErrNotRecording is returned by Stop when no recording is active.
var ErrNotRecording = errors.New("not recording")

// Session manages one recording lifecycle over a PageBridge.
type Session struct {
	mu sync.Mutex

	page PageBridge
	cfg  Config
	sink EventSink

	recording     bool
	starting      bool
	flushCancel   context.CancelFunc
	flushDone     chan struct{}
	flushFailures int

	logger *slog.Logger
}

// NewSession creates a session. sink may be nil, in which case drained
// batches are discarded on flush and only Stop surfaces events.
func NewSession(page PageBridge, cfg Config, sink EventSink) *Session {
	return &Session{
		page:   page,
		cfg:    cfg.Resolve(),
		sink:   sink,
		logger: slog.Default().With("component", "recording"),
	}
}

// Active reports whether a recording is in progress.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// Status probes the page for the current start status.
func (s *Session) Status(ctx context.Context) (bridge.Status, error) {
	return s.page.StatusProbe(ctx)
}

// AwaitReady waits for the loader readiness signal, bounded by the
// configured load timeout.
func (s *Session) AwaitReady(ctx context.Context) (bridge.ReadyResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LoadTimeout)
	defer cancel()
	return s.page.AwaitReady(ctx)
}

// Start injects the loader, waits for readiness, and begins capture. The
// returned status distinguishes a fresh start from a session that was
// already recording. The starting guard holds across the whole
// inject/await/start sequence, so a concurrent Start observes the one in
// flight as already recording instead of spawning a second flush loop.
func (s *Session) Start(ctx context.Context) (bridge.Status, error) {
	s.mu.Lock()
	if s.recording || s.starting {
		s.mu.Unlock()
		return bridge.StatusAlreadyRecording, nil
	}
	s.starting = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.starting = false
		s.mu.Unlock()
	}()

	if err := s.page.InjectLoader(ctx); err != nil {
		return "", fmt.Errorf("inject loader: %w", err)
	}

	ready, err := s.AwaitReady(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("recorder library did not load within %s; navigate to a page first and try again", s.cfg.LoadTimeout)
		}
		return "", fmt.Errorf("await readiness: %w", err)
	}
	if !ready.Success {
		return "", readyError(ready)
	}

	status, err := s.page.StartRecording(ctx)
	if err != nil {
		return "", fmt.Errorf("start recording: %w", err)
	}

	switch status {
	case bridge.StatusStarted, bridge.StatusAlreadyRecording:
		if err := s.page.SetShouldRecord(ctx, true); err != nil {
			s.logger.Debug("set should-record flag failed", "err", err)
		}
	case bridge.StatusLoadFailed:
		return "", readyError(bridge.ReadyResult{Error: bridge.ErrorLoadFailed})
	default:
		return "", fmt.Errorf("unexpected start status %q", status)
	}

	s.mu.Lock()
	s.recording = true
	s.flushFailures = 0
	flushCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.flushCancel = cancel
	s.flushDone = make(chan struct{})
	go s.flushLoop(flushCtx, s.flushDone)
	s.mu.Unlock()

	s.logger.Info("recording started")
	return status, nil
}

// readyError translates a failed ReadyResult into a user-facing error.
func readyError(r bridge.ReadyResult) error {
	switch r.Error {
	case bridge.ErrorLoadFailed:
		return errors.New("recorder library failed to load from CDN; check network connectivity and try again")
	case bridge.ErrorNotInjected:
		return errors.New("recorder scripts not injected; navigate to a page first and try again")
	default:
		return fmt.Errorf("recorder not ready: %s", r.Error)
	}
}

// Summary describes a finished recording.
type Summary struct {
	Events  int `json:"events"`
	Batches int `json:"batches"`
}

// Stop halts capture, drains the remaining events through the sink, and
// clears the persistence flag.
func (s *Session) Stop(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return Summary{}, ErrNotRecording
	}
	s.recording = false
	cancel, done := s.flushCancel, s.flushDone
	s.flushCancel, s.flushDone = nil, nil
	s.mu.Unlock()

	// Halt the periodic flush before the final drain so the two cannot
	// interleave on the page buffer.
	if cancel != nil {
		cancel()
		<-done
	}

	events, err := s.page.StopAndDump(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("stop recording: %w", err)
	}

	batches := 0
	if len(events) > 0 {
		if err := s.deliver(events); err != nil {
			return Summary{}, fmt.Errorf("deliver final batch: %w", err)
		}
		batches = 1
	}

	s.logger.Info("recording stopped", "events", len(events))
	return Summary{Events: len(events), Batches: batches}, nil
}

// ResumeOnNewPage restarts capture after a navigation when a recording
// is active. It never returns an error; a page that cannot resume is
// logged and skipped.
func (s *Session) ResumeOnNewPage(ctx context.Context) {
	if !s.Active() {
		return
	}

	ready, err := s.AwaitReady(ctx)
	if err != nil || !ready.Success {
		s.logger.Debug("resume skipped: recorder not ready", "err", err, "reason", ready.Error)
		return
	}

	status, err := s.page.ResumeRecording(ctx)
	if err != nil {
		s.logger.Debug("resume skipped", "err", err)
		return
	}

	switch status {
	case bridge.StatusStarted:
		s.logger.Debug("recording resumed on new page")
	case bridge.StatusAlreadyRecording:
		s.logger.Debug("recording already active on new page")
	default:
		s.logger.Debug("resume returned unexpected status", "status", status)
	}
}

// Flush drains buffered events from the page into the sink. Returns the
// number of events drained.
func (s *Session) Flush(ctx context.Context) (int, error) {
	if !s.Active() {
		return 0, nil
	}

	events, err := s.page.DrainEvents(ctx)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}
	if err := s.deliver(events); err != nil {
		return 0, err
	}
	return len(events), nil
}

func (s *Session) deliver(events []json.RawMessage) error {
	if s.sink == nil {
		return nil
	}
	return s.sink.WriteEvents(events)
}

func (s *Session) flushLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := s.Flush(ctx)
		s.mu.Lock()
		if err != nil {
			s.flushFailures++
			failures := s.flushFailures
			s.mu.Unlock()
			s.logger.Debug("periodic flush skipped", "err", err)
			if failures >= 3 {
				s.logger.Warn("recording flush keeps failing; events may be accumulating in the page",
					"consecutive_failures", failures)
			}
			continue
		}
		s.flushFailures = 0
		s.mu.Unlock()

		if n > 0 {
			s.logger.Debug("flushed events", "count", n)
		}
	}
}
