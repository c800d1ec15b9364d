package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeRecorder captures the emit callback so tests can drive events.
type fakeRecorder struct {
	emit    func(json.RawMessage)
	stopped int
}

func (r *fakeRecorder) Record(emit func(json.RawMessage)) (stop func()) {
	r.emit = emit
	return func() {
		r.stopped++
		r.emit = nil
	}
}

func (r *fakeRecorder) emitN(n int) {
	for i := 0; i < n; i++ {
		r.emit(json.RawMessage(fmt.Sprintf(`{"type":3,"seq":%d}`, i)))
	}
}

// loadedPage returns a PageContext whose loader has completed.
func loadedPage(t *testing.T, flags FlagStore) (*PageContext, *fakeRecorder) {
	t.Helper()
	rec := &fakeRecorder{}
	p := NewPageContext(flags)
	p.InjectLoader(context.Background(), func(ctx context.Context) (Recorder, error) {
		return rec, nil
	})
	awaitOK(t, p)
	return p, rec
}

// failedPage returns a PageContext whose loader failed.
func failedPage(t *testing.T, flags FlagStore) *PageContext {
	t.Helper()
	p := NewPageContext(flags)
	p.InjectLoader(context.Background(), func(ctx context.Context) (Recorder, error) {
		return nil, errors.New("fetch refused")
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := p.AwaitReady(ctx); err != nil {
		t.Fatalf("AwaitReady: %v", err)
	}
	return p
}

func awaitOK(t *testing.T, p *PageContext) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := p.AwaitReady(ctx)
	if err != nil {
		t.Fatalf("AwaitReady: %v", err)
	}
	if !res.Success {
		t.Fatalf("load failed: %s", res.Error)
	}
}

func TestStartIdempotent(t *testing.T) {
	p, rec := loadedPage(t, &MemoryFlag{})

	if got := p.Start(); got.Status != StatusStarted {
		t.Fatalf("first start = %s, want started", got.Status)
	}
	rec.emitN(2)
	if got := p.Start(); got.Status != StatusAlreadyRecording {
		t.Fatalf("second start = %s, want already_recording", got.Status)
	}

	// The second start must not have cleared the buffer.
	events := p.StopAndDump()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
}

func TestStartBeforeLoad(t *testing.T) {
	p := NewPageContext(&MemoryFlag{})

	// Not injected at all.
	if got := p.Start(); got.Status != StatusNotLoaded {
		t.Fatalf("start before injection = %s, want not_loaded", got.Status)
	}

	// Injected, load still in flight.
	release := make(chan struct{})
	p.InjectLoader(context.Background(), func(ctx context.Context) (Recorder, error) {
		<-release
		return &fakeRecorder{}, nil
	})
	if got := p.Start(); got.Status != StatusNotLoaded {
		t.Fatalf("start while loading = %s, want not_loaded", got.Status)
	}
	close(release)
}

func TestStartAfterLoadFailure(t *testing.T) {
	p := failedPage(t, &MemoryFlag{})

	if got := p.Start(); got.Status != StatusLoadFailed {
		t.Fatalf("start = %s, want load_failed", got.Status)
	}
	if events := p.StopAndDump(); len(events) != 0 {
		t.Fatalf("got %d events after failed load, want 0", len(events))
	}
}

func TestStopWithoutStart(t *testing.T) {
	p, _ := loadedPage(t, &MemoryFlag{})

	out, err := p.StopAndDumpJSON()
	if err != nil {
		t.Fatalf("StopAndDumpJSON: %v", err)
	}
	if out != `{"events":[]}` {
		t.Fatalf("got %s, want {\"events\":[]}", out)
	}
}

func TestDrainAndReset(t *testing.T) {
	p, rec := loadedPage(t, &MemoryFlag{})

	p.Start()
	rec.emitN(3)

	if got := len(p.StopAndDump()); got != 3 {
		t.Fatalf("first dump: %d events, want 3", got)
	}
	if got := len(p.StopAndDump()); got != 0 {
		t.Fatalf("second dump: %d events, want 0", got)
	}
}

func TestOrderPreservation(t *testing.T) {
	for _, n := range []int{0, 1, 100} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			p, rec := loadedPage(t, &MemoryFlag{})
			p.Start()
			rec.emitN(n)

			events := p.StopAndDump()
			if len(events) != n {
				t.Fatalf("got %d events, want %d", len(events), n)
			}
			for i, ev := range events {
				var got struct {
					Seq int `json:"seq"`
				}
				if err := json.Unmarshal(ev, &got); err != nil {
					t.Fatalf("event %d: %v", i, err)
				}
				if got.Seq != i {
					t.Fatalf("event %d has seq %d", i, got.Seq)
				}
			}
		})
	}
}

func TestReadinessDeterminism(t *testing.T) {
	p := failedPage(t, &MemoryFlag{})
	for i := 0; i < 3; i++ {
		res, err := p.AwaitReady(context.Background())
		if err != nil {
			t.Fatalf("AwaitReady: %v", err)
		}
		if res.Success || res.Error != ErrorLoadFailed {
			t.Fatalf("call %d: got %+v, want load_failed", i, res)
		}
	}

	ok, _ := loadedPage(t, &MemoryFlag{})
	for i := 0; i < 3; i++ {
		res, err := ok.AwaitReady(context.Background())
		if err != nil {
			t.Fatalf("AwaitReady: %v", err)
		}
		if !res.Success || res.Error != "" {
			t.Fatalf("call %d: got %+v, want success", i, res)
		}
	}
}

func TestNotInjectedShortCircuit(t *testing.T) {
	p := NewPageContext(&MemoryFlag{})

	// Must return immediately even with an already-expired context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := p.AwaitReady(ctx)
	if err != nil {
		t.Fatalf("AwaitReady: %v", err)
	}
	if res.Success || res.Error != ErrorNotInjected {
		t.Fatalf("got %+v, want not_injected", res)
	}
}

func TestCrossNavigationResume(t *testing.T) {
	flags := &MemoryFlag{}

	// Page A: explicit start sets the persistence flag.
	pageA, recA := loadedPage(t, flags)
	if got := pageA.Start(); got.Status != StatusStarted {
		t.Fatalf("page A start = %s", got.Status)
	}
	recA.emitN(5)
	if !flags.ShouldRecord() {
		t.Fatal("persistence flag not set by start")
	}

	// Navigation: page A's context is discarded, page B loads fresh.
	pageB, recB := loadedPage(t, flags)

	// The loader auto-resumed without an explicit host start.
	if got := pageB.StatusProbe(); got.Status != StatusAlreadyRecording {
		t.Fatalf("page B probe = %s, want already_recording", got.Status)
	}
	recB.emitN(2)

	// The dump contains page B events only.
	events := pageB.StopAndDump()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (page B only)", len(events))
	}
	if flags.ShouldRecord() {
		t.Fatal("persistence flag not cleared by stop")
	}
}

func TestLoadFailureDoesNotResume(t *testing.T) {
	flags := &MemoryFlag{}
	flags.SetShouldRecord(true)

	p := failedPage(t, flags)
	if got := p.StatusProbe(); got.Status != StatusLoadFailed {
		t.Fatalf("probe = %s, want load_failed", got.Status)
	}
}

func TestInjectLoaderOncePerPage(t *testing.T) {
	loads := 0
	p := NewPageContext(&MemoryFlag{})
	load := func(ctx context.Context) (Recorder, error) {
		loads++
		return &fakeRecorder{}, nil
	}
	p.InjectLoader(context.Background(), load)
	p.InjectLoader(context.Background(), load)
	awaitOK(t, p)

	if loads != 1 {
		t.Fatalf("loader ran %d times, want 1", loads)
	}
}

func TestStopHandleInvokedOnce(t *testing.T) {
	p, rec := loadedPage(t, &MemoryFlag{})
	p.Start()
	p.StopAndDump()
	p.StopAndDump()
	if rec.stopped != 1 {
		t.Fatalf("stop-handle invoked %d times, want 1", rec.stopped)
	}
}

func TestStartStopCycles(t *testing.T) {
	p, rec := loadedPage(t, &MemoryFlag{})

	for cycle := 0; cycle < 3; cycle++ {
		if got := p.Start(); got.Status != StatusStarted {
			t.Fatalf("cycle %d start = %s", cycle, got.Status)
		}
		rec.emitN(cycle)
		if got := len(p.StopAndDump()); got != cycle {
			t.Fatalf("cycle %d: %d events, want %d", cycle, got, cycle)
		}
	}
}

func TestDrainEventsKeepsRecording(t *testing.T) {
	p, rec := loadedPage(t, &MemoryFlag{})
	p.Start()
	rec.emitN(4)

	if got := len(p.DrainEvents()); got != 4 {
		t.Fatalf("drained %d events, want 4", got)
	}
	if got := p.StatusProbe(); got.Status != StatusAlreadyRecording {
		t.Fatalf("probe after drain = %s, want already_recording", got.Status)
	}

	rec.emitN(1)
	if got := len(p.StopAndDump()); got != 1 {
		t.Fatalf("final dump: %d events, want 1", got)
	}
}
