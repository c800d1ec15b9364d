package recording

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pagetap/pagetap/internal/bridge"
)

// LocalBridge runs the page state machine in-process. It backs tests and
// any embedder that supplies its own Recorder instead of a live browser
// page. Navigation is modeled explicitly: Navigate discards the page
// context while the persistence flag store survives.
type LocalBridge struct {
	mu    sync.Mutex
	load  bridge.LoadFunc
	flags bridge.FlagStore
	page  *bridge.PageContext
}

// NewLocalBridge creates a LocalBridge whose loader produces recorders
// via load. The initial page is created but not injected.
func NewLocalBridge(load bridge.LoadFunc) *LocalBridge {
	flags := &bridge.MemoryFlag{}
	return &LocalBridge{
		load:  load,
		flags: flags,
		page:  bridge.NewPageContext(flags),
	}
}

// Navigate simulates a page navigation: the current page context is
// discarded and the loader runs on the fresh one, as an init script
// would on a new document.
func (b *LocalBridge) Navigate(ctx context.Context) {
	b.mu.Lock()
	b.page = bridge.NewPageContext(b.flags)
	page := b.page
	b.mu.Unlock()
	page.InjectLoader(ctx, b.load)
}

func (b *LocalBridge) current() *bridge.PageContext {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page
}

func (b *LocalBridge) InjectLoader(ctx context.Context) error {
	b.current().InjectLoader(ctx, b.load)
	return nil
}

func (b *LocalBridge) AwaitReady(ctx context.Context) (bridge.ReadyResult, error) {
	return b.current().AwaitReady(ctx)
}

func (b *LocalBridge) StartRecording(ctx context.Context) (bridge.Status, error) {
	return b.current().Start().Status, nil
}

func (b *LocalBridge) ResumeRecording(ctx context.Context) (bridge.Status, error) {
	return b.current().Start().Status, nil
}

func (b *LocalBridge) StatusProbe(ctx context.Context) (bridge.Status, error) {
	return b.current().StatusProbe().Status, nil
}

func (b *LocalBridge) DrainEvents(ctx context.Context) ([]json.RawMessage, error) {
	return b.current().DrainEvents(), nil
}

func (b *LocalBridge) StopAndDump(ctx context.Context) ([]json.RawMessage, error) {
	return b.current().StopAndDump(), nil
}

func (b *LocalBridge) SetShouldRecord(ctx context.Context, v bool) error {
	b.flags.SetShouldRecord(v)
	return nil
}
