package browser

import "sync"

// injectGuard serializes a page's single injection attempt across
// concurrent callers. The lock is held for the whole attempt, so a
// second caller blocks until the first finishes and then observes its
// outcome. A failed attempt leaves the guard open for a retry.
type injectGuard struct {
	mu   sync.Mutex
	done bool
}

func (g *injectGuard) do(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return nil
	}
	if err := fn(); err != nil {
		return err
	}
	g.done = true
	return nil
}
