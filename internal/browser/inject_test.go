package browser

import (
	"errors"
	"sync"
	"testing"
)

func TestInjectGuardRunsOnce(t *testing.T) {
	var g injectGuard
	calls := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.do(func() error {
				calls++
				return nil
			})
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Fatalf("injection ran %d times, want 1", calls)
	}
}

func TestInjectGuardRetriesAfterFailure(t *testing.T) {
	var g injectGuard
	errGone := errors.New("page gone")

	if err := g.do(func() error { return errGone }); !errors.Is(err, errGone) {
		t.Fatalf("first attempt = %v, want page gone", err)
	}

	ran := false
	if err := g.do(func() error { ran = true; return nil }); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !ran {
		t.Fatal("retry did not run after a failed attempt")
	}

	if err := g.do(func() error {
		t.Error("injection ran again after success")
		return nil
	}); err != nil {
		t.Fatalf("call after success: %v", err)
	}
}
