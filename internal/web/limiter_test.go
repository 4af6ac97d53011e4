package web

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonMunkholm/instructcsv/internal/core"
)

func TestLimiter_AcquireRelease(t *testing.T) {
	l := newLimiter(2, time.Second)
	ctx := context.Background()

	if err := l.acquire(ctx); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if err := l.acquire(ctx); err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}
	if got := l.status(); got.Active != 2 || got.MaxConcurrent != 2 {
		t.Errorf("status = %+v, want 2 of 2 active", got)
	}

	l.release()
	l.release()
	if got := l.status().Active; got != 0 {
		t.Errorf("after release, Active = %d, want 0", got)
	}
}

func TestLimiter_BusyWhenFull(t *testing.T) {
	l := newLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if err := l.acquire(ctx); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer l.release()

	start := time.Now()
	err := l.acquire(ctx)
	if !errors.Is(err, core.ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("gave up too early: %v", elapsed)
	}
}

func TestLimiter_ContextCancellation(t *testing.T) {
	l := newLimiter(1, 5*time.Second)
	if err := l.acquire(context.Background()); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer l.release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.acquire(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("acquire did not return after cancellation")
	}
}

func TestLimiter_ConcurrentAccess(t *testing.T) {
	const maxConcurrent = 3
	l := newLimiter(maxConcurrent, time.Second)

	var wg sync.WaitGroup
	var active, peak atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.acquire(context.Background()); err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			defer l.release()

			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > maxConcurrent {
		t.Errorf("observed %d concurrent conversions, max %d", got, maxConcurrent)
	}
}

func TestNewLimiter_Defaults(t *testing.T) {
	l := newLimiter(0, 0)
	if got := l.status().MaxConcurrent; got != DefaultMaxConcurrent {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrent)
	}
	if l.maxWait != DefaultMaxWait {
		t.Errorf("maxWait = %v, want %v", l.maxWait, DefaultMaxWait)
	}
}
