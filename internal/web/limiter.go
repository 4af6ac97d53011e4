package web

import (
	"context"
	"time"

	"github.com/JonMunkholm/instructcsv/internal/core"
)

// Limiter defaults.
const (
	DefaultMaxConcurrent = 4
	DefaultMaxWait       = 10 * time.Second
)

// limiter caps the number of conversions running at once. Each conversion
// holds the whole upload and its output in memory, so the cap bounds the
// server's memory use.
type limiter struct {
	slots   chan struct{}
	maxWait time.Duration
}

func newLimiter(maxConcurrent int, maxWait time.Duration) *limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// acquire waits up to maxWait for a slot. It returns core.ErrBusy on timeout
// and ctx's error if ctx ends first. A nil return must be paired with release.
func (l *limiter) acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return core.ErrBusy
	}
}

func (l *limiter) release() {
	<-l.slots
}

// limiterStatus is reported by the health endpoint.
type limiterStatus struct {
	Active        int `json:"active"`
	MaxConcurrent int `json:"max_concurrent"`
}

func (l *limiter) status() limiterStatus {
	return limiterStatus{Active: len(l.slots), MaxConcurrent: cap(l.slots)}
}
