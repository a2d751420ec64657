// Package clock abstracts time for the timer runners so tests can swap it.
package clock

import (
	"context"
	"time"
)

// Clock provides the time operations the runners need.
//
// Readings returned by Now carry Go's monotonic component, so Since and Sub
// are not affected by wall-clock adjustments.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	// NewTimer returns a timer that fires once after d.
	NewTimer(d time.Duration) Timer
}

// Timer is a pending one-shot wakeup.
type Timer interface {
	C() <-chan time.Time
	// Stop prevents the Timer from firing. It reports false if the timer
	// already expired or was stopped.
	Stop() bool
}

// Real implements Clock using the standard time package.
type Real struct{}

func (Real) Now() time.Time                  { return time.Now() }
func (Real) Since(t time.Time) time.Duration { return time.Since(t) }
func (Real) NewTimer(d time.Duration) Timer  { return realTimer{t: time.NewTimer(d)} }

type realTimer struct{ t *time.Timer }

func (r realTimer) C() <-chan time.Time { return r.t.C }
func (r realTimer) Stop() bool          { return r.t.Stop() }

// Sleep suspends until d elapses, done is closed, or ctx is canceled.
// It reports true only if the full duration elapsed.
func Sleep(ctx context.Context, c Clock, d time.Duration, done <-chan struct{}) bool {
	if c == nil {
		c = Real{}
	}
	t := c.NewTimer(d)
	select {
	case <-t.C():
		return true
	case <-done:
	case <-ctx.Done():
	}
	t.Stop()
	return false
}
