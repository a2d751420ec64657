package timers

import (
	"context"
	"time"

	"ticktock/internal/routine"
	logx "ticktock/pkg/logx"
)

// RunWithTimeout runs fn and waits at most timeout for it to return.
//
// The result is true when the routine did NOT finish before the deadline
// (timed out) and false when it finished in time; read it as "timedOut".
//
// A timed-out routine is not killed: it keeps running in the background until
// it returns on its own. Use RunWithTimeoutContext to let the routine observe
// the deadline.
func (s *Service) RunWithTimeout(fn func(), timeout time.Duration) (timedOut bool, err error) {
	if fn == nil {
		return false, invalid("routine is nil")
	}
	return s.RunWithTimeoutContext(context.Background(), func(context.Context) { fn() }, timeout)
}

// RunWithTimeoutContext is RunWithTimeout for routines that accept a context.
// The routine's context is canceled when the deadline passes, when ctx is
// canceled, or when the service stops. If ctx is canceled first, ctx.Err() is
// returned.
func (s *Service) RunWithTimeoutContext(ctx context.Context, fn func(ctx context.Context), timeout time.Duration) (timedOut bool, err error) {
	if fn == nil {
		return false, invalid("routine is nil")
	}
	if timeout < 0 {
		return false, invalid("timeout %s is negative", timeout)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := s.register(routine.KindGuard, "")
	if err != nil {
		return false, err
	}

	workCtx, cancelWork := context.WithCancel(ctx)
	defer cancelWork()

	finished := make(chan struct{})
	start := s.clk.Now()
	err = s.spawn(e, func(supCtx context.Context) {
		stop := context.AfterFunc(supCtx, cancelWork)
		defer stop()
		defer close(finished)
		s.invoke(e, func() { fn(workCtx) })
		e.Finish()
	})
	if err != nil {
		cancelWork()
		return false, err
	}

	t := s.clk.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-finished:
		return false, nil
	case <-t.C():
		// The worker may have finished in the same instant the timer fired.
		if e.Finished() {
			return false, nil
		}
		s.timedOut.Add(1)
		s.log.Debug("routine.timed_out", logx.Uint64("id", uint64(e.ID)), logx.Duration("timeout", timeout), logx.Duration("elapsed", s.clk.Since(start)))
		s.publish(EventTimedOut, e, e.Runs(), s.clk.Since(start), "deadline exceeded")
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
