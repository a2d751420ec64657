package timers

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleDelayFiresOnceAfterDelay(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{}, nil)

	start := time.Now()
	fired := make(chan time.Time, 2)
	if _, err := s.ScheduleDelay(func() { fired <- time.Now() }, 50*time.Millisecond); err != nil {
		t.Fatalf("ScheduleDelay: %v", err)
	}

	select {
	case at := <-fired:
		if got := at.Sub(start); got < 50*time.Millisecond || got >= 150*time.Millisecond {
			t.Fatalf("fired after %v, want in [50ms, 150ms)", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("delay never fired")
	}
	select {
	case <-fired:
		t.Fatalf("delay fired twice")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScheduleDelayReturnsImmediately(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{}, nil)
	start := time.Now()
	id, err := s.ScheduleDelay(func() {}, time.Hour)
	if err != nil {
		t.Fatalf("ScheduleDelay: %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatalf("ScheduleDelay blocked")
	}
	info, ok := s.Lookup(id)
	if !ok || !info.Active || info.Kind != "delay" {
		t.Fatalf("Lookup = %+v, %v", info, ok)
	}
	s.CancelDelay(id)
}

func TestCancelDelayBeforeFire(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{}, nil)

	var calls atomic.Int32
	id, err := s.ScheduleDelay(func() { calls.Add(1) }, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("ScheduleDelay: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	s.CancelDelay(id)

	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("calls = %d, want 0", got)
	}
	eventually(t, time.Second, func() bool { _, ok := s.Lookup(id); return !ok }, "canceled delay retired")

	h := s.Snapshot().History
	if len(h) != 1 || !h[0].Canceled || h[0].Runs != 0 {
		t.Fatalf("History = %+v", h)
	}
}

func TestCancelDelayUnknownOrFired(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{}, nil)

	s.CancelDelay(12345)

	done := make(chan struct{})
	id, err := s.ScheduleDelay(func() { close(done) }, 0)
	if err != nil {
		t.Fatalf("ScheduleDelay: %v", err)
	}
	<-done
	s.CancelDelay(id)
	s.CancelDelay(id)
	if got := s.Snapshot().Canceled; got != 0 {
		t.Fatalf("Canceled = %d, want 0", got)
	}
}

func TestCancelDelayDoesNotCancelInterval(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{}, nil)
	id, err := s.ScheduleInterval(func() {}, time.Hour)
	if err != nil {
		t.Fatalf("ScheduleInterval: %v", err)
	}
	s.CancelDelay(id)
	if info, ok := s.Lookup(id); !ok || !info.Active {
		t.Fatalf("interval affected by CancelDelay: %+v %v", info, ok)
	}
	s.CancelInterval(id)
}

func TestCancelAllDelays(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{}, nil)

	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		if _, err := s.ScheduleDelay(func() { calls.Add(1) }, 80*time.Millisecond); err != nil {
			t.Fatalf("ScheduleDelay: %v", err)
		}
	}
	iv, err := s.ScheduleInterval(func() {}, time.Hour)
	if err != nil {
		t.Fatalf("ScheduleInterval: %v", err)
	}

	if n := s.CancelAllDelays(); n != 3 {
		t.Fatalf("CancelAllDelays = %d, want 3", n)
	}
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("calls = %d, want 0", got)
	}
	if _, ok := s.Lookup(iv); !ok {
		t.Fatalf("interval retired by CancelAllDelays")
	}
}

func TestScheduleDelayFiresExactlyAtDelay(t *testing.T) {
	t.Parallel()
	clk := newManualClock()
	s := newTestService(t, Config{}, nil, WithClock(clk))
	t0 := clk.Now()

	fired := make(chan time.Time, 2)
	id, err := s.ScheduleDelay(func() { fired <- clk.Now() }, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("ScheduleDelay: %v", err)
	}
	clk.blockUntil(t, 1)

	clk.Advance(49 * time.Millisecond)
	select {
	case at := <-fired:
		t.Fatalf("fired early at t0+%v", at.Sub(t0))
	default:
	}

	clk.Advance(time.Millisecond)
	select {
	case at := <-fired:
		if got := at.Sub(t0); got != 50*time.Millisecond {
			t.Fatalf("fired at t0+%v, want t0+50ms", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("delay did not fire at its deadline")
	}

	eventually(t, time.Second, func() bool { _, ok := s.Lookup(id); return !ok }, "fired delay retired")
	h := s.Snapshot().History
	if len(h) != 1 || h[0].Runs != 1 || h[0].Lifetime != 50*time.Millisecond {
		t.Fatalf("History = %+v", h)
	}
	if clk.waiting() != 0 {
		t.Fatalf("timers still pending after a one-shot delay: %d", clk.waiting())
	}
}
