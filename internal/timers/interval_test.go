package timers

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalInvocationCount(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{}, nil)

	var calls atomic.Int32
	id, err := s.ScheduleInterval(func() { calls.Add(1) }, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("ScheduleInterval: %v", err)
	}
	time.Sleep(220 * time.Millisecond)
	s.CancelInterval(id)

	// 50, 100, 150, 200ms; allow one tick of slack either way.
	if got := calls.Load(); got < 3 || got > 5 {
		t.Fatalf("calls = %d, want 4 (+/-1)", got)
	}
}

func TestIntervalFirstRunAfterOnePeriod(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{}, nil)

	var calls atomic.Int32
	id, err := s.ScheduleInterval(func() { calls.Add(1) }, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("ScheduleInterval: %v", err)
	}
	defer s.CancelInterval(id)

	time.Sleep(40 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("calls before first period = %d, want 0", got)
	}
}

func TestIntervalAtMostOneRunAfterCancel(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{}, nil)

	var calls atomic.Int32
	started := make(chan struct{}, 16)
	id, err := s.ScheduleInterval(func() {
		calls.Add(1)
		started <- struct{}{}
		time.Sleep(60 * time.Millisecond)
	}, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("ScheduleInterval: %v", err)
	}

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatalf("interval never ran")
	}
	// Cancel while an invocation is in flight.
	s.CancelInterval(id)
	atCancel := calls.Load()

	eventually(t, time.Second, func() bool { _, ok := s.Lookup(id); return !ok }, "interval retired")
	if got := calls.Load(); got-atCancel > 1 {
		t.Fatalf("calls after cancel = %d, want at most 1", got-atCancel)
	}
}

func TestIntervalNeverOverlaps(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{}, nil)

	var inFlight, maxInFlight atomic.Int32
	id, err := s.ScheduleInterval(func() {
		n := inFlight.Add(1)
		if n > maxInFlight.Load() {
			maxInFlight.Store(n)
		}
		time.Sleep(15 * time.Millisecond)
		inFlight.Add(-1)
	}, time.Millisecond)
	if err != nil {
		t.Fatalf("ScheduleInterval: %v", err)
	}
	time.Sleep(120 * time.Millisecond)
	s.CancelInterval(id)

	if got := maxInFlight.Load(); got != 1 {
		t.Fatalf("max concurrent invocations = %d, want 1", got)
	}
}

func TestZeroPeriodIntervalSuspends(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{}, nil)

	var calls atomic.Int32
	id, err := s.ScheduleInterval(func() { calls.Add(1) }, 0)
	if err != nil {
		t.Fatalf("ScheduleInterval(0): %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	s.CancelInterval(id)

	got := calls.Load()
	if got == 0 {
		t.Fatalf("zero-period interval never ran")
	}
	// Each iteration waits at least minIntervalWait.
	if got > 60 {
		t.Fatalf("calls = %d in 50ms, loop is spinning", got)
	}
}

func TestCancelAllIntervals(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{}, nil)

	for i := 0; i < 2; i++ {
		if _, err := s.ScheduleInterval(func() {}, time.Hour); err != nil {
			t.Fatalf("ScheduleInterval: %v", err)
		}
	}
	if _, err := s.ScheduleCron("hourly", "@hourly", func() {}); err != nil {
		t.Fatalf("ScheduleCron: %v", err)
	}
	d, err := s.ScheduleDelay(func() {}, time.Hour)
	if err != nil {
		t.Fatalf("ScheduleDelay: %v", err)
	}

	if n := s.CancelAllIntervals(); n != 3 {
		t.Fatalf("CancelAllIntervals = %d, want 3", n)
	}
	eventually(t, time.Second, func() bool { return len(s.Snapshot().Live) == 1 }, "only the delay stays live")
	if _, ok := s.Lookup(d); !ok {
		t.Fatalf("delay retired by CancelAllIntervals")
	}
}

func TestIntervalTicksAtWholePeriods(t *testing.T) {
	t.Parallel()
	clk := newManualClock()
	s := newTestService(t, Config{}, nil, WithClock(clk))
	t0 := clk.Now()
	const period = 10 * time.Millisecond

	ticks := make(chan time.Time, 4)
	id, err := s.ScheduleInterval(func() { ticks <- clk.Now() }, period)
	if err != nil {
		t.Fatalf("ScheduleInterval: %v", err)
	}

	for k := 1; k <= 3; k++ {
		clk.blockUntil(t, 1)
		clk.Advance(period)
		select {
		case at := <-ticks:
			if want := t0.Add(time.Duration(k) * period); !at.Equal(want) {
				t.Fatalf("tick %d at t0+%v, want t0+%v", k, at.Sub(t0), want.Sub(t0))
			}
		case <-time.After(time.Second):
			t.Fatalf("tick %d missing", k)
		}
	}

	clk.blockUntil(t, 1)
	s.CancelInterval(id)
	eventually(t, time.Second, func() bool { _, ok := s.Lookup(id); return !ok }, "interval retired")
	clk.Advance(period)
	select {
	case <-ticks:
		t.Fatalf("tick after cancel")
	default:
	}
	if h := s.Snapshot().History; len(h) != 1 || h[0].Runs != 3 || !h[0].Canceled {
		t.Fatalf("History = %+v", h)
	}
}
