package timers

import (
	"context"
	"time"

	"ticktock/internal/routine"
	logx "ticktock/pkg/logx"
)

// ScheduleDelay runs fn once after delay unless CancelDelay is called first.
// It returns immediately with the routine id.
func (s *Service) ScheduleDelay(fn func(), delay time.Duration) (routine.ID, error) {
	return s.ScheduleDelayNamed("", fn, delay)
}

// ScheduleDelayNamed is ScheduleDelay with a name used in logs and events.
func (s *Service) ScheduleDelayNamed(name string, fn func(), delay time.Duration) (routine.ID, error) {
	if fn == nil {
		return 0, invalid("routine is nil")
	}
	if delay < 0 {
		return 0, invalid("delay %s is negative", delay)
	}
	e, err := s.register(routine.KindDelay, name)
	if err != nil {
		return 0, err
	}
	if err := s.spawn(e, func(ctx context.Context) {
		if !s.wait(ctx, e, delay) {
			return
		}
		// Claim loses to a cancel that landed first.
		if !e.Claim() {
			return
		}
		s.invoke(e, fn)
	}); err != nil {
		return 0, err
	}
	s.log.Debug("delay scheduled", logx.Uint64("id", uint64(e.ID)), logx.String("name", name), logx.Duration("delay", delay))
	return e.ID, nil
}

// CancelDelay prevents a pending delay from firing. It has no effect on an
// invocation that already started, and ignores unknown ids.
func (s *Service) CancelDelay(id routine.ID) {
	s.cancel(id, routine.KindDelay)
}

// CancelAllDelays cancels every pending delay and returns how many it canceled.
func (s *Service) CancelAllDelays() int {
	n := s.canceledAll(s.reg.CancelKinds(routine.KindDelay))
	if n > 0 {
		s.log.Debug("delays canceled", logx.Int("count", n))
	}
	return n
}
