package timers

import (
	"context"
	"time"

	"ticktock/internal/routine"
	logx "ticktock/pkg/logx"
)

// minIntervalWait floors the wait of a zero-period interval so the loop
// always suspends between invocations.
const minIntervalWait = time.Millisecond

// ScheduleInterval runs fn every period until CancelInterval is called.
//
// The first invocation happens one period after scheduling. The period is
// measured from the end of one invocation to the start of the next, so
// invocations of one routine never overlap.
func (s *Service) ScheduleInterval(fn func(), period time.Duration) (routine.ID, error) {
	return s.ScheduleIntervalNamed("", fn, period)
}

func (s *Service) ScheduleIntervalNamed(name string, fn func(), period time.Duration) (routine.ID, error) {
	if fn == nil {
		return 0, invalid("routine is nil")
	}
	if period < 0 {
		return 0, invalid("period %s is negative", period)
	}
	wait := period
	if wait < minIntervalWait {
		wait = minIntervalWait
	}
	e, err := s.register(routine.KindInterval, name)
	if err != nil {
		return 0, err
	}
	if err := s.spawn(e, func(ctx context.Context) {
		for {
			if !s.wait(ctx, e, wait) || !e.Active() {
				return
			}
			s.invoke(e, fn)
		}
	}); err != nil {
		return 0, err
	}
	s.log.Debug("interval scheduled", logx.Uint64("id", uint64(e.ID)), logx.String("name", name), logx.Duration("period", period))
	return e.ID, nil
}

// CancelInterval stops an interval or cron routine. An invocation already in
// progress completes; no further invocation starts. Unknown ids are ignored.
func (s *Service) CancelInterval(id routine.ID) {
	s.cancel(id, routine.KindInterval, routine.KindCron)
}

// CancelAllIntervals cancels every interval and cron routine and returns how
// many it canceled.
func (s *Service) CancelAllIntervals() int {
	n := s.canceledAll(s.reg.CancelKinds(routine.KindInterval, routine.KindCron))
	if n > 0 {
		s.log.Debug("intervals canceled", logx.Int("count", n))
	}
	return n
}
