package timers

import (
	"context"
	"strings"

	"ticktock/internal/routine"
	logx "ticktock/pkg/logx"
)

// ScheduleCron runs fn at the times described by spec until CancelInterval is
// called with the returned id.
//
// Supported specs:
//   - Cron with optional seconds: "*/5 * * * *", "*/10 * * * * *"
//   - Descriptors: "@hourly", "@every 1m30s"
//
// Like intervals, invocations never overlap: the next fire time is computed
// after the previous invocation returns.
func (s *Service) ScheduleCron(name, spec string, fn func()) (routine.ID, error) {
	if fn == nil {
		return 0, invalid("routine is nil")
	}
	spec = strings.TrimSpace(spec)
	sched, err := s.parser.Parse(spec)
	if err != nil {
		return 0, invalid("cron spec %q: %v", spec, err)
	}
	e, err := s.register(routine.KindCron, name)
	if err != nil {
		return 0, err
	}
	if err := s.spawn(e, func(ctx context.Context) {
		for {
			now := s.clk.Now()
			next := sched.Next(now)
			if next.IsZero() {
				s.log.Debug("cron schedule exhausted", logx.Uint64("id", uint64(e.ID)), logx.String("spec", spec))
				return
			}
			if !s.wait(ctx, e, next.Sub(now)) || !e.Active() {
				return
			}
			s.invoke(e, fn)
		}
	}); err != nil {
		return 0, err
	}
	s.log.Debug("cron scheduled", logx.Uint64("id", uint64(e.ID)), logx.String("name", name), logx.String("spec", spec))
	return e.ID, nil
}
