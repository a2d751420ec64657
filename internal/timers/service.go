package timers

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"ticktock/internal/clock"
	"ticktock/internal/eventbus"
	"ticktock/internal/routine"
	"ticktock/internal/runtime/supervisor"
	logx "ticktock/pkg/logx"
)

type Service struct {
	mu      sync.Mutex
	cfg     Config
	stopped bool

	log logx.Logger
	bus eventbus.Bus
	clk clock.Clock

	ids routine.IDGen
	reg *routine.Registry
	sup *supervisor.Supervisor

	parser   cron.Parser
	panicLim *rate.Limiter

	scheduled          atomic.Uint64
	ran                atomic.Uint64
	canceled           atomic.Uint64
	panicked           atomic.Uint64
	timedOut           atomic.Uint64
	suppressedPanicLog atomic.Uint64

	hmu     sync.Mutex
	history []HistoryItem
}

type Option func(*Service)

// WithClock replaces the real clock.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clk = c
		}
	}
}

// New creates a running service. bus may be nil.
func New(cfg Config, log logx.Logger, bus eventbus.Bus, opts ...Option) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg = cfg.withDefaults()
	s := &Service{
		cfg: cfg,
		log: log,
		bus: bus,
		clk: clock.Real{},
		reg: routine.NewRegistry(),
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser:   cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		panicLim: rate.NewLimiter(rate.Limit(cfg.PanicLogRate), panicBurst(cfg.PanicLogRate)),
	}
	for _, o := range opts {
		o(s)
	}
	s.sup = supervisor.New(context.Background(), supervisor.WithLogger(log.With(logx.String("comp", "timers"))))
	return s
}

func panicBurst(r float64) int {
	if r < 1 {
		return 1
	}
	return int(r)
}

// Apply swaps limits at runtime. Live routines are not affected; a lowered
// MaxRoutines only rejects new schedules.
func (s *Service) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.panicLim.SetLimit(rate.Limit(cfg.PanicLogRate))
	s.panicLim.SetBurst(panicBurst(cfg.PanicLogRate))
	s.log.Debug("timers config applied", logx.Int("max_routines", cfg.MaxRoutines), logx.Int("history_size", cfg.HistorySize))
}

// Stop cancels every live routine, rejects new schedules and waits for runner
// goroutines to exit. Detached guard workers are waited for too; ctx bounds the wait.
func (s *Service) Stop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := s.clk.Now()
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	n := s.canceledAll(s.reg.CancelKinds())
	err := s.sup.Stop(ctx)
	if ctx.Err() != nil {
		s.log.Warn("timers stop timed out", logx.Int("canceled", n), logx.Int("live", s.reg.Len()), logx.Err(ctx.Err()))
		return ctx.Err()
	}
	s.log.Info("timers service stopped", logx.Int("canceled", n), logx.Duration("took", s.clk.Since(start)))
	return err
}

// Lookup returns the current view of a live routine.
func (s *Service) Lookup(id routine.ID) (routine.Info, bool) {
	e, ok := s.reg.Get(id)
	if !ok {
		return routine.Info{}, false
	}
	return e.Info(), true
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	s.hmu.Lock()
	h := make([]HistoryItem, len(s.history))
	copy(h, s.history)
	s.hmu.Unlock()

	return Snapshot{
		MaxRoutines:        cfg.MaxRoutines,
		Live:               s.reg.Snapshot(),
		Scheduled:          s.scheduled.Load(),
		Ran:                s.ran.Load(),
		Canceled:           s.canceled.Load(),
		Panicked:           s.panicked.Load(),
		TimedOut:           s.timedOut.Load(),
		SuppressedPanicLog: s.suppressedPanicLog.Load(),
		Supervisor:         s.sup.Snapshot(),
		History:            h,
	}
}

// register validates service state and inserts a fresh entry.
func (s *Service) register(kind routine.Kind, name string) (*routine.Entry, error) {
	s.mu.Lock()
	limit := s.cfg.MaxRoutines
	stopped := s.stopped
	s.mu.Unlock()

	if stopped {
		return nil, ErrStopped
	}
	e := routine.NewEntry(s.ids.Next(), kind, name, s.clk.Now())
	if !s.reg.Add(e, limit) {
		return nil, fmt.Errorf("%w: %d live routines (max %d)", ErrResourceExhausted, s.reg.Len(), limit)
	}
	return e, nil
}

// spawn starts the runner goroutine for e. The entry is retired when run returns.
func (s *Service) spawn(e *routine.Entry, run func(ctx context.Context)) error {
	// ready orders the scheduled event before anything the runner publishes.
	ready := make(chan struct{})
	err := s.sup.Go("runner."+e.Kind.String(), func(ctx context.Context) error {
		defer s.retire(e)
		<-ready
		run(ctx)
		return nil
	})
	if err != nil {
		s.reg.Remove(e)
		return fmt.Errorf("%w: %v", ErrStopped, err)
	}
	s.scheduled.Add(1)
	s.publish(EventScheduled, e, 0, 0, "")
	close(ready)
	return nil
}

func (s *Service) retire(e *routine.Entry) {
	s.reg.Remove(e)

	item := HistoryItem{
		ID:       e.ID,
		Kind:     e.Kind.String(),
		Name:     e.Name,
		Started:  e.Scheduled,
		Lifetime: s.clk.Since(e.Scheduled),
		Runs:     e.Runs(),
		Canceled: e.Canceled(),
	}
	s.mu.Lock()
	historySize := s.cfg.HistorySize
	s.mu.Unlock()

	s.hmu.Lock()
	s.history = append(s.history, item)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	s.hmu.Unlock()

	s.publish(EventRetired, e, e.Runs(), item.Lifetime, "")
}

// wait suspends the runner for d. It returns false if the entry was canceled
// or the service is stopping.
func (s *Service) wait(ctx context.Context, e *routine.Entry, d time.Duration) bool {
	return clock.Sleep(ctx, s.clk, d, e.Done())
}

// invoke runs fn once with panic isolation. It reports false if fn panicked.
func (s *Service) invoke(e *routine.Entry, fn func()) (ok bool) {
	run := e.NoteRun()
	start := s.clk.Now()
	defer func() {
		dur := s.clk.Since(start)
		if r := recover(); r != nil {
			ok = false
			s.panicked.Add(1)
			msg := fmt.Sprint(r)
			if s.panicLim.Allow() {
				s.log.Error("routine.panic",
					logx.Uint64("id", uint64(e.ID)),
					logx.String("kind", e.Kind.String()),
					logx.String("name", e.Name),
					logx.Uint64("run", run),
					logx.String("panic", msg),
					logx.Stack(string(debug.Stack())),
				)
			} else {
				s.suppressedPanicLog.Add(1)
			}
			s.publish(EventPanicked, e, run, dur, msg)
			return
		}
		s.ran.Add(1)
		s.log.Trace("routine.ran", logx.Uint64("id", uint64(e.ID)), logx.String("kind", e.Kind.String()), logx.Uint64("run", run), logx.Duration("dur", dur))
		s.publish(EventRan, e, run, dur, "")
	}()
	fn()
	return true
}

func (s *Service) cancel(id routine.ID, kinds ...routine.Kind) {
	e, ok := s.reg.Get(id)
	if !ok {
		return
	}
	if !s.reg.Cancel(id, kinds...) {
		return
	}
	s.canceledOne(e)
}

// canceledAll records entries transitioned by a bulk cancel and returns how many.
func (s *Service) canceledAll(es []*routine.Entry) int {
	for _, e := range es {
		s.canceledOne(e)
	}
	return len(es)
}

func (s *Service) canceledOne(e *routine.Entry) {
	s.canceled.Add(1)
	s.log.Debug("routine.canceled", logx.Uint64("id", uint64(e.ID)), logx.String("kind", e.Kind.String()), logx.String("name", e.Name))
	s.publish(EventCanceled, e, e.Runs(), 0, "")
}

func (s *Service) publish(typ string, e *routine.Entry, run uint64, dur time.Duration, errStr string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: s.clk.Now(), Data: RoutineEvent{
		ID:       e.ID,
		Kind:     e.Kind.String(),
		Name:     e.Name,
		Run:      run,
		Duration: dur,
		Error:    errStr,
	}})
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}
