package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ticktock/internal/config"
	"ticktock/internal/eventbus"
	rtsup "ticktock/internal/runtime/supervisor"
	"ticktock/internal/timers"
	logx "ticktock/pkg/logx"
)

// app wires config, logging, the event bus and the timers service for one command.
type app struct {
	mu     sync.Mutex
	cfg    *config.Config
	logSvc *logx.Service
	log    logx.Logger
	timers *timers.Service
	sup    *rtsup.Supervisor

	unsubEvents func()
	eventsDone  chan struct{}
}

func newApp(ctx context.Context) (*app, error) {
	if _, ok := logx.ParseLevel(logLevel); !ok {
		return nil, fmt.Errorf("--log-level: unknown level %q", logLevel)
	}
	boot := logx.NewConsole(logLevel)

	cfg := config.Default()
	var mgr *config.Manager
	if strings.TrimSpace(cfgPath) != "" {
		mgr = config.NewManager(cfgPath, boot)
		loaded, err := mgr.Load()
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
		}
		cfg = loaded
	}
	cfg = withOverrides(cfg)

	logSvc, log := logx.NewService(cfg.LogxConfig())
	bus := eventbus.New()
	a := &app{
		cfg:    cfg,
		logSvc: logSvc,
		log:    log,
		timers: timers.New(cfg.TimersConfig(), log.With(logx.String("comp", "timers")), bus),
		sup:    rtsup.New(ctx, rtsup.WithLogger(log.With(logx.String("comp", "app")))),
	}

	events, unsub := bus.Subscribe(64)
	a.unsubEvents = unsub
	a.eventsDone = make(chan struct{})
	if err := a.sup.Go("events", func(context.Context) error {
		defer close(a.eventsDone)
		a.logEvents(events)
		return nil
	}); err != nil {
		unsub()
		return nil, err
	}
	if mgr != nil {
		updates := mgr.Subscribe(1)
		if err := a.sup.GoRestart("config.watch", 250*time.Millisecond, 5*time.Second, mgr.Watch); err != nil {
			return nil, err
		}
		if err := a.sup.Go("config.apply", func(ctx context.Context) error {
			a.applyUpdates(ctx, updates)
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// withOverrides returns a copy of cfg with command-line flags applied. The
// Manager's own config is never modified.
func withOverrides(cfg *config.Config) *config.Config {
	out := *cfg
	if strings.TrimSpace(logLevel) != "" {
		out.Logging.Level = logLevel
	}
	return &out
}

func (a *app) applyUpdates(ctx context.Context, updates <-chan *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case next := <-updates:
			next = withOverrides(next)
			a.mu.Lock()
			changed, attrs := config.SummarizeConfigChange(a.cfg, next)
			a.cfg = next
			a.mu.Unlock()
			a.logSvc.Apply(next.LogxConfig())
			a.timers.Apply(next.TimersConfig())
			if len(changed) > 0 {
				a.log.Info("config reloaded", append([]logx.Field{logx.String("changed", strings.Join(changed, ","))}, attrs...)...)
			}
		}
	}
}

// logEvents logs routine events until the subscription is closed. Events
// still buffered at that point are logged too.
func (a *app) logEvents(ch <-chan eventbus.Event) {
	for e := range ch {
		re, _ := e.Data.(timers.RoutineEvent)
		fields := []logx.Field{
			logx.Uint64("id", uint64(re.ID)),
			logx.String("kind", re.Kind),
		}
		if re.Name != "" {
			fields = append(fields, logx.String("name", re.Name))
		}
		if re.Run > 0 {
			fields = append(fields, logx.Uint64("run", re.Run))
		}
		if re.Duration > 0 {
			fields = append(fields, logx.Duration("dur", re.Duration))
		}
		if re.Error != "" {
			fields = append(fields, logx.String("error", re.Error))
		}
		a.log.Info(e.Type, fields...)
	}
}

// close stops the timers service and background goroutines.
func (a *app) close() {
	a.mu.Lock()
	timeout, err := a.cfg.ShutdownTimeoutOrDefault()
	a.mu.Unlock()
	if err != nil {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.timers.Stop(ctx); err != nil {
		a.log.Warn("timers stop failed", logx.Err(err))
	}
	snap := a.timers.Snapshot()
	a.log.Info("summary",
		logx.Uint64("scheduled", snap.Scheduled),
		logx.Uint64("ran", snap.Ran),
		logx.Uint64("canceled", snap.Canceled),
		logx.Uint64("panicked", snap.Panicked),
		logx.Uint64("timed_out", snap.TimedOut),
	)
	// Closing the subscription lets logEvents flush what is buffered and return.
	a.unsubEvents()
	select {
	case <-a.eventsDone:
	case <-ctx.Done():
	}
	_ = a.sup.Stop(ctx)
	_ = a.logSvc.Close()
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
