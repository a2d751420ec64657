package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	logx "ticktock/pkg/logx"
)

// run sets up the app for a subcommand and tears it down afterwards.
func run(fn func(ctx context.Context, a *app) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(ctx, a)
	}
}

func delayCmd() *cobra.Command {
	var after, cancelAt time.Duration
	cmd := &cobra.Command{
		Use:   "delay",
		Short: "Fire a routine once after a delay, optionally canceling it first",
		RunE: run(func(ctx context.Context, a *app) error {
			start := time.Now()
			id, err := a.timers.ScheduleDelayNamed("delay", func() {
				a.log.Info("delay fired", logx.Duration("elapsed", time.Since(start)))
			}, after)
			if err != nil {
				return err
			}
			if cancelAt > 0 {
				sleepCtx(ctx, cancelAt)
				a.timers.CancelDelay(id)
			}
			// Wait past the deadline so a late fire would show up.
			sleepCtx(ctx, after-time.Since(start)+50*time.Millisecond)
			return nil
		}),
	}
	cmd.Flags().DurationVar(&after, "after", 500*time.Millisecond, "Delay before the routine fires")
	cmd.Flags().DurationVar(&cancelAt, "cancel-at", 0, "Cancel the delay after this long (0 = never)")
	return cmd
}

func intervalCmd() *cobra.Command {
	var every, total, work time.Duration
	cmd := &cobra.Command{
		Use:   "interval",
		Short: "Fire a routine repeatedly, then cancel it",
		RunE: run(func(ctx context.Context, a *app) error {
			var n atomic.Int64
			id, err := a.timers.ScheduleIntervalNamed("interval", func() {
				a.log.Info("interval tick", logx.Int64("n", n.Add(1)))
				if work > 0 {
					time.Sleep(work)
				}
			}, every)
			if err != nil {
				return err
			}
			sleepCtx(ctx, total)
			a.timers.CancelInterval(id)
			a.log.Info("interval canceled", logx.Int64("ticks", n.Load()))
			return nil
		}),
	}
	cmd.Flags().DurationVar(&every, "every", 100*time.Millisecond, "Period between invocations")
	cmd.Flags().DurationVar(&total, "for", time.Second, "How long to keep the interval running")
	cmd.Flags().DurationVar(&work, "work", 0, "Simulated work per invocation")
	return cmd
}

func guardCmd() *cobra.Command {
	var timeout, work time.Duration
	var cooperative bool
	cmd := &cobra.Command{
		Use:   "guard",
		Short: "Run a routine under a deadline and report whether it timed out",
		RunE: run(func(ctx context.Context, a *app) error {
			start := time.Now()
			var timedOut bool
			var err error
			if cooperative {
				timedOut, err = a.timers.RunWithTimeoutContext(ctx, func(ctx context.Context) {
					sleepCtx(ctx, work)
				}, timeout)
			} else {
				timedOut, err = a.timers.RunWithTimeout(func() { time.Sleep(work) }, timeout)
			}
			if err != nil {
				return err
			}
			a.log.Info("guard returned",
				logx.Bool("timed_out", timedOut),
				logx.Duration("timeout", timeout),
				logx.Duration("work", work),
				logx.Duration("elapsed", time.Since(start)),
			)
			return nil
		}),
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 100*time.Millisecond, "Deadline for the routine")
	cmd.Flags().DurationVar(&work, "work", 500*time.Millisecond, "How long the routine runs")
	cmd.Flags().BoolVar(&cooperative, "cooperative", true, "Let the routine observe the deadline through its context")
	return cmd
}

func cronCmd() *cobra.Command {
	var spec string
	var total time.Duration
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Fire a routine on a cron spec, then cancel it",
		RunE: run(func(ctx context.Context, a *app) error {
			id, err := a.timers.ScheduleCron("cron", spec, func() {
				a.log.Info("cron fired", logx.String("spec", spec))
			})
			if err != nil {
				return err
			}
			sleepCtx(ctx, total)
			a.timers.CancelInterval(id)
			return nil
		}),
	}
	cmd.Flags().StringVar(&spec, "spec", "@every 1s", "Cron spec (seconds optional) or descriptor")
	cmd.Flags().DurationVar(&total, "for", 3*time.Second, "How long to keep the schedule running")
	return cmd
}
