package timers

import (
	"time"

	"ticktock/internal/routine"
	"ticktock/internal/runtime/supervisor"
)

// Config controls the timers service. Zero values select defaults.
type Config struct {
	// MaxRoutines caps live registry entries (delay, interval, cron and guard).
	// 0 means unlimited.
	MaxRoutines int

	// PanicLogRate is the maximum number of routine panic logs per second.
	// Panics beyond the rate are still counted and published.
	PanicLogRate float64

	HistorySize int
}

func (c Config) withDefaults() Config {
	if c.MaxRoutines < 0 {
		c.MaxRoutines = 0
	}
	if c.PanicLogRate <= 0 {
		c.PanicLogRate = 1
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 100
	}
	return c
}

// Event types published on the bus.
const (
	EventScheduled = "routine.scheduled"
	EventRan       = "routine.ran"
	EventPanicked  = "routine.panicked"
	EventCanceled  = "routine.canceled"
	EventTimedOut  = "routine.timed_out"
	EventRetired   = "routine.retired"
)

// RoutineEvent is the Data of every bus event published by the service.
type RoutineEvent struct {
	ID       routine.ID    `json:"id"`
	Kind     string        `json:"kind"`
	Name     string        `json:"name,omitempty"`
	Run      uint64        `json:"run,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// HistoryItem records a retired routine.
type HistoryItem struct {
	ID       routine.ID
	Kind     string
	Name     string
	Started  time.Time
	Lifetime time.Duration
	Runs     uint64
	Canceled bool
}

// Snapshot is a lightweight view for diagnostics.
type Snapshot struct {
	MaxRoutines int
	Live        []routine.Info

	Scheduled          uint64
	Ran                uint64
	Canceled           uint64
	Panicked           uint64
	TimedOut           uint64
	SuppressedPanicLog uint64

	Supervisor supervisor.Snapshot
	History    []HistoryItem
}
