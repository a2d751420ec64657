package routine

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// ID identifies a registered routine. Zero is never issued.
type ID uint64

func (id ID) String() string { return strconv.FormatUint(uint64(id), 10) }

type Kind int

const (
	KindDelay Kind = iota + 1
	KindInterval
	KindCron
	KindGuard
)

func (k Kind) String() string {
	switch k {
	case KindDelay:
		return "delay"
	case KindInterval:
		return "interval"
	case KindCron:
		return "cron"
	case KindGuard:
		return "guard"
	default:
		return "unknown"
	}
}

// Entry is the registry record of one scheduled routine.
//
// Delay, interval and cron runners use the active flag (true = still eligible
// to fire). The timeout guard uses the finished flag, which moves false->true
// at most once.
type Entry struct {
	ID        ID
	Kind      Kind
	Name      string
	Scheduled time.Time

	active   atomic.Bool
	canceled atomic.Bool
	finished atomic.Bool
	runs     atomic.Uint64

	once sync.Once
	done chan struct{}
}

func NewEntry(id ID, kind Kind, name string, now time.Time) *Entry {
	e := &Entry{ID: id, Kind: kind, Name: name, Scheduled: now, done: make(chan struct{})}
	e.active.Store(true)
	return e
}

func (e *Entry) Active() bool { return e.active.Load() }

// Cancel marks the entry inactive and wakes anything waiting on Done.
// It reports whether this call performed the transition.
func (e *Entry) Cancel() bool {
	changed := e.active.CompareAndSwap(true, false)
	if changed {
		e.canceled.Store(true)
	}
	e.once.Do(func() { close(e.done) })
	return changed
}

// Canceled reports whether a Cancel call deactivated the entry.
func (e *Entry) Canceled() bool { return e.canceled.Load() }

// Claim atomically consumes the active flag. Exactly one of Claim or Cancel
// wins for a given entry; a one-shot runner fires only if it wins.
func (e *Entry) Claim() bool { return e.active.CompareAndSwap(true, false) }

// Done is closed once the entry is canceled.
func (e *Entry) Done() <-chan struct{} { return e.done }

// Finish records completion of a guarded routine. It reports false if the
// entry was already finished.
func (e *Entry) Finish() bool { return e.finished.CompareAndSwap(false, true) }

func (e *Entry) Finished() bool { return e.finished.Load() }

// NoteRun increments the invocation counter and returns the new value.
func (e *Entry) NoteRun() uint64 { return e.runs.Add(1) }

func (e *Entry) Runs() uint64 { return e.runs.Load() }

// Info is a point-in-time view of an Entry for diagnostics.
type Info struct {
	ID        ID        `json:"id"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name,omitempty"`
	Scheduled time.Time `json:"scheduled"`
	Active    bool      `json:"active"`
	Canceled  bool      `json:"canceled"`
	Finished  bool      `json:"finished"`
	Runs      uint64    `json:"runs"`
}

func (e *Entry) Info() Info {
	return Info{
		ID:        e.ID,
		Kind:      e.Kind.String(),
		Name:      e.Name,
		Scheduled: e.Scheduled,
		Active:    e.Active(),
		Canceled:  e.Canceled(),
		Finished:  e.Finished(),
		Runs:      e.Runs(),
	}
}
