// Package timers runs caller routines under temporal constraints.
//
// Three runners share one registry:
//   - delay: fire once after a wait (setTimeout / clearTimeout)
//   - interval and cron: fire repeatedly until canceled (setInterval / clearInterval)
//   - guard: run with a deadline and report whether it finished in time
//
// Every scheduled routine gets its own goroutine. Cancellation is cooperative:
// a cancel call flips the entry's flag and wakes its runner, but never interrupts
// an invocation that has already started.
package timers
