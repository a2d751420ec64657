// Package routine holds the identity and bookkeeping of in-flight timed routines.
//
// The Registry is the only shared mutable structure of the timer runners:
//   - a runner inserts its Entry before spawning its goroutine
//   - cancel calls only flip the Entry's state (cooperative cancellation)
//   - the runner that inserted an Entry is the one that removes it
package routine
