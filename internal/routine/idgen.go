package routine

import "sync/atomic"

// IDGen issues routine identifiers from an atomic counter.
//
// Ids are strictly increasing for the lifetime of the generator, so two
// registrations can never share one even when scheduled in the same instant.
type IDGen struct {
	seq atomic.Uint64
}

func (g *IDGen) Next() ID { return ID(g.seq.Add(1)) }
