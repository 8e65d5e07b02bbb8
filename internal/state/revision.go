package state

import "sync/atomic"

// Revision is a monotonically increasing mutation counter. Every change to a
// Map ticks it; a Map is dirty while its revision differs from the one last
// made durable.
type Revision struct {
	counter atomic.Uint64
}

// Tick increments the revision and returns the new value.
func (r *Revision) Tick() uint64 {
	return r.counter.Add(1)
}

// Current returns the revision without incrementing.
func (r *Revision) Current() uint64 {
	return r.counter.Load()
}
