package engine

import "sync/atomic"

// Generation is a monotonic wake counter.
//
// Every wake of a Gate advances it, so a waiter that remembers the value
// it last saw can tell a fresh wake from one it has already consumed, even
// when the wake happened before it started waiting.
//
// Thread-safety: Generation is safe for concurrent use (atomic operations).
// Gate additionally advances it under its own lock so the value and the
// condition variable stay consistent.
type Generation struct {
	seq atomic.Int64
}

// Next advances the generation and returns the new value.
func (g *Generation) Next() int64 {
	return g.seq.Add(1)
}

// Current returns the generation without advancing it.
func (g *Generation) Current() int64 {
	return g.seq.Load()
}
