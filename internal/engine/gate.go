package engine

import (
	"sync"
	"time"
)

type gateState int

const (
	gateIdle gateState = iota
	gateActive
)

// Gate is where the run loop parks between passes.
//
// The loop waits on the gate while a ping is outstanding; the ping
// goroutine, an external Notify or Stop wake it. The gate is Idle while
// the loop works and Active while it waits. A wake advances the
// Generation, so a wake that arrives while the loop is still working is
// not lost: the next Wait returns at once.
type Gate struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state gateState
	gen   Generation
}

// NewGate returns an idle gate.
func NewGate() *Gate {
	g := &Gate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Generation returns the current wake generation. A waiter passes it to
// Wait to sleep until the next wake.
func (g *Gate) Generation() int64 {
	return g.gen.Current()
}

// Wake advances the generation and releases any waiter. Safe from any
// goroutine.
func (g *Gate) Wake() {
	g.mu.Lock()
	g.gen.Next()
	g.mu.Unlock()
	g.cond.Broadcast()
}

// Wait blocks until the generation moves past seen or timeout elapses.
// It returns the generation observed and whether a wake happened.
func (g *Gate) Wait(seen int64, timeout time.Duration) (int64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	expired := false
	timer := time.AfterFunc(timeout, func() {
		g.mu.Lock()
		expired = true
		g.mu.Unlock()
		g.cond.Broadcast()
	})
	defer timer.Stop()

	g.state = gateActive
	for g.gen.Current() == seen && !expired {
		g.cond.Wait()
	}
	g.state = gateIdle

	now := g.gen.Current()
	return now, now != seen
}

// waiting reports whether a waiter is parked on the gate.
func (g *Gate) waiting() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == gateActive
}
