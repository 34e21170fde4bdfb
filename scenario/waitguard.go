package scenario

import "context"

// waitGuard tracks the single outstanding gateway call of a session.
// Each call gets a token; a resolution carrying a stale token is discarded.
type waitGuard struct {
	token    uint64
	inflight bool
	cancel   context.CancelFunc
	idle     chan struct{}
}

func newWaitGuard() waitGuard {
	idle := make(chan struct{})
	close(idle)
	return waitGuard{idle: idle}
}

func (g *waitGuard) busy() bool {
	return g.inflight
}

// begin marks a call in flight. It must run before the call is handed to an executor.
func (g *waitGuard) begin(cancel context.CancelFunc) uint64 {
	g.token++
	g.inflight = true
	g.cancel = cancel
	g.idle = make(chan struct{})
	return g.token
}

// end reports whether token is the outstanding call and, if so, releases the guard.
func (g *waitGuard) end(token uint64) bool {
	if !g.inflight || token != g.token {
		return false
	}
	g.release()
	return true
}

// abandon drops the outstanding call; its result will be discarded.
func (g *waitGuard) abandon() {
	if !g.inflight {
		return
	}
	g.token++
	if g.cancel != nil {
		g.cancel()
	}
	g.release()
}

func (g *waitGuard) release() {
	g.inflight = false
	g.cancel = nil
	close(g.idle)
}

func (g *waitGuard) done() <-chan struct{} {
	return g.idle
}
