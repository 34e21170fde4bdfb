// Package scenariotest provides a scripted gateway and a step-by-step
// executor for driving scenario machines in tests.
package scenariotest

import (
	"context"
	"fmt"
	"sync"

	"ScanFlow/scenario"
)

// Reply produces the result of one call.
type Reply func(req scenario.Request) (scenario.Envelope, error)

// Gateway answers calls from per-endpoint replies and records every request.
type Gateway struct {
	mu       sync.Mutex
	replies  map[string][]Reply
	last     map[string]Reply
	requests []scenario.Request
}

func NewGateway() *Gateway {
	return &Gateway{
		replies: make(map[string][]Reply),
		last:    make(map[string]Reply),
	}
}

// On queues a reply for endpoint. Queued replies are used in order; the last
// used one answers again while the queue is empty.
func (g *Gateway) On(endpoint string, r Reply) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies[endpoint] = append(g.replies[endpoint], r)
	return g
}

// Respond queues a fixed envelope for endpoint.
func (g *Gateway) Respond(endpoint string, env scenario.Envelope) *Gateway {
	return g.On(endpoint, func(scenario.Request) (scenario.Envelope, error) {
		return env, nil
	})
}

// Fail queues a transport failure for endpoint.
func (g *Gateway) Fail(endpoint string) *Gateway {
	return g.On(endpoint, func(req scenario.Request) (scenario.Envelope, error) {
		return scenario.Envelope{}, fmt.Errorf("%w: %s unreachable", scenario.ErrTransport, req.Endpoint)
	})
}

func (g *Gateway) Call(ctx context.Context, req scenario.Request) (scenario.Envelope, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	reply := g.last[req.Endpoint]
	if queue := g.replies[req.Endpoint]; len(queue) > 0 {
		reply = queue[0]
		g.replies[req.Endpoint] = queue[1:]
		g.last[req.Endpoint] = reply
	}
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return scenario.Envelope{}, err
	}
	if reply == nil {
		return scenario.Envelope{}, fmt.Errorf("%w: no reply for %s", scenario.ErrTransport, req.Endpoint)
	}
	return reply(req)
}

// Requests returns the calls received so far.
func (g *Gateway) Requests() []scenario.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]scenario.Request(nil), g.requests...)
}

// Last returns the most recent request.
func (g *Gateway) Last() scenario.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		return scenario.Request{}
	}
	return g.requests[len(g.requests)-1]
}

// Executor queues submitted calls until the test runs them.
type Executor struct {
	mu    sync.Mutex
	tasks []func()
}

func (e *Executor) Go(f func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, f)
	return nil
}

// Pending returns the number of queued calls.
func (e *Executor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// RunNext runs the oldest queued call and reports whether there was one.
func (e *Executor) RunNext() bool {
	e.mu.Lock()
	if len(e.tasks) == 0 {
		e.mu.Unlock()
		return false
	}
	f := e.tasks[0]
	e.tasks = e.tasks[1:]
	e.mu.Unlock()

	f()
	return true
}

// RunAll runs queued calls, including those queued while running, until none remain.
func (e *Executor) RunAll() {
	for e.RunNext() {
	}
}
