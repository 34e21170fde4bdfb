package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"go.uber.org/atomic"

	"ScanFlow/internal/lib/sl"
)

// maxTransitions bounds chained enter effects within one dispatch or resolution.
const maxTransitions = 20

// DefaultFailureMessage is shown when a remote call fails.
const DefaultFailureMessage = "The request could not be completed, please retry."

// Snapshot is the read-only projection of a session consumed by screens.
type Snapshot struct {
	SessionID    string        `json:"session_id"`
	Scenario     string        `json:"scenario"`
	Name         StateName     `json:"name"`
	Data         Data          `json:"data,omitempty"`
	Busy         bool          `json:"busy"`
	Notification *Notification `json:"notification,omitempty"`
	Display      *Display      `json:"display,omitempty"`
	Version      uint64        `json:"version"`
}

// Saved is the resumable part of a session.
type Saved struct {
	State StateName
	Data  map[StateName]Data
	Vars  map[string]any
}

// Listener observes every change of a session.
type Listener func(s Snapshot)

// Option configures a Machine.
type Option func(m *Machine)

// WithSessionID sets the session identifier reported in snapshots.
func WithSessionID(id string) Option {
	return func(m *Machine) { m.id = id }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Machine) { m.log = log }
}

// WithExecutor sets the executor running gateway calls.
func WithExecutor(exec Executor) Option {
	return func(m *Machine) { m.exec = exec }
}

// WithFailureMessage sets the notification shown on transport failures.
func WithFailureMessage(body string) Option {
	return func(m *Machine) {
		if body != "" {
			m.failureText = body
		}
	}
}

// WithListener registers a change listener.
func WithListener(l Listener) Option {
	return func(m *Machine) { m.listeners = append(m.listeners, l) }
}

// WithRestore resumes a session from a saved position instead of the initial state.
// Unknown states are ignored.
func WithRestore(s Saved) Option {
	return func(m *Machine) {
		if _, ok := m.entry.States[s.State]; !ok {
			return
		}
		m.current = s.State
		for k, v := range s.Data {
			m.data[k] = v
		}
		m.ctx.vars = maps.Clone(s.Vars)
	}
}

// Machine drives one scenario session. It is the only writer of the session state.
type Machine struct {
	mu          sync.Mutex
	id          string
	entry       Entry
	gateway     Gateway
	exec        Executor
	log         *slog.Logger
	failureText string
	listeners   []Listener

	current  StateName
	data     map[StateName]Data
	ctx      *Context
	notifier Notifier
	guard    waitGuard
	version  uint64
	fault    error

	// emitMu orders listener delivery; emitted is the last version delivered.
	emitMu  sync.Mutex
	emitted uint64

	alive    *atomic.Bool
	lifetime context.Context
	stop     context.CancelFunc
}

// NewMachine creates a session for entry positioned on its initial state.
// Call Start to enter it.
func NewMachine(entry Entry, gw Gateway, opts ...Option) *Machine {
	lifetime, stop := context.WithCancel(context.Background())
	m := &Machine{
		entry:       entry,
		gateway:     gw,
		exec:        goExecutor{},
		log:         slog.Default(),
		failureText: DefaultFailureMessage,
		current:     entry.Initial,
		data:        make(map[StateName]Data),
		guard:       newWaitGuard(),
		alive:       atomic.NewBool(true),
		lifetime:    lifetime,
		stop:        stop,
	}
	m.ctx = &Context{m: m}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(
		slog.String("scenario", entry.Key),
		slog.String("session_id", m.id),
	)
	return m
}

// Start enters the current state, running its enter handler.
func (m *Machine) Start() error {
	m.mu.Lock()
	if !m.alive.Load() {
		m.mu.Unlock()
		return ErrClosed
	}
	def, ok := m.entry.States[m.current]
	if !ok {
		m.mu.Unlock()
		return &UnknownStateError{Scenario: m.entry.Key, State: m.current}
	}
	m.log.Debug("starting scenario", slog.String("state", string(m.current)))
	var err error
	if def.Enter != nil {
		err = m.apply(def.Enter(m.ctx), nil, 0)
	}
	snap := m.changed()
	m.mu.Unlock()

	m.emit(snap)
	return err
}

// Dispatch delivers event to the current state.
//
// While a call is in flight every event but the cancel event is rejected with ErrBusy.
// An event the current state does not handle is ignored.
func (m *Machine) Dispatch(event Event, payload Payload) error {
	m.mu.Lock()
	if !m.alive.Load() {
		m.mu.Unlock()
		return ErrClosed
	}

	state := m.current
	cancelled := false
	if m.guard.busy() {
		if event != m.entry.cancelEvent() {
			m.mu.Unlock()
			dispatchTotal.WithLabelValues(m.entry.Key, string(state), string(event), outcomeRejected).Inc()
			return ErrBusy
		}
		m.guard.abandon()
		cancelled = true
		m.log.Debug("in-flight call cancelled", slog.String("state", string(state)))
	}

	handler, ok := m.entry.States[state].Handlers[event]
	if !ok {
		var snap Snapshot
		if cancelled {
			snap = m.changed()
		}
		m.mu.Unlock()
		dispatchTotal.WithLabelValues(m.entry.Key, string(state), string(event), outcomeIgnored).Inc()
		if cancelled {
			m.emit(snap)
		}
		return nil
	}

	dispatchTotal.WithLabelValues(m.entry.Key, string(state), string(event), outcomeHandled).Inc()
	m.notifier.Clear()
	err := m.apply(handler(payload, m.ctx), payload, 0)
	if err != nil {
		m.log.Error("dispatch failed",
			slog.String("state", string(state)),
			slog.String("event", string(event)),
			sl.Err(err),
		)
	}
	snap := m.changed()
	m.mu.Unlock()

	m.emit(snap)
	return err
}

// Goto transitions to state, running the exit handler of the current state
// and then the enter handler of the new one.
func (m *Machine) Goto(state StateName) error {
	m.mu.Lock()
	if !m.alive.Load() {
		m.mu.Unlock()
		return ErrClosed
	}
	err := m.apply(Goto{State: state}, nil, 0)
	snap := m.changed()
	m.mu.Unlock()

	m.emit(snap)
	return err
}

// Current returns the projection consumed by screens.
func (m *Machine) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Busy reports whether a call is in flight.
func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.guard.busy()
}

// Alive reports whether the session has not been closed.
func (m *Machine) Alive() bool {
	return m.alive.Load()
}

// Fault returns the last configuration error raised while applying a call result.
func (m *Machine) Fault() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fault
}

// Export returns the resumable part of the session.
func (m *Machine) Export() Saved {
	m.mu.Lock()
	defer m.mu.Unlock()
	data := make(map[StateName]Data, len(m.data))
	for k, v := range m.data {
		data[k] = v.Clone()
	}
	return Saved{State: m.current, Data: data, Vars: m.ctx.snapshotVars()}
}

// Settle blocks until no call is in flight or ctx is done.
func (m *Machine) Settle(ctx context.Context) error {
	for {
		m.mu.Lock()
		busy := m.guard.busy()
		done := m.guard.done()
		m.mu.Unlock()
		if !busy {
			return nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close tears the session down. A call still in flight is cancelled and its
// result discarded.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.alive.CompareAndSwap(true, false) {
		return
	}
	m.guard.abandon()
	m.stop()
	m.log.Debug("session closed", slog.String("state", string(m.current)))
}

// apply follows eff and the effects chained by enter handlers.
func (m *Machine) apply(eff Effect, payload Payload, depth int) error {
	for ; eff != nil; depth++ {
		if depth >= maxTransitions {
			return fmt.Errorf("%w: stopped in %s after %d steps", ErrTransitionLoop, m.current, depth)
		}
		switch e := eff.(type) {
		case Goto:
			next, err := m.transition(e.State)
			if err != nil {
				return err
			}
			eff = next

		case Redirect:
			next, err := m.transition(e.State)
			if err != nil {
				return err
			}
			if err = m.apply(next, payload, depth+1); err != nil {
				return err
			}
			if m.guard.busy() {
				return nil
			}
			if e.Payload != nil {
				payload = e.Payload
			}
			handler, ok := m.entry.States[m.current].Handlers[e.Event]
			if !ok {
				return nil
			}
			eff = handler(payload, m.ctx)

		case Call:
			m.startCall(e)
			return nil

		default:
			return fmt.Errorf("%w: %T", ErrUnknownEffect, eff)
		}
	}
	return nil
}

// transition swaps the current state and returns the effect of its enter handler.
func (m *Machine) transition(name StateName) (Effect, error) {
	def, ok := m.entry.States[name]
	if !ok {
		return nil, &UnknownStateError{Scenario: m.entry.Key, State: name}
	}

	from := m.current
	if old, ok := m.entry.States[from]; ok && old.Exit != nil {
		old.Exit(m.ctx)
	}
	m.current = name

	transitionTotal.WithLabelValues(m.entry.Key, string(from), string(name)).Inc()
	m.log.Debug("transitioning",
		slog.String("from", string(from)),
		slog.String("to", string(name)),
	)

	if def.Enter != nil {
		return def.Enter(m.ctx), nil
	}
	return nil, nil
}

// startCall marks the session busy and hands the call to the executor.
func (m *Machine) startCall(c Call) {
	ctx, cancel := context.WithCancel(m.lifetime)
	token := m.guard.begin(cancel)
	req := Request{
		Scenario: m.entry.Key,
		Route:    m.entry.Route,
		Endpoint: c.Endpoint,
		Params:   c.Params,
		State:    m.current,
	}

	err := m.exec.Go(func() {
		started := time.Now()
		env, err := m.gateway.Call(ctx, req)
		callDuration.WithLabelValues(req.Scenario, req.Endpoint).Observe(time.Since(started).Seconds())
		cancel()
		m.resolve(token, req, env, err)
	})
	if err != nil {
		cancel()
		m.guard.end(token)
		m.notifier.Set(KindError, m.failureText)
		callTotal.WithLabelValues(req.Scenario, req.Endpoint, outcomeFailure).Inc()
		m.log.Error("call not started",
			slog.String("endpoint", req.Endpoint),
			sl.Err(err),
		)
	}
}

// resolve applies the result of the call identified by token.
func (m *Machine) resolve(token uint64, req Request, env Envelope, callErr error) {
	m.mu.Lock()
	if !m.alive.Load() || !m.guard.end(token) {
		m.mu.Unlock()
		callTotal.WithLabelValues(req.Scenario, req.Endpoint, outcomeDropped).Inc()
		m.log.Debug("call result discarded", slog.String("endpoint", req.Endpoint))
		return
	}

	if callErr != nil {
		callTotal.WithLabelValues(req.Scenario, req.Endpoint, outcomeFailure).Inc()
		m.notifier.Set(KindError, m.failureText)
		m.log.Warn("call failed",
			slog.String("endpoint", req.Endpoint),
			slog.String("state", string(m.current)),
			sl.Err(callErr),
		)
	} else {
		callTotal.WithLabelValues(req.Scenario, req.Endpoint, outcomeSuccess).Inc()
		if err := m.applyEnvelope(env); err != nil {
			m.fault = err
			m.notifier.Set(KindError, m.failureText)
			m.log.Error("call result rejected",
				slog.String("endpoint", req.Endpoint),
				sl.Err(err),
			)
		}
	}
	snap := m.changed()
	m.mu.Unlock()

	m.emit(snap)
}

func (m *Machine) applyEnvelope(env Envelope) error {
	if env.Message != nil {
		m.notifier.Set(env.Message.Kind, env.Message.Body)
	} else {
		m.notifier.Clear()
	}

	if env.State == "" {
		if env.Data != nil {
			m.data[m.current] = env.Data
		}
		return nil
	}

	if _, ok := m.entry.States[env.State]; !ok {
		return &UnknownStateError{Scenario: m.entry.Key, State: env.State}
	}
	m.data[env.State] = env.Data
	next, err := m.transition(env.State)
	if err != nil {
		return err
	}
	return m.apply(next, nil, 1)
}

// changed bumps the version and returns the new snapshot. Caller holds mu.
func (m *Machine) changed() Snapshot {
	m.version++
	return m.snapshot()
}

func (m *Machine) snapshot() Snapshot {
	return Snapshot{
		SessionID:    m.id,
		Scenario:     m.entry.Key,
		Name:         m.current,
		Data:         m.data[m.current].Clone(),
		Busy:         m.guard.busy(),
		Notification: m.notifier.Current(),
		Display:      m.entry.States[m.current].Display,
		Version:      m.version,
	}
}

// emit delivers s to the listeners unless a newer snapshot already went out.
func (m *Machine) emit(s Snapshot) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	if s.Version <= m.emitted {
		return
	}
	m.emitted = s.Version
	for _, l := range m.listeners {
		l(s)
	}
}

type goExecutor struct{}

func (goExecutor) Go(f func()) error {
	go f()
	return nil
}
