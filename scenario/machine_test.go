package scenario_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ScanFlow/scenario"
	"ScanFlow/scenario/scenariotest"
)

const (
	stateIdle  scenario.StateName = "idle"
	stateShown scenario.StateName = "shown"
	stateLoopA scenario.StateName = "loop_a"
	stateLoopB scenario.StateName = "loop_b"
)

func lookupEntry(trace *[]string) scenario.Entry {
	record := func(s string) {
		if trace != nil {
			*trace = append(*trace, s)
		}
	}
	return scenario.Entry{
		Key:     "lookup",
		Route:   "lookup",
		Initial: stateIdle,
		States: map[scenario.StateName]scenario.StateDefinition{
			stateIdle: {
				Enter: func(*scenario.Context) scenario.Effect { record("enter idle"); return nil },
				Exit:  func(*scenario.Context) { record("exit idle") },
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan: scenario.ScanCall("lookup", "barcode", nil),
					"jump": func(scenario.Payload, *scenario.Context) scenario.Effect {
						return scenario.Goto{State: "nowhere"}
					},
					"show": func(p scenario.Payload, _ *scenario.Context) scenario.Effect {
						return scenario.Redirect{State: stateShown, Event: scenario.EventScan}
					},
				},
			},
			stateShown: {
				Enter: func(*scenario.Context) scenario.Effect { record("enter shown"); return nil },
				Exit:  func(*scenario.Context) { record("exit shown") },
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventBack: scenario.GoBack(stateIdle),
					scenario.EventScan: func(p scenario.Payload, c *scenario.Context) scenario.Effect {
						c.Set("shown_scan", p.Text())
						return nil
					},
					scenario.EventCancel: func(_ scenario.Payload, c *scenario.Context) scenario.Effect {
						c.Notify(scenario.KindInfo, "cancelled")
						return nil
					},
				},
			},
			stateLoopA: {Enter: func(*scenario.Context) scenario.Effect { return scenario.Goto{State: stateLoopB} }},
			stateLoopB: {Enter: func(*scenario.Context) scenario.Effect { return scenario.Goto{State: stateLoopA} }},
		},
	}
}

type harness struct {
	m    *scenario.Machine
	gw   *scenariotest.Gateway
	exec *scenariotest.Executor
}

func newHarness(t *testing.T, entry scenario.Entry, opts ...scenario.Option) *harness {
	t.Helper()
	r := scenario.NewRegistry()
	require.NoError(t, r.Add(entry))
	entry, err := r.Get(entry.Key)
	require.NoError(t, err)

	h := &harness{gw: scenariotest.NewGateway(), exec: &scenariotest.Executor{}}
	opts = append([]scenario.Option{
		scenario.WithSessionID("session-1"),
		scenario.WithLogger(slogt.New(t)),
		scenario.WithExecutor(h.exec),
	}, opts...)
	h.m = scenario.NewMachine(entry, h.gw, opts...)
	require.NoError(t, h.m.Start())
	t.Cleanup(h.m.Close)
	return h
}

func scan(text string) scenario.Payload {
	return scenario.Payload{"text": text}
}

func TestCallResolvesIntoNextState(t *testing.T) {
	h := newHarness(t, lookupEntry(nil))
	h.gw.Respond("lookup", scenario.Envelope{
		State:   stateShown,
		Data:    scenario.Data{"name": "PACK0001"},
		Message: &scenario.Message{Kind: scenario.KindSuccess, Body: "found"},
	})

	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan(" PACK0001 ")))
	snap := h.m.Current()
	assert.True(t, snap.Busy)
	assert.Equal(t, stateIdle, snap.Name)

	h.exec.RunAll()

	snap = h.m.Current()
	assert.False(t, snap.Busy)
	assert.Equal(t, stateShown, snap.Name)
	assert.Equal(t, "PACK0001", snap.Data.String("name"))
	require.NotNil(t, snap.Notification)
	assert.Equal(t, scenario.KindSuccess, snap.Notification.Kind)
	assert.Equal(t, "PACK0001", h.gw.Last().Params["barcode"])
	assert.Equal(t, "lookup", h.gw.Last().Route)
	assert.Equal(t, stateIdle, h.gw.Last().State)
}

func TestEmptyScanIsIgnored(t *testing.T) {
	h := newHarness(t, lookupEntry(nil))
	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("   ")))
	assert.Zero(t, h.exec.Pending())
	assert.False(t, h.m.Busy())
}

func TestBusyRejectsOtherEvents(t *testing.T) {
	h := newHarness(t, lookupEntry(nil))
	h.gw.Respond("lookup", scenario.Envelope{State: stateShown, Data: scenario.Data{"n": 1}})

	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("first")))
	before := h.m.Current()

	err := h.m.Dispatch(scenario.EventScan, scan("second"))
	require.ErrorIs(t, err, scenario.ErrBusy)
	err = h.m.Dispatch("jump", nil)
	require.ErrorIs(t, err, scenario.ErrBusy)

	after := h.m.Current()
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Notification, after.Notification)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, 1, h.exec.Pending())

	h.exec.RunAll()
	assert.Len(t, h.gw.Requests(), 1)
	assert.Equal(t, "first", h.gw.Last().Params["barcode"])
	assert.Equal(t, stateShown, h.m.Current().Name)
}

func TestUnhandledEventChangesNothing(t *testing.T) {
	h := newHarness(t, lookupEntry(nil))
	h.gw.Fail("lookup")
	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("x")))
	h.exec.RunAll()
	before := h.m.Current()
	require.NotNil(t, before.Notification)

	require.NotPanics(t, func() {
		require.NoError(t, h.m.Dispatch("foo", scenario.Payload{"any": 1}))
	})

	after := h.m.Current()
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Data, after.Data)
	assert.Equal(t, before.Notification, after.Notification)
}

func TestTransportFailureKeepsState(t *testing.T) {
	h := newHarness(t, lookupEntry(nil), scenario.WithFailureMessage("Backend down"))
	h.gw.Fail("lookup")

	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("x")))
	h.exec.RunAll()

	snap := h.m.Current()
	assert.False(t, snap.Busy)
	assert.Equal(t, stateIdle, snap.Name)
	require.NotNil(t, snap.Notification)
	assert.Equal(t, scenario.KindError, snap.Notification.Kind)
	assert.Equal(t, "Backend down", snap.Notification.Body)
	assert.NoError(t, h.m.Fault())

	// the next handled event clears the message
	h.gw.Respond("lookup", scenario.Envelope{})
	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("y")))
	assert.Nil(t, h.m.Current().Notification)
}

func TestCancelDiscardsInflightCall(t *testing.T) {
	h := newHarness(t, lookupEntry(nil))
	h.gw.Respond("lookup", scenario.Envelope{State: stateShown})

	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("x")))
	require.True(t, h.m.Busy())

	// idle declares no cancel handler: the call is dropped and nothing else happens
	require.NoError(t, h.m.Dispatch(scenario.EventCancel, nil))
	assert.False(t, h.m.Busy())

	h.exec.RunAll()
	assert.Equal(t, stateIdle, h.m.Current().Name)

	// a new call can start once the old one was cancelled
	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("y")))
	h.exec.RunAll()
	assert.Equal(t, stateShown, h.m.Current().Name)
}

func TestCancelRunsHandlerOfState(t *testing.T) {
	h := newHarness(t, lookupEntry(nil))
	require.NoError(t, h.m.Goto(stateShown))

	require.NoError(t, h.m.Dispatch(scenario.EventCancel, nil))
	snap := h.m.Current()
	require.NotNil(t, snap.Notification)
	assert.Equal(t, "cancelled", snap.Notification.Body)
}

func TestCloseDiscardsResult(t *testing.T) {
	h := newHarness(t, lookupEntry(nil))
	h.gw.Respond("lookup", scenario.Envelope{State: stateShown})

	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("x")))
	h.m.Close()
	assert.False(t, h.m.Alive())

	h.exec.RunAll()
	assert.Equal(t, stateIdle, h.m.Current().Name)
	assert.ErrorIs(t, h.m.Dispatch(scenario.EventScan, scan("y")), scenario.ErrClosed)
	assert.ErrorIs(t, h.m.Goto(stateShown), scenario.ErrClosed)

	// closing twice is harmless
	h.m.Close()
}

func TestGotoUnknownState(t *testing.T) {
	h := newHarness(t, lookupEntry(nil))

	err := h.m.Goto("nowhere")
	var use *scenario.UnknownStateError
	require.True(t, errors.As(err, &use))
	assert.Equal(t, scenario.StateName("nowhere"), use.State)
	assert.True(t, scenario.IsConfigurationError(err))

	err = h.m.Dispatch("jump", nil)
	assert.ErrorIs(t, err, scenario.ErrUnknownState)
	assert.Equal(t, stateIdle, h.m.Current().Name)
}

func TestEnvelopeWithUnknownStateIsAFault(t *testing.T) {
	h := newHarness(t, lookupEntry(nil))
	h.gw.Respond("lookup", scenario.Envelope{State: "nowhere"})

	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("x")))
	h.exec.RunAll()

	assert.ErrorIs(t, h.m.Fault(), scenario.ErrUnknownState)
	snap := h.m.Current()
	assert.Equal(t, stateIdle, snap.Name)
	assert.False(t, snap.Busy)
	require.NotNil(t, snap.Notification)
	assert.Equal(t, scenario.KindError, snap.Notification.Kind)
}

func TestEnvelopeWithoutStateRefreshesData(t *testing.T) {
	h := newHarness(t, lookupEntry(nil))
	h.gw.Respond("lookup", scenario.Envelope{
		Data:    scenario.Data{"qty": 3},
		Message: &scenario.Message{Kind: scenario.KindInfo, Body: "updated"},
	})

	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("x")))
	h.exec.RunAll()

	snap := h.m.Current()
	assert.Equal(t, stateIdle, snap.Name)
	assert.Equal(t, 3, snap.Data.Int("qty"))
	assert.Equal(t, "updated", snap.Notification.Body)
}

func TestEnterAndExitOrder(t *testing.T) {
	var trace []string
	h := newHarness(t, lookupEntry(&trace))
	assert.Equal(t, []string{"enter idle"}, trace)

	require.NoError(t, h.m.Goto(stateShown))
	require.NoError(t, h.m.Dispatch(scenario.EventBack, nil))

	assert.Equal(t, []string{
		"enter idle",
		"exit idle", "enter shown",
		"exit shown", "enter idle",
	}, trace)
}

func TestStateDataPersistsAcrossVisits(t *testing.T) {
	h := newHarness(t, lookupEntry(nil))
	h.gw.Respond("lookup", scenario.Envelope{State: stateShown, Data: scenario.Data{"name": "A"}})

	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("x")))
	h.exec.RunAll()
	require.NoError(t, h.m.Dispatch(scenario.EventBack, nil))
	require.NoError(t, h.m.Goto(stateShown))

	assert.Equal(t, "A", h.m.Current().Data.String("name"))
}

func TestServerDataReplacesStaleBag(t *testing.T) {
	h := newHarness(t, lookupEntry(nil))
	h.gw.Respond("lookup", scenario.Envelope{State: stateShown, Data: scenario.Data{"a": 1}})
	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("x")))
	h.exec.RunAll()
	require.Equal(t, scenario.Data{"a": 1}, h.m.Current().Data)

	require.NoError(t, h.m.Dispatch(scenario.EventBack, nil))
	h.gw.Respond("lookup", scenario.Envelope{State: stateShown, Data: scenario.Data{"b": 2}})
	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("y")))
	h.exec.RunAll()

	snap := h.m.Current()
	assert.Equal(t, stateShown, snap.Name)
	assert.Equal(t, scenario.Data{"b": 2}, snap.Data)
}

func TestEnterChainIsBounded(t *testing.T) {
	h := newHarness(t, lookupEntry(nil))
	err := h.m.Goto(stateLoopA)
	assert.ErrorIs(t, err, scenario.ErrTransitionLoop)
}

func TestRedirectReplaysEvent(t *testing.T) {
	h := newHarness(t, lookupEntry(nil))

	require.NoError(t, h.m.Dispatch("show", scan("LOC-1")))

	assert.Equal(t, stateShown, h.m.Current().Name)
	assert.Equal(t, "LOC-1", h.m.Export().Vars["shown_scan"])
	assert.Zero(t, h.exec.Pending())
}

func TestListenerSeesEveryChange(t *testing.T) {
	var seen []scenario.Snapshot
	h := newHarness(t, lookupEntry(nil), scenario.WithListener(func(s scenario.Snapshot) {
		seen = append(seen, s)
	}))
	h.gw.Respond("lookup", scenario.Envelope{State: stateShown})

	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("x")))
	h.exec.RunAll()

	require.Len(t, seen, 3)
	assert.Equal(t, stateIdle, seen[0].Name)
	assert.True(t, seen[1].Busy)
	assert.Equal(t, stateShown, seen[2].Name)
	assert.False(t, seen[2].Busy)
	assert.Equal(t, "session-1", seen[2].SessionID)
	assert.Less(t, seen[0].Version, seen[1].Version)
	assert.Less(t, seen[1].Version, seen[2].Version)
}

type goroutineExecutor struct{}

func (goroutineExecutor) Go(f func()) error {
	go f()
	return nil
}

func TestListenerOrderWithConcurrentResolution(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []scenario.Snapshot
	)
	listener := func(s scenario.Snapshot) {
		if s.Busy {
			// hold delivery of the busy snapshot while the call resolves
			time.Sleep(50 * time.Millisecond)
		}
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}
	h := newHarness(t, lookupEntry(nil),
		scenario.WithExecutor(goroutineExecutor{}),
		scenario.WithListener(listener),
	)
	h.gw.Respond("lookup", scenario.Envelope{State: stateShown})

	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("x")))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.m.Settle(ctx))

	last := func() scenario.Snapshot {
		mu.Lock()
		defer mu.Unlock()
		return seen[len(seen)-1]
	}
	assert.Eventually(t, func() bool {
		s := last()
		return s.Name == stateShown && !s.Busy
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	final := seen[len(seen)-1]
	assert.Equal(t, stateShown, final.Name)
	assert.False(t, final.Busy)
	for i := 1; i < len(seen); i++ {
		assert.Less(t, seen[i-1].Version, seen[i].Version)
	}
}

func TestRestoreResumesSavedPosition(t *testing.T) {
	saved := scenario.Saved{
		State: stateShown,
		Data:  map[scenario.StateName]scenario.Data{stateShown: {"name": "B"}},
		Vars:  map[string]any{"k": "v"},
	}
	h := newHarness(t, lookupEntry(nil), scenario.WithRestore(saved))

	snap := h.m.Current()
	assert.Equal(t, stateShown, snap.Name)
	assert.Equal(t, "B", snap.Data.String("name"))
	assert.Equal(t, "v", h.m.Export().Vars["k"])

	unknown := newHarness(t, lookupEntry(nil), scenario.WithRestore(scenario.Saved{State: "gone"}))
	assert.Equal(t, stateIdle, unknown.m.Current().Name)
}

type rejectingExecutor struct{}

func (rejectingExecutor) Go(func()) error { return errors.New("pool stopped") }

func TestExecutorRejection(t *testing.T) {
	h := newHarness(t, lookupEntry(nil), scenario.WithExecutor(rejectingExecutor{}))

	require.NoError(t, h.m.Dispatch(scenario.EventScan, scan("x")))
	snap := h.m.Current()
	assert.False(t, snap.Busy)
	require.NotNil(t, snap.Notification)
	assert.Equal(t, scenario.KindError, snap.Notification.Kind)
}

func TestSettleWaitsForCall(t *testing.T) {
	release := make(chan struct{})
	gw := scenariotest.NewGateway().On("lookup", func(scenario.Request) (scenario.Envelope, error) {
		<-release
		return scenario.Envelope{State: stateShown}, nil
	})

	r := scenario.NewRegistry()
	require.NoError(t, r.Add(lookupEntry(nil)))
	entry, err := r.Get("lookup")
	require.NoError(t, err)

	m := scenario.NewMachine(entry, gw, scenario.WithLogger(slogt.New(t)))
	defer m.Close()
	require.NoError(t, m.Start())
	require.NoError(t, m.Dispatch(scenario.EventScan, scan("x")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Settle(ctx), context.DeadlineExceeded)

	close(release)
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	require.NoError(t, m.Settle(ctx2))
	assert.Equal(t, stateShown, m.Current().Name)
}
