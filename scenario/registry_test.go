package scenario_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ScanFlow/scenario"
)

func noop(scenario.Payload, *scenario.Context) scenario.Effect { return nil }

func baseEntry() scenario.Entry {
	return scenario.Entry{
		Key:     "base",
		Route:   "base",
		Initial: "start",
		States: map[scenario.StateName]scenario.StateDefinition{
			"start": {Handlers: map[scenario.Event]scenario.Handler{scenario.EventScan: noop}},
			"end":   {},
		},
	}
}

func TestRegistryAddAndGet(t *testing.T) {
	r := scenario.NewRegistry()
	require.NoError(t, r.Add(baseEntry()))

	e, err := r.Get("base")
	require.NoError(t, err)
	assert.Equal(t, scenario.StateName("start"), e.States["start"].Name)
	assert.Equal(t, []scenario.StateName{"end", "start"}, e.StateNames())

	var dup *scenario.DuplicateScenarioError
	require.True(t, errors.As(r.Add(baseEntry()), &dup))
	assert.Equal(t, "base", dup.Key)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, scenario.ErrUnknownScenario)
}

func TestRegistryRejectsInvalidEntries(t *testing.T) {
	r := scenario.NewRegistry()

	noInitial := baseEntry()
	noInitial.Initial = "gone"
	assert.ErrorIs(t, r.Add(noInitial), scenario.ErrUnknownState)

	noStates := baseEntry()
	noStates.States = nil
	assert.ErrorIs(t, r.Add(noStates), scenario.ErrInvalidEntry)

	noKey := baseEntry()
	noKey.Key = ""
	assert.ErrorIs(t, r.Add(noKey), scenario.ErrInvalidEntry)

	misnamed := baseEntry()
	misnamed.States["end"] = scenario.StateDefinition{Name: "other"}
	assert.ErrorIs(t, r.Add(misnamed), scenario.ErrInvalidEntry)
}

func TestRegistryAddCopiesEntry(t *testing.T) {
	r := scenario.NewRegistry()
	e := baseEntry()
	require.NoError(t, r.Add(e))

	e.States["extra"] = scenario.StateDefinition{}
	got, err := r.Get("base")
	require.NoError(t, err)
	assert.NotContains(t, got.States, scenario.StateName("extra"))
}

func TestRegistryExtendMergesFields(t *testing.T) {
	r := scenario.NewRegistry()
	require.NoError(t, r.Add(baseEntry()))

	display := &scenario.Display{Title: "Start"}
	extended, err := r.Extend("base", scenario.Overrides{
		Module: "mod-a",
		States: map[scenario.StateName]scenario.StateOverride{
			"start": {
				Display:  display,
				Handlers: map[scenario.Event]scenario.Handler{scenario.EventBack: noop},
			},
			"added": {},
		},
	})
	require.NoError(t, err)

	start := extended.States["start"]
	assert.Same(t, display, start.Display)
	assert.Contains(t, start.Handlers, scenario.EventScan)
	assert.Contains(t, start.Handlers, scenario.EventBack)
	assert.Contains(t, extended.States, scenario.StateName("added"))

	// Extend does not register the result
	base, err := r.Get("base")
	require.NoError(t, err)
	assert.Nil(t, base.States["start"].Display)
	assert.NotContains(t, base.States["start"].Handlers, scenario.EventBack)

	require.NoError(t, r.Replace("base", extended))
	base, err = r.Get("base")
	require.NoError(t, err)
	assert.Same(t, display, base.States["start"].Display)
}

func TestRegistryExtendConflict(t *testing.T) {
	r := scenario.NewRegistry()
	require.NoError(t, r.Add(baseEntry()))

	ov := func(module string) scenario.Overrides {
		return scenario.Overrides{
			Module: module,
			States: map[scenario.StateName]scenario.StateOverride{
				"start": {Handlers: map[scenario.Event]scenario.Handler{scenario.EventScan: noop}},
			},
		}
	}

	first, err := r.Extend("base", ov("mod-a"))
	require.NoError(t, err)
	require.NoError(t, r.Replace("base", first))

	// the same module may apply again
	again, err := r.Extend("base", ov("mod-a"))
	require.NoError(t, err)
	require.NoError(t, r.Replace("base", again))

	_, err = r.Extend("base", ov("mod-b"))
	var conflict *scenario.OverrideConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, scenario.StateName("start"), conflict.State)
	assert.Equal(t, "on:scan", conflict.Field)
	assert.Equal(t, "mod-a", conflict.First)
	assert.Equal(t, "mod-b", conflict.Second)
	assert.ErrorIs(t, err, scenario.ErrOverrideConflict)
}

func TestRegistryExtendValidatesOverrides(t *testing.T) {
	r := scenario.NewRegistry()
	require.NoError(t, r.Add(baseEntry()))

	_, err := r.Extend("base", scenario.Overrides{States: map[scenario.StateName]scenario.StateOverride{"start": {}}})
	assert.ErrorIs(t, err, scenario.ErrInvalidEntry)

	_, err = r.Extend("missing", scenario.Overrides{Module: "m", States: map[scenario.StateName]scenario.StateOverride{"x": {}}})
	assert.ErrorIs(t, err, scenario.ErrUnknownScenario)
}

func TestRegistryReplace(t *testing.T) {
	r := scenario.NewRegistry()
	require.NoError(t, r.Add(baseEntry()))

	other := baseEntry()
	other.Key = "other"
	assert.ErrorIs(t, r.Replace("base", other), scenario.ErrInvalidEntry)
	assert.ErrorIs(t, r.Replace("other", other), scenario.ErrUnknownScenario)
}

func TestRegistryFreeze(t *testing.T) {
	r := scenario.NewRegistry()
	require.NoError(t, r.Add(baseEntry()))
	r.Freeze()
	assert.True(t, r.Frozen())

	other := baseEntry()
	other.Key = "other"
	assert.ErrorIs(t, r.Add(other), scenario.ErrRegistryFrozen)
	assert.ErrorIs(t, r.Replace("base", baseEntry()), scenario.ErrRegistryFrozen)

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, "base", list[0].Key)
}
