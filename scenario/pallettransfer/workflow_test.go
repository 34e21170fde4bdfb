package pallettransfer

import (
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ScanFlow/scenario"
	"ScanFlow/scenario/scenariotest"
)

func TestConfirmedDestinationIsRescanned(t *testing.T) {
	r := scenario.NewRegistry()
	require.NoError(t, r.Add(Entry()))
	entry, err := r.Get(Key)
	require.NoError(t, err)

	gw := scenariotest.NewGateway()
	exec := &scenariotest.Executor{}
	m := scenario.NewMachine(entry, gw, scenario.WithLogger(slogt.New(t)), scenario.WithExecutor(exec))
	require.NoError(t, m.Start())
	defer m.Close()

	gw.Respond("scan_pallet", scenario.Envelope{State: StateScanDestination, Data: scenario.Data{"id": 3}})
	require.NoError(t, m.Dispatch(scenario.EventScan, scenario.Payload{"text": "PAL-1"}))
	exec.RunAll()
	require.Equal(t, StateScanDestination, m.Current().Name)

	gw.Respond("scan_destination", scenario.Envelope{State: StateConfirmLocation}).
		Respond("scan_destination", scenario.Envelope{State: StateStart})
	require.NoError(t, m.Dispatch(scenario.EventScan, scenario.Payload{"text": "LOC-X"}))
	exec.RunAll()
	require.Equal(t, StateConfirmLocation, m.Current().Name)

	require.NoError(t, m.Dispatch(scenario.EventConfirm, scenario.Payload{"answer": "yes"}))
	exec.RunAll()

	req := gw.Last()
	assert.Equal(t, "LOC-X", req.Params["barcode"])
	assert.Equal(t, true, req.Params["confirmation"])
	assert.Equal(t, 3, req.Params["location_id"])
	assert.Equal(t, StateStart, m.Current().Name)
}
