package singlepack

import (
	"ScanFlow/scenario"
)

const Key = "single_pack_putaway"

// State names
const (
	StateStart           scenario.StateName = "start"
	StateConfirmStart    scenario.StateName = "confirm_start"
	StateScanLocation    scenario.StateName = "scan_location"
	StateConfirmLocation scenario.StateName = "confirm_location"
)

// Session variable keys
const (
	KeyLastPack     = "last_pack"
	KeyLastLocation = "last_location"
)

// Entry returns the single pack putaway state table. Unlike the simple putaway,
// the backend answers with the confirmation states directly.
func Entry() scenario.Entry {
	return scenario.Entry{
		Key:     Key,
		Route:   "single_pack_transfer",
		Initial: StateStart,
		States: map[scenario.StateName]scenario.StateDefinition{
			StateStart: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan: scanPack,
				},
			},
			StateConfirmStart: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventConfirm: confirmStart,
					scenario.EventBack:    scenario.GoBack(StateStart),
				},
			},
			StateScanLocation: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan:   scanLocation,
					scenario.EventCancel: cancel,
				},
			},
			StateConfirmLocation: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan:    rescanLocation,
					scenario.EventConfirm: confirmLocation,
					scenario.EventBack:    scenario.GoBack(StateScanLocation),
				},
			},
		},
	}
}
