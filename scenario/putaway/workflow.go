// Package putaway implements the simple putaway scenario: scan a pack, scan
// its destination, and confirm when the destination differs from the expected one.
package putaway

import (
	"ScanFlow/scenario"
)

const Key = "simple_putaway"

// State names
const (
	StateInit             scenario.StateName = "init"
	StateOperationSet     scenario.StateName = "operationSet"
	StateOperationValided scenario.StateName = "operationValided"
	StateConfirmLocation  scenario.StateName = "confirmLocation"
)

// Session variable keys
const (
	KeyLastScan = "last_scan"
)

// Entry returns the simple putaway state table.
func Entry() scenario.Entry {
	return scenario.Entry{
		Key:     Key,
		Route:   "simple_putaway",
		Initial: StateInit,
		States: map[scenario.StateName]scenario.StateDefinition{
			StateInit: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan: scenario.ScanCall("scan_pack", "barcode", nil),
				},
			},
			StateOperationSet: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan:   scanLocation,
					scenario.EventCancel: cancelOperation,
				},
			},
			StateOperationValided: {
				Enter: operationValided,
			},
			StateConfirmLocation: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan:    rescanLocation,
					scenario.EventConfirm: confirmLocation,
				},
			},
		},
	}
}
