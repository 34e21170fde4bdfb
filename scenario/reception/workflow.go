// Package reception receives goods against an incoming transfer.
package reception

import (
	"ScanFlow/scenario"
)

const Key = "reception"

// State names
const (
	StateSelectDocument scenario.StateName = "select_document"
	StateSelectMove     scenario.StateName = "select_move"
	StateSetLot         scenario.StateName = "set_lot"
	StateSetQuantity    scenario.StateName = "set_quantity"
	StateSetDestination scenario.StateName = "set_destination"
)

// Entry returns the reception state table.
func Entry() scenario.Entry {
	return scenario.Entry{
		Key:     Key,
		Route:   "reception",
		Initial: StateSelectDocument,
		States: map[scenario.StateName]scenario.StateDefinition{
			StateSelectDocument: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan:   scenario.ScanCall("scan_document", "barcode", nil),
					scenario.EventSelect: selectDocument,
				},
			},
			StateSelectMove: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan: scenario.ScanCall("scan_line", "barcode", withPicking),
					scenario.EventBack: scenario.GoBack(StateSelectDocument),
				},
			},
			StateSetLot: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan:    scenario.ScanCall("set_lot", "lot_name", withLine),
					scenario.EventConfirm: lineCall("set_lot_confirm_action"),
					scenario.EventBack:    scenario.GoBack(StateSelectMove),
				},
			},
			StateSetQuantity: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventQuantity: setQuantity,
					scenario.EventScan:     scenario.ScanCall("set_quantity", "barcode", withLine),
					scenario.EventConfirm:  lineCall("process_without_pack"),
					scenario.EventBack:     scenario.GoBack(StateSelectMove),
				},
			},
			StateSetDestination: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan: scenario.ScanCall("set_destination", "location_name", withLine),
					scenario.EventBack: scenario.GoBack(StateSetQuantity),
				},
			},
		},
	}
}
