// Package checkout implements the scan and pack checkout scenario.
package checkout

import (
	"ScanFlow/scenario"
)

const Key = "checkout"

// State names
const (
	StateSelectDocument          scenario.StateName = "select_document"
	StateSelectLine              scenario.StateName = "select_line"
	StateSelectPackage           scenario.StateName = "select_package"
	StateSelectDeliveryPackaging scenario.StateName = "select_delivery_packaging"
	StateSummary                 scenario.StateName = "summary"
)

// Entry returns the checkout state table.
func Entry() scenario.Entry {
	return scenario.Entry{
		Key:     Key,
		Route:   "checkout",
		Initial: StateSelectDocument,
		States: map[scenario.StateName]scenario.StateDefinition{
			StateSelectDocument: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan: scenario.ScanCall("scan_document", "barcode", nil),
				},
			},
			StateSelectLine: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan:   scenario.ScanCall("scan_line", "barcode", withPicking),
					scenario.EventSelect: selectLine,
					scenario.EventBack:   scenario.GoBack(StateSelectDocument),
				},
			},
			StateSelectPackage: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventQuantity: setQuantity,
					scenario.EventConfirm:  listDeliveryPackaging,
					scenario.EventScan:     scenario.ScanCall("scan_package_action", "barcode", withSelectedLines),
					scenario.EventCancel:   resetLineQuantities,
				},
			},
			StateSelectDeliveryPackaging: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventSelect: SetPackaging,
					scenario.EventBack:   scenario.GoBack(StateSelectPackage),
				},
			},
			StateSummary: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventConfirm: done,
					scenario.EventBack:    scenario.GoBack(StateSelectLine),
				},
			},
		},
	}
}
