// Package pallettransfer moves a whole pallet: scan it, then scan where it goes.
package pallettransfer

import (
	"ScanFlow/scenario"
)

const Key = "pallet_transfer"

const (
	StateStart           scenario.StateName = "start"
	StateScanDestination scenario.StateName = "scan_destination"
	StateConfirmLocation scenario.StateName = "confirm_location"
)

const keyLastDestination = "last_destination"

func Entry() scenario.Entry {
	return scenario.Entry{
		Key:     Key,
		Route:   "pallet_transfer",
		Initial: StateStart,
		States: map[scenario.StateName]scenario.StateDefinition{
			StateStart: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan: scenario.ScanCall("scan_pallet", "barcode", nil),
				},
			},
			StateScanDestination: {
				Enter: func(c *scenario.Context) scenario.Effect {
					c.Delete(keyLastDestination)
					return nil
				},
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventScan: scanDestination,
					scenario.EventBack: scenario.GoBack(StateStart),
				},
			},
			StateConfirmLocation: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventConfirm: confirmLocation,
					scenario.EventBack:    scenario.GoBack(StateScanDestination),
				},
			},
		},
	}
}

func scanDestination(p scenario.Payload, c *scenario.Context) scenario.Effect {
	text := p.Text()
	if text == "" {
		return nil
	}
	c.Set(keyLastDestination, text)
	return scenario.Call{
		Endpoint: "scan_destination",
		Params: map[string]any{
			"location_id":  c.DataOf(StateScanDestination).Int("id"),
			"barcode":      text,
			"confirmation": p.Bool("confirmation"),
		},
	}
}

func confirmLocation(p scenario.Payload, c *scenario.Context) scenario.Effect {
	if p.String("answer") != "yes" {
		return scenario.Goto{State: StateScanDestination}
	}
	last := c.GetString(keyLastDestination)
	return scenario.Redirect{
		State:   StateScanDestination,
		Event:   scenario.EventScan,
		Payload: scenario.Payload{"text": last, "confirmation": true},
	}
}
