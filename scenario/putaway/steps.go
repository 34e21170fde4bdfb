package putaway

import (
	"ScanFlow/scenario"
)

// scanLocation validates the scanned destination of the current pack.
func scanLocation(p scenario.Payload, c *scenario.Context) scenario.Effect {
	text := p.Text()
	if text == "" {
		return nil
	}
	c.Set(KeyLastScan, text)

	return scenario.Call{
		Endpoint: "validate",
		Params: map[string]any{
			"package_level_id": c.DataOf(StateOperationSet).Int("id"),
			"location_barcode": text,
			"confirmation":     p.Bool("confirmation"),
		},
	}
}

// cancelOperation releases the pack and returns to the start screen.
func cancelOperation(_ scenario.Payload, c *scenario.Context) scenario.Effect {
	return scenario.Call{
		Endpoint: "cancel",
		Params: map[string]any{
			"package_level_id": c.DataOf(StateOperationSet).Int("id"),
		},
	}
}

// operationValided either asks for confirmation or starts over.
func operationValided(c *scenario.Context) scenario.Effect {
	if c.Data().Bool("pleaseConfirm") {
		c.SetData(StateConfirmLocation, c.DataOf(StateOperationSet).Clone())
		return scenario.Goto{State: StateConfirmLocation}
	}
	c.Delete(KeyLastScan)
	return scenario.Goto{State: StateInit}
}

// confirmLocation answers the destination confirmation prompt.
func confirmLocation(p scenario.Payload, c *scenario.Context) scenario.Effect {
	switch p.String("answer") {
	case "yes":
		return scenario.Redirect{
			State: StateOperationSet,
			Event: scenario.EventScan,
			Payload: scenario.Payload{
				"text":         c.GetString(KeyLastScan),
				"confirmation": true,
			},
		}
	case "no":
		return scenario.Goto{State: StateOperationSet}
	}
	return nil
}

// rescanLocation treats a scan on the prompt as a confirmed destination.
func rescanLocation(p scenario.Payload, _ *scenario.Context) scenario.Effect {
	if p.Text() == "" {
		return nil
	}
	return scenario.Redirect{
		State: StateOperationSet,
		Event: scenario.EventScan,
		Payload: scenario.Payload{
			"text":         p.Text(),
			"confirmation": true,
		},
	}
}
