package singlepack

import (
	"ScanFlow/scenario"
)

func scanPack(p scenario.Payload, c *scenario.Context) scenario.Effect {
	text := p.Text()
	if text == "" {
		return nil
	}
	c.Set(KeyLastPack, text)
	return scenario.Call{
		Endpoint: "start",
		Params: map[string]any{
			"barcode":      text,
			"confirmation": p.Bool("confirmation"),
		},
	}
}

func confirmStart(p scenario.Payload, c *scenario.Context) scenario.Effect {
	if p.String("answer") != "yes" {
		return scenario.Goto{State: StateStart}
	}
	return scenario.Redirect{
		State: StateStart,
		Event: scenario.EventScan,
		Payload: scenario.Payload{
			"text":         c.GetString(KeyLastPack),
			"confirmation": true,
		},
	}
}

func packageLevelID(c *scenario.Context) int {
	return c.DataOf(StateScanLocation).Int("id")
}

func scanLocation(p scenario.Payload, c *scenario.Context) scenario.Effect {
	text := p.Text()
	if text == "" {
		return nil
	}
	c.Set(KeyLastLocation, text)
	return scenario.Call{
		Endpoint: "validate",
		Params: map[string]any{
			"package_level_id": packageLevelID(c),
			"location_barcode": text,
			"confirmation":     p.Bool("confirmation"),
		},
	}
}

func cancel(_ scenario.Payload, c *scenario.Context) scenario.Effect {
	return scenario.Call{
		Endpoint: "cancel",
		Params:   map[string]any{"package_level_id": packageLevelID(c)},
	}
}

func rescanLocation(p scenario.Payload, _ *scenario.Context) scenario.Effect {
	if p.Text() == "" {
		return nil
	}
	return scenario.Redirect{
		State:   StateScanLocation,
		Event:   scenario.EventScan,
		Payload: scenario.Payload{"text": p.Text(), "confirmation": true},
	}
}

func confirmLocation(p scenario.Payload, c *scenario.Context) scenario.Effect {
	switch p.String("answer") {
	case "yes":
		return scenario.Redirect{
			State: StateScanLocation,
			Event: scenario.EventScan,
			Payload: scenario.Payload{
				"text":         c.GetString(KeyLastLocation),
				"confirmation": true,
			},
		}
	case "no":
		return scenario.Goto{State: StateScanLocation}
	}
	return nil
}
