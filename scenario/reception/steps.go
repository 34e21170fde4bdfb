package reception

import (
	"ScanFlow/scenario"
)

func pickingID(c *scenario.Context) int {
	if id := c.Data().Map("picking").Int("id"); id != 0 {
		return id
	}
	return c.DataOf(StateSelectMove).Map("picking").Int("id")
}

func selectedLineID(c *scenario.Context) int {
	if id := c.Data().Map("selected_move_line").Int("id"); id != 0 {
		return id
	}
	return c.DataOf(StateSetQuantity).Map("selected_move_line").Int("id")
}

func withPicking(c *scenario.Context) map[string]any {
	return map[string]any{"picking_id": pickingID(c)}
}

func withLine(c *scenario.Context) map[string]any {
	return map[string]any{
		"picking_id":       pickingID(c),
		"selected_line_id": selectedLineID(c),
	}
}

func lineCall(endpoint string) scenario.Handler {
	return func(_ scenario.Payload, c *scenario.Context) scenario.Effect {
		return scenario.Call{Endpoint: endpoint, Params: withLine(c)}
	}
}

func selectDocument(p scenario.Payload, _ *scenario.Context) scenario.Effect {
	id := p.Int("id")
	if id == 0 {
		return nil
	}
	return scenario.Call{
		Endpoint: "scan_document",
		Params:   map[string]any{"picking_id": id},
	}
}

// setQuantity updates the received quantity in place.
func setQuantity(p scenario.Payload, c *scenario.Context) scenario.Effect {
	params := withLine(c)
	params["quantity"] = p.Float("qty")
	return scenario.Call{Endpoint: "set_quantity", Params: params}
}
