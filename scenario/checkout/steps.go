package checkout

import (
	"ScanFlow/scenario"
)

// PickingID returns the transfer being checked out, looking at the current
// screen first and then at the line selection screen.
func PickingID(c *scenario.Context) int {
	for _, d := range []scenario.Data{c.Data(), c.DataOf(StateSelectLine), c.DataOf(StateSelectPackage)} {
		if id := d.Map("picking").Int("id"); id != 0 {
			return id
		}
	}
	return 0
}

// SelectedLineIDs returns the move lines being packed.
func SelectedLineIDs(c *scenario.Context) []int {
	return c.DataOf(StateSelectPackage).IDs("selected_move_lines")
}

func withPicking(c *scenario.Context) map[string]any {
	return map[string]any{"picking_id": PickingID(c)}
}

func withSelectedLines(c *scenario.Context) map[string]any {
	return map[string]any{
		"picking_id":        PickingID(c),
		"selected_line_ids": SelectedLineIDs(c),
	}
}

func selectLine(p scenario.Payload, c *scenario.Context) scenario.Effect {
	id := p.Int("id")
	if id == 0 {
		return nil
	}
	return scenario.Call{
		Endpoint: "select_line",
		Params: map[string]any{
			"picking_id":   PickingID(c),
			"move_line_id": id,
		},
	}
}

// setQuantity edits a line quantity in place; the backend answers without a state.
func setQuantity(p scenario.Payload, c *scenario.Context) scenario.Effect {
	params := withSelectedLines(c)
	params["move_line_id"] = p.Int("id")
	params["qty_done"] = p.Float("qty")
	return scenario.Call{Endpoint: "set_quantity", Params: params}
}

func listDeliveryPackaging(_ scenario.Payload, c *scenario.Context) scenario.Effect {
	return scenario.Call{Endpoint: "list_delivery_packaging", Params: withSelectedLines(c)}
}

func resetLineQuantities(_ scenario.Payload, c *scenario.Context) scenario.Effect {
	return scenario.Call{Endpoint: "reset_line_qty", Params: withSelectedLines(c)}
}

// SetPackaging packs the selected lines into the chosen delivery packaging.
func SetPackaging(p scenario.Payload, c *scenario.Context) scenario.Effect {
	id := p.Int("id")
	if id == 0 {
		return nil
	}
	params := withSelectedLines(c)
	params["packaging_id"] = id
	return scenario.Call{Endpoint: "set_packaging", Params: params}
}

func done(_ scenario.Payload, c *scenario.Context) scenario.Effect {
	return scenario.Call{
		Endpoint: "done",
		Params:   map[string]any{"picking_id": PickingID(c)},
	}
}
