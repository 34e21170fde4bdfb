// Package measurement layers package measurement onto the checkout scenario:
// once a delivery packaging is chosen the operator records the package
// dimensions before the lines are packed.
package measurement

import (
	"fmt"

	"ScanFlow/scenario"
	"ScanFlow/scenario/checkout"
)

const Module = "checkout.package_measurement"

const StatePackageMeasurement scenario.StateName = "package_measurement"

const keyPackaging = "measurement_packaging_id"

// Overrides returns the states this module adds to or replaces in checkout.
func Overrides() scenario.Overrides {
	return scenario.Overrides{
		Module: Module,
		States: map[scenario.StateName]scenario.StateOverride{
			checkout.StateSelectDeliveryPackaging: {
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventSelect: choosePackaging,
				},
			},
			StatePackageMeasurement: {
				Display: &scenario.Display{
					Title:  "Package measurement",
					Fields: []string{"length", "width", "height", "weight"},
				},
				Handlers: map[scenario.Event]scenario.Handler{
					scenario.EventConfirm: submitMeasurement,
					scenario.EventBack:    scenario.GoBack(checkout.StateSelectDeliveryPackaging),
				},
			},
		},
	}
}

// Install extends the registered checkout scenario and swaps it in place.
func Install(r *scenario.Registry) error {
	entry, err := r.Extend(checkout.Key, Overrides())
	if err != nil {
		return fmt.Errorf("extending %s: %w", checkout.Key, err)
	}
	return r.Replace(checkout.Key, entry)
}

func choosePackaging(p scenario.Payload, c *scenario.Context) scenario.Effect {
	id := p.Int("id")
	if id == 0 {
		return nil
	}
	c.Set(keyPackaging, id)
	c.SetData(StatePackageMeasurement, scenario.Data{
		"picking":      c.DataOf(checkout.StateSelectPackage).Map("picking"),
		"packaging_id": id,
	})
	return scenario.Goto{State: StatePackageMeasurement}
}

var dimensions = []string{"length", "width", "height", "weight"}

func submitMeasurement(p scenario.Payload, c *scenario.Context) scenario.Effect {
	dims := make(map[string]float64, len(dimensions))
	for _, name := range dimensions {
		v := p.Float(name)
		if v <= 0 {
			c.Notify(scenario.KindWarning, fmt.Sprintf("Package %s must be greater than zero.", name))
			return nil
		}
		dims[name] = v
	}

	eff := checkout.SetPackaging(scenario.Payload{"id": c.GetInt(keyPackaging)}, c)
	call, ok := eff.(scenario.Call)
	if !ok {
		return eff
	}
	call.Params["package_measurement"] = dims
	return call
}
