// Package catalog registers every built-in scenario and layers the screen
// descriptions of display.yaml onto them.
package catalog

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"ScanFlow/scenario"
	"ScanFlow/scenario/checkout"
	"ScanFlow/scenario/checkout/measurement"
	"ScanFlow/scenario/pallettransfer"
	"ScanFlow/scenario/putaway"
	"ScanFlow/scenario/reception"
	"ScanFlow/scenario/singlepack"
)

// DisplayModule is the override module name used for display metadata.
const DisplayModule = "display-catalog"

//go:embed display.yaml
var displayYAML []byte

// Features toggles optional scenario modules.
type Features struct {
	PackageMeasurement bool
}

// Screens maps scenario keys to the displays of their states.
type Screens map[string]map[scenario.StateName]scenario.Display

// Entries returns the built-in scenario tables.
func Entries() []scenario.Entry {
	return []scenario.Entry{
		putaway.Entry(),
		singlepack.Entry(),
		pallettransfer.Entry(),
		checkout.Entry(),
		reception.Entry(),
	}
}

// ParseScreens decodes a display catalog.
func ParseScreens(raw []byte) (Screens, error) {
	var s Screens
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode display catalog: %w", err)
	}
	return s, nil
}

// Install registers the built-in scenarios, applies the enabled extension
// modules and then the embedded display catalog.
func Install(r *scenario.Registry, f Features) error {
	for _, e := range Entries() {
		if err := r.Add(e); err != nil {
			return err
		}
	}

	if f.PackageMeasurement {
		if err := measurement.Install(r); err != nil {
			return fmt.Errorf("install %s: %w", measurement.Module, err)
		}
	}

	screens, err := ParseScreens(displayYAML)
	if err != nil {
		return err
	}
	return ApplyScreens(r, screens)
}

// ApplyScreens overrides the display of every listed state. Scenarios that are
// not registered are skipped. A state missing from its scenario is an error.
func ApplyScreens(r *scenario.Registry, screens Screens) error {
	keys := slices.Sorted(maps.Keys(screens))
	for _, key := range keys {
		base, err := r.Get(key)
		if err != nil {
			continue
		}

		ov := scenario.Overrides{
			Module: DisplayModule,
			States: make(map[scenario.StateName]scenario.StateOverride, len(screens[key])),
		}
		for name, d := range screens[key] {
			if _, ok := base.States[name]; !ok {
				return &scenario.UnknownStateError{Scenario: key, State: name}
			}
			ov.States[name] = scenario.StateOverride{Display: &d}
		}
		if len(ov.States) == 0 {
			continue
		}

		entry, err := r.Extend(key, ov)
		if err != nil {
			return err
		}
		if err = r.Replace(key, entry); err != nil {
			return err
		}
	}
	return nil
}
