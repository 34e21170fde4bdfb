package scenario

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Entry is a registered scenario: its state table and where it starts.
type Entry struct {
	Key     string                        `validate:"required"`
	Route   string                        `validate:"required"`
	Initial StateName                     `validate:"required"`
	States  map[StateName]StateDefinition `validate:"required,min=1"`
	// CancelEvent is admitted while a call is in flight. Defaults to EventCancel.
	CancelEvent Event

	// owners records which module last overrode each state field.
	owners map[string]string
}

func (e Entry) cancelEvent() Event {
	if e.CancelEvent == "" {
		return EventCancel
	}
	return e.CancelEvent
}

// StateNames returns the declared state names in sorted order.
func (e Entry) StateNames() []StateName {
	names := slices.Collect(maps.Keys(e.States))
	slices.Sort(names)
	return names
}

func (e Entry) clone() Entry {
	out := e
	out.States = make(map[StateName]StateDefinition, len(e.States))
	for name, def := range e.States {
		def.Handlers = maps.Clone(def.Handlers)
		out.States[name] = def
	}
	out.owners = maps.Clone(e.owners)
	return out
}

// StateOverride replaces individual fields of a state. Nil fields are kept.
type StateOverride struct {
	Enter    EnterFunc
	Exit     ExitFunc
	Handlers map[Event]Handler
	Display  *Display
}

// Overrides is a set of state overrides contributed by one module.
type Overrides struct {
	Module string                      `validate:"required"`
	States map[StateName]StateOverride `validate:"required,min=1"`
}

// Registry stores scenario entries by usage key. It is built once at startup,
// then frozen before sessions are served.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	frozen  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Add registers entry under its key.
func (r *Registry) Add(entry Entry) error {
	entry, err := checkEntry(entry.clone())
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	if _, exists := r.entries[entry.Key]; exists {
		return &DuplicateScenarioError{Key: entry.Key}
	}
	r.entries[entry.Key] = entry
	return nil
}

// Get returns the entry registered under key.
func (r *Registry) Get(key string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[key]
	if !ok {
		return Entry{}, &UnknownScenarioError{Key: key}
	}
	return e, nil
}

// List returns all entries sorted by key.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		list = append(list, e)
	}
	slices.SortFunc(list, func(a, b Entry) int {
		return strings.Compare(a.Key, b.Key)
	})
	return list
}

// Extend returns a new entry built from the one registered under key with ov
// merged in. Unknown state names are added; known states have each given field
// replaced individually. The result is not registered.
//
// Two different modules overriding the same state field fail with an
// OverrideConflictError.
func (r *Registry) Extend(key string, ov Overrides) (Entry, error) {
	if err := validate.Struct(ov); err != nil {
		return Entry{}, fmt.Errorf("%w: overrides for %s: %v", ErrInvalidEntry, key, err)
	}

	base, err := r.Get(key)
	if err != nil {
		return Entry{}, err
	}

	out := base.clone()
	if out.owners == nil {
		out.owners = make(map[string]string)
	}
	claim := func(state StateName, field string) error {
		slot := string(state) + "/" + field
		if prev, ok := out.owners[slot]; ok && prev != ov.Module {
			return &OverrideConflictError{
				Scenario: key,
				State:    state,
				Field:    field,
				First:    prev,
				Second:   ov.Module,
			}
		}
		out.owners[slot] = ov.Module
		return nil
	}

	names := slices.Collect(maps.Keys(ov.States))
	slices.Sort(names)
	for _, name := range names {
		so := ov.States[name]
		def, exists := out.States[name]
		if !exists {
			if err := claim(name, "state"); err != nil {
				return Entry{}, err
			}
			def = StateDefinition{Name: name}
		}
		if so.Enter != nil {
			if err := claim(name, "enter"); err != nil {
				return Entry{}, err
			}
			def.Enter = so.Enter
		}
		if so.Exit != nil {
			if err := claim(name, "exit"); err != nil {
				return Entry{}, err
			}
			def.Exit = so.Exit
		}
		if so.Display != nil {
			if err := claim(name, "display"); err != nil {
				return Entry{}, err
			}
			def.Display = so.Display
		}
		for event, h := range so.Handlers {
			if err := claim(name, "on:"+string(event)); err != nil {
				return Entry{}, err
			}
			if def.Handlers == nil {
				def.Handlers = make(map[Event]Handler)
			}
			def.Handlers[event] = h
		}
		out.States[name] = def
	}

	return checkEntry(out)
}

// Replace swaps the entry registered under key. The key identity is preserved.
func (r *Registry) Replace(key string, entry Entry) error {
	if entry.Key != key {
		return fmt.Errorf("%w: replacing %s with entry keyed %s", ErrInvalidEntry, key, entry.Key)
	}
	entry, err := checkEntry(entry.clone())
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	if _, exists := r.entries[key]; !exists {
		return &UnknownScenarioError{Key: key}
	}
	r.entries[key] = entry
	return nil
}

// Freeze closes the registry to further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// checkEntry validates entry and fills state names from the table keys.
func checkEntry(entry Entry) (Entry, error) {
	if err := validate.Struct(entry); err != nil {
		return Entry{}, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, entry.Key, err)
	}
	for name, def := range entry.States {
		switch def.Name {
		case "":
			def.Name = name
			entry.States[name] = def
		case name:
		default:
			return Entry{}, fmt.Errorf("%w: %s: state %s declared under %s", ErrInvalidEntry, entry.Key, def.Name, name)
		}
	}
	if _, ok := entry.States[entry.Initial]; !ok {
		return Entry{}, &UnknownStateError{Scenario: entry.Key, State: entry.Initial}
	}
	return entry, nil
}
