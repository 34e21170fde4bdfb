package scenario

import (
	"context"
	"maps"
	"strconv"
	"strings"
)

// StateName is a unique identifier for a state within a scenario.
type StateName string

// Event is the name of a user action dispatched into the current state.
type Event string

// Events emitted by scanner screens.
const (
	EventScan     Event = "scan"
	EventSelect   Event = "select"
	EventConfirm  Event = "confirm"
	EventBack     Event = "back"
	EventQuantity Event = "quantity"
	EventCancel   Event = "cancel"
)

// Handler processes an event for the state it is declared on.
type Handler func(p Payload, c *Context) Effect

// EnterFunc runs when the machine enters a state. It may chain another effect.
type EnterFunc func(c *Context) Effect

// ExitFunc runs before the machine leaves a state.
type ExitFunc func(c *Context)

// Display is the declarative description of a screen. The machine never reads it.
type Display struct {
	Title           string   `json:"title,omitempty" yaml:"title"`
	ScanPlaceholder string   `json:"scan_placeholder,omitempty" yaml:"scan_placeholder"`
	Fields          []string `json:"fields,omitempty" yaml:"fields"`
}

// StateDefinition is one named state of a scenario.
type StateDefinition struct {
	Name     StateName
	Enter    EnterFunc
	Exit     ExitFunc
	Handlers map[Event]Handler
	Display  *Display
}

// Executor runs gateway calls off the dispatching goroutine. Go must not run f inline.
type Executor interface {
	Go(f func()) error
}

// Gateway issues a single named call to the backend.
type Gateway interface {
	Call(ctx context.Context, req Request) (Envelope, error)
}

// Request is one remote call issued by a Call effect.
type Request struct {
	Scenario string
	Route    string
	Endpoint string
	Params   map[string]any
	// State is the state the call was issued from.
	State StateName
}

// Payload is the scenario-specific body of a dispatched event.
type Payload map[string]any

// Text returns the trimmed scanned text of a scan payload.
func (p Payload) Text() string {
	return strings.TrimSpace(p.String("text"))
}

// String retrieves a string value from the payload.
func (p Payload) String(key string) string {
	if v, ok := p[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// Bool retrieves a boolean value from the payload.
func (p Payload) Bool(key string) bool {
	if v, ok := p[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Int retrieves an integer value from the payload.
func (p Payload) Int(key string) int {
	return toInt(p[key])
}

// Float retrieves a float value from the payload.
func (p Payload) Float(key string) float64 {
	switch val := p[key].(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	}
	return 0
}

// Data is the business payload held for one state.
type Data map[string]any

// String retrieves a string value from the data bag.
func (d Data) String(key string) string {
	if v, ok := d[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// Int retrieves an integer value from the data bag.
func (d Data) Int(key string) int {
	return toInt(d[key])
}

// Bool retrieves a boolean value from the data bag.
func (d Data) Bool(key string) bool {
	if v, ok := d[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Map retrieves a nested record from the data bag.
func (d Data) Map(key string) Data {
	switch val := d[key].(type) {
	case Data:
		return val
	case map[string]any:
		return val
	}
	return nil
}

// IDs collects the "id" field of every record listed under key.
func (d Data) IDs(key string) []int {
	list, ok := d[key].([]any)
	if !ok {
		return nil
	}
	ids := make([]int, 0, len(list))
	for _, item := range list {
		switch rec := item.(type) {
		case map[string]any:
			ids = append(ids, toInt(rec["id"]))
		case Data:
			ids = append(ids, rec.Int("id"))
		default:
			ids = append(ids, toInt(rec))
		}
	}
	return ids
}

// Clone returns a shallow copy of the data bag.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

func toInt(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case int32:
		return int(val)
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		i, _ := strconv.Atoi(val)
		return i
	}
	return 0
}
