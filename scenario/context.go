package scenario

import "maps"

// Context is the mutable view of a running session handed to state handlers.
// It is only valid for the duration of a handler call.
type Context struct {
	m    *Machine
	vars map[string]any
}

// Scenario returns the usage key of the running scenario.
func (c *Context) Scenario() string {
	return c.m.entry.Key
}

// SessionID returns the identifier of the session.
func (c *Context) SessionID() string {
	return c.m.id
}

// State returns the current state name.
func (c *Context) State() StateName {
	return c.m.current
}

// Data returns the data bag of the current state.
func (c *Context) Data() Data {
	return c.m.data[c.m.current]
}

// DataOf returns the last known data bag of state.
func (c *Context) DataOf(state StateName) Data {
	return c.m.data[state]
}

// SetData replaces the data bag of state.
func (c *Context) SetData(state StateName, d Data) {
	c.m.data[state] = d
}

// Notify sets the user-facing message.
func (c *Context) Notify(kind MessageKind, body string) {
	c.m.notifier.Set(kind, body)
}

// Get retrieves a session variable.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.vars[key]
	return v, ok
}

// GetString retrieves a string session variable.
func (c *Context) GetString(key string) string {
	if v, ok := c.vars[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// GetInt retrieves an integer session variable.
func (c *Context) GetInt(key string) int {
	return toInt(c.vars[key])
}

// GetBool retrieves a boolean session variable.
func (c *Context) GetBool(key string) bool {
	if v, ok := c.vars[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Set stores a session variable.
func (c *Context) Set(key string, value any) {
	if c.vars == nil {
		c.vars = make(map[string]any)
	}
	c.vars[key] = value
}

// Delete removes a session variable.
func (c *Context) Delete(key string) {
	delete(c.vars, key)
}

func (c *Context) snapshotVars() map[string]any {
	return maps.Clone(c.vars)
}
