package scenario

// Effect is what a handler asks the machine to do next. A nil Effect means stay.
type Effect interface {
	effect()
}

// Goto transitions to State synchronously.
type Goto struct {
	State StateName
}

// Call issues Endpoint through the gateway; the envelope selects the next state.
type Call struct {
	Endpoint string
	Params   map[string]any
}

// Redirect transitions to State and replays Event there.
// Payload replaces the original event payload when set.
type Redirect struct {
	State   StateName
	Event   Event
	Payload Payload
}

func (Goto) effect()     {}
func (Call) effect()     {}
func (Redirect) effect() {}

// ScanCall builds a scan handler calling endpoint with the scanned text under key.
// Empty scans are ignored. with may add parameters from the session.
func ScanCall(endpoint, key string, with func(c *Context) map[string]any) Handler {
	return func(p Payload, c *Context) Effect {
		text := p.Text()
		if text == "" {
			return nil
		}
		params := map[string]any{key: text}
		if with != nil {
			for k, v := range with(c) {
				params[k] = v
			}
		}
		return Call{Endpoint: endpoint, Params: params}
	}
}

// GoBack builds a handler returning to state.
func GoBack(state StateName) Handler {
	return func(Payload, *Context) Effect {
		return Goto{State: state}
	}
}
