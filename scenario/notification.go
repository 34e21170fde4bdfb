package scenario

// Notification is the message currently shown to the user.
type Notification struct {
	Kind MessageKind `json:"kind" bson:"kind"`
	Body string      `json:"body" bson:"body"`
}

// Notifier holds a single current-message slot.
type Notifier struct {
	current *Notification
}

// Set replaces the current message.
func (n *Notifier) Set(kind MessageKind, body string) {
	n.current = &Notification{Kind: kind, Body: body}
}

// Clear drops the current message.
func (n *Notifier) Clear() {
	n.current = nil
}

// Current returns a copy of the current message, or nil.
func (n *Notifier) Current() *Notification {
	if n.current == nil {
		return nil
	}
	c := *n.current
	return &c
}
