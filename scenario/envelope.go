package scenario

// MessageKind classifies a notification.
type MessageKind string

const (
	KindInfo    MessageKind = "info"
	KindSuccess MessageKind = "success"
	KindWarning MessageKind = "warning"
	KindError   MessageKind = "error"
)

// Message is a user-facing message returned by the backend.
type Message struct {
	Kind MessageKind `json:"message_type" validate:"required,oneof=info success warning error"`
	Body string      `json:"body"`
}

// Envelope is the normalized result of a gateway call.
// An empty State keeps the current state and only refreshes its data and message.
// Data, when the state is named, fully replaces the data bag of that state.
type Envelope struct {
	State   StateName `json:"state,omitempty"`
	Data    Data      `json:"data,omitempty"`
	Message *Message  `json:"message,omitempty"`
}
