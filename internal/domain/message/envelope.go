// Package message defines the envelopes delivered to a recipient and their
// wire representation.
package message

import "fmt"

// Type is the envelope type carried in the "type" wire field.
type Type string

const (
	TypeMessage Type = "message"
	TypeStream  Type = "stream"
	TypeEnd     Type = "end"
	TypeError   Type = "error"
)

// IsTerminal reports whether the type closes a request.
func (t Type) IsTerminal() bool {
	return t == TypeEnd || t == TypeError
}

// ParseType converts a wire value into a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeMessage, TypeStream, TypeEnd, TypeError:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown message type %q", s)
	}
}

// Action is the optional "action" wire field.
type Action string

const (
	ActionNone  Action = ""
	ActionClose Action = "close"
)

// Wire field names.
const (
	FieldMessage  = "message"
	FieldType     = "type"
	FieldAction   = "action"
	FieldFeedback = "feedback"
	FieldData     = "data"
)

// InProgressSuffix is appended to the cleaned text of Stream envelopes.
const InProgressSuffix = "..."

// Envelope is one message unit. Envelopes are values; build them with the
// constructors below and do not mutate them after publishing.
type Envelope struct {
	Message  string `json:"message"`
	Type     Type   `json:"type"`
	Action   Action `json:"action,omitempty"`
	Feedback string `json:"feedback,omitempty"`
	Data     any    `json:"data,omitempty"`
}

// NewStream builds an in-progress envelope for partially cleaned text.
func NewStream(text string) Envelope {
	return Envelope{Message: text + InProgressSuffix, Type: TypeStream}
}

// NewEnd builds the terminal envelope of a successful stream.
func NewEnd(text string, data any) Envelope {
	return Envelope{Message: text, Type: TypeEnd, Data: data}
}

// NewError builds the terminal envelope of a failed stream.
func NewError(err error) Envelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Envelope{Message: msg, Type: TypeError}
}

// NewMessage builds a standalone informational envelope.
func NewMessage(text string) Envelope {
	return Envelope{Message: text, Type: TypeMessage}
}
