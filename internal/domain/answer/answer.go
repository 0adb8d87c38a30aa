// Package answer contains the per-request answer state and the token events
// that drive it.
package answer

// Phase is the lifecycle phase of a streamed answer.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStreaming
	PhaseEnded
	PhaseErrored
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStreaming:
		return "streaming"
	case PhaseEnded:
		return "ended"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (p Phase) IsTerminal() bool {
	return p == PhaseEnded || p == PhaseErrored
}

// State is the accumulated answer of one in-flight request.
type State struct {
	Text  string
	Phase Phase
}

// TokenEvent is one item produced by a token source. A final event may carry
// a trailing fragment; an event with Err set terminates the stream.
type TokenEvent struct {
	Fragment string
	IsFinal  bool
	Err      error
}

// Token builds a non-final event.
func Token(fragment string) TokenEvent {
	return TokenEvent{Fragment: fragment}
}

// Final builds the end-of-stream event.
func Final() TokenEvent {
	return TokenEvent{IsFinal: true}
}

// Failed builds an error event.
func Failed(err error) TokenEvent {
	return TokenEvent{Err: err}
}
