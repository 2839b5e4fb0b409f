package events

// Event represents a structured state change emitted by the marketplace.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. websocket streams,
// audit sinks).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Record is the canonical payload carried by marketplace events. Summary holds
// the human-readable audit line for the operation.
type Record struct {
	Type       string            `json:"type"`
	Summary    string            `json:"summary,omitempty"`
	Attributes map[string]string `json:"attributes"`
}

// EventType implements Event.
func (r *Record) EventType() string {
	if r == nil {
		return ""
	}
	return r.Type
}

// MultiEmitter fans a single event out to several emitters in order.
type MultiEmitter []Emitter

// Emit implements the Emitter interface.
func (m MultiEmitter) Emit(evt Event) {
	for _, emitter := range m {
		if emitter != nil {
			emitter.Emit(evt)
		}
	}
}
