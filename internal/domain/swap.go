package domain

import "encoding/json"

// SimulationEvent is one event emitted by a dev-inspected transaction.
type SimulationEvent struct {
	Type       string          `json:"type"`
	ParsedJSON json.RawMessage `json:"parsedJson"`
}

// SimulationResult is the outcome of a dev-inspect call.
type SimulationResult struct {
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	Events  []SimulationEvent `json:"events"`
	GasUsed uint64            `json:"gasUsed"`
}

// EventsOfType returns the events whose type ends with the given Move event name.
func (r *SimulationResult) EventsOfType(name string) []SimulationEvent {
	var out []SimulationEvent
	for _, e := range r.Events {
		if EventName(e.Type) == name {
			out = append(out, e)
		}
	}
	return out
}

// EventName strips the package and module from "0x..::module::Name<T>".
func EventName(t string) string {
	end := len(t)
	for i := 0; i < len(t); i++ {
		if t[i] == '<' {
			end = i
			break
		}
	}
	t = t[:end]
	for i := len(t) - 1; i > 0; i-- {
		if t[i] == ':' && t[i-1] == ':' {
			return t[i+1:]
		}
	}
	return t
}
