package export

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// State is the progress state of one export step.
type State string

const (
	StateRunning State = "running"
	StateDone    State = "done"
	StateWarning State = "warning"
	StateError   State = "error"
)

// Terminal reports whether the state ends a step.
func (s State) Terminal() bool {
	return s == StateDone || s == StateWarning || s == StateError
}

// Target identifies an export step. Consumers key their rendering on it.
type Target string

const (
	TargetLoad           Target = "load"
	TargetGuard          Target = "guard"
	TargetShowLookup     Target = "show-lookup"
	TargetMediaUpload    Target = "media-upload"
	TargetReferenceCheck Target = "reference-check"
	TargetMetadata       Target = "metadata"
	TargetLinking        Target = "linking"
	TargetCover          Target = "cover"
	TargetValidation     Target = "validation"
	TargetFinalize       Target = "finalize"
)

// Targets lists the steps in execution order.
var Targets = []Target{
	TargetLoad,
	TargetGuard,
	TargetShowLookup,
	TargetMediaUpload,
	TargetReferenceCheck,
	TargetMetadata,
	TargetLinking,
	TargetCover,
	TargetValidation,
	TargetFinalize,
}

// Pair is one labelled value of an event.
type Pair struct {
	Label string
	Value string
}

// Pairs is an ordered label to value list. It encodes as a JSON object whose
// keys keep their insertion order.
type Pairs []Pair

// Add appends a pair.
func (p *Pairs) Add(label, value string) {
	*p = append(*p, Pair{Label: label, Value: value})
}

// Get returns the first value stored under label.
func (p Pairs) Get(label string) (string, bool) {
	for _, pair := range p {
		if pair.Label == label {
			return pair.Value, true
		}
	}
	return "", false
}

// MarshalJSON implements json.Marshaler.
func (p Pairs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, pair := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(pair.Label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(pair.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving key order.
func (p *Pairs) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*p = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("pairs: expected object, got %v", tok)
	}
	out := Pairs{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("pairs: expected string key, got %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("pairs: value for %q: %w", key, err)
		}
		out = append(out, Pair{Label: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

// Event reports the progress of one export step.
type Event struct {
	Target         Target `json:"target"`
	Title          string `json:"title"`
	State          State  `json:"state"`
	Description    string `json:"description"`
	Details        Pairs  `json:"details"`
	CopyableValues Pairs  `json:"copyable_values"`
}

// Sink receives events in emission order.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit implements Sink.
func (f SinkFunc) Emit(e Event) { f(e) }

// Collector is a Sink that keeps every event. It is not safe for concurrent use.
type Collector struct {
	Events []Event
}

// Emit implements Sink.
func (c *Collector) Emit(e Event) { c.Events = append(c.Events, e) }
