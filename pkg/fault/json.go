package fault

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope is the serialized form of a failure chain. Each link carries
// the record fields; a link with an empty kind is a foreign error that
// was wrapped somewhere in the chain and survives as plain text.
type Envelope struct {
	Kind     string         `json:"kind,omitempty"`
	Category string         `json:"category,omitempty"`
	Message  string         `json:"message"`
	Context  map[string]any `json:"context,omitempty"`
	Cause    *Envelope      `json:"cause,omitempty"`
}

// ToEnvelope converts an error chain into its serialized form, walking
// the cause links outermost first. Nothing is lost on the way out: every
// record keeps its kind, category, context, and position in the chain.
func ToEnvelope(err error) *Envelope {
	if err == nil {
		return nil
	}
	top := &Envelope{}
	current := top
	link := err
	for depth := 0; link != nil && depth < maxChain; depth++ {
		if rec, ok := link.(*Record); ok {
			current.Kind = rec.kind.name
			current.Category = string(rec.kind.category)
			current.Message = rec.message
			current.Context = cloneContext(rec.context)
		} else {
			current.Message = link.Error()
		}
		link = errors.Unwrap(link)
		if link != nil {
			current.Cause = &Envelope{}
			current = current.Cause
		}
	}
	return top
}

// Encode serializes an error chain to JSON.
func Encode(err error) ([]byte, error) {
	envelope := ToEnvelope(err)
	if envelope == nil {
		return nil, errors.New("fault: cannot encode nil error")
	}
	return json.Marshal(envelope)
}

// Decode parses and validates a serialized failure chain. Every link
// must carry a message; a kind name that is not registered in this
// process is tolerated and falls back to KindUnknown on reconstruction.
func Decode(data []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, Wrap(KindMalformedInput, "failure envelope is not valid JSON", err)
	}
	depth := 0
	for link := &envelope; link != nil; link = link.Cause {
		depth++
		if depth > maxChain {
			return nil, Newf(KindMalformedInput, "failure envelope chain exceeds %d links", maxChain)
		}
		if link.Message == "" {
			return nil, Newf(KindMalformedInput, "failure envelope link %d has no message", depth)
		}
	}
	return &envelope, nil
}

// Err reconstructs an error chain from the envelope. Links whose kind
// is unknown in this process come back as KindUnknown records; links
// with no kind come back as plain errors.
func (e *Envelope) Err() error {
	if e == nil {
		return nil
	}
	var cause error
	if e.Cause != nil {
		cause = e.Cause.Err()
	}
	if e.Message == "" {
		return errors.New("malformed failure envelope")
	}
	if e.Kind == "" {
		if cause == nil {
			return errors.New(e.Message)
		}
		return fmt.Errorf("%s: %w", e.Message, cause)
	}
	kind, ok := LookupKind(e.Kind)
	if !ok {
		kind = KindUnknown
	}
	return &Record{kind: kind, message: e.Message, context: cloneContext(e.Context), cause: cause}
}
