package jsworker

import (
	"encoding/json"
	"fmt"
)

// Payload converts a caller value into the self-describing text envelope
// understood by the child-process protocol. Every implementation ultimately
// renders a single JSON text value; the literal "null" is reserved to mean
// "skip the payload phase" and is distinct from an encoded JSON null nested
// inside a real payload.
type Payload interface {
	Encode() (string, error)
}

// NoPayload is the empty-payload marker. A task invoked with it skips the
// payload phase of the wire protocol entirely.
type NoPayload struct{}

// Encode implements Payload.
func (NoPayload) Encode() (string, error) { return "null", nil }

// Inner wraps a primitive value (number, string, or boolean) in the
// `_inner_payload` envelope used for scalar task inputs.
type Inner struct {
	Value interface{}
}

// Encode implements Payload.
func (p Inner) Encode() (string, error) {
	b, err := json.Marshal(struct {
		Inner interface{} `json:"_inner_payload"`
	}{p.Value})
	if err != nil {
		return "", fmt.Errorf("encoding inner payload: %w", err)
	}
	return string(b), nil
}

// Raw passes a pre-built self-describing JSON value through verbatim. A
// nil or empty Raw encodes as the null token rather than as "".
type Raw json.RawMessage

// Encode implements Payload.
func (p Raw) Encode() (string, error) {
	if len(p) == 0 {
		return "null", nil
	}
	return string(p), nil
}

// Optional encodes Value if present, or the null token otherwise,
// distinguishing an absent payload from one whose Payload happens to
// encode to an embedded JSON null.
type Optional struct {
	Value   Payload
	Present bool
}

// Encode implements Payload.
func (p Optional) Encode() (string, error) {
	if !p.Present {
		return "null", nil
	}
	return p.Value.Encode()
}

// Path encodes a filesystem path using the string rule (i.e. as a
// scalar-wrapped string payload).
type Path string

// Encode implements Payload.
func (p Path) Encode() (string, error) { return Inner{Value: string(p)}.Encode() }

// Payloads builds an ordered sequence of Payload values from heterogeneous
// caller arguments, so a single batched call may carry mixed-type inputs.
// Values already implementing Payload pass through unchanged; primitive
// numbers, strings, and booleans are scalar-wrapped; nil becomes NoPayload;
// anything else is marshaled directly and passed through as Raw.
func Payloads(args ...interface{}) ([]Payload, error) {
	out := make([]Payload, len(args))
	for i, a := range args {
		p, err := toPayload(a)
		if err != nil {
			return nil, fmt.Errorf("encoding payload %d (%T): %w", i, a, err)
		}
		out[i] = p
	}
	return out, nil
}

func toPayload(a interface{}) (Payload, error) {
	switch v := a.(type) {
	case Payload:
		return v, nil
	case nil:
		return NoPayload{}, nil
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, string, bool:
		return Inner{Value: v}, nil
	case json.RawMessage:
		return Raw(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return Raw(b), nil
	}
}
