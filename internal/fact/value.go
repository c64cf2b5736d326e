package fact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Value is a sealed interface representing the typed values an attribute
// can hold. Only String, Int, Bool, Time, and UUID implement it. Values
// are treated opaquely by the reconstruction pipeline; the closed set
// exists so that merge and comparison logic stays type-safe.
type Value interface {
	factValue() // Sealed - only these types implement it

	// Kind reports the value's tag for serialization and display.
	Kind() Kind
}

// Kind identifies the concrete type of a Value.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
	KindTime   Kind = "time"
	KindUUID   Kind = "uuid"
)

// String represents a string attribute value.
type String string

func (String) factValue() {}

// Kind returns KindString.
func (String) Kind() Kind { return KindString }

// Int represents an integer attribute value. Always int64.
type Int int64

func (Int) factValue() {}

// Kind returns KindInt.
func (Int) Kind() Kind { return KindInt }

// Bool represents a boolean attribute value.
type Bool bool

func (Bool) factValue() {}

// Kind returns KindBool.
func (Bool) Kind() Kind { return KindBool }

// Time represents a timestamp attribute value.
// Serialized as RFC 3339 with nanosecond precision, always UTC.
type Time time.Time

func (Time) factValue() {}

// Kind returns KindTime.
func (Time) Kind() Kind { return KindTime }

// UUID represents a UUID attribute value.
type UUID uuid.UUID

func (UUID) factValue() {}

// Kind returns KindUUID.
func (UUID) Kind() Kind { return KindUUID }

// Display returns the human-readable form of a value, without type tags.
// Used for text CLI output.
func Display(v Value) string {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return fmt.Sprintf("%d", int64(val))
	case Bool:
		return fmt.Sprintf("%t", bool(val))
	case Time:
		return time.Time(val).UTC().Format(time.RFC3339Nano)
	case UUID:
		return uuid.UUID(val).String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Equal reports whether two values are the same type and the same value.
// Times compare with time.Time.Equal so location and monotonic-clock
// differences do not matter.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Time:
		bv, ok := b.(Time)
		return ok && time.Time(av).Equal(time.Time(bv))
	case UUID:
		bv, ok := b.(UUID)
		return ok && uuid.UUID(av) == uuid.UUID(bv)
	default:
		return false
	}
}

// taggedValue is the storage encoding of a Value: an explicit type tag
// plus the payload. The tag makes round-trips through the store lossless
// (a UUID never comes back as a plain string).
type taggedValue struct {
	Type  Kind            `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalValue serializes a Value to its tagged JSON form.
// HTML escaping is disabled so stored text is byte-stable across encoders.
func MarshalValue(v Value) ([]byte, error) {
	var payload any
	switch val := v.(type) {
	case String:
		payload = string(val)
	case Int:
		payload = int64(val)
	case Bool:
		payload = bool(val)
	case Time:
		payload = time.Time(val).UTC().Format(time.RFC3339Nano)
	case UUID:
		payload = uuid.UUID(val).String()
	default:
		return nil, fmt.Errorf("unknown value type: %T", v)
	}

	raw, err := marshalNoEscape(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", v.Kind(), err)
	}

	data, err := marshalNoEscape(taggedValue{Type: v.Kind(), Value: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s value: %w", v.Kind(), err)
	}
	return data, nil
}

// UnmarshalValue parses a tagged JSON form back into a Value.
// Unknown tags are rejected rather than defaulting to string.
func UnmarshalValue(data []byte) (Value, error) {
	var tagged taggedValue
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}

	switch tagged.Type {
	case KindString:
		var s string
		if err := json.Unmarshal(tagged.Value, &s); err != nil {
			return nil, fmt.Errorf("unmarshal string payload: %w", err)
		}
		return String(s), nil

	case KindInt:
		var n json.Number
		if err := json.Unmarshal(tagged.Value, &n); err != nil {
			return nil, fmt.Errorf("unmarshal int payload: %w", err)
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("int payload out of range: %s", n)
		}
		return Int(i), nil

	case KindBool:
		var b bool
		if err := json.Unmarshal(tagged.Value, &b); err != nil {
			return nil, fmt.Errorf("unmarshal bool payload: %w", err)
		}
		return Bool(b), nil

	case KindTime:
		var s string
		if err := json.Unmarshal(tagged.Value, &s); err != nil {
			return nil, fmt.Errorf("unmarshal time payload: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("parse time payload: %w", err)
		}
		return Time(t), nil

	case KindUUID:
		var s string
		if err := json.Unmarshal(tagged.Value, &s); err != nil {
			return nil, fmt.Errorf("unmarshal uuid payload: %w", err)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse uuid payload: %w", err)
		}
		return UUID(id), nil

	default:
		return nil, fmt.Errorf("unknown value tag: %q", tagged.Type)
	}
}

// marshalNoEscape marshals without HTML escaping and without the
// trailing newline json.Encoder appends.
func marshalNoEscape(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return json.RawMessage(strings.TrimSpace(buf.String())), nil
}
