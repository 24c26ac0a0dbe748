package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind is the type of an option value.
// There is deliberately no float kind (values must hash deterministically).
type ValueKind string

const (
	KindBool    ValueKind = "bool"
	KindInteger ValueKind = "integer"
	KindString  ValueKind = "string"
)

// Value is an option value. Text is the verbatim textual form; Kind says how
// downstream consumers should type it.
type Value struct {
	Kind ValueKind `json:"kind"`
	Text string    `json:"text"`
}

// BoolValue creates a bool Value.
func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Text: strconv.FormatBool(b)}
}

// IntValue creates an integer Value.
func IntValue(n int64) Value {
	return Value{Kind: KindInteger, Text: strconv.FormatInt(n, 10)}
}

// StringValue creates a string Value.
func StringValue(s string) Value {
	return Value{Kind: KindString, Text: s}
}

// ParseValue infers a Value from override text, keeping text verbatim.
// "true"/"false" are bools, base-10 integers are integers, anything else is a string.
func ParseValue(text string) Value {
	if text == "true" || text == "false" {
		return Value{Kind: KindBool, Text: text}
	}
	if _, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Value{Kind: KindInteger, Text: text}
	}
	return Value{Kind: KindString, Text: text}
}

// Int parses the value text as a base-10 int64.
func (v Value) Int() (int64, error) {
	n, err := strconv.ParseInt(v.Text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("value %q is not an integer", v.Text)
	}
	return n, nil
}

// Bool parses the value text as a bool.
func (v Value) Bool() (bool, error) {
	switch v.Text {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("value %q is not a bool", v.Text)
}

// String returns the verbatim text.
func (v Value) String() string {
	return v.Text
}

// IsZero reports whether v was never set.
func (v Value) IsZero() bool {
	return v.Kind == ""
}

// ToIRValue converts v to its typed JSON representation. Integers that do not
// fit int64 (possible for verbatim overrides) fall back to strings.
func (v Value) ToIRValue() IRValue {
	switch v.Kind {
	case KindBool:
		if b, err := v.Bool(); err == nil {
			return IRBool(b)
		}
	case KindInteger:
		if n, err := v.Int(); err == nil {
			return IRInt(n)
		}
	}
	return IRString(v.Text)
}

// MarshalJSON encodes the value as its typed JSON form (true, 64, "generic").
func (v Value) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(v.ToIRValue())
}

// UnmarshalJSON accepts typed JSON (bool, integer, string).
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case bool:
		*v = BoolValue(x)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return fmt.Errorf("floats are forbidden in option values: %s", x)
		}
		*v = IntValue(n)
	case string:
		*v = StringValue(x)
	default:
		return fmt.Errorf("unsupported option value: %s", data)
	}
	return nil
}
